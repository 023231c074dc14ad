package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"

	"github.com/limaJavier/timetabling-planner/internal/config"
	"github.com/limaJavier/timetabling-planner/internal/logger"
	"github.com/limaJavier/timetabling-planner/pkg/localsolver"
	"github.com/limaJavier/timetabling-planner/pkg/model"
	"github.com/limaJavier/timetabling-planner/pkg/planner"
	"github.com/limaJavier/timetabling-planner/pkg/present"
	"github.com/limaJavier/timetabling-planner/pkg/solver"
	"github.com/limaJavier/timetabling-planner/pkg/store"
	"github.com/limaJavier/timetabling-planner/pkg/variants"

	"github.com/samber/lo"
)

var commands = map[string]func(ctx context.Context, workspace *planner.Workspace, args []string) error{
	"import":   importConfig,
	"export":   exportConfig,
	"teachers": listTeachers,
	"generate": generate,
	"variants": listVariants,
	"select":   selectVariant,
	"show":     show,
	"repair":   repair,
	"clear":    clearVariants,

	"validate":         validateConfig,
	"add-class":        addClass,
	"replace-class":    replaceClass,
	"remove-class":     removeClass,
	"set-teachers":     setTeachers,
	"set-lab-teachers": setLabTeachers,
	"set-lab-rooms":    setLabRooms,
	"set-requirement":  setRequirement,
	"set-rooms":        setRooms,
	"set-days":         setDays,
	"set-slots":        setSlots,
	"set-constraints":  setConstraints,
}

func usage() {
	names := lo.Keys(commands)
	slices.Sort(names)
	fmt.Fprintf(os.Stderr, "usage: planner <command> [flags]\n\ncommands: %v\n\n", strings.Join(names, ", "))
	fmt.Fprintln(os.Stderr, "Settings are read from .env and the environment (SOLVER_URL, STORE_BACKEND, STORE_PATH, ...).")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command, ok := commands[os.Args[1]]
	if !ok {
		usage()
		log.Fatalf("%v is not a valid command", os.Args[1])
	}

	settings, err := config.Load()
	if err != nil {
		log.Fatalf("cannot load settings: %v", err)
	}
	appLogger, err := logger.New(settings.LogMode)
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	workspace, err := openWorkspace(ctx, settings, appLogger)
	if err != nil {
		log.Fatalf("cannot open workspace: %v", err)
	}
	defer workspace.Close()
	for _, warning := range workspace.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %v\n", warning)
	}

	if err := command(ctx, workspace, os.Args[2:]); err != nil {
		stop()
		workspace.Close()
		log.Fatalf("%v failed: %v", os.Args[1], err)
	}
}

func openWorkspace(ctx context.Context, settings config.Config, appLogger *logger.Logger) (*planner.Workspace, error) {
	kv, err := store.Open(ctx, store.Options{
		Backend:     store.Backend(settings.StoreBackend),
		Path:        settings.StorePath,
		RedisAddr:   settings.RedisAddr,
		RedisPrefix: settings.RedisPrefix,
	})
	if err != nil {
		return nil, err
	}

	var s solver.Solver = localsolver.New(appLogger)
	if settings.SolverURL != "" {
		s = solver.NewHTTPSolver(settings.SolverURL, settings.SolverTimeout, appLogger)
	}

	workspace, err := planner.Open(ctx, planner.Options{
		KV:          kv,
		Solver:      s,
		Concurrency: settings.VariantConcurrency,
		Log:         appLogger,
	})
	if err != nil {
		kv.Close()
		return nil, err
	}
	return workspace, nil
}

func importConfig(ctx context.Context, workspace *planner.Workspace, args []string) error {
	flags := flag.NewFlagSet("import", flag.ExitOnError)
	filePath := flags.String("file", "", "Path to the configuration document to import")
	flags.Parse(args)
	if *filePath == "" {
		return errors.New("an input file must be specified")
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		return err
	}
	unknown, err := workspace.Import(ctx, data)
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		fmt.Printf("Ignored unknown keys: %v\n", strings.Join(unknown, ", "))
	}
	fmt.Printf("Configuration imported (version %d)\n", workspace.Snapshot().Version)
	return nil
}

func exportConfig(_ context.Context, workspace *planner.Workspace, args []string) error {
	flags := flag.NewFlagSet("export", flag.ExitOnError)
	outFile := flags.String("out", "", "Path to the file where the configuration will be written; if empty, it'll be written into the Standard Output")
	flags.Parse(args)

	data, err := workspace.Export()
	if err != nil {
		return err
	}
	if *outFile == "" {
		fmt.Println(string(data))
		return nil
	}
	return os.WriteFile(*outFile, data, 0666)
}

func listTeachers(_ context.Context, workspace *planner.Workspace, _ []string) error {
	for _, teacher := range workspace.Teachers() {
		fmt.Println(teacher)
	}
	return nil
}

func generate(ctx context.Context, workspace *planner.Workspace, args []string) error {
	flags := flag.NewFlagSet("generate", flag.ExitOnError)
	count := flags.Int("n", 3, "Number of variants to generate")
	flags.Parse(args)

	batch, err := workspace.Generate(ctx, *count)
	var incomplete *model.IncompleteConfigError
	if errors.As(err, &incomplete) {
		for _, problem := range incomplete.Problems {
			fmt.Fprintf(os.Stderr, "- %v\n", problem)
		}
	}
	if err != nil {
		return err
	}

	for _, variantErr := range batch.Errors {
		fmt.Fprintf(os.Stderr, "%v was not generated: %v\n", variantErr.Name, variantErr.Err)
	}
	return printVariants(workspace)
}

func listVariants(_ context.Context, workspace *planner.Workspace, _ []string) error {
	return printVariants(workspace)
}

func printVariants(workspace *planner.Workspace) error {
	selected, _ := workspace.Selected()
	for _, variant := range workspace.Variants() {
		marker := lo.Ternary(variant.ID == selected.ID, "*", " ")
		unfulfilled := lo.Sum(lo.FlatMap(lo.Values(variant.Unfulfilled), func(subjects map[string]int, _ int) []int {
			return lo.Values(subjects)
		}))
		fmt.Printf("%v %v  %v  %.1f%% used, %d unfulfilled lecture(s)\n",
			marker, variant.ID, variant.Name, variant.Statistics.UtilizationPercentage, unfulfilled)
	}
	return nil
}

func selectVariant(ctx context.Context, workspace *planner.Workspace, args []string) error {
	flags := flag.NewFlagSet("select", flag.ExitOnError)
	variantID := flags.String("variant", "", "Id of the variant to select")
	flags.Parse(args)
	return workspace.Select(ctx, *variantID)
}

func show(_ context.Context, workspace *planner.Workspace, args []string) error {
	flags := flag.NewFlagSet("show", flag.ExitOnError)
	variantID := flags.String("variant", "", "Id of the variant to show; the selected one when empty")
	asJson := flags.Bool("json", false, "Print the variant as json")
	flags.Parse(args)

	variant, grouping, err := workspace.View(*variantID)
	if err != nil {
		return err
	}
	if *asJson {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(variant)
	}

	fmt.Printf("%v (%v)\n\n", variant.Name, variant.ID)
	if err := present.Render(os.Stdout, grouping); err != nil {
		return err
	}
	for section, subjects := range variant.Suggestions {
		for subject, hints := range subjects {
			fmt.Printf("\n%v / %v:\n  %v\n", section, subject, strings.Join(hints, "\n  "))
		}
	}
	return nil
}

func repair(ctx context.Context, workspace *planner.Workspace, args []string) error {
	flags := flag.NewFlagSet("repair", flag.ExitOnError)
	variantID := flags.String("variant", "", "Id of the variant to repair; the selected one when empty")
	teacher := flags.String("teacher", "", "Teacher to remove from the slot")
	day := flags.String("day", "", "Day of the assignment")
	slot := flags.String("slot", "", "Slot of the assignment")
	flags.Parse(args)

	id := *variantID
	if id == "" {
		selected, ok := workspace.Selected()
		if !ok {
			return variants.ErrVariantNotFound
		}
		id = selected.ID
	}

	variant, err := workspace.ResetAssignment(ctx, id, *teacher, *day, *slot)
	if err != nil {
		return err
	}
	for _, entry := range variant.Entries {
		if entry.Moved {
			fmt.Printf("%v: %v moved from %v to %v\n", entry.Section, entry.Subject, entry.MovedFrom, entry.Slot)
		}
	}
	return nil
}

func clearVariants(ctx context.Context, workspace *planner.Workspace, _ []string) error {
	return workspace.ClearVariants(ctx)
}

func validateConfig(ctx context.Context, workspace *planner.Workspace, _ []string) error {
	report, err := workspace.Validate(ctx)
	if err != nil {
		return err
	}
	for _, problem := range report.Errors {
		fmt.Printf("error: %v\n", problem)
	}
	for _, warning := range report.Warnings {
		fmt.Printf("warning: %v\n", warning)
	}
	if !report.Valid {
		return model.ErrConfigurationIncomplete
	}
	fmt.Println("Configuration is complete")
	return nil
}

// update applies edits to the workspace and reports the published version
func update(ctx context.Context, workspace *planner.Workspace, edits ...model.Edit) error {
	snapshot, err := workspace.Update(ctx, edits...)
	if err != nil {
		return err
	}
	fmt.Printf("Configuration updated (version %d)\n", snapshot.Version)
	return nil
}

// splitList reads a comma separated flag value, dropping blank items
func splitList(value string) []string {
	return lo.Compact(lo.Map(strings.Split(value, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
}

// parseSections reads "A:60,B:55"; a section without a count has no students
func parseSections(value string) ([]model.Section, error) {
	sections := make([]model.Section, 0)
	for _, item := range splitList(value) {
		name, count, found := strings.Cut(item, ":")
		section := model.Section{Name: strings.TrimSpace(name)}
		if found {
			students, err := strconv.Atoi(strings.TrimSpace(count))
			if err != nil || students < 0 {
				return nil, fmt.Errorf("invalid student count in section %q", item)
			}
			section.StudentCount = students
		}
		sections = append(sections, section)
	}
	return sections, nil
}

type classFlags struct {
	name     *string
	subjects *string
	labs     *string
	sections *string
}

func newClassFlags(flags *flag.FlagSet) classFlags {
	return classFlags{
		name:     flags.String("name", "", "Name of the class, e.g. \"CSE 3rd Year\""),
		subjects: flags.String("subjects", "", "Comma separated theory subjects"),
		labs:     flags.String("labs", "", "Comma separated lab subjects"),
		sections: flags.String("sections", "A", "Comma separated sections with their student count, e.g. \"A:60,B:55\""),
	}
}

func (class classFlags) definition() (model.ClassDefinition, error) {
	if strings.TrimSpace(*class.name) == "" {
		return model.ClassDefinition{}, errors.New("a class name must be specified")
	}
	sections, err := parseSections(*class.sections)
	if err != nil {
		return model.ClassDefinition{}, err
	}
	return model.ClassDefinition{
		Name:        strings.TrimSpace(*class.name),
		Subjects:    splitList(*class.subjects),
		LabSubjects: splitList(*class.labs),
		Sections:    sections,
	}, nil
}

func classIndex(workspace *planner.Workspace, index int) error {
	if count := len(workspace.Snapshot().Config.Classes); index < 0 || index >= count {
		return fmt.Errorf("class index %d is out of range, there are %d class(es)", index, count)
	}
	return nil
}

func addClass(ctx context.Context, workspace *planner.Workspace, args []string) error {
	flags := flag.NewFlagSet("add-class", flag.ExitOnError)
	class := newClassFlags(flags)
	flags.Parse(args)

	definition, err := class.definition()
	if err != nil {
		return err
	}
	return update(ctx, workspace, model.AddClass(definition))
}

func replaceClass(ctx context.Context, workspace *planner.Workspace, args []string) error {
	flags := flag.NewFlagSet("replace-class", flag.ExitOnError)
	index := flags.Int("index", -1, "Position of the class to replace, starting at 0")
	class := newClassFlags(flags)
	flags.Parse(args)

	if err := classIndex(workspace, *index); err != nil {
		return err
	}
	definition, err := class.definition()
	if err != nil {
		return err
	}
	return update(ctx, workspace, model.ReplaceClass(*index, definition))
}

func removeClass(ctx context.Context, workspace *planner.Workspace, args []string) error {
	flags := flag.NewFlagSet("remove-class", flag.ExitOnError)
	index := flags.Int("index", -1, "Position of the class to remove, starting at 0")
	flags.Parse(args)

	if err := classIndex(workspace, *index); err != nil {
		return err
	}
	return update(ctx, workspace, model.RemoveClass(*index))
}

// knownKey fails for names that no class references; roster edits on them would be dropped
func knownKey[V any](derived map[string]V, name, kind string) error {
	if _, ok := derived[name]; !ok {
		return fmt.Errorf("%q is not a %v of any class", name, kind)
	}
	return nil
}

func setTeachers(ctx context.Context, workspace *planner.Workspace, args []string) error {
	flags := flag.NewFlagSet("set-teachers", flag.ExitOnError)
	subject := flags.String("subject", "", "Theory subject whose roster is replaced")
	teachers := flags.String("teachers", "", "Comma separated teachers of the subject")
	flags.Parse(args)

	if err := knownKey(workspace.Snapshot().Config.Teachers, *subject, "subject"); err != nil {
		return err
	}
	return update(ctx, workspace, model.SetTeachers(*subject, splitList(*teachers)))
}

func setLabTeachers(ctx context.Context, workspace *planner.Workspace, args []string) error {
	flags := flag.NewFlagSet("set-lab-teachers", flag.ExitOnError)
	lab := flags.String("lab", "", "Lab subject whose roster is replaced")
	teachers := flags.String("teachers", "", "Comma separated teachers of the lab")
	flags.Parse(args)

	if err := knownKey(workspace.Snapshot().Config.LabTeachers, *lab, "lab subject"); err != nil {
		return err
	}
	return update(ctx, workspace, model.SetLabTeachers(*lab, splitList(*teachers)))
}

func setLabRooms(ctx context.Context, workspace *planner.Workspace, args []string) error {
	flags := flag.NewFlagSet("set-lab-rooms", flag.ExitOnError)
	lab := flags.String("lab", "", "Lab subject whose rooms are replaced")
	rooms := flags.String("rooms", "", "Comma separated rooms of the lab")
	flags.Parse(args)

	if err := knownKey(workspace.Snapshot().Config.LabRooms, *lab, "lab subject"); err != nil {
		return err
	}
	return update(ctx, workspace, model.SetLabRooms(*lab, splitList(*rooms)))
}

func setRequirement(ctx context.Context, workspace *planner.Workspace, args []string) error {
	flags := flag.NewFlagSet("set-requirement", flag.ExitOnError)
	subject := flags.String("subject", "", "Theory subject")
	lectures := flags.Int("lectures", model.DefaultLectureRequirement, "Lectures per week")
	flags.Parse(args)

	if err := knownKey(workspace.Snapshot().Config.LectureRequirements, *subject, "subject"); err != nil {
		return err
	}
	if *lectures < 0 {
		return errors.New("lectures cannot be negative")
	}
	return update(ctx, workspace, model.SetLectureRequirement(*subject, *lectures))
}

func setRooms(ctx context.Context, workspace *planner.Workspace, args []string) error {
	flags := flag.NewFlagSet("set-rooms", flag.ExitOnError)
	rooms := flags.String("rooms", "", "Comma separated theory rooms")
	flags.Parse(args)
	return update(ctx, workspace, model.SetRooms(splitList(*rooms)))
}

func setDays(ctx context.Context, workspace *planner.Workspace, args []string) error {
	flags := flag.NewFlagSet("set-days", flag.ExitOnError)
	days := flags.String("days", strings.Join(model.DefaultDays(), ","), "Comma separated working days")
	flags.Parse(args)
	return update(ctx, workspace, model.SetDays(splitList(*days)))
}

func setSlots(ctx context.Context, workspace *planner.Workspace, args []string) error {
	flags := flag.NewFlagSet("set-slots", flag.ExitOnError)
	slots := flags.String("slots", strings.Join(model.DefaultSlots(), ","), "Comma separated time slots; \""+model.LunchBreak+"\" marks the break")
	flags.Parse(args)
	return update(ctx, workspace, model.SetSlots(splitList(*slots)))
}

// setConstraints overrides only the flags that are given, the rest keep their published values
func setConstraints(ctx context.Context, workspace *planner.Workspace, args []string) error {
	config := workspace.Snapshot().Config
	constraints := config.Constraints

	flags := flag.NewFlagSet("set-constraints", flag.ExitOnError)
	flags.IntVar(&constraints.MaxLecturesPerDayTeacher, "max-teacher-day", constraints.MaxLecturesPerDayTeacher, "Maximum lectures per day of a teacher")
	flags.IntVar(&constraints.MaxLecturesPerSubjectPerDay, "max-subject-day", constraints.MaxLecturesPerSubjectPerDay, "Maximum lectures per day of a subject in a section")
	flags.IntVar(&constraints.MinLecturesPerDaySection, "min-section-day", constraints.MinLecturesPerDaySection, "Minimum lectures per day of a section")
	flags.IntVar(&constraints.MaxLecturesPerDaySection, "max-section-day", constraints.MaxLecturesPerDaySection, "Maximum lectures per day of a section")
	flags.IntVar(&constraints.LabDuration, "lab-duration", constraints.LabDuration, "Consecutive slots of a lab session")
	flags.BoolVar(&constraints.DistributeAcrossWeek, "distribute", constraints.DistributeAcrossWeek, "Spread the lectures of a subject across the week")
	labCapacity := flags.Int("lab-capacity", config.LabCapacity, "Students per lab batch")
	flags.Parse(args)

	if err := model.ValidateConstraints(constraints, *labCapacity); err != nil {
		return err
	}
	return update(ctx, workspace, model.SetConstraints(constraints, *labCapacity))
}
