package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/limaJavier/timetabling-planner/internal/logger"
	"github.com/limaJavier/timetabling-planner/pkg/model"
	"github.com/limaJavier/timetabling-planner/pkg/present"
	"github.com/limaJavier/timetabling-planner/pkg/reconcile"
	"github.com/limaJavier/timetabling-planner/pkg/solver"
	"github.com/limaJavier/timetabling-planner/pkg/store"
	"github.com/limaJavier/timetabling-planner/pkg/variants"
)

type Options struct {
	// KV persists the configuration and the variants; nil keeps everything in memory
	KV     store.KV
	Solver solver.Solver
	// Concurrency bounds the solver requests of one generation
	Concurrency int
	Seed        int64
	Now         func() time.Time
	NewID       func() string
	Log         *logger.Logger
}

// Workspace owns the published configuration snapshot and the variants generated from it. Every configuration
// change is applied to a private copy, reconciled, persisted and only then published.
type Workspace struct {
	writer   sync.Mutex
	snapshot atomic.Pointer[model.Snapshot]
	warnings []string

	kv           store.KV
	variants     *variants.Store
	orchestrator *variants.Orchestrator
	repair       *variants.RepairCoordinator
	validator    solver.Validator
	log          *logger.Logger
}

// Open loads the persisted configuration and variants. A configuration that was never stored starts from
// model.DefaultConfig; one that cannot be decoded is replaced by the defaults and reported in Warnings.
func Open(ctx context.Context, options Options) (*Workspace, error) {
	if options.Solver == nil {
		return nil, errors.New("workspace needs a solver")
	}
	if options.KV == nil {
		options.KV = store.NewMemory()
	}
	log := logger.OrNop(options.Log)

	workspace := &Workspace{
		warnings: []string{},
		kv:       options.KV,
		log:      log.With("service", "Workspace"),
	}

	config, err := workspace.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	workspace.snapshot.Store(&model.Snapshot{Config: settle(config)})

	workspace.variants = variants.NewStore(options.KV, log)
	if err := workspace.variants.Load(ctx); err != nil {
		workspace.warn("stored variants were discarded", err)
	}

	workspace.orchestrator = variants.NewOrchestrator(options.Solver, workspace.variants, variants.Options{
		Concurrency: options.Concurrency,
		Seed:        options.Seed,
		Now:         options.Now,
		NewID:       options.NewID,
		Log:         log,
	})
	workspace.repair = variants.NewRepairCoordinator(options.Solver, workspace.variants, options.Now, log)
	workspace.validator, _ = options.Solver.(solver.Validator)

	workspace.log.Info("workspace opened", "classes", len(config.Classes), "variants", len(workspace.variants.List()))
	return workspace, nil
}

func (workspace *Workspace) loadConfig(ctx context.Context) (model.Config, error) {
	payload, err := workspace.kv.Get(ctx, store.ConfigKey)
	if errors.Is(err, store.ErrNotFound) {
		return model.DefaultConfig(), nil
	} else if err != nil {
		return model.Config{}, fmt.Errorf("load configuration: %w", err)
	}

	config, unknown, err := model.ConfigFromJson(payload)
	if err != nil {
		workspace.warn("stored configuration was replaced by the defaults", err)
		return model.DefaultConfig(), nil
	}
	if len(unknown) > 0 {
		workspace.log.Warn("stored configuration has unknown keys", "keys", unknown)
	}
	return config, nil
}

func (workspace *Workspace) warn(message string, err error) {
	workspace.warnings = append(workspace.warnings, fmt.Sprintf("%v: %v", message, err))
	workspace.log.Warn(message, "error", err)
}

// settle brings the derived maps of config in line with its classes
func settle(config model.Config) model.Config {
	reconcile.Reconcile(reconcile.Resolve(config.Classes), reconcile.FromConfig(config)).ApplyTo(&config)
	return config
}

// Warnings lists the problems met while opening the workspace
func (workspace *Workspace) Warnings() []string { return workspace.warnings }

// Snapshot returns the published configuration. Its slices and maps must not be modified.
func (workspace *Workspace) Snapshot() model.Snapshot { return *workspace.snapshot.Load() }

// Teachers lists every teacher named in the published rosters
func (workspace *Workspace) Teachers() []string {
	return reconcile.Teachers(workspace.Snapshot().Config)
}

// Update applies edits in order and publishes the reconciled result. The configuration is reconciled after every
// edit, so a roster edit sees the keys created by the class edits before it.
func (workspace *Workspace) Update(ctx context.Context, edits ...model.Edit) (model.Snapshot, error) {
	workspace.writer.Lock()
	defer workspace.writer.Unlock()

	next := workspace.Snapshot().Config.Copy()
	for _, edit := range edits {
		edit(&next)
		next = settle(next)
	}
	return workspace.publish(ctx, next)
}

// Import replaces the configuration with a standalone json document and returns its unknown keys. A document that
// cannot be read leaves both the published configuration and the store untouched.
func (workspace *Workspace) Import(ctx context.Context, data []byte) ([]string, error) {
	config, unknown, err := model.ConfigFromJson(data)
	if err != nil {
		return nil, err
	}

	workspace.writer.Lock()
	defer workspace.writer.Unlock()
	if _, err := workspace.publish(ctx, config); err != nil {
		return nil, err
	}
	if len(unknown) > 0 {
		workspace.log.Info("ignored unknown keys on import", "keys", unknown)
	}
	return unknown, nil
}

// Export serializes the published configuration in the shape accepted by Import
func (workspace *Workspace) Export() ([]byte, error) {
	return model.ConfigToJson(workspace.Snapshot().Config)
}

// publish must be called with the writer lock held
func (workspace *Workspace) publish(ctx context.Context, config model.Config) (model.Snapshot, error) {
	snapshot := model.Snapshot{
		Version: workspace.Snapshot().Version + 1,
		Config:  settle(config),
	}

	payload, err := model.ConfigToJson(snapshot.Config)
	if err != nil {
		return model.Snapshot{}, err
	}
	if err := workspace.kv.Put(ctx, store.ConfigKey, payload); err != nil {
		return model.Snapshot{}, fmt.Errorf("persist configuration: %w", err)
	}

	workspace.snapshot.Store(&snapshot)
	workspace.log.Debug("configuration published", "version", snapshot.Version)
	return snapshot, nil
}

// Validate reports the problems and warnings of the published configuration. Solvers that implement
// solver.Validator are asked; otherwise the configuration is checked in process.
func (workspace *Workspace) Validate(ctx context.Context) (solver.ValidationReport, error) {
	config := workspace.Snapshot().Config
	if workspace.validator == nil {
		return solver.Report(config), nil
	}
	return workspace.validator.Validate(ctx, config)
}

// Generate produces count variants of the published configuration, see variants.Orchestrator
func (workspace *Workspace) Generate(ctx context.Context, count int) (variants.Batch, error) {
	return workspace.orchestrator.Generate(ctx, workspace.Snapshot(), count)
}

// ResetAssignment re-places the lectures of teacher at (day, slot) in one variant, see variants.RepairCoordinator
func (workspace *Workspace) ResetAssignment(ctx context.Context, variantID, teacher, day, slot string) (model.Variant, error) {
	return workspace.repair.ResetAssignment(ctx, workspace.Snapshot(), variantID, teacher, day, slot)
}

func (workspace *Workspace) Variants() []model.Variant { return workspace.variants.List() }

func (workspace *Workspace) Select(ctx context.Context, variantID string) error {
	return workspace.variants.Select(ctx, variantID)
}

func (workspace *Workspace) Selected() (model.Variant, bool) { return workspace.variants.Selected() }

func (workspace *Workspace) ClearVariants(ctx context.Context) error {
	return workspace.variants.Clear(ctx)
}

// View groups the entries of a variant for display; an empty id means the selected variant. Entries are classified
// as lab or theory against the published configuration, not the one recorded by the variant's ConfigVersion: once a
// lab subject is removed from every class, its entries in older variants are shown as theory lectures.
func (workspace *Workspace) View(variantID string) (model.Variant, present.Grouping, error) {
	var variant model.Variant
	var ok bool
	if variantID == "" {
		variant, ok = workspace.variants.Selected()
	} else {
		variant, ok = workspace.variants.Get(variantID)
	}
	if !ok {
		return model.Variant{}, present.Grouping{}, fmt.Errorf("%w: %q", variants.ErrVariantNotFound, variantID)
	}
	return variant, present.Group(variant.Entries, workspace.Snapshot().Config), nil
}

func (workspace *Workspace) Close() error { return workspace.kv.Close() }
