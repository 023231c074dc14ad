package model

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var ErrConfigurationIncomplete = errors.New("configuration incomplete")

// IncompleteConfigError lists every required field missing from a configuration
type IncompleteConfigError struct {
	Problems []string
}

func (err *IncompleteConfigError) Error() string {
	return fmt.Sprintf("configuration incomplete: %v", strings.Join(err.Problems, "; "))
}

func (err *IncompleteConfigError) Is(target error) bool { return target == ErrConfigurationIncomplete }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report json names so that problems read like the document the user edits
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	lo.Must0(v.RegisterValidation("teaching_slots", func(fl validator.FieldLevel) bool {
		slots, ok := fl.Field().Interface().([]string)
		return ok && lo.SomeBy(slots, func(slot string) bool {
			return !blank(slot) && slot != LunchBreak
		})
	}))

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		class := sl.Current().Interface().(ClassDefinition)
		if blank(class.Name) && class.Name != "" {
			sl.ReportError(class.Name, "name", "Name", "required", "")
		}
		if !lo.SomeBy(class.Subjects, nonBlank) && !lo.SomeBy(class.LabSubjects, nonBlank) {
			sl.ReportError(class.Subjects, "subjects", "Subjects", "subjects_or_labs", "")
		}
	}, ClassDefinition{})

	return v
}

// Validate checks that config carries everything a solver needs: at least one class, each with a
// name, a section and a subject or lab subject, at least one day and one non-lunch slot
func Validate(config Config) error {
	err := validate.Struct(config)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return &IncompleteConfigError{Problems: []string{err.Error()}}
	}

	problems := lo.Map(validationErrors, func(fieldError validator.FieldError, _ int) string {
		return describe(fieldError)
	})
	return &IncompleteConfigError{Problems: lo.Uniq(problems)}
}

// ValidateConstraints checks the limits of a constraint edit before it is applied
func ValidateConstraints(constraints Constraints, labCapacity int) error {
	problems := make([]string, 0)
	var validationErrors validator.ValidationErrors
	if err := validate.Struct(constraints); errors.As(err, &validationErrors) {
		problems = lo.Map(validationErrors, func(fieldError validator.FieldError, _ int) string {
			return describe(fieldError)
		})
	}
	if labCapacity < 0 {
		problems = append(problems, "lab_capacity must be greater than or equal to 0")
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid constraints: %v", strings.Join(problems, "; "))
}

func describe(fieldError validator.FieldError) string {
	field := strings.TrimPrefix(fieldError.Namespace(), "Config.")
	switch fieldError.Tag() {
	case "required":
		return fmt.Sprintf("%v is required", field)
	case "min":
		return fmt.Sprintf("%v must contain at least %v item(s)", field, fieldError.Param())
	case "gte":
		return fmt.Sprintf("%v must be greater than or equal to %v", field, fieldError.Param())
	case "teaching_slots":
		return fmt.Sprintf("%v must contain at least one slot other than %q", field, LunchBreak)
	case "subjects_or_labs":
		return fmt.Sprintf("%v must contain at least one subject or lab subject", strings.TrimSuffix(field, ".subjects"))
	default:
		return fmt.Sprintf("%v failed %v", field, fieldError.Tag())
	}
}

// Warnings reports configuration gaps that do not block generation but usually degrade its result
func Warnings(config Config) []string {
	warnings := make([]string, 0)

	for i, class := range config.Classes {
		for j, section := range class.Sections {
			if blank(section.Name) {
				warnings = append(warnings, fmt.Sprintf("Class %d, Section %d should have a name", i+1, j+1))
			}
			if section.StudentCount == 0 {
				warnings = append(warnings, fmt.Sprintf("Class %d, Section %d should have student count", i+1, j+1))
			}
		}
	}

	subjects := lo.Uniq(lo.Filter(lo.FlatMap(config.Classes, func(class ClassDefinition, _ int) []string {
		return append(slices.Clone(class.Subjects), class.LabSubjects...)
	}), func(subject string, _ int) bool { return nonBlank(subject) }))
	slices.Sort(subjects)

	for _, subject := range subjects {
		theory, inTheory := config.Teachers[subject]
		lab, inLab := config.LabTeachers[subject]
		if !inTheory && !inLab {
			warnings = append(warnings, fmt.Sprintf("No teacher assigned to subject: %v", subject))
		} else if !lo.SomeBy(theory, nonBlank) && !lo.SomeBy(lab, nonBlank) {
			warnings = append(warnings, fmt.Sprintf("Subject %q has no valid teachers assigned", subject))
		}
	}

	labSubjects := lo.Uniq(lo.FlatMap(config.Classes, func(class ClassDefinition, _ int) []string { return class.LabSubjects }))
	for _, lab := range labSubjects {
		if nonBlank(lab) && len(config.LabRooms[lab]) == 0 {
			warnings = append(warnings, fmt.Sprintf("No lab rooms assigned to lab subject: %v", lab))
		}
	}

	return warnings
}

func blank(value string) bool { return strings.TrimSpace(value) == "" }

func nonBlank(value string) bool { return !blank(value) }
