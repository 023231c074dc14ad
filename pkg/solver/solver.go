package solver

import (
	"context"
	"errors"
	"fmt"

	"github.com/limaJavier/timetabling-planner/pkg/model"
)

// Solver computes teacher/room/day/slot assignments for a configuration. Every call is an
// independent round trip that may fail on its own.
type Solver interface {
	Generate(ctx context.Context, request GenerateRequest) (GenerateResult, error)
	ResetAssignment(ctx context.Context, request ResetRequest) ([]model.ScheduleEntry, error)
}

// Validator is implemented by solvers that check a configuration without generating a timetable
type Validator interface {
	Validate(ctx context.Context, config model.Config) (ValidationReport, error)
}

// Report checks config in process and answers in the shape of a validation request
func Report(config model.Config) ValidationReport {
	report := ValidationReport{Valid: true, Errors: []string{}, Warnings: model.Warnings(config)}
	var incomplete *model.IncompleteConfigError
	if err := model.Validate(config); errors.As(err, &incomplete) {
		report.Valid, report.Errors = false, incomplete.Problems
	}
	return report
}

type GenerateRequest struct {
	Config model.Config
	// Variation differs between requests of a batch; the solver uses it for diversity and tie-breaking
	Variation int64
}

type GenerateResult struct {
	Entries     []model.ScheduleEntry
	Statistics  model.Statistics
	Unfulfilled model.Unfulfilled
	Suggestions model.Suggestions
	Warnings    []string
}

type ResetRequest struct {
	Config  model.Config
	Entries []model.ScheduleEntry
	Teacher string
	Day     string
	Slot    string
}

var ErrSolverFailure = errors.New("solver failure")

// Failure is a transport or application error reported by a solver
type Failure struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (failure *Failure) Error() string {
	switch {
	case failure.Status != 0 && failure.Message != "":
		return fmt.Sprintf("solver %v failed with status %d: %v", failure.Op, failure.Status, failure.Message)
	case failure.Message != "":
		return fmt.Sprintf("solver %v failed: %v", failure.Op, failure.Message)
	case failure.Err != nil:
		return fmt.Sprintf("solver %v failed: %v", failure.Op, failure.Err)
	default:
		return fmt.Sprintf("solver %v failed with status %d", failure.Op, failure.Status)
	}
}

func (failure *Failure) Unwrap() error { return failure.Err }

func (failure *Failure) Is(target error) bool { return target == ErrSolverFailure }
