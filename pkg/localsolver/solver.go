package localsolver

import (
	"context"

	"github.com/limaJavier/timetabling-planner/internal/logger"
	"github.com/limaJavier/timetabling-planner/pkg/model"
	"github.com/limaJavier/timetabling-planner/pkg/solver"
)

// Solver is an in-process greedy scheduler. Labs are placed first as blocks of adjacent slots, theory lectures fill
// the remaining cells.
type Solver struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Solver {
	return &Solver{log: logger.OrNop(log).With("service", "LocalSolver")}
}

func (s *Solver) Generate(ctx context.Context, request solver.GenerateRequest) (solver.GenerateResult, error) {
	if err := ctx.Err(); err != nil {
		return solver.GenerateResult{}, &solver.Failure{Op: "generate", Err: err}
	}
	config := request.Config
	if err := model.Validate(config); err != nil {
		return solver.GenerateResult{}, &solver.Failure{Op: "generate", Message: err.Error(), Err: err}
	}

	g := newGrid(config, request.Variation)
	g.assignLabs()
	if err := ctx.Err(); err != nil {
		return solver.GenerateResult{}, &solver.Failure{Op: "generate", Err: err}
	}

	maxPerSubject := config.Constraints.MaxLecturesPerSubjectPerDay
	unfulfilled := g.assignTheory(maxPerSubject)
	if len(unfulfilled) > 0 && maxPerSubject > 0 {
		// Retry once with one more lecture of a subject allowed per day
		s.log.Debug("relaxing subject limit", "variation", request.Variation, "unfulfilledSections", len(unfulfilled))
		g.clearTheory()
		unfulfilled = g.assignTheory(maxPerSubject + 1)
	}

	entries := g.entries()
	result := solver.GenerateResult{
		Entries:     entries,
		Statistics:  model.ComputeStatistics(entries, config),
		Unfulfilled: unfulfilled,
		Suggestions: g.suggestions(unfulfilled),
		Warnings:    model.Warnings(config),
	}

	s.log.Debug("timetable generated",
		"variation", request.Variation,
		"sections", len(g.sections),
		"entries", len(entries),
		"unfulfilledSections", len(unfulfilled),
	)
	return result, nil
}
