package variants

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/limaJavier/timetabling-planner/internal/logger"
	"github.com/limaJavier/timetabling-planner/pkg/model"
	"github.com/limaJavier/timetabling-planner/pkg/solver"

	"github.com/samber/lo"
)

var ErrNoAssignment = errors.New("teacher has no assignment at the given day and slot")

type RepairCoordinator struct {
	solver solver.Solver
	store  *Store
	now    func() time.Time
	log    *logger.Logger
}

func NewRepairCoordinator(solver solver.Solver, store *Store, now func() time.Time, log *logger.Logger) *RepairCoordinator {
	if now == nil {
		now = time.Now
	}
	return &RepairCoordinator{
		solver: solver,
		store:  store,
		now:    now,
		log:    logger.OrNop(log).With("service", "RepairCoordinator"),
	}
}

// ResetAssignment asks the solver to re-place teacher's lectures at (day, slot) in one variant. The solver's entries
// replace the variant's; on any error the variant is left as it was.
func (coordinator *RepairCoordinator) ResetAssignment(ctx context.Context, snapshot model.Snapshot, variantID, teacher, day, slot string) (model.Variant, error) {
	variant, ok := coordinator.store.Get(variantID)
	if !ok {
		return model.Variant{}, fmt.Errorf("%w: %v", ErrVariantNotFound, variantID)
	}
	assigned := lo.ContainsBy(variant.Entries, func(entry model.ScheduleEntry) bool {
		return entry.Teacher == teacher && entry.Day == day && entry.Slot == slot
	})
	if teacher == "" || !assigned {
		return model.Variant{}, fmt.Errorf("%w: %v on %v at %v", ErrNoAssignment, teacher, day, slot)
	}
	if err := model.Validate(snapshot.Config); err != nil {
		return model.Variant{}, err
	}

	entries, err := coordinator.solver.ResetAssignment(ctx, solver.ResetRequest{
		Config:  snapshot.Config,
		Entries: slices.Clone(variant.Entries),
		Teacher: teacher,
		Day:     day,
		Slot:    slot,
	})
	if err != nil {
		coordinator.log.Warn("repair failed", "variant", variant.Name, "teacher", teacher, "day", day, "slot", slot, "error", err)
		return model.Variant{}, err
	}

	repaired := variant
	repaired.Entries = AnnotateMoves(variant.Entries, entries)
	repaired.Statistics = model.ComputeStatistics(repaired.Entries, snapshot.Config)
	repairedAt := coordinator.now()
	repaired.RepairedAt = &repairedAt

	if err := coordinator.store.Update(ctx, repaired); err != nil {
		return model.Variant{}, err
	}

	coordinator.log.Info("variant repaired",
		"variant", variant.Name,
		"teacher", teacher,
		"day", day,
		"slot", slot,
		"moved", lo.CountBy(repaired.Entries, func(entry model.ScheduleEntry) bool { return entry.Moved }),
	)
	return repaired, nil
}

type moveKey struct {
	section string
	day     string
	subject string
	teacher string
	group   string
}

func keyOf(entry model.ScheduleEntry) moveKey {
	return moveKey{entry.Section, entry.Day, entry.Subject, entry.Teacher, entry.Group}
}

// AnnotateMoves returns next with moved flags derived from prior. Entries are matched by section, day, subject,
// teacher and group; within a match, slots that disappeared are paired in order with slots that appeared, and each
// entry in an appeared slot is marked as moved from its paired slot. Every other flag is cleared.
func AnnotateMoves(prior, next []model.ScheduleEntry) []model.ScheduleEntry {
	before := make(map[moveKey][]string)
	for _, entry := range prior {
		before[keyOf(entry)] = append(before[keyOf(entry)], entry.Slot)
	}

	annotated := lo.Map(next, func(entry model.ScheduleEntry, _ int) model.ScheduleEntry {
		entry.Moved, entry.MovedFrom = false, ""
		return entry
	})

	// Slots of a key present both before and after stay where they are
	appeared := make(map[moveKey][]int)
	for i, entry := range annotated {
		key := keyOf(entry)
		if index := slices.Index(before[key], entry.Slot); index >= 0 {
			before[key] = slices.Delete(before[key], index, index+1)
			continue
		}
		appeared[key] = append(appeared[key], i)
	}

	for key, indexes := range appeared {
		vanished := before[key]
		for j, index := range indexes {
			if j >= len(vanished) {
				break
			}
			annotated[index].Moved, annotated[index].MovedFrom = true, vanished[j]
		}
	}
	return annotated
}
