package localsolver

import (
	"context"
	"slices"

	"github.com/limaJavier/timetabling-planner/pkg/model"
	"github.com/limaJavier/timetabling-planner/pkg/solver"

	"github.com/samber/lo"
)

// ResetAssignment removes the teacher from (day, slot) in every section. Each section left with an empty cell pulls
// in the rightmost later theory lecture of that day whose teacher and room are free, or gets a workshop otherwise.
// Moved lectures are flagged with the slot they came from; flags of earlier repairs are cleared.
func (s *Solver) ResetAssignment(ctx context.Context, request solver.ResetRequest) ([]model.ScheduleEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, &solver.Failure{Op: "reset", Err: err}
	}

	entries := lo.Map(request.Entries, func(entry model.ScheduleEntry, _ int) model.ScheduleEntry {
		entry.Moved, entry.MovedFrom = false, ""
		return entry
	})
	teacher, day, slot := request.Teacher, request.Day, request.Slot
	if teacher == "" || day == "" || slot == "" {
		return entries, nil
	}

	//** Free the teacher's cells
	kept := make([]model.ScheduleEntry, 0, len(entries))
	holes := make(map[string]int) // Section -> position of its first removed entry
	freed := make([]string, 0)
	for _, entry := range entries {
		if entry.Day == day && entry.Slot == slot && entry.Teacher == teacher {
			if _, ok := holes[entry.Section]; !ok {
				holes[entry.Section] = len(kept)
				freed = append(freed, entry.Section)
			}
			continue
		}
		kept = append(kept, entry)
	}
	// A cell still holding other sessions is not empty
	freed = lo.Filter(freed, func(section string, _ int) bool {
		return !lo.ContainsBy(kept, func(entry model.ScheduleEntry) bool {
			return entry.Section == section && entry.Day == day && entry.Slot == slot
		})
	})

	usedRooms, usedTeachers := make(map[occupancy]bool), make(map[occupancy]bool)
	for _, entry := range kept {
		if entry.Room != "" {
			usedRooms[occupancy{entry.Room, entry.Day, entry.Slot}] = true
		}
		if entry.Teacher != "" {
			usedTeachers[occupancy{entry.Teacher, entry.Day, entry.Slot}] = true
		}
	}

	candidates := laterSlots(request.Config.Slots, slot)
	workshops := make(map[string]bool)

	//** Pull a later lecture into each hole
	for _, section := range freed {
		moved := false
		for _, target := range candidates {
			index := slices.IndexFunc(kept, func(entry model.ScheduleEntry) bool {
				return entry.Section == section && entry.Day == day && entry.Slot == target &&
					entry.Group == "" && entry.Subject != model.Workshop
			})
			if index < 0 {
				continue
			}

			lecture := kept[index]
			if lecture.Teacher != "" && (usedTeachers[occupancy{lecture.Teacher, day, slot}] || request.Config.Unavailable(lecture.Teacher, day, slot)) {
				continue
			}
			if lecture.Room != "" && usedRooms[occupancy{lecture.Room, day, slot}] {
				continue
			}

			if lecture.Room != "" {
				delete(usedRooms, occupancy{lecture.Room, day, target})
				usedRooms[occupancy{lecture.Room, day, slot}] = true
			}
			if lecture.Teacher != "" {
				delete(usedTeachers, occupancy{lecture.Teacher, day, target})
				usedTeachers[occupancy{lecture.Teacher, day, slot}] = true
			}
			kept[index].Slot, kept[index].Moved, kept[index].MovedFrom = slot, true, target
			moved = true
			break
		}
		if !moved {
			workshops[section] = true
		}
	}

	// Holes are recorded in increasing position, so inserting backwards keeps earlier positions valid
	for i := len(freed) - 1; i >= 0; i-- {
		section := freed[i]
		if !workshops[section] {
			continue
		}
		kept = slices.Insert(kept, holes[section], model.ScheduleEntry{
			Section: section,
			Day:     day,
			Slot:    slot,
			Subject: model.Workshop,
		})
	}

	s.log.Debug("assignment reset",
		"teacher", teacher,
		"day", day,
		"slot", slot,
		"freedSections", len(freed),
		"workshops", len(workshops),
	)
	return kept, nil
}

// laterSlots orders the teaching slots after freed as candidates to move from: the last slot before the lunch break
// first, then the last slot of the day, then the remaining ones from right to left
func laterSlots(slots []string, freed string) []string {
	position := slices.Index(slots, freed)
	if position < 0 || len(slots) == 0 {
		return []string{}
	}

	var beforeLunch, last string
	if lunch := slices.Index(slots, model.LunchBreak); lunch >= 0 {
		if lunch > 0 {
			beforeLunch = slots[lunch-1]
		}
		if len(slots) > lunch+1 {
			last = slots[len(slots)-1]
		}
	} else {
		if len(slots) >= 2 {
			beforeLunch = slots[len(slots)-2]
		}
		last = slots[len(slots)-1]
	}

	candidates := make([]string, 0)
	for _, slot := range []string{beforeLunch, last} {
		if slot != "" && slices.Index(slots, slot) > position && !slices.Contains(candidates, slot) {
			candidates = append(candidates, slot)
		}
	}
	for i := len(slots) - 1; i > position; i-- {
		if slots[i] != model.LunchBreak && !slices.Contains(candidates, slots[i]) {
			candidates = append(candidates, slots[i])
		}
	}
	return candidates
}
