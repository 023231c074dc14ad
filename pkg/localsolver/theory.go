package localsolver

import (
	"fmt"
	"slices"

	"github.com/limaJavier/timetabling-planner/pkg/model"

	"github.com/samber/lo"
)

// theoryCounters tracks the daily loads a lecture placement is checked against
type theoryCounters struct {
	perSubject map[[3]string]int // (section, day, subject)
	perSection map[[2]string]int // (section, day)
	perTeacher map[[2]string]int // (teacher, day)
}

// assignTheory places the lectures every section still needs and returns what could not be placed.
// A zero maxPerSubject lifts the per-subject daily limit.
func (g *grid) assignTheory(maxPerSubject int) model.Unfulfilled {
	counters := theoryCounters{
		perSubject: make(map[[3]string]int),
		perSection: make(map[[2]string]int),
		perTeacher: make(map[[2]string]int),
	}
	for key, placements := range g.cells {
		for _, p := range placements {
			if p.teacher != "" {
				counters.perTeacher[[2]string{p.teacher, key.day}]++
			}
		}
	}

	unfulfilled := make(model.Unfulfilled)
	for _, section := range g.sections {
		remaining := make(map[string]int)
		subjects := lo.Uniq(section.Subjects)
		for _, subject := range subjects {
			remaining[subject] = g.requirement(subject)
		}
		slices.SortStableFunc(subjects, func(a, b string) int { return remaining[b] - remaining[a] })

		for _, subject := range subjects {
			for remaining[subject] > 0 && g.placeLecture(section.Name, subject, maxPerSubject, &counters) {
				remaining[subject]--
			}
			if remaining[subject] > 0 {
				if unfulfilled[section.Name] == nil {
					unfulfilled[section.Name] = make(map[string]int)
				}
				unfulfilled[section.Name][subject] = remaining[subject]
			}
		}
	}
	return unfulfilled
}

func (g *grid) requirement(subject string) int {
	if lectures, ok := g.config.LectureRequirements[subject]; ok {
		return lectures
	}
	return model.DefaultLectureRequirement
}

// placeLecture puts one lecture of subject in the first admissible cell, visiting the least loaded days first when
// lectures are distributed across the week
func (g *grid) placeLecture(section, subject string, maxPerSubject int, counters *theoryCounters) bool {
	constraints := g.config.Constraints
	teacher := g.theoryTeachers[[2]string{section, subject}]
	room := g.classrooms[section]

	days := slices.Clone(g.days)
	if constraints.DistributeAcrossWeek {
		slices.SortStableFunc(days, func(a, b string) int {
			return counters.perSection[[2]string{section, a}] - counters.perSection[[2]string{section, b}]
		})
	}

	for _, day := range days {
		if maxPerSubject > 0 && counters.perSubject[[3]string{section, day, subject}] >= maxPerSubject {
			continue
		}
		if constraints.MaxLecturesPerDaySection > 0 && counters.perSection[[2]string{section, day}] >= constraints.MaxLecturesPerDaySection {
			continue
		}
		if teacher != "" && constraints.MaxLecturesPerDayTeacher > 0 && counters.perTeacher[[2]string{teacher, day}] >= constraints.MaxLecturesPerDayTeacher {
			continue
		}

		for i, slot := range g.slots {
			if !g.free(section, day, slot) || !g.teacherFree(teacher, day, slot) || !g.roomFree(room, day, slot) {
				continue
			}
			// No back-to-back lectures of the same subject
			if i > 0 && g.teaches(section, day, g.slots[i-1], subject) {
				continue
			}
			if i+1 < len(g.slots) && g.teaches(section, day, g.slots[i+1], subject) {
				continue
			}

			g.place(section, day, slot, placement{subject: subject, room: room, teacher: teacher})
			counters.perSubject[[3]string{section, day, subject}]++
			counters.perSection[[2]string{section, day}]++
			if teacher != "" {
				counters.perTeacher[[2]string{teacher, day}]++
			}
			return true
		}
	}
	return false
}

func (g *grid) teaches(section, day, slot, subject string) bool {
	return lo.ContainsBy(g.at(section, day, slot), func(p placement) bool { return p.subject == subject })
}

// suggestions explains every unfulfilled requirement and proposes ways to relax the problem
func (g *grid) suggestions(unfulfilled model.Unfulfilled) model.Suggestions {
	suggestions := make(model.Suggestions)

	for section, subjects := range unfulfilled {
		suggestions[section] = make(map[string][]string)

		freeSlots := 0
		for _, day := range g.config.Days {
			for _, slot := range g.slots {
				if g.free(section, day, slot) {
					freeSlots++
				}
			}
		}

		for subject, missing := range subjects {
			messages := []string{fmt.Sprintf("Unfulfilled: need %d lecture(s) of %v for %v.", missing, subject, section)}

			teachers := roster(g.config.Teachers, g.config.LabTeachers, subject)
			available := 0
			for _, teacher := range teachers {
				for _, day := range g.config.Days {
					for _, slot := range g.slots {
						if g.teacherFree(teacher, day, slot) {
							available++
						}
					}
				}
			}

			switch {
			case len(teachers) == 0:
				messages = append(messages, fmt.Sprintf("No teacher is assigned to %v. Assign at least one qualified teacher or allow cross-teaching.", subject))
			case available < missing:
				messages = append(messages, fmt.Sprintf("Current faculty for %v: %d, with about %d free slot(s) in total. Assign at least %d more teacher(s) or reassign other teachers.", subject, len(teachers), available, missing-available))
			case freeSlots >= missing:
				messages = append(messages, fmt.Sprintf("%v has %d free slot(s) left. The gap likely comes from max_lectures_per_subject_per_day, max_lectures_per_day_section or teacher and room conflicts; consider relaxing those limits.", section, freeSlots))
			default:
				messages = append(messages, fmt.Sprintf("Only %d free teaching slot(s) remain for %v, fewer than the %d required. Add teaching slots or days, or add rooms so labs can run in parallel.", freeSlots, section, missing))
			}

			if _, ok := g.config.LabRooms[subject+" LAB"]; ok {
				messages = append(messages, "Lab rooms for this subject are limited. Consider adding another lab room or freeing some lab time slots.")
			}
			messages = append(messages, "Other options: reduce group sizes, turn some lectures into self-study, or move less critical lectures to another week.")

			suggestions[section][subject] = messages
		}
	}
	return suggestions
}
