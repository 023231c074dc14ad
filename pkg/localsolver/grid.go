package localsolver

import (
	"hash/fnv"
	"slices"
	"strings"

	"github.com/limaJavier/timetabling-planner/pkg/model"

	"github.com/samber/lo"
)

type placement struct {
	subject string
	room    string
	teacher string
	group   string // Non-empty only for lab sessions
}

type cell struct {
	section string
	day     string
	slot    string
}

// occupancy identifies a teacher or a room at a given day and slot
type occupancy struct {
	name string
	day  string
	slot string
}

// grid is the working timetable of a single generation run
type grid struct {
	config   model.Config
	sections []model.FlatSection
	days     []string
	slots    []string // Teaching slots only
	cells    map[cell][]placement

	usedRooms    map[occupancy]bool
	usedTeachers map[occupancy]bool

	// Section -> fixed classroom
	classrooms map[string]string
	// (section, subject) -> teacher, kept apart for subjects taught both as theory and as lab
	theoryTeachers map[[2]string]string
	labTeachers    map[[2]string]string
}

func newGrid(config model.Config, variation int64) *grid {
	g := &grid{
		config:         config,
		sections:       config.Sections(),
		days:           rotate(config.Days, variation),
		slots:          config.TeachingSlots(),
		cells:          make(map[cell][]placement),
		usedRooms:      make(map[occupancy]bool),
		usedTeachers:   make(map[occupancy]bool),
		classrooms:     make(map[string]string),
		theoryTeachers: make(map[[2]string]string),
		labTeachers:    make(map[[2]string]string),
	}

	rooms := lo.Filter(config.Rooms, func(room string, _ int) bool { return strings.TrimSpace(room) != "" })
	for i, section := range g.sections {
		if len(rooms) > 0 {
			g.classrooms[section.Name] = rooms[i%len(rooms)]
		}
		for _, subject := range section.Subjects {
			g.theoryTeachers[[2]string{section.Name, subject}] = pickTeacher(section.Name, subject, roster(config.Teachers, config.LabTeachers, subject), variation)
		}
		for _, lab := range section.LabSubjects {
			g.labTeachers[[2]string{section.Name, lab}] = pickTeacher(section.Name, lab, roster(config.LabTeachers, config.Teachers, lab), variation)
		}
	}

	return g
}

// roster returns the non-blank teachers listed for subject in primary, falling back to secondary
func roster(primary, secondary map[string][]string, subject string) []string {
	teachers := lo.Filter(primary[subject], func(teacher string, _ int) bool { return strings.TrimSpace(teacher) != "" })
	if len(teachers) == 0 {
		teachers = lo.Filter(secondary[subject], func(teacher string, _ int) bool { return strings.TrimSpace(teacher) != "" })
	}
	return teachers
}

// pickTeacher hashes (section, subject) so a section keeps the same teacher for a subject all week
func pickTeacher(section, subject string, teachers []string, variation int64) string {
	if len(teachers) == 0 {
		return ""
	}
	hash := fnv.New64a()
	hash.Write([]byte(section))
	hash.Write([]byte{0})
	hash.Write([]byte(subject))
	index := (hash.Sum64() + uint64(variation)) % uint64(len(teachers))
	return teachers[index]
}

// rotate shifts values left by variation positions so that each variation starts on another day
func rotate(values []string, variation int64) []string {
	if len(values) == 0 {
		return []string{}
	}
	shift := int(variation % int64(len(values)))
	if shift < 0 {
		shift += len(values)
	}
	return append(slices.Clone(values[shift:]), values[:shift]...)
}

func (g *grid) at(section, day, slot string) []placement {
	return g.cells[cell{section, day, slot}]
}

func (g *grid) free(section, day, slot string) bool {
	return len(g.cells[cell{section, day, slot}]) == 0
}

func (g *grid) roomFree(room, day, slot string) bool {
	return room == "" || !g.usedRooms[occupancy{room, day, slot}]
}

func (g *grid) teacherFree(teacher, day, slot string) bool {
	return teacher == "" || (!g.usedTeachers[occupancy{teacher, day, slot}] && !g.config.Unavailable(teacher, day, slot))
}

func (g *grid) place(section, day, slot string, p placement) {
	key := cell{section, day, slot}
	g.cells[key] = append(g.cells[key], p)
	if p.room != "" {
		g.usedRooms[occupancy{p.room, day, slot}] = true
	}
	if p.teacher != "" {
		g.usedTeachers[occupancy{p.teacher, day, slot}] = true
	}
}

// clearTheory drops every theory placement while keeping lab sessions and their occupancy
func (g *grid) clearTheory() {
	g.usedRooms = make(map[occupancy]bool)
	g.usedTeachers = make(map[occupancy]bool)
	for key, placements := range g.cells {
		labs := lo.Filter(placements, func(p placement, _ int) bool { return p.group != "" })
		if len(labs) == 0 {
			delete(g.cells, key)
			continue
		}
		g.cells[key] = labs
		for _, p := range labs {
			if p.room != "" {
				g.usedRooms[occupancy{p.room, key.day, key.slot}] = true
			}
			if p.teacher != "" {
				g.usedTeachers[occupancy{p.teacher, key.day, key.slot}] = true
			}
		}
	}
}

// entries lists the placements section by section, in the configured day and slot order
func (g *grid) entries() []model.ScheduleEntry {
	entries := make([]model.ScheduleEntry, 0)
	for _, section := range g.sections {
		for _, day := range g.config.Days {
			for _, slot := range g.config.Slots {
				for _, p := range g.at(section.Name, day, slot) {
					entries = append(entries, model.ScheduleEntry{
						Section: section.Name,
						Day:     day,
						Slot:    slot,
						Subject: p.subject,
						Teacher: p.teacher,
						Room:    p.room,
						Group:   p.group,
					})
				}
			}
		}
	}
	return entries
}
