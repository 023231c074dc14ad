package localsolver

import (
	"fmt"
	"slices"
	"strings"

	"github.com/limaJavier/timetabling-planner/pkg/model"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

// maxParallelGroups bounds how many groups of one section may attend labs at the same time
const maxParallelGroups = 3

type labTask struct {
	section  string
	lab      string
	group    int
	label    string
	assigned bool
}

func labGroups(studentCount, capacity int) int {
	if capacity <= 0 {
		capacity = model.DefaultLabCapacity
	}
	return max(1, (studentCount+capacity-1)/capacity)
}

func groupLabel(group int) string {
	return fmt.Sprintf("A%d", group+1)
}

// labBlocks lists every run of duration consecutive slots not crossing the lunch break.
// Runs after the lunch break come first.
func labBlocks(slots []string, duration int) [][]string {
	if duration <= 0 {
		duration = model.DefaultConstraints().LabDuration
	}
	lunch := slices.Index(slots, model.LunchBreak)

	preferred, rest := make([][]string, 0), make([][]string, 0)
	for start := 0; start+duration <= len(slots); start++ {
		block := slots[start : start+duration]
		if slices.Contains(block, model.LunchBreak) {
			continue
		}
		if lunch >= 0 && start > lunch {
			preferred = append(preferred, block)
		} else {
			rest = append(rest, block)
		}
	}
	return append(preferred, rest...)
}

func (g *grid) assignLabs() {
	blocks := labBlocks(g.config.Slots, g.config.Constraints.LabDuration)

	groups := make(map[string]int)
	tasks := make([]*labTask, 0)
	for _, section := range g.sections {
		groups[section.Name] = labGroups(section.StudentCount, g.config.LabCapacity)
		for group := range groups[section.Name] {
			for _, lab := range lo.Uniq(section.LabSubjects) {
				tasks = append(tasks, &labTask{section: section.Name, lab: lab, group: group, label: groupLabel(group)})
			}
		}
	}

	//** Parallel pass: several groups of a section in distinct labs at once
	for _, block := range blocks {
		for _, day := range g.days {
			for _, section := range g.sections {
				pending := lo.Filter(tasks, func(task *labTask, _ int) bool { return !task.assigned && task.section == section.Name })
				if len(pending) == 0 {
					continue
				}
				for size := min(groups[section.Name], maxParallelGroups, len(pending)); size > 0; size-- {
					if g.placeParallel(pending, size, day, block) {
						break
					}
				}
			}
		}
	}

	//** One by one, then ignoring teacher conflicts, then reported as unscheduled
	for _, task := range tasks {
		if task.assigned {
			continue
		}
		if g.placeSingle(task, blocks, true) || g.placeSingle(task, blocks, false) {
			continue
		}
		g.place(task.section, g.config.Days[0], g.slots[len(g.slots)-1], placement{
			subject: task.lab + "-UNSCHED",
			group:   task.label,
		})
		task.assigned = true
	}
}

// placeParallel commits the first combination of size pending tasks with distinct groups and distinct labs that
// fits the block
func (g *grid) placeParallel(pending []*labTask, size int, day string, block []string) bool {
	placed := false
	eachCombination(len(pending), size, func(indexes []int) bool {
		combo := lo.Map(indexes, func(index int, _ int) *labTask { return pending[index] })
		if len(lo.UniqBy(combo, func(task *labTask) int { return task.group })) != size ||
			len(lo.UniqBy(combo, func(task *labTask) string { return task.lab })) != size {
			return true
		}

		section := combo[0].section
		for _, slot := range block {
			if !g.free(section, day, slot) {
				return true
			}
		}

		teachers := lo.Map(combo, func(task *labTask, _ int) string { return g.labTeachers[[2]string{section, task.lab}] })
		named := lo.Filter(teachers, func(teacher string, _ int) bool { return teacher != "" })
		if len(lo.Uniq(named)) != len(named) {
			return true
		}
		for _, teacher := range named {
			for _, slot := range block {
				if !g.teacherFree(teacher, day, slot) {
					return true
				}
			}
		}

		rooms, ok := g.matchRooms(combo, day, block)
		if !ok {
			return true
		}

		for i, task := range combo {
			for _, slot := range block {
				g.place(section, day, slot, placement{subject: task.lab, room: rooms[i], teacher: teachers[i], group: task.label})
			}
			task.assigned = true
		}
		placed = true
		return false
	})
	return placed
}

func (g *grid) placeSingle(task *labTask, blocks [][]string, withTeacher bool) bool {
	teacher := ""
	if withTeacher {
		teacher = g.labTeachers[[2]string{task.section, task.lab}]
	}
	options := g.roomOptions(task)

	for _, block := range blocks {
		for _, day := range g.days {
			fits := lo.EveryBy(block, func(slot string) bool {
				return g.free(task.section, day, slot) && g.teacherFree(teacher, day, slot)
			})
			if !fits {
				continue
			}

			room, found := "", len(options) == 0
			for _, option := range options {
				if lo.EveryBy(block, func(slot string) bool { return g.roomFree(option, day, slot) }) {
					room, found = option, true
					break
				}
			}
			if !found {
				continue
			}

			for _, slot := range block {
				g.place(task.section, day, slot, placement{subject: task.lab, room: room, teacher: teacher, group: task.label})
			}
			task.assigned = true
			return true
		}
	}
	return false
}

// roomOptions lists the rooms a lab session may use, starting at a different room for every group.
// Labs without dedicated rooms fall back to the section's classroom.
func (g *grid) roomOptions(task *labTask) []string {
	options := lo.Uniq(lo.Filter(g.config.LabRooms[task.lab], func(room string, _ int) bool { return strings.TrimSpace(room) != "" }))
	if len(options) == 0 {
		if classroom := g.classrooms[task.section]; classroom != "" {
			options = []string{classroom}
		}
	}
	return rotate(options, int64(task.group))
}

// matchRooms assigns pairwise distinct rooms, free during the whole block, to the sessions of combo by means of a
// maximum bipartite matching. Sessions without any room option get an empty room.
func (g *grid) matchRooms(combo []*labTask, day string, block []string) ([]string, bool) {
	assigned := make([]string, len(combo))
	candidates := make(map[int][]string)
	rooms := make([]string, 0)
	sessions := make([]any, 0, len(combo))

	for i, task := range combo {
		options := g.roomOptions(task)
		if len(options) == 0 {
			continue
		}
		free := lo.Filter(options, func(room string, _ int) bool {
			return lo.EveryBy(block, func(slot string) bool { return g.roomFree(room, day, slot) })
		})
		if len(free) == 0 {
			return nil, false
		}
		candidates[i] = free
		sessions = append(sessions, i)
		for _, room := range free {
			if !slices.Contains(rooms, room) {
				rooms = append(rooms, room)
			}
		}
	}
	if len(sessions) == 0 {
		return assigned, true
	}

	neighbors := func(sessionAny any, roomAny any) (bool, error) {
		return slices.Contains(candidates[sessionAny.(int)], roomAny.(string)), nil
	}
	roomsAny := lo.Map(rooms, func(room string, _ int) any { return room })

	graph, err := bipartitegraph.NewBipartiteGraph(sessions, roomsAny, neighbors)
	if err != nil {
		return nil, false
	}

	matching := graph.LargestMatching()
	if len(matching) < len(sessions) {
		return nil, false
	}
	for _, edge := range matching {
		session, room := sessions[edge.Node1].(int), rooms[edge.Node2-len(sessions)]
		assigned[session] = room
	}
	return assigned, true
}

// eachCombination calls yield with every size-element subset of [0, n) in lexicographic order until yield returns false
func eachCombination(n, size int, yield func([]int) bool) {
	indexes := make([]int, size)
	var visit func(position, start int) bool
	visit = func(position, start int) bool {
		if position == size {
			return yield(slices.Clone(indexes))
		}
		for i := start; i <= n-(size-position); i++ {
			indexes[position] = i
			if !visit(position+1, i+1) {
				return false
			}
		}
		return true
	}
	visit(0, 0)
}
