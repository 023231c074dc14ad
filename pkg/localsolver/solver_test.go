package localsolver

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/limaJavier/timetabling-planner/pkg/model"
	"github.com/limaJavier/timetabling-planner/pkg/solver"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func departmentConfig() model.Config {
	config := model.DefaultConfig()
	config.Classes = []model.ClassDefinition{
		{
			Name:        "CSE 3rd Year",
			Subjects:    []string{"Math", "Physics"},
			LabSubjects: []string{"Chem Lab"},
			Sections: []model.Section{
				{Name: "A", StudentCount: 60},
				{Name: "B", StudentCount: 30},
			},
		},
	}
	config.Rooms = []string{"R1", "R2"}
	config.Teachers = map[string][]string{"Math": {"Dr.X"}, "Physics": {"Dr.Y", "Dr.Z"}}
	config.LabTeachers = map[string][]string{"Chem Lab": {"Dr.L", "Dr.M"}}
	config.LabRooms = map[string][]string{"Chem Lab": {"L1", "L2"}}
	config.LectureRequirements = map[string]int{"Math": 3, "Physics": 2}
	return config
}

func TestGenerateRespectsHardConstraints(t *testing.T) {
	//** Arrange
	config := departmentConfig()
	localSolver := New(nil)

	//** Act
	result, err := localSolver.Generate(context.Background(), solver.GenerateRequest{Config: config})

	//** Assert
	require.NoError(t, err)
	assert.Empty(t, result.Unfulfilled)
	assert.Empty(t, result.Suggestions)

	teachers, rooms := make(map[string]bool), make(map[string]bool)
	for _, entry := range result.Entries {
		assert.NotEqual(t, model.LunchBreak, entry.Slot)
		if entry.Teacher != "" {
			key := fmt.Sprintf("%v/%v/%v", entry.Teacher, entry.Day, entry.Slot)
			assert.False(t, teachers[key], "teacher double booked: %v", key)
			teachers[key] = true
		}
		if entry.Room != "" {
			key := fmt.Sprintf("%v/%v/%v", entry.Room, entry.Day, entry.Slot)
			assert.False(t, rooms[key], "room double booked: %v", key)
			rooms[key] = true
		}
	}

	// Theory lectures match their requirements
	for _, section := range []string{"CSE 3rd Year - A", "CSE 3rd Year - B"} {
		for subject, lectures := range config.LectureRequirements {
			count := lo.CountBy(result.Entries, func(entry model.ScheduleEntry) bool {
				return entry.Section == section && entry.Subject == subject
			})
			assert.Equal(t, lectures, count, "%v %v", section, subject)
		}
	}

	// Every lab group gets one block of two adjacent slots
	sessions := lo.GroupBy(
		lo.Filter(result.Entries, func(entry model.ScheduleEntry, _ int) bool { return entry.Group != "" }),
		func(entry model.ScheduleEntry) string { return entry.Section + "/" + entry.Group },
	)
	assert.Len(t, sessions, 3)
	assert.Contains(t, sessions, "CSE 3rd Year - A/A1")
	assert.Contains(t, sessions, "CSE 3rd Year - A/A2")
	assert.Contains(t, sessions, "CSE 3rd Year - B/A1")
	for key, session := range sessions {
		require.Len(t, session, 2, key)
		assert.Equal(t, session[0].Day, session[1].Day)
		first, second := slices.Index(config.Slots, session[0].Slot), slices.Index(config.Slots, session[1].Slot)
		assert.Equal(t, first+1, second, key)
		assert.Contains(t, []string{"L1", "L2"}, session[0].Room)
	}

	assert.Equal(t, 2, result.Statistics.TotalSections)
	assert.Equal(t, 1, result.Statistics.TotalClasses)
	assert.Equal(t, 2*5*7, result.Statistics.TotalSlotsAvailable)
	assert.Equal(t, len(result.Entries), result.Statistics.TotalSlotsUsed)
}

func TestGenerateIsDeterministicPerVariation(t *testing.T) {
	//** Arrange
	config := departmentConfig()
	localSolver := New(nil)

	//** Act
	first, err := localSolver.Generate(context.Background(), solver.GenerateRequest{Config: config, Variation: 0})
	require.NoError(t, err)
	again, err := localSolver.Generate(context.Background(), solver.GenerateRequest{Config: config, Variation: 0})
	require.NoError(t, err)
	other, err := localSolver.Generate(context.Background(), solver.GenerateRequest{Config: config, Variation: 1})
	require.NoError(t, err)

	//** Assert
	assert.Equal(t, first.Entries, again.Entries)
	assert.NotEqual(t, first.Entries, other.Entries)
}

func TestGenerateMatchesParallelLabRooms(t *testing.T) {
	//** Arrange
	config := model.DefaultConfig()
	config.Classes = []model.ClassDefinition{
		{Name: "Bio", LabSubjects: []string{"Chem Lab", "Bio Lab"}, Sections: []model.Section{{Name: "A", StudentCount: 60}}},
	}
	config.LabTeachers = map[string][]string{"Chem Lab": {"T1"}, "Bio Lab": {"T2"}}
	// The second group would try L1 first for Bio Lab, which Chem Lab needs
	config.LabRooms = map[string][]string{"Chem Lab": {"L1"}, "Bio Lab": {"L2", "L1"}}

	//** Act
	result, err := New(nil).Generate(context.Background(), solver.GenerateRequest{Config: config})

	//** Assert
	require.NoError(t, err)
	parallel := lo.Filter(result.Entries, func(entry model.ScheduleEntry, _ int) bool {
		return entry.Day == "Monday" && entry.Slot == "2:00-2:55"
	})
	require.Len(t, parallel, 2)
	assert.Equal(t, model.ScheduleEntry{Section: "Bio - A", Day: "Monday", Slot: "2:00-2:55", Subject: "Chem Lab", Teacher: "T1", Room: "L1", Group: "A1"}, parallel[0])
	assert.Equal(t, model.ScheduleEntry{Section: "Bio - A", Day: "Monday", Slot: "2:00-2:55", Subject: "Bio Lab", Teacher: "T2", Room: "L2", Group: "A2"}, parallel[1])
	assert.False(t, lo.ContainsBy(result.Entries, func(entry model.ScheduleEntry) bool { return entry.Group == "" }))
}

func TestGenerateReportsUnscheduledLabs(t *testing.T) {
	//** Arrange
	config := model.DefaultConfig()
	config.Slots = []string{"9:00-9:55", model.LunchBreak, "2:00-2:55"}
	config.Classes = []model.ClassDefinition{
		{Name: "Chem", LabSubjects: []string{"Chem Lab"}, Sections: []model.Section{{Name: "A", StudentCount: 10}}},
	}

	//** Act
	result, err := New(nil).Generate(context.Background(), solver.GenerateRequest{Config: config})

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, []model.ScheduleEntry{
		{Section: "Chem - A", Day: "Monday", Slot: "2:00-2:55", Subject: "Chem Lab-UNSCHED", Group: "A1"},
	}, result.Entries)
}

func TestGenerateReportsUnfulfilledLectures(t *testing.T) {
	//** Arrange
	config := model.DefaultConfig()
	config.Days = []string{"Monday"}
	config.Slots = []string{"s1", "s2"}
	config.Classes = []model.ClassDefinition{
		{Name: "C", Subjects: []string{"Math"}, Sections: []model.Section{{Name: "A"}}},
	}
	config.Teachers = map[string][]string{"Math": {"T"}}
	config.LectureRequirements = map[string]int{"Math": 5}

	//** Act
	result, err := New(nil).Generate(context.Background(), solver.GenerateRequest{Config: config})

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, model.Unfulfilled{"C - A": {"Math": 4}}, result.Unfulfilled)
	require.Contains(t, result.Suggestions, "C - A")
	messages := result.Suggestions["C - A"]["Math"]
	require.GreaterOrEqual(t, len(messages), 3)
	assert.Equal(t, "Unfulfilled: need 4 lecture(s) of Math for C - A.", messages[0])
	assert.Contains(t, messages[1], "Current faculty for Math: 1")
}

func TestGenerateRejectsIncompleteConfig(t *testing.T) {
	_, err := New(nil).Generate(context.Background(), solver.GenerateRequest{Config: model.DefaultConfig()})

	assert.ErrorIs(t, err, solver.ErrSolverFailure)
	assert.ErrorIs(t, err, model.ErrConfigurationIncomplete)
}

func TestResetAssignment(t *testing.T) {
	scenarios := []struct {
		name        string
		entries     []model.ScheduleEntry
		unavailable map[string][]model.Unavailability
		expected    []model.ScheduleEntry
	}{
		{
			name: "later lecture moves into the freed slot",
			entries: []model.ScheduleEntry{
				{Section: "S", Day: "Monday", Slot: "9:00-9:55", Subject: "Math", Teacher: "Dr.X", Room: "R1"},
				{Section: "S", Day: "Monday", Slot: "3:50-4:45", Subject: "Physics", Teacher: "Dr.Y", Room: "R1"},
			},
			expected: []model.ScheduleEntry{
				{Section: "S", Day: "Monday", Slot: "9:00-9:55", Subject: "Physics", Teacher: "Dr.Y", Room: "R1", Moved: true, MovedFrom: "3:50-4:45"},
			},
		},
		{
			name: "slot before lunch is preferred",
			entries: []model.ScheduleEntry{
				{Section: "S", Day: "Monday", Slot: "9:00-9:55", Subject: "Math", Teacher: "Dr.X", Room: "R1"},
				{Section: "S", Day: "Monday", Slot: "11:45-12:40", Subject: "Chemistry", Teacher: "Dr.C", Room: "R1"},
				{Section: "S", Day: "Monday", Slot: "3:50-4:45", Subject: "Physics", Teacher: "Dr.Y", Room: "R1"},
			},
			expected: []model.ScheduleEntry{
				{Section: "S", Day: "Monday", Slot: "9:00-9:55", Subject: "Chemistry", Teacher: "Dr.C", Room: "R1", Moved: true, MovedFrom: "11:45-12:40"},
				{Section: "S", Day: "Monday", Slot: "3:50-4:45", Subject: "Physics", Teacher: "Dr.Y", Room: "R1"},
			},
		},
		{
			name: "workshop when nothing later can move",
			entries: []model.ScheduleEntry{
				{Section: "S", Day: "Tuesday", Slot: "9:00-9:55", Subject: "Physics", Teacher: "Dr.Y", Room: "R1"},
				{Section: "S", Day: "Monday", Slot: "9:00-9:55", Subject: "Math", Teacher: "Dr.X", Room: "R1"},
				{Section: "S", Day: "Monday", Slot: "2:00-2:55", Subject: "Chem Lab", Teacher: "Dr.L", Room: "L1", Group: "A1"},
			},
			expected: []model.ScheduleEntry{
				{Section: "S", Day: "Tuesday", Slot: "9:00-9:55", Subject: "Physics", Teacher: "Dr.Y", Room: "R1"},
				{Section: "S", Day: "Monday", Slot: "9:00-9:55", Subject: model.Workshop},
				{Section: "S", Day: "Monday", Slot: "2:00-2:55", Subject: "Chem Lab", Teacher: "Dr.L", Room: "L1", Group: "A1"},
			},
		},
		{
			name: "unavailable teacher is not moved",
			entries: []model.ScheduleEntry{
				{Section: "S", Day: "Monday", Slot: "9:00-9:55", Subject: "Math", Teacher: "Dr.X", Room: "R1"},
				{Section: "S", Day: "Monday", Slot: "3:50-4:45", Subject: "Physics", Teacher: "Dr.Y", Room: "R1"},
			},
			unavailable: map[string][]model.Unavailability{"Dr.Y": {{Day: "Monday", Slot: "9:00-9:55"}}},
			expected: []model.ScheduleEntry{
				{Section: "S", Day: "Monday", Slot: "9:00-9:55", Subject: model.Workshop},
				{Section: "S", Day: "Monday", Slot: "3:50-4:45", Subject: "Physics", Teacher: "Dr.Y", Room: "R1"},
			},
		},
		{
			name: "busy teacher is not moved and earlier marks are cleared",
			entries: []model.ScheduleEntry{
				{Section: "S", Day: "Monday", Slot: "9:00-9:55", Subject: "Math", Teacher: "Dr.X", Room: "R1"},
				{Section: "S", Day: "Monday", Slot: "3:50-4:45", Subject: "Physics", Teacher: "Dr.Y", Room: "R1", Moved: true, MovedFrom: "2:00-2:55"},
				{Section: "T", Day: "Monday", Slot: "9:00-9:55", Subject: "Physics", Teacher: "Dr.Y", Room: "R2"},
			},
			expected: []model.ScheduleEntry{
				{Section: "S", Day: "Monday", Slot: "9:00-9:55", Subject: model.Workshop},
				{Section: "S", Day: "Monday", Slot: "3:50-4:45", Subject: "Physics", Teacher: "Dr.Y", Room: "R1"},
				{Section: "T", Day: "Monday", Slot: "9:00-9:55", Subject: "Physics", Teacher: "Dr.Y", Room: "R2"},
			},
		},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			//** Arrange
			config := model.DefaultConfig()
			if scenario.unavailable != nil {
				config.TeacherUnavailability = scenario.unavailable
			}
			request := solver.ResetRequest{
				Config:  config,
				Entries: scenario.entries,
				Teacher: "Dr.X",
				Day:     "Monday",
				Slot:    "9:00-9:55",
			}

			//** Act
			entries, err := New(nil).ResetAssignment(context.Background(), request)

			//** Assert
			require.NoError(t, err)
			assert.Equal(t, scenario.expected, entries)
		})
	}
}

func TestResetAssignmentKeepsSharedCells(t *testing.T) {
	entries := []model.ScheduleEntry{
		{Section: "S", Day: "Monday", Slot: "2:00-2:55", Subject: "Chem Lab", Teacher: "Dr.X", Room: "L1", Group: "A1"},
		{Section: "S", Day: "Monday", Slot: "2:00-2:55", Subject: "Bio Lab", Teacher: "Dr.B", Room: "L2", Group: "A2"},
		{Section: "S", Day: "Monday", Slot: "3:50-4:45", Subject: "Physics", Teacher: "Dr.Y", Room: "R1"},
	}

	result, err := New(nil).ResetAssignment(context.Background(), solver.ResetRequest{
		Config:  model.DefaultConfig(),
		Entries: entries,
		Teacher: "Dr.X",
		Day:     "Monday",
		Slot:    "2:00-2:55",
	})

	require.NoError(t, err)
	assert.Equal(t, entries[1:], result)
}

func TestLaterSlots(t *testing.T) {
	assert.Equal(t,
		[]string{"11:45-12:40", "3:50-4:45", "2:55-3:50", "2:00-2:55", "10:50-11:45", "9:55-10:50"},
		laterSlots(model.DefaultSlots(), "9:00-9:55"),
	)
	assert.Equal(t, []string{"3:50-4:45", "2:55-3:50"}, laterSlots(model.DefaultSlots(), "2:00-2:55"))
	assert.Equal(t, []string{"c", "d"}, laterSlots([]string{"a", "b", "c", "d"}, "b"))
	assert.Empty(t, laterSlots(model.DefaultSlots(), "3:50-4:45"))
	assert.Empty(t, laterSlots(model.DefaultSlots(), "unknown"))
}

func TestLabBlocks(t *testing.T) {
	assert.Equal(t, [][]string{
		{"2:00-2:55", "2:55-3:50"},
		{"2:55-3:50", "3:50-4:45"},
		{"9:00-9:55", "9:55-10:50"},
		{"9:55-10:50", "10:50-11:45"},
		{"10:50-11:45", "11:45-12:40"},
	}, labBlocks(model.DefaultSlots(), 2))
	assert.Equal(t, [][]string{{"a", "b", "c"}}, labBlocks([]string{"a", "b", "c"}, 3))
}

func TestLabGroups(t *testing.T) {
	assert.Equal(t, 1, labGroups(0, 30))
	assert.Equal(t, 1, labGroups(30, 30))
	assert.Equal(t, 2, labGroups(31, 30))
	assert.Equal(t, 2, labGroups(60, 0))
}

func TestRotate(t *testing.T) {
	days := []string{"Mon", "Tue", "Wed"}
	assert.Equal(t, days, rotate(days, 0))
	assert.Equal(t, []string{"Tue", "Wed", "Mon"}, rotate(days, 1))
	assert.Equal(t, []string{"Wed", "Mon", "Tue"}, rotate(days, -1))
	assert.Equal(t, []string{"Mon", "Tue", "Wed"}, days)
}
