package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeConfig() Config {
	config := DefaultConfig()
	config.Classes = []ClassDefinition{{
		Name:        "CS",
		Subjects:    []string{"Algorithms"},
		LabSubjects: []string{},
		Sections:    []Section{{Name: "A", StudentCount: 40}},
	}}
	config.Rooms = []string{"R1"}
	config.Teachers = map[string][]string{"Algorithms": {"Dr.X"}}
	return config
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	assert.NoError(t, Validate(completeConfig()))
}

func TestValidateReportsIncompleteConfig(t *testing.T) {
	scenarios := []struct {
		name    string
		edit    func(config *Config)
		problem string
	}{
		{
			name:    "no classes",
			edit:    func(config *Config) { config.Classes = nil },
			problem: "classes must contain at least 1 item(s)",
		},
		{
			name:    "class without name",
			edit:    func(config *Config) { config.Classes[0].Name = "" },
			problem: "classes[0].name is required",
		},
		{
			name:    "class with blank name",
			edit:    func(config *Config) { config.Classes[0].Name = "   " },
			problem: "classes[0].name is required",
		},
		{
			name:    "class without sections",
			edit:    func(config *Config) { config.Classes[0].Sections = []Section{} },
			problem: "classes[0].sections must contain at least 1 item(s)",
		},
		{
			name:    "class without subjects",
			edit:    func(config *Config) { config.Classes[0].Subjects = []string{" "} },
			problem: "classes[0] must contain at least one subject or lab subject",
		},
		{
			name:    "no days",
			edit:    func(config *Config) { config.Days = []string{} },
			problem: "days must contain at least 1 item(s)",
		},
		{
			name:    "only lunch",
			edit:    func(config *Config) { config.Slots = []string{LunchBreak} },
			problem: `slots must contain at least one slot other than "Lunch Break"`,
		},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			//** Arrange
			config := completeConfig()
			scenario.edit(&config)

			//** Act
			err := Validate(config)

			//** Assert
			var incomplete *IncompleteConfigError
			if assert.True(t, errors.As(err, &incomplete)) {
				assert.Contains(t, incomplete.Problems, scenario.problem)
			}
			assert.ErrorIs(t, err, ErrConfigurationIncomplete)
		})
	}
}

func TestLabSubjectAloneSatisfiesSubjectRequirement(t *testing.T) {
	config := completeConfig()
	config.Classes[0].Subjects = []string{}
	config.Classes[0].LabSubjects = []string{"Networks Lab"}

	assert.NoError(t, Validate(config))
}

func TestValidateConstraints(t *testing.T) {
	constraints := DefaultConstraints()
	assert.NoError(t, ValidateConstraints(constraints, DefaultLabCapacity))

	constraints.LabDuration = -1
	err := ValidateConstraints(constraints, -5)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "lab_duration must be greater than or equal to 0")
	assert.Contains(t, err.Error(), "lab_capacity must be greater than or equal to 0")
}

func TestWarnings(t *testing.T) {
	config := completeConfig()
	config.Classes[0].Sections = append(config.Classes[0].Sections, Section{})
	config.Classes[0].Subjects = []string{"Algorithms", "Compilers"}
	config.Classes[0].LabSubjects = []string{"OS Lab"}
	config.LabTeachers = map[string][]string{"OS Lab": {""}}

	warnings := Warnings(config)

	assert.Equal(t, []string{
		"Class 1, Section 2 should have a name",
		"Class 1, Section 2 should have student count",
		"No teacher assigned to subject: Compilers",
		`Subject "OS Lab" has no valid teachers assigned`,
		"No lab rooms assigned to lab subject: OS Lab",
	}, warnings)
}
