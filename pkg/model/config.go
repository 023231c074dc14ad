package model

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	// LunchBreak is the reserved slot name rendered as a break regardless of its entries
	LunchBreak = "Lunch Break"
	// Workshop is the reserved subject placed by the solver when a freed slot cannot be refilled
	Workshop = "Workshop"

	DefaultLectureRequirement = 3
	DefaultLabCapacity        = 30
)

type Section struct {
	Name         string `json:"name" mapstructure:"name"`
	StudentCount int    `json:"student_count" mapstructure:"student_count" validate:"gte=0"`
}

type ClassDefinition struct {
	Name        string    `json:"name" mapstructure:"name" validate:"required"`
	Subjects    []string  `json:"subjects" mapstructure:"subjects"`
	LabSubjects []string  `json:"lab_subjects" mapstructure:"lab_subjects"`
	Sections    []Section `json:"sections" mapstructure:"sections" validate:"min=1,dive"`
}

// TrimSubjects strips surrounding blanks from the theory and lab subject names of class
func (class ClassDefinition) TrimSubjects() ClassDefinition {
	class.Subjects = trimNames(class.Subjects)
	class.LabSubjects = trimNames(class.LabSubjects)
	return class
}

func trimNames(names []string) []string {
	if names == nil {
		return nil
	}
	trimmed := make([]string, len(names))
	for i, name := range names {
		trimmed[i] = strings.TrimSpace(name)
	}
	return trimmed
}

type Unavailability struct {
	Day  string `json:"day" mapstructure:"day"`
	Slot string `json:"slot" mapstructure:"slot"`
}

type Constraints struct {
	MaxLecturesPerDayTeacher    int  `json:"max_lectures_per_day_teacher" mapstructure:"max_lectures_per_day_teacher" validate:"gte=0"`
	MaxLecturesPerSubjectPerDay int  `json:"max_lectures_per_subject_per_day" mapstructure:"max_lectures_per_subject_per_day" validate:"gte=0"`
	MinLecturesPerDaySection    int  `json:"min_lectures_per_day_section" mapstructure:"min_lectures_per_day_section" validate:"gte=0"`
	MaxLecturesPerDaySection    int  `json:"max_lectures_per_day_section" mapstructure:"max_lectures_per_day_section" validate:"gte=0"`
	LabDuration                 int  `json:"lab_duration" mapstructure:"lab_duration" validate:"gte=0"`
	DistributeAcrossWeek        bool `json:"distribute_across_week" mapstructure:"distribute_across_week"`
}

// Config is the whole user-editable scheduling configuration. The keys of Teachers, LabTeachers,
// LabRooms and LectureRequirements are owned by the reconcile package; their values by user edits.
type Config struct {
	Classes               []ClassDefinition           `json:"classes" mapstructure:"classes" validate:"min=1,dive"`
	Rooms                 []string                    `json:"rooms" mapstructure:"rooms"`
	Days                  []string                    `json:"days" mapstructure:"days" validate:"min=1"`
	Slots                 []string                    `json:"slots" mapstructure:"slots" validate:"teaching_slots"`
	Teachers              map[string][]string         `json:"teachers" mapstructure:"teachers"`
	LabTeachers           map[string][]string         `json:"lab_teachers" mapstructure:"lab_teachers"`
	LabRooms              map[string][]string         `json:"lab_rooms" mapstructure:"lab_rooms"`
	LectureRequirements   map[string]int              `json:"lecture_requirements" mapstructure:"lecture_requirements"`
	TeacherUnavailability map[string][]Unavailability `json:"teacher_unavailability" mapstructure:"teacher_unavailability"`
	Constraints           Constraints                 `json:"constraints" mapstructure:"constraints"`
	LabCapacity           int                         `json:"lab_capacity" mapstructure:"lab_capacity" validate:"gte=0"`
}

// Snapshot is a settled configuration together with the version it was published under
type Snapshot struct {
	Version uint64
	Config  Config
}

func DefaultDays() []string {
	return []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
}

func DefaultSlots() []string {
	return []string{
		"9:00-9:55",
		"9:55-10:50",
		"10:50-11:45",
		"11:45-12:40",
		LunchBreak,
		"2:00-2:55",
		"2:55-3:50",
		"3:50-4:45",
	}
}

func DefaultConstraints() Constraints {
	return Constraints{
		MaxLecturesPerDayTeacher:    5,
		MaxLecturesPerSubjectPerDay: 2,
		MinLecturesPerDaySection:    4,
		MaxLecturesPerDaySection:    6,
		LabDuration:                 2,
		DistributeAcrossWeek:        true,
	}
}

func DefaultConfig() Config {
	return Config{
		Classes:               []ClassDefinition{},
		Rooms:                 []string{},
		Days:                  DefaultDays(),
		Slots:                 DefaultSlots(),
		Teachers:              map[string][]string{},
		LabTeachers:           map[string][]string{},
		LabRooms:              map[string][]string{},
		LectureRequirements:   map[string]int{},
		TeacherUnavailability: map[string][]Unavailability{},
		Constraints:           DefaultConstraints(),
		LabCapacity:           DefaultLabCapacity,
	}
}

// Copy returns a config whose top-level slices and maps may be modified without affecting config.
// Slices stored inside classes and maps are shared and must be replaced, never written in place.
func (config Config) Copy() Config {
	copied := config
	copied.Classes = slices.Clone(config.Classes)
	copied.Rooms = slices.Clone(config.Rooms)
	copied.Days = slices.Clone(config.Days)
	copied.Slots = slices.Clone(config.Slots)
	copied.Teachers = maps.Clone(config.Teachers)
	copied.LabTeachers = maps.Clone(config.LabTeachers)
	copied.LabRooms = maps.Clone(config.LabRooms)
	copied.LectureRequirements = maps.Clone(config.LectureRequirements)
	copied.TeacherUnavailability = maps.Clone(config.TeacherUnavailability)
	return copied
}

// SectionName builds the display name used in schedule entries, e.g. "CSE 3rd Year - A"
func SectionName(class, section string) string {
	if strings.TrimSpace(section) == "" {
		return class
	}
	return fmt.Sprintf("%v - %v", class, section)
}

// FlatSection is a section of a class expanded with its class' subjects
type FlatSection struct {
	Name         string
	Class        string
	Section      string
	StudentCount int
	Subjects     []string
	LabSubjects  []string
}

// Sections flattens every class into its sections, preserving class and section order
func (config Config) Sections() []FlatSection {
	sections := make([]FlatSection, 0)
	for _, class := range config.Classes {
		for _, section := range class.Sections {
			sections = append(sections, FlatSection{
				Name:         SectionName(class.Name, section.Name),
				Class:        class.Name,
				Section:      section.Name,
				StudentCount: section.StudentCount,
				Subjects:     class.Subjects,
				LabSubjects:  class.LabSubjects,
			})
		}
	}
	return sections
}

// TeachingSlots returns every slot except the lunch break
func (config Config) TeachingSlots() []string {
	return slices.DeleteFunc(slices.Clone(config.Slots), func(slot string) bool { return slot == LunchBreak })
}

// Unavailable checks whether teacher has excluded the given day and slot
func (config Config) Unavailable(teacher, day, slot string) bool {
	if teacher == "" {
		return false
	}
	return slices.Contains(config.TeacherUnavailability[teacher], Unavailability{Day: day, Slot: slot})
}
