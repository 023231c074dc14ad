package model

import (
	"time"
)

type ScheduleEntry struct {
	Section   string `json:"section"`
	Day       string `json:"day"`
	Slot      string `json:"slot"`
	Subject   string `json:"subject"`
	Teacher   string `json:"teacher"`
	Room      string `json:"room"`
	Group     string `json:"group,omitempty"`
	Moved     bool   `json:"moved,omitempty"`
	MovedFrom string `json:"moved_from,omitempty"`
}

type Statistics struct {
	TotalSections         int            `json:"total_sections"`
	TotalClasses          int            `json:"total_classes"`
	TotalSlotsUsed        int            `json:"total_slots_used"`
	TotalSlotsAvailable   int            `json:"total_slots_available"`
	UtilizationPercentage float64        `json:"utilization_percentage"`
	TeacherUtilization    map[string]int `json:"teacher_utilization"`
	RoomUtilization       map[string]int `json:"room_utilization"`
	SubjectDistribution   map[string]int `json:"subject_distribution"`
}

// Unfulfilled maps section -> subject -> number of lectures the solver could not place
type Unfulfilled map[string]map[string]int

// Suggestions maps section -> subject -> human readable hints for an unfulfilled requirement
type Suggestions map[string]map[string][]string

// Variant is one independently generated schedule proposal
type Variant struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Entries       []ScheduleEntry `json:"entries"`
	Statistics    Statistics      `json:"statistics"`
	Unfulfilled   Unfulfilled     `json:"unfulfilled"`
	Suggestions   Suggestions     `json:"suggestions,omitempty"`
	Warnings      []string        `json:"warnings,omitempty"`
	GeneratedAt   time.Time       `json:"generated_at"`
	ConfigVersion uint64          `json:"config_version"`
	RepairedAt    *time.Time      `json:"repaired_at,omitempty"`
}

// ComputeStatistics derives usage figures for entries scheduled against config.
// Section count is taken from config so that sections without entries still count as available.
func ComputeStatistics(entries []ScheduleEntry, config Config) Statistics {
	stats := Statistics{
		TotalSections:       len(config.Sections()),
		TotalClasses:        len(config.Classes),
		TeacherUtilization:  make(map[string]int),
		RoomUtilization:     make(map[string]int),
		SubjectDistribution: make(map[string]int),
	}

	stats.TotalSlotsAvailable = len(config.Days) * len(config.TeachingSlots()) * stats.TotalSections

	for _, entry := range entries {
		if entry.Slot == LunchBreak || entry.Subject == "" {
			continue
		}
		stats.TotalSlotsUsed++
		if entry.Teacher != "" {
			stats.TeacherUtilization[entry.Teacher]++
		}
		if entry.Room != "" {
			stats.RoomUtilization[entry.Room]++
		}
		stats.SubjectDistribution[entry.Subject]++
	}

	if stats.TotalSlotsAvailable > 0 {
		stats.UtilizationPercentage = float64(stats.TotalSlotsUsed) / float64(stats.TotalSlotsAvailable) * 100
	}
	return stats
}
