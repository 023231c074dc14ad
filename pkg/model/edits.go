package model

import (
	"slices"
)

// Edit mutates a private copy of a configuration (see Config.Copy)
type Edit func(config *Config)

// AddClass appends class with its subject names trimmed
func AddClass(class ClassDefinition) Edit {
	return func(config *Config) {
		config.Classes = append(config.Classes, class.TrimSubjects())
	}
}

// ReplaceClass overwrites the class at index; out of range indices are ignored
func ReplaceClass(index int, class ClassDefinition) Edit {
	return func(config *Config) {
		if index >= 0 && index < len(config.Classes) {
			config.Classes[index] = class.TrimSubjects()
		}
	}
}

// RemoveClass deletes the class at index; out of range indices are ignored
func RemoveClass(index int) Edit {
	return func(config *Config) {
		if index >= 0 && index < len(config.Classes) {
			config.Classes = slices.Delete(config.Classes, index, index+1)
		}
	}
}

// SetTeachers replaces the roster of a subject already known to the configuration
func SetTeachers(subject string, teachers []string) Edit {
	return func(config *Config) {
		if _, ok := config.Teachers[subject]; ok {
			config.Teachers[subject] = slices.Clone(teachers)
		}
	}
}

// SetLabTeachers replaces the roster of a lab subject already known to the configuration
func SetLabTeachers(lab string, teachers []string) Edit {
	return func(config *Config) {
		if _, ok := config.LabTeachers[lab]; ok {
			config.LabTeachers[lab] = slices.Clone(teachers)
		}
	}
}

// SetLabRooms replaces the room selection of a lab subject already known to the configuration
func SetLabRooms(lab string, rooms []string) Edit {
	return func(config *Config) {
		if _, ok := config.LabRooms[lab]; ok {
			config.LabRooms[lab] = slices.Compact(slices.Sorted(slices.Values(rooms)))
		}
	}
}

func SetLectureRequirement(subject string, lectures int) Edit {
	return func(config *Config) {
		if _, ok := config.LectureRequirements[subject]; ok && lectures >= 0 {
			config.LectureRequirements[subject] = lectures
		}
	}
}

func SetDays(days []string) Edit {
	return func(config *Config) { config.Days = slices.Clone(days) }
}

func SetSlots(slots []string) Edit {
	return func(config *Config) { config.Slots = slices.Clone(slots) }
}

func SetRooms(rooms []string) Edit {
	return func(config *Config) { config.Rooms = slices.Clone(rooms) }
}

func SetConstraints(constraints Constraints, labCapacity int) Edit {
	return func(config *Config) {
		config.Constraints = constraints
		config.LabCapacity = labCapacity
	}
}

// SetUnavailability replaces the exclusions of teacher; an empty list removes the teacher entry
func SetUnavailability(teacher string, exclusions []Unavailability) Edit {
	return func(config *Config) {
		if config.TeacherUnavailability == nil {
			config.TeacherUnavailability = make(map[string][]Unavailability)
		}
		if len(exclusions) == 0 {
			delete(config.TeacherUnavailability, teacher)
			return
		}
		config.TeacherUnavailability[teacher] = slices.Clone(exclusions)
	}
}
