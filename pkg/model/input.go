package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

var ErrImportFormat = errors.New("import format error")

// ImportFormatError reports a document that cannot be read as a configuration
type ImportFormatError struct {
	Reason string
	Err    error
}

func (err *ImportFormatError) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("cannot import configuration: %v: %v", err.Reason, err.Err)
	}
	return fmt.Sprintf("cannot import configuration: %v", err.Reason)
}

func (err *ImportFormatError) Unwrap() error { return err.Err }

func (err *ImportFormatError) Is(target error) bool { return target == ErrImportFormat }

// ConfigFromJson parses a standalone configuration document. Keys that are missing or null fall back
// to DefaultConfig, unknown keys are ignored and returned so callers can report them.
func ConfigFromJson(bytes []byte) (Config, []string, error) {
	var inputJson any
	if err := json.Unmarshal(bytes, &inputJson); err != nil {
		return Config{}, nil, &ImportFormatError{Reason: "malformed json", Err: err}
	}

	raw, ok := inputJson.(map[string]any)
	if !ok {
		return Config{}, nil, &ImportFormatError{Reason: "document must be a json object"}
	}
	return DecodeConfig(raw)
}

// DecodeConfig decodes an already parsed json object into a Config, see ConfigFromJson
func DecodeConfig(raw map[string]any) (Config, []string, error) {
	raw = lo.OmitBy(raw, func(_ string, value any) bool { return value == nil })

	var config Config
	var metadata mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Metadata:         &metadata,
		Result:           &config,
	})
	if err != nil {
		return Config{}, nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, nil, &ImportFormatError{Reason: "unexpected field type", Err: err}
	}

	fillDefaults(raw, &config)

	unused := slices.Clone(metadata.Unused)
	slices.Sort(unused)
	return config, unused, nil
}

// fillDefaults restores default values for every key absent from raw
func fillDefaults(raw map[string]any, config *Config) {
	defaults := DefaultConfig()
	missing := func(key string) bool {
		_, ok := raw[key]
		return !ok
	}

	if missing("classes") {
		config.Classes = defaults.Classes
	}
	if missing("rooms") {
		config.Rooms = defaults.Rooms
	}
	if missing("days") {
		config.Days = defaults.Days
	}
	if missing("slots") {
		config.Slots = defaults.Slots
	}
	if missing("teachers") {
		config.Teachers = defaults.Teachers
	}
	if missing("lab_teachers") {
		config.LabTeachers = defaults.LabTeachers
	}
	if missing("lab_rooms") {
		config.LabRooms = defaults.LabRooms
	}
	if missing("lecture_requirements") {
		config.LectureRequirements = defaults.LectureRequirements
	}
	if missing("teacher_unavailability") {
		config.TeacherUnavailability = defaults.TeacherUnavailability
	}
	if missing("lab_capacity") {
		config.LabCapacity = defaults.LabCapacity
	}

	//** Constraints are defaulted field by field
	constraints, _ := raw["constraints"].(map[string]any)
	missingConstraint := func(key string) bool {
		value, ok := constraints[key]
		return !ok || value == nil
	}
	if missingConstraint("max_lectures_per_day_teacher") {
		config.Constraints.MaxLecturesPerDayTeacher = defaults.Constraints.MaxLecturesPerDayTeacher
	}
	if missingConstraint("max_lectures_per_subject_per_day") {
		config.Constraints.MaxLecturesPerSubjectPerDay = defaults.Constraints.MaxLecturesPerSubjectPerDay
	}
	if missingConstraint("min_lectures_per_day_section") {
		config.Constraints.MinLecturesPerDaySection = defaults.Constraints.MinLecturesPerDaySection
	}
	if missingConstraint("max_lectures_per_day_section") {
		config.Constraints.MaxLecturesPerDaySection = defaults.Constraints.MaxLecturesPerDaySection
	}
	if missingConstraint("lab_duration") {
		config.Constraints.LabDuration = defaults.Constraints.LabDuration
	}
	if missingConstraint("distribute_across_week") {
		config.Constraints.DistributeAcrossWeek = defaults.Constraints.DistributeAcrossWeek
	}

	// Decoded classes may carry nil lists when a class omits them
	for i := range config.Classes {
		config.Classes[i].Subjects = lo.Ternary(config.Classes[i].Subjects == nil, []string{}, config.Classes[i].Subjects)
		config.Classes[i].LabSubjects = lo.Ternary(config.Classes[i].LabSubjects == nil, []string{}, config.Classes[i].LabSubjects)
		config.Classes[i].Sections = lo.Ternary(config.Classes[i].Sections == nil, []Section{}, config.Classes[i].Sections)
		config.Classes[i] = config.Classes[i].TrimSubjects()
	}
}

// ConfigToJson serializes config in the shape accepted by ConfigFromJson
func ConfigToJson(config Config) ([]byte, error) {
	bytes, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("cannot serialize configuration: %w", err)
	}
	return bytes, nil
}
