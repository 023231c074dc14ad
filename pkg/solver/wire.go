package solver

import "github.com/limaJavier/timetabling-planner/pkg/model"

// Wire shapes of the solver's HTTP API

const (
	GeneratePath = "/generate_timetable"
	ResetPath    = "/reset_teacher"
	ValidatePath = "/validate_input"
	HealthPath   = "/health"
)

// GeneratePayload is the configuration document extended with the variation tag
type GeneratePayload struct {
	model.Config
	Variation int64 `json:"variation"`
}

type GenerateResponse struct {
	Success            bool                  `json:"success"`
	Timetable          []model.ScheduleEntry `json:"timetable"`
	Unfulfilled        model.Unfulfilled     `json:"unfulfilled"`
	Suggestions        model.Suggestions     `json:"suggestions"`
	Statistics         model.Statistics      `json:"statistics"`
	ValidationWarnings []string              `json:"validation_warnings"`
}

type ResetPayload struct {
	Teacher   string                `json:"teacher"`
	Day       string                `json:"day"`
	Slot      string                `json:"slot"`
	InputData model.Config          `json:"inputData"`
	Timetable []model.ScheduleEntry `json:"timetable"`
}

type ResetResponse struct {
	Timetable []model.ScheduleEntry `json:"timetable"`
}

type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

type HealthReport struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Version  string `json:"version"`
	Supports string `json:"supports"`
}

// ErrorResponse is returned, with any status, whenever a request fails
type ErrorResponse struct {
	Error              string   `json:"error"`
	ValidationErrors   []string `json:"validation_errors,omitempty"`
	ValidationWarnings []string `json:"validation_warnings,omitempty"`
}
