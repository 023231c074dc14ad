package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/limaJavier/timetabling-planner/pkg/model"
	"github.com/limaJavier/timetabling-planner/pkg/solver"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

func respondError(c *gin.Context, status int, err error) {
	c.JSON(status, solver.ErrorResponse{Error: err.Error()})
}

// respondConfigError answers 400 for configurations that cannot be decoded or are incomplete
func respondConfigError(c *gin.Context, config model.Config, err error) {
	var incomplete *model.IncompleteConfigError
	if errors.As(err, &incomplete) {
		c.JSON(http.StatusBadRequest, solver.ErrorResponse{
			Error:              "Input validation failed",
			ValidationErrors:   incomplete.Problems,
			ValidationWarnings: model.Warnings(config),
		})
		return
	}
	respondError(c, http.StatusBadRequest, err)
}

// bindObject reads the request body as a json object
func bindObject(c *gin.Context) (map[string]any, bool) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil || raw == nil {
		respondError(c, http.StatusBadRequest, errors.New("request body must be a json object"))
		return nil, false
	}
	return raw, true
}

func (server *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, solver.HealthReport{
		Status:   "healthy",
		Message:  "Timetable solver is running",
		Version:  Version,
		Supports: Supports,
	})
}

func (server *Server) generate(c *gin.Context) {
	raw, ok := bindObject(c)
	if !ok {
		return
	}

	variation, err := variationOf(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	config, _, err := model.DecodeConfig(lo.OmitByKeys(raw, []string{"variation"}))
	if err != nil {
		respondConfigError(c, config, err)
		return
	}
	if err := model.Validate(config); err != nil {
		respondConfigError(c, config, err)
		return
	}

	result, err := server.solver.Generate(c.Request.Context(), solver.GenerateRequest{Config: config, Variation: variation})
	if err != nil {
		server.log.Warn("generation failed", "variation", variation, "error", err)
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, solver.GenerateResponse{
		Success:            true,
		Timetable:          lo.Ternary(result.Entries == nil, []model.ScheduleEntry{}, result.Entries),
		Unfulfilled:        lo.Ternary(result.Unfulfilled == nil, model.Unfulfilled{}, result.Unfulfilled),
		Suggestions:        lo.Ternary(result.Suggestions == nil, model.Suggestions{}, result.Suggestions),
		Statistics:         result.Statistics,
		ValidationWarnings: lo.Ternary(result.Warnings == nil, []string{}, result.Warnings),
	})
}

func variationOf(raw map[string]any) (int64, error) {
	switch value := raw["variation"].(type) {
	case nil:
		return 0, nil
	case float64:
		return int64(value), nil
	default:
		return 0, errors.New("variation must be a number")
	}
}

func (server *Server) validate(c *gin.Context) {
	raw, ok := bindObject(c)
	if !ok {
		return
	}
	config, _, err := model.DecodeConfig(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusOK, solver.Report(config))
}

type resetRequest struct {
	Teacher   string                `json:"teacher"`
	Day       string                `json:"day"`
	Slot      string                `json:"slot"`
	InputData map[string]any        `json:"inputData"`
	Timetable []model.ScheduleEntry `json:"timetable"`
}

func (server *Server) reset(c *gin.Context) {
	var request resetRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, http.StatusBadRequest, errors.New("request body must be a json object"))
		return
	}
	blank := lo.SomeBy([]string{request.Teacher, request.Day, request.Slot}, func(value string) bool {
		return strings.TrimSpace(value) == ""
	})
	if blank || request.InputData == nil {
		respondError(c, http.StatusBadRequest, errors.New("missing required parameters: teacher, day, slot and inputData"))
		return
	}

	config, _, err := model.DecodeConfig(request.InputData)
	if err != nil {
		respondConfigError(c, config, err)
		return
	}
	if err := model.Validate(config); err != nil {
		respondConfigError(c, config, err)
		return
	}

	entries, err := server.solver.ResetAssignment(c.Request.Context(), solver.ResetRequest{
		Config:  config,
		Entries: lo.Ternary(request.Timetable == nil, []model.ScheduleEntry{}, request.Timetable),
		Teacher: request.Teacher,
		Day:     request.Day,
		Slot:    request.Slot,
	})
	if err != nil {
		server.log.Warn("reset failed", "teacher", request.Teacher, "day", request.Day, "slot", request.Slot, "error", err)
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, solver.ResetResponse{Timetable: lo.Ternary(entries == nil, []model.ScheduleEntry{}, entries)})
}
