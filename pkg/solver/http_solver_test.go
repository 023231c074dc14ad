package solver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/limaJavier/timetabling-planner/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSolver(t *testing.T, handler http.HandlerFunc) *HTTPSolver {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPSolver(server.URL+"/", 5*time.Second, nil)
}

func TestGenerateSendsConfigWithVariation(t *testing.T) {
	//** Arrange
	var received map[string]any
	solver := newTestSolver(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, GeneratePath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{
			"success": true,
			"timetable": [{"section": "CS - A", "day": "Monday", "slot": "9:00-9:55", "subject": "DBMS", "teacher": "Dr.X", "room": null}],
			"unfulfilled": {"CS - A": {"OS": 1}},
			"statistics": {"total_slots_used": 1},
			"validation_warnings": ["No lab rooms assigned to lab subject: OS Lab"]
		}`))
	})
	config := model.DefaultConfig()

	//** Act
	result, err := solver.Generate(context.Background(), GenerateRequest{Config: config, Variation: 7})

	//** Assert
	require.NoError(t, err)
	assert.EqualValues(t, 7, received["variation"])
	assert.Contains(t, received, "days")
	assert.Contains(t, received, "lab_rooms")
	assert.Equal(t, []model.ScheduleEntry{{Section: "CS - A", Day: "Monday", Slot: "9:00-9:55", Subject: "DBMS", Teacher: "Dr.X"}}, result.Entries)
	assert.Equal(t, 1, result.Unfulfilled["CS - A"]["OS"])
	assert.Equal(t, 1, result.Statistics.TotalSlotsUsed)
	assert.Len(t, result.Warnings, 1)
}

func TestFailuresShareOneShape(t *testing.T) {
	scenarios := map[string]struct {
		status  int
		body    string
		message string
	}{
		"server error":       {status: http.StatusInternalServerError, body: `{"error": "Internal server error: boom"}`, message: "Internal server error: boom"},
		"error in 200":       {status: http.StatusOK, body: `{"error": "No input data"}`, message: "No input data"},
		"plain text failure": {status: http.StatusBadGateway, body: "bad gateway", message: "bad gateway"},
		"validation failure": {status: http.StatusBadRequest, body: `{"error": "Invalid input data", "validation_errors": ["days must contain at least 1 item(s)"]}`, message: "Invalid input data: days must contain at least 1 item(s)"},
	}

	for name, scenario := range scenarios {
		t.Run(name, func(t *testing.T) {
			solver := newTestSolver(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(scenario.status)
				_, _ = w.Write([]byte(scenario.body))
			})

			_, err := solver.Generate(context.Background(), GenerateRequest{Config: model.DefaultConfig()})

			var failure *Failure
			require.True(t, errors.As(err, &failure))
			assert.ErrorIs(t, err, ErrSolverFailure)
			assert.Equal(t, scenario.status, failure.Status)
			assert.Equal(t, scenario.message, failure.Message)
			assert.Equal(t, "generate", failure.Op)
		})
	}
}

func TestTransportErrorIsFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	solver := NewHTTPSolver(server.URL, time.Second, nil)

	_, err := solver.ResetAssignment(context.Background(), ResetRequest{Config: model.DefaultConfig()})

	assert.ErrorIs(t, err, ErrSolverFailure)
}

func TestResetAssignmentPayload(t *testing.T) {
	//** Arrange
	var received ResetPayload
	solver := newTestSolver(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ResetPath, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(ResetResponse{Timetable: []model.ScheduleEntry{{Section: "CS - A", Day: "Monday", Slot: "9:55-10:50", Subject: "DBMS", Teacher: "Dr.X"}}})
	})
	entries := []model.ScheduleEntry{{Section: "CS - A", Day: "Monday", Slot: "9:00-9:55", Subject: "DBMS", Teacher: "Dr.X"}}

	//** Act
	replaced, err := solver.ResetAssignment(context.Background(), ResetRequest{
		Config:  model.DefaultConfig(),
		Entries: entries,
		Teacher: "Dr.X",
		Day:     "Monday",
		Slot:    "9:00-9:55",
	})

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, "Dr.X", received.Teacher)
	assert.Equal(t, "9:00-9:55", received.Slot)
	assert.Equal(t, entries, received.Timetable)
	assert.Equal(t, model.DefaultDays(), received.InputData.Days)
	assert.Equal(t, "9:55-10:50", replaced[0].Slot)
}

func TestResetAssignmentWithoutTimetableFails(t *testing.T) {
	solver := newTestSolver(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := solver.ResetAssignment(context.Background(), ResetRequest{Config: model.DefaultConfig()})

	assert.ErrorIs(t, err, ErrSolverFailure)
}

func TestValidate(t *testing.T) {
	//** Arrange
	var received map[string]any
	solver := newTestSolver(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ValidatePath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"valid": false, "errors": ["No classes defined"], "warnings": []}`))
	})

	//** Act
	report, err := solver.Validate(context.Background(), model.DefaultConfig())

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, ValidationReport{Valid: false, Errors: []string{"No classes defined"}, Warnings: []string{}}, report)
	assert.Contains(t, received, "classes")
	assert.NotContains(t, received, "variation")
}

func TestValidateFailure(t *testing.T) {
	solver := newTestSolver(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "request body must be a json object"}`))
	})

	_, err := solver.Validate(context.Background(), model.DefaultConfig())

	assert.ErrorIs(t, err, ErrSolverFailure)
}

func TestReport(t *testing.T) {
	config := model.DefaultConfig()

	report := Report(config)

	assert.False(t, report.Valid)
	assert.NotEmpty(t, report.Errors)
	assert.Equal(t, model.Warnings(config), report.Warnings)
}

func TestHealth(t *testing.T) {
	solver := newTestSolver(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"status": "healthy", "version": "2.0"}`))
	})

	report, err := solver.Health(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "healthy", report.Status)
}
