package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/limaJavier/timetabling-planner/internal/logger"
	"github.com/limaJavier/timetabling-planner/pkg/model"
)

const maxResponseBytes = 32 << 20

// HTTPSolver reaches a solver service over JSON/HTTP. It never retries.
type HTTPSolver struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger
}

func NewHTTPSolver(baseURL string, timeout time.Duration, log *logger.Logger) *HTTPSolver {
	return &HTTPSolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     logger.OrNop(log).With("service", "HTTPSolver"),
	}
}

func (solver *HTTPSolver) Generate(ctx context.Context, request GenerateRequest) (GenerateResult, error) {
	var response GenerateResponse
	payload := GeneratePayload{Config: request.Config, Variation: request.Variation}
	if err := solver.post(ctx, "generate", GeneratePath, payload, &response); err != nil {
		return GenerateResult{}, err
	}

	return GenerateResult{
		Entries:     response.Timetable,
		Statistics:  response.Statistics,
		Unfulfilled: response.Unfulfilled,
		Suggestions: response.Suggestions,
		Warnings:    response.ValidationWarnings,
	}, nil
}

func (solver *HTTPSolver) ResetAssignment(ctx context.Context, request ResetRequest) ([]model.ScheduleEntry, error) {
	var response ResetResponse
	payload := ResetPayload{
		Teacher:   request.Teacher,
		Day:       request.Day,
		Slot:      request.Slot,
		InputData: request.Config,
		Timetable: request.Entries,
	}
	if err := solver.post(ctx, "reset", ResetPath, payload, &response); err != nil {
		return nil, err
	}
	if response.Timetable == nil {
		return nil, &Failure{Op: "reset", Message: "response carries no timetable"}
	}
	return response.Timetable, nil
}

// Validate asks the service which problems and warnings it sees in config
func (solver *HTTPSolver) Validate(ctx context.Context, config model.Config) (ValidationReport, error) {
	var report ValidationReport
	err := solver.post(ctx, "validate", ValidatePath, config, &report)
	return report, err
}

func (solver *HTTPSolver) Health(ctx context.Context) (HealthReport, error) {
	var report HealthReport
	err := solver.do(ctx, "health", http.MethodGet, HealthPath, nil, &report)
	return report, err
}

func (solver *HTTPSolver) post(ctx context.Context, op, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &Failure{Op: op, Err: fmt.Errorf("cannot encode request: %w", err)}
	}
	return solver.do(ctx, op, http.MethodPost, path, body, out)
}

// do performs one round trip. Both a non-2xx status and an "error" field in a 2xx body are failures.
func (solver *HTTPSolver) do(ctx context.Context, op, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	request, err := http.NewRequestWithContext(ctx, method, solver.baseURL+path, reader)
	if err != nil {
		return &Failure{Op: op, Err: err}
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	response, err := solver.client.Do(request)
	if err != nil {
		solver.log.Warn("solver request failed", "op", op, "error", err)
		return &Failure{Op: op, Err: err}
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return &Failure{Op: op, Status: response.StatusCode, Err: fmt.Errorf("cannot read response: %w", err)}
	}
	solver.log.Debug("solver responded", "op", op, "status", response.StatusCode, "elapsed", time.Since(start))

	var failure ErrorResponse
	_ = json.Unmarshal(raw, &failure)

	if response.StatusCode < 200 || response.StatusCode > 299 {
		message := failure.Error
		if message == "" {
			message = strings.TrimSpace(string(raw))
		}
		if len(failure.ValidationErrors) > 0 {
			message = fmt.Sprintf("%v: %v", message, strings.Join(failure.ValidationErrors, "; "))
		}
		return &Failure{Op: op, Status: response.StatusCode, Message: message}
	} else if failure.Error != "" {
		return &Failure{Op: op, Status: response.StatusCode, Message: failure.Error}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &Failure{Op: op, Status: response.StatusCode, Err: fmt.Errorf("cannot decode response: %w", err)}
	}
	return nil
}
