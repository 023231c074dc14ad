package variants

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/limaJavier/timetabling-planner/pkg/model"
	"github.com/limaJavier/timetabling-planner/pkg/solver"
)

type fakeSolver struct {
	generate func(ctx context.Context, request solver.GenerateRequest) (solver.GenerateResult, error)
	reset    func(ctx context.Context, request solver.ResetRequest) ([]model.ScheduleEntry, error)

	mu         sync.Mutex
	variations []int64
	resets     []solver.ResetRequest
}

func (fake *fakeSolver) Generate(ctx context.Context, request solver.GenerateRequest) (solver.GenerateResult, error) {
	fake.mu.Lock()
	fake.variations = append(fake.variations, request.Variation)
	fake.mu.Unlock()
	return fake.generate(ctx, request)
}

func (fake *fakeSolver) ResetAssignment(ctx context.Context, request solver.ResetRequest) ([]model.ScheduleEntry, error) {
	fake.mu.Lock()
	fake.resets = append(fake.resets, request)
	fake.mu.Unlock()
	return fake.reset(ctx, request)
}

func (fake *fakeSolver) calls() int {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return len(fake.variations) + len(fake.resets)
}

var fixedNow = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func completeSnapshot() model.Snapshot {
	config := model.DefaultConfig()
	config.Classes = []model.ClassDefinition{
		{Name: "CS", Subjects: []string{"Math", "Physics"}, Sections: []model.Section{{Name: "A", StudentCount: 30}}},
	}
	config.Teachers = map[string][]string{"Math": {"Dr.X"}, "Physics": {"Dr.Y"}}
	config.LectureRequirements = map[string]int{"Math": 3, "Physics": 3}
	return model.Snapshot{Version: 4, Config: config}
}

// sequentialIDs hands out id-1, id-2, ...
func sequentialIDs() func() string {
	var mu sync.Mutex
	next := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		next++
		return fmt.Sprintf("id-%d", next)
	}
}
