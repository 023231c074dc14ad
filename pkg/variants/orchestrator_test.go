package variants

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/limaJavier/timetabling-planner/pkg/model"
	"github.com/limaJavier/timetabling-planner/pkg/solver"
	"github.com/limaJavier/timetabling-planner/pkg/store"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entriesFor(variation int64) []model.ScheduleEntry {
	return []model.ScheduleEntry{
		{Section: "CS - A", Day: "Monday", Slot: "9:00-9:55", Subject: fmt.Sprintf("Math %d", variation), Teacher: "Dr.X", Room: "R1"},
	}
}

func TestGenerateNamesVariantsInSubmissionOrder(t *testing.T) {
	//** Arrange
	// Every request waits for the next one to finish, so completion order is the reverse of submission order
	const count = 3
	finished := lo.Times(count+1, func(_ int) chan struct{} { return make(chan struct{}) })
	close(finished[count])

	var mu sync.Mutex
	completion := make([]int64, 0, count)
	fake := &fakeSolver{generate: func(_ context.Context, request solver.GenerateRequest) (solver.GenerateResult, error) {
		<-finished[request.Variation+1]
		mu.Lock()
		completion = append(completion, request.Variation)
		mu.Unlock()
		close(finished[request.Variation])
		return solver.GenerateResult{Entries: entriesFor(request.Variation)}, nil
	}}

	variantStore := NewStore(store.NewMemory(), nil)
	orchestrator := NewOrchestrator(fake, variantStore, Options{Concurrency: count, Now: func() time.Time { return fixedNow }, NewID: sequentialIDs()})

	//** Act
	batch, err := orchestrator.Generate(context.Background(), completeSnapshot(), count)

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1, 0}, completion)
	assert.Empty(t, batch.Errors)
	require.Len(t, batch.Variants, count)
	for i, variant := range batch.Variants {
		assert.Equal(t, fmt.Sprintf("Version %d", i+1), variant.Name)
		assert.Equal(t, fmt.Sprintf("id-%d", i+1), variant.ID)
		assert.Equal(t, entriesFor(int64(i)), variant.Entries)
		assert.Equal(t, fixedNow, variant.GeneratedAt)
		assert.Equal(t, uint64(4), variant.ConfigVersion)
		assert.NotNil(t, variant.Unfulfilled)
	}
	assert.Equal(t, batch.Variants, variantStore.List())
	selected, ok := variantStore.Selected()
	require.True(t, ok)
	assert.Equal(t, "Version 1", selected.Name)
}

func TestGenerateIsolatesFailedRequests(t *testing.T) {
	//** Arrange
	fake := &fakeSolver{generate: func(_ context.Context, request solver.GenerateRequest) (solver.GenerateResult, error) {
		if request.Variation == 1 {
			return solver.GenerateResult{}, &solver.Failure{Op: "generate", Status: 500, Message: "boom"}
		}
		return solver.GenerateResult{Entries: entriesFor(request.Variation)}, nil
	}}
	variantStore := NewStore(store.NewMemory(), nil)
	orchestrator := NewOrchestrator(fake, variantStore, Options{})

	//** Act
	batch, err := orchestrator.Generate(context.Background(), completeSnapshot(), 3)

	//** Assert
	require.NoError(t, err)
	require.Len(t, batch.Variants, 2)
	assert.Equal(t, "Version 1", batch.Variants[0].Name)
	assert.Equal(t, "Version 3", batch.Variants[1].Name)
	assert.Equal(t, entriesFor(2), batch.Variants[1].Entries)
	assert.NotEqual(t, batch.Variants[0].ID, batch.Variants[1].ID)

	require.Len(t, batch.Errors, 1)
	assert.Equal(t, 1, batch.Errors[0].Index)
	assert.Equal(t, "Version 2", batch.Errors[0].Name)
	assert.ErrorIs(t, batch.Errors[0], solver.ErrSolverFailure)

	assert.Len(t, variantStore.List(), 2)
	assert.ElementsMatch(t, []int64{0, 1, 2}, fake.variations)
}

func TestGenerateFailsWhenNoVariantIsProduced(t *testing.T) {
	//** Arrange
	fake := &fakeSolver{generate: func(_ context.Context, request solver.GenerateRequest) (solver.GenerateResult, error) {
		if request.Variation == 0 {
			return solver.GenerateResult{Entries: entriesFor(0)}, nil
		}
		return solver.GenerateResult{}, &solver.Failure{Op: "generate", Message: "unreachable"}
	}}
	variantStore := NewStore(store.NewMemory(), nil)
	orchestrator := NewOrchestrator(fake, variantStore, Options{})
	_, err := orchestrator.Generate(context.Background(), completeSnapshot(), 1)
	require.NoError(t, err)
	previous := variantStore.List()

	//** Act
	orchestrator.options.Seed = 10
	batch, err := orchestrator.Generate(context.Background(), completeSnapshot(), 2)

	//** Assert
	var failed *GenerationFailedError
	require.ErrorAs(t, err, &failed)
	assert.Len(t, failed.Errors, 2)
	assert.ErrorIs(t, err, solver.ErrSolverFailure)
	assert.Empty(t, batch.Variants)
	assert.Equal(t, previous, variantStore.List())
}

func TestGenerateSendsSeededVariations(t *testing.T) {
	fake := &fakeSolver{generate: func(_ context.Context, request solver.GenerateRequest) (solver.GenerateResult, error) {
		entries := entriesFor(request.Variation)
		entries[0].Moved, entries[0].MovedFrom = true, "3:50-4:45"
		return solver.GenerateResult{Entries: entries}, nil
	}}
	orchestrator := NewOrchestrator(fake, NewStore(nil, nil), Options{Seed: 100, Concurrency: 1})

	batch, err := orchestrator.Generate(context.Background(), completeSnapshot(), 3)

	require.NoError(t, err)
	assert.Equal(t, []int64{100, 101, 102}, fake.variations)
	for _, variant := range batch.Variants {
		assert.False(t, variant.Entries[0].Moved)
		assert.Empty(t, variant.Entries[0].MovedFrom)
	}
}

func TestGenerateRejectsBeforeCallingSolver(t *testing.T) {
	scenarios := []struct {
		name     string
		snapshot model.Snapshot
		count    int
		expected error
	}{
		{name: "zero count", snapshot: completeSnapshot(), count: 0, expected: ErrInvalidCount},
		{name: "negative count", snapshot: completeSnapshot(), count: -2, expected: ErrInvalidCount},
		{name: "incomplete config", snapshot: model.Snapshot{Config: model.DefaultConfig()}, count: 2, expected: model.ErrConfigurationIncomplete},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			fake := &fakeSolver{generate: func(context.Context, solver.GenerateRequest) (solver.GenerateResult, error) {
				return solver.GenerateResult{}, nil
			}}
			orchestrator := NewOrchestrator(fake, NewStore(nil, nil), Options{})

			_, err := orchestrator.Generate(context.Background(), scenario.snapshot, scenario.count)

			assert.ErrorIs(t, err, scenario.expected)
			assert.Zero(t, fake.calls())
		})
	}
}

func TestGenerateRejectsConcurrentBatch(t *testing.T) {
	//** Arrange
	started, release := make(chan struct{}), make(chan struct{})
	fake := &fakeSolver{generate: func(_ context.Context, request solver.GenerateRequest) (solver.GenerateResult, error) {
		close(started)
		<-release
		return solver.GenerateResult{Entries: entriesFor(request.Variation)}, nil
	}}
	orchestrator := NewOrchestrator(fake, NewStore(nil, nil), Options{})

	done := make(chan error, 1)
	go func() {
		_, err := orchestrator.Generate(context.Background(), completeSnapshot(), 1)
		done <- err
	}()
	<-started

	//** Act
	_, err := orchestrator.Generate(context.Background(), completeSnapshot(), 1)

	//** Assert
	assert.ErrorIs(t, err, ErrGenerationInProgress)
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, fake.calls())

	// The guard is released once the batch completes
	fake.generate = func(_ context.Context, request solver.GenerateRequest) (solver.GenerateResult, error) {
		return solver.GenerateResult{Entries: entriesFor(request.Variation)}, nil
	}
	_, err = orchestrator.Generate(context.Background(), completeSnapshot(), 1)
	assert.NoError(t, err)
}

func TestGenerationFailedErrorMessage(t *testing.T) {
	err := &GenerationFailedError{Errors: []*VariantError{
		{Index: 0, Name: "Version 1", Err: errors.New("timeout")},
		{Index: 1, Name: "Version 2", Err: errors.New("refused")},
	}}

	assert.Equal(t, "no variant could be generated: Version 1: timeout; Version 2: refused", err.Error())
}
