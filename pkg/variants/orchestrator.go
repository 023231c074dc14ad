package variants

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/limaJavier/timetabling-planner/internal/logger"
	"github.com/limaJavier/timetabling-planner/pkg/model"
	"github.com/limaJavier/timetabling-planner/pkg/solver"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidCount         = errors.New("variant count must be at least 1")
	ErrGenerationInProgress = errors.New("a generation is already in progress")
)

// VariantError records why the request at Index produced no variant
type VariantError struct {
	Index int
	Name  string
	Err   error
}

func (err *VariantError) Error() string { return fmt.Sprintf("%v: %v", err.Name, err.Err) }

func (err *VariantError) Unwrap() error { return err.Err }

// GenerationFailedError is returned when not a single request of a batch succeeded
type GenerationFailedError struct {
	Errors []*VariantError
}

func (err *GenerationFailedError) Error() string {
	messages := lo.Map(err.Errors, func(variantErr *VariantError, _ int) string { return variantErr.Error() })
	return fmt.Sprintf("no variant could be generated: %v", strings.Join(messages, "; "))
}

func (err *GenerationFailedError) Unwrap() []error {
	return lo.Map(err.Errors, func(variantErr *VariantError, _ int) error { return variantErr })
}

// Batch is the outcome of one generation: the produced variants in submission order and the requests that failed
type Batch struct {
	Variants []model.Variant
	Errors   []*VariantError
}

type Options struct {
	// Concurrency bounds simultaneous solver requests; zero or less means unbounded
	Concurrency int
	// Seed is the variation tag of the first request of every batch
	Seed  int64
	Now   func() time.Time
	NewID func() string
	Log   *logger.Logger
}

func (options Options) withDefaults() Options {
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.NewID == nil {
		options.NewID = uuid.NewString
	}
	options.Log = logger.OrNop(options.Log)
	return options
}

// VariantName is the display name of the variant produced by the request at index
func VariantName(index int) string {
	return fmt.Sprintf("Version %d", index+1)
}

type Orchestrator struct {
	solver   solver.Solver
	store    *Store
	options  Options
	inFlight atomic.Bool
	log      *logger.Logger
}

func NewOrchestrator(solver solver.Solver, store *Store, options Options) *Orchestrator {
	options = options.withDefaults()
	return &Orchestrator{
		solver:  solver,
		store:   store,
		options: options,
		log:     options.Log.With("service", "VariantOrchestrator"),
	}
}

// Generate issues count independent solver requests for snapshot and stores the variants they produce, replacing
// the previous list. Failed requests are reported in the batch; the call only fails when none succeeded.
func (orchestrator *Orchestrator) Generate(ctx context.Context, snapshot model.Snapshot, count int) (Batch, error) {
	if count < 1 {
		return Batch{}, ErrInvalidCount
	}
	if err := model.Validate(snapshot.Config); err != nil {
		return Batch{}, err
	}
	if !orchestrator.inFlight.CompareAndSwap(false, true) {
		return Batch{}, ErrGenerationInProgress
	}
	defer orchestrator.inFlight.Store(false)

	orchestrator.log.Info("generating variants", "count", count, "configVersion", snapshot.Version)

	//** Fan out, one result slot per request
	results := make([]solver.GenerateResult, count)
	failures := make([]error, count)

	var group errgroup.Group
	if orchestrator.options.Concurrency > 0 {
		group.SetLimit(orchestrator.options.Concurrency)
	}
	for i := range count {
		group.Go(func() error {
			request := solver.GenerateRequest{Config: snapshot.Config, Variation: orchestrator.options.Seed + int64(i)}
			results[i], failures[i] = orchestrator.solver.Generate(ctx, request)
			return nil
		})
	}
	_ = group.Wait()

	//** Assemble by submission index
	batch := Batch{Variants: []model.Variant{}, Errors: []*VariantError{}}
	generatedAt := orchestrator.options.Now()
	for i := range count {
		name := VariantName(i)
		if failures[i] != nil {
			orchestrator.log.Warn("variant failed", "variant", name, "error", failures[i])
			batch.Errors = append(batch.Errors, &VariantError{Index: i, Name: name, Err: failures[i]})
			continue
		}
		batch.Variants = append(batch.Variants, newVariant(orchestrator.options.NewID(), name, results[i], generatedAt, snapshot.Version))
	}

	if len(batch.Variants) == 0 {
		return batch, &GenerationFailedError{Errors: batch.Errors}
	}
	if err := orchestrator.store.Replace(ctx, batch.Variants); err != nil {
		return batch, err
	}

	orchestrator.log.Info("variants generated", "variants", len(batch.Variants), "failed", len(batch.Errors))
	return batch, nil
}

func newVariant(id, name string, result solver.GenerateResult, generatedAt time.Time, configVersion uint64) model.Variant {
	// Moves are only ever reported by repairs
	entries := lo.Map(result.Entries, func(entry model.ScheduleEntry, _ int) model.ScheduleEntry {
		entry.Moved, entry.MovedFrom = false, ""
		return entry
	})
	unfulfilled := result.Unfulfilled
	if unfulfilled == nil {
		unfulfilled = model.Unfulfilled{}
	}

	return model.Variant{
		ID:            id,
		Name:          name,
		Entries:       entries,
		Statistics:    result.Statistics,
		Unfulfilled:   unfulfilled,
		Suggestions:   result.Suggestions,
		Warnings:      result.Warnings,
		GeneratedAt:   generatedAt,
		ConfigVersion: configVersion,
	}
}
