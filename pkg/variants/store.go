package variants

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/limaJavier/timetabling-planner/internal/logger"
	"github.com/limaJavier/timetabling-planner/pkg/model"
	"github.com/limaJavier/timetabling-planner/pkg/store"
)

var ErrVariantNotFound = errors.New("variant not found")

type persistedVariants struct {
	Variants []model.Variant `json:"variants"`
	Selected int             `json:"selected"`
}

// Store holds the current variant list and the selected variant. Every change is written through to the key/value
// store, when one is given, before it becomes visible.
type Store struct {
	mu       sync.RWMutex
	variants []model.Variant
	selected int
	kv       store.KV
	log      *logger.Logger
}

func NewStore(kv store.KV, log *logger.Logger) *Store {
	return &Store{
		variants: []model.Variant{},
		kv:       kv,
		log:      logger.OrNop(log).With("service", "VariantStore"),
	}
}

// Load replaces the in-memory state with the persisted one. A missing key leaves the store empty.
func (variantStore *Store) Load(ctx context.Context) error {
	if variantStore.kv == nil {
		return nil
	}
	payload, err := variantStore.kv.Get(ctx, store.VariantsKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	} else if err != nil {
		return fmt.Errorf("load variants: %w", err)
	}

	var persisted persistedVariants
	if err := json.Unmarshal(payload, &persisted); err != nil {
		return fmt.Errorf("decode variants: %w", err)
	}
	if persisted.Variants == nil {
		persisted.Variants = []model.Variant{}
	}
	if persisted.Selected < 0 || persisted.Selected >= len(persisted.Variants) {
		persisted.Selected = 0
	}

	variantStore.mu.Lock()
	defer variantStore.mu.Unlock()
	variantStore.variants, variantStore.selected = persisted.Variants, persisted.Selected
	return nil
}

// Replace swaps the whole list and selects its first variant
func (variantStore *Store) Replace(ctx context.Context, variants []model.Variant) error {
	variantStore.mu.Lock()
	defer variantStore.mu.Unlock()
	return variantStore.commit(ctx, slices.Clone(variants), 0)
}

// Update replaces the variant sharing variant.ID
func (variantStore *Store) Update(ctx context.Context, variant model.Variant) error {
	variantStore.mu.Lock()
	defer variantStore.mu.Unlock()

	index := variantStore.indexOf(variant.ID)
	if index < 0 {
		return fmt.Errorf("%w: %v", ErrVariantNotFound, variant.ID)
	}
	variants := slices.Clone(variantStore.variants)
	variants[index] = variant
	return variantStore.commit(ctx, variants, variantStore.selected)
}

func (variantStore *Store) Select(ctx context.Context, id string) error {
	variantStore.mu.Lock()
	defer variantStore.mu.Unlock()

	index := variantStore.indexOf(id)
	if index < 0 {
		return fmt.Errorf("%w: %v", ErrVariantNotFound, id)
	}
	return variantStore.commit(ctx, variantStore.variants, index)
}

func (variantStore *Store) Clear(ctx context.Context) error {
	variantStore.mu.Lock()
	defer variantStore.mu.Unlock()

	if variantStore.kv != nil {
		if err := variantStore.kv.Delete(ctx, store.VariantsKey); err != nil {
			return fmt.Errorf("clear variants: %w", err)
		}
	}
	variantStore.variants, variantStore.selected = []model.Variant{}, 0
	return nil
}

func (variantStore *Store) List() []model.Variant {
	variantStore.mu.RLock()
	defer variantStore.mu.RUnlock()
	return slices.Clone(variantStore.variants)
}

func (variantStore *Store) Get(id string) (model.Variant, bool) {
	variantStore.mu.RLock()
	defer variantStore.mu.RUnlock()

	index := variantStore.indexOf(id)
	if index < 0 {
		return model.Variant{}, false
	}
	return variantStore.variants[index], true
}

// Selected returns the selected variant, or false when there are no variants
func (variantStore *Store) Selected() (model.Variant, bool) {
	variantStore.mu.RLock()
	defer variantStore.mu.RUnlock()

	if len(variantStore.variants) == 0 {
		return model.Variant{}, false
	}
	return variantStore.variants[variantStore.selected], true
}

func (variantStore *Store) indexOf(id string) int {
	return slices.IndexFunc(variantStore.variants, func(variant model.Variant) bool { return variant.ID == id })
}

// commit persists the given state and then publishes it; callers hold the write lock
func (variantStore *Store) commit(ctx context.Context, variants []model.Variant, selected int) error {
	if variantStore.kv != nil {
		payload, err := json.Marshal(persistedVariants{Variants: variants, Selected: selected})
		if err != nil {
			return fmt.Errorf("encode variants: %w", err)
		}
		if err := variantStore.kv.Put(ctx, store.VariantsKey, payload); err != nil {
			return fmt.Errorf("persist variants: %w", err)
		}
	}
	variantStore.variants, variantStore.selected = variants, selected
	variantStore.log.Debug("variants committed", "count", len(variants), "selected", selected)
	return nil
}
