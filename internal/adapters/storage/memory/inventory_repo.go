package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"pet-med-tracker/internal/domain/inventory"
)

// InventoryRepo se exporta como tipo concreto porque el repo de
// administraciones necesita compartir su store para descontar unidades
// dentro del mismo "commit" (acá, el mismo lock).
type InventoryRepo struct {
	mu   sync.RWMutex
	byID map[string]inventory.Item
	now  func() time.Time
}

func NewInventoryRepo() *InventoryRepo {
	return &InventoryRepo{
		byID: make(map[string]inventory.Item),
		now:  time.Now,
	}
}

func (r *InventoryRepo) Create(ctx context.Context, it inventory.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if it.ID == "" {
		return errors.New("item id required")
	}
	if _, exists := r.byID[it.ID]; exists {
		return errors.New("item already exists")
	}

	r.byID[it.ID] = it
	return nil
}

func (r *InventoryRepo) GetByID(ctx context.Context, id string) (inventory.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.byID[id]
	if !ok {
		return inventory.Item{}, ErrNotFound
	}
	return it, nil
}

func (r *InventoryRepo) ListSources(ctx context.Context, householdID string, filter inventory.SourceFilter) ([]inventory.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := r.now()
	out := make([]inventory.Item, 0)
	for _, it := range r.byID {
		if it.HouseholdID != householdID {
			continue
		}
		if filter.MedicationID != "" && it.MedicationID != filter.MedicationID {
			continue
		}
		if !filter.IncludeExpired && it.Expired(now) {
			continue
		}
		if filter.AnimalID != "" && it.AssignedAnimalID != "" && it.AssignedAnimalID != filter.AnimalID {
			continue
		}
		out = append(out, it)
	}

	// Primero lo que vence antes (los sin vencimiento al final).
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ExpiresOn, out[j].ExpiresOn
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return out, nil
}

func (r *InventoryRepo) Adjust(ctx context.Context, id string, delta int) (inventory.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.adjustLocked(id, delta)
}

// adjustLocked asume el lock tomado; lo usa también el repo de
// administraciones dentro de su sección crítica.
func (r *InventoryRepo) adjustLocked(id string, delta int) (inventory.Item, error) {
	it, ok := r.byID[id]
	if !ok {
		return inventory.Item{}, ErrNotFound
	}
	if it.UnitsRemaining+delta < 0 {
		return inventory.Item{}, inventory.ErrDepleted
	}
	it.UnitsRemaining += delta
	it.UpdatedAt = r.now()
	r.byID[id] = it
	return it, nil
}
