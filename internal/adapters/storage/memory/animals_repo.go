package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"pet-med-tracker/internal/domain/animals"
)

var (
	ErrNotFound = errors.New("not found")
)

type animalsRepo struct {
	mu   sync.RWMutex
	byID map[string]animals.Animal
}

func NewAnimalsRepo() animals.Repository {
	return &animalsRepo{
		byID: make(map[string]animals.Animal),
	}
}

func (r *animalsRepo) Create(ctx context.Context, a animals.Animal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == "" {
		return errors.New("animal id required")
	}
	if _, exists := r.byID[a.ID]; exists {
		return errors.New("animal already exists")
	}

	r.byID[a.ID] = a
	return nil
}

func (r *animalsRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return animals.Animal{}, ErrNotFound
	}
	return a, nil
}

func (r *animalsRepo) ListByHousehold(ctx context.Context, householdID string) ([]animals.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]animals.Animal, 0)
	for _, a := range r.byID {
		if a.HouseholdID == householdID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
