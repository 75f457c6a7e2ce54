package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"pet-med-tracker/internal/domain/regimens"
)

type regimensRepo struct {
	mu   sync.RWMutex
	byID map[string]regimens.Regimen
}

func NewRegimensRepo() regimens.Repository {
	return &regimensRepo{
		byID: make(map[string]regimens.Regimen),
	}
}

func (r *regimensRepo) Create(ctx context.Context, reg regimens.Regimen) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reg.ID == "" {
		return errors.New("regimen id required")
	}
	if _, exists := r.byID[reg.ID]; exists {
		return errors.New("regimen already exists")
	}

	r.byID[reg.ID] = reg
	return nil
}

func (r *regimensRepo) Update(ctx context.Context, reg regimens.Regimen) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[reg.ID]; !ok {
		return ErrNotFound
	}
	r.byID[reg.ID] = reg
	return nil
}

func (r *regimensRepo) GetByID(ctx context.Context, id string) (regimens.Regimen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.byID[id]
	if !ok {
		return regimens.Regimen{}, ErrNotFound
	}
	return reg, nil
}

func (r *regimensRepo) ListByHousehold(ctx context.Context, householdID string, filter regimens.ListFilter) ([]regimens.Regimen, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]regimens.Regimen, 0)
	for _, reg := range r.byID {
		if reg.HouseholdID != householdID {
			continue
		}
		if filter.AnimalID != "" && reg.AnimalID != filter.AnimalID {
			continue
		}
		if !filter.IncludeArchived && !reg.Active {
			continue
		}
		out = append(out, reg)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
