package memory

import (
	"context"
	"sync"

	"pet-med-tracker/internal/domain/cosign"
)

// CoSignRepo se exporta como tipo concreto: el repo de administraciones
// crea la solicitud PENDING dentro de su propia sección crítica.
type CoSignRepo struct {
	mu               sync.RWMutex
	byAdministration map[string]cosign.Request
}

func NewCoSignRepo() *CoSignRepo {
	return &CoSignRepo{
		byAdministration: make(map[string]cosign.Request),
	}
}

func (r *CoSignRepo) GetByAdministration(ctx context.Context, administrationID string) (cosign.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.byAdministration[administrationID]
	if !ok {
		return cosign.Request{}, ErrNotFound
	}
	return req, nil
}

func (r *CoSignRepo) Update(ctx context.Context, req cosign.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byAdministration[req.AdministrationID]; !ok {
		return ErrNotFound
	}
	r.byAdministration[req.AdministrationID] = req
	return nil
}

// Put inserta la solicitud recién creada. Lo invoca el repo de
// administraciones como parte del registro atómico.
func (r *CoSignRepo) Put(ctx context.Context, req cosign.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byAdministration[req.AdministrationID] = req
}
