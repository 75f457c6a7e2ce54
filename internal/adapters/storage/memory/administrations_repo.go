package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"pet-med-tracker/internal/domain/administrations"
)

// administrationsRepo emula la transacción del adapter de Postgres: el lock
// del repo serializa los envíos concurrentes con la misma clave, y el
// descuento de inventario y el alta de co-firma se aplican antes de liberar
// la sección crítica. El orden (descuento primero, insert después) hace que
// un descuento fallido no deje administración huérfana.
type administrationsRepo struct {
	mu    sync.Mutex
	byID  map[string]administrations.Administration
	byKey map[string]administrations.Administration

	inv    *InventoryRepo
	cosign *CoSignRepo
}

func NewAdministrationsRepo(inv *InventoryRepo, cs *CoSignRepo) administrations.Repository {
	return &administrationsRepo{
		byID:   make(map[string]administrations.Administration),
		byKey:  make(map[string]administrations.Administration),
		inv:    inv,
		cosign: cs,
	}
}

func (r *administrationsRepo) Record(ctx context.Context, a administrations.Administration, side administrations.SideEffects) (administrations.Administration, bool, error) {
	if a.ID == "" || a.IdempotencyKey == "" {
		return administrations.Administration{}, false, errors.New("administration id and key required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Insert-if-absent: el perdedor de la carrera observa la fila ganadora.
	if existing, ok := r.byKey[a.IdempotencyKey]; ok {
		return existing, false, nil
	}

	if side.InventoryItemID != "" {
		if _, err := r.inv.Adjust(ctx, side.InventoryItemID, -1); err != nil {
			return administrations.Administration{}, false, err
		}
	}

	r.byID[a.ID] = a
	r.byKey[a.IdempotencyKey] = a

	if side.CoSign != nil {
		r.cosign.Put(ctx, *side.CoSign)
	}

	return a, true, nil
}

func (r *administrationsRepo) GetByID(ctx context.Context, id string) (administrations.Administration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return administrations.Administration{}, ErrNotFound
	}
	return a, nil
}

func (r *administrationsRepo) GetByKey(ctx context.Context, key string) (administrations.Administration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byKey[key]
	if !ok {
		return administrations.Administration{}, ErrNotFound
	}
	return a, nil
}

func (r *administrationsRepo) ListByRegimen(ctx context.Context, regimenID string, limit int) ([]administrations.Administration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]administrations.Administration, 0)
	for _, a := range r.byID {
		if a.RegimenID == regimenID {
			out = append(out, a)
		}
	}

	// Más reciente primero.
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *administrationsRepo) LastGivenAt(ctx context.Context, regimenID string) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var last *time.Time
	for _, a := range r.byID {
		if a.RegimenID != regimenID {
			continue
		}
		// MISSED no ancla el próximo intervalo: la dosis no se dio.
		if a.Status == administrations.StatusMissed {
			continue
		}
		t := a.RecordedAt
		if last == nil || t.After(*last) {
			last = &t
		}
	}
	return last, nil
}
