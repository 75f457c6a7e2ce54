package inventory

import "context"

type Repository interface {
	Create(ctx context.Context, it Item) error
	GetByID(ctx context.Context, id string) (Item, error)
	ListSources(ctx context.Context, householdID string, filter SourceFilter) ([]Item, error)
	// Adjust suma delta a UnitsRemaining (reposición o corrección manual).
	// No cubre el consumo por administración: ese descuento viaja en la
	// transacción del registro, no por acá.
	Adjust(ctx context.Context, id string, delta int) (Item, error)
}

type SourceFilter struct {
	MedicationID   string
	IncludeExpired bool
	AnimalID       string // opcional: incluye ítems sin asignar + asignados a ese animal
}
