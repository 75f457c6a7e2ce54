package cosign

import "context"

// Repository lee y actualiza solicitudes. La creación no pasa por acá: la
// solicitud PENDING nace dentro de la transacción del registro de la
// administración (adapter de administrations), para que ambas escrituras
// sean atómicas.
type Repository interface {
	GetByAdministration(ctx context.Context, administrationID string) (Request, error)
	Update(ctx context.Context, r Request) error
}
