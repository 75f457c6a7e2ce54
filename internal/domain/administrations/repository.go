package administrations

import (
	"context"
	"time"

	"pet-med-tracker/internal/domain/cosign"
)

// SideEffects son las escrituras que deben viajar en la MISMA transacción
// que el insert de la administración: el descuento de inventario y la
// solicitud de co-firma. O se confirma todo o no se confirma nada.
type SideEffects struct {
	// InventoryItemID descuenta una unidad de ese ítem; vacío = sin consumo.
	InventoryItemID string
	// CoSign crea la solicitud PENDING; nil = no requiere co-firma.
	CoSign *cosign.Request
}

type Repository interface {
	// Record es un insert-if-absent sobre la clave de idempotencia: si la
	// clave ya existe devuelve la fila ganadora con created=false y no toca
	// nada más. Envíos concurrentes con la misma clave se serializan por la
	// restricción de unicidad; el perdedor observa la fila del ganador.
	Record(ctx context.Context, a Administration, side SideEffects) (Administration, bool, error)

	GetByID(ctx context.Context, id string) (Administration, error)
	GetByKey(ctx context.Context, key string) (Administration, error)
	ListByRegimen(ctx context.Context, regimenID string, limit int) ([]Administration, error)
	// LastGivenAt devuelve el RecordedAt más reciente de dosis efectivamente
	// dadas (excluye MISSED); nil si no hay historial.
	LastGivenAt(ctx context.Context, regimenID string) (*time.Time, error)
}
