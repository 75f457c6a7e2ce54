package inventory

import "time"

// Item es una unidad física de suministro de un medicamento (frasco, blíster).
type Item struct {
	ID           string
	HouseholdID  string
	MedicationID string

	Lot       string
	ExpiresOn *time.Time

	// UnitsRemaining nunca baja de cero y solo se descuenta dentro de la
	// misma transacción que la administración que lo consume.
	UnitsRemaining int
	QuantityTotal  int

	// AssignedAnimalID opcional: el frasco reservado para un animal.
	AssignedAnimalID string
	InUse            bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired indica si el ítem venció a la fecha dada.
func (it Item) Expired(now time.Time) bool {
	return it.ExpiresOn != nil && now.After(*it.ExpiresOn)
}
