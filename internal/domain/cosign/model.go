package cosign

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
)

// Window es cuánto tiempo queda abierta una solicitud de co-firma.
const Window = 10 * time.Minute

// Request rastrea la segunda aprobación de una administración de alto
// riesgo. Nace PENDING dentro de la misma transacción que la administración
// y solo transiciona PENDING→COMPLETED o PENDING→EXPIRED; jamás se reabre.
type Request struct {
	AdministrationID string
	HouseholdID      string

	// RecordedBy es quien registró la dosis; no puede co-firmarse a sí mismo.
	RecordedBy string

	RequiredAt time.Time
	ExpiresAt  time.Time // RequiredAt + Window

	CoSignerID  string // vacío hasta completarse
	Status      Status
	CompletedAt *time.Time
}

// ExpiredBy indica si la ventana ya venció a la hora dada. El vencimiento
// se evalúa perezosamente al leer o actuar; no hay timer de fondo.
func (r Request) ExpiredBy(now time.Time) bool {
	return r.Status == StatusPending && now.After(r.ExpiresAt)
}
