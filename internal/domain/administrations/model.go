package administrations

import "time"

// Administration registra que una dosis se dio (o se marcó explícitamente
// como omitida o PRN). Se crea una sola vez; correcciones y borrados son
// operaciones aparte, auditadas, nunca sobreescrituras silenciosas.
type Administration struct {
	ID          string
	HouseholdID string
	RegimenID   string
	AnimalID    string
	CaregiverID string

	// ScheduledFor es el horario al que corresponde la dosis; nil para PRN.
	ScheduledFor *time.Time
	RecordedAt   time.Time

	Status Status

	// SourceInventoryItemID apunta al ítem descontado en la misma
	// transacción; vacío si no se consumió inventario.
	SourceInventoryItemID string

	// IdempotencyKey es única globalmente: a lo sumo existe una
	// administración por clave, para siempre, incluso entre reintentos y
	// replays offline.
	IdempotencyKey string

	Notes         string
	Site          string
	ConditionTags []string
	MediaURLs     []string

	// PendingCoSign marca que la dosis quedó registrada pero espera la
	// segunda firma.
	PendingCoSign bool
}
