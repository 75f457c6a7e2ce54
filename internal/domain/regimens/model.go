package regimens

import "time"

// Regimen representa un plan de dosificación prescrito para un animal.
type Regimen struct {
	ID          string
	HouseholdID string
	AnimalID    string

	MedicationID   string
	MedicationName string
	Dose           string // texto libre: "5mg", "1/2 tableta"

	ScheduleType ScheduleType

	// TimesLocal aplica solo a FIXED/TAPER: horas "HH:MM" en la zona horaria
	// del animal, ordenadas ascendente. El índice dentro del slice es el
	// slotIndex que usa la clave de idempotencia.
	TimesLocal []string

	// IntervalHours aplica solo a INTERVAL (> 0).
	IntervalHours int

	// CutoffMinutes define la ventana de gracia alrededor de cada horario.
	// Pasada la ventana, la dosis queda vencida hasta que se registre.
	CutoffMinutes int

	HighRisk       bool
	RequiresCoSign bool

	// TaperNotes describe el curso decreciente (solo TAPER). La cantidad por
	// día es un asunto de presentación; el cálculo de horarios no cambia.
	TaperNotes string

	Active      bool
	PausedAt    *time.Time
	PauseReason string

	StartDate time.Time
	EndDate   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CurrentlyActive indica si el régimen acepta dosis en la fecha dada:
// activo, sin pausa vigente y dentro de [StartDate, EndDate].
func (r Regimen) CurrentlyActive(now time.Time) bool {
	if !r.Active || r.PausedAt != nil {
		return false
	}
	if now.Before(r.StartDate) {
		return false
	}
	if r.EndDate != nil && now.After(*r.EndDate) {
		return false
	}
	return true
}
