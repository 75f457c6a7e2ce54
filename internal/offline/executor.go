package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pet-med-tracker/internal/domain/administrations"
)

// RecordPayload es lo que un cliente encola cuando registra una dosis sin
// red. administered_at es la hora del tap original: al sincronizar, el
// estado (a tiempo / tarde) se calcula contra esa hora, no contra la del
// reintento.
type RecordPayload struct {
	AnimalID          string    `json:"animal_id"`
	RegimenID         string    `json:"regimen_id"`
	CaregiverID       string    `json:"caregiver_id"`
	AdministeredAt    time.Time `json:"administered_at"`
	InventorySourceID string    `json:"inventory_source_id,omitempty"`
	AllowOverride     bool      `json:"allow_override,omitempty"`
	MarkMissed        bool      `json:"mark_missed,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	Site              string    `json:"site,omitempty"`
	ConditionTags     []string  `json:"condition_tags,omitempty"`
	MediaURLs         []string  `json:"media_urls,omitempty"`
}

// Recorder es el subconjunto del service de administraciones que el
// ejecutor necesita.
type Recorder interface {
	Record(ctx context.Context, householdID string, in administrations.RecordInput) (administrations.RecordResult, error)
}

// RecorderExecutor aplica entradas record_administration contra el
// registrador. Los rechazos de negocio (clave inválida, régimen inexistente,
// conflicto de inventario) son permanentes; cualquier otra falla se asume
// transitoria y frena el pase.
type RecorderExecutor struct {
	recorder Recorder
}

func NewRecorderExecutor(recorder Recorder) *RecorderExecutor {
	return &RecorderExecutor{recorder: recorder}
}

func (x *RecorderExecutor) Execute(ctx context.Context, e Entry) error {
	if e.Kind != KindRecordAdministration {
		return fmt.Errorf("%w: kind %q", ErrInvalidEntry, e.Kind)
	}

	var p RecordPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	_, err := x.recorder.Record(ctx, e.HouseholdID, administrations.RecordInput{
		AnimalID:          p.AnimalID,
		RegimenID:         p.RegimenID,
		CaregiverID:       p.CaregiverID,
		AdministeredAt:    p.AdministeredAt,
		IdempotencyKey:    e.IdempotencyKey,
		InventorySourceID: p.InventorySourceID,
		AllowOverride:     p.AllowOverride,
		MarkMissed:        p.MarkMissed,
		Notes:             p.Notes,
		Site:              p.Site,
		ConditionTags:     p.ConditionTags,
		MediaURLs:         p.MediaURLs,
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, administrations.ErrInvalidInput) ||
		errors.Is(err, administrations.ErrNotFound) ||
		errors.Is(err, administrations.ErrInventoryConflict) {
		return err
	}
	return Transient(err)
}
