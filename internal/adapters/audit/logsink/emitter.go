package logsink

import (
	"context"

	"pet-med-tracker/internal/platform/logger"
	"pet-med-tracker/internal/ports/audit"
)

// Emitter escribe los eventos de auditoría por el logger estructurado.
// Con LOG_FORMAT=json cada evento sale como una línea JSON lista para que
// un colector externo la indexe.
type Emitter struct {
	log logger.Logger
}

func New(log logger.Logger) *Emitter {
	return &Emitter{log: log.With(map[string]any{"component": "audit"})}
}

func (e *Emitter) Emit(_ context.Context, ev audit.Event) {
	fields := map[string]any{
		"event_type":   ev.Type,
		"event_at":     ev.At,
		"household_id": ev.HouseholdID,
		"actor_id":     ev.ActorID,
	}
	for k, v := range ev.Fields {
		fields[k] = v
	}
	e.log.Info("audit", fields)
}
