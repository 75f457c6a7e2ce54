package audit

import (
	"context"
	"time"
)

// Event es una transición de estado auditable. El medio de almacenamiento
// es un colaborador externo: este módulo solo define el contrato.
type Event struct {
	Type        string // ej. "administration.recorded", "cosign.completed"
	At          time.Time
	HouseholdID string
	ActorID     string
	Fields      map[string]any
}

// Emitter recibe eventos de auditoría. Es fire-and-forget: los servicios lo
// invocan después de confirmar la transacción y nunca dependen del
// resultado, por eso no devuelve error. Se inyecta explícitamente (nada de
// despacho global) para poder probar cada servicio en aislamiento.
type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// Discard es el emitter nulo, útil como default y en tests.
type Discard struct{}

func (Discard) Emit(context.Context, Event) {}
