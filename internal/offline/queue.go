package offline

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrEmpty        = errors.New("queue empty")
	ErrInvalidEntry = errors.New("invalid entry")
)

// Kind identifica qué operación quedó encolada mientras no había red.
type Kind string

const (
	KindRecordAdministration Kind = "record_administration"
)

// Entry es una operación pendiente de sincronizar. La clave de idempotencia
// viaja con el payload: se generó al encolar, no al reenviar, así un replay
// interrumpido a mitad de cola nunca duplica lo que ya llegó al servidor.
type Entry struct {
	ID             string          `json:"id"`
	Kind           Kind            `json:"kind"`
	HouseholdID    string          `json:"household_id"`
	IdempotencyKey string          `json:"idempotency_key"`
	Payload        json.RawMessage `json:"payload"`
	EnqueuedAt     time.Time       `json:"enqueued_at"`
	Attempts       int             `json:"attempts"`
	LastError      string          `json:"last_error,omitempty"`
}

// Queue es la cola persistente de operaciones offline. Es estrictamente
// FIFO: Peek devuelve la entrada más vieja sin sacarla y Dequeue la retira
// recién cuando el ejecutor confirmó (o descartó) la operación.
type Queue interface {
	Enqueue(ctx context.Context, e Entry) error
	Peek(ctx context.Context) (Entry, error)
	Dequeue(ctx context.Context, id string) error
	Update(ctx context.Context, e Entry) error
	Len(ctx context.Context) (int, error)
}
