package offline

import (
	"context"
	"errors"
	"sync/atomic"

	"pet-med-tracker/internal/platform/logger"
)

// transientError marca fallas recuperables (red caída, servidor inaccesible).
// El replayer corta ante un transitorio y deja la entrada al frente para el
// próximo intento; todo lo demás es permanente y descarta la entrada.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient envuelve err para que el replayer lo trate como recuperable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

// Executor ejecuta una entrada contra el backend real.
type Executor interface {
	Execute(ctx context.Context, e Entry) error
}

// Failure es una entrada descartada durante un replay: la operación fue
// rechazada de forma definitiva y necesita intervención del cuidador.
type Failure struct {
	Entry  Entry
	Reason string
}

// Report resume un pase de sincronización.
type Report struct {
	Synced    int
	Failed    []Failure
	Remaining int
}

// Replayer drena la cola offline en orden FIFO. Un error transitorio detiene
// el pase con la entrada al frente intacta; un rechazo permanente descarta
// esa entrada, la reporta y continúa con la siguiente. Gracias a las claves
// de idempotencia, repetir un pase después de una sincronización parcial
// reenvía solo lo pendiente: lo ya aplicado vuelve como replay, no duplica.
type Replayer struct {
	queue Queue
	exec  Executor
	log   logger.Logger

	running atomic.Bool
}

var ErrReplayInProgress = errors.New("replay already in progress")

func NewReplayer(queue Queue, exec Executor, log logger.Logger) *Replayer {
	return &Replayer{queue: queue, exec: exec, log: log}
}

func (r *Replayer) Replay(ctx context.Context) (Report, error) {
	// Un solo pase a la vez: dos replays concurrentes pelearían por el
	// frente de la cola.
	if !r.running.CompareAndSwap(false, true) {
		return Report{}, ErrReplayInProgress
	}
	defer r.running.Store(false)

	var rep Report
	for {
		if err := ctx.Err(); err != nil {
			break
		}

		e, err := r.queue.Peek(ctx)
		if errors.Is(err, ErrEmpty) {
			break
		}
		if err != nil {
			return rep, err
		}

		err = r.exec.Execute(ctx, e)
		switch {
		case err == nil:
			if err := r.queue.Dequeue(ctx, e.ID); err != nil {
				return rep, err
			}
			rep.Synced++

		case IsTransient(err):
			// La entrada queda al frente; solo se anota el intento.
			e.Attempts++
			e.LastError = err.Error()
			if uerr := r.queue.Update(ctx, e); uerr != nil {
				return rep, uerr
			}
			if r.log != nil {
				r.log.Warn("replay detenido por error transitorio", map[string]any{
					"entry_id": e.ID,
					"attempts": e.Attempts,
					"error":    err.Error(),
				})
			}
			rep.Remaining, _ = r.queue.Len(ctx)
			return rep, nil

		default:
			if derr := r.queue.Dequeue(ctx, e.ID); derr != nil {
				return rep, derr
			}
			rep.Failed = append(rep.Failed, Failure{Entry: e, Reason: err.Error()})
			if r.log != nil {
				r.log.Error("entrada offline rechazada", map[string]any{
					"entry_id":        e.ID,
					"idempotency_key": e.IdempotencyKey,
					"error":           err.Error(),
				})
			}
		}
	}

	rep.Remaining, _ = r.queue.Len(ctx)
	return rep, nil
}
