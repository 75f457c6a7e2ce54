package offline

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// -------------------------
// Executor de prueba
// -------------------------

// scriptedExecutor devuelve el resultado configurado por clave de
// idempotencia y anota el orden de ejecución.
type scriptedExecutor struct {
	results map[string]error
	order   []string

	started chan struct{} // si no es nil, se cierra al entrar a Execute
	block   chan struct{} // si no es nil, Execute espera antes de responder
}

func (x *scriptedExecutor) Execute(ctx context.Context, e Entry) error {
	if x.started != nil {
		close(x.started)
		x.started = nil
	}
	if x.block != nil {
		<-x.block
	}
	x.order = append(x.order, e.IdempotencyKey)
	if x.results == nil {
		return nil
	}
	return x.results[e.IdempotencyKey]
}

func entry(id, key string) Entry {
	return Entry{
		ID:             id,
		Kind:           KindRecordAdministration,
		HouseholdID:    "house-1",
		IdempotencyKey: key,
		Payload:        json.RawMessage(`{}`),
		EnqueuedAt:     time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC),
	}
}

func fill(t *testing.T, q Queue, keys ...string) {
	t.Helper()
	for i, k := range keys {
		if err := q.Enqueue(context.Background(), entry(k+"-id", k)); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
}

// -------------------------
// Tests
// -------------------------

func TestReplayer_DrainsFIFO(t *testing.T) {
	q := NewMemoryQueue()
	fill(t, q, "k1", "k2", "k3")

	exec := &scriptedExecutor{}
	rep, err := NewReplayer(q, exec, nil).Replay(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if rep.Synced != 3 || len(rep.Failed) != 0 || rep.Remaining != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if exec.order[0] != "k1" || exec.order[1] != "k2" || exec.order[2] != "k3" {
		t.Fatalf("expected FIFO order, got %v", exec.order)
	}
}

func TestReplayer_TransientStopsAndKeepsHead(t *testing.T) {
	q := NewMemoryQueue()
	fill(t, q, "k1", "k2", "k3")

	exec := &scriptedExecutor{results: map[string]error{
		"k2": Transient(errors.New("server unreachable")),
	}}
	rep, err := NewReplayer(q, exec, nil).Replay(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if rep.Synced != 1 {
		t.Fatalf("expected 1 synced before the transient stop, got %d", rep.Synced)
	}
	if rep.Remaining != 2 {
		t.Fatalf("expected 2 remaining, got %d", rep.Remaining)
	}

	// k2 sigue al frente, con el intento anotado.
	head, err := q.Peek(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if head.IdempotencyKey != "k2" {
		t.Fatalf("expected k2 at head, got %s", head.IdempotencyKey)
	}
	if head.Attempts != 1 || head.LastError == "" {
		t.Fatalf("expected attempt recorded, got %+v", head)
	}
}

func TestReplayer_PermanentDiscardAndContinue(t *testing.T) {
	q := NewMemoryQueue()
	fill(t, q, "k1", "k2", "k3")

	exec := &scriptedExecutor{results: map[string]error{
		"k2": errors.New("regimen archived"),
	}}
	rep, err := NewReplayer(q, exec, nil).Replay(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if rep.Synced != 2 {
		t.Fatalf("expected k1 and k3 synced, got %d", rep.Synced)
	}
	if len(rep.Failed) != 1 || rep.Failed[0].Entry.IdempotencyKey != "k2" {
		t.Fatalf("expected k2 in failed list, got %+v", rep.Failed)
	}
	if rep.Remaining != 0 {
		t.Fatalf("expected empty queue, got %d", rep.Remaining)
	}
}

func TestReplayer_ResumeAfterPartialSync(t *testing.T) {
	q := NewMemoryQueue()
	fill(t, q, "k1", "k2")

	// Primer pase: k2 falla transitorio.
	exec := &scriptedExecutor{results: map[string]error{
		"k2": Transient(errors.New("offline again")),
	}}
	r := NewReplayer(q, exec, nil)
	if _, err := r.Replay(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Segundo pase con red: solo queda k2 por reenviar; k1 ya salió de la
	// cola y no vuelve a ejecutarse (la idempotencia cubre el caso de que
	// el servidor sí lo hubiera aplicado).
	exec.results = nil
	rep, err := r.Replay(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.Synced != 1 || rep.Remaining != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}

	count := 0
	for _, k := range exec.order {
		if k == "k1" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("k1 must execute exactly once across passes, got %d", count)
	}
}

func TestReplayer_SingleFlight(t *testing.T) {
	q := NewMemoryQueue()
	fill(t, q, "k1")

	started := make(chan struct{})
	block := make(chan struct{})
	exec := &scriptedExecutor{started: started, block: block}
	r := NewReplayer(q, exec, nil)

	done := make(chan error, 1)
	go func() {
		_, err := r.Replay(context.Background())
		done <- err
	}()

	// Con el primer pase bloqueado dentro del executor, un segundo Replay
	// debe cortar de inmediato.
	<-started
	if _, err := r.Replay(context.Background()); !errors.Is(err, ErrReplayInProgress) {
		t.Fatalf("expected ErrReplayInProgress, got %v", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestFileQueue_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.jsonl")

	q, err := NewFileQueue(path)
	if err != nil {
		t.Fatal(err)
	}
	fill(t, q, "k1", "k2", "k3")
	if err := q.Dequeue(context.Background(), "k1-id"); err != nil {
		t.Fatal(err)
	}

	// Reabrir desde disco: k2 y k3 siguen, en orden.
	q2, err := NewFileQueue(path)
	if err != nil {
		t.Fatal(err)
	}
	n, err := q2.Len(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("expected 2 entries after reopen, got %d %v", n, err)
	}
	head, err := q2.Peek(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if head.IdempotencyKey != "k2" {
		t.Fatalf("expected k2 at head, got %s", head.IdempotencyKey)
	}
}

func TestFileQueue_UpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.jsonl")

	q, err := NewFileQueue(path)
	if err != nil {
		t.Fatal(err)
	}
	fill(t, q, "k1")

	e, err := q.Peek(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	e.Attempts = 3
	e.LastError = "server unreachable"
	if err := q.Update(context.Background(), e); err != nil {
		t.Fatal(err)
	}

	q2, err := NewFileQueue(path)
	if err != nil {
		t.Fatal(err)
	}
	head, err := q2.Peek(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if head.Attempts != 3 || head.LastError != "server unreachable" {
		t.Fatalf("update must survive reopen, got %+v", head)
	}
}

func TestRecorderExecutor_ClassifiesErrors(t *testing.T) {
	// Entradas de otro tipo son permanentes (inválidas), no transitorias.
	x := NewRecorderExecutor(nil)
	err := x.Execute(context.Background(), Entry{
		ID:             "e1",
		Kind:           Kind("unknown"),
		IdempotencyKey: "k",
		Payload:        json.RawMessage(`{}`),
	})
	if err == nil || IsTransient(err) {
		t.Fatalf("unknown kind must be a permanent error, got %v", err)
	}
	if !errors.Is(err, ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
}
