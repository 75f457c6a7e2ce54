package offline

import (
	"context"
	"strings"
	"sync"
)

// MemoryQueue guarda las entradas en memoria (tests y modo dev).
type MemoryQueue struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{entries: make([]Entry, 0)}
}

func (q *MemoryQueue) Enqueue(_ context.Context, e Entry) error {
	if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.IdempotencyKey) == "" {
		return ErrInvalidEntry
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, e)
	return nil
}

func (q *MemoryQueue) Peek(_ context.Context) (Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return Entry{}, ErrEmpty
	}
	return q.entries[0], nil
}

func (q *MemoryQueue) Dequeue(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return nil
		}
	}
	return ErrEmpty
}

func (q *MemoryQueue) Update(_ context.Context, e Entry) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.entries {
		if q.entries[i].ID == e.ID {
			q.entries[i] = e
			return nil
		}
	}
	return ErrEmpty
}

func (q *MemoryQueue) Len(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries), nil
}
