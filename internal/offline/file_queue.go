package offline

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileQueue persiste la cola como JSONL append-only: cada Enqueue agrega una
// línea y las bajas se marcan con tombstones. Así una caída a mitad de
// escritura pierde a lo sumo la última línea, nunca corrompe lo anterior.
// Cuando los tombstones superan a las entradas vivas se compacta el archivo.
type FileQueue struct {
	mu   sync.Mutex
	path string

	entries []Entry
	dead    int
}

type fileRecord struct {
	Entry   *Entry `json:"entry,omitempty"`
	Deleted string `json:"deleted,omitempty"`
	Updated *Entry `json:"updated,omitempty"`
}

func NewFileQueue(path string) (*FileQueue, error) {
	q := &FileQueue{path: path}
	if err := q.load(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *FileQueue) load() error {
	f, err := os.Open(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			q.entries = make([]Entry, 0)
			return nil
		}
		return err
	}
	defer f.Close()

	entries := make([]Entry, 0)
	dead := 0

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec fileRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			// Línea truncada por una caída: se descarta solo esa línea.
			continue
		}
		switch {
		case rec.Entry != nil:
			entries = append(entries, *rec.Entry)
		case rec.Updated != nil:
			for i := range entries {
				if entries[i].ID == rec.Updated.ID {
					entries[i] = *rec.Updated
					break
				}
			}
			dead++
		case rec.Deleted != "":
			for i, e := range entries {
				if e.ID == rec.Deleted {
					entries = append(entries[:i], entries[i+1:]...)
					break
				}
			}
			dead++
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}

	q.entries = entries
	q.dead = dead
	return nil
}

func (q *FileQueue) appendRecord(rec fileRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(q.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// compactLocked reescribe el archivo solo con las entradas vivas. Escribe a
// un temporal y renombra encima: el reemplazo es atómico.
func (q *FileQueue) compactLocked() error {
	tmp := q.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	for i := range q.entries {
		b, err := json.Marshal(fileRecord{Entry: &q.entries[i]})
		if err != nil {
			_ = f.Close()
			return err
		}
		if _, err := w.Write(append(b, '\n')); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp, q.path); err != nil {
		return err
	}
	q.dead = 0
	return nil
}

func (q *FileQueue) maybeCompactLocked() error {
	if q.dead > len(q.entries) && q.dead >= 16 {
		return q.compactLocked()
	}
	return nil
}

func (q *FileQueue) Enqueue(_ context.Context, e Entry) error {
	if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.IdempotencyKey) == "" {
		return ErrInvalidEntry
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.appendRecord(fileRecord{Entry: &e}); err != nil {
		return err
	}
	q.entries = append(q.entries, e)
	return nil
}

func (q *FileQueue) Peek(_ context.Context) (Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return Entry{}, ErrEmpty
	}
	return q.entries[0], nil
}

func (q *FileQueue) Dequeue(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.ID == id {
			if err := q.appendRecord(fileRecord{Deleted: id}); err != nil {
				return err
			}
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			q.dead++
			return q.maybeCompactLocked()
		}
	}
	return ErrEmpty
}

func (q *FileQueue) Update(_ context.Context, e Entry) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.entries {
		if q.entries[i].ID == e.ID {
			if err := q.appendRecord(fileRecord{Updated: &e}); err != nil {
				return err
			}
			q.entries[i] = e
			q.dead++
			return q.maybeCompactLocked()
		}
	}
	return ErrEmpty
}

func (q *FileQueue) Len(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries), nil
}

// Path devuelve la ruta del archivo de cola (útil para logs).
func (q *FileQueue) Path() string {
	return filepath.Clean(q.path)
}
