package record

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps records in process memory. One mutex guards both the
// records and the key index, so every check-and-write is atomic.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	byKey   map[Key]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		byKey:   make(map[Key]string),
	}
}

func (m *MemoryStore) Insert(_ context.Context, r *Record) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byKey[r.Key()]; taken {
		return nil, duplicateOf(r)
	}
	rec := r.clone()
	rec.ID = uuid.NewString()
	m.records[rec.ID] = rec
	m.byKey[rec.Key()] = rec.ID
	return rec.clone(), nil
}

func (m *MemoryStore) Replace(_ context.Context, id string, r *Record) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	if owner, taken := m.byKey[r.Key()]; taken && owner != id {
		return nil, duplicateOf(r)
	}
	return m.overwrite(existing, r), nil
}

func (m *MemoryStore) Upsert(_ context.Context, r *Record) (*Record, UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byKey[r.Key()]; ok {
		return m.overwrite(m.records[id], r), Updated, nil
	}
	rec := r.clone()
	rec.ID = uuid.NewString()
	m.records[rec.ID] = rec
	m.byKey[rec.Key()] = rec.ID
	return rec.clone(), Created, nil
}

// overwrite replaces existing's fields with r's, keeping ID and CreatedAt.
// Callers hold m.mu.
func (m *MemoryStore) overwrite(existing, r *Record) *Record {
	delete(m.byKey, existing.Key())
	rec := r.clone()
	rec.ID = existing.ID
	rec.CreatedAt = existing.CreatedAt
	m.records[rec.ID] = rec
	m.byKey[rec.Key()] = rec.ID
	return rec.clone()
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.byKey, rec.Key())
	delete(m.records, id)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.clone(), nil
}

func (m *MemoryStore) List(_ context.Context) ([]*Record, error) {
	m.mu.RLock()
	out := make([]*Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec.clone())
	}
	m.mu.RUnlock()

	slices.SortFunc(out, newestFirst)
	return out, nil
}

func (m *MemoryStore) Ping(context.Context) error  { return nil }
func (m *MemoryStore) Close(context.Context) error { return nil }

// newestFirst orders by CreatedAt descending with ID as tie-breaker.
func newestFirst(a, b *Record) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

var _ Store = (*MemoryStore)(nil)
