package armoury

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/omnissiah/internal/game/weapon"
)

// MemoryStore is an in-process Store. Records are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	byOwner map[string][]Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byOwner: make(map[string][]Record)}
}

// List returns a copy of the owner's records, oldest first.
func (m *MemoryStore) List(_ context.Context, owner string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, len(m.byOwner[owner]))
	copy(out, m.byOwner[owner])
	return out, nil
}

// Add appends a new record.
func (m *MemoryStore) Add(_ context.Context, owner string, w weapon.Instance) (uuid.UUID, error) {
	rec := Record{ID: uuid.New(), Owner: owner, Weapon: w, CreatedAt: time.Now().UTC()}
	rec.Weapon.Specials = append([]string(nil), w.Specials...)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byOwner[owner] = append(m.byOwner[owner], rec)
	return rec.ID, nil
}

// Get returns one record or ErrNotFound.
func (m *MemoryStore) Get(_ context.Context, owner string, id uuid.UUID) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.byOwner[owner] {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

// Delete removes one record.
func (m *MemoryStore) Delete(_ context.Context, owner string, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.byOwner[owner]
	for i, r := range recs {
		if r.ID == id {
			m.byOwner[owner] = append(recs[:i:i], recs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
