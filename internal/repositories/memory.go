package repositories

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/cinematch/internal/models"
	"github.com/desertthunder/cinematch/internal/shared"
)

// MemoryPreferenceStore implements [models.PreferenceStore] in process memory for development and testing.
type MemoryPreferenceStore struct {
	mu      sync.Mutex
	records map[string]*models.Preferences
}

func NewMemoryPreferenceStore() *MemoryPreferenceStore {
	return &MemoryPreferenceStore{records: make(map[string]*models.Preferences)}
}

// Get returns a copy of the record so callers cannot mutate stored sets.
func (m *MemoryPreferenceStore) Get(_ context.Context, uid string) (*models.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.records[uid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrRecordNotFound, uid)
	}
	return &models.Preferences{UserID: uid, Watched: p.Watched.Clone(), Liked: p.Liked.Clone()}, nil
}

func (m *MemoryPreferenceStore) Create(_ context.Context, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[uid]; !ok {
		m.records[uid] = models.NewPreferences(uid)
	}
	return nil
}

func (m *MemoryPreferenceStore) AddMovie(_ context.Context, uid string, l models.List, id int) error {
	return m.update(uid, l, func(s models.MovieSet) { s.Add(id) })
}

func (m *MemoryPreferenceStore) RemoveMovie(_ context.Context, uid string, l models.List, id int) error {
	return m.update(uid, l, func(s models.MovieSet) { s.Remove(id) })
}

func (m *MemoryPreferenceStore) update(uid string, l models.List, fn func(models.MovieSet)) error {
	if err := validList(l); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.records[uid]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrRecordNotFound, uid)
	}
	fn(p.Set(l))
	return nil
}
