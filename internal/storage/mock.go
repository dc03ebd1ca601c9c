package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"emberfall/pkg/world"
)

// MockStorage is an in-memory Storage implementation for testing.
type MockStorage struct {
	mu        sync.RWMutex
	worlds    map[uuid.UUID]*world.World
	layouts   map[string]*world.Layout
	pingError error
	saveError error
}

var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		worlds:  make(map[uuid.UUID]*world.World),
		layouts: make(map[string]*world.Layout),
	}
}

// SetPingError configures the mock to fail on ping with the given error.
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail world saves.
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// AddLayout registers a layout under the given filename.
func (m *MockStorage) AddLayout(filename string, l *world.Layout) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layouts[filename] = l
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveWorld(ctx context.Context, id uuid.UUID, w *world.World) error {
	if w == nil {
		return errors.New("world cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	w.UpdatedAt = time.Now()
	m.worlds[id] = w
	return nil
}

func (m *MockStorage) LoadWorld(ctx context.Context, id uuid.UUID) (*world.World, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.worlds[id], nil
}

func (m *MockStorage) DeleteWorld(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.worlds, id)
	return nil
}

func (m *MockStorage) ListLayouts(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	layouts := make(map[string]string, len(m.layouts))
	for filename, l := range m.layouts {
		layouts[l.Name] = filename
	}
	return layouts, nil
}

func (m *MockStorage) GetLayout(ctx context.Context, filename string) (*world.Layout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.layouts[filename]
	if !ok {
		return nil, fmt.Errorf("layout not found: %s", filename)
	}
	return l, nil
}
