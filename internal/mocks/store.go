package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/preschool-cms-api/internal/store"
)

// MockStore is an in-memory DocumentStore with injectable failures and call
// counters
type MockStore struct {
	*store.MemoryStore

	mu           sync.Mutex
	SubscribeErr error
	CreateErr    error
	UpdateErr    error
	DeleteErr    error
	GetErr       error
	ListErr      error

	CreateCalls int
	UpdateCalls int
	DeleteCalls int
}

// Verify interface compliance
var _ store.DocumentStore = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{MemoryStore: store.NewMemoryStore()}
}

// Fail sets the error returned by every write
func (m *MockStore) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateErr = err
	m.UpdateErr = err
	m.DeleteErr = err
}

// Writes returns the number of write calls made so far
func (m *MockStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CreateCalls + m.UpdateCalls + m.DeleteCalls
}

func (m *MockStore) Subscribe(ctx context.Context, path string) (<-chan store.Snapshot, error) {
	m.mu.Lock()
	err := m.SubscribeErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.MemoryStore.Subscribe(ctx, path)
}

func (m *MockStore) Create(ctx context.Context, path string, value any) (string, error) {
	m.mu.Lock()
	m.CreateCalls++
	err := m.CreateErr
	m.mu.Unlock()
	if err != nil {
		return "", err
	}
	return m.MemoryStore.Create(ctx, path, value)
}

func (m *MockStore) Update(ctx context.Context, path, id string, partial map[string]any) error {
	m.mu.Lock()
	m.UpdateCalls++
	err := m.UpdateErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.MemoryStore.Update(ctx, path, id, partial)
}

func (m *MockStore) Delete(ctx context.Context, path, id string) error {
	m.mu.Lock()
	m.DeleteCalls++
	err := m.DeleteErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.MemoryStore.Delete(ctx, path, id)
}

func (m *MockStore) Get(ctx context.Context, path, id string) (json.RawMessage, error) {
	m.mu.Lock()
	err := m.GetErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.MemoryStore.Get(ctx, path, id)
}

func (m *MockStore) List(ctx context.Context, path string) (store.Snapshot, error) {
	m.mu.Lock()
	err := m.ListErr
	m.mu.Unlock()
	if err != nil {
		return store.Snapshot{}, err
	}
	return m.MemoryStore.List(ctx, path)
}
