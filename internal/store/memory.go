package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps collections in process memory. It backs development
// runs and tests.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]json.RawMessage
	hub         *hub
	done        chan struct{}
	closeOnce   sync.Once
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]json.RawMessage),
		hub:         newHub(),
		done:        make(chan struct{}),
	}
}

// Subscribe registers a subscriber and immediately hands it the current snapshot
func (s *MemoryStore) Subscribe(ctx context.Context, path string) (<-chan Snapshot, error) {
	s.mu.Lock()
	ch := s.hub.add(path)
	offer(ch, s.snapshotLocked(path))
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		s.hub.remove(path, ch)
	}()
	return ch, nil
}

// Create stores value under a new id
func (s *MemoryStore) Create(ctx context.Context, path string, value any) (string, error) {
	doc, err := Encode(value)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	id := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collections[path] == nil {
		s.collections[path] = make(map[string]json.RawMessage)
	}
	s.collections[path][id] = data
	s.hub.publish(s.snapshotLocked(path))
	return id, nil
}

// Update merges partial into an existing document
func (s *MemoryStore) Update(ctx context.Context, path, id string, partial map[string]any) error {
	fields, err := EncodePartial(partial)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.collections[path][id]
	if !ok {
		return ErrNotFound
	}
	doc := make(map[string]any)
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode stored document: %w", err)
	}
	for k, v := range fields {
		doc[k] = v
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	s.collections[path][id] = data
	s.hub.publish(s.snapshotLocked(path))
	return nil
}

// Delete removes a document
func (s *MemoryStore) Delete(ctx context.Context, path, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[path][id]; !ok {
		return ErrNotFound
	}
	delete(s.collections[path], id)
	s.hub.publish(s.snapshotLocked(path))
	return nil
}

// Get returns a single document
func (s *MemoryStore) Get(ctx context.Context, path, id string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.collections[path][id]
	if !ok {
		return nil, ErrNotFound
	}
	return append(json.RawMessage(nil), raw...), nil
}

// List returns the current snapshot of a collection
func (s *MemoryStore) List(ctx context.Context, path string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(path), nil
}

// Close ends every open subscription
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.hub.closeAll()
	})
	return nil
}

func (s *MemoryStore) snapshotLocked(path string) Snapshot {
	docs := make(map[string]json.RawMessage, len(s.collections[path]))
	for id, raw := range s.collections[path] {
		docs[id] = raw
	}
	return Snapshot{Path: path, Docs: docs}
}
