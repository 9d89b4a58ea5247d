package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrNotFound is returned when a document does not exist at the given path
var ErrNotFound = errors.New("document not found")

// Snapshot is a point-in-time copy of a collection's documents keyed by id
type Snapshot struct {
	Path string
	Docs map[string]json.RawMessage
}

// Exists reports whether the collection held any document
func (s Snapshot) Exists() bool {
	return len(s.Docs) > 0
}

// Keys returns the document ids in ascending order
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.Docs))
	for k := range s.Docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Subscriber opens realtime subscriptions on collections
type Subscriber interface {
	// Subscribe delivers the current snapshot of path and then a new one after
	// every change. The channel is closed once ctx is done or the underlying
	// subscription fails.
	Subscribe(ctx context.Context, path string) (<-chan Snapshot, error)
}

// DocumentStore defines the operations of the realtime document store
type DocumentStore interface {
	Subscriber
	Create(ctx context.Context, path string, value any) (string, error)
	Update(ctx context.Context, path, id string, partial map[string]any) error
	Delete(ctx context.Context, path, id string) error
	Get(ctx context.Context, path, id string) (json.RawMessage, error)
	List(ctx context.Context, path string) (Snapshot, error)
	Close() error
}

// Encode turns a record into a storable document. The "id" key is dropped
// because ids live in the document key, never in the body.
func Encode(value any) (map[string]any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	doc := make(map[string]any)
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("document must be a JSON object: %w", err)
	}
	delete(doc, "id")
	return doc, nil
}

// EncodePartial normalises the values of a partial update to plain JSON types
func EncodePartial(partial map[string]any) (map[string]any, error) {
	doc, err := Encode(partial)
	if err != nil {
		return nil, err
	}
	if len(doc) == 0 {
		return nil, errors.New("partial update has no fields")
	}
	return doc, nil
}

// offer hands the newest snapshot to a subscriber without blocking. A
// snapshot the subscriber has not consumed yet is replaced.
func offer(ch chan Snapshot, snap Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
