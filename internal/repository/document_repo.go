package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/preschool-cms-api/internal/store"
)

// documentRepo is the concrete implementation of DocumentRepository
type documentRepo[T any] struct {
	st     store.DocumentStore
	path   string
	decode func(id string, raw json.RawMessage) (T, error)
}

// NewDocumentRepo creates a repository for the collection at path
func NewDocumentRepo[T any](st store.DocumentStore, path string, decode func(string, json.RawMessage) (T, error)) DocumentRepository[T] {
	return &documentRepo[T]{st: st, path: path, decode: decode}
}

// Path returns the collection path
func (r *documentRepo[T]) Path() string {
	return r.path
}

// Create stores a new record and returns its generated id
func (r *documentRepo[T]) Create(ctx context.Context, record T) (string, error) {
	id, err := r.st.Create(ctx, r.path, record)
	if err != nil {
		return "", fmt.Errorf("create in %s: %w", r.path, err)
	}
	return id, nil
}

// Update merges partial into the record with the given id
func (r *documentRepo[T]) Update(ctx context.Context, id string, partial map[string]any) error {
	if err := r.st.Update(ctx, r.path, id, partial); err != nil {
		return fmt.Errorf("update %s/%s: %w", r.path, id, err)
	}
	return nil
}

// Delete removes the record with the given id
func (r *documentRepo[T]) Delete(ctx context.Context, id string) error {
	if err := r.st.Delete(ctx, r.path, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", r.path, id, err)
	}
	return nil
}

// Get fetches a single record
func (r *documentRepo[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	raw, err := r.st.Get(ctx, r.path, id)
	if err != nil {
		return zero, fmt.Errorf("get %s/%s: %w", r.path, id, err)
	}
	rec, err := r.decode(id, raw)
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrUndecodable, err)
	}
	return rec, nil
}

// List reads every record of the collection in key order, skipping
// documents that cannot be decoded
func (r *documentRepo[T]) List(ctx context.Context) ([]T, error) {
	snap, err := r.st.List(ctx, r.path)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.path, err)
	}
	out := make([]T, 0, len(snap.Docs))
	for _, id := range snap.Keys() {
		rec, err := r.decode(id, snap.Docs[id])
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
