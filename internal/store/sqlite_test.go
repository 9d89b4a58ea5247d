package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	ch, err := s.Subscribe(ctx, "gallery-items")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if snap := receive(t, ch); snap.Exists() {
		t.Errorf("Expected empty initial snapshot, got %d docs", len(snap.Docs))
	}

	id, err := s.Create(ctx, "gallery-items", map[string]any{"title": "Art", "order": 0})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if snap := receive(t, ch); len(snap.Docs) != 1 {
		t.Errorf("Expected 1 doc after create, got %d", len(snap.Docs))
	}

	if err := s.Update(ctx, "gallery-items", id, map[string]any{"title": "Painting"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	snap := receive(t, ch)
	if got := string(snap.Docs[id]); got != `{"order":0,"title":"Painting"}` {
		t.Errorf("Expected merged document, got %s", got)
	}

	if err := s.Delete(ctx, "gallery-items", id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if snap := receive(t, ch); snap.Exists() {
		t.Error("Expected empty snapshot after delete")
	}

	if err := s.Delete(ctx, "gallery-items", id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
