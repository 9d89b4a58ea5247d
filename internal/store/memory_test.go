package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatal("Expected snapshot, channel closed")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for snapshot")
	}
	return Snapshot{}
}

func TestMemoryStore_SubscribeDeliversInitialSnapshot(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	id, err := s.Create(ctx, "blog-posts", map[string]any{"title": "Hello"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ch, err := s.Subscribe(ctx, "blog-posts")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	snap := receive(t, ch)
	if !snap.Exists() {
		t.Fatal("Expected snapshot to hold documents")
	}
	if _, ok := snap.Docs[id]; !ok {
		t.Errorf("Expected document %s in snapshot", id)
	}
}

func TestMemoryStore_EmptyCollection(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ch, _ := s.Subscribe(context.Background(), "gallery-items")
	snap := receive(t, ch)
	if snap.Exists() {
		t.Errorf("Expected empty snapshot, got %d docs", len(snap.Docs))
	}
}

func TestMemoryStore_CoalescesToLatest(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	ch, _ := s.Subscribe(ctx, "contact-messages")
	for i := 0; i < 5; i++ {
		if _, err := s.Create(ctx, "contact-messages", map[string]any{"n": i}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	snap := receive(t, ch)
	if len(snap.Docs) != 5 {
		t.Errorf("Expected latest snapshot with 5 docs, got %d", len(snap.Docs))
	}
}

func TestMemoryStore_UpdateMerges(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	id, _ := s.Create(ctx, "enrollments", map[string]any{"childName": "Ama", "status": "pending"})
	if err := s.Update(ctx, "enrollments", id, map[string]any{"status": "approved"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	raw, err := s.Get(ctx, "enrollments", id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if doc["childName"] != "Ama" || doc["status"] != "approved" {
		t.Errorf("Expected merged document, got %v", doc)
	}
}

func TestMemoryStore_DropsIDFromBody(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	id, _ := s.Create(ctx, "blog-posts", map[string]any{"id": "spoofed", "title": "x"})
	raw, _ := s.Get(ctx, "blog-posts", id)
	var doc map[string]any
	json.Unmarshal(raw, &doc)
	if _, ok := doc["id"]; ok {
		t.Errorf("Expected id to be stripped from stored body, got %v", doc)
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Update(ctx, "blog-posts", "missing", map[string]any{"title": "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound from Update, got %v", err)
	}
	if err := s.Delete(ctx, "blog-posts", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound from Delete, got %v", err)
	}
	if _, err := s.Get(ctx, "blog-posts", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound from Get, got %v", err)
	}
}

func TestMemoryStore_EmptyPartialRejected(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	id, _ := s.Create(ctx, "blog-posts", map[string]any{"title": "x"})
	if err := s.Update(ctx, "blog-posts", id, map[string]any{}); err == nil {
		t.Error("Expected error for empty partial update")
	}
}

func TestMemoryStore_CancelClosesChannel(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := s.Subscribe(ctx, "daily-schedule")
	receive(t, ch)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			// a late snapshot may still be buffered; the next read must see the close
			if _, ok := <-ch; ok {
				t.Error("Expected channel to be closed after cancel")
			}
		}
	case <-time.After(2 * time.Second):
		t.Error("Timed out waiting for channel close")
	}
}

func TestMemoryStore_CloseEndsSubscriptions(t *testing.T) {
	s := NewMemoryStore()
	ch, _ := s.Subscribe(context.Background(), "blog-posts")
	receive(t, ch)
	s.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Expected channel to be closed after store Close")
		}
	case <-time.After(2 * time.Second):
		t.Error("Timed out waiting for channel close")
	}
}

func TestSnapshotKeysSorted(t *testing.T) {
	snap := Snapshot{Docs: map[string]json.RawMessage{"c": nil, "a": nil, "b": nil}}
	keys := snap.Keys()
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Errorf("Expected sorted keys, got %v", keys)
	}
}
