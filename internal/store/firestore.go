package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore maps collections onto Firestore collections and uses
// query snapshots for realtime delivery.
type FirestoreStore struct {
	client *firestore.Client
	log    zerolog.Logger
}

// NewFirestoreStore wraps an initialized Firestore client
func NewFirestoreStore(client *firestore.Client, log zerolog.Logger) *FirestoreStore {
	return &FirestoreStore{
		client: client,
		log:    log.With().Str("component", "firestore_store").Logger(),
	}
}

// Subscribe streams query snapshots of the collection. Reconnection is left
// to the Firestore client; when the stream fails the channel is closed.
func (s *FirestoreStore) Subscribe(ctx context.Context, path string) (<-chan Snapshot, error) {
	it := s.client.Collection(path).Snapshots(ctx)
	ch := make(chan Snapshot, 1)

	go func() {
		defer close(ch)
		defer it.Stop()

		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() == nil && status.Code(err) != codes.Canceled {
					s.log.Error().Err(err).Str("collection", path).Msg("Snapshot stream ended")
				}
				return
			}
			docs, err := qs.Documents.GetAll()
			if err != nil {
				s.log.Error().Err(err).Str("collection", path).Msg("Failed to read snapshot documents")
				return
			}
			snap, err := snapshotFromDocs(path, docs)
			if err != nil {
				s.log.Error().Err(err).Str("collection", path).Msg("Failed to encode snapshot")
				continue
			}
			offer(ch, snap)
		}
	}()
	return ch, nil
}

// Create adds a document with a Firestore-generated id
func (s *FirestoreStore) Create(ctx context.Context, path string, value any) (string, error) {
	doc, err := Encode(value)
	if err != nil {
		return "", err
	}
	ref, _, err := s.client.Collection(path).Add(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("add document: %w", err)
	}
	return ref.ID, nil
}

// Update applies partial as field updates; it fails if the document is gone
func (s *FirestoreStore) Update(ctx context.Context, path, id string, partial map[string]any) error {
	fields, err := EncodePartial(partial)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updates := make([]firestore.Update, 0, len(keys))
	for _, k := range keys {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: fields[k]})
	}

	if _, err := s.client.Collection(path).Doc(id).Update(ctx, updates); err != nil {
		return translateFirestoreErr(err, "update document")
	}
	return nil
}

// Delete removes a document that must exist
func (s *FirestoreStore) Delete(ctx context.Context, path, id string) error {
	if _, err := s.client.Collection(path).Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return translateFirestoreErr(err, "delete document")
	}
	return nil
}

// Get returns a single document
func (s *FirestoreStore) Get(ctx context.Context, path, id string) (json.RawMessage, error) {
	snap, err := s.client.Collection(path).Doc(id).Get(ctx)
	if err != nil {
		return nil, translateFirestoreErr(err, "get document")
	}
	data, err := json.Marshal(snap.Data())
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// List returns the current snapshot of a collection
func (s *FirestoreStore) List(ctx context.Context, path string) (Snapshot, error) {
	docs, err := s.client.Collection(path).Documents(ctx).GetAll()
	if err != nil {
		return Snapshot{}, fmt.Errorf("list documents: %w", err)
	}
	return snapshotFromDocs(path, docs)
}

// Close closes the Firestore client
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func snapshotFromDocs(path string, docs []*firestore.DocumentSnapshot) (Snapshot, error) {
	snap := Snapshot{Path: path, Docs: make(map[string]json.RawMessage, len(docs))}
	for _, doc := range docs {
		data, err := json.Marshal(doc.Data())
		if err != nil {
			return Snapshot{}, fmt.Errorf("encode document %s: %w", doc.Ref.ID, err)
		}
		snap.Docs[doc.Ref.ID] = data
	}
	return snap, nil
}

func translateFirestoreErr(err error, op string) error {
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
