package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/preschool-cms-api/internal/database"
)

// NotifyChannel is the PostgreSQL channel the documents trigger notifies on
const NotifyChannel = "document_changes"

// PostgresStore keeps documents as JSONB rows and pushes changes to
// subscribers through LISTEN/NOTIFY.
type PostgresStore struct {
	db       *database.DB
	listener *pq.Listener
	hub      *hub
	log      zerolog.Logger

	// refreshMu keeps initial snapshots and change snapshots in order
	refreshMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPostgresStore creates the store and starts listening for changes.
// The store owns db from here on and closes it on Close.
func NewPostgresStore(db *database.DB, log zerolog.Logger) (*PostgresStore, error) {
	listener, err := db.Listen(NotifyChannel)
	if err != nil {
		return nil, err
	}

	s := &PostgresStore{
		db:       db,
		listener: listener,
		hub:      newHub(),
		log:      log.With().Str("component", "postgres_store").Logger(),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.wg.Add(1)
	go s.listen()
	return s, nil
}

// listen turns notifications into snapshots for the affected collection
func (s *PostgresStore) listen() {
	defer s.wg.Done()

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case n := <-s.listener.Notify:
			if n == nil {
				// Reconnected: notifications may have been lost, refresh everything.
				for _, path := range s.hub.paths() {
					s.refresh(path)
				}
				continue
			}
			s.refresh(n.Extra)
		case <-ping.C:
			go func() {
				if err := s.listener.Ping(); err != nil {
					s.log.Warn().Err(err).Msg("Listener ping failed")
				}
			}()
		}
	}
}

func (s *PostgresStore) refresh(path string) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	snap, err := s.List(s.ctx, path)
	if err != nil {
		s.log.Error().Err(err).Str("collection", path).Msg("Failed to load snapshot")
		return
	}
	s.hub.publish(snap)
}

// Subscribe registers a subscriber and hands it the current snapshot
func (s *PostgresStore) Subscribe(ctx context.Context, path string) (<-chan Snapshot, error) {
	s.refreshMu.Lock()
	snap, err := s.List(ctx, path)
	if err != nil {
		s.refreshMu.Unlock()
		return nil, err
	}
	ch := s.hub.add(path)
	offer(ch, snap)
	s.refreshMu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-s.ctx.Done():
		}
		s.hub.remove(path, ch)
	}()
	return ch, nil
}

// Create inserts a document under a new id
func (s *PostgresStore) Create(ctx context.Context, path string, value any) (string, error) {
	doc, err := Encode(value)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	id := uuid.New().String()
	query := `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	if _, err := s.db.ExecContext(ctx, query, path, id, data); err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

// Update merges partial into the stored JSONB in a single statement
func (s *PostgresStore) Update(ctx context.Context, path, id string, partial map[string]any) error {
	fields, err := EncodePartial(partial)
	if err != nil {
		return err
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	query := `
		UPDATE documents SET data = data || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2
	`
	res, err := s.db.ExecContext(ctx, query, path, id, data)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return requireRow(res)
}

// Delete removes a document
func (s *PostgresStore) Delete(ctx context.Context, path, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE collection = $1 AND id = $2", path, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireRow(res)
}

// Get returns a single document
func (s *PostgresStore) Get(ctx context.Context, path, id string) (json.RawMessage, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM documents WHERE collection = $1 AND id = $2", path, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return json.RawMessage(data), nil
}

// List returns the current snapshot of a collection
func (s *PostgresStore) List(ctx context.Context, path string) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, data FROM documents WHERE collection = $1 ORDER BY id", path,
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	snap, err := scanSnapshot(path, rows)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list documents: %w", err)
	}
	return snap, nil
}

// rowScanner is the part of *sql.Rows that scanSnapshot reads
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanSnapshot collects (id, data) rows into a snapshot of path
func scanSnapshot(path string, rows rowScanner) (Snapshot, error) {
	snap := Snapshot{Path: path, Docs: make(map[string]json.RawMessage)}
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return Snapshot{}, fmt.Errorf("scan document row: %w", err)
		}
		snap.Docs[id] = json.RawMessage(data)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Close stops the listener and ends every subscription
func (s *PostgresStore) Close() error {
	s.cancel()
	s.wg.Wait()
	s.hub.closeAll()
	if err := s.listener.Close(); err != nil {
		s.db.Close()
		return fmt.Errorf("close listener: %w", err)
	}
	return s.db.Close()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}
