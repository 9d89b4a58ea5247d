package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// documentRow is the gorm model behind SQLiteStore
type documentRow struct {
	Collection string `gorm:"primaryKey;size:64"`
	ID         string `gorm:"primaryKey;size:64"`
	Data       string `gorm:"type:text;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (documentRow) TableName() string {
	return "documents"
}

// SQLiteStore persists documents in a single SQLite file through gorm.
// Change notification is in-process only, so a file must not be shared
// between running servers.
type SQLiteStore struct {
	db  *gorm.DB
	mu  sync.Mutex
	hub *hub
	log zerolog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewSQLiteStore opens (creating if needed) the database file at path
func NewSQLiteStore(path string, log zerolog.Logger) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&documentRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate documents table: %w", err)
	}

	log.Info().Str("path", path).Msg("SQLite document store opened")

	return &SQLiteStore{
		db:   db,
		hub:  newHub(),
		log:  log.With().Str("component", "sqlite_store").Logger(),
		done: make(chan struct{}),
	}, nil
}

// Subscribe registers a subscriber and hands it the current snapshot
func (s *SQLiteStore) Subscribe(ctx context.Context, path string) (<-chan Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshot(ctx, path)
	if err != nil {
		return nil, err
	}
	ch := s.hub.add(path)
	offer(ch, snap)

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
func (s *SQLiteStore) Create(ctx context.Context, path string, value any) (string, error) {
	doc, err := Encode(value)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	row := documentRow{Collection: path, ID: uuid.New().String(), Data: string(data)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	s.publish(ctx, path)
	return row.ID, nil
}

// Update merges partial into an existing document
func (s *SQLiteStore) Update(ctx context.Context, path, id string, partial map[string]any) error {
	fields, err := EncodePartial(partial)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row documentRow
		if err := tx.Where("collection = ? AND id = ?", path, id).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		doc := make(map[string]any)
		if err := json.Unmarshal([]byte(row.Data), &doc); err != nil {
			return fmt.Errorf("decode stored document: %w", err)
		}
		for k, v := range fields {
			doc[k] = v
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
		row.Data = string(data)
		return tx.Save(&row).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update document: %w", err)
	}
	s.publish(ctx, path)
	return nil
}

// Delete removes a document
func (s *SQLiteStore) Delete(ctx context.Context, path, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.db.WithContext(ctx).Where("collection = ? AND id = ?", path, id).Delete(&documentRow{})
	if result.Error != nil {
		return fmt.Errorf("delete document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	s.publish(ctx, path)
	return nil
}

// Get returns a single document
func (s *SQLiteStore) Get(ctx context.Context, path, id string) (json.RawMessage, error) {
	var row documentRow
	err := s.db.WithContext(ctx).Where("collection = ? AND id = ?", path, id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return json.RawMessage(row.Data), nil
}

// List returns the current snapshot of a collection
func (s *SQLiteStore) List(ctx context.Context, path string) (Snapshot, error) {
	return s.snapshot(ctx, path)
}

// Ping checks the database connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close ends every subscription and closes the database
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.hub.closeAll()
		sqlDB, dbErr := s.db.DB()
		if dbErr != nil {
			err = dbErr
			return
		}
		err = sqlDB.Close()
	})
	return err
}

func (s *SQLiteStore) snapshot(ctx context.Context, path string) (Snapshot, error) {
	var rows []documentRow
	if err := s.db.WithContext(ctx).Where("collection = ?", path).Order("id").Find(&rows).Error; err != nil {
		return Snapshot{}, fmt.Errorf("list documents: %w", err)
	}
	snap := Snapshot{Path: path, Docs: make(map[string]json.RawMessage, len(rows))}
	for _, row := range rows {
		snap.Docs[row.ID] = json.RawMessage(row.Data)
	}
	return snap, nil
}

// publish must run with s.mu held so snapshots reach subscribers in write order
func (s *SQLiteStore) publish(ctx context.Context, path string) {
	snap, err := s.snapshot(context.WithoutCancel(ctx), path)
	if err != nil {
		s.log.Error().Err(err).Str("collection", path).Msg("Failed to publish snapshot")
		return
	}
	s.hub.publish(snap)
}
