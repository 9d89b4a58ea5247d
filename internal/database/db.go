package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/preschool-cms-api/internal/config"
)

// DocumentsTable holds every collection's documents as JSONB rows
const DocumentsTable = "documents"

// NotifyTrigger is the trigger that announces document changes
const NotifyTrigger = "documents_notify"

// ErrSchemaIncomplete is returned when migrations ran but the documents
// table or its change trigger is missing
var ErrSchemaIncomplete = errors.New("documents schema incomplete")

// DB wraps the sql.DB pool and remembers the DSN so change listeners can
// open their own connection
type DB struct {
	*sql.DB
	dsn string
	log zerolog.Logger
}

// New connects to the document database
func New(cfg *config.DatabaseConfig, log zerolog.Logger) (*DB, error) {
	dsn := cfg.GetDSN()
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.MaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{
		DB:  pool,
		dsn: dsn,
		log: log.With().Str("component", "database").Logger(),
	}
	db.log.Info().
		Str("host", cfg.Host).
		Str("database", cfg.Name).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Document database connected")
	return db, nil
}

// RunMigrations applies the documents schema and checks that the change
// trigger the realtime store depends on is in place
func (db *DB) RunMigrations(migrationsPath string) error {
	source := sourceURL(migrationsPath)
	db.log.Info().Str("source", source).Msg("Applying documents schema")

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("migration %d is dirty, fix it by hand before starting", version)
	}

	var hasTrigger bool
	err = db.QueryRowContext(context.Background(),
		"SELECT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = $1 AND NOT tgisinternal)",
		NotifyTrigger,
	).Scan(&hasTrigger)
	if err != nil {
		return fmt.Errorf("failed to look up %s trigger: %w", NotifyTrigger, err)
	}
	if !hasTrigger {
		return fmt.Errorf("%w: trigger %s not found", ErrSchemaIncomplete, NotifyTrigger)
	}

	db.log.Info().Uint("version", version).Str("trigger", NotifyTrigger).Msg("Documents schema ready")
	return nil
}

// Listen opens a dedicated LISTEN connection on channel. The listener
// reconnects on its own; connection events are logged.
func (db *DB) Listen(channel string) (*pq.Listener, error) {
	log := db.log.With().Str("channel", channel).Logger()
	listener := pq.NewListener(db.dsn, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventReconnected:
			log.Info().Msg("Listener reconnected")
		case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
			log.Warn().Err(err).Msg("Listener connection lost")
		}
	})
	if err := listener.Listen(channel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", channel, err)
	}
	log.Info().Msg("Listening for document changes")
	return listener, nil
}

// HealthCheck verifies the connection and that the documents table exists
func (db *DB) HealthCheck(ctx context.Context) error {
	var table sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT to_regclass($1)::text", DocumentsTable).Scan(&table); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	if !table.Valid {
		return fmt.Errorf("%w: table %s not found", ErrSchemaIncomplete, DocumentsTable)
	}
	return nil
}

// sourceURL turns a directory into a golang-migrate file source URL
func sourceURL(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return "file://" + strings.TrimRight(path, "/")
}
