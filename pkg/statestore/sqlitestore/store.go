// Package sqlitestore persists the durable session record in a SQLite file.
package sqlitestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/aussiebroadwan/modconsole/pkg/authsdk"
)

//go:embed migrations/*.sql
var migrations embed.FS

// migrationsTable is separate from the default so the session table can share
// a database file with other migrated schemas.
const migrationsTable = "statestore_migrations"

// Store implements authsdk.Persister on top of a single table. Each namespace
// holds one record, so several profiles can share a file.
type Store struct {
	db        *sql.DB
	namespace string
}

// Open opens (or creates) the database at dsn and applies pending migrations.
// An empty namespace uses authsdk.StorageKey.
func Open(dsn, namespace string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	// SQLite serialises writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s, err := New(db, namespace)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle and applies pending migrations.
func New(db *sql.DB, namespace string) (*Store, error) {
	if namespace == "" {
		namespace = authsdk.StorageKey
	}

	s := &Store{db: db, namespace: namespace}
	if err := s.ApplyMigrations(); err != nil {
		return nil, fmt.Errorf("migrate session db: %w", err)
	}
	return s, nil
}

// ApplyMigrations applies any pending migrations from the embedded files.
func (s *Store) ApplyMigrations() error {
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}

	instance, err := migrate.NewWithInstance("iofs", source, "", driver)
	if err != nil {
		return err
	}

	if err := instance.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Load implements authsdk.Persister.
func (s *Store) Load(ctx context.Context) (authsdk.PersistedState, error) {
	var (
		refreshToken string
		role         string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT refresh_token, role FROM session_state WHERE namespace = ?`,
		s.namespace,
	).Scan(&refreshToken, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return authsdk.PersistedState{}, nil
	}
	if err != nil {
		return authsdk.PersistedState{}, fmt.Errorf("load session state: %w", err)
	}

	return authsdk.PersistedState{
		RefreshToken: refreshToken,
		Role:         authsdk.NormalizeRole(role),
	}, nil
}

// Save implements authsdk.Persister.
func (s *Store) Save(ctx context.Context, state authsdk.PersistedState) error {
	role := state.Role
	if role == "" {
		role = authsdk.RoleUser
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_state (namespace, refresh_token, role, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(namespace) DO UPDATE SET
			refresh_token = excluded.refresh_token,
			role = excluded.role,
			updated_at = CURRENT_TIMESTAMP`,
		s.namespace, state.RefreshToken, string(role),
	)
	if err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	return nil
}

// Clear implements authsdk.Persister.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_state WHERE namespace = ?`, s.namespace); err != nil {
		return fmt.Errorf("clear session state: %w", err)
	}
	return nil
}

var _ authsdk.Persister = (*Store)(nil)
