// Package pg stores accounts as JSONB documents in PostgreSQL. The email is
// kept in its own column so the database enforces its uniqueness.
package pg

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/ecomm-dev/accounts/shared/config"
	"github.com/ecomm-dev/accounts/shared/logger"
	shared_pg "github.com/ecomm-dev/accounts/shared/storage/pg"
	"github.com/google/uuid"
)

//go:embed migrations/init.sql
var schema string

type Storage struct {
	db *sql.DB
}

func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	logger.Log.Info("connecting to postgres", "host", cfg.Public.Pg.Host, "dbname", cfg.Public.Pg.Dbname)
	db, err := shared_pg.Connect(ctx, cfg, shared_pg.DefaultConnectionConfig())
	if err != nil {
		return nil, err
	}
	s := &Storage{db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Log.Info("connected to postgres")
	return s, nil
}

// NewWithDB wraps an open pool, the schema is expected to exist.
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Migrate creates the accounts table when it is missing.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *Storage) ValidID(id string) bool {
	return uuid.Validate(id) == nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Storage) Close(ctx context.Context) error {
	return s.db.Close()
}
