package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/ghuser/itemsapi/pkg/database"
	"github.com/ghuser/itemsapi/pkg/logger"
)

// Migrator applies embedded goose migrations to one database.
type Migrator struct {
	provider *goose.Provider
	log      logger.Logger
}

// New builds a goose provider for the given dialect and migration files.
func New(db *sql.DB, dialect database.Dialect, files fs.FS, log logger.Logger) (*Migrator, error) {
	var gd goose.Dialect
	switch dialect {
	case database.DialectPostgres:
		gd = goose.DialectPostgres
	case database.DialectSQLite:
		gd = goose.DialectSQLite3
	default:
		return nil, fmt.Errorf("migrator: unsupported dialect %q", dialect)
	}

	p, err := goose.NewProvider(gd, db, files)
	if err != nil {
		return nil, fmt.Errorf("migrator: new provider: %w", err)
	}
	return &Migrator{provider: p, log: log}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrator: up: %w", err)
	}
	for _, r := range results {
		m.log.InfoContext(ctx, "migration applied",
			"version", r.Source.Version,
			"file", r.Source.Path,
			"duration_ms", r.Duration.Milliseconds(),
		)
	}
	if len(results) == 0 {
		m.log.InfoContext(ctx, "schema up to date")
	}
	return nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	r, err := m.provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("migrator: down: %w", err)
	}
	if r != nil {
		m.log.InfoContext(ctx, "migration rolled back", "version", r.Source.Version, "file", r.Source.Path)
	}
	return nil
}

// Version returns the current schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	v, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrator: version: %w", err)
	}
	return v, nil
}

// Status reports every known migration and whether it is applied.
func (m *Migrator) Status(ctx context.Context) ([]*goose.MigrationStatus, error) {
	st, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrator: status: %w", err)
	}
	return st, nil
}
