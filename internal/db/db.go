package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gitswift/gitswift/internal/utils"
	"github.com/jmoiron/sqlx"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const defaultPragma = `
PRAGMA journal_mode=WAL;
PRAGMA busy_timeout=5000;
PRAGMA foreign_keys=ON;
PRAGMA synchronous=NORMAL;
`

type config struct {
	path string
}

type Option func(*config)

// WithPath sets the database file. MemoryPath keeps everything in memory.
func WithPath(path string) Option {
	return func(c *config) {
		c.path = path
	}
}

// Open connects to SQLite with the driver selected at build time.
func Open(opts ...Option) (*sqlx.DB, error) {
	cfg := &config{path: MemoryPath}
	for _, opt := range opts {
		opt(cfg)
	}

	dsn := MemoryPath
	if cfg.path != MemoryPath {
		if err := utils.EnsureParent(cfg.path); err != nil {
			return nil, fmt.Errorf("ensure parent directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_txlock=immediate&mode=rwc", cfg.path)
	}

	slog.Debug("db", "driver", driverID, "path", cfg.path)
	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// one writer at a time; a second connection to ":memory:" would also see
	// a different, empty database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(defaultPragma); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	return db, nil
}

// Migrate applies the statements in migrations that have not run yet,
// tracking progress in PRAGMA user_version. Each step runs in its own transaction.
func Migrate(ctx context.Context, db *sqlx.DB, migrations []string) error {
	var current int
	if err := db.GetContext(ctx, &current, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if current > len(migrations) {
		return fmt.Errorf("schema version %d is newer than this build (%d)", current, len(migrations))
	}

	for i := current; i < len(migrations); i++ {
		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		// PRAGMA does not take bind parameters
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: set version: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: commit: %w", i+1, err)
		}
		slog.Debug("db", "op", "migrate", "version", i+1)
	}
	return nil
}
