package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/infrastructure/config"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"
	_ "github.com/mattn/go-sqlite3"    // registers "sqlite3"
	_ "modernc.org/sqlite"             // registers "sqlite"
)

// Dialect is the SQL flavour spoken by a driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DialectOf maps a database/sql driver name to its dialect.
func DialectOf(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return DialectSQLite, nil
	case "pgx", "postgres":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// DB is an open dictionary store.
type DB struct {
	*sql.DB
	Driver  string
	Dialect Dialect
	// Path is the sqlite file backing the store; empty for postgres and in-memory stores.
	Path string
}

// OpenOption tunes Open.
type OpenOption func(*openConfig)

type openConfig struct {
	create bool
}

// WithCreate allows Open to create a missing sqlite file.
func WithCreate() OpenOption {
	return func(c *openConfig) { c.create = true }
}

// NewConnection opens the store configured in cfg.
func NewConnection(ctx context.Context, cfg *config.Config, opts ...OpenOption) (*DB, func(), error) {
	driver, err := cfg.DatabaseDriver()
	if err != nil {
		return nil, nil, fmt.Errorf("determine database driver: %w", err)
	}
	dsn, err := cfg.DatabaseURL()
	if err != nil {
		return nil, nil, fmt.Errorf("determine database dsn: %w", err)
	}
	db, err := Open(ctx, driver, dsn, opts...)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.Memory && db.Dialect == DialectSQLite {
		mem, err := LoadIntoMemory(ctx, db)
		db.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("load store into memory: %w", err)
		}
		db = mem
	}
	return db, func() { db.Close() }, nil
}

// Open connects to a store. For sqlite a missing file is reported as entity.ErrBackendUnavailable
// unless WithCreate is given.
func Open(ctx context.Context, driver, dsn string, opts ...OpenOption) (*DB, error) {
	var oc openConfig
	for _, opt := range opts {
		opt(&oc)
	}
	dialect, err := DialectOf(driver)
	if err != nil {
		return nil, err
	}

	path := ""
	if dialect == DialectSQLite && !isMemoryDSN(dsn) {
		path = sqliteFile(dsn)
		if _, statErr := os.Stat(path); statErr != nil {
			if !errors.Is(statErr, os.ErrNotExist) || !oc.create {
				return nil, fmt.Errorf("%w: %s", entity.ErrBackendUnavailable, path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	rawDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", entity.ErrBackendUnavailable, driver, err)
	}
	if dialect == DialectSQLite {
		// 单连接: PRAGMA 与内存库都绑定在连接上
		rawDB.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rawDB.PingContext(pingCtx); err != nil {
		rawDB.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", entity.ErrBackendUnavailable, driver, err)
	}
	if dialect == DialectSQLite {
		if _, err := rawDB.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			rawDB.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}
	return &DB{DB: rawDB, Driver: driver, Dialect: dialect, Path: path}, nil
}

// sqliteFile strips the URI scheme and query parameters from a sqlite DSN.
func sqliteFile(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

func isMemoryDSN(dsn string) bool {
	return strings.HasPrefix(sqliteFile(dsn), ":memory:") || strings.Contains(dsn, "mode=memory")
}

// RelaxDurability turns off fsync and keeps the journal in memory until the next commit.
// It is meant for bulk import only.
func (d *DB) RelaxDurability(ctx context.Context) (restore func(context.Context) error, err error) {
	if d.Dialect != DialectSQLite {
		return func(context.Context) error { return nil }, nil
	}
	for _, pragma := range []string{"PRAGMA synchronous = OFF", "PRAGMA journal_mode = MEMORY"} {
		if _, err := d.ExecContext(ctx, pragma); err != nil {
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return func(ctx context.Context) error {
		for _, pragma := range []string{"PRAGMA synchronous = FULL", "PRAGMA journal_mode = DELETE"} {
			if _, err := d.ExecContext(ctx, pragma); err != nil {
				return fmt.Errorf("%s: %w", pragma, err)
			}
		}
		return nil
	}, nil
}
