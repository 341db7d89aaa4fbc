package database

import (
	"context"
	"fmt"
)

// LoadIntoMemory copies a sqlite store into a private in-memory database.
// The copy is a snapshot and does not see later writes to src.
func LoadIntoMemory(ctx context.Context, src *DB) (*DB, error) {
	if src.Dialect != DialectSQLite || src.Path == "" {
		return nil, fmt.Errorf("memory mode needs a sqlite file store, got %s", src.Driver)
	}
	mem, err := Open(ctx, src.Driver, ":memory:")
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, mem); err != nil {
		mem.Close()
		return nil, err
	}
	if err := copyTables(ctx, mem, src.Path); err != nil {
		mem.Close()
		return nil, err
	}
	return mem, nil
}

func copyTables(ctx context.Context, mem *DB, path string) (err error) {
	if _, err := mem.ExecContext(ctx, "ATTACH DATABASE ? AS src", path); err != nil {
		return fmt.Errorf("attach %s: %w", path, err)
	}
	defer func() {
		if _, derr := mem.ExecContext(ctx, "DETACH DATABASE src"); derr != nil && err == nil {
			err = fmt.Errorf("detach %s: %w", path, derr)
		}
	}()

	tx, err := mem.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()
	for _, table := range Tables {
		stmt := fmt.Sprintf("INSERT INTO main.%[1]s SELECT * FROM src.%[1]s", table)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("copy table %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	commit = true
	return nil
}
