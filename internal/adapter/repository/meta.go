package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/eslsoft/jamdict/internal/entity"
)

// MetaStore reads and writes the provenance key/value table.
type MetaStore struct {
	*Store
}

func NewMetaStore(s *Store) *MetaStore { return &MetaStore{Store: s} }

// SetMeta inserts or replaces one key.
func (m *MetaStore) SetMeta(ctx context.Context, key, value string) error {
	b := m.sb.Insert("meta").Columns("key", "value").Values(key, value).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = excluded.value")
	if err := m.exec(ctx, b); err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

func (m *MetaStore) GetMeta(ctx context.Context, key string) (string, bool, error) {
	query, args, err := m.sb.Select("value").From("meta").Where(squirrel.Eq{"key": key}).ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build statement: %w", err)
	}
	m.trace(query, args)
	var value string
	if err := m.q(ctx).QueryRowContext(ctx, query, args...).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, readErr("meta", err)
	}
	return value, true, nil
}

func (m *MetaStore) ListMeta(ctx context.Context) ([]entity.Meta, error) {
	b := m.sb.Select("key", "value").From("meta").OrderBy("key")
	rows, err := queryAll(ctx, m.Store, b, func(sc scanner) (entity.Meta, error) {
		var meta entity.Meta
		err := sc.Scan(&meta.Key, &meta.Value)
		return meta, err
	})
	if err != nil {
		return nil, readErr("meta", err)
	}
	return rows, nil
}

// hasMeta reports whether key is present with a non-empty value.
func (m *MetaStore) hasMeta(ctx context.Context, key string) (bool, error) {
	v, ok, err := m.GetMeta(ctx, key)
	if err != nil {
		return false, err
	}
	return ok && v != "", nil
}
