package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/Masterminds/squirrel"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/infrastructure/database"
)

// Querier is implemented by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txCtxKey struct{}

// Store holds the connection and statement builder shared by the dictionary mappers.
type Store struct {
	db     *database.DB
	sb     squirrel.StatementBuilderType
	logger logrus.FieldLogger
	logSQL bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger for advisory messages.
func WithLogger(logger logrus.FieldLogger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithSQLLogging logs every statement at debug level.
func WithSQLLogging(enabled bool) StoreOption {
	return func(s *Store) { s.logSQL = enabled }
}

// NewStore wraps an open database.
func NewStore(db *database.DB, opts ...StoreOption) *Store {
	var format squirrel.PlaceholderFormat = squirrel.Question
	if db.Dialect == database.DialectPostgres {
		format = squirrel.Dollar
	}
	s := &Store{db: db, sb: squirrel.StatementBuilder.PlaceholderFormat(format)}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.logger = l
	}
	return s
}

// DB returns the underlying database.
func (s *Store) DB() *database.DB { return s.db }

// RunInTx executes fn inside one transaction. Mappers called with the ctx passed to fn write
// through that transaction. Any error rolls the whole unit back.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	if err := fn(context.WithValue(ctx, txCtxKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	commit = true
	return nil
}

// q returns the transaction carried by ctx, or the database.
func (s *Store) q(ctx context.Context) Querier {
	if tx, ok := ctx.Value(txCtxKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

func (s *Store) trace(query string, args []any) {
	if s.logSQL {
		s.logger.WithFields(logrus.Fields{"sql": query, "args": args}).Debug("query")
	}
}

func (s *Store) exec(ctx context.Context, b squirrel.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build statement: %w", err)
	}
	s.trace(query, args)
	_, err = s.q(ctx).ExecContext(ctx, query, args...)
	return err
}

// insertID inserts one row and returns its surrogate ID.
func (s *Store) insertID(ctx context.Context, b squirrel.InsertBuilder) (int64, error) {
	query, args, err := b.Suffix("RETURNING ID").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build statement: %w", err)
	}
	s.trace(query, args)
	var id int64
	if err := s.q(ctx).QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// insertTexts stores values as (fk, text) rows of table, in order.
func (s *Store) insertTexts(ctx context.Context, table, fk string, parent int64, values []string) error {
	if len(values) == 0 {
		return nil
	}
	b := s.sb.Insert(table).Columns(fk, "text")
	for _, v := range values {
		b = b.Values(parent, v)
	}
	if err := s.exec(ctx, b); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// scanner is satisfied by *sql.Rows and *sql.Row.
type scanner interface {
	Scan(dest ...any) error
}

// queryAll runs b and scans every row before returning, so the connection is free for the next query.
func queryAll[T any](ctx context.Context, s *Store, b squirrel.Sqlizer, scan func(scanner) (T, error)) ([]T, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build statement: %w", err)
	}
	s.trace(query, args)
	rows, err := s.q(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanInt64(sc scanner) (int64, error) {
	var v int64
	err := sc.Scan(&v)
	return v, err
}

func scanString(sc scanner) (string, error) {
	var v string
	err := sc.Scan(&v)
	return v, err
}

type keyedText struct {
	parent int64
	text   string
}

// selectTexts loads the text rows of table for every parent, grouped by parent in insertion order.
func (s *Store) selectTexts(ctx context.Context, table, fk string, parents []int64) (map[int64][]string, error) {
	if len(parents) == 0 {
		return nil, nil
	}
	b := s.sb.Select(fk, "text").From(table).Where(squirrel.Eq{fk: parents}).OrderBy("ID")
	rows, err := queryAll(ctx, s, b, func(sc scanner) (keyedText, error) {
		var kt keyedText
		err := sc.Scan(&kt.parent, &kt.text)
		return kt, err
	})
	if err != nil {
		return nil, readErr(table, err)
	}
	out := make(map[int64][]string, len(parents))
	for _, r := range rows {
		out[r.parent] = append(out[r.parent], r.text)
	}
	return out, nil
}

func (s *Store) count(ctx context.Context, table string) (int64, error) {
	var n int64
	query, args, err := s.sb.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build statement: %w", err)
	}
	s.trace(query, args)
	if err := s.q(ctx).QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, readErr(table, err)
	}
	return n, nil
}

// readErr reports a failed read as an unavailable backend, keeping the driver error in the chain.
func readErr(table string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: read %s: %w", entity.ErrBackendUnavailable, table, err)
}
