// Package backup dumps dictionary tables to NDJSON and restores them into another store.
package backup

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/infrastructure/database"
)

const (
	defaultBatchSize = 512
	formatVersion    = 1
	// headerRecordType must not collide with a table name; rows are typed by their table.
	headerRecordType = "header"
)

var errNoTablesSelected = errors.New("backup: no tables selected")

type ProgressReporter interface {
	StartTable(table string, total int)
	Increment(table string, delta int)
	FinishTable(table string)
}

type noopProgress struct{}

func (noopProgress) StartTable(string, int) {}
func (noopProgress) Increment(string, int)  {}
func (noopProgress) FinishTable(string)     {}

type Service struct {
	db        *database.DB
	sb        squirrel.StatementBuilderType
	batchSize int
	logger    logrus.FieldLogger
}

type Option func(*Service)

func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService constructs a backup service over an open store.
func NewService(db *database.DB, opts ...Option) *Service {
	var format squirrel.PlaceholderFormat = squirrel.Question
	if db.Dialect == database.DialectPostgres {
		format = squirrel.Dollar
	}
	svc := &Service{
		db:        db,
		sb:        squirrel.StatementBuilder.PlaceholderFormat(format),
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		svc.logger = l
	}
	return svc
}

type ExportOption func(*exportConfig)

type exportConfig struct {
	tables   []string
	reporter ProgressReporter
}

// WithTables restricts export to the provided table names, matched case-insensitively.
func WithTables(tables []string) ExportOption {
	return func(cfg *exportConfig) {
		if len(tables) == 0 {
			return
		}
		cfg.tables = append([]string{}, tables...)
	}
}

// WithProgressReporter registers a reporter that receives progress callbacks during export.
func WithProgressReporter(reporter ProgressReporter) ExportOption {
	return func(cfg *exportConfig) {
		cfg.reporter = reporter
	}
}

type RestoreOption func(*restoreConfig)

type restoreConfig struct {
	tables []string
}

// WithRestoreTables restricts restore to the provided table names.
func WithRestoreTables(tables []string) RestoreOption {
	return func(cfg *restoreConfig) {
		if len(tables) == 0 {
			return
		}
		cfg.tables = append([]string{}, tables...)
	}
}

type record struct {
	Type       string         `json:"type"`
	Version    int            `json:"version,omitempty"`
	ExportedAt *time.Time     `json:"exported_at,omitempty"`
	Dialect    string         `json:"dialect,omitempty"`
	Tables     []string       `json:"tables,omitempty"`
	RowCounts  map[string]int `json:"row_counts,omitempty"`
	Payload    any            `json:"payload,omitempty"`
}

type rawRecord struct {
	Type      string          `json:"type"`
	Version   int             `json:"version"`
	Tables    []string        `json:"tables"`
	RowCounts map[string]int  `json:"row_counts"`
	Payload   json.RawMessage `json:"payload"`
}

// Export writes a header record followed by one record per row. Tables are written parents
// first so a restore never violates a foreign key.
func (s *Service) Export(ctx context.Context, w io.Writer, opts ...ExportOption) error {
	cfg := exportConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	tables, err := selectTables(cfg.tables)
	if err != nil {
		return err
	}
	reporter := cfg.reporter
	if reporter == nil {
		reporter = noopProgress{}
	}

	counts := make(map[string]int, len(tables))
	for _, tbl := range tables {
		count, err := s.countTableRows(ctx, s.db.DB, tbl)
		if err != nil {
			return fmt.Errorf("count table %s: %w", tbl, err)
		}
		counts[tbl] = count
	}

	writer := bufio.NewWriter(w)
	defer writer.Flush()

	now := time.Now().UTC()
	header := record{
		Type:       headerRecordType,
		Version:    formatVersion,
		ExportedAt: &now,
		Dialect:    string(s.db.Dialect),
		Tables:     tables,
		RowCounts:  counts,
	}
	if err := writeRecord(writer, header); err != nil {
		return err
	}

	for _, tbl := range tables {
		reporter.StartTable(tbl, counts[tbl])
		if err := s.exportTable(ctx, tbl, reporter, writer); err != nil {
			return err
		}
		reporter.FinishTable(tbl)
	}
	s.logger.WithFields(logrus.Fields{"tables": len(tables)}).Info("export finished")
	return writer.Flush()
}

// Restore loads a dump into the store in one transaction. Every selected table must be empty.
func (s *Service) Restore(ctx context.Context, r io.Reader, opts ...RestoreOption) error {
	cfg := restoreConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	tables, err := selectTables(cfg.tables)
	if err != nil {
		return err
	}
	for _, tbl := range tables {
		n, err := s.countTableRows(ctx, s.db.DB, tbl)
		if err != nil {
			return fmt.Errorf("count table %s: %w", tbl, err)
		}
		if n > 0 {
			return fmt.Errorf("table %s: %w", tbl, entity.ErrStoreNotEmpty)
		}
	}
	tableFilter := make(map[string]string, len(tables))
	for _, tbl := range tables {
		tableFilter[strings.ToLower(tbl)] = tbl
	}

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

	br := bufio.NewReader(r)
	var (
		headerSeen bool
		header     rawRecord
		restored   = make(map[string]int)
	)

	for {
		line, err := br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read backup: %w", err)
		}
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var rec rawRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}

			switch rec.Type {
			case headerRecordType:
				if rec.Version != formatVersion {
					return fmt.Errorf("backup: unsupported format version %d", rec.Version)
				}
				headerSeen = true
				header = rec
			default:
				if !headerSeen {
					return errors.New("backup: row before header record")
				}
				tbl, ok := tableFilter[strings.ToLower(rec.Type)]
				if !ok {
					// Skip records for tables not requested.
					break
				}
				if len(rec.Payload) == 0 {
					return fmt.Errorf("backup: missing payload for table %s", rec.Type)
				}
				if err := s.restoreRow(ctx, tx, tbl, rec.Payload); err != nil {
					return err
				}
				restored[tbl]++
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}

	if !headerSeen {
		return errors.New("backup: missing header record")
	}
	for _, tbl := range tables {
		if want, ok := header.RowCounts[tbl]; ok && want != restored[tbl] {
			return fmt.Errorf("backup: table %s has %d rows, header says %d", tbl, restored[tbl], want)
		}
	}
	if err := s.syncSequences(ctx, tx, tables); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit restore: %w", err)
	}
	commit = true
	s.logger.WithFields(logrus.Fields{"tables": len(tables)}).Info("restore finished")
	return nil
}

func (s *Service) exportTable(ctx context.Context, table string, reporter ProgressReporter, w io.Writer) error {
	batch := uint64(s.batchSize)
	for offset := uint64(0); ; offset += batch {
		query, args, err := s.sb.Select("*").From(table).
			OrderBy(orderColumn(table)).
			Limit(batch).Offset(offset).
			ToSql()
		if err != nil {
			return fmt.Errorf("build %s query: %w", table, err)
		}
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query %s: %w", table, err)
		}
		rowCount, err := writeRows(rows, table, reporter, w)
		if err != nil {
			return err
		}
		if uint64(rowCount) < batch {
			return nil
		}
	}
}

func writeRows(rows *sql.Rows, table string, reporter ProgressReporter, w io.Writer) (int, error) {
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("columns of %s: %w", table, err)
	}
	rowCount := 0
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range dest {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return rowCount, fmt.Errorf("scan %s: %w", table, err)
		}
		rowMap := make(map[string]any, len(columns))
		for i, name := range columns {
			rowMap[strings.ToLower(name)] = convertDBValue(values[i])
		}
		if err := writeRecord(w, record{Type: table, Payload: rowMap}); err != nil {
			return rowCount, err
		}
		reporter.Increment(table, 1)
		rowCount++
	}
	if err := rows.Err(); err != nil {
		return rowCount, fmt.Errorf("iterate %s: %w", table, err)
	}
	return rowCount, nil
}

func (s *Service) restoreRow(ctx context.Context, tx *sql.Tx, table string, payload json.RawMessage) error {
	values, err := decodePayload(payload)
	if err != nil {
		return fmt.Errorf("decode payload for %s: %w", table, err)
	}
	if len(values) == 0 {
		return nil
	}
	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	slices.Sort(cols)
	args := make([]any, len(cols))
	for i, col := range cols {
		args[i] = s.convertJSONValue(col, values[col])
	}

	query, qargs, err := s.sb.Insert(table).Columns(cols...).Values(args...).ToSql()
	if err != nil {
		return fmt.Errorf("build insert into %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, query, qargs...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// syncSequences moves postgres serial counters past the restored ids.
func (s *Service) syncSequences(ctx context.Context, tx *sql.Tx, tables []string) error {
	if s.db.Dialect != database.DialectPostgres {
		return nil
	}
	for _, tbl := range tables {
		if orderColumn(tbl) != "ID" {
			continue
		}
		name := strings.ToLower(tbl)
		query := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), GREATEST(1, (SELECT COALESCE(MAX(id), 0) FROM %s)))",
			name, name,
		)
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("sync sequence for %s: %w", tbl, err)
		}
	}
	return nil
}

func (s *Service) countTableRows(ctx context.Context, db *sql.DB, table string) (int, error) {
	query, args, err := s.sb.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// selectTables keeps the requested tables in schema order. No request means every table.
func selectTables(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return slices.Clone(database.Tables), nil
	}
	set := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		n := strings.TrimSpace(strings.ToLower(name))
		if n == "" {
			continue
		}
		if !slices.ContainsFunc(database.Tables, func(t string) bool { return strings.EqualFold(t, n) }) {
			return nil, fmt.Errorf("backup: unsupported table %q", name)
		}
		set[n] = struct{}{}
	}
	if len(set) == 0 {
		return nil, errNoTablesSelected
	}
	tables := make([]string, 0, len(set))
	for _, tbl := range database.Tables {
		if _, ok := set[strings.ToLower(tbl)]; ok {
			tables = append(tables, tbl)
		}
	}
	return tables, nil
}

func orderColumn(table string) string {
	switch strings.ToLower(table) {
	case "meta":
		return "key"
	case "entry", "neentry":
		return "idseq"
	default:
		return "ID"
	}
}

func convertDBValue(value any) any {
	switch v := value.(type) {
	case []byte:
		// database/sql often returns []byte for text columns.
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}

func decodePayload(payload json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// convertJSONValue turns decoded JSON back into driver values. nokanji is the only boolean
// column; sqlite may have stored it as an integer.
func (s *Service) convertJSONValue(col string, value any) any {
	n, isNumber := value.(json.Number)
	if col == "nokanji" {
		switch {
		case isNumber:
			return n.String() != "0"
		default:
			return value
		}
	}
	if !isNumber {
		return value
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func writeRecord(w io.Writer, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return err
	}
	return nil
}
