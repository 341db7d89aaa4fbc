package backup

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/jamdict/internal/adapter/repository"
	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/fixture"
	"github.com/eslsoft/jamdict/internal/infrastructure/database"
	"github.com/eslsoft/jamdict/internal/infrastructure/database/dbtest"
	"github.com/eslsoft/jamdict/internal/usecase/importer"
)

type countingProgress struct {
	started  []string
	rows     map[string]int
	finished int
}

func (p *countingProgress) StartTable(table string, _ int) {
	p.started = append(p.started, table)
}

func (p *countingProgress) Increment(table string, delta int) {
	if p.rows == nil {
		p.rows = map[string]int{}
	}
	p.rows[table] += delta
}

func (p *countingProgress) FinishTable(string) { p.finished++ }

func seeded(t *testing.T) *database.DB {
	t.Helper()
	db := dbtest.Open(t)
	paths, err := fixture.WriteFiles(t.TempDir())
	require.NoError(t, err)
	_, err = importer.NewService(repository.NewStore(db)).Import(context.Background(), importer.Sources{
		JMdict:    paths.JMdict,
		Kanjidic2: paths.Kanjidic2,
		JMnedict:  paths.JMnedict,
	})
	require.NoError(t, err)
	return db
}

func TestServiceExportRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := seeded(t)

	var buf bytes.Buffer
	progress := &countingProgress{}
	require.NoError(t, NewService(src, WithBatchSize(3)).Export(ctx, &buf, WithProgressReporter(progress)))
	assert.Equal(t, database.Tables, progress.started)
	assert.Equal(t, len(database.Tables), progress.finished)
	assert.Equal(t, fixture.JMdictEntries, progress.rows["Entry"])

	dst := dbtest.Open(t)
	require.NoError(t, NewService(dst).Restore(ctx, bytes.NewReader(buf.Bytes())))

	srcStore, dstStore := repository.NewStore(src), repository.NewStore(dst)
	want, err := repository.NewJMdictStore(srcStore).Get(ctx, 1002550)
	require.NoError(t, err)
	got, err := repository.NewJMdictStore(dstStore).Get(ctx, 1002550)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	wantChar, err := repository.NewCharacterStore(srcStore).GetChar(ctx, "屠")
	require.NoError(t, err)
	gotChar, err := repository.NewCharacterStore(dstStore).GetChar(ctx, "屠")
	require.NoError(t, err)
	assert.Equal(t, wantChar, gotChar)

	wantMeta, err := repository.NewMetaStore(srcStore).ListMeta(ctx)
	require.NoError(t, err)
	gotMeta, err := repository.NewMetaStore(dstStore).ListMeta(ctx)
	require.NoError(t, err)
	assert.Equal(t, wantMeta, gotMeta)

	n, err := repository.NewJMnedictStore(dstStore).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(fixture.JMnedictEntries), n)
}

func TestServiceExportTablesFilter(t *testing.T) {
	ctx := context.Background()
	src := seeded(t)

	var buf bytes.Buffer
	require.NoError(t, NewService(src).Export(ctx, &buf, WithTables([]string{"meta", "ENTRY"})))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Contains(t, lines[0], `"type":"header"`)
	assert.Contains(t, lines[0], `"tables":["meta","Entry"]`)
	for _, line := range lines[1:] {
		assert.True(t, strings.Contains(line, `"type":"meta"`) || strings.Contains(line, `"type":"Entry"`), line)
	}

	_, err := selectTables([]string{"words"})
	assert.Error(t, err)
	_, err = selectTables([]string{" ", ""})
	assert.ErrorIs(t, err, errNoTablesSelected)
}

func TestServiceRestoreMetaTableRows(t *testing.T) {
	ctx := context.Background()
	input := `{"type":"header","version":1,"tables":["meta"],"row_counts":{"meta":2}}
{"type":"meta","payload":{"key":"jmdict.version","value":"1.08"}}
{"type":"meta","payload":{"key":"generator","value":"jamdict"}}
`
	dst := dbtest.Open(t)
	require.NoError(t, NewService(dst).Restore(ctx, strings.NewReader(input)))

	got, err := repository.NewMetaStore(repository.NewStore(dst)).ListMeta(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []entity.Meta{
		{Key: "jmdict.version", Value: "1.08"},
		{Key: "generator", Value: "jamdict"},
	}, got)
}

func TestServiceRestoreRefusesPopulatedStore(t *testing.T) {
	ctx := context.Background()
	src := seeded(t)
	var buf bytes.Buffer
	require.NoError(t, NewService(src).Export(ctx, &buf))

	err := NewService(src).Restore(ctx, bytes.NewReader(buf.Bytes()))
	assert.ErrorIs(t, err, entity.ErrStoreNotEmpty)
}

func TestServiceRestoreRejectsBadStreams(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no header", `{"type":"Entry","payload":{"idseq":1}}`, "row before header"},
		{"meta row first", `{"type":"meta","payload":{"key":"jmdict.version","value":"1.08"}}`, "row before header"},
		{"empty", "", "missing header"},
		{"version", `{"type":"header","version":9}`, "unsupported format version"},
		{"count", `{"type":"header","version":1,"row_counts":{"Entry":2}}
{"type":"Entry","payload":{"idseq":1}}`, "header says 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := dbtest.Open(t)
			err := NewService(dst).Restore(ctx, strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)

			n, err := repository.NewJMdictStore(repository.NewStore(dst)).Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestNewServicePlaceholderFormat(t *testing.T) {
	svc := NewService(&database.DB{Dialect: database.DialectPostgres})
	query, _, err := svc.sb.Delete("meta").Where("key = ?", "k").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM meta WHERE key = $1", query)

	svc = NewService(&database.DB{Dialect: database.DialectSQLite})
	query, _, err = svc.sb.Delete("meta").Where("key = ?", "k").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM meta WHERE key = ?", query)
}
