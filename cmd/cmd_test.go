package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/fixture"
	"github.com/eslsoft/jamdict/internal/infrastructure/database/dbtest"
	"github.com/eslsoft/jamdict/internal/usecase"
)

// execute runs the root command with fresh flag values.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// imported builds a database from the fixtures and returns its path.
func imported(t *testing.T) (string, fixture.Paths) {
	t.Helper()
	dbtest.RequireSQLite(t)
	dir := t.TempDir()
	paths, err := fixture.WriteFiles(dir)
	require.NoError(t, err)
	db := filepath.Join(dir, "jamdict.db")

	out, errOut, err := execute(t, "import",
		"--db", db,
		"--jmdict", paths.JMdict,
		"--kanjidic2", paths.Kanjidic2,
		"--jmnedict", paths.JMnedict,
	)
	require.NoError(t, err, errOut)
	assert.Contains(t, out, "jmdict: 7 records")
	assert.Contains(t, out, "committed")
	assert.Contains(t, errOut, "importing jmdict")
	return db, paths
}

func TestDBInit(t *testing.T) {
	dbtest.RequireSQLite(t)
	path := filepath.Join(t.TempDir(), "nested", "jamdict.db")

	out, _, err := execute(t, "db-init", "--db", path, "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "schema ready: "+path)
	assert.Contains(t, out, "NETransGloss")
	_, err = os.Stat(path)
	require.NoError(t, err)

	out, _, err = execute(t, "db-init", "--db", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "NETransGloss")
}

func TestImport_NothingToImport(t *testing.T) {
	dbtest.RequireSQLite(t)
	_, _, err := execute(t, "import", "--db", filepath.Join(t.TempDir(), "jamdict.db"))
	assert.ErrorContains(t, err, "nothing to import")
}

func TestImport_Twice(t *testing.T) {
	db, paths := imported(t)
	_, _, err := execute(t, "import", "--db", db, "--jmdict", paths.JMdict)
	assert.ErrorIs(t, err, entity.ErrStoreNotEmpty)
}

func TestLookup(t *testing.T) {
	db, _ := imported(t)

	out, _, err := execute(t, "lookup", "おみやげ", "--db", db, "--format", "json")
	require.NoError(t, err)
	var res entity.LookupResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Entries, 1)
	assert.Equal(t, int64(1002550), res.Entries[0].Idseq)
	assert.Len(t, res.Chars, 2)

	out, _, err = execute(t, "lookup", "おみやげ", "--db", db, "--components")
	require.NoError(t, err)
	assert.Contains(t, out, "[Entries]")
	assert.Contains(t, out, "お土産")
	assert.Contains(t, out, "産: 亠 厂 生 立 ノ")

	out, _, err = execute(t, "lookup", "おみやげ", "--db", db, "--compact")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(out), "\n")+1)

	out, _, err = execute(t, "lookup", "おみやげ", "--db", db, "-f", "yaml", "--no-chars")
	require.NoError(t, err)
	assert.Contains(t, out, "idseq: 1002550")
	assert.Contains(t, out, "chars: []")

	out, _, err = execute(t, "lookup", "--db", db, "--pos", "noun (common) (futsuumeishi)", "--no-chars", "-f", "json")
	require.NoError(t, err)
	res = entity.LookupResult{}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.NotEmpty(t, res.Entries)

	out, _, err = execute(t, "lookup", "--db", db, "--filter", `pos == "noun (common) (futsuumeishi)"`, "--no-chars", "-f", "json")
	require.NoError(t, err)
	res = entity.LookupResult{}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.NotEmpty(t, res.Entries)

	out, _, err = execute(t, "lookup", "鈴木", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "[Names]")
}

func TestLookup_Errors(t *testing.T) {
	db, _ := imported(t)

	_, _, err := execute(t, "lookup", "--db", db)
	assert.ErrorIs(t, err, entity.ErrEmptyQuery)

	_, _, err = execute(t, "lookup", "x", "--db", db, "--mode", "fuzzy")
	assert.ErrorContains(t, err, "unknown match mode")

	_, _, err = execute(t, "lookup", "x", "--db", db, "--filter", `pos == "n" || pos == "vi"`)
	assert.ErrorIs(t, err, entity.ErrInvalidFilter)

	_, _, err = execute(t, "lookup", "x", "--db", db, "--format", "xml")
	assert.ErrorContains(t, err, "unknown output format")

	_, _, err = execute(t, "lookup", "x", "--db", filepath.Join(t.TempDir(), "missing.db"))
	assert.ErrorIs(t, err, entity.ErrBackendUnavailable)
	assert.ErrorContains(t, err, "jamdict import")
}

func TestLookup_XML(t *testing.T) {
	paths, err := fixture.WriteFiles(t.TempDir())
	require.NoError(t, err)

	out, _, err := execute(t, "lookup", "おみやげ", "--xml",
		"--jmdict", paths.JMdict,
		"--kanjidic2", paths.Kanjidic2,
		"-f", "json",
	)
	require.NoError(t, err)
	var res entity.LookupResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Entries, 1)
	assert.Len(t, res.Chars, 2)
	assert.Empty(t, res.Names)
}

func TestInfoAndPOS(t *testing.T) {
	db, _ := imported(t)

	out, _, err := execute(t, "info", "--db", db, "-f", "json")
	require.NoError(t, err)
	var info usecase.DictionaryInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, int64(fixture.Kanjidic2Chars), info.Counts[entity.SourceKanjidic2])

	out, _, err = execute(t, "info", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, entity.MetaJMdictVersion)

	out, _, err = execute(t, "pos", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "noun (common) (futsuumeishi)\n")

	out, _, err = execute(t, "pos", "--names", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "surname\n")
}

func TestExportRestore(t *testing.T) {
	db, _ := imported(t)
	dump := filepath.Join(t.TempDir(), "dump.jsonl.gz")

	_, errOut, err := execute(t, "export", "--db", db, "--output", dump)
	require.NoError(t, err)
	assert.Contains(t, errOut, "exported to "+dump)

	restored := filepath.Join(t.TempDir(), "restored.db")
	out, _, err := execute(t, "restore", "--db", restored, "--input", dump)
	require.NoError(t, err)
	assert.Contains(t, out, "restored")

	out, _, err = execute(t, "lookup", "id#1002550", "--db", restored, "-f", "json", "--no-chars")
	require.NoError(t, err)
	var res entity.LookupResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Entries, 1)

	_, _, err = execute(t, "restore", "--db", restored, "--input", dump)
	assert.ErrorIs(t, err, entity.ErrStoreNotEmpty)
}
