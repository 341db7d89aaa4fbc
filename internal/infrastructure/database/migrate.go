package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// Tables lists every dictionary table, parents before children.
var Tables = []string{
	"meta",
	// JMdict
	"Entry", "Link", "Bib", "Etym", "Audit",
	"Kanji", "KJI", "KJP",
	"Kana", "KNI", "KNP", "KNR",
	"Sense", "stagk", "stagr", "pos", "xref", "antonym", "field", "misc", "SenseInfo", "SenseSource", "dialect", "SenseGloss",
	// KANJIDIC2
	"kd2_character", "codepoint", "radical", "stroke_miscount", "variant", "rad_name", "dic_ref", "query_code", "nanori",
	"rm_group", "reading", "meaning",
	// JMnedict
	"NEEntry", "NEKanji", "NEKJI", "NEKJP", "NEKana", "NEKNI", "NEKNP", "NEKNR",
	"NETranslation", "NETransType", "NETransXRef", "NETransGloss",
}

// Migrate creates the dictionary schema. Running it on an up-to-date store is a no-op.
func Migrate(ctx context.Context, db *DB) error {
	dir, gooseDialect := "migrations/sqlite", goose.DialectSQLite3
	if db.Dialect == DialectPostgres {
		dir, gooseDialect = "migrations/postgres", goose.DialectPostgres
	}
	fsys, err := fs.Sub(migrationFS, dir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	provider, err := goose.NewProvider(gooseDialect, db.DB, fsys)
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
