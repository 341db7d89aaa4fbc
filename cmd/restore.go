/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/jamdict/internal/infrastructure/config"
	"github.com/eslsoft/jamdict/internal/infrastructure/database"
	"github.com/eslsoft/jamdict/internal/usecase/backup"
)

const (
	restoreInputKey  = "backup.restore.input"
	restoreGzipKey   = "backup.restore.gzip"
	restoreTablesKey = "backup.restore.tables"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Load an NDJSON dump produced by export",
	Long:  "Load a dump produced by export into an empty database. The schema is created when missing.",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		path := viper.GetString(restoreInputKey)
		if path == "" {
			return fmt.Errorf("pass the dump with --input, or - for stdin")
		}

		r, dump, err := openDump(path, cmd.InOrStdin(), compressed(path, viper.GetBool(restoreGzipKey)))
		if err != nil {
			return err
		}
		defer func() {
			if cerr := dump.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close dump: %w", cerr)
			}
		}()

		db, cleanup, err := database.NewConnection(ctx, cfg, database.WithCreate())
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer cleanup()
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		var opts []backup.RestoreOption
		if tables := tablesFromConfig(restoreTablesKey); len(tables) > 0 {
			opts = append(opts, backup.WithRestoreTables(tables))
		}
		if err := backup.NewService(db).Restore(ctx, r, opts...); err != nil {
			return fmt.Errorf("restore: %w", err)
		}

		cmd.Printf("restored %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)

	flags := restoreCmd.Flags()
	flags.StringP("input", "i", "", "dump file, - for stdin")
	flags.Bool("gzip", false, "the dump is gzip compressed")
	flags.StringSlice("tables", nil, "only restore these tables")

	bindFlagToViper(restoreInputKey, flags.Lookup("input"))
	bindFlagToViper(restoreGzipKey, flags.Lookup("gzip"))
	bindFlagToViper(restoreTablesKey, flags.Lookup("tables"))
}
