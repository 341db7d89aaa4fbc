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
	exportOutputKey = "backup.export.output"
	exportGzipKey   = "backup.export.gzip"
	exportTablesKey = "backup.export.tables"
	exportBatchKey  = "backup.export.batch_size"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump the database tables as NDJSON",
	Long:  "Dump the dictionary tables as NDJSON. The dump can be restored into any supported driver, e.g. to move a sqlite build into postgres.",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		path := viper.GetString(exportOutputKey)
		gz := viper.GetBool(exportGzipKey)
		if path == "" {
			path = defaultDumpName(gz)
		}
		gz = compressed(path, gz)

		db, cleanup, err := database.NewConnection(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer cleanup()

		w, dump, err := createDump(path, cmd.OutOrStdout(), gz)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := dump.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close dump: %w", cerr)
			}
		}()

		opts := []backup.ExportOption{backup.WithProgressReporter(newCLIProgress(cmd.ErrOrStderr(), "exporting"))}
		if tables := tablesFromConfig(exportTablesKey); len(tables) > 0 {
			opts = append(opts, backup.WithTables(tables))
		}
		service := backup.NewService(db, backup.WithBatchSize(viper.GetInt(exportBatchKey)))
		if err := service.Export(cmd.Context(), w, opts...); err != nil {
			return fmt.Errorf("export: %w", err)
		}

		if path != stdio {
			cmd.PrintErrf("exported to %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	flags := exportCmd.Flags()
	flags.StringP("output", "o", "", "output file, - for stdout")
	flags.Bool("gzip", false, "gzip the output")
	flags.StringSlice("tables", nil, "only export these tables")
	flags.Int("batch-size", 0, "rows per query (default 512)")

	bindFlagToViper(exportOutputKey, flags.Lookup("output"))
	bindFlagToViper(exportGzipKey, flags.Lookup("gzip"))
	bindFlagToViper(exportTablesKey, flags.Lookup("tables"))
	bindFlagToViper(exportBatchKey, flags.Lookup("batch-size"))
}
