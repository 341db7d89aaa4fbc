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

	"github.com/eslsoft/jamdict/internal/app"
	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/usecase/importer"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Build the database from JMdict, KANJIDIC2 and JMnedict XML files",
	Long: `Parse the XML documents given by --jmdict, --kanjidic2 and --jmnedict and
write them into the configured database in a single transaction. Any
document may be omitted. A dictionary that is already present is refused.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		c, cleanup, err := app.InitializeImport(ctx)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer cleanup()

		sources := importer.Sources{
			JMdict:    c.Config.Data.JMdictXML,
			Kanjidic2: c.Config.Data.Kanjidic2XML,
			JMnedict:  c.Config.Data.JMnedictXML,
		}
		if sources == (importer.Sources{}) {
			return fmt.Errorf("nothing to import: pass --jmdict, --kanjidic2 or --jmnedict")
		}

		svc := importer.NewService(c.Store,
			importer.WithBatchSize(c.Config.Import.BatchSize),
			importer.WithLogger(c.Logger),
			importer.WithProgressReporter(newCLIProgress(cmd.ErrOrStderr(), "importing")),
		)
		report, err := svc.Import(ctx, sources)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}

		for _, source := range []string{entity.SourceJMdict, entity.SourceKanjidic2, entity.SourceJMnedict} {
			if n, ok := report.Counts[source]; ok {
				cmd.Printf("%s: %d records\n", source, n)
			}
		}
		cmd.Printf("import %s committed\n", report.RunID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().Int("batch-size", 0, "records between progress reports (default 1000)")

	bindFlagToViper("import.batch_size", importCmd.Flags().Lookup("batch-size"))
}
