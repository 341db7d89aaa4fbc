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
	"context"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jamdict",
	Short: "Japanese dictionary over JMdict, KANJIDIC2 and JMnedict",
	Long: `jamdict looks up Japanese words, kanji and names.

Build a database once with "jamdict import", then query it with
"jamdict lookup" or serve it over HTTP with "jamdict serve". With --xml
the source documents are parsed on startup instead.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("db", "", "sqlite database path (default ~/.jamdict/data/jamdict.db)")
	flags.String("driver", "", "database driver: sqlite3, sqlite, pgx or postgres")
	flags.String("db-url", "", "postgres connection URL")
	flags.Bool("memory", false, "copy the sqlite database into memory before querying")
	flags.Bool("log-sql", false, "log every SQL statement at debug level")
	flags.String("jmdict", "", "JMdict XML file (.gz and .xz are decompressed)")
	flags.String("kanjidic2", "", "KANJIDIC2 XML file")
	flags.String("jmnedict", "", "JMnedict XML file")
	flags.String("kradfile", "", "KRADFILE-U component file (default embedded)")
	flags.Bool("xml", false, "serve lookups from the XML files instead of the database")
	flags.String("log-level", "", "log level (default info)")
	flags.String("log-format", "", "log format: json or text")

	bindRootConfig()
}

func bindRootConfig() {
	flags := rootCmd.PersistentFlags()
	bindFlagToViper("database.path", flags.Lookup("db"))
	bindFlagToViper("database.driver", flags.Lookup("driver"))
	bindFlagToViper("database.url", flags.Lookup("db-url"))
	bindFlagToViper("database.memory", flags.Lookup("memory"))
	bindFlagToViper("database.log_sql", flags.Lookup("log-sql"))
	bindFlagToViper("data.jmdict_xml", flags.Lookup("jmdict"))
	bindFlagToViper("data.kanjidic2_xml", flags.Lookup("kanjidic2"))
	bindFlagToViper("data.jmnedict_xml", flags.Lookup("jmnedict"))
	bindFlagToViper("data.kradfile", flags.Lookup("kradfile"))
	bindFlagToViper("data.use_xml", flags.Lookup("xml"))
	bindFlagToViper("log.level", flags.Lookup("log-level"))
	bindFlagToViper("log.format", flags.Lookup("log-format"))
}
