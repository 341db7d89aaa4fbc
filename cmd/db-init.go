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
	"github.com/eslsoft/jamdict/internal/infrastructure/database"
)

// dbInitCmd creates the database and brings its schema up to date
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "Create the database schema",
	Long:  "Create the configured database if needed and apply every migration. Running it again is a no-op. go-sqlite3 requires a CGO_ENABLED=1 build; use --driver sqlite for the pure Go driver.",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, _ := cmd.Flags().GetBool("list")

		c, cleanup, err := app.InitializeImport(cmd.Context())
		if err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		defer cleanup()

		db := c.Store.DB()
		where := db.Path
		if where == "" {
			where = db.Driver
		}
		cmd.Printf("schema ready: %s (%d tables)\n", where, len(database.Tables))
		if list {
			for _, table := range database.Tables {
				cmd.Println(table)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
	dbInitCmd.Flags().Bool("list", false, "print the table names")
}
