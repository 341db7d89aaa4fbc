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
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eslsoft/jamdict/internal/app"
	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/usecase"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show dictionary versions and record counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		c, cleanup, err := app.Initialize(cmd.Context())
		if err != nil {
			return fmt.Errorf("open dictionary: %w", withImportHint(err))
		}
		defer cleanup()

		info, err := c.Lookup.Info(cmd.Context())
		if err != nil {
			return withImportHint(err)
		}
		return render(cmd.OutOrStdout(), format, false, info, func() string {
			return infoText(info)
		})
	},
}

var posCmd = &cobra.Command{
	Use:   "pos",
	Short: "List the part-of-speech values usable with --pos",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, _ := cmd.Flags().GetBool("names")

		c, cleanup, err := app.Initialize(cmd.Context())
		if err != nil {
			return fmt.Errorf("open dictionary: %w", withImportHint(err))
		}
		defer cleanup()

		list := c.Lookup.AllPOS
		if names {
			list = c.Lookup.AllNameTypes
		}
		tags, err := list(cmd.Context())
		if err != nil {
			return withImportHint(err)
		}
		for _, tag := range tags {
			cmd.Println(tag)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(posCmd)

	infoCmd.Flags().StringP("format", "f", formatText, "output format: text, json or yaml")
	posCmd.Flags().Bool("names", false, "list name types of the names dictionary instead")
}

func infoText(info *usecase.DictionaryInfo) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, m := range info.Meta {
		fmt.Fprintf(tw, "%s\t%s\n", m.Key, m.Value)
	}
	if len(info.Meta) > 0 {
		fmt.Fprintln(tw)
	}
	sources := make([]string, 0, len(info.Counts))
	for source := range info.Counts {
		sources = append(sources, source)
	}
	slices.Sort(sources)
	for _, source := range sources {
		fmt.Fprintf(tw, "%s\t%d\n", source, info.Counts[source])
	}
	if err := tw.Flush(); err != nil {
		return err.Error()
	}
	if b.Len() == 0 {
		return "empty dictionary"
	}
	return strings.TrimRight(b.String(), "\n")
}

// withImportHint points at the fix when no dictionary has been built yet.
func withImportHint(err error) error {
	if errors.Is(err, entity.ErrBackendUnavailable) {
		return fmt.Errorf("%w; run \"jamdict import\" first or pass --xml", err)
	}
	return err
}
