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
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/jamdict/internal/app"
	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/repository"
	"github.com/eslsoft/jamdict/internal/usecase"
)

const (
	lookupFormatKey  = "lookup.format"
	lookupCompactKey = "lookup.compact"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup QUERY",
	Short: "Look up words, kanji and names",
	Long: `Look up QUERY in the dictionary.

A plain query matches kanji, kana and glosses exactly. % matches any run of
characters and ? or _ a single one. id#1002490 fetches one entry. An empty
query is allowed when --pos narrows the search.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) > 0 {
			query = args[0]
		}
		opts, err := lookupOptionsFromFlags(cmd)
		if err != nil {
			return withImportHint(err)
		}
		withComponents, _ := cmd.Flags().GetBool("components")

		c, cleanup, err := app.Initialize(cmd.Context())
		if err != nil {
			return fmt.Errorf("open dictionary: %w", withImportHint(err))
		}
		defer cleanup()

		res, err := c.Lookup.Lookup(cmd.Context(), query, opts)
		if err != nil {
			return withImportHint(err)
		}

		format := viper.GetString(lookupFormatKey)
		compact := viper.GetBool(lookupCompactKey)
		if err := render(cmd.OutOrStdout(), format, compact, res, func() string {
			return lookupText(res, compact)
		}); err != nil {
			return err
		}
		if withComponents && (format == "" || format == formatText) {
			return writeComponents(cmd.OutOrStdout(), c.Lookup, res.Chars)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lookupCmd)

	flags := lookupCmd.Flags()
	flags.Bool("strict", false, "only report kanji written in the query")
	flags.Bool("no-chars", false, "skip kanji lookup")
	flags.Bool("no-names", false, "skip the names dictionary")
	flags.StringArray("pos", nil, "keep entries with this part of speech (repeatable)")
	flags.StringArray("name-type", nil, "keep names of this type (repeatable)")
	flags.String("mode", "auto", "match mode: auto, exact or wildcard")
	flags.StringP("format", "f", formatText, "output format: text, json or yaml")
	flags.Bool("compact", false, "one-line text or unindented json")
	flags.Bool("components", false, "list the components of each kanji")
	flags.String("filter", "", `CEL filter, e.g. 'pos in ["vi", "vt"] && mode == "exact"'`)

	bindFlagToViper(lookupFormatKey, flags.Lookup("format"))
	bindFlagToViper(lookupCompactKey, flags.Lookup("compact"))
}

func lookupOptionsFromFlags(cmd *cobra.Command) (usecase.LookupOptions, error) {
	flags := cmd.Flags()
	var opts usecase.LookupOptions
	opts.Strict, _ = flags.GetBool("strict")
	opts.NoChars, _ = flags.GetBool("no-chars")
	opts.NoNames, _ = flags.GetBool("no-names")
	pos, _ := flags.GetStringArray("pos")
	opts.POS = repository.Tags{Values: normalizeTags(pos)}
	types, _ := flags.GetStringArray("name-type")
	opts.NameTypes = repository.Tags{Values: normalizeTags(types)}
	mode, _ := flags.GetString("mode")
	var err error
	if opts.Mode, err = repository.ParseMatchMode(mode); err != nil {
		return opts, err
	}
	filter, _ := flags.GetString("filter")
	if err = opts.ApplyFilter(filter); err != nil {
		return opts, err
	}
	return opts, nil
}

func lookupText(res *entity.LookupResult, compact bool) string {
	if compact {
		return res.Text(entity.DefaultTextOptions())
	}
	return res.Text(entity.TextOptions{
		WithChars: true,
		EntrySep:  "\n",
		Separator: "\n\n",
	})
}

func writeComponents(w io.Writer, uc usecase.LookupUsecase, chars []*entity.Character) error {
	for _, c := range chars {
		comps, err := uc.ComponentsOf(c.Literal)
		if err != nil {
			return fmt.Errorf("components of %s: %w", c.Literal, err)
		}
		if len(comps) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", c.Literal, strings.Join(comps, " ")); err != nil {
			return err
		}
	}
	return nil
}
