package entity

import (
	"fmt"
	"strings"
)

// LookupResult is the combined answer of one lookup: words, kanji characters and names.
type LookupResult struct {
	Entries []*Entry     `json:"entries"`
	Chars   []*Character `json:"chars"`
	Names   []*Entry     `json:"names"`
}

// TextOptions controls LookupResult.Text.
type TextOptions struct {
	Compact   bool
	NoID      bool
	WithChars bool
	EntrySep  string
	Separator string
}

// DefaultTextOptions matches the compact one-line rendering.
func DefaultTextOptions() TextOptions {
	return TextOptions{Compact: true, WithChars: true, EntrySep: "。", Separator: " | "}
}

// Empty reports whether nothing was found.
func (r *LookupResult) Empty() bool {
	return len(r.Entries) == 0 && len(r.Chars) == 0 && len(r.Names) == 0
}

// Text renders the result as [Entries] / [Chars] / [Names] sections.
func (r *LookupResult) Text(opts TextOptions) string {
	var out []string
	if len(r.Entries) > 0 {
		out = append(out, "[Entries]", opts.EntrySep, numbered(r.Entries, opts))
	} else if !opts.Compact {
		out = append(out, "No entries")
	}
	if len(r.Chars) > 0 && opts.WithChars {
		texts := make([]string, len(r.Chars))
		for i, c := range r.Chars {
			if opts.Compact {
				texts[i] = c.String()
			} else {
				texts[i] = c.Summary()
			}
		}
		if len(out) > 0 {
			out = append(out, opts.Separator)
		}
		out = append(out, "[Chars]", opts.EntrySep, strings.Join(texts, ", "))
	}
	if len(r.Names) > 0 {
		if len(out) > 0 {
			out = append(out, opts.Separator)
		}
		out = append(out, "[Names]", opts.EntrySep, numbered(r.Names, opts))
	}
	if len(out) == 0 {
		return "Found nothing"
	}
	return strings.Join(out, "")
}

func (r *LookupResult) String() string {
	opts := DefaultTextOptions()
	opts.Compact = false
	return r.Text(opts)
}

func numbered(entries []*Entry, opts TextOptions) string {
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = fmt.Sprintf("#%d: %s", i+1, e.Text(opts.Compact, opts.NoID))
	}
	return strings.Join(texts, opts.EntrySep)
}
