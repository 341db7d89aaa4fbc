// Package memory serves lookups straight from parsed dictionary documents, without a database.
package memory

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/repository"
)

// EntryIndex holds JMdict or JMnedict entries in document order.
type EntryIndex struct {
	source  string
	entries []*entity.Entry
	byID    map[int64]int
	byText  map[string][]int
}

var _ repository.EntryRepository = (*EntryIndex)(nil)

// NewEntryIndex indexes entries by identifier and by every searchable text.
func NewEntryIndex(source string, entries []*entity.Entry) *EntryIndex {
	x := &EntryIndex{
		source:  source,
		entries: entries,
		byID:    make(map[int64]int, len(entries)),
		byText:  make(map[string][]int, len(entries)*3),
	}
	for pos, e := range entries {
		x.byID[e.Idseq] = pos
		for _, t := range lo.Uniq(x.texts(e)) {
			x.byText[t] = append(x.byText[t], pos)
		}
	}
	return x
}

func (x *EntryIndex) Source() string { return x.source }

func (x *EntryIndex) Len() int { return len(x.entries) }

func (x *EntryIndex) Count(context.Context) (int64, error) { return int64(len(x.entries)), nil }

// texts lists what a query text is compared against: forms, glosses and, for names, name types.
func (x *EntryIndex) texts(e *entity.Entry) []string {
	var out []string
	for _, k := range e.KanjiForms {
		out = append(out, k.Text)
	}
	for _, k := range e.KanaForms {
		out = append(out, k.Text)
	}
	for _, s := range e.Senses {
		for _, g := range s.Gloss {
			out = append(out, g.Text)
		}
		if s.IsName() {
			out = append(out, s.NameTypes...)
		}
	}
	return out
}

func tagsOf(s *entity.Sense) []string {
	if s.IsName() {
		return s.NameTypes
	}
	return s.POS
}

func (x *EntryIndex) Available(context.Context) (bool, error) {
	return len(x.entries) > 0, nil
}

func (x *EntryIndex) Get(_ context.Context, idseq int64) (*entity.Entry, error) {
	pos, ok := x.byID[idseq]
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", x.source, idseq, entity.ErrEntryNotFound)
	}
	return x.entries[pos], nil
}

// SearchIDs returns matching idseqs in document order. Matching follows the SQL stores: exact
// comparison, or a LIKE-style pattern that ignores ASCII case.
func (x *EntryIndex) SearchIDs(ctx context.Context, q repository.Query) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id, ok := q.ID(); ok {
		if _, found := x.byID[id]; found {
			return []int64{id}, nil
		}
		return nil, nil
	}

	var candidates []int
	switch {
	case q.Unbounded() && len(q.Tags) > 0:
		candidates = lo.Range(len(x.entries))
	case q.Wildcard():
		re, err := likeRegexp(q.Pattern())
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", q.Text, err)
		}
		for pos, e := range x.entries {
			if slices.ContainsFunc(x.texts(e), re.MatchString) {
				candidates = append(candidates, pos)
			}
		}
	default:
		candidates = x.byText[q.Text]
	}

	var ids []int64
	for _, pos := range candidates {
		e := x.entries[pos]
		if len(q.Tags) > 0 && !hasAnyTag(e, q.Tags) {
			continue
		}
		ids = append(ids, e.Idseq)
	}
	return ids, nil
}

func hasAnyTag(e *entity.Entry, tags []string) bool {
	return lo.SomeBy(e.Senses, func(s *entity.Sense) bool {
		return lo.Some(tagsOf(s), tags)
	})
}

// likeRegexp compiles a LIKE pattern: % is any run, _ is one character.
func likeRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`(?s)^`)
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(`.*`)
		case '_':
			b.WriteString(`.`)
		default:
			if r < 0x80 {
				b.WriteString(`(?i:` + regexp.QuoteMeta(string(r)) + `)`)
			} else {
				b.WriteString(regexp.QuoteMeta(string(r)))
			}
		}
	}
	b.WriteString(`$`)
	return regexp.Compile(b.String())
}

func (x *EntryIndex) AllTags(context.Context) ([]string, error) {
	var tags []string
	for _, e := range x.entries {
		for _, s := range e.Senses {
			tags = append(tags, tagsOf(s)...)
		}
	}
	tags = lo.Uniq(tags)
	slices.Sort(tags)
	return tags, nil
}
