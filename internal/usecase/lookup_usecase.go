package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/repository"
)

// LookupUsecase answers dictionary queries across words, characters and names.
type LookupUsecase interface {
	Lookup(ctx context.Context, query string, opts LookupOptions) (*entity.LookupResult, error)
	LookupIter(ctx context.Context, query string, opts LookupOptions) (*LookupSeq, error)
	GetEntry(ctx context.Context, idseq int64) (*entity.Entry, error)
	GetName(ctx context.Context, idseq int64) (*entity.Entry, error)
	GetChar(ctx context.Context, literal string) (*entity.Character, error)
	AllPOS(ctx context.Context) ([]string, error)
	AllNameTypes(ctx context.Context) ([]string, error)
	ComponentsOf(char string) ([]string, error)
	CharactersWith(component string) ([]string, error)
	Info(ctx context.Context) (*DictionaryInfo, error)
}

// Dictionary is the set of stores one engine reads. Chars, Names, Meta and Components may be nil.
type Dictionary struct {
	Words      repository.EntryRepository
	Chars      repository.CharacterRepository
	Names      repository.EntryRepository
	Meta       repository.MetaRepository
	Components repository.ComponentIndex
}

// LookupOptions tunes one lookup. The zero value searches words, characters and names.
type LookupOptions struct {
	// Strict keeps characters to those written in the query.
	Strict  bool
	NoChars bool
	NoNames bool
	// POS keeps word entries with a sense carrying any of the values.
	POS repository.Tags
	// NameTypes does the same for name entries.
	NameTypes repository.Tags
	Mode      repository.MatchMode
}

// DictionaryInfo describes what an engine can serve.
type DictionaryInfo struct {
	Meta   []entity.Meta    `json:"meta"`
	Counts map[string]int64 `json:"counts"`
}

type Option func(*lookupUsecase)

// WithLogger sets the logger for advisory conditions.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(u *lookupUsecase) {
		if logger != nil {
			u.logger = logger
		}
	}
}

type lookupUsecase struct {
	dict   Dictionary
	logger logrus.FieldLogger

	words availability
	chars availability
	names availability
}

// NewLookupUsecase builds an engine over dict. Word storage is required.
func NewLookupUsecase(dict Dictionary, opts ...Option) LookupUsecase {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	u := &lookupUsecase{dict: dict, logger: discard}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// availability remembers a store once it has reported data. Negative answers are asked again
// on the next call, so an import that finishes later is picked up.
type availability struct {
	mu sync.Mutex
	ok bool
}

type availableChecker interface {
	Available(ctx context.Context) (bool, error)
}

func (a *availability) check(ctx context.Context, store availableChecker) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ok {
		return true, nil
	}
	ok, err := store.Available(ctx)
	if err != nil {
		return false, err
	}
	a.ok = ok
	return ok, nil
}

func (u *lookupUsecase) wordStore(ctx context.Context) (repository.EntryRepository, error) {
	if u.dict.Words == nil {
		return nil, fmt.Errorf("%s: %w", entity.SourceJMdict, entity.ErrBackendUnavailable)
	}
	ok, err := u.words.check(ctx, u.dict.Words)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", entity.SourceJMdict, entity.ErrBackendUnavailable)
	}
	return u.dict.Words, nil
}

// charStore returns nil when no character data can be read.
func (u *lookupUsecase) charStore(ctx context.Context) repository.CharacterRepository {
	if u.dict.Chars == nil {
		return nil
	}
	ok, err := u.chars.check(ctx, u.dict.Chars)
	if err != nil {
		u.logger.WithError(err).Warn("character store unavailable, skipping characters")
		return nil
	}
	if !ok {
		return nil
	}
	return u.dict.Chars
}

// nameStore returns nil unless the name dictionary has been imported.
func (u *lookupUsecase) nameStore(ctx context.Context) repository.EntryRepository {
	if u.dict.Names == nil {
		return nil
	}
	ok, err := u.names.check(ctx, u.dict.Names)
	if err != nil {
		u.logger.WithError(err).Warn("name store unavailable, skipping names")
		return nil
	}
	if !ok {
		return nil
	}
	return u.dict.Names
}

// prepare validates the request and builds the word query.
func (u *lookupUsecase) prepare(query string, opts LookupOptions) (repository.Query, error) {
	q := repository.Query{Text: query, Mode: opts.Mode, Tags: opts.POS.Values}
	if q.Unbounded() && len(q.Tags) == 0 {
		return q, entity.ErrEmptyQuery
	}
	u.warnBare("pos", opts.POS)
	u.warnBare("name_type", opts.NameTypes)
	return q, nil
}

func (u *lookupUsecase) warnBare(filter string, tags repository.Tags) {
	if tags.Bare {
		u.logger.WithFields(logrus.Fields{
			"filter": filter,
			"value":  tags.Values[0],
		}).Warn("filter given as a single string, matching it as one unsplit value")
	}
}

// nameQuery is nil when the names would not be narrowed by anything.
func nameQuery(q repository.Query, opts LookupOptions) *repository.Query {
	nq := repository.Query{Text: q.Text, Mode: q.Mode, Tags: opts.NameTypes.Values}
	if nq.Unbounded() && len(nq.Tags) == 0 {
		return nil
	}
	return &nq
}

func (u *lookupUsecase) Lookup(ctx context.Context, query string, opts LookupOptions) (*entity.LookupResult, error) {
	q, err := u.prepare(query, opts)
	if err != nil {
		return nil, err
	}
	words, err := u.wordStore(ctx)
	if err != nil {
		return nil, err
	}

	// empty lists, not nulls, in JSON
	result := &entity.LookupResult{Chars: []*entity.Character{}, Names: []*entity.Entry{}}
	if result.Entries, err = fetchEntries(ctx, words, q); err != nil {
		return nil, err
	}

	if !opts.NoChars {
		if chars := u.charStore(ctx); chars != nil {
			literals := queryChars(query)
			if !opts.Strict {
				literals = lo.Uniq(append(literals, kanjiOf(result.Entries)...))
			}
			if result.Chars, err = fetchChars(ctx, chars, literals); err != nil {
				return nil, err
			}
		}
	}

	if !opts.NoNames {
		if nq := nameQuery(q, opts); nq != nil {
			if names := u.nameStore(ctx); names != nil {
				if result.Names, err = fetchEntries(ctx, names, *nq); err != nil {
					return nil, err
				}
			}
		}
	}
	return result, nil
}

func fetchEntries(ctx context.Context, repo repository.EntryRepository, q repository.Query) ([]*entity.Entry, error) {
	ids, err := repo.SearchIDs(ctx, q)
	if err != nil {
		return nil, err
	}
	entries := make([]*entity.Entry, 0, len(ids))
	for _, id := range ids {
		e, err := repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func fetchChars(ctx context.Context, repo repository.CharacterRepository, literals []string) ([]*entity.Character, error) {
	chars := make([]*entity.Character, 0, len(literals))
	for _, lit := range literals {
		c, err := repo.GetChar(ctx, lit)
		if errors.Is(err, entity.ErrCharacterNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		chars = append(chars, c)
	}
	return chars, nil
}

// queryChars splits the query into distinct characters in order of appearance.
func queryChars(query string) []string {
	var out []string
	for _, r := range query {
		out = append(out, string(r))
	}
	return lo.Uniq(out)
}

// kanjiOf collects the non-kana characters of every kanji form.
func kanjiOf(entries []*entity.Entry) []string {
	var out []string
	for _, e := range entries {
		for _, k := range e.KanjiForms {
			for _, r := range k.Text {
				if !isKana(r) {
					out = append(out, string(r))
				}
			}
		}
	}
	return lo.Uniq(out)
}

func isKana(r rune) bool {
	return unicode.In(r, unicode.Hiragana, unicode.Katakana)
}

// LookupSeq is a lazy lookup result. Each sequence can be ranged over once; ranging again
// yields entity.ErrSequenceConsumed.
type LookupSeq struct {
	Entries iter.Seq2[*entity.Entry, error]
	Chars   iter.Seq2[*entity.Character, error]
	Names   iter.Seq2[*entity.Entry, error]
}

// LookupIter checks the request eagerly and defers every search until its sequence is read.
// Characters are the non-kana characters of the query, without discovery from matched entries.
func (u *lookupUsecase) LookupIter(ctx context.Context, query string, opts LookupOptions) (*LookupSeq, error) {
	q, err := u.prepare(query, opts)
	if err != nil {
		return nil, err
	}
	words, err := u.wordStore(ctx)
	if err != nil {
		return nil, err
	}

	seq := &LookupSeq{
		Entries: singlePass(entrySeq(ctx, words, q)),
		Chars:   singlePass(emptySeq[*entity.Character]()),
		Names:   singlePass(emptySeq[*entity.Entry]()),
	}
	if !opts.NoChars {
		literals := lo.Filter(queryChars(query), func(s string, _ int) bool {
			return !isKana([]rune(s)[0])
		})
		seq.Chars = singlePass(func(yield func(*entity.Character, error) bool) {
			chars := u.charStore(ctx)
			if chars == nil {
				return
			}
			for _, lit := range literals {
				c, err := chars.GetChar(ctx, lit)
				if errors.Is(err, entity.ErrCharacterNotFound) {
					continue
				}
				if !yield(c, err) || err != nil {
					return
				}
			}
		})
	}
	if nq := nameQuery(q, opts); nq != nil && !opts.NoNames {
		seq.Names = singlePass(func(yield func(*entity.Entry, error) bool) {
			names := u.nameStore(ctx)
			if names == nil {
				return
			}
			entrySeq(ctx, names, *nq)(yield)
		})
	}
	return seq, nil
}

func entrySeq(ctx context.Context, repo repository.EntryRepository, q repository.Query) iter.Seq2[*entity.Entry, error] {
	return func(yield func(*entity.Entry, error) bool) {
		ids, err := repo.SearchIDs(ctx, q)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, id := range ids {
			e, err := repo.Get(ctx, id)
			if !yield(e, err) || err != nil {
				return
			}
		}
	}
}

func emptySeq[T any]() iter.Seq2[T, error] {
	return func(func(T, error) bool) {}
}

func singlePass[T any](seq iter.Seq2[T, error]) iter.Seq2[T, error] {
	var used atomic.Bool
	return func(yield func(T, error) bool) {
		if used.Swap(true) {
			var zero T
			yield(zero, entity.ErrSequenceConsumed)
			return
		}
		seq(yield)
	}
}

func (u *lookupUsecase) GetEntry(ctx context.Context, idseq int64) (*entity.Entry, error) {
	if idseq < 0 {
		return nil, entity.ErrInvalidIdseq
	}
	words, err := u.wordStore(ctx)
	if err != nil {
		return nil, err
	}
	return words.Get(ctx, idseq)
}

func (u *lookupUsecase) GetName(ctx context.Context, idseq int64) (*entity.Entry, error) {
	if idseq < 0 {
		return nil, entity.ErrInvalidIdseq
	}
	names := u.nameStore(ctx)
	if names == nil {
		return nil, fmt.Errorf("%s: %w", entity.SourceJMnedict, entity.ErrBackendUnavailable)
	}
	return names.Get(ctx, idseq)
}

func (u *lookupUsecase) GetChar(ctx context.Context, literal string) (*entity.Character, error) {
	literal = strings.TrimSpace(literal)
	if literal == "" {
		return nil, entity.ErrCharacterNotFound
	}
	chars := u.charStore(ctx)
	if chars == nil {
		return nil, fmt.Errorf("%s: %w", entity.SourceKanjidic2, entity.ErrBackendUnavailable)
	}
	return chars.GetChar(ctx, literal)
}

func (u *lookupUsecase) AllPOS(ctx context.Context) ([]string, error) {
	words, err := u.wordStore(ctx)
	if err != nil {
		return nil, err
	}
	return words.AllTags(ctx)
}

func (u *lookupUsecase) AllNameTypes(ctx context.Context) ([]string, error) {
	names := u.nameStore(ctx)
	if names == nil {
		return nil, fmt.Errorf("%s: %w", entity.SourceJMnedict, entity.ErrBackendUnavailable)
	}
	return names.AllTags(ctx)
}

func (u *lookupUsecase) ComponentsOf(char string) ([]string, error) {
	if u.dict.Components == nil {
		return nil, nil
	}
	return u.dict.Components.ComponentsOf(char)
}

func (u *lookupUsecase) CharactersWith(component string) ([]string, error) {
	if u.dict.Components == nil {
		return nil, nil
	}
	return u.dict.Components.CharactersWith(component)
}

// Info lists the provenance rows and the size of every store that can count itself.
func (u *lookupUsecase) Info(ctx context.Context) (*DictionaryInfo, error) {
	info := &DictionaryInfo{Counts: map[string]int64{}}
	if u.dict.Meta != nil {
		meta, err := u.dict.Meta.ListMeta(ctx)
		if err != nil {
			return nil, err
		}
		info.Meta = meta
	}
	stores := []struct {
		source string
		store  any
	}{
		{entity.SourceJMdict, u.dict.Words},
		{entity.SourceKanjidic2, u.dict.Chars},
		{entity.SourceJMnedict, u.dict.Names},
	}
	for _, s := range stores {
		c, ok := s.store.(repository.Counter)
		if !ok {
			continue
		}
		n, err := c.Count(ctx)
		if err != nil {
			u.logger.WithError(err).WithField("source", s.source).Warn("count records")
			continue
		}
		info.Counts[s.source] = n
	}
	return info, nil
}
