package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/repository"
)

// mockEntries serves a fixed set of entries; every query returns ids as configured.
type mockEntries struct {
	entries   map[int64]*entity.Entry
	ids       []int64
	tags      []string
	available bool
	searchErr error
	availErr  error
	queries   []repository.Query
}

func (m *mockEntries) SearchIDs(ctx context.Context, q repository.Query) ([]int64, error) {
	m.queries = append(m.queries, q)
	return m.ids, m.searchErr
}

func (m *mockEntries) Get(ctx context.Context, idseq int64) (*entity.Entry, error) {
	e, ok := m.entries[idseq]
	if !ok {
		return nil, entity.ErrEntryNotFound
	}
	return e, nil
}

func (m *mockEntries) AllTags(ctx context.Context) ([]string, error) { return m.tags, nil }

func (m *mockEntries) Available(ctx context.Context) (bool, error) { return m.available, m.availErr }

func (m *mockEntries) Count(ctx context.Context) (int64, error) { return int64(len(m.entries)), nil }

type mockChars struct {
	chars     map[string]*entity.Character
	requested []string
}

func (m *mockChars) GetChar(ctx context.Context, literal string) (*entity.Character, error) {
	m.requested = append(m.requested, literal)
	c, ok := m.chars[literal]
	if !ok {
		return nil, entity.ErrCharacterNotFound
	}
	return c, nil
}

func (m *mockChars) Available(ctx context.Context) (bool, error) { return len(m.chars) > 0, nil }

type mockComponents struct{}

func (mockComponents) ComponentsOf(char string) ([]string, error) {
	if char == "土" {
		return []string{"土"}, nil
	}
	return nil, nil
}

func (mockComponents) CharactersWith(component string) ([]string, error) {
	return []string{"土", "寺"}, nil
}

func omiyage() *entity.Entry {
	return &entity.Entry{
		Idseq:      1002550,
		KanjiForms: []*entity.KanjiForm{{Text: "お土産"}, {Text: "御土産"}},
		KanaForms:  []*entity.KanaForm{{Text: "おみやげ"}},
		Senses:     []*entity.Sense{{Gloss: []entity.Gloss{{Lang: "eng", Text: "souvenir"}}}},
	}
}

func miyage() *entity.Entry {
	return &entity.Entry{
		Idseq:     5223680,
		KanaForms: []*entity.KanaForm{{Text: "みやげ"}},
		Senses:    []*entity.Sense{{Kind: entity.SenseKindName, NameTypes: []string{"fem"}}},
	}
}

func newFixture() (*mockEntries, *mockChars, *mockEntries) {
	words := &mockEntries{
		entries:   map[int64]*entity.Entry{1002550: omiyage()},
		ids:       []int64{1002550},
		tags:      []string{"noun (common) (futsuumeishi)"},
		available: true,
	}
	chars := &mockChars{chars: map[string]*entity.Character{
		"土": {Literal: "土", StrokeCount: 3},
		"産": {Literal: "産", StrokeCount: 11},
	}}
	names := &mockEntries{
		entries:   map[int64]*entity.Entry{5223680: miyage()},
		ids:       []int64{5223680},
		tags:      []string{"fem"},
		available: true,
	}
	return words, chars, names
}

func literals(chars []*entity.Character) []string {
	out := make([]string, len(chars))
	for i, c := range chars {
		out[i] = c.Literal
	}
	return out
}

func TestLookup_DiscoversCharactersFromKanjiForms(t *testing.T) {
	words, chars, names := newFixture()
	uc := NewLookupUsecase(Dictionary{Words: words, Chars: chars, Names: names})

	res, err := uc.Lookup(context.Background(), "おみやげ", LookupOptions{})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, []string{"土", "産"}, literals(res.Chars))
	require.Len(t, res.Names, 1)
	assert.Equal(t, int64(5223680), res.Names[0].Idseq)

	// query characters first, then kanji from hits; kana never asked for from hits
	assert.Equal(t, []string{"お", "み", "や", "げ", "土", "産", "御"}, chars.requested)
}

func TestLookup_StrictKeepsQueryCharacters(t *testing.T) {
	words, chars, _ := newFixture()
	uc := NewLookupUsecase(Dictionary{Words: words, Chars: chars})

	res, err := uc.Lookup(context.Background(), "おみやげ", LookupOptions{Strict: true})
	require.NoError(t, err)
	assert.Empty(t, res.Chars)

	res, err = uc.Lookup(context.Background(), "お土産", LookupOptions{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"土", "産"}, literals(res.Chars))
}

func TestLookup_EmptyQueryRejected(t *testing.T) {
	words, _, _ := newFixture()
	uc := NewLookupUsecase(Dictionary{Words: words})
	ctx := context.Background()

	_, err := uc.Lookup(ctx, "", LookupOptions{})
	assert.ErrorIs(t, err, entity.ErrEmptyQuery)
	_, err = uc.Lookup(ctx, "%", LookupOptions{})
	assert.ErrorIs(t, err, entity.ErrEmptyQuery)
	_, err = uc.LookupIter(ctx, "", LookupOptions{})
	assert.ErrorIs(t, err, entity.ErrEmptyQuery)

	_, err = uc.Lookup(ctx, "", LookupOptions{POS: repository.Tags{Values: []string{"x"}}})
	assert.NoError(t, err)
	_, err = uc.Lookup(ctx, "%", LookupOptions{Mode: repository.MatchExact})
	assert.NoError(t, err)
	assert.Empty(t, words.queries[0].Text)
	assert.Equal(t, []string{"x"}, words.queries[0].Tags)
}

func TestLookup_BareFilterWarns(t *testing.T) {
	words, _, _ := newFixture()
	logger, hook := test.NewNullLogger()
	uc := NewLookupUsecase(Dictionary{Words: words}, WithLogger(logger))

	pos, err := repository.TagsOf("noun")
	require.NoError(t, err)
	_, err = uc.Lookup(context.Background(), "", LookupOptions{POS: pos})
	require.NoError(t, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "noun", hook.LastEntry().Data["value"])
}

func TestLookup_NamesSkippedUnlessAvailable(t *testing.T) {
	words, _, names := newFixture()
	names.available = false
	uc := NewLookupUsecase(Dictionary{Words: words, Names: names})
	ctx := context.Background()

	res, err := uc.Lookup(ctx, "おみやげ", LookupOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Names)
	assert.Empty(t, names.queries)

	// picked up once the store reports data
	names.available = true
	res, err = uc.Lookup(ctx, "おみやげ", LookupOptions{})
	require.NoError(t, err)
	assert.Len(t, res.Names, 1)

	res, err = uc.Lookup(ctx, "おみやげ", LookupOptions{NoNames: true})
	require.NoError(t, err)
	assert.Empty(t, res.Names)
}

func TestLookup_NameStoreErrorIsAdvisory(t *testing.T) {
	words, _, names := newFixture()
	names.available = false
	names.availErr = entity.ErrBackendUnavailable
	logger, hook := test.NewNullLogger()
	uc := NewLookupUsecase(Dictionary{Words: words, Names: names}, WithLogger(logger))

	res, err := uc.Lookup(context.Background(), "おみやげ", LookupOptions{})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 1)
	assert.Empty(t, res.Names)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestLookup_PosFilterNotAppliedToNames(t *testing.T) {
	words, _, names := newFixture()
	uc := NewLookupUsecase(Dictionary{Words: words, Names: names})

	_, err := uc.Lookup(context.Background(), "", LookupOptions{POS: repository.Tags{Values: []string{"n"}}})
	require.NoError(t, err)
	assert.Empty(t, names.queries, "an unbounded name search is never issued")

	_, err = uc.Lookup(context.Background(), "", LookupOptions{
		POS:       repository.Tags{Values: []string{"n"}},
		NameTypes: repository.Tags{Values: []string{"fem"}},
	})
	require.NoError(t, err)
	require.Len(t, names.queries, 1)
	assert.Equal(t, []string{"fem"}, names.queries[0].Tags)
}

func TestLookup_WordStoreUnavailable(t *testing.T) {
	words, _, _ := newFixture()
	words.available = false
	uc := NewLookupUsecase(Dictionary{Words: words})

	_, err := uc.Lookup(context.Background(), "おみやげ", LookupOptions{})
	assert.ErrorIs(t, err, entity.ErrBackendUnavailable)

	uc = NewLookupUsecase(Dictionary{})
	_, err = uc.Lookup(context.Background(), "おみやげ", LookupOptions{})
	assert.ErrorIs(t, err, entity.ErrBackendUnavailable)
}

func TestLookup_SearchErrorPropagates(t *testing.T) {
	words, _, _ := newFixture()
	boom := errors.New("boom")
	words.searchErr = boom
	uc := NewLookupUsecase(Dictionary{Words: words})

	_, err := uc.Lookup(context.Background(), "おみやげ", LookupOptions{})
	assert.ErrorIs(t, err, boom)
}

func TestLookupIter_SinglePass(t *testing.T) {
	words, chars, names := newFixture()
	uc := NewLookupUsecase(Dictionary{Words: words, Chars: chars, Names: names})

	seq, err := uc.LookupIter(context.Background(), "お土産", LookupOptions{})
	require.NoError(t, err)
	assert.Empty(t, words.queries, "nothing is searched before iteration")

	var got []int64
	for e, err := range seq.Entries {
		require.NoError(t, err)
		got = append(got, e.Idseq)
	}
	assert.Equal(t, []int64{1002550}, got)

	for _, err := range seq.Entries {
		assert.ErrorIs(t, err, entity.ErrSequenceConsumed)
	}

	var lits []string
	for c, err := range seq.Chars {
		require.NoError(t, err)
		lits = append(lits, c.Literal)
	}
	assert.Equal(t, []string{"土", "産"}, lits)
	assert.NotContains(t, chars.requested, "お")

	var names2 int
	for _, err := range seq.Names {
		require.NoError(t, err)
		names2++
	}
	assert.Equal(t, 1, names2)
}

func TestLookupIter_StopEarly(t *testing.T) {
	words, _, _ := newFixture()
	words.entries[1] = omiyage()
	words.ids = []int64{1002550, 1}
	uc := NewLookupUsecase(Dictionary{Words: words})

	seq, err := uc.LookupIter(context.Background(), "おみやげ", LookupOptions{NoChars: true, NoNames: true})
	require.NoError(t, err)
	n := 0
	for range seq.Entries {
		n++
		break
	}
	assert.Equal(t, 1, n)
	for range seq.Chars {
		t.Fatal("chars disabled")
	}
}

func TestAccessors(t *testing.T) {
	words, chars, names := newFixture()
	uc := NewLookupUsecase(Dictionary{Words: words, Chars: chars, Names: names, Components: mockComponents{}})
	ctx := context.Background()

	e, err := uc.GetEntry(ctx, 1002550)
	require.NoError(t, err)
	assert.Equal(t, "おみやげ", e.KanaForms[0].Text)

	_, err = uc.GetEntry(ctx, 1)
	assert.ErrorIs(t, err, entity.ErrEntryNotFound)
	_, err = uc.GetEntry(ctx, -1)
	assert.ErrorIs(t, err, entity.ErrInvalidIdseq)

	n, err := uc.GetName(ctx, 5223680)
	require.NoError(t, err)
	assert.Equal(t, "みやげ", n.KanaForms[0].Text)

	c, err := uc.GetChar(ctx, "土")
	require.NoError(t, err)
	assert.Equal(t, 3, c.StrokeCount)
	_, err = uc.GetChar(ctx, "あ")
	assert.ErrorIs(t, err, entity.ErrCharacterNotFound)

	pos, err := uc.AllPOS(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"noun (common) (futsuumeishi)"}, pos)
	types, err := uc.AllNameTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fem"}, types)

	comps, err := uc.ComponentsOf("土")
	require.NoError(t, err)
	assert.Equal(t, []string{"土"}, comps)
	with, err := uc.CharactersWith("土")
	require.NoError(t, err)
	assert.Equal(t, []string{"土", "寺"}, with)
}

func TestAccessors_MissingStores(t *testing.T) {
	words, _, _ := newFixture()
	uc := NewLookupUsecase(Dictionary{Words: words})
	ctx := context.Background()

	_, err := uc.GetName(ctx, 5223680)
	assert.ErrorIs(t, err, entity.ErrBackendUnavailable)
	_, err = uc.GetChar(ctx, "土")
	assert.ErrorIs(t, err, entity.ErrBackendUnavailable)
	_, err = uc.AllNameTypes(ctx)
	assert.ErrorIs(t, err, entity.ErrBackendUnavailable)
	comps, err := uc.ComponentsOf("土")
	require.NoError(t, err)
	assert.Empty(t, comps)
}

func TestInfo_CountsStores(t *testing.T) {
	words, chars, names := newFixture()
	uc := NewLookupUsecase(Dictionary{Words: words, Chars: chars, Names: names})

	info, err := uc.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{entity.SourceJMdict: 1, entity.SourceJMnedict: 1}, info.Counts)
	assert.Empty(t, info.Meta)
}
