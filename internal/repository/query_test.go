package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMatchMode(t *testing.T) {
	for in, want := range map[string]MatchMode{
		"":         MatchAuto,
		"auto":     MatchAuto,
		" Exact ":  MatchExact,
		"wildcard": MatchWildcard,
		"like":     MatchWildcard,
	} {
		got, err := ParseMatchMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMatchMode("fuzzy")
	assert.ErrorContains(t, err, "unknown match mode")
	assert.Equal(t, "exact", MatchExact.String())
}

func TestQuery(t *testing.T) {
	id, ok := Query{Text: "id#1002550"}.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(1002550), id)
	for _, text := range []string{"1002550", "id#", "id#-1", "id#x"} {
		_, ok := Query{Text: text}.ID()
		assert.False(t, ok, text)
	}

	assert.True(t, Query{Text: "おみ%"}.Wildcard())
	assert.True(t, Query{Text: "お?やげ"}.Wildcard())
	assert.False(t, Query{Text: "おみ%", Mode: MatchExact}.Wildcard())
	assert.True(t, Query{Text: "おみやげ", Mode: MatchWildcard}.Wildcard())
	assert.False(t, Query{Text: "おみやげ"}.Wildcard())
	assert.Equal(t, "お_やげ%", Query{Text: "お?やげ%"}.Pattern())

	assert.True(t, Query{}.Unbounded())
	assert.True(t, Query{Text: "%"}.Unbounded())
	assert.False(t, Query{Text: "%", Mode: MatchExact}.Unbounded())
	assert.False(t, Query{Text: "お%"}.Unbounded())
}

func TestTagsOf(t *testing.T) {
	tags, err := TagsOf(nil)
	require.NoError(t, err)
	assert.Empty(t, tags.Values)

	tags, err = TagsOf("")
	require.NoError(t, err)
	assert.Empty(t, tags.Values)

	tags, err = TagsOf("noun (common) (futsuumeishi)")
	require.NoError(t, err)
	assert.Equal(t, Tags{Values: []string{"noun (common) (futsuumeishi)"}, Bare: true}, tags)

	tags, err = TagsOf([]string{"vi", "vt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"vi", "vt"}, tags.Values)
	assert.False(t, tags.Bare)

	tags, err = TagsOf([]any{"vi"})
	require.NoError(t, err)
	assert.Equal(t, []string{"vi"}, tags.Values)

	_, err = TagsOf([]any{"vi", 1})
	assert.Error(t, err)
	_, err = TagsOf(3)
	assert.Error(t, err)
}
