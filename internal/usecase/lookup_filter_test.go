package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/repository"
)

func TestLookupOptions_ApplyFilter(t *testing.T) {
	opts := LookupOptions{POS: repository.Tags{Values: []string{"n"}}}
	require.NoError(t, opts.ApplyFilter(`pos in ["vi", "vt"] && name_type == "surname" && mode == "exact" && chars == "strict"`))

	assert.Equal(t, []string{"n", "vi", "vt"}, opts.POS.Values)
	assert.Equal(t, []string{"surname"}, opts.NameTypes.Values)
	assert.Equal(t, repository.MatchExact, opts.Mode)
	assert.True(t, opts.Strict)

	require.NoError(t, opts.ApplyFilter(`chars == "all"`))
	assert.False(t, opts.Strict)

	before := opts
	require.NoError(t, opts.ApplyFilter(""))
	assert.Equal(t, before, opts)
}

func TestLookupOptions_ApplyFilterKeepsCallerTags(t *testing.T) {
	values := make([]string, 1, 4)
	values[0] = "noun (common) (futsuumeishi)"
	opts := LookupOptions{POS: repository.Tags{Values: values, Bare: true}}

	require.NoError(t, opts.ApplyFilter(`pos == "vi"`))
	assert.True(t, opts.POS.Bare)
	assert.Equal(t, []string{"noun (common) (futsuumeishi)", "vi"}, opts.POS.Values)

	opts.POS.Values[0] = "changed"
	assert.Equal(t, "noun (common) (futsuumeishi)", values[0])
	assert.Equal(t, "", values[:2][1])
}

func TestLookupOptions_ApplyFilterErrors(t *testing.T) {
	for _, expr := range []string{
		`gloss == "gift"`,
		`mode == "fuzzy"`,
		`chars == "some"`,
		`pos == "vi" || pos == "vt"`,
		`name_type.startsWith("sur")`,
	} {
		t.Run(expr, func(t *testing.T) {
			var opts LookupOptions
			assert.ErrorIs(t, opts.ApplyFilter(expr), entity.ErrInvalidFilter)
		})
	}
}
