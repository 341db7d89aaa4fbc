package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/jamdict/internal/adapter/xmldict"
	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/fixture"
	"github.com/eslsoft/jamdict/internal/infrastructure/database/dbtest"
)

func TestCharacterStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.Open(t))
	repo := NewCharacterStore(s)

	ok, err := repo.Available(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	d, err := xmldict.NewKanjidic2Decoder(fixture.Kanjidic2())
	require.NoError(t, err)
	_, chars, err := xmldict.ReadKanjidic2(d)
	require.NoError(t, err)

	err = s.RunInTx(ctx, func(ctx context.Context) error {
		for _, c := range chars {
			if err := repo.Insert(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	for _, want := range chars {
		got, err := repo.GetChar(ctx, want.Literal)
		require.NoError(t, err)
		assert.Equal(t, want, got, "character %s", want.Literal)
	}

	ok, err = repo.Available(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCharacterStore_ReadingOrderSurvives(t *testing.T) {
	ctx := context.Background()
	s := NewStore(dbtest.Open(t))
	repo := NewCharacterStore(s)

	c := &entity.Character{
		Literal:     "日",
		StrokeCount: 4,
		RMGroups: []entity.RMGroup{
			{
				Readings: []entity.Reading{
					{Type: "ja_on", Value: "ニチ"},
					{Type: "ja_on", Value: "ジツ"},
					{Type: "ja_kun", Value: "ひ"},
					{Type: "ja_kun", Value: "-か"},
					{Type: "korean_h", Value: "일"},
				},
				Meanings: []entity.Meaning{{Value: "day"}, {Value: "sun"}},
			},
			{Meanings: []entity.Meaning{{Value: "jour", Lang: "fr"}}},
		},
	}
	require.NoError(t, s.RunInTx(ctx, func(ctx context.Context) error { return repo.Insert(ctx, c) }))

	got, err := repo.GetChar(ctx, "日")
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestCharacterStore_NotFound(t *testing.T) {
	repo := NewCharacterStore(NewStore(dbtest.Open(t)))
	_, err := repo.GetChar(context.Background(), "あ")
	assert.ErrorIs(t, err, entity.ErrCharacterNotFound)
}

func TestMetaStore_Upsert(t *testing.T) {
	ctx := context.Background()
	meta := NewMetaStore(NewStore(dbtest.Open(t)))

	_, ok, err := meta.GetMeta(ctx, entity.MetaJMdictVersion)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, meta.SetMeta(ctx, entity.MetaJMdictVersion, "1.07"))
	require.NoError(t, meta.SetMeta(ctx, entity.MetaJMdictVersion, "1.08"))
	require.NoError(t, meta.SetMeta(ctx, entity.MetaGenerator, entity.DefaultGeneratorName))

	v, ok, err := meta.GetMeta(ctx, entity.MetaJMdictVersion)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1.08", v)

	all, err := meta.ListMeta(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entity.Meta{
		{Key: entity.MetaGenerator, Value: entity.DefaultGeneratorName},
		{Key: entity.MetaJMdictVersion, Value: "1.08"},
	}, all)
}
