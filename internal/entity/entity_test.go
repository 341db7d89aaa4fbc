package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func omiyage() *Entry {
	e := NewEntry(1002550)
	e.KanjiForms = []*KanjiForm{{Text: "お土産"}, {Text: "御土産"}}
	e.KanaForms = []*KanaForm{{Text: "おみやげ"}}
	s := NewSense()
	s.POS = []string{"noun (common) (futsuumeishi)"}
	s.Gloss = []Gloss{{Lang: DefaultGlossLang, Text: "souvenir"}, {Lang: "ger", Text: "Mitbringsel"}}
	e.Senses = []*Sense{s}
	return e
}

func TestEntryText(t *testing.T) {
	e := omiyage()
	assert.Equal(t, "[id#1002550] おみやげ (お土産) : souvenir/Mitbringsel (lang:ger) ((noun (common) (futsuumeishi)))", e.String())
	assert.Equal(t, "おみやげ (お土産) : souvenir/Mitbringsel (lang:ger)", e.Text(true, false))

	s2 := NewSense()
	s2.Gloss = []Gloss{{Text: "present", Gend: "n"}}
	e.Senses = append(e.Senses, s2)
	assert.Equal(t, "おみやげ (お土産) : 1. souvenir/Mitbringsel (lang:ger) 2. present (gend:n)", e.Text(true, true))
}

func TestEntryValidate(t *testing.T) {
	e := omiyage()
	require.NoError(t, e.Validate())

	e.KanaForms[0].Restr = []string{"土産"}
	assert.ErrorContains(t, e.Validate(), "unknown kanji")

	e.KanaForms = nil
	assert.ErrorIs(t, e.Validate(), ErrEntryNoKana)

	e = omiyage()
	e.Senses = nil
	assert.ErrorIs(t, e.Validate(), ErrEntryNoSense)
}

func TestSetOnce(t *testing.T) {
	e := NewEntry(1)
	require.NoError(t, e.SetInfo(&EntryInfo{Etym: []string{"x"}}))
	assert.ErrorIs(t, e.SetInfo(&EntryInfo{}), ErrFieldAlreadySet)

	var k KanjiForm
	require.NoError(t, k.SetText("土産"))
	assert.ErrorIs(t, k.SetText("土"), ErrFieldAlreadySet)

	var r KanaForm
	require.NoError(t, r.SetText("みやげ"))
	assert.ErrorIs(t, r.SetText("み"), ErrFieldAlreadySet)

	var b BibInfo
	require.NoError(t, b.SetTag("t"))
	require.NoError(t, b.SetText("x"))
	assert.ErrorIs(t, b.SetTag("t"), ErrFieldAlreadySet)
	assert.ErrorIs(t, b.SetText("x"), ErrFieldAlreadySet)
}

func TestEntryInfoEmpty(t *testing.T) {
	var info *EntryInfo
	assert.True(t, info.Empty())
	assert.True(t, (&EntryInfo{}).Empty())
	assert.False(t, (&EntryInfo{Audit: []Audit{{UpdDate: "2010-01-01"}}}).Empty())
}

func TestNameSenseText(t *testing.T) {
	s := NewTranslation()
	s.NameTypes = []string{"surname", "someday"}
	s.Gloss = []Gloss{{Text: "Suzuki"}}
	assert.True(t, s.IsName())
	assert.Equal(t, "name", s.Kind.String())
	assert.Equal(t, "Suzuki (surname/someday)", s.Text(true))
	assert.Equal(t, "Suzuki (family or surname/someday)", s.Text(false))
}

func TestNameTypeMapping(t *testing.T) {
	assert.Equal(t, "fem", NameTypeCode("female given name or forename"))
	assert.Equal(t, "whatever", NameTypeCode("whatever"))
	assert.Equal(t, "railway station", NameTypeDescription("station"))
	assert.Equal(t, []string{"place name", "x"}, NameTypeDescriptions([]string{"place", "x"}))
}

func TestCharacter(t *testing.T) {
	c := &Character{Literal: "土", RMGroups: []RMGroup{{
		Meanings: []Meaning{{Value: "soil"}, {Value: "terre", Lang: "fr"}, {Value: "earth"}},
	}}}
	c.AddStrokeCount(3)
	c.AddStrokeCount(4)
	assert.Equal(t, 3, c.StrokeCount)
	assert.Equal(t, []int{4}, c.StrokeMiscounts)
	assert.Equal(t, []string{"soil", "terre", "earth"}, c.Meanings(false))
	assert.Equal(t, "土:3:soil,earth", c.Summary())
	assert.Equal(t, "土", c.String())
}

func TestLookupResultText(t *testing.T) {
	c := &Character{Literal: "土", StrokeCount: 3, RMGroups: []RMGroup{{Meanings: []Meaning{{Value: "soil"}}}}}
	r := &LookupResult{Entries: []*Entry{omiyage()}, Chars: []*Character{c}}
	assert.False(t, r.Empty())
	assert.Equal(t, "[Entries]。#1: おみやげ (お土産) : souvenir/Mitbringsel (lang:ger) | [Chars]。土", r.Text(DefaultTextOptions()))
	assert.Contains(t, r.String(), "[Chars]。土:3:soil")

	empty := &LookupResult{}
	assert.True(t, empty.Empty())
	assert.Equal(t, "Found nothing", empty.Text(DefaultTextOptions()))
	assert.Equal(t, "No entries", empty.String())
}

func TestParseError(t *testing.T) {
	cause := errors.New("bad int")
	err := error(&ParseError{Source: "kanjidic2", Parent: "misc", Tag: "stroke_count", Reason: "bad int", Err: cause})
	assert.Equal(t, "kanjidic2: <stroke_count> in <misc>: bad int", err.Error())
	assert.True(t, IsParseError(err))
	assert.ErrorIs(t, err, cause)

	err = &ParseError{Source: "jmdict", Parent: "entry", Reason: "missing ent_seq"}
	assert.Equal(t, "jmdict: entry: missing ent_seq", err.Error())
	assert.False(t, IsParseError(cause))
}
