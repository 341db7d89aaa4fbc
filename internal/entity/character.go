package entity

import (
	"fmt"
	"strings"
)

// KanjiDic2 is the header of a KANJIDIC2 document.
type KanjiDic2 struct {
	FileVersion     string `json:"file_version"`
	DatabaseVersion string `json:"database_version"`
	DateOfCreation  string `json:"date_of_creation"`
}

// Character is one KANJIDIC2 record.
type Character struct {
	Literal         string      `json:"literal"`
	Codepoints      []CodePoint `json:"codepoints"`
	Radicals        []Radical   `json:"radicals"`
	StrokeCount     int         `json:"stroke_count"`
	Grade           string      `json:"grade,omitempty"`
	StrokeMiscounts []int       `json:"stroke_miscounts,omitempty"`
	Variants        []Variant   `json:"variants,omitempty"`
	Freq            string      `json:"freq,omitempty"`
	RadNames        []string    `json:"rad_names,omitempty"`
	JLPT            string      `json:"jlpt,omitempty"`
	DicRefs         []DicRef    `json:"dic_refs,omitempty"`
	QueryCodes      []QueryCode `json:"q_codes,omitempty"`
	RMGroups        []RMGroup   `json:"rm,omitempty"`
	Nanoris         []string    `json:"nanoris,omitempty"`
}

// AddStrokeCount records the first count as StrokeCount and later ones as miscounts.
func (c *Character) AddStrokeCount(n int) {
	if c.StrokeCount == 0 {
		c.StrokeCount = n
		return
	}
	c.StrokeMiscounts = append(c.StrokeMiscounts, n)
}

// Meanings flattens the meanings of every reading/meaning group.
// Meanings without m_lang are English.
func (c *Character) Meanings(englishOnly bool) []string {
	var out []string
	for _, g := range c.RMGroups {
		for _, m := range g.Meanings {
			if englishOnly && m.Lang != "" {
				continue
			}
			out = append(out, m.Value)
		}
	}
	return out
}

// Summary renders literal:strokes:meanings.
func (c *Character) Summary() string {
	return fmt.Sprintf("%s:%d:%s", c.Literal, c.StrokeCount, strings.Join(c.Meanings(true), ","))
}

func (c *Character) String() string { return c.Literal }

type CodePoint struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type Radical struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type Variant struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type DicRef struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Vol   string `json:"m_vol,omitempty"`
	Page  string `json:"m_page,omitempty"`
}

type QueryCode struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Misclass string `json:"skip_misclass,omitempty"`
}

// RMGroup pairs readings with the meanings that go with them.
type RMGroup struct {
	Readings []Reading `json:"readings"`
	Meanings []Meaning `json:"meanings"`
}

type Reading struct {
	Type   string `json:"type"`
	Value  string `json:"value"`
	OnType string `json:"on_type,omitempty"`
	Status string `json:"r_status,omitempty"`
}

type Meaning struct {
	Value string `json:"value"`
	Lang  string `json:"m_lang,omitempty"`
}
