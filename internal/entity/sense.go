package entity

import (
	"fmt"
	"strings"
)

// SenseKind distinguishes word senses (JMdict sense) from name translations (JMnedict trans).
type SenseKind uint8

const (
	SenseKindWord SenseKind = iota
	SenseKindName
)

func (k SenseKind) String() string {
	if k == SenseKindName {
		return "name"
	}
	return "word"
}

// Sense is one meaning of an entry. Word senses use the word-only lists, name senses use NameTypes;
// XRef and Gloss are shared by both kinds.
type Sense struct {
	Kind SenseKind `json:"-"`

	XRef  []string `json:"xref,omitempty"`
	Gloss []Gloss  `json:"gloss,omitempty"`

	StagK   []string  `json:"stagk,omitempty"`
	StagR   []string  `json:"stagr,omitempty"`
	POS     []string  `json:"pos,omitempty"`
	Antonym []string  `json:"antonym,omitempty"`
	Field   []string  `json:"field,omitempty"`
	Misc    []string  `json:"misc,omitempty"`
	Info    []string  `json:"info,omitempty"`
	LSource []LSource `json:"lsource,omitempty"`
	Dialect []string  `json:"dialect,omitempty"`

	NameTypes []string `json:"name_type,omitempty"`
}

// NewSense returns an empty word sense.
func NewSense() *Sense { return &Sense{Kind: SenseKindWord} }

// NewTranslation returns an empty name translation.
func NewTranslation() *Sense { return &Sense{Kind: SenseKindName} }

// IsName reports whether the sense came from a name dictionary.
func (s *Sense) IsName() bool { return s.Kind == SenseKindName }

// Text renders the glosses, with pos or name types appended when not compact.
func (s *Sense) Text(compact bool) string {
	glosses := make([]string, 0, len(s.Gloss))
	for _, g := range s.Gloss {
		glosses = append(glosses, g.String())
	}
	joined := strings.Join(glosses, "/")
	if s.IsName() {
		types := s.NameTypes
		if !compact {
			types = NameTypeDescriptions(s.NameTypes)
		}
		return fmt.Sprintf("%s (%s)", joined, strings.Join(types, "/"))
	}
	if !compact && len(s.POS) > 0 {
		return fmt.Sprintf("%s ((%s))", joined, strings.Join(s.POS, "|"))
	}
	return joined
}

// Gloss is a target-language equivalent of the headword.
type Gloss struct {
	Lang string `json:"lang"`
	Gend string `json:"gend,omitempty"`
	Text string `json:"text"`
}

func (g Gloss) String() string {
	parts := []string{g.Text}
	if g.Lang != "" && g.Lang != DefaultGlossLang {
		parts = append(parts, "(lang:"+g.Lang+")")
	}
	if g.Gend != "" {
		parts = append(parts, "(gend:"+g.Gend+")")
	}
	return strings.Join(parts, " ")
}

// LSource describes the source language of a loanword.
type LSource struct {
	Lang   string `json:"lang"`
	LSType string `json:"lstype,omitempty"`
	Wasei  string `json:"wasei,omitempty"`
	Text   string `json:"text"`
}
