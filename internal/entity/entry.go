package entity

import (
	"fmt"
	"strings"
)

// DefaultGlossLang is the language assumed when a gloss or loanword source carries no xml:lang.
const DefaultGlossLang = "eng"

// Entry is one JMdict or JMnedict record.
type Entry struct {
	Idseq      int64        `json:"idseq"`
	KanjiForms []*KanjiForm `json:"kanji"`
	KanaForms  []*KanaForm  `json:"kana"`
	Info       *EntryInfo   `json:"info,omitempty"`
	Senses     []*Sense     `json:"senses"`
}

// NewEntry creates an empty entry with the given sequence number.
func NewEntry(idseq int64) *Entry {
	return &Entry{Idseq: idseq}
}

// SetInfo attaches the entry-level info block. Only one block is allowed.
func (e *Entry) SetInfo(info *EntryInfo) error {
	if e.Info != nil {
		return fmt.Errorf("entry %d info: %w", e.Idseq, ErrFieldAlreadySet)
	}
	e.Info = info
	return nil
}

// Validate checks the at-least-one invariants of the record.
func (e *Entry) Validate() error {
	if len(e.KanaForms) == 0 {
		return fmt.Errorf("entry %d: %w", e.Idseq, ErrEntryNoKana)
	}
	if len(e.Senses) == 0 {
		return fmt.Errorf("entry %d: %w", e.Idseq, ErrEntryNoSense)
	}
	for _, kn := range e.KanaForms {
		for _, r := range kn.Restr {
			if !e.hasKanji(r) {
				return fmt.Errorf("entry %d: kana %q restricted to unknown kanji %q", e.Idseq, kn.Text, r)
			}
		}
	}
	return nil
}

func (e *Entry) hasKanji(text string) bool {
	for _, kj := range e.KanjiForms {
		if kj.Text == text {
			return true
		}
	}
	return false
}

// Text renders the entry on one line: kana (kanji) : senses.
func (e *Entry) Text(compact bool, noID bool) string {
	parts := make([]string, 0, 4+len(e.Senses))
	if !compact && !noID {
		parts = append(parts, fmt.Sprintf("[id#%d]", e.Idseq))
	}
	if len(e.KanaForms) > 0 {
		parts = append(parts, e.KanaForms[0].Text)
	}
	if len(e.KanjiForms) > 0 {
		parts = append(parts, "("+e.KanjiForms[0].Text+")")
	}
	if len(e.Senses) > 0 {
		parts = append(parts, ":")
		if len(e.Senses) == 1 {
			parts = append(parts, e.Senses[0].Text(compact))
		} else {
			for i, s := range e.Senses {
				parts = append(parts, fmt.Sprintf("%d. %s", i+1, s.Text(compact)))
			}
		}
	}
	return strings.Join(parts, " ")
}

func (e *Entry) String() string { return e.Text(false, false) }

// KanjiForm is a written form of an entry using kanji (k_ele).
type KanjiForm struct {
	Text string   `json:"text"`
	Info []string `json:"info,omitempty"`
	Pri  []string `json:"pri,omitempty"`
}

// SetText sets the form text once.
func (k *KanjiForm) SetText(text string) error {
	if k.Text != "" {
		return fmt.Errorf("kanji text %q: %w", k.Text, ErrFieldAlreadySet)
	}
	k.Text = text
	return nil
}

// KanaForm is a reading of an entry (r_ele).
type KanaForm struct {
	Text    string   `json:"text"`
	NoKanji bool     `json:"nokanji"`
	Restr   []string `json:"restr,omitempty"`
	Info    []string `json:"info,omitempty"`
	Pri     []string `json:"pri,omitempty"`
}

// SetText sets the reading text once.
func (k *KanaForm) SetText(text string) error {
	if k.Text != "" {
		return fmt.Errorf("kana text %q: %w", k.Text, ErrFieldAlreadySet)
	}
	k.Text = text
	return nil
}

// EntryInfo holds the optional bibliographic block of an entry.
type EntryInfo struct {
	Links   []Link    `json:"links,omitempty"`
	BibInfo []BibInfo `json:"bibinfo,omitempty"`
	Etym    []string  `json:"etym,omitempty"`
	Audit   []Audit   `json:"audit,omitempty"`
}

// Empty reports whether the block carries nothing.
func (i *EntryInfo) Empty() bool {
	return i == nil || len(i.Links)+len(i.BibInfo)+len(i.Etym)+len(i.Audit) == 0
}

type Link struct {
	Tag  string `json:"tag"`
	Desc string `json:"desc"`
	URI  string `json:"uri"`
}

type BibInfo struct {
	Tag  string `json:"tag"`
	Text string `json:"text"`
}

// SetTag sets the bibliography tag once.
func (b *BibInfo) SetTag(tag string) error {
	if b.Tag != "" {
		return fmt.Errorf("bib tag: %w", ErrFieldAlreadySet)
	}
	b.Tag = tag
	return nil
}

// SetText sets the bibliography text once.
func (b *BibInfo) SetText(text string) error {
	if b.Text != "" {
		return fmt.Errorf("bib text: %w", ErrFieldAlreadySet)
	}
	b.Text = text
	return nil
}

type Audit struct {
	UpdDate string `json:"upd_date"`
	UpdDetl string `json:"upd_detl"`
}
