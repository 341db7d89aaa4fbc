package xmldict

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"

	"github.com/antchfx/xmlquery"

	"github.com/eslsoft/jamdict/internal/entity"
)

// EntryDecoder streams <entry> records out of a JMdict or JMnedict document.
// Each entry element is released once it has been converted.
type EntryDecoder struct {
	source string
	sp     *xmlquery.StreamParser
}

// NewJMdictDecoder reads a JMdict document.
func NewJMdictDecoder(r io.Reader) (*EntryDecoder, error) {
	return newEntryDecoder(r, entity.SourceJMdict)
}

// NewJMnedictDecoder reads a JMnedict document.
func NewJMnedictDecoder(r io.Reader) (*EntryDecoder, error) {
	return newEntryDecoder(r, entity.SourceJMnedict)
}

func newEntryDecoder(r io.Reader, source string) (*EntryDecoder, error) {
	sp, err := newStreamParser(r, "/*/entry")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return &EntryDecoder{source: source, sp: sp}, nil
}

// Next returns the next entry, or io.EOF after the last one.
func (d *EntryDecoder) Next() (*entity.Entry, error) {
	n, err := d.sp.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, &entity.ParseError{Source: d.source, Parent: "document", Reason: err.Error(), Err: err}
	}
	return d.entry(n)
}

// All yields entries in document order and stops at the first error.
func (d *EntryDecoder) All() iter.Seq2[*entity.Entry, error] {
	return func(yield func(*entity.Entry, error) bool) {
		for {
			e, err := d.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(e, err) || err != nil {
				return
			}
		}
	}
}

// ReadEntries parses a whole document into memory.
func ReadEntries(d *EntryDecoder) ([]*entity.Entry, error) {
	var out []*entity.Entry
	for e, err := range d.All() {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *EntryDecoder) entry(n *xmlquery.Node) (*entity.Entry, error) {
	e := &entity.Entry{}
	seen := leafCounter{}
	for child := range elements(n) {
		var err error
		switch child.Data {
		case "ent_seq":
			if err = seen.once(d.source, n, child); err == nil {
				e.Idseq, err = strconv.ParseInt(text(child), 10, 64)
			}
		case "k_ele":
			err = d.kanji(child, e)
		case "r_ele":
			err = d.kana(child, e)
		case "info":
			err = d.info(child, e)
		case "sense":
			err = d.sense(child, e)
		case "trans":
			err = d.translation(child, e)
		default:
			return nil, unknownTag(d.source, n, child)
		}
		if err != nil {
			if entity.IsParseError(err) {
				return nil, err
			}
			return nil, wrap(d.source, n, child, err)
		}
	}
	return e, nil
}

func (d *EntryDecoder) kanji(n *xmlquery.Node, e *entity.Entry) error {
	kj := &entity.KanjiForm{}
	for child := range elements(n) {
		switch child.Data {
		case "keb":
			if err := kj.SetText(text(child)); err != nil {
				return wrap(d.source, n, child, err)
			}
		case "ke_inf":
			kj.Info = append(kj.Info, text(child))
		case "ke_pri":
			kj.Pri = append(kj.Pri, text(child))
		default:
			return unknownTag(d.source, n, child)
		}
	}
	e.KanjiForms = append(e.KanjiForms, kj)
	return nil
}

func (d *EntryDecoder) kana(n *xmlquery.Node, e *entity.Entry) error {
	kn := &entity.KanaForm{}
	for child := range elements(n) {
		switch child.Data {
		case "reb":
			if err := kn.SetText(text(child)); err != nil {
				return wrap(d.source, n, child, err)
			}
		case "re_nokanji":
			kn.NoKanji = true
		case "re_restr":
			kn.Restr = append(kn.Restr, text(child))
		case "re_inf":
			kn.Info = append(kn.Info, text(child))
		case "re_pri":
			kn.Pri = append(kn.Pri, text(child))
		default:
			return unknownTag(d.source, n, child)
		}
	}
	e.KanaForms = append(e.KanaForms, kn)
	return nil
}

func (d *EntryDecoder) info(n *xmlquery.Node, e *entity.Entry) error {
	info := &entity.EntryInfo{}
	for child := range elements(n) {
		switch child.Data {
		case "links":
			link, err := d.link(child)
			if err != nil {
				return err
			}
			info.Links = append(info.Links, link)
		case "bibl":
			bib, err := d.bib(child)
			if err != nil {
				return err
			}
			info.BibInfo = append(info.BibInfo, bib)
		case "etym":
			info.Etym = append(info.Etym, text(child))
		case "audit":
			audit, err := d.audit(child)
			if err != nil {
				return err
			}
			info.Audit = append(info.Audit, audit)
		default:
			return unknownTag(d.source, n, child)
		}
	}
	if info.Empty() {
		return nil
	}
	return e.SetInfo(info)
}

func (d *EntryDecoder) link(n *xmlquery.Node) (entity.Link, error) {
	var link entity.Link
	seen := leafCounter{}
	for child := range elements(n) {
		if err := seen.once(d.source, n, child); err != nil {
			return link, err
		}
		switch child.Data {
		case "link_tag":
			link.Tag = text(child)
		case "link_desc":
			link.Desc = text(child)
		case "link_uri":
			link.URI = text(child)
		default:
			return link, unknownTag(d.source, n, child)
		}
	}
	return link, nil
}

func (d *EntryDecoder) bib(n *xmlquery.Node) (entity.BibInfo, error) {
	var bib entity.BibInfo
	for child := range elements(n) {
		var err error
		switch child.Data {
		case "bib_tag":
			err = bib.SetTag(text(child))
		case "bib_txt":
			err = bib.SetText(text(child))
		default:
			return bib, unknownTag(d.source, n, child)
		}
		if err != nil {
			return bib, wrap(d.source, n, child, err)
		}
	}
	return bib, nil
}

func (d *EntryDecoder) audit(n *xmlquery.Node) (entity.Audit, error) {
	var audit entity.Audit
	seen := leafCounter{}
	for child := range elements(n) {
		if err := seen.once(d.source, n, child); err != nil {
			return audit, err
		}
		switch child.Data {
		case "upd_date":
			audit.UpdDate = text(child)
		case "upd_detl":
			audit.UpdDetl = text(child)
		default:
			return audit, unknownTag(d.source, n, child)
		}
	}
	return audit, nil
}

func (d *EntryDecoder) sense(n *xmlquery.Node, e *entity.Entry) error {
	s := entity.NewSense()
	for child := range elements(n) {
		switch child.Data {
		case "stagk":
			s.StagK = append(s.StagK, text(child))
		case "stagr":
			s.StagR = append(s.StagR, text(child))
		case "pos":
			s.POS = append(s.POS, text(child))
		case "xref":
			s.XRef = append(s.XRef, text(child))
		case "ant":
			s.Antonym = append(s.Antonym, text(child))
		case "field":
			s.Field = append(s.Field, text(child))
		case "misc":
			s.Misc = append(s.Misc, text(child))
		case "s_inf":
			s.Info = append(s.Info, text(child))
		case "dial":
			s.Dialect = append(s.Dialect, text(child))
		case "lsource":
			s.LSource = append(s.LSource, entity.LSource{
				Lang:   attr(child, "lang", entity.DefaultGlossLang),
				LSType: attr(child, "ls_type", ""),
				Wasei:  attr(child, "ls_wasei", ""),
				Text:   text(child),
			})
		case "gloss":
			s.Gloss = append(s.Gloss, entity.Gloss{
				Lang: attr(child, "lang", entity.DefaultGlossLang),
				Gend: attr(child, "g_gend", ""),
				Text: text(child),
			})
		case "example":
			// obsolete in the format, not stored
		default:
			return unknownTag(d.source, n, child)
		}
	}
	e.Senses = append(e.Senses, s)
	return nil
}

func (d *EntryDecoder) translation(n *xmlquery.Node, e *entity.Entry) error {
	t := entity.NewTranslation()
	lang := attr(n, "lang", entity.DefaultGlossLang)
	for child := range elements(n) {
		switch child.Data {
		case "name_type":
			t.NameTypes = append(t.NameTypes, entity.NameTypeCode(text(child)))
		case "trans_det":
			t.Gloss = append(t.Gloss, entity.Gloss{Lang: attr(child, "lang", lang), Text: text(child)})
		case "xref":
			t.XRef = append(t.XRef, text(child))
		default:
			return unknownTag(d.source, n, child)
		}
	}
	e.Senses = append(e.Senses, t)
	return nil
}
