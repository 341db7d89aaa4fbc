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

// Kanjidic2Decoder streams <character> records out of a KANJIDIC2 document.
type Kanjidic2Decoder struct {
	sp     *xmlquery.StreamParser
	header *entity.KanjiDic2
}

// NewKanjidic2Decoder reads a KANJIDIC2 document.
func NewKanjidic2Decoder(r io.Reader) (*Kanjidic2Decoder, error) {
	sp, err := newStreamParser(r, "/kanjidic2/*")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", entity.SourceKanjidic2, err)
	}
	return &Kanjidic2Decoder{sp: sp}, nil
}

// Header returns the document header once it has been read, nil before that.
func (d *Kanjidic2Decoder) Header() *entity.KanjiDic2 {
	return d.header
}

// Next returns the next character, or io.EOF after the last one. The header is
// consumed on the way and exposed through Header.
func (d *Kanjidic2Decoder) Next() (*entity.Character, error) {
	for {
		n, err := d.sp.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, &entity.ParseError{Source: entity.SourceKanjidic2, Parent: "document", Reason: err.Error(), Err: err}
		}
		switch n.Data {
		case "header":
			h, err := d.parseHeader(n)
			if err != nil {
				return nil, err
			}
			d.header = h
		case "character":
			return d.character(n)
		default:
			return nil, unknownTag(entity.SourceKanjidic2, n.Parent, n)
		}
	}
}

// All yields characters in document order and stops at the first error.
func (d *Kanjidic2Decoder) All() iter.Seq2[*entity.Character, error] {
	return func(yield func(*entity.Character, error) bool) {
		for {
			c, err := d.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(c, err) || err != nil {
				return
			}
		}
	}
}

// ReadKanjidic2 parses a whole document into memory.
func ReadKanjidic2(d *Kanjidic2Decoder) (*entity.KanjiDic2, []*entity.Character, error) {
	var chars []*entity.Character
	for c, err := range d.All() {
		if err != nil {
			return nil, nil, err
		}
		chars = append(chars, c)
	}
	return d.Header(), chars, nil
}

func (d *Kanjidic2Decoder) parseHeader(n *xmlquery.Node) (*entity.KanjiDic2, error) {
	h := &entity.KanjiDic2{}
	seen := leafCounter{}
	for child := range elements(n) {
		if err := seen.once(entity.SourceKanjidic2, n, child); err != nil {
			return nil, err
		}
		switch child.Data {
		case "file_version":
			h.FileVersion = text(child)
		case "database_version":
			h.DatabaseVersion = text(child)
		case "date_of_creation":
			h.DateOfCreation = text(child)
		default:
			return nil, unknownTag(entity.SourceKanjidic2, n, child)
		}
	}
	return h, nil
}

func (d *Kanjidic2Decoder) character(n *xmlquery.Node) (*entity.Character, error) {
	c := &entity.Character{}
	seen := leafCounter{}
	for child := range elements(n) {
		var err error
		switch child.Data {
		case "literal":
			if err = seen.once(entity.SourceKanjidic2, n, child); err == nil {
				c.Literal = text(child)
			}
		case "codepoint":
			err = eachLeaf(child, "cp_value", func(v *xmlquery.Node) error {
				c.Codepoints = append(c.Codepoints, entity.CodePoint{Type: attr(v, "cp_type", ""), Value: text(v)})
				return nil
			})
		case "radical":
			err = eachLeaf(child, "rad_value", func(v *xmlquery.Node) error {
				c.Radicals = append(c.Radicals, entity.Radical{Type: attr(v, "rad_type", ""), Value: text(v)})
				return nil
			})
		case "misc":
			err = d.misc(child, c)
		case "dic_number":
			err = eachLeaf(child, "dic_ref", func(v *xmlquery.Node) error {
				c.DicRefs = append(c.DicRefs, entity.DicRef{
					Type:  attr(v, "dr_type", ""),
					Value: text(v),
					Vol:   attr(v, "m_vol", ""),
					Page:  attr(v, "m_page", ""),
				})
				return nil
			})
		case "query_code":
			err = eachLeaf(child, "q_code", func(v *xmlquery.Node) error {
				c.QueryCodes = append(c.QueryCodes, entity.QueryCode{
					Type:     attr(v, "qc_type", ""),
					Value:    text(v),
					Misclass: attr(v, "skip_misclass", ""),
				})
				return nil
			})
		case "reading_meaning":
			err = d.readingMeaning(child, c)
		default:
			err = unknownTag(entity.SourceKanjidic2, n, child)
		}
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (d *Kanjidic2Decoder) misc(n *xmlquery.Node, c *entity.Character) error {
	seen := leafCounter{}
	for child := range elements(n) {
		switch child.Data {
		case "grade", "freq", "jlpt":
			if err := seen.once(entity.SourceKanjidic2, n, child); err != nil {
				return err
			}
			switch child.Data {
			case "grade":
				c.Grade = text(child)
			case "freq":
				c.Freq = text(child)
			default:
				c.JLPT = text(child)
			}
		case "stroke_count":
			count, err := strconv.Atoi(text(child))
			if err != nil {
				return wrap(entity.SourceKanjidic2, n, child, err)
			}
			c.AddStrokeCount(count)
		case "variant":
			c.Variants = append(c.Variants, entity.Variant{Type: attr(child, "var_type", ""), Value: text(child)})
		case "rad_name":
			c.RadNames = append(c.RadNames, text(child))
		default:
			return unknownTag(entity.SourceKanjidic2, n, child)
		}
	}
	return nil
}

func (d *Kanjidic2Decoder) readingMeaning(n *xmlquery.Node, c *entity.Character) error {
	for child := range elements(n) {
		switch child.Data {
		case "nanori":
			c.Nanoris = append(c.Nanoris, text(child))
		case "rmgroup":
			var group entity.RMGroup
			for gc := range elements(child) {
				switch gc.Data {
				case "reading":
					group.Readings = append(group.Readings, entity.Reading{
						Type:   attr(gc, "r_type", ""),
						Value:  text(gc),
						OnType: attr(gc, "on_type", ""),
						Status: attr(gc, "r_status", ""),
					})
				case "meaning":
					group.Meanings = append(group.Meanings, entity.Meaning{Value: text(gc), Lang: attr(gc, "m_lang", "")})
				default:
					return unknownTag(entity.SourceKanjidic2, child, gc)
				}
			}
			c.RMGroups = append(c.RMGroups, group)
		default:
			return unknownTag(entity.SourceKanjidic2, n, child)
		}
	}
	return nil
}

// eachLeaf calls fn for every child of n, which must all be named tag.
func eachLeaf(n *xmlquery.Node, tag string, fn func(*xmlquery.Node) error) error {
	for child := range elements(n) {
		if child.Data != tag {
			return unknownTag(entity.SourceKanjidic2, n, child)
		}
		if err := fn(child); err != nil {
			return err
		}
	}
	return nil
}
