package memory

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/eslsoft/jamdict/internal/adapter/xmldict"
	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/repository"
)

// Files names the documents to load. Empty paths are skipped.
type Files struct {
	JMdict    string
	Kanjidic2 string
	JMnedict  string
}

// Dictionary is a fully parsed set of documents. Missing documents leave empty indexes behind,
// which report themselves unavailable.
type Dictionary struct {
	Words *EntryIndex
	Names *EntryIndex
	Chars *CharacterIndex
	Meta  *Meta
}

// Load parses the given files concurrently.
func Load(ctx context.Context, files Files, logger logrus.FieldLogger) (*Dictionary, error) {
	var (
		words, names []*entity.Entry
		header       *entity.KanjiDic2
		chars        []*entity.Character
	)
	g, ctx := errgroup.WithContext(ctx)
	if files.JMdict != "" {
		g.Go(func() (err error) {
			words, err = loadEntries(ctx, files.JMdict, xmldict.NewJMdictDecoder)
			return err
		})
	}
	if files.JMnedict != "" {
		g.Go(func() (err error) {
			names, err = loadEntries(ctx, files.JMnedict, xmldict.NewJMnedictDecoder)
			return err
		})
	}
	if files.Kanjidic2 != "" {
		g.Go(func() error {
			src, err := xmldict.Open(files.Kanjidic2)
			if err != nil {
				return err
			}
			defer src.Close()
			d, err := xmldict.NewKanjidic2Decoder(src)
			if err != nil {
				return err
			}
			for c, err := range d.All() {
				if err != nil {
					return err
				}
				if err := ctx.Err(); err != nil {
					return err
				}
				chars = append(chars, c)
			}
			header = d.Header()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"words": len(words),
		"chars": len(chars),
		"names": len(names),
	}).Info("dictionary loaded into memory")

	return &Dictionary{
		Words: NewEntryIndex(entity.SourceJMdict, words),
		Names: NewEntryIndex(entity.SourceJMnedict, names),
		Chars: NewCharacterIndex(header, chars),
		Meta:  newMeta(len(words) > 0, header, len(names) > 0),
	}, nil
}

func loadEntries(ctx context.Context, path string, newDecoder func(io.Reader) (*xmldict.EntryDecoder, error)) ([]*entity.Entry, error) {
	src, err := xmldict.Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	d, err := newDecoder(src)
	if err != nil {
		return nil, err
	}
	var out []*entity.Entry
	for e, err := range d.All() {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Meta is the provenance of an in-memory dictionary.
type Meta struct {
	rows []entity.Meta
}

var _ repository.MetaRepository = (*Meta)(nil)

func newMeta(words bool, header *entity.KanjiDic2, names bool) *Meta {
	m := &Meta{}
	add := func(key, value string) { m.rows = append(m.rows, entity.Meta{Key: key, Value: value}) }
	if words {
		add(entity.MetaJMdictVersion, entity.DefaultJMdictVersion)
		add(entity.MetaJMdictURL, entity.DefaultJMdictURL)
	}
	if header != nil {
		add(entity.MetaKanjidic2Version, entity.DefaultKd2Version)
		add(entity.MetaKanjidic2URL, entity.DefaultKanjidic2URL)
		add(entity.MetaKanjidic2FileVer, header.FileVersion)
		add(entity.MetaKanjidic2DBVer, header.DatabaseVersion)
		add(entity.MetaKanjidic2Created, header.DateOfCreation)
	}
	if names {
		add(entity.MetaJMnedictVersion, entity.DefaultJMneVersion)
		add(entity.MetaJMnedictURL, entity.DefaultJMnedictURL)
	}
	add(entity.MetaGenerator, entity.DefaultGeneratorName)
	add(entity.MetaGeneratorVersion, entity.DefaultGeneratorVer)
	add(entity.MetaGeneratorURL, entity.DefaultGeneratorURL)
	slices.SortFunc(m.rows, func(a, b entity.Meta) int { return strings.Compare(a.Key, b.Key) })
	return m
}

func (m *Meta) GetMeta(_ context.Context, key string) (string, bool, error) {
	for _, r := range m.rows {
		if r.Key == key {
			return r.Value, true, nil
		}
	}
	return "", false, nil
}

func (m *Meta) ListMeta(context.Context) ([]entity.Meta, error) {
	return slices.Clone(m.rows), nil
}
