// Package importer loads JMdict, KANJIDIC2 and JMnedict documents into a relational store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/eslsoft/jamdict/internal/adapter/repository"
	"github.com/eslsoft/jamdict/internal/adapter/xmldict"
	"github.com/eslsoft/jamdict/internal/entity"
)

const (
	defaultBatchSize = 1000
	// records parsed ahead of the writer, per document
	parseAhead = 256
)

var errNoSources = errors.New("import: no source document given")

// Sources names the documents to import. Empty paths are skipped.
type Sources struct {
	JMdict    string
	Kanjidic2 string
	JMnedict  string
}

// ProgressReporter receives progress callbacks while records are written.
type ProgressReporter interface {
	Start(source string)
	Increment(source string, delta int)
	Finish(source string, total int)
}

type noopProgress struct{}

func (noopProgress) Start(string)          {}
func (noopProgress) Increment(string, int) {}
func (noopProgress) Finish(string, int)    {}

// Report summarizes a finished import.
type Report struct {
	RunID  string
	Counts map[string]int
}

// Service writes parsed documents through the dictionary mappers.
type Service struct {
	store     *repository.Store
	words     *repository.EntryStore
	names     *repository.EntryStore
	chars     *repository.CharacterStore
	meta      *repository.MetaStore
	batchSize int
	logger    logrus.FieldLogger
	reporter  ProgressReporter
}

type Option func(*Service)

// WithBatchSize sets how many records pass between progress log lines.
func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProgressReporter registers a reporter that receives progress callbacks during import.
func WithProgressReporter(reporter ProgressReporter) Option {
	return func(s *Service) {
		if reporter != nil {
			s.reporter = reporter
		}
	}
}

// NewService binds an importer to a migrated store.
func NewService(store *repository.Store, opts ...Option) *Service {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	s := &Service{
		store:     store,
		words:     repository.NewJMdictStore(store),
		names:     repository.NewJMnedictStore(store),
		chars:     repository.NewCharacterStore(store),
		meta:      repository.NewMetaStore(store),
		batchSize: defaultBatchSize,
		logger:    discard,
		reporter:  noopProgress{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// record is one parsed item or the error that ended its document.
type record[T any] struct {
	v   T
	err error
}

// document is one source being parsed in the background.
type document struct {
	source string
	src    *xmldict.Source
	// set by the parsing goroutine before its channel is closed
	digest string
}

// Import parses every given document and writes all of them in one transaction. Parsing runs
// concurrently with writing; any parse or write error rolls everything back.
func (s *Service) Import(ctx context.Context, sources Sources) (*Report, error) {
	if sources.JMdict == "" && sources.Kanjidic2 == "" && sources.JMnedict == "" {
		return nil, errNoSources
	}
	if err := s.checkEmpty(ctx, sources); err != nil {
		return nil, err
	}

	report := &Report{RunID: uuid.NewString(), Counts: map[string]int{}}
	logger := s.logger.WithField("run_id", report.RunID)

	var docs []*document
	defer func() {
		for _, d := range docs {
			d.src.Close()
		}
	}()
	open := func(source, path string) (*document, error) {
		src, err := xmldict.Open(path)
		if err != nil {
			return nil, err
		}
		d := &document{source: source, src: src}
		docs = append(docs, d)
		return d, nil
	}

	db := s.store.DB()
	restore, err := db.RelaxDurability(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare bulk import: %w", err)
	}
	defer func() {
		if rerr := restore(context.WithoutCancel(ctx)); rerr != nil {
			logger.WithError(rerr).Warn("restore durability settings")
		}
	}()

	var (
		wordDoc, nameDoc, charDoc *document
		wordDec, nameDec          *xmldict.EntryDecoder
		kd2                       *xmldict.Kanjidic2Decoder
	)
	if sources.JMdict != "" {
		if wordDoc, err = open(entity.SourceJMdict, sources.JMdict); err != nil {
			return nil, err
		}
		if wordDec, err = xmldict.NewJMdictDecoder(wordDoc.src); err != nil {
			return nil, err
		}
	}
	if sources.Kanjidic2 != "" {
		if charDoc, err = open(entity.SourceKanjidic2, sources.Kanjidic2); err != nil {
			return nil, err
		}
		if kd2, err = xmldict.NewKanjidic2Decoder(charDoc.src); err != nil {
			return nil, err
		}
	}
	if sources.JMnedict != "" {
		if nameDoc, err = open(entity.SourceJMnedict, sources.JMnedict); err != nil {
			return nil, err
		}
		if nameDec, err = xmldict.NewJMnedictDecoder(nameDoc.src); err != nil {
			return nil, err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	var (
		wordCh, nameCh <-chan record[*entity.Entry]
		charCh         <-chan record[*entity.Character]
	)
	if wordDec != nil {
		wordCh = produce(gctx, g, wordDoc, wordDec.All())
	}
	if kd2 != nil {
		charCh = produce(gctx, g, charDoc, kd2.All())
	}
	if nameDec != nil {
		nameCh = produce(gctx, g, nameDoc, nameDec.All())
	}

	g.Go(func() error {
		return s.store.RunInTx(gctx, func(ctx context.Context) error {
			if wordCh != nil {
				n, err := drain(ctx, s, logger, entity.SourceJMdict, wordCh, s.words.Insert)
				if err != nil {
					return err
				}
				report.Counts[entity.SourceJMdict] = n
			}
			if charCh != nil {
				n, err := drain(ctx, s, logger, entity.SourceKanjidic2, charCh, s.chars.Insert)
				if err != nil {
					return err
				}
				report.Counts[entity.SourceKanjidic2] = n
			}
			if nameCh != nil {
				n, err := drain(ctx, s, logger, entity.SourceJMnedict, nameCh, s.names.Insert)
				if err != nil {
					return err
				}
				report.Counts[entity.SourceJMnedict] = n
			}
			var header *entity.KanjiDic2
			if kd2 != nil {
				header = kd2.Header()
			}
			return s.writeMeta(ctx, report.RunID, wordDoc, charDoc, header, nameDoc)
		})
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("import rolled back")
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"jmdict":    report.Counts[entity.SourceJMdict],
		"kanjidic2": report.Counts[entity.SourceKanjidic2],
		"jmnedict":  report.Counts[entity.SourceJMnedict],
	}).Info("import committed")
	return report, nil
}

// checkEmpty refuses to import a document whose dictionary is already stored.
func (s *Service) checkEmpty(ctx context.Context, sources Sources) error {
	checks := []struct {
		path  string
		name  string
		count func(context.Context) (int64, error)
	}{
		{sources.JMdict, entity.SourceJMdict, s.words.Count},
		{sources.Kanjidic2, entity.SourceKanjidic2, s.chars.Count},
		{sources.JMnedict, entity.SourceJMnedict, s.names.Count},
	}
	for _, c := range checks {
		if c.path == "" {
			continue
		}
		n, err := c.count(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%s: %w", c.name, entity.ErrStoreNotEmpty)
		}
	}
	return nil
}

// produce parses a document on its own goroutine. A parse error is delivered as the last record.
func produce[T any](ctx context.Context, g *errgroup.Group, doc *document, seq iter.Seq2[T, error]) <-chan record[T] {
	ch := make(chan record[T], parseAhead)
	g.Go(func() error {
		defer close(ch)
		send := func(r record[T]) bool {
			select {
			case ch <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for v, err := range seq {
			if !send(record[T]{v: v, err: err}) {
				return ctx.Err()
			}
			if err != nil {
				return err
			}
		}
		digest, err := doc.src.Digest()
		if err != nil {
			send(record[T]{err: err})
			return err
		}
		doc.digest = digest
		return nil
	})
	return ch
}

func drain[T any](ctx context.Context, s *Service, logger logrus.FieldLogger, source string, ch <-chan record[T], insert func(context.Context, T) error) (int, error) {
	log := logger.WithField("source", source)
	log.Info("import started")
	s.reporter.Start(source)
	n := 0
	for r := range ch {
		if r.err != nil {
			return n, r.err
		}
		if err := insert(ctx, r.v); err != nil {
			return n, err
		}
		n++
		if n%s.batchSize == 0 {
			s.reporter.Increment(source, s.batchSize)
			log.WithField("count", n).Info("import progress")
		}
	}
	if err := ctx.Err(); err != nil {
		return n, err
	}
	s.reporter.Increment(source, n%s.batchSize)
	s.reporter.Finish(source, n)
	log.WithField("count", n).Info("import finished")
	return n, nil
}

func (s *Service) writeMeta(ctx context.Context, runID string, words, chars *document, header *entity.KanjiDic2, names *document) error {
	var rows []entity.Meta
	add := func(key, value string) { rows = append(rows, entity.Meta{Key: key, Value: value}) }
	if words != nil {
		add(entity.MetaJMdictVersion, entity.DefaultJMdictVersion)
		add(entity.MetaJMdictURL, entity.DefaultJMdictURL)
		add(entity.SourceJMdict+entity.MetaDigestSuffix, words.digest)
	}
	if chars != nil {
		add(entity.MetaKanjidic2Version, entity.DefaultKd2Version)
		add(entity.MetaKanjidic2URL, entity.DefaultKanjidic2URL)
		add(entity.SourceKanjidic2+entity.MetaDigestSuffix, chars.digest)
		if header != nil {
			add(entity.MetaKanjidic2FileVer, header.FileVersion)
			add(entity.MetaKanjidic2DBVer, header.DatabaseVersion)
			add(entity.MetaKanjidic2Created, header.DateOfCreation)
		}
	}
	if names != nil {
		add(entity.MetaJMnedictVersion, entity.DefaultJMneVersion)
		add(entity.MetaJMnedictURL, entity.DefaultJMnedictURL)
		add(entity.SourceJMnedict+entity.MetaDigestSuffix, names.digest)
	}
	add(entity.MetaGenerator, entity.DefaultGeneratorName)
	add(entity.MetaGeneratorVersion, entity.DefaultGeneratorVer)
	add(entity.MetaGeneratorURL, entity.DefaultGeneratorURL)
	add(entity.MetaImportRunID, runID)

	for _, m := range rows {
		if err := s.meta.SetMeta(ctx, m.Key, m.Value); err != nil {
			return err
		}
	}
	return nil
}
