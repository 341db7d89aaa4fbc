package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/repository"
)

// textList binds a []string field of a sense to the (fk, text) table that stores it.
type textList struct {
	table string
	field func(*entity.Sense) *[]string
}

// entrySchema names the tables of one JMdict-shaped dictionary.
type entrySchema struct {
	source     string
	versionKey string
	kind       entity.SenseKind

	entry               string
	kanji, kji, kjp     string
	kana, kni, knp, knr string
	sense, senseFK      string
	gloss, tags         string
	lsource             string
	lists               []textList
	link, bib           string
	etym, audit         string

	// searchTagsAsText also matches the query text against tag rows.
	searchTagsAsText bool
}

var jmdictSchema = entrySchema{
	source:     entity.SourceJMdict,
	versionKey: entity.MetaJMdictVersion,
	kind:       entity.SenseKindWord,
	entry:      "Entry",
	kanji:      "Kanji",
	kji:        "KJI",
	kjp:        "KJP",
	kana:       "Kana",
	kni:        "KNI",
	knp:        "KNP",
	knr:        "KNR",
	sense:      "Sense",
	senseFK:    "sid",
	gloss:      "SenseGloss",
	tags:       "pos",
	lsource:    "SenseSource",
	lists: []textList{
		{"stagk", func(s *entity.Sense) *[]string { return &s.StagK }},
		{"stagr", func(s *entity.Sense) *[]string { return &s.StagR }},
		{"pos", func(s *entity.Sense) *[]string { return &s.POS }},
		{"xref", func(s *entity.Sense) *[]string { return &s.XRef }},
		{"antonym", func(s *entity.Sense) *[]string { return &s.Antonym }},
		{"field", func(s *entity.Sense) *[]string { return &s.Field }},
		{"misc", func(s *entity.Sense) *[]string { return &s.Misc }},
		{"SenseInfo", func(s *entity.Sense) *[]string { return &s.Info }},
		{"dialect", func(s *entity.Sense) *[]string { return &s.Dialect }},
	},
	link:  "Link",
	bib:   "Bib",
	etym:  "Etym",
	audit: "Audit",
}

var jmnedictSchema = entrySchema{
	source:     entity.SourceJMnedict,
	versionKey: entity.MetaJMnedictVersion,
	kind:       entity.SenseKindName,
	entry:      "NEEntry",
	kanji:      "NEKanji",
	kji:        "NEKJI",
	kjp:        "NEKJP",
	kana:       "NEKana",
	kni:        "NEKNI",
	knp:        "NEKNP",
	knr:        "NEKNR",
	sense:      "NETranslation",
	senseFK:    "tid",
	gloss:      "NETransGloss",
	tags:       "NETransType",
	lists: []textList{
		{"NETransType", func(s *entity.Sense) *[]string { return &s.NameTypes }},
		{"NETransXRef", func(s *entity.Sense) *[]string { return &s.XRef }},
	},
	searchTagsAsText: true,
}

// EntryStore maps JMdict or JMnedict entries onto their tables.
type EntryStore struct {
	*Store
	meta *MetaStore
	t    entrySchema
}

var _ repository.EntryRepository = (*EntryStore)(nil)

// NewJMdictStore returns the word dictionary mapper.
func NewJMdictStore(s *Store) *EntryStore {
	return &EntryStore{Store: s, meta: NewMetaStore(s), t: jmdictSchema}
}

// NewJMnedictStore returns the name dictionary mapper.
func NewJMnedictStore(s *Store) *EntryStore {
	return &EntryStore{Store: s, meta: NewMetaStore(s), t: jmnedictSchema}
}

// Source names the dictionary this store holds.
func (r *EntryStore) Source() string { return r.t.source }

// Available reports whether the store was populated, using the version marker in meta.
func (r *EntryStore) Available(ctx context.Context) (bool, error) {
	return r.meta.hasMeta(ctx, r.t.versionKey)
}

// Count returns the number of stored entries.
func (r *EntryStore) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, r.t.entry)
}

// Insert writes one entry and all of its children. Call it inside RunInTx so the record is never
// visible half-written.
func (r *EntryStore) Insert(ctx context.Context, e *entity.Entry) error {
	if err := r.exec(ctx, r.sb.Insert(r.t.entry).Columns("idseq").Values(e.Idseq)); err != nil {
		return fmt.Errorf("insert %s %d: %w", r.t.entry, e.Idseq, err)
	}
	if r.t.link != "" && e.Info != nil {
		if err := r.insertInfo(ctx, e.Idseq, e.Info); err != nil {
			return fmt.Errorf("entry %d: %w", e.Idseq, err)
		}
	}
	for _, kj := range e.KanjiForms {
		kid, err := r.insertID(ctx, r.sb.Insert(r.t.kanji).Columns("idseq", "text").Values(e.Idseq, kj.Text))
		if err != nil {
			return fmt.Errorf("insert %s of %d: %w", r.t.kanji, e.Idseq, err)
		}
		if err := r.insertTexts(ctx, r.t.kji, "kid", kid, kj.Info); err != nil {
			return err
		}
		if err := r.insertTexts(ctx, r.t.kjp, "kid", kid, kj.Pri); err != nil {
			return err
		}
	}
	for _, kn := range e.KanaForms {
		kid, err := r.insertID(ctx, r.sb.Insert(r.t.kana).Columns("idseq", "text", "nokanji").Values(e.Idseq, kn.Text, kn.NoKanji))
		if err != nil {
			return fmt.Errorf("insert %s of %d: %w", r.t.kana, e.Idseq, err)
		}
		if err := r.insertTexts(ctx, r.t.kni, "kid", kid, kn.Info); err != nil {
			return err
		}
		if err := r.insertTexts(ctx, r.t.knp, "kid", kid, kn.Pri); err != nil {
			return err
		}
		if err := r.insertTexts(ctx, r.t.knr, "kid", kid, kn.Restr); err != nil {
			return err
		}
	}
	for _, s := range e.Senses {
		if err := r.insertSense(ctx, e.Idseq, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *EntryStore) insertInfo(ctx context.Context, idseq int64, info *entity.EntryInfo) error {
	if len(info.Links) > 0 {
		b := r.sb.Insert(r.t.link).Columns("idseq", "tag", "description", "uri")
		for _, l := range info.Links {
			b = b.Values(idseq, l.Tag, l.Desc, l.URI)
		}
		if err := r.exec(ctx, b); err != nil {
			return fmt.Errorf("insert %s: %w", r.t.link, err)
		}
	}
	if len(info.BibInfo) > 0 {
		b := r.sb.Insert(r.t.bib).Columns("idseq", "tag", "text")
		for _, bib := range info.BibInfo {
			b = b.Values(idseq, bib.Tag, bib.Text)
		}
		if err := r.exec(ctx, b); err != nil {
			return fmt.Errorf("insert %s: %w", r.t.bib, err)
		}
	}
	if err := r.insertTexts(ctx, r.t.etym, "idseq", idseq, info.Etym); err != nil {
		return err
	}
	if len(info.Audit) > 0 {
		b := r.sb.Insert(r.t.audit).Columns("idseq", "upd_date", "upd_detl")
		for _, a := range info.Audit {
			b = b.Values(idseq, a.UpdDate, a.UpdDetl)
		}
		if err := r.exec(ctx, b); err != nil {
			return fmt.Errorf("insert %s: %w", r.t.audit, err)
		}
	}
	return nil
}

func (r *EntryStore) insertSense(ctx context.Context, idseq int64, s *entity.Sense) error {
	sid, err := r.insertID(ctx, r.sb.Insert(r.t.sense).Columns("idseq").Values(idseq))
	if err != nil {
		return fmt.Errorf("insert %s of %d: %w", r.t.sense, idseq, err)
	}
	for _, l := range r.t.lists {
		if err := r.insertTexts(ctx, l.table, r.t.senseFK, sid, *l.field(s)); err != nil {
			return err
		}
	}
	if r.t.lsource != "" && len(s.LSource) > 0 {
		b := r.sb.Insert(r.t.lsource).Columns(r.t.senseFK, "text", "lang", "lstype", "wasei")
		for _, ls := range s.LSource {
			b = b.Values(sid, ls.Text, ls.Lang, ls.LSType, ls.Wasei)
		}
		if err := r.exec(ctx, b); err != nil {
			return fmt.Errorf("insert %s: %w", r.t.lsource, err)
		}
	}
	if len(s.Gloss) > 0 {
		b := r.sb.Insert(r.t.gloss).Columns(r.t.senseFK, "lang", "gend", "text")
		for _, g := range s.Gloss {
			b = b.Values(sid, g.Lang, g.Gend, g.Text)
		}
		if err := r.exec(ctx, b); err != nil {
			return fmt.Errorf("insert %s: %w", r.t.gloss, err)
		}
	}
	return nil
}

// Get rebuilds one entry with a fixed number of queries per child table.
func (r *EntryStore) Get(ctx context.Context, idseq int64) (*entity.Entry, error) {
	query, args, err := r.sb.Select("idseq").From(r.t.entry).Where(squirrel.Eq{"idseq": idseq}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build statement: %w", err)
	}
	r.trace(query, args)
	var found int64
	if err := r.q(ctx).QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %d: %w", r.t.source, idseq, entity.ErrEntryNotFound)
		}
		return nil, readErr(r.t.entry, err)
	}

	e := entity.NewEntry(found)
	if r.t.link != "" {
		info, err := r.getInfo(ctx, idseq)
		if err != nil {
			return nil, err
		}
		if !info.Empty() {
			e.Info = info
		}
	}
	if e.KanjiForms, err = r.getKanji(ctx, idseq); err != nil {
		return nil, err
	}
	if e.KanaForms, err = r.getKana(ctx, idseq); err != nil {
		return nil, err
	}
	if e.Senses, err = r.getSenses(ctx, idseq); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *EntryStore) getInfo(ctx context.Context, idseq int64) (*entity.EntryInfo, error) {
	info := &entity.EntryInfo{}
	var err error
	info.Links, err = queryAll(ctx, r.Store,
		r.sb.Select("tag", "description", "uri").From(r.t.link).Where(squirrel.Eq{"idseq": idseq}).OrderBy("ID"),
		func(sc scanner) (entity.Link, error) {
			var l entity.Link
			err := sc.Scan(&l.Tag, &l.Desc, &l.URI)
			return l, err
		})
	if err != nil {
		return nil, readErr(r.t.link, err)
	}
	info.BibInfo, err = queryAll(ctx, r.Store,
		r.sb.Select("tag", "text").From(r.t.bib).Where(squirrel.Eq{"idseq": idseq}).OrderBy("ID"),
		func(sc scanner) (entity.BibInfo, error) {
			var b entity.BibInfo
			err := sc.Scan(&b.Tag, &b.Text)
			return b, err
		})
	if err != nil {
		return nil, readErr(r.t.bib, err)
	}
	etym, err := r.selectTexts(ctx, r.t.etym, "idseq", []int64{idseq})
	if err != nil {
		return nil, err
	}
	info.Etym = etym[idseq]
	info.Audit, err = queryAll(ctx, r.Store,
		r.sb.Select("upd_date", "upd_detl").From(r.t.audit).Where(squirrel.Eq{"idseq": idseq}).OrderBy("ID"),
		func(sc scanner) (entity.Audit, error) {
			var a entity.Audit
			err := sc.Scan(&a.UpdDate, &a.UpdDetl)
			return a, err
		})
	if err != nil {
		return nil, readErr(r.t.audit, err)
	}
	return info, nil
}

type formRow struct {
	id      int64
	text    string
	nokanji bool
}

func (r *EntryStore) getKanji(ctx context.Context, idseq int64) ([]*entity.KanjiForm, error) {
	rows, err := queryAll(ctx, r.Store,
		r.sb.Select("ID", "text").From(r.t.kanji).Where(squirrel.Eq{"idseq": idseq}).OrderBy("ID"),
		func(sc scanner) (formRow, error) {
			var f formRow
			err := sc.Scan(&f.id, &f.text)
			return f, err
		})
	if err != nil {
		return nil, readErr(r.t.kanji, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	ids := formIDs(rows)
	info, err := r.selectTexts(ctx, r.t.kji, "kid", ids)
	if err != nil {
		return nil, err
	}
	pri, err := r.selectTexts(ctx, r.t.kjp, "kid", ids)
	if err != nil {
		return nil, err
	}
	forms := make([]*entity.KanjiForm, 0, len(rows))
	for _, f := range rows {
		forms = append(forms, &entity.KanjiForm{Text: f.text, Info: info[f.id], Pri: pri[f.id]})
	}
	return forms, nil
}

func (r *EntryStore) getKana(ctx context.Context, idseq int64) ([]*entity.KanaForm, error) {
	rows, err := queryAll(ctx, r.Store,
		r.sb.Select("ID", "text", "nokanji").From(r.t.kana).Where(squirrel.Eq{"idseq": idseq}).OrderBy("ID"),
		func(sc scanner) (formRow, error) {
			var f formRow
			err := sc.Scan(&f.id, &f.text, &f.nokanji)
			return f, err
		})
	if err != nil {
		return nil, readErr(r.t.kana, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	ids := formIDs(rows)
	info, err := r.selectTexts(ctx, r.t.kni, "kid", ids)
	if err != nil {
		return nil, err
	}
	pri, err := r.selectTexts(ctx, r.t.knp, "kid", ids)
	if err != nil {
		return nil, err
	}
	restr, err := r.selectTexts(ctx, r.t.knr, "kid", ids)
	if err != nil {
		return nil, err
	}
	forms := make([]*entity.KanaForm, 0, len(rows))
	for _, f := range rows {
		forms = append(forms, &entity.KanaForm{Text: f.text, NoKanji: f.nokanji, Restr: restr[f.id], Info: info[f.id], Pri: pri[f.id]})
	}
	return forms, nil
}

func formIDs(rows []formRow) []int64 {
	ids := make([]int64, len(rows))
	for i, f := range rows {
		ids[i] = f.id
	}
	return ids
}

type lsourceRow struct {
	sid int64
	entity.LSource
}

type glossRow struct {
	sid int64
	entity.Gloss
}

func (r *EntryStore) getSenses(ctx context.Context, idseq int64) ([]*entity.Sense, error) {
	sids, err := queryAll(ctx, r.Store,
		r.sb.Select("ID").From(r.t.sense).Where(squirrel.Eq{"idseq": idseq}).OrderBy("ID"), scanInt64)
	if err != nil {
		return nil, readErr(r.t.sense, err)
	}
	if len(sids) == 0 {
		return nil, nil
	}

	senses := make(map[int64]*entity.Sense, len(sids))
	out := make([]*entity.Sense, len(sids))
	for i, sid := range sids {
		s := &entity.Sense{Kind: r.t.kind}
		senses[sid] = s
		out[i] = s
	}

	for _, l := range r.t.lists {
		values, err := r.selectTexts(ctx, l.table, r.t.senseFK, sids)
		if err != nil {
			return nil, err
		}
		for sid, v := range values {
			*l.field(senses[sid]) = v
		}
	}

	if r.t.lsource != "" {
		rows, err := queryAll(ctx, r.Store,
			r.sb.Select(r.t.senseFK, "text", "lang", "lstype", "wasei").From(r.t.lsource).
				Where(squirrel.Eq{r.t.senseFK: sids}).OrderBy("ID"),
			func(sc scanner) (lsourceRow, error) {
				var row lsourceRow
				err := sc.Scan(&row.sid, &row.Text, &row.Lang, &row.LSType, &row.Wasei)
				return row, err
			})
		if err != nil {
			return nil, readErr(r.t.lsource, err)
		}
		for _, row := range rows {
			senses[row.sid].LSource = append(senses[row.sid].LSource, row.LSource)
		}
	}

	rows, err := queryAll(ctx, r.Store,
		r.sb.Select(r.t.senseFK, "lang", "gend", "text").From(r.t.gloss).
			Where(squirrel.Eq{r.t.senseFK: sids}).OrderBy("ID"),
		func(sc scanner) (glossRow, error) {
			var row glossRow
			err := sc.Scan(&row.sid, &row.Lang, &row.Gend, &row.Text)
			return row, err
		})
	if err != nil {
		return nil, readErr(r.t.gloss, err)
	}
	for _, row := range rows {
		senses[row.sid].Gloss = append(senses[row.sid].Gloss, row.Gloss)
	}
	return out, nil
}

// SearchIDs returns the idseqs matching q in ascending order.
//
// Text is compared against kanji forms, kana forms and glosses (and name types in the name
// dictionary). Tags keep only entries with at least one sense carrying any of the values; with
// tags present an unbounded text ("" or "%") matches everything.
func (r *EntryStore) SearchIDs(ctx context.Context, q repository.Query) ([]int64, error) {
	sel := r.sb.Select("idseq").From(r.t.entry).OrderBy("idseq")
	if id, ok := q.ID(); ok {
		sel = sel.Where(squirrel.Eq{"idseq": id})
	} else {
		if !q.Unbounded() || len(q.Tags) == 0 {
			sel = sel.Where(r.textPredicate(q))
		}
		if len(q.Tags) > 0 {
			sel = sel.Where(r.senseHaving(r.t.tags, squirrel.Eq{"text": q.Tags}))
		}
	}
	ids, err := queryAll(ctx, r.Store, sel, scanInt64)
	if err != nil {
		return nil, readErr(r.t.entry, err)
	}
	return ids, nil
}

func (r *EntryStore) textPredicate(q repository.Query) squirrel.Sqlizer {
	var match squirrel.Sqlizer = squirrel.Eq{"text": q.Text}
	if q.Wildcard() {
		match = squirrel.Like{"text": q.Pattern()}
	}
	or := squirrel.Or{
		squirrel.Expr("idseq IN (?)", squirrel.Select("idseq").From(r.t.kanji).Where(match)),
		squirrel.Expr("idseq IN (?)", squirrel.Select("idseq").From(r.t.kana).Where(match)),
		r.senseHaving(r.t.gloss, match),
	}
	if r.t.searchTagsAsText {
		or = append(or, r.senseHaving(r.t.tags, match))
	}
	return or
}

// senseHaving selects entries with a sense that owns a row of table matching pred.
func (r *EntryStore) senseHaving(table string, pred squirrel.Sqlizer) squirrel.Sqlizer {
	bySense := squirrel.Select(r.t.senseFK).From(table).Where(pred)
	return squirrel.Expr("idseq IN (?)",
		squirrel.Select("idseq").From(r.t.sense).Where(squirrel.Expr("ID IN (?)", bySense)))
}

// AllTags lists the distinct pos values (words) or name types (names).
func (r *EntryStore) AllTags(ctx context.Context) ([]string, error) {
	tags, err := queryAll(ctx, r.Store,
		r.sb.Select("DISTINCT text").From(r.t.tags).OrderBy("text"), scanString)
	if err != nil {
		return nil, readErr(r.t.tags, err)
	}
	return tags, nil
}
