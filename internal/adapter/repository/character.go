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

// CharacterStore maps KANJIDIC2 characters onto the kd2_* tables.
type CharacterStore struct {
	*Store
}

var _ repository.CharacterRepository = (*CharacterStore)(nil)

func NewCharacterStore(s *Store) *CharacterStore { return &CharacterStore{Store: s} }

// Available reports whether at least one character is stored.
func (r *CharacterStore) Available(ctx context.Context) (bool, error) {
	n, err := r.Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the number of stored characters.
func (r *CharacterStore) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, "kd2_character")
}

// Insert writes one character with all of its children.
func (r *CharacterStore) Insert(ctx context.Context, c *entity.Character) error {
	cid, err := r.insertID(ctx, r.sb.Insert("kd2_character").
		Columns("literal", "stroke_count", "grade", "freq", "jlpt").
		Values(c.Literal, c.StrokeCount, c.Grade, c.Freq, c.JLPT))
	if err != nil {
		return fmt.Errorf("insert character %s: %w", c.Literal, err)
	}

	var rows []squirrel.InsertBuilder
	if len(c.Codepoints) > 0 {
		b := r.sb.Insert("codepoint").Columns("cid", "cp_type", "value")
		for _, v := range c.Codepoints {
			b = b.Values(cid, v.Type, v.Value)
		}
		rows = append(rows, b)
	}
	if len(c.Radicals) > 0 {
		b := r.sb.Insert("radical").Columns("cid", "rad_type", "value")
		for _, v := range c.Radicals {
			b = b.Values(cid, v.Type, v.Value)
		}
		rows = append(rows, b)
	}
	if len(c.StrokeMiscounts) > 0 {
		b := r.sb.Insert("stroke_miscount").Columns("cid", "value")
		for _, v := range c.StrokeMiscounts {
			b = b.Values(cid, v)
		}
		rows = append(rows, b)
	}
	if len(c.Variants) > 0 {
		b := r.sb.Insert("variant").Columns("cid", "var_type", "value")
		for _, v := range c.Variants {
			b = b.Values(cid, v.Type, v.Value)
		}
		rows = append(rows, b)
	}
	if len(c.RadNames) > 0 {
		b := r.sb.Insert("rad_name").Columns("cid", "value")
		for _, v := range c.RadNames {
			b = b.Values(cid, v)
		}
		rows = append(rows, b)
	}
	if len(c.DicRefs) > 0 {
		b := r.sb.Insert("dic_ref").Columns("cid", "dr_type", "value", "m_vol", "m_page")
		for _, v := range c.DicRefs {
			b = b.Values(cid, v.Type, v.Value, v.Vol, v.Page)
		}
		rows = append(rows, b)
	}
	if len(c.QueryCodes) > 0 {
		b := r.sb.Insert("query_code").Columns("cid", "qc_type", "value", "skip_misclass")
		for _, v := range c.QueryCodes {
			b = b.Values(cid, v.Type, v.Value, v.Misclass)
		}
		rows = append(rows, b)
	}
	if len(c.Nanoris) > 0 {
		b := r.sb.Insert("nanori").Columns("cid", "value")
		for _, v := range c.Nanoris {
			b = b.Values(cid, v)
		}
		rows = append(rows, b)
	}
	for _, b := range rows {
		if err := r.exec(ctx, b); err != nil {
			return fmt.Errorf("character %s: %w", c.Literal, err)
		}
	}

	for _, g := range c.RMGroups {
		gid, err := r.insertID(ctx, r.sb.Insert("rm_group").Columns("cid").Values(cid))
		if err != nil {
			return fmt.Errorf("insert rm_group of %s: %w", c.Literal, err)
		}
		if len(g.Readings) > 0 {
			b := r.sb.Insert("reading").Columns("gid", "r_type", "value", "on_type", "r_status")
			for _, v := range g.Readings {
				b = b.Values(gid, v.Type, v.Value, v.OnType, v.Status)
			}
			if err := r.exec(ctx, b); err != nil {
				return fmt.Errorf("insert reading of %s: %w", c.Literal, err)
			}
		}
		if len(g.Meanings) > 0 {
			b := r.sb.Insert("meaning").Columns("gid", "value", "m_lang")
			for _, v := range g.Meanings {
				b = b.Values(gid, v.Value, v.Lang)
			}
			if err := r.exec(ctx, b); err != nil {
				return fmt.Errorf("insert meaning of %s: %w", c.Literal, err)
			}
		}
	}
	return nil
}

// GetChar rebuilds one character.
func (r *CharacterStore) GetChar(ctx context.Context, literal string) (*entity.Character, error) {
	query, args, err := r.sb.Select("ID", "literal", "stroke_count", "grade", "freq", "jlpt").
		From("kd2_character").Where(squirrel.Eq{"literal": literal}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build statement: %w", err)
	}
	r.trace(query, args)
	var (
		cid int64
		c   entity.Character
	)
	err = r.q(ctx).QueryRowContext(ctx, query, args...).Scan(&cid, &c.Literal, &c.StrokeCount, &c.Grade, &c.Freq, &c.JLPT)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", literal, entity.ErrCharacterNotFound)
		}
		return nil, readErr("kd2_character", err)
	}

	byChar := func(table string, cols ...string) squirrel.SelectBuilder {
		return r.sb.Select(cols...).From(table).Where(squirrel.Eq{"cid": cid}).OrderBy("ID")
	}
	if c.Codepoints, err = queryAll(ctx, r.Store, byChar("codepoint", "cp_type", "value"), func(sc scanner) (entity.CodePoint, error) {
		var v entity.CodePoint
		err := sc.Scan(&v.Type, &v.Value)
		return v, err
	}); err != nil {
		return nil, readErr("codepoint", err)
	}
	if c.Radicals, err = queryAll(ctx, r.Store, byChar("radical", "rad_type", "value"), func(sc scanner) (entity.Radical, error) {
		var v entity.Radical
		err := sc.Scan(&v.Type, &v.Value)
		return v, err
	}); err != nil {
		return nil, readErr("radical", err)
	}
	if c.StrokeMiscounts, err = queryAll(ctx, r.Store, byChar("stroke_miscount", "value"), func(sc scanner) (int, error) {
		var v int
		err := sc.Scan(&v)
		return v, err
	}); err != nil {
		return nil, readErr("stroke_miscount", err)
	}
	if c.Variants, err = queryAll(ctx, r.Store, byChar("variant", "var_type", "value"), func(sc scanner) (entity.Variant, error) {
		var v entity.Variant
		err := sc.Scan(&v.Type, &v.Value)
		return v, err
	}); err != nil {
		return nil, readErr("variant", err)
	}
	if c.RadNames, err = queryAll(ctx, r.Store, byChar("rad_name", "value"), scanString); err != nil {
		return nil, readErr("rad_name", err)
	}
	if c.DicRefs, err = queryAll(ctx, r.Store, byChar("dic_ref", "dr_type", "value", "m_vol", "m_page"), func(sc scanner) (entity.DicRef, error) {
		var v entity.DicRef
		err := sc.Scan(&v.Type, &v.Value, &v.Vol, &v.Page)
		return v, err
	}); err != nil {
		return nil, readErr("dic_ref", err)
	}
	if c.QueryCodes, err = queryAll(ctx, r.Store, byChar("query_code", "qc_type", "value", "skip_misclass"), func(sc scanner) (entity.QueryCode, error) {
		var v entity.QueryCode
		err := sc.Scan(&v.Type, &v.Value, &v.Misclass)
		return v, err
	}); err != nil {
		return nil, readErr("query_code", err)
	}
	if c.Nanoris, err = queryAll(ctx, r.Store, byChar("nanori", "value"), scanString); err != nil {
		return nil, readErr("nanori", err)
	}
	if c.RMGroups, err = r.getRMGroups(ctx, cid); err != nil {
		return nil, err
	}
	return &c, nil
}

type readingRow struct {
	gid int64
	entity.Reading
}

type meaningRow struct {
	gid int64
	entity.Meaning
}

func (r *CharacterStore) getRMGroups(ctx context.Context, cid int64) ([]entity.RMGroup, error) {
	gids, err := queryAll(ctx, r.Store,
		r.sb.Select("ID").From("rm_group").Where(squirrel.Eq{"cid": cid}).OrderBy("ID"), scanInt64)
	if err != nil {
		return nil, readErr("rm_group", err)
	}
	if len(gids) == 0 {
		return nil, nil
	}
	readings, err := queryAll(ctx, r.Store,
		r.sb.Select("gid", "r_type", "value", "on_type", "r_status").From("reading").
			Where(squirrel.Eq{"gid": gids}).OrderBy("ID"),
		func(sc scanner) (readingRow, error) {
			var v readingRow
			err := sc.Scan(&v.gid, &v.Type, &v.Value, &v.OnType, &v.Status)
			return v, err
		})
	if err != nil {
		return nil, readErr("reading", err)
	}
	meanings, err := queryAll(ctx, r.Store,
		r.sb.Select("gid", "value", "m_lang").From("meaning").
			Where(squirrel.Eq{"gid": gids}).OrderBy("ID"),
		func(sc scanner) (meaningRow, error) {
			var v meaningRow
			err := sc.Scan(&v.gid, &v.Value, &v.Lang)
			return v, err
		})
	if err != nil {
		return nil, readErr("meaning", err)
	}

	index := make(map[int64]int, len(gids))
	groups := make([]entity.RMGroup, len(gids))
	for i, gid := range gids {
		index[gid] = i
	}
	for _, v := range readings {
		g := &groups[index[v.gid]]
		g.Readings = append(g.Readings, v.Reading)
	}
	for _, v := range meanings {
		g := &groups[index[v.gid]]
		g.Meanings = append(g.Meanings, v.Meaning)
	}
	return groups, nil
}
