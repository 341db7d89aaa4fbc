package memory

import (
	"context"
	"fmt"

	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/repository"
)

// CharacterIndex holds KANJIDIC2 characters keyed by literal.
type CharacterIndex struct {
	header *entity.KanjiDic2
	chars  map[string]*entity.Character
}

var _ repository.CharacterRepository = (*CharacterIndex)(nil)

// NewCharacterIndex keeps the first record of a literal that occurs twice.
func NewCharacterIndex(header *entity.KanjiDic2, chars []*entity.Character) *CharacterIndex {
	x := &CharacterIndex{header: header, chars: make(map[string]*entity.Character, len(chars))}
	for _, c := range chars {
		if _, dup := x.chars[c.Literal]; !dup {
			x.chars[c.Literal] = c
		}
	}
	return x
}

func (x *CharacterIndex) Header() *entity.KanjiDic2 { return x.header }

func (x *CharacterIndex) Len() int { return len(x.chars) }

func (x *CharacterIndex) Count(context.Context) (int64, error) { return int64(len(x.chars)), nil }

func (x *CharacterIndex) GetChar(_ context.Context, literal string) (*entity.Character, error) {
	c, ok := x.chars[literal]
	if !ok {
		return nil, fmt.Errorf("%s: %w", literal, entity.ErrCharacterNotFound)
	}
	return c, nil
}

func (x *CharacterIndex) Available(context.Context) (bool, error) {
	return len(x.chars) > 0, nil
}
