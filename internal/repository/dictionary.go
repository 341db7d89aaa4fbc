package repository

import (
	"context"

	"github.com/eslsoft/jamdict/internal/entity"
)

// EntryRepository is a searchable store of JMdict-shaped entries. Word and name dictionaries both
// implement it, backed either by SQL tables or by parsed documents held in memory.
type EntryRepository interface {
	// SearchIDs returns matching idseqs in store order.
	SearchIDs(ctx context.Context, q Query) ([]int64, error)
	// Get rebuilds a full entry; entity.ErrEntryNotFound when absent.
	Get(ctx context.Context, idseq int64) (*entity.Entry, error)
	// AllTags lists the distinct pos (words) or name types (names).
	AllTags(ctx context.Context) ([]string, error)
	// Available reports whether the store holds data that can be searched.
	Available(ctx context.Context) (bool, error)
}

// CharacterRepository resolves KANJIDIC2 characters.
type CharacterRepository interface {
	// GetChar returns entity.ErrCharacterNotFound for literals without a record.
	GetChar(ctx context.Context, literal string) (*entity.Character, error)
	Available(ctx context.Context) (bool, error)
}

// MetaRepository reads the provenance key/value table.
type MetaRepository interface {
	GetMeta(ctx context.Context, key string) (string, bool, error)
	ListMeta(ctx context.Context) ([]entity.Meta, error)
}

// Counter is implemented by stores that can report how many records they hold.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// ComponentIndex maps kanji to their visual components and back.
type ComponentIndex interface {
	ComponentsOf(char string) ([]string, error)
	CharactersWith(component string) ([]string, error)
}
