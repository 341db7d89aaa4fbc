package entity

import (
	"errors"
	"fmt"
)

// Domain errors for dictionary records and lookups.
var (
	ErrEntryNotFound      = errors.New("entry not found")
	ErrCharacterNotFound  = errors.New("character not found")
	ErrEmptyQuery         = errors.New("query and pos filter cannot be both empty")
	ErrBackendUnavailable = errors.New("no dictionary backend available")
	ErrFieldAlreadySet    = errors.New("field already set")
	ErrEntryNoKana        = errors.New("entry has no kana form")
	ErrEntryNoSense       = errors.New("entry has no sense")
	ErrSequenceConsumed   = errors.New("lookup sequence already consumed")
	ErrInvalidIdseq       = errors.New("invalid entry idseq")
	ErrStoreNotEmpty      = errors.New("store already holds this dictionary")
	ErrInvalidFilter      = errors.New("invalid lookup filter")
)

// ParseError reports a structural problem in a source document. Parsing stops at the first one.
type ParseError struct {
	Source string // document kind, e.g. "jmdict"
	Parent string // enclosing element
	Tag    string // offending element
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("%s: %s: %s", e.Source, e.Parent, e.Reason)
	}
	return fmt.Sprintf("%s: <%s> in <%s>: %s", e.Source, e.Tag, e.Parent, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
