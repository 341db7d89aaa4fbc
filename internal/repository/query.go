package repository

import (
	"fmt"
	"strconv"
	"strings"
)

// MatchMode selects how query text is compared with stored forms.
type MatchMode int

const (
	// MatchAuto treats the query as a wildcard pattern when it contains %, _ or ?.
	MatchAuto MatchMode = iota
	MatchExact
	MatchWildcard
)

func (m MatchMode) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchWildcard:
		return "wildcard"
	default:
		return "auto"
	}
}

// ParseMatchMode converts a flag value into a MatchMode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return MatchAuto, nil
	case "exact":
		return MatchExact, nil
	case "wildcard", "like":
		return MatchWildcard, nil
	default:
		return MatchAuto, fmt.Errorf("unknown match mode %q", s)
	}
}

const idPrefix = "id#"

// Query is one search over a dictionary store.
type Query struct {
	Text string
	Mode MatchMode
	// Tags restricts hits to entries carrying any of the values (pos for words, name type for names).
	Tags []string
}

// ID returns the identifier of an id#N query.
func (q Query) ID() (int64, bool) {
	if !strings.HasPrefix(q.Text, idPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(q.Text[len(idPrefix):], 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// Wildcard reports whether the text is matched as a pattern.
func (q Query) Wildcard() bool {
	switch q.Mode {
	case MatchExact:
		return false
	case MatchWildcard:
		return true
	default:
		return strings.ContainsAny(q.Text, "%_?")
	}
}

// Pattern returns the text as a LIKE pattern; ? is an alias of _.
func (q Query) Pattern() string {
	return strings.ReplaceAll(q.Text, "?", "_")
}

// Unbounded reports whether the text alone would select every entry.
func (q Query) Unbounded() bool {
	return q.Text == "" || (q.Text == "%" && q.Mode != MatchExact)
}

// Tags is a tag filter as supplied by a caller.
type Tags struct {
	Values []string
	// Bare is set when the caller passed one string instead of a list.
	// The string is used as a single unsplit tag.
	Bare bool
}

// TagsOf normalizes a loosely typed filter value: nil, a string, []string or []any of strings.
func TagsOf(v any) (Tags, error) {
	switch t := v.(type) {
	case nil:
		return Tags{}, nil
	case string:
		if t == "" {
			return Tags{}, nil
		}
		return Tags{Values: []string{t}, Bare: true}, nil
	case []string:
		return Tags{Values: t}, nil
	case []any:
		values := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return Tags{}, fmt.Errorf("tag filter item %v is %T, want string", item, item)
			}
			values = append(values, s)
		}
		return Tags{Values: values}, nil
	default:
		return Tags{}, fmt.Errorf("unsupported tag filter type %T", v)
	}
}
