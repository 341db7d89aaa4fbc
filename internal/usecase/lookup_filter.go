package usecase

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/eslsoft/jamdict/internal/entity"
	"github.com/eslsoft/jamdict/internal/repository"
	"github.com/eslsoft/jamdict/pkg/filterexpr"
)

type lookupFilterParams struct {
	POS       []string
	NameTypes []string
	Mode      *string
	Strict    *string
}

func appendStrings(field reflect.Value, v any) error {
	switch val := v.(type) {
	case string:
		field.Set(reflect.Append(field, reflect.ValueOf(val)))
	case []string:
		field.Set(reflect.AppendSlice(field, reflect.ValueOf(val)))
	default:
		return fmt.Errorf("unexpected literal %T", v)
	}
	return nil
}

var lookupFilterSchema = filterexpr.Schema{
	Fields: map[string]filterexpr.FieldRule{
		"pos": {
			Kind:   filterexpr.KindString,
			Ops:    map[filterexpr.Op]string{filterexpr.OpEQ: "POS", filterexpr.OpIN: "POS"},
			Setter: appendStrings,
		},
		"name_type": {
			Kind:   filterexpr.KindString,
			Ops:    map[filterexpr.Op]string{filterexpr.OpEQ: "NameTypes", filterexpr.OpIN: "NameTypes"},
			Setter: appendStrings,
		},
		"mode": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "Mode"},
		},
		"chars": {
			Kind: filterexpr.KindString,
			Ops:  map[filterexpr.Op]string{filterexpr.OpEQ: "Strict"},
		},
	},
}

// ApplyFilter merges a filter expression into the options, e.g.
//
//	pos in ["vi", "vt"] && name_type == "surname" && mode == "exact" && chars == "strict"
//
// Tags named by the filter are added to those already set.
func (o *LookupOptions) ApplyFilter(expr string) error {
	var params lookupFilterParams
	if err := filterexpr.Bind(expr, &params, lookupFilterSchema); err != nil {
		return fmt.Errorf("%w: %w", entity.ErrInvalidFilter, err)
	}
	o.POS = mergeTags(o.POS, params.POS)
	o.NameTypes = mergeTags(o.NameTypes, params.NameTypes)
	if params.Mode != nil {
		mode, err := repository.ParseMatchMode(*params.Mode)
		if err != nil {
			return fmt.Errorf("%w: %w", entity.ErrInvalidFilter, err)
		}
		o.Mode = mode
	}
	if params.Strict != nil {
		switch *params.Strict {
		case "strict":
			o.Strict = true
		case "all":
			o.Strict = false
		default:
			return fmt.Errorf("%w: chars must be \"strict\" or \"all\", got %q", entity.ErrInvalidFilter, *params.Strict)
		}
	}
	return nil
}

// mergeTags copies so the caller's slice is never appended to in place.
func mergeTags(tags repository.Tags, extra []string) repository.Tags {
	if len(extra) == 0 {
		return tags
	}
	return repository.Tags{Values: slices.Concat(tags.Values, extra), Bare: tags.Bare}
}
