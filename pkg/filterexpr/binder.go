// Package filterexpr binds a CEL filter expression onto a params struct.
//
// Only conjunctions of atomic predicates are accepted:
//
//	pos in ["vi", "vt"] && mode == "exact" && name_type == "surname"
package filterexpr

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/cel-go/cel"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// ValueKind describes the kind of literal value a field accepts.
type ValueKind string

const (
	KindString ValueKind = "string"
)

// Op represents a supported comparison operation.
type Op string

const (
	OpEQ Op = "=="
	OpIN Op = "in"
)

// SetterFunc allows custom assignment of literal values to struct fields.
type SetterFunc func(field reflect.Value, value any) error

// FieldRule maps a filter identifier to params struct fields, one per allowed operation.
type FieldRule struct {
	Kind   ValueKind
	Ops    map[Op]string
	Setter SetterFunc
}

// Schema whitelists the identifiers a filter may use.
type Schema struct {
	Fields map[string]FieldRule
}

// Bind parses filter and populates binding, a pointer to a struct.
// An empty filter leaves binding untouched.
func Bind(filter string, binding any, schema Schema) error {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil
	}
	if len(schema.Fields) == 0 {
		return errors.New("filter schema has no fields defined")
	}

	paramsVal := reflect.ValueOf(binding)
	if paramsVal.Kind() != reflect.Ptr || paramsVal.IsNil() {
		return errors.New("binding must be a non-nil pointer")
	}
	dest := paramsVal.Elem()
	if dest.Kind() != reflect.Struct {
		return errors.New("binding must point to a struct")
	}

	env, err := buildEnv(schema.Fields)
	if err != nil {
		return err
	}
	ast, issues := env.Parse(filter)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("invalid filter: %w", issues.Err())
	}
	parsed, err := cel.AstToParsedExpr(ast)
	if err != nil {
		return fmt.Errorf("failed to convert AST: %w", err)
	}
	conjuncts, err := extractConjuncts(parsed.GetExpr())
	if err != nil {
		return err
	}

	for _, expr := range conjuncts {
		pred, err := parseAtomicPredicate(expr)
		if err != nil {
			return err
		}
		if err := apply(dest, pred, schema.Fields); err != nil {
			return err
		}
	}
	return nil
}

type atomicPredicate struct {
	Field string
	Op    Op
	Value any
}

func apply(dest reflect.Value, pred atomicPredicate, fields map[string]FieldRule) error {
	rule, ok := fields[pred.Field]
	if !ok {
		return fmt.Errorf("field %q is not allowed", pred.Field)
	}
	targetName, ok := rule.Ops[pred.Op]
	if !ok {
		return fmt.Errorf("operator %q is not allowed for field %q", string(pred.Op), pred.Field)
	}
	if err := validateLiteral(rule.Kind, pred.Op, pred.Value); err != nil {
		return fmt.Errorf("field %q: %w", pred.Field, err)
	}

	field := dest.FieldByName(targetName)
	if !field.IsValid() {
		return fmt.Errorf("params struct %s has no field named %q", dest.Type(), targetName)
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field %q on params struct", targetName)
	}

	if rule.Setter != nil {
		if err := rule.Setter(field, pred.Value); err != nil {
			return fmt.Errorf("setter for field %q failed: %w", targetName, err)
		}
		return nil
	}
	if err := assignValue(field, pred.Value); err != nil {
		return fmt.Errorf("failed to assign field %q: %w", targetName, err)
	}
	return nil
}

func buildEnv(fields map[string]FieldRule) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(fields))
	for name, rule := range fields {
		if rule.Kind != KindString {
			return nil, fmt.Errorf("field %q: unsupported field kind %s", name, rule.Kind)
		}
		opts = append(opts, cel.Variable(name, cel.StringType))
	}
	// cel-go parses a && b && c as nested binary calls; extractConjuncts flattens them.
	return cel.NewEnv(opts...)
}

func extractConjuncts(expr *exprpb.Expr) ([]*exprpb.Expr, error) {
	if expr == nil {
		return nil, errors.New("empty expression")
	}

	call := expr.GetCallExpr()
	if call == nil {
		return []*exprpb.Expr{expr}, nil
	}

	switch call.Function {
	case "_&&_":
		if len(call.Args) < 2 || call.Target != nil {
			return nil, errors.New("logical AND must have at least two operands")
		}
		var result []*exprpb.Expr
		for _, arg := range call.Args {
			conjuncts, err := extractConjuncts(arg)
			if err != nil {
				return nil, err
			}
			result = append(result, conjuncts...)
		}
		return result, nil
	case "_||_", "_?_:_", "!_":
		return nil, fmt.Errorf("logical operator %q is not supported; only AND is allowed", call.Function)
	default:
		return []*exprpb.Expr{expr}, nil
	}
}

func parseAtomicPredicate(expr *exprpb.Expr) (atomicPredicate, error) {
	call := expr.GetCallExpr()
	if call == nil {
		return atomicPredicate{}, errors.New("unsupported expression; expected comparison or function call")
	}

	switch call.Function {
	case "_==_":
		return parseEquality(call)
	case "@in":
		return parseInPredicate(call)
	default:
		return atomicPredicate{}, fmt.Errorf("function %q is not supported", call.Function)
	}
}

func parseEquality(call *exprpb.Expr_Call) (atomicPredicate, error) {
	if call.Target != nil || len(call.Args) != 2 {
		return atomicPredicate{}, errors.New("operator \"==\" expects two operands")
	}
	return predicate(call.Args[0], call.Args[1], OpEQ)
}

func parseInPredicate(call *exprpb.Expr_Call) (atomicPredicate, error) {
	if call.Target != nil || len(call.Args) != 2 {
		return atomicPredicate{}, errors.New("in operator expects two operands")
	}
	return predicate(call.Args[0], call.Args[1], OpIN)
}

func predicate(fieldExpr, valueExpr *exprpb.Expr, op Op) (atomicPredicate, error) {
	ident := fieldExpr.GetIdentExpr()
	if ident == nil {
		return atomicPredicate{}, errors.New("left-hand side must be an identifier")
	}
	value, err := parseLiteral(valueExpr)
	if err != nil {
		return atomicPredicate{}, err
	}
	return atomicPredicate{Field: ident.GetName(), Op: op, Value: value}, nil
}

func parseLiteral(expr *exprpb.Expr) (any, error) {
	if constant := expr.GetConstExpr(); constant != nil {
		if _, ok := constant.ConstantKind.(*exprpb.Constant_StringValue); ok {
			return constant.GetStringValue(), nil
		}
		return nil, fmt.Errorf("literal type %T is not supported", constant.ConstantKind)
	}

	if list := expr.GetListExpr(); list != nil {
		elements := list.GetElements()
		values := make([]string, len(elements))
		for i, elem := range elements {
			val, err := parseLiteral(elem)
			if err != nil {
				return nil, fmt.Errorf("list literal element %d: %w", i, err)
			}
			values[i] = val.(string)
		}
		return values, nil
	}

	return nil, errors.New("right-hand side must be a string or list literal")
}

func validateLiteral(kind ValueKind, op Op, value any) error {
	if kind != KindString {
		return fmt.Errorf("unsupported field kind %s", kind)
	}
	if op != OpIN {
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected %s literal", kind)
		}
		return nil
	}
	list, ok := value.([]string)
	if !ok {
		return fmt.Errorf("expected list of %s literals", kind)
	}
	if len(list) == 0 {
		return errors.New("list literal must not be empty")
	}
	for _, item := range list {
		if item == "" {
			return errors.New("list literal must not contain empty strings")
		}
	}
	return nil
}

func assignValue(field reflect.Value, value any) error {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return assignValue(field.Elem(), value)
	}

	switch v := value.(type) {
	case string:
		if field.Kind() != reflect.String {
			return fmt.Errorf("expected string-compatible destination, got %s", field.Kind())
		}
		field.SetString(v)
	case []string:
		if field.Kind() != reflect.Slice || field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("expected slice of strings destination, got %s", field.Type())
		}
		field.Set(reflect.ValueOf(append([]string(nil), v...)))
	default:
		return fmt.Errorf("unsupported literal type %T", value)
	}
	return nil
}
