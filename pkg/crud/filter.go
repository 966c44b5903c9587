package crud

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"sort"
	"strings"

	appErrors "github.com/noah-isme/adminkit/pkg/errors"
)

// Operator names the comparison applied by a filter condition.
type Operator string

const (
	OpEq      Operator = "eq"
	OpLike    Operator = "like"
	OpGt      Operator = "gt"
	OpLt      Operator = "lt"
	OpBetween Operator = "between"
)

// Condition is a single (operator, value) pair applied to one field.
type Condition struct {
	Op    Operator
	Value interface{}
}

// Bounds is the inclusive range used by OpBetween.
type Bounds [2]interface{}

// Filters maps public field names to conditions. Entries are combined with AND.
// A nil condition, a nil value (including a nil pointer) or a field unknown to
// the schema is ignored. Pointer values are compared by what they point to.
type Filters map[string]*Condition

// Eq matches rows whose field equals v.
func Eq(v interface{}) *Condition { return &Condition{Op: OpEq, Value: v} }

// Like matches rows whose field contains v as a substring.
func Like(v interface{}) *Condition { return &Condition{Op: OpLike, Value: v} }

// Gt matches rows whose field is strictly greater than v.
func Gt(v interface{}) *Condition { return &Condition{Op: OpGt, Value: v} }

// Lt matches rows whose field is strictly less than v.
func Lt(v interface{}) *Condition { return &Condition{Op: OpLt, Value: v} }

// Between matches rows whose field lies within [lo, hi].
func Between(lo, hi interface{}) *Condition {
	return &Condition{Op: OpBetween, Value: Bounds{lo, hi}}
}

// whereClause renders the conjunction of all applicable filters. Fields are visited
// in name order so the same Filters always produce the same SQL. args holds the
// values already bound by the caller; placeholders continue from there.
func (s Schema) whereClause(filters Filters, args []interface{}) (string, []interface{}, error) {
	if len(filters) == 0 {
		return "", args, nil
	}

	fields := make([]string, 0, len(filters))
	for field := range filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var predicates []string
	for _, field := range fields {
		cond := filters[field]
		if cond == nil {
			continue
		}
		value, ok := normalize(cond.Value)
		if !ok {
			continue
		}
		column, ok := s.Fields[field]
		if !ok {
			continue
		}

		switch cond.Op {
		case OpEq, "":
			args = append(args, value)
			predicates = append(predicates, fmt.Sprintf("%s = $%d", column, len(args)))
		case OpLike:
			pattern, ok, err := likePattern(value)
			if err != nil {
				return "", nil, appErrors.InvalidArgument(fmt.Sprintf("filter %s: %v", field, err))
			}
			if !ok {
				continue
			}
			args = append(args, pattern)
			predicates = append(predicates, fmt.Sprintf("%s LIKE $%d", column, len(args)))
		case OpGt:
			args = append(args, value)
			predicates = append(predicates, fmt.Sprintf("%s > $%d", column, len(args)))
		case OpLt:
			args = append(args, value)
			predicates = append(predicates, fmt.Sprintf("%s < $%d", column, len(args)))
		case OpBetween:
			lo, hi, err := bounds(value)
			if err != nil {
				return "", nil, appErrors.InvalidArgument(fmt.Sprintf("filter %s: %v", field, err))
			}
			args = append(args, lo, hi)
			predicates = append(predicates, fmt.Sprintf("%s BETWEEN $%d AND $%d", column, len(args)-1, len(args)))
		default:
			return "", nil, appErrors.InvalidArgument(fmt.Sprintf("filter %s: unsupported operator %q", field, cond.Op))
		}
	}

	if len(predicates) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(predicates, " AND "), args, nil
}

// normalize unwraps pointer values. ok is false when v is nil or a nil pointer,
// meaning the filter does not apply. driver.Valuer implementations are passed
// through untouched so the SQL driver can encode them.
func normalize(v interface{}) (interface{}, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, false
		}
		if _, ok := rv.Interface().(driver.Valuer); ok {
			return rv.Interface(), true
		}
		rv = rv.Elem()
	}
	return rv.Interface(), true
}

// likePattern wraps v in % wildcards. A Valuer resolving to NULL is skipped.
func likePattern(v interface{}) (string, bool, error) {
	if valuer, ok := v.(driver.Valuer); ok {
		resolved, err := valuer.Value()
		if err != nil {
			return "", false, err
		}
		if resolved == nil {
			return "", false, nil
		}
		v = resolved
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	return fmt.Sprintf("%%%v%%", v), true, nil
}

// bounds accepts Bounds or any two-element slice or array. Pointer bounds are
// unwrapped; a nil bound is bound as NULL.
func bounds(v interface{}) (interface{}, interface{}, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 || rv.Len() != 2 {
			break
		}
		lo, _ := normalize(rv.Index(0).Interface())
		hi, _ := normalize(rv.Index(1).Interface())
		return lo, hi, nil
	}
	return nil, nil, fmt.Errorf("between requires exactly two bounds")
}
