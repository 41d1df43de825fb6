package query

import (
	"reflect"
	"strings"
	"time"
)

// Filter evaluates a query against a sequence and returns the matching
// entries in their original order.
func Filter[T Entity](q *Query, items []T) []T {
	var results []T
	for _, item := range items {
		if Matches(q, item) {
			results = append(results, item)
		}
	}
	return results
}

// Matches reports whether a single entity satisfies the query.
func Matches(q *Query, e Entity) bool {
	if len(q.Conditions) == 0 {
		return true
	}

	if q.LogicalOp == LogicalOr {
		for _, c := range q.Conditions {
			if evaluateCondition(e, c) {
				return true
			}
		}
		return false
	}

	for _, c := range q.Conditions {
		if !evaluateCondition(e, c) {
			return false
		}
	}
	return true
}

func evaluateCondition(e Entity, c Condition) bool {
	fieldValue, present := e.QueryField(c.Field)
	if !present || fieldValue == nil {
		// Absent fields only interact with equality: `=` matches a null
		// comparison value, `!=` always matches.
		switch c.Operator {
		case OpEq:
			return c.Value == nil
		case OpNe:
			return c.Value != nil
		}
		return false
	}

	switch c.Operator {
	case OpEq:
		return valuesEqual(fieldValue, c.Value)
	case OpNe:
		return !valuesEqual(fieldValue, c.Value)
	case OpGt:
		cmp, ok := compareValues(fieldValue, c.Value)
		return ok && cmp > 0
	case OpLt:
		cmp, ok := compareValues(fieldValue, c.Value)
		return ok && cmp < 0
	case OpGte:
		cmp, ok := compareValues(fieldValue, c.Value)
		return ok && cmp >= 0
	case OpLte:
		cmp, ok := compareValues(fieldValue, c.Value)
		return ok && cmp <= 0
	case OpContains:
		return evaluateContains(fieldValue, c.Value)
	case OpIn:
		list, ok := c.Value.([]any)
		if !ok {
			return false
		}
		for _, item := range list {
			if valuesEqual(fieldValue, item) {
				return true
			}
		}
		return false
	}

	return false
}

// evaluateContains is case-insensitive substring match on strings and
// membership on lists.
func evaluateContains(fieldValue, value any) bool {
	switch fv := fieldValue.(type) {
	case string:
		needle, ok := value.(string)
		if !ok {
			return false
		}
		return strings.Contains(strings.ToLower(fv), strings.ToLower(needle))
	case []any:
		for _, item := range fv {
			if valuesEqual(item, value) {
				return true
			}
		}
	}
	return false
}

func valuesEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}
	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			return at.Equal(bt)
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders two values naturally: numerics by value, dates by
// time, strings lexicographically. Returns false when the values are not
// comparable.
func compareValues(a, b any) (int, bool) {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}

	if at, aok := a.(time.Time); aok {
		bt, bok := b.(time.Time)
		if !bok {
			return 0, false
		}
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		}
		return 0, true
	}

	if as, aok := a.(string); aok {
		bs, bok := b.(string)
		if !bok {
			return 0, false
		}
		return strings.Compare(as, bs), true
	}

	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
