package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	logicalSplitPattern = regexp.MustCompile(`(?i)\s+(?:AND|OR)\s+`)
	orPattern           = regexp.MustCompile(`(?i)\s+OR\s+`)

	// field OP value; field may be a dotted path for nested lookup.
	conditionPattern = regexp.MustCompile(
		`^(?P<field>[a-zA-Z_][a-zA-Z0-9_.]*)\s*(?P<op>>=|<=|!=|=|<|>|contains|in)\s*(?P<value>.+)$`)
	// Quoted field form for names with other characters.
	quotedConditionPattern = regexp.MustCompile(
		`^"(?P<field>[^"]+)"\s*(?P<op>>=|<=|!=|=|<|>|contains|in)\s*(?P<value>.+)$`)

	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	intPattern   = regexp.MustCompile(`^-?\d+$`)
	floatPattern = regexp.MustCompile(`^-?\d+\.\d+$`)
)

// Parse parses a query string like
//
//	success_rate >= 0.9 AND tags contains 'stable'
//
// The first logical operator found determines the combinator for the whole
// query.
func Parse(queryString string) (*Query, error) {
	queryString = strings.TrimSpace(queryString)
	if queryString == "" {
		return nil, fmt.Errorf("empty query")
	}

	logicalOp := LogicalAnd
	if orPattern.MatchString(queryString) {
		logicalOp = LogicalOr
	}

	var conditions []Condition
	for _, part := range logicalSplitPattern.Split(queryString, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		condition, err := parseCondition(part)
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, condition)
	}

	if len(conditions) == 0 {
		return nil, fmt.Errorf("no conditions in query %q", queryString)
	}

	return &Query{Conditions: conditions, LogicalOp: logicalOp}, nil
}

func parseCondition(conditionString string) (Condition, error) {
	// NOT only inverts equality; other operators are unaffected.
	negate := false
	if len(conditionString) > 4 && strings.EqualFold(conditionString[:4], "NOT ") {
		negate = true
		conditionString = strings.TrimSpace(conditionString[4:])
	}

	match := conditionPattern.FindStringSubmatch(conditionString)
	if match == nil {
		match = quotedConditionPattern.FindStringSubmatch(conditionString)
	}
	if match == nil {
		return Condition{}, fmt.Errorf("invalid condition: %q", conditionString)
	}

	field := match[1]
	operator := Operator(match[2])
	value := parseValue(strings.TrimSpace(match[3]))

	if negate {
		switch operator {
		case OpEq:
			operator = OpNe
		case OpNe:
			operator = OpEq
		}
	}

	return Condition{Field: field, Operator: operator, Value: value}, nil
}

// parseValue types a value literal: quoted string (or quoted ISO date),
// integer, float, boolean, bracketed list, bare ISO date, otherwise a bare
// string.
func parseValue(valueString string) any {
	if len(valueString) >= 2 {
		first, last := valueString[0], valueString[len(valueString)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			inner := valueString[1 : len(valueString)-1]
			if datePattern.MatchString(inner) {
				if t, err := time.Parse("2006-01-02", inner); err == nil {
					return t
				}
			}
			return inner
		}
	}

	if intPattern.MatchString(valueString) {
		if n, err := strconv.ParseInt(valueString, 10, 64); err == nil {
			return n
		}
	}
	if floatPattern.MatchString(valueString) {
		if f, err := strconv.ParseFloat(valueString, 64); err == nil {
			return f
		}
	}

	switch strings.ToLower(valueString) {
	case "true":
		return true
	case "false":
		return false
	}

	if strings.HasPrefix(valueString, "[") && strings.HasSuffix(valueString, "]") {
		var items []any
		for _, item := range strings.Split(valueString[1:len(valueString)-1], ",") {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			items = append(items, parseValue(item))
		}
		return items
	}

	if datePattern.MatchString(valueString) {
		if t, err := time.Parse("2006-01-02", valueString); err == nil {
			return t
		}
	}

	return valueString
}
