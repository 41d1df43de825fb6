// Package query implements the version-history filter language: a flat list
// of field/operator/value conditions joined by a single AND or OR, evaluated
// against an in-memory sequence.
package query

import (
	"fmt"
	"strings"
)

// Operator is a condition comparison operator.
type Operator string

const (
	OpEq       Operator = "="
	OpNe       Operator = "!="
	OpGt       Operator = ">"
	OpLt       Operator = "<"
	OpGte      Operator = ">="
	OpLte      Operator = "<="
	OpContains Operator = "contains"
	OpIn       Operator = "in"
)

// LogicalOp joins the conditions of a query. The whole query uses a single
// combinator; there is no grouping or precedence mixing.
type LogicalOp string

const (
	LogicalAnd LogicalOp = "and"
	LogicalOr  LogicalOp = "or"
)

// Condition is a single field comparison.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Operator, c.Value)
}

// Query is a parsed filter: an ordered condition list plus one combinator.
type Query struct {
	Conditions []Condition
	LogicalOp  LogicalOp
}

func (q *Query) String() string {
	parts := make([]string, len(q.Conditions))
	for i, c := range q.Conditions {
		parts[i] = c.String()
	}
	return strings.Join(parts, " "+strings.ToUpper(string(q.LogicalOp))+" ")
}

// Entity is anything the executor can evaluate conditions against. The
// second return of QueryField reports whether the field is present; dotted
// paths resolve through nested structures.
type Entity interface {
	QueryField(name string) (any, bool)
}
