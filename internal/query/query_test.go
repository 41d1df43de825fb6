package query

import (
	"strings"
	"testing"
	"time"
)

// record is a test entity backed by a map with dotted-path traversal.
type record map[string]any

func (r record) QueryField(name string) (any, bool) {
	if v, ok := r[name]; ok {
		return v, v != nil
	}
	if strings.Contains(name, ".") {
		parts := strings.Split(name, ".")
		var current any = map[string]any(r)
		for _, part := range parts {
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			current, ok = m[part]
			if !ok {
				return nil, false
			}
		}
		return current, true
	}
	return nil, false
}

func mustParse(t *testing.T, s string) *Query {
	t.Helper()
	q, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", s, err)
	}
	return q
}

func TestParseSingleCondition(t *testing.T) {
	q := mustParse(t, "success_rate >= 0.9")

	if len(q.Conditions) != 1 {
		t.Fatalf("expected 1 condition, got %d", len(q.Conditions))
	}
	c := q.Conditions[0]
	if c.Field != "success_rate" || c.Operator != OpGte || c.Value != 0.9 {
		t.Errorf("unexpected condition: %+v", c)
	}
	if q.LogicalOp != LogicalAnd {
		t.Errorf("expected AND combinator, got %s", q.LogicalOp)
	}
}

func TestParseValueTypes(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{"author = 'alice'", "alice"},
		{`author = "bob"`, "bob"},
		{"version_number = 3", int64(3)},
		{"avg_latency_ms < 12.5", 12.5},
		{"active = true", true},
		{"active = false", false},
	}
	for _, tt := range tests {
		q := mustParse(t, tt.input)
		if got := q.Conditions[0].Value; got != tt.want {
			t.Errorf("Parse(%q): value = %v (%T), want %v (%T)", tt.input, got, got, tt.want, tt.want)
		}
	}
}

func TestParseDateLiterals(t *testing.T) {
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	for _, input := range []string{"created_at > 2024-03-15", "created_at > '2024-03-15'"} {
		q := mustParse(t, input)
		got, ok := q.Conditions[0].Value.(time.Time)
		if !ok || !got.Equal(want) {
			t.Errorf("Parse(%q): value = %v, want %v", input, q.Conditions[0].Value, want)
		}
	}
}

func TestParseListValue(t *testing.T) {
	q := mustParse(t, "version_number in [1, 2, 3]")

	list, ok := q.Conditions[0].Value.([]any)
	if !ok || len(list) != 3 || list[0] != int64(1) || list[2] != int64(3) {
		t.Errorf("unexpected list value: %v", q.Conditions[0].Value)
	}
}

func TestParseNotInvertsEquality(t *testing.T) {
	q := mustParse(t, "NOT author = 'alice'")
	if q.Conditions[0].Operator != OpNe {
		t.Errorf("expected NOT to invert = into !=, got %s", q.Conditions[0].Operator)
	}

	q = mustParse(t, "NOT author != 'alice'")
	if q.Conditions[0].Operator != OpEq {
		t.Errorf("expected NOT to invert != into =, got %s", q.Conditions[0].Operator)
	}

	// Documented limitation: NOT does not touch other operators.
	q = mustParse(t, "NOT version_number > 5")
	if q.Conditions[0].Operator != OpGt {
		t.Errorf("expected NOT to leave > unchanged, got %s", q.Conditions[0].Operator)
	}
}

func TestParseMalformedFails(t *testing.T) {
	for _, input := range []string{"", "   ", "just words here", "= 5"} {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q): expected error", input)
		}
	}
}

func TestFilterGte(t *testing.T) {
	q := mustParse(t, "success_rate >= 0.9")
	items := []record{
		{"success_rate": 0.95},
		{"success_rate": 0.5},
	}

	got := Filter(q, items)
	if len(got) != 1 || got[0]["success_rate"] != 0.95 {
		t.Errorf("unexpected result: %v", got)
	}
}

func TestFilterOr(t *testing.T) {
	q := mustParse(t, "a = 1 OR b = 2")
	items := []record{
		{"a": int64(1), "b": int64(9)},
		{"a": int64(9), "b": int64(2)},
		{"a": int64(9), "b": int64(9)},
	}

	got := Filter(q, items)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0]["a"] != int64(1) || got[1]["b"] != int64(2) {
		t.Errorf("wrong records matched: %v", got)
	}
}

func TestFilterAnd(t *testing.T) {
	q := mustParse(t, "a = 1 AND b = 2")
	items := []record{
		{"a": int64(1), "b": int64(2)},
		{"a": int64(1), "b": int64(9)},
	}

	got := Filter(q, items)
	if len(got) != 1 {
		t.Errorf("expected 1 match, got %d", len(got))
	}
}

func TestContainsCaseInsensitive(t *testing.T) {
	q := mustParse(t, "content contains 'HELLO'")
	items := []record{
		{"content": "say hello"},
		{"content": "goodbye"},
	}

	got := Filter(q, items)
	if len(got) != 1 || got[0]["content"] != "say hello" {
		t.Errorf("unexpected result: %v", got)
	}
}

func TestContainsListMembership(t *testing.T) {
	q := mustParse(t, "tags contains 'stable'")
	items := []record{
		{"tags": []any{"stable", "prod"}},
		{"tags": []any{"wip"}},
	}

	got := Filter(q, items)
	if len(got) != 1 {
		t.Errorf("expected 1 match, got %d", len(got))
	}
}

func TestInOperator(t *testing.T) {
	q := mustParse(t, "version_number in [1, 3]")
	items := []record{
		{"version_number": int64(1)},
		{"version_number": int64(2)},
		{"version_number": int64(3)},
	}

	got := Filter(q, items)
	if len(got) != 2 {
		t.Errorf("expected 2 matches, got %d", len(got))
	}
}

func TestAbsentFieldSemantics(t *testing.T) {
	items := []record{{"other": "x"}}

	// != always matches an absent field.
	if got := Filter(mustParse(t, "author != 'alice'"), items); len(got) != 1 {
		t.Error("expected != to match absent field")
	}
	// Ordering operators never match an absent field.
	if got := Filter(mustParse(t, "success_rate > 0.1"), items); len(got) != 0 {
		t.Error("expected > not to match absent field")
	}
	if got := Filter(mustParse(t, "author = 'alice'"), items); len(got) != 0 {
		t.Error("expected = not to match absent field")
	}
}

func TestDottedPathLookup(t *testing.T) {
	q := mustParse(t, "semantic_diff.summary contains 'tone'")
	items := []record{
		{"semantic_diff": map[string]any{"summary": "Tone shifted to formal"}},
		{"semantic_diff": map[string]any{"summary": "added example"}},
		{},
	}

	got := Filter(q, items)
	if len(got) != 1 {
		t.Errorf("expected 1 match, got %d", len(got))
	}
}

func TestDateComparison(t *testing.T) {
	q := mustParse(t, "created_at > 2024-01-01")
	items := []record{
		{"created_at": time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"created_at": time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)},
	}

	got := Filter(q, items)
	if len(got) != 1 {
		t.Errorf("expected 1 match, got %d", len(got))
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	q := mustParse(t, "n > 0")
	items := []record{
		{"n": int64(3)},
		{"n": int64(1)},
		{"n": int64(2)},
	}

	got := Filter(q, items)
	if len(got) != 3 || got[0]["n"] != int64(3) || got[2]["n"] != int64(2) {
		t.Errorf("filter reordered results: %v", got)
	}
}
