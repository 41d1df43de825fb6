package semdiff

import (
	"fmt"
	"strings"
)

var displayCategories = []struct {
	label string
	key   string
}{
	{"Intent Changes", "intent_changes"},
	{"Scope Changes", "scope_changes"},
	{"Constraint Changes", "constraint_changes"},
	{"Tone Changes", "tone_changes"},
	{"Structure Changes", "structure_changes"},
}

// Format renders a semantic analysis for terminal display.
func Format(analysis map[string]any) string {
	var lines []string

	if summary, _ := analysis["summary"].(string); summary != "" {
		lines = append(lines, fmt.Sprintf("Summary: %s", summary), "")
	}

	for _, category := range displayCategories {
		changes := changeList(analysis[category.key])
		if len(changes) == 0 {
			continue
		}
		lines = append(lines, category.label+":")
		for _, change := range changes {
			if m, ok := change.(map[string]any); ok {
				desc, _ := m["description"].(string)
				severity, _ := m["severity"].(string)
				if severity == "" {
					severity = "medium"
				}
				lines = append(lines, fmt.Sprintf("  - %s (%s)", desc, severity))
			} else {
				lines = append(lines, fmt.Sprintf("  - %v", change))
			}
		}
		lines = append(lines, "")
	}

	if breaking := changeList(analysis["breaking_changes"]); len(breaking) > 0 {
		lines = append(lines, "Breaking Changes:")
		for _, change := range breaking {
			lines = append(lines, fmt.Sprintf("  - %v", change))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// HasSignificantChanges reports whether the analysis contains a change at
// or above minSeverity ("low", "medium" or "high"). Breaking changes are
// always significant.
func HasSignificantChanges(analysis map[string]any, minSeverity string) bool {
	levels := map[string]int{"low": 1, "medium": 2, "high": 3}
	minLevel, ok := levels[minSeverity]
	if !ok {
		minLevel = 2
	}

	for _, category := range displayCategories {
		for _, change := range changeList(analysis[category.key]) {
			m, ok := change.(map[string]any)
			if !ok {
				continue
			}
			severity, _ := m["severity"].(string)
			level, ok := levels[severity]
			if !ok {
				level = 2
			}
			if level >= minLevel {
				return true
			}
		}
	}

	return len(changeList(analysis["breaking_changes"])) > 0
}

func changeList(v any) []any {
	list, _ := v.([]any)
	return list
}
