// Package merge categorizes prompt changes semantically and detects
// conflicts between two branches of edits to the same base.
package merge

import (
	"fmt"
	"strings"

	"github.com/promptpit/pit/internal/textdiff"
)

// Category labels the kind of prompt content a change touches.
type Category string

const (
	CategoryTone        Category = "tone"        // personality, voice
	CategoryConstraints Category = "constraints" // rules and limitations
	CategoryExamples    Category = "examples"    // few-shot examples
	CategoryStructure   Category = "structure"   // output format
	CategoryVariables   Category = "variables"   // template variables
	CategoryContext     Category = "context"     // background information
	CategoryIntent      Category = "intent"      // purpose or goal
)

// Severity grades how disruptive a change is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityBreaking Severity = "breaking"
)

// categoryIndicators maps each category to the keywords whose presence in a
// changed line signals it. Matching is case-insensitive substring search.
var categoryIndicators = map[Category][]string{
	CategoryTone: {
		"tone", "voice", "personality", "style", "manner", "approach",
		"friendly", "professional", "casual", "formal", "enthusiastic",
		"empathetic", "direct", "polite", "conversational", "clinical",
	},
	CategoryConstraints: {
		"must", "should", "cannot", "don't", "never", "always",
		"limit", "maximum", "minimum", "exactly", "at most", "at least",
		"no more than", "strictly", "prohibited", "required",
	},
	CategoryExamples: {
		"example", "for instance", "e.g.", "such as", "like",
		"here's an example", "following example", "sample",
	},
	CategoryStructure: {
		"format", "structure", "layout", "organize", "section",
		"output as", "return as", "json", "markdown", "xml",
		"numbered list", "bullet points", "table",
	},
	CategoryVariables: {
		"{{", "}}", "variable", "placeholder", "substitute",
		"input", "parameter", "argument",
	},
	CategoryContext: {
		"context", "background", "assume", "given that", "provided",
		"you are a", "acting as", "role", "expertise",
	},
	CategoryIntent: {
		"purpose", "goal", "objective", "aim", "intended",
		"task", "job", "function", "role", "responsibility",
	},
}

// categoryOrder fixes iteration order so categorization is deterministic.
var categoryOrder = []Category{
	CategoryTone, CategoryConstraints, CategoryExamples, CategoryStructure,
	CategoryVariables, CategoryContext, CategoryIntent,
}

// Change is a single categorized edit. OldText is empty for additions,
// NewText is empty for deletions.
type Change struct {
	Category    Category
	Description string
	Severity    Severity
	OldText     string
	NewText     string
}

// Categorizer assigns categories and severities to text changes using the
// keyword indicator tables.
type Categorizer struct{}

// CategorizeChange returns one Change per category the edit touches. An
// edit matching no category at all is reported as a single low-severity
// context change.
func (c Categorizer) CategorizeChange(oldText, newText string) []Change {
	analyze := newText
	if analyze == "" {
		analyze = oldText
	}

	var changes []Change
	for _, category := range categoryOrder {
		score := categoryScore(analyze, categoryIndicators[category])
		if score == 0 {
			continue
		}
		changes = append(changes, Change{
			Category:    category,
			Description: describeChange(category, oldText, newText),
			Severity:    determineSeverity(oldText, newText, score),
			OldText:     oldText,
			NewText:     newText,
		})
	}

	if len(changes) == 0 {
		changes = append(changes, Change{
			Category:    CategoryContext,
			Description: "Content change",
			Severity:    SeverityLow,
			OldText:     oldText,
			NewText:     newText,
		})
	}
	return changes
}

func categoryScore(text string, indicators []string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, indicator := range indicators {
		if strings.Contains(lower, indicator) {
			score++
		}
	}
	return score
}

// determineSeverity grades a change: additions are MEDIUM, deletions HIGH,
// and modifications scale with text similarity and keyword density.
func determineSeverity(oldText, newText string, categoryScore int) Severity {
	if oldText == "" {
		return SeverityMedium
	}
	if newText == "" {
		return SeverityHigh
	}

	similarity := textdiff.Similarity(oldText, newText)
	switch {
	case similarity > 0.8:
		return SeverityLow
	case similarity > 0.5:
		if categoryScore < 3 {
			return SeverityMedium
		}
		return SeverityHigh
	default:
		if categoryScore < 3 {
			return SeverityHigh
		}
		return SeverityBreaking
	}
}

func describeChange(category Category, oldText, newText string) string {
	if oldText == "" {
		return fmt.Sprintf("Added %s", category)
	}
	if newText == "" {
		return fmt.Sprintf("Removed %s", category)
	}
	if float64(len(newText)) > float64(len(oldText))*0.5 {
		return fmt.Sprintf("Modified %s", category)
	}
	return fmt.Sprintf("Significantly changed %s", category)
}
