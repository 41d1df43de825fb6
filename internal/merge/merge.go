package merge

import (
	"fmt"
	"strings"

	"github.com/promptpit/pit/internal/textdiff"
)

// Conflict reports that both branches touched the same category and at
// least one side's change is too severe to combine automatically.
type Conflict struct {
	Category       Category
	Description    string
	BaseContent    string
	BranchAContent string
	BranchBContent string
	ResolutionHint string
}

// Result is the outcome of a merge analysis. On success MergedContent
// holds the combined text; on failure Conflicts lists what blocked it.
// Changes always carries the full categorized change list from both sides.
type Result struct {
	Success       bool
	MergedContent string
	Conflicts     []Conflict
	Changes       []Change
	AutoMerged    bool
}

// Analyzer performs semantic merge analysis over three contents: a common
// base and two derived branches.
type Analyzer struct {
	categorizer Categorizer
}

// NewAnalyzer returns a merge analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// AnalyzeMerge categorizes each branch's changes against the base,
// detects category-level conflicts, and auto-merges when none are found.
func (a *Analyzer) AnalyzeMerge(baseContent, branchAContent, branchBContent string) *Result {
	changesA := a.changesBetween(baseContent, branchAContent)
	changesB := a.changesBetween(baseContent, branchBContent)
	allChanges := append(append([]Change{}, changesA...), changesB...)

	conflicts := detectConflicts(changesA, changesB, baseContent)
	if len(conflicts) > 0 {
		return &Result{
			Success:   false,
			Conflicts: conflicts,
			Changes:   allChanges,
		}
	}

	return &Result{
		Success:       true,
		MergedContent: autoMerge(baseContent, allChanges),
		Changes:       allChanges,
		AutoMerged:    true,
	}
}

// changesBetween diffs base against a branch line by line and categorizes
// every added and removed line independently.
func (a *Analyzer) changesBetween(base, branch string) []Change {
	added, removed := textdiff.LineChanges(base, branch)

	var changes []Change
	for _, line := range removed {
		changes = append(changes, a.categorizer.CategorizeChange(line, "")...)
	}
	for _, line := range added {
		changes = append(changes, a.categorizer.CategorizeChange("", line)...)
	}
	return changes
}

// detectConflicts flags every category both branches touched where either
// side carries a HIGH or BREAKING change.
func detectConflicts(changesA, changesB []Change, baseContent string) []Conflict {
	byCategoryA := groupByCategory(changesA)
	byCategoryB := groupByCategory(changesB)

	var conflicts []Conflict
	for _, category := range categoryOrder {
		inA, okA := byCategoryA[category]
		inB, okB := byCategoryB[category]
		if !okA || !okB {
			continue
		}
		if !anySevere(inA) && !anySevere(inB) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Category:       category,
			Description:    fmt.Sprintf("Both branches modified %s", category),
			BaseContent:    baseContent,
			BranchAContent: joinNewText(inA),
			BranchBContent: joinNewText(inB),
			ResolutionHint: fmt.Sprintf("Review %s changes and manually merge", category),
		})
	}
	return conflicts
}

// autoMerge combines non-conflicting changes naively: every exact
// old-text occurrence is replaced with its new text, then pure additions
// are appended. Each distinct added line is appended once even when it
// fell into several categories. This is a heuristic, not a three-way
// merge.
func autoMerge(base string, changes []Change) string {
	merged := base
	appended := make(map[string]bool)

	for _, change := range changes {
		switch {
		case change.NewText != "" && change.OldText != "":
			merged = strings.ReplaceAll(merged, change.OldText, change.NewText)
		case change.NewText != "":
			if appended[change.NewText] {
				continue
			}
			appended[change.NewText] = true
			merged += "\n" + change.NewText
		}
	}
	return merged
}

// CanAutoMerge is a cheap pre-check: true unless some category both sides
// touched has a HIGH or BREAKING change on either side.
func CanAutoMerge(changesA, changesB []Change) bool {
	byCategoryA := groupByCategory(changesA)
	byCategoryB := groupByCategory(changesB)

	for category, inA := range byCategoryA {
		inB, ok := byCategoryB[category]
		if !ok {
			continue
		}
		if anySevere(inA) || anySevere(inB) {
			return false
		}
	}
	return true
}

func groupByCategory(changes []Change) map[Category][]Change {
	grouped := make(map[Category][]Change)
	for _, change := range changes {
		grouped[change.Category] = append(grouped[change.Category], change)
	}
	return grouped
}

func anySevere(changes []Change) bool {
	for _, change := range changes {
		if change.Severity == SeverityHigh || change.Severity == SeverityBreaking {
			return true
		}
	}
	return false
}

func joinNewText(changes []Change) string {
	parts := make([]string, len(changes))
	for i, change := range changes {
		parts[i] = change.NewText
	}
	return strings.Join(parts, "\n")
}
