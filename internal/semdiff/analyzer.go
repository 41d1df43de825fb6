// Package semdiff narrates the semantic difference between two prompt
// versions using an LLM provider, producing a structured annotation that
// is stored alongside the version and queryable later.
package semdiff

import (
	"context"
	"fmt"
)

// Provider is a text-generation backend able to analyze a prompt change.
// Implementations return the raw category map described in analysisPrompt.
type Provider interface {
	AnalyzeDiff(ctx context.Context, oldPrompt, newPrompt string) (map[string]any, error)
}

// changeCategories are the keys every analysis carries, in display order.
var changeCategories = []string{
	"intent_changes",
	"scope_changes",
	"constraint_changes",
	"tone_changes",
	"structure_changes",
	"breaking_changes",
}

// Analyzer wraps a provider with edge-case handling and result
// normalization.
type Analyzer struct {
	provider Provider
}

// NewAnalyzer returns an analyzer over the given provider. A nil provider
// yields an unconfigured analyzer whose AnalyzeDiff always fails.
func NewAnalyzer(provider Provider) *Analyzer {
	return &Analyzer{provider: provider}
}

// IsConfigured reports whether a provider is available.
func (a *Analyzer) IsConfigured() bool {
	return a.provider != nil
}

// AnalyzeDiff returns a structured semantic analysis of the change from
// oldPrompt to newPrompt. Trivial cases (both empty, initial version,
// identical contents) are answered locally without a provider call.
func (a *Analyzer) AnalyzeDiff(ctx context.Context, oldPrompt, newPrompt string) (map[string]any, error) {
	if oldPrompt == "" && newPrompt == "" {
		return emptyAnalysis("Both prompts are empty."), nil
	}
	if oldPrompt == "" {
		result := emptyAnalysis("This is the initial version of the prompt.")
		result["intent_changes"] = []any{
			map[string]any{"description": "Initial version - new prompt created", "severity": "high"},
		}
		return result, nil
	}
	if oldPrompt == newPrompt {
		return emptyAnalysis("No changes detected between versions."), nil
	}

	if a.provider == nil {
		return nil, fmt.Errorf("no LLM provider available; configure one in %s", ".pit.yaml")
	}

	raw, err := a.provider.AnalyzeDiff(ctx, oldPrompt, newPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze semantic diff: %w", err)
	}
	return normalizeResult(raw), nil
}

func emptyAnalysis(summary string) map[string]any {
	result := map[string]any{"summary": summary}
	for _, category := range changeCategories {
		result[category] = []any{}
	}
	return result
}

// keyAliases maps each canonical key to the variants providers have been
// seen emitting.
var keyAliases = map[string][]string{
	"intent_changes":     {"intent_changes", "intent", "intents"},
	"scope_changes":      {"scope_changes", "scope", "scopes"},
	"constraint_changes": {"constraint_changes", "constraints", "constraint"},
	"tone_changes":       {"tone_changes", "tone", "tones"},
	"structure_changes":  {"structure_changes", "structure", "structural_changes"},
	"breaking_changes":   {"breaking_changes", "breaking", "breaks"},
	"summary":            {"summary", "overview", "description"},
}

// normalizeResult guarantees every expected key is present, accepting the
// known alias spellings for each.
func normalizeResult(raw map[string]any) map[string]any {
	normalized := emptyAnalysis("")
	for canonical, aliases := range keyAliases {
		for _, alias := range aliases {
			if v, ok := raw[alias]; ok && !isEmptyValue(v) {
				normalized[canonical] = v
				break
			}
		}
	}
	return normalized
}

func isEmptyValue(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return value == ""
	case []any:
		return len(value) == 0
	}
	return false
}
