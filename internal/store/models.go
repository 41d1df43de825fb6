package store

import (
	"strings"
	"time"
)

// Prompt is a named, versioned prompt entity. The current-version pointer is
// its only mutable field.
type Prompt struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	CurrentVersionID string    `json:"current_version_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Version is an immutable, numbered snapshot of a prompt's content.
// Content never changes after creation; tags and the semantic diff
// annotation may be attached later.
type Version struct {
	ID              string         `json:"id"`
	PromptID        string         `json:"prompt_id"`
	VersionNumber   int            `json:"version_number"`
	Content         string         `json:"content"`
	Variables       []string       `json:"variables,omitempty"`
	SemanticDiff    map[string]any `json:"semantic_diff,omitempty"`
	Message         string         `json:"message"`
	Author          string         `json:"author,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	ParentVersionID string         `json:"parent_version_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`

	// Performance metrics, nil until recorded.
	AvgTokenUsage    *int64   `json:"avg_token_usage,omitempty"`
	AvgLatencyMs     *float64 `json:"avg_latency_ms,omitempty"`
	SuccessRate      *float64 `json:"success_rate,omitempty"`
	AvgCostPer1K     *float64 `json:"avg_cost_per_1k,omitempty"`
	TotalInvocations int64    `json:"total_invocations"`
}

// QueryField resolves a field name for the query engine. Dotted paths
// traverse into the semantic diff annotation. The second return reports
// whether the field is present.
func (v Version) QueryField(name string) (any, bool) {
	switch name {
	case "id":
		return v.ID, true
	case "prompt_id":
		return v.PromptID, true
	case "version_number":
		return int64(v.VersionNumber), true
	case "content":
		return v.Content, true
	case "variables":
		return toAnySlice(v.Variables), true
	case "message":
		return v.Message, true
	case "author":
		if v.Author == "" {
			return nil, false
		}
		return v.Author, true
	case "tags":
		return toAnySlice(v.Tags), true
	case "created_at":
		return v.CreatedAt, true
	case "avg_token_usage":
		if v.AvgTokenUsage == nil {
			return nil, false
		}
		return *v.AvgTokenUsage, true
	case "avg_latency_ms":
		if v.AvgLatencyMs == nil {
			return nil, false
		}
		return *v.AvgLatencyMs, true
	case "success_rate":
		if v.SuccessRate == nil {
			return nil, false
		}
		return *v.SuccessRate, true
	case "avg_cost_per_1k":
		if v.AvgCostPer1K == nil {
			return nil, false
		}
		return *v.AvgCostPer1K, true
	case "total_invocations":
		return v.TotalInvocations, true
	case "semantic_diff":
		if v.SemanticDiff == nil {
			return nil, false
		}
		return v.SemanticDiff, true
	}

	// Dotted path into the semantic diff annotation, e.g.
	// semantic_diff.summary.
	if strings.Contains(name, ".") {
		parts := strings.Split(name, ".")
		var current any
		switch parts[0] {
		case "semantic_diff":
			if v.SemanticDiff == nil {
				return nil, false
			}
			current = v.SemanticDiff
		default:
			return nil, false
		}
		for _, part := range parts[1:] {
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

func toAnySlice(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}
