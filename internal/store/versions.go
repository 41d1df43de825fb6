package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var variablePattern = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// AppendVersion appends a new version to a prompt, assigning the next
// version number ("current max + 1") and updating the prompt's current
// version pointer, all inside one transaction.
func (s *Store) AppendVersion(ctx context.Context, promptID, content, message, author string, tags []string) (*Version, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var maxNumber sql.NullInt64
	var parentID sql.NullString
	row := tx.QueryRowContext(ctx,
		`SELECT id, version_number FROM versions WHERE prompt_id = ? ORDER BY version_number DESC LIMIT 1`, promptID)
	var latestID string
	var latestNumber int64
	switch err := row.Scan(&latestID, &latestNumber); err {
	case nil:
		maxNumber = sql.NullInt64{Int64: latestNumber, Valid: true}
		parentID = sql.NullString{String: latestID, Valid: true}
	case sql.ErrNoRows:
	default:
		return nil, fmt.Errorf("failed to query latest version: %w", err)
	}

	now := time.Now()
	v := &Version{
		ID:              uuid.NewString(),
		PromptID:        promptID,
		VersionNumber:   int(maxNumber.Int64) + 1,
		Content:         content,
		Variables:       extractVariables(content),
		Message:         message,
		Author:          author,
		Tags:            tags,
		ParentVersionID: parentID.String,
		CreatedAt:       now,
	}

	variablesJSON, err := json.Marshal(v.Variables)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal variables: %w", err)
	}
	if v.Tags == nil {
		v.Tags = []string{}
	}
	tagsJSON, err := json.Marshal(v.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `
		INSERT INTO versions (id, prompt_id, version_number, content, variables, semantic_diff,
			message, author, tags, parent_version_id, created_at, total_invocations)
		VALUES (?, ?, ?, ?, ?, NULL, ?, ?, ?, ?, ?, 0)
	`
	_, err = tx.ExecContext(ctx, query,
		v.ID, v.PromptID, v.VersionNumber, v.Content, string(variablesJSON),
		v.Message, nullString(v.Author), string(tagsJSON), nullString(v.ParentVersionID), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert version: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE prompts SET current_version_id = ?, updated_at = ? WHERE id = ?`,
		v.ID, now.Unix(), promptID)
	if err != nil {
		return nil, fmt.Errorf("failed to update current version pointer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit version: %w", err)
	}

	return v, nil
}

const versionColumns = `id, prompt_id, version_number, content, variables, semantic_diff,
	message, author, tags, parent_version_id, created_at,
	avg_token_usage, avg_latency_ms, success_rate, avg_cost_per_1k, total_invocations`

// GetVersion retrieves a specific version by prompt id and version number.
// Returns nil and no error when the version does not exist.
func (s *Store) GetVersion(ctx context.Context, promptID string, versionNumber int) (*Version, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM versions WHERE prompt_id = ? AND version_number = ?`,
		promptID, versionNumber)

	v, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query version: %w", err)
	}
	return v, nil
}

// LatestVersion returns the highest-numbered version of a prompt, or nil if
// the prompt has no versions yet.
func (s *Store) LatestVersion(ctx context.Context, promptID string) (*Version, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+versionColumns+` FROM versions WHERE prompt_id = ? ORDER BY version_number DESC LIMIT 1`,
		promptID)

	v, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest version: %w", err)
	}
	return v, nil
}

// ListVersions returns all versions of a prompt ordered by version number
// ascending.
func (s *Store) ListVersions(ctx context.Context, promptID string) ([]Version, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+versionColumns+` FROM versions WHERE prompt_id = ? ORDER BY version_number ASC`,
		promptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		versions = append(versions, *v)
	}

	return versions, rows.Err()
}

// AddTag attaches a tag to a version if not already present.
func (s *Store) AddTag(ctx context.Context, v *Version, tag string) error {
	for _, t := range v.Tags {
		if t == tag {
			return nil
		}
	}
	v.Tags = append(v.Tags, tag)
	return s.saveTags(ctx, v)
}

// RemoveTag removes a tag from a version.
func (s *Store) RemoveTag(ctx context.Context, v *Version, tag string) error {
	kept := v.Tags[:0]
	for _, t := range v.Tags {
		if t != tag {
			kept = append(kept, t)
		}
	}
	v.Tags = kept
	return s.saveTags(ctx, v)
}

func (s *Store) saveTags(ctx context.Context, v *Version) error {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE versions SET tags = ? WHERE id = ?`, string(data), v.ID); err != nil {
		return fmt.Errorf("failed to update tags: %w", err)
	}
	return nil
}

// SetSemanticDiff attaches a semantic diff annotation to a version.
func (s *Store) SetSemanticDiff(ctx context.Context, v *Version, semanticDiff map[string]any) error {
	data, err := json.Marshal(semanticDiff)
	if err != nil {
		return fmt.Errorf("failed to marshal semantic diff: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE versions SET semantic_diff = ? WHERE id = ?`, string(data), v.ID); err != nil {
		return fmt.Errorf("failed to update semantic diff: %w", err)
	}
	v.SemanticDiff = semanticDiff
	return nil
}

// MetricsSample is one observed invocation of a version.
type MetricsSample struct {
	TokenUsage *int64
	LatencyMs  *float64
	Cost       *float64
	Success    bool
}

// RecordMetrics folds one invocation sample into the version's rolling
// averages.
func (s *Store) RecordMetrics(ctx context.Context, v *Version, sample MetricsSample) error {
	n := float64(v.TotalInvocations)

	if sample.TokenUsage != nil {
		if v.AvgTokenUsage == nil {
			v.AvgTokenUsage = sample.TokenUsage
		} else {
			avg := (float64(*v.AvgTokenUsage)*n + float64(*sample.TokenUsage)) / (n + 1)
			rounded := int64(avg)
			v.AvgTokenUsage = &rounded
		}
	}
	if sample.LatencyMs != nil {
		if v.AvgLatencyMs == nil {
			v.AvgLatencyMs = sample.LatencyMs
		} else {
			avg := (*v.AvgLatencyMs*n + *sample.LatencyMs) / (n + 1)
			v.AvgLatencyMs = &avg
		}
	}
	if sample.Cost != nil {
		if v.AvgCostPer1K == nil {
			v.AvgCostPer1K = sample.Cost
		} else {
			avg := (*v.AvgCostPer1K*n + *sample.Cost) / (n + 1)
			v.AvgCostPer1K = &avg
		}
	}

	success := 0.0
	if sample.Success {
		success = 1.0
	}
	if v.SuccessRate == nil {
		v.SuccessRate = &success
	} else {
		rate := (*v.SuccessRate*n + success) / (n + 1)
		v.SuccessRate = &rate
	}

	v.TotalInvocations++

	query := `
		UPDATE versions
		SET avg_token_usage = ?, avg_latency_ms = ?, success_rate = ?, avg_cost_per_1k = ?, total_invocations = ?
		WHERE id = ?
	`
	_, err := s.db.ExecContext(ctx, query,
		nullInt64(v.AvgTokenUsage), nullFloat64(v.AvgLatencyMs), nullFloat64(v.SuccessRate),
		nullFloat64(v.AvgCostPer1K), v.TotalInvocations, v.ID)
	if err != nil {
		return fmt.Errorf("failed to update metrics: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*Version, error) {
	var v Version
	var variablesJSON, tagsJSON string
	var semanticDiffJSON, author, parentID sql.NullString
	var createdAt int64
	var avgTokenUsage sql.NullInt64
	var avgLatencyMs, successRate, avgCostPer1K sql.NullFloat64

	err := row.Scan(
		&v.ID, &v.PromptID, &v.VersionNumber, &v.Content, &variablesJSON, &semanticDiffJSON,
		&v.Message, &author, &tagsJSON, &parentID, &createdAt,
		&avgTokenUsage, &avgLatencyMs, &successRate, &avgCostPer1K, &v.TotalInvocations,
	)
	if err != nil {
		return nil, err
	}

	v.Author = author.String
	v.ParentVersionID = parentID.String
	v.CreatedAt = time.Unix(createdAt, 0)

	if err := json.Unmarshal([]byte(variablesJSON), &v.Variables); err != nil {
		return nil, fmt.Errorf("failed to parse variables: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &v.Tags); err != nil {
		return nil, fmt.Errorf("failed to parse tags: %w", err)
	}
	if semanticDiffJSON.Valid {
		if err := json.Unmarshal([]byte(semanticDiffJSON.String), &v.SemanticDiff); err != nil {
			return nil, fmt.Errorf("failed to parse semantic diff: %w", err)
		}
	}

	if avgTokenUsage.Valid {
		v.AvgTokenUsage = &avgTokenUsage.Int64
	}
	if avgLatencyMs.Valid {
		v.AvgLatencyMs = &avgLatencyMs.Float64
	}
	if successRate.Valid {
		v.SuccessRate = &successRate.Float64
	}
	if avgCostPer1K.Valid {
		v.AvgCostPer1K = &avgCostPer1K.Float64
	}

	return &v, nil
}

// extractVariables finds template variables like {{name}}, unique and in
// order of first appearance.
func extractVariables(content string) []string {
	matches := variablePattern.FindAllStringSubmatch(content, -1)
	seen := make(map[string]bool)
	var variables []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			variables = append(variables, m[1])
		}
	}
	if variables == nil {
		return []string{}
	}
	return variables
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat64(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
