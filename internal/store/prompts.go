package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreatePrompt creates a new prompt. The name must be unique.
func (s *Store) CreatePrompt(ctx context.Context, name, description string) (*Prompt, error) {
	now := time.Now()
	p := &Prompt{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `
		INSERT INTO prompts (id, name, description, current_version_id, created_at, updated_at)
		VALUES (?, ?, ?, NULL, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, p.ID, p.Name, nullString(p.Description), now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt %q: %w", name, err)
	}

	return p, nil
}

// GetPromptByName retrieves a prompt by its unique name.
// Returns nil and no error when the prompt does not exist.
func (s *Store) GetPromptByName(ctx context.Context, name string) (*Prompt, error) {
	return s.getPrompt(ctx, `SELECT id, name, description, current_version_id, created_at, updated_at FROM prompts WHERE name = ?`, name)
}

// GetPromptByID retrieves a prompt by id.
// Returns nil and no error when the prompt does not exist.
func (s *Store) GetPromptByID(ctx context.Context, id string) (*Prompt, error) {
	return s.getPrompt(ctx, `SELECT id, name, description, current_version_id, created_at, updated_at FROM prompts WHERE id = ?`, id)
}

func (s *Store) getPrompt(ctx context.Context, query string, arg any) (*Prompt, error) {
	var p Prompt
	var description, currentVersionID sql.NullString
	var createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&p.ID, &p.Name, &description, &currentVersionID, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query prompt: %w", err)
	}

	p.Description = description.String
	p.CurrentVersionID = currentVersionID.String
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}

// ListPrompts returns all prompts ordered by name.
func (s *Store) ListPrompts(ctx context.Context) ([]Prompt, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, current_version_id, created_at, updated_at FROM prompts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	defer rows.Close()

	var prompts []Prompt
	for rows.Next() {
		var p Prompt
		var description, currentVersionID sql.NullString
		var createdAt, updatedAt int64
		if err := rows.Scan(&p.ID, &p.Name, &description, &currentVersionID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prompt: %w", err)
		}
		p.Description = description.String
		p.CurrentVersionID = currentVersionID.String
		p.CreatedAt = time.Unix(createdAt, 0)
		p.UpdatedAt = time.Unix(updatedAt, 0)
		prompts = append(prompts, p)
	}

	return prompts, rows.Err()
}

// DeletePrompt deletes a prompt and all of its versions.
func (s *Store) DeletePrompt(ctx context.Context, promptID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM versions WHERE prompt_id = ?`, promptID); err != nil {
		return fmt.Errorf("failed to delete versions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM prompts WHERE id = ?`, promptID); err != nil {
		return fmt.Errorf("failed to delete prompt: %w", err)
	}

	return tx.Commit()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
