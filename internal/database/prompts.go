package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/inkwell-ai/inkwell/internal/models"
	"github.com/inkwell-ai/inkwell/internal/prompts"
)

// PromptRepository stores editable prompt templates.
type PromptRepository struct {
	db *DB
}

// NewPromptRepository creates a new prompt repository.
func NewPromptRepository(db *DB) *PromptRepository {
	return &PromptRepository{db: db}
}

// Seed inserts the built-in templates that are not stored yet. Existing rows
// are left untouched so operational edits survive restarts.
func (r *PromptRepository) Seed(ctx context.Context) error {
	query := `
		INSERT INTO prompt_templates (id, text, category)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (id) DO NOTHING
	`

	for id, def := range prompts.Defaults {
		if _, err := r.db.ExecContext(ctx, query, id, def.Text, def.Category); err != nil {
			return fmt.Errorf("failed to seed prompt template %s: %w", id, err)
		}
	}

	return nil
}

// Get returns the stored template text for an ID, falling back to the
// built-in default when the row is missing.
func (r *PromptRepository) Get(ctx context.Context, id string) (string, error) {
	var text string
	err := r.db.QueryRowContext(ctx, `SELECT text FROM prompt_templates WHERE id = $1`, id).Scan(&text)
	if err == sql.ErrNoRows {
		if def, ok := prompts.Defaults[id]; ok {
			return def.Text, nil
		}
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get prompt template: %w", err)
	}

	return text, nil
}

// List returns all stored templates.
func (r *PromptRepository) List(ctx context.Context) ([]*models.PromptTemplate, error) {
	query := `
		SELECT id, text, category, created_at
		FROM prompt_templates
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt templates: %w", err)
	}
	defer rows.Close()

	templates := []*models.PromptTemplate{}
	for rows.Next() {
		tpl := &models.PromptTemplate{}
		var category sql.NullString
		if err := rows.Scan(&tpl.ID, &tpl.Text, &category, &tpl.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan prompt template: %w", err)
		}
		tpl.Category = category.String
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prompt templates: %w", err)
	}

	return templates, nil
}

// Update overwrites the text of a stored template.
func (r *PromptRepository) Update(ctx context.Context, id, text string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE prompt_templates SET text = $1 WHERE id = $2`, text, id)
	if err != nil {
		return fmt.Errorf("failed to update prompt template: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check prompt update: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
