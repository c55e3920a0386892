package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/inkwell-ai/inkwell/internal/models"
)

// UsageRepository persists token consumption rows.
type UsageRepository struct {
	db *DB
}

// NewUsageRepository creates a new usage repository.
func NewUsageRepository(db *DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// RecordUsage appends one append-only usage row.
func (r *UsageRepository) RecordUsage(ctx context.Context, userID int64, date string, promptTokens, completionTokens int64, feature, modelName string) error {
	query := `
		INSERT INTO token_usage (id, user_id, date, prompt_tokens, completion_tokens, total_tokens, feature, model_name)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''))
	`

	_, err := r.db.ExecContext(ctx, query,
		uuid.New(),
		userID,
		date,
		promptTokens,
		completionTokens,
		promptTokens+completionTokens,
		feature,
		modelName,
	)
	if err != nil {
		return fmt.Errorf("failed to record token usage: %w", err)
	}

	return nil
}

// UsageSummary returns the daily and all-time token totals for a user.
func (r *UsageRepository) UsageSummary(ctx context.Context, userID int64, date string) (daily, allTime int64, err error) {
	dailyQuery := `
		SELECT COALESCE(SUM(total_tokens), 0)
		FROM token_usage
		WHERE user_id = $1 AND date = $2
	`
	if err = r.db.QueryRowContext(ctx, dailyQuery, userID, date).Scan(&daily); err != nil {
		return 0, 0, fmt.Errorf("failed to get daily token total: %w", err)
	}

	totalQuery := `
		SELECT COALESCE(SUM(total_tokens), 0)
		FROM token_usage
		WHERE user_id = $1
	`
	if err = r.db.QueryRowContext(ctx, totalQuery, userID).Scan(&allTime); err != nil {
		return 0, 0, fmt.Errorf("failed to get all-time token total: %w", err)
	}

	return daily, allTime, nil
}

// RecentUsage returns the newest usage rows for a user, capped at limit.
func (r *UsageRepository) RecentUsage(ctx context.Context, userID int64, limit int) ([]*models.UsageRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, date, prompt_tokens, completion_tokens, total_tokens, feature, model_name, logged_at
		FROM token_usage
		WHERE user_id = $1
		ORDER BY logged_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list token usage: %w", err)
	}
	defer rows.Close()

	records := []*models.UsageRecord{}
	for rows.Next() {
		record := &models.UsageRecord{}
		var feature, modelName sql.NullString
		err := rows.Scan(
			&record.ID,
			&record.UserID,
			&record.Date,
			&record.PromptTokens,
			&record.CompletionTokens,
			&record.TotalTokens,
			&feature,
			&modelName,
			&record.LoggedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		record.Feature = feature.String
		record.ModelName = modelName.String
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage records: %w", err)
	}

	return records, nil
}
