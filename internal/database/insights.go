package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell-ai/inkwell/internal/models"
)

// InsightRepository handles insight database operations.
type InsightRepository struct {
	db *DB
}

// NewInsightRepository creates a new insight repository.
func NewInsightRepository(db *DB) *InsightRepository {
	return &InsightRepository{db: db}
}

// Create inserts one insight row for an entry.
func (r *InsightRepository) Create(ctx context.Context, insight *models.Insight) error {
	emotionsJSON, err := json.Marshal(insight.DetectedEmotions)
	if err != nil {
		return fmt.Errorf("failed to marshal emotions: %w", err)
	}
	topicsJSON, err := json.Marshal(insight.KeyTopics)
	if err != nil {
		return fmt.Errorf("failed to marshal key topics: %w", err)
	}
	questionsJSON, err := json.Marshal(insight.ReflectionQuestions)
	if err != nil {
		return fmt.Errorf("failed to marshal reflection questions: %w", err)
	}

	query := `
		INSERT INTO insights (id, entry_id, sentiment_score, sentiment_label, detected_emotions, key_topics, summary, reflection_questions, generated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''), $8, $9)
		RETURNING generated_at
	`

	err = r.db.QueryRowContext(ctx, query,
		insight.ID,
		insight.EntryID,
		insight.SentimentScore,
		string(insight.SentimentLabel),
		emotionsJSON,
		topicsJSON,
		insight.Summary,
		questionsJSON,
		time.Now(),
	).Scan(&insight.GeneratedAt)
	if err != nil {
		return fmt.Errorf("failed to create insight: %w", err)
	}

	return nil
}

// GetByEntryID retrieves the latest insight for an entry.
func (r *InsightRepository) GetByEntryID(ctx context.Context, entryID uuid.UUID) (*models.Insight, error) {
	insight := &models.Insight{}
	var label, summary sql.NullString
	var emotionsJSON, topicsJSON, questionsJSON []byte

	query := `
		SELECT id, entry_id, sentiment_score, sentiment_label, detected_emotions, key_topics, summary, reflection_questions, generated_at
		FROM insights
		WHERE entry_id = $1
		ORDER BY generated_at DESC
		LIMIT 1
	`

	err := r.db.QueryRowContext(ctx, query, entryID).Scan(
		&insight.ID,
		&insight.EntryID,
		&insight.SentimentScore,
		&label,
		&emotionsJSON,
		&topicsJSON,
		&summary,
		&questionsJSON,
		&insight.GeneratedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get insight: %w", err)
	}

	insight.SentimentLabel = models.Sentiment(label.String)
	insight.Summary = summary.String
	for _, pair := range []struct {
		raw []byte
		out *[]string
	}{
		{emotionsJSON, &insight.DetectedEmotions},
		{topicsJSON, &insight.KeyTopics},
		{questionsJSON, &insight.ReflectionQuestions},
	} {
		if len(pair.raw) > 0 {
			if err := json.Unmarshal(pair.raw, pair.out); err != nil {
				return nil, fmt.Errorf("failed to unmarshal insight field: %w", err)
			}
		}
	}

	return insight, nil
}
