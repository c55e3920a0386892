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

// JournalRepository handles journal entry database operations.
type JournalRepository struct {
	db *DB
}

// NewJournalRepository creates a new journal repository.
func NewJournalRepository(db *DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// Create inserts a new journal entry.
func (r *JournalRepository) Create(ctx context.Context, entry *models.JournalEntry) error {
	topicsJSON, err := json.Marshal(entry.Topics)
	if err != nil {
		return fmt.Errorf("failed to marshal topics: %w", err)
	}
	categoriesJSON, err := json.Marshal(entry.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	query := `
		INSERT INTO journal_entries (id, user_id, raw_content, input_type, word_count, sentiment, topics, categories, model_version, created_at, modified_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, NULLIF($9, ''), $10, $10)
		RETURNING created_at, modified_at
	`

	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.RawContent,
		entry.InputType,
		entry.WordCount,
		string(entry.Sentiment),
		topicsJSON,
		categoriesJSON,
		entry.ModelVersion,
		now,
	).Scan(&entry.CreatedAt, &entry.ModifiedAt)
	if err != nil {
		return fmt.Errorf("failed to create journal entry: %w", err)
	}

	return nil
}

// GetByID retrieves one entry.
func (r *JournalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.JournalEntry, error) {
	query := `
		SELECT id, user_id, raw_content, input_type, word_count, sentiment, topics, categories, model_version, analyzed_at, created_at, modified_at
		FROM journal_entries
		WHERE id = $1
	`
	return r.scanEntry(r.db.QueryRowContext(ctx, query, id))
}

// GetByUserID retrieves a user's entries, newest first.
func (r *JournalRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*models.JournalEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, user_id, raw_content, input_type, word_count, sentiment, topics, categories, model_version, analyzed_at, created_at, modified_at
		FROM journal_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return r.collectEntries(rows)
}

// GetAllByUserID retrieves every entry for a user, oldest first. Used for
// full-journal export.
func (r *JournalRepository) GetAllByUserID(ctx context.Context, userID int64) ([]*models.JournalEntry, error) {
	query := `
		SELECT id, user_id, raw_content, input_type, word_count, sentiment, topics, categories, model_version, analyzed_at, created_at, modified_at
		FROM journal_entries
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to export journal entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return r.collectEntries(rows)
}

// Search finds a user's entries containing the query text, newest first.
func (r *JournalRepository) Search(ctx context.Context, userID int64, search string, limit int) ([]*models.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, raw_content, input_type, word_count, sentiment, topics, categories, model_version, analyzed_at, created_at, modified_at
		FROM journal_entries
		WHERE user_id = $1 AND raw_content ILIKE '%' || $2 || '%'
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, search, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search journal entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return r.collectEntries(rows)
}

// UpdateAnalysis stores the categorization results for an entry.
func (r *JournalRepository) UpdateAnalysis(ctx context.Context, id uuid.UUID, sentiment models.Sentiment, topics, categories []string, modelVersion string) error {
	topicsJSON, err := json.Marshal(topics)
	if err != nil {
		return fmt.Errorf("failed to marshal topics: %w", err)
	}
	categoriesJSON, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	query := `
		UPDATE journal_entries
		SET sentiment = $1, topics = $2, categories = $3, model_version = $4, analyzed_at = $5, modified_at = $5
		WHERE id = $6
	`
	result, err := r.db.ExecContext(ctx, query, string(sentiment), topicsJSON, categoriesJSON, modelVersion, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update journal analysis: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *JournalRepository) scanEntry(row *sql.Row) (*models.JournalEntry, error) {
	entry := &models.JournalEntry{}
	var sentiment, modelVersion sql.NullString
	var topicsJSON, categoriesJSON []byte
	var analyzedAt sql.NullTime

	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.RawContent,
		&entry.InputType,
		&entry.WordCount,
		&sentiment,
		&topicsJSON,
		&categoriesJSON,
		&modelVersion,
		&analyzedAt,
		&entry.CreatedAt,
		&entry.ModifiedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}

	if err := fillEntry(entry, sentiment, modelVersion, topicsJSON, categoriesJSON, analyzedAt); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *JournalRepository) collectEntries(rows *sql.Rows) ([]*models.JournalEntry, error) {
	var entries []*models.JournalEntry
	for rows.Next() {
		entry := &models.JournalEntry{}
		var sentiment, modelVersion sql.NullString
		var topicsJSON, categoriesJSON []byte
		var analyzedAt sql.NullTime

		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.RawContent,
			&entry.InputType,
			&entry.WordCount,
			&sentiment,
			&topicsJSON,
			&categoriesJSON,
			&modelVersion,
			&analyzedAt,
			&entry.CreatedAt,
			&entry.ModifiedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		if err := fillEntry(entry, sentiment, modelVersion, topicsJSON, categoriesJSON, analyzedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal entries: %w", err)
	}
	return entries, nil
}

func fillEntry(entry *models.JournalEntry, sentiment, modelVersion sql.NullString, topicsJSON, categoriesJSON []byte, analyzedAt sql.NullTime) error {
	entry.Sentiment = models.Sentiment(sentiment.String)
	entry.ModelVersion = modelVersion.String
	if analyzedAt.Valid {
		t := analyzedAt.Time
		entry.AnalyzedAt = &t
	}
	if len(topicsJSON) > 0 {
		if err := json.Unmarshal(topicsJSON, &entry.Topics); err != nil {
			return fmt.Errorf("failed to unmarshal topics: %w", err)
		}
	}
	if len(categoriesJSON) > 0 {
		if err := json.Unmarshal(categoriesJSON, &entry.Categories); err != nil {
			return fmt.Errorf("failed to unmarshal categories: %w", err)
		}
	}
	return nil
}
