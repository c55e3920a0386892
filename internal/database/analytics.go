package database

import (
	"context"
	"fmt"
	"time"
)

// SentimentCount is one bucket of the sentiment distribution.
type SentimentCount struct {
	Sentiment string `json:"sentiment"`
	Count     int64  `json:"count"`
}

// TopicCount is one topic with its occurrence count.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int64  `json:"count"`
}

// DailyWordCount is the total words journaled on one day.
type DailyWordCount struct {
	Date  string `json:"date"`
	Words int64  `json:"words"`
}

// AnalyticsRepository answers aggregate questions over analyzed entries.
type AnalyticsRepository struct {
	db *DB
}

// NewAnalyticsRepository creates a new analytics repository.
func NewAnalyticsRepository(db *DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// SentimentDistribution counts analyzed entries per sentiment for a user
// since the given time.
func (r *AnalyticsRepository) SentimentDistribution(ctx context.Context, userID int64, since time.Time) ([]SentimentCount, error) {
	query := `
		SELECT sentiment, COUNT(*)
		FROM journal_entries
		WHERE user_id = $1 AND sentiment IS NOT NULL AND created_at >= $2
		GROUP BY sentiment
		ORDER BY COUNT(*) DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query sentiment distribution: %w", err)
	}
	defer rows.Close()

	counts := []SentimentCount{}
	for rows.Next() {
		var sc SentimentCount
		if err := rows.Scan(&sc.Sentiment, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan sentiment count: %w", err)
		}
		counts = append(counts, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sentiment counts: %w", err)
	}

	return counts, nil
}

// TopTopics returns the most frequent topics across a user's analyzed
// entries since the given time.
func (r *AnalyticsRepository) TopTopics(ctx context.Context, userID int64, since time.Time, limit int) ([]TopicCount, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT topic, COUNT(*)
		FROM journal_entries, jsonb_array_elements_text(topics) AS topic
		WHERE user_id = $1 AND created_at >= $2
		GROUP BY topic
		ORDER BY COUNT(*) DESC, topic
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top topics: %w", err)
	}
	defer rows.Close()

	topics := []TopicCount{}
	for rows.Next() {
		var tc TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan topic count: %w", err)
		}
		topics = append(topics, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate topic counts: %w", err)
	}

	return topics, nil
}

// WordCountTrend returns total words journaled per day since the given time.
func (r *AnalyticsRepository) WordCountTrend(ctx context.Context, userID int64, since time.Time) ([]DailyWordCount, error) {
	query := `
		SELECT TO_CHAR(created_at, 'YYYY-MM-DD') AS day, COALESCE(SUM(word_count), 0)
		FROM journal_entries
		WHERE user_id = $1 AND created_at >= $2
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query word count trend: %w", err)
	}
	defer rows.Close()

	trend := []DailyWordCount{}
	for rows.Next() {
		var dc DailyWordCount
		if err := rows.Scan(&dc.Date, &dc.Words); err != nil {
			return nil, fmt.Errorf("failed to scan daily word count: %w", err)
		}
		trend = append(trend, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate word counts: %w", err)
	}

	return trend, nil
}

// EntryCount returns how many entries a user has created since the given time.
func (r *AnalyticsRepository) EntryCount(ctx context.Context, userID int64, since time.Time) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM journal_entries WHERE user_id = $1 AND created_at >= $2`
	if err := r.db.QueryRowContext(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}
