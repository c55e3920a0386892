package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell-ai/inkwell/internal/models"
	"github.com/inkwell-ai/inkwell/internal/services/ai"
)

// JournalRepositoryInterface defines the interface for journal repository operations
// This interface enables better testability by allowing mock implementations
type JournalRepositoryInterface interface {
	Create(ctx context.Context, entry *models.JournalEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.JournalEntry, error)
	GetByUserID(ctx context.Context, userID int64, limit int) ([]*models.JournalEntry, error)
	GetAllByUserID(ctx context.Context, userID int64) ([]*models.JournalEntry, error)
	Search(ctx context.Context, userID int64, query string, limit int) ([]*models.JournalEntry, error)
	UpdateAnalysis(ctx context.Context, id uuid.UUID, sentiment models.Sentiment, topics, categories []string, modelVersion string) error
}

// UserRepositoryInterface defines the interface for user repository operations
type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
}

// InsightRepositoryInterface defines the interface for insight repository operations
type InsightRepositoryInterface interface {
	Create(ctx context.Context, insight *models.Insight) error
	GetByEntryID(ctx context.Context, entryID uuid.UUID) (*models.Insight, error)
}

// PromptRepositoryInterface defines the interface for prompt template lookups
type PromptRepositoryInterface interface {
	Get(ctx context.Context, id string) (string, error)
}

// AnalyticsRepositoryInterface defines the interface for aggregate journal queries
type AnalyticsRepositoryInterface interface {
	SentimentDistribution(ctx context.Context, userID int64, since time.Time) ([]SentimentCount, error)
	TopTopics(ctx context.Context, userID int64, since time.Time, limit int) ([]TopicCount, error)
	WordCountTrend(ctx context.Context, userID int64, since time.Time) ([]DailyWordCount, error)
	EntryCount(ctx context.Context, userID int64, since time.Time) (int64, error)
}

// Ensure concrete types implement the interfaces
var (
	_ JournalRepositoryInterface   = (*JournalRepository)(nil)
	_ UserRepositoryInterface      = (*UserRepository)(nil)
	_ InsightRepositoryInterface   = (*InsightRepository)(nil)
	_ PromptRepositoryInterface    = (*PromptRepository)(nil)
	_ AnalyticsRepositoryInterface = (*AnalyticsRepository)(nil)
	_ ai.UsageStore                = (*UsageRepository)(nil)
)
