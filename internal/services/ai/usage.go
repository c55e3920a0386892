package ai

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// UsageStore is the persistence collaborator for the usage ledger.
type UsageStore interface {
	// RecordUsage appends one usage row.
	RecordUsage(ctx context.Context, userID int64, date string, promptTokens, completionTokens int64, feature, modelName string) error
	// UsageSummary returns the persisted daily and all-time token totals for
	// a user.
	UsageSummary(ctx context.Context, userID int64, date string) (daily, allTime int64, err error)
}

// UsageSummary aggregates a user's persisted token consumption plus the
// process-wide session counter.
type UsageSummary struct {
	DailyTokens   int64
	TotalTokens   int64
	SessionTokens int64
}

// Ledger records per-call token consumption. Rows are append-only; the
// in-memory session counter is reset only at process start and is allowed to
// diverge from persisted totals when a store write fails (the failure is
// logged and swallowed, never surfaced to the generation caller).
type Ledger struct {
	store   UsageStore
	logger  *zap.Logger
	session atomic.Int64
}

// NewLedger creates a ledger over a usage store.
func NewLedger(store UsageStore, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, logger: logger}
}

// Record appends one usage row and bumps the session counter.
func (l *Ledger) Record(ctx context.Context, userID int64, usage Usage, feature, modelName string) {
	total := usage.Total()
	l.session.Add(total)

	date := time.Now().Format("2006-01-02")
	if err := l.store.RecordUsage(ctx, userID, date, usage.PromptTokens, usage.CompletionTokens, feature, modelName); err != nil {
		l.logger.Error("usage_record_failed",
			zap.Int64("user_id", userID),
			zap.String("feature", feature),
			zap.Error(err),
		)
		return
	}

	l.logger.Info("tokens_used",
		zap.Int64("user_id", userID),
		zap.Int64("prompt_tokens", usage.PromptTokens),
		zap.Int64("completion_tokens", usage.CompletionTokens),
		zap.Int64("session_tokens", l.session.Load()),
		zap.String("feature", feature),
		zap.String("model", modelName),
	)
}

// SessionTokens returns the tokens consumed since process start.
func (l *Ledger) SessionTokens() int64 {
	return l.session.Load()
}

// Summary returns the persisted daily and all-time totals for a user plus
// the session counter.
func (l *Ledger) Summary(ctx context.Context, userID int64, date string) (UsageSummary, error) {
	daily, allTime, err := l.store.UsageSummary(ctx, userID, date)
	if err != nil {
		return UsageSummary{}, err
	}
	return UsageSummary{
		DailyTokens:   daily,
		TotalTokens:   allTime,
		SessionTokens: l.session.Load(),
	}, nil
}
