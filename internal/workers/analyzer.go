package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inkwell-ai/inkwell/internal/database"
	"github.com/inkwell-ai/inkwell/internal/models"
	"github.com/inkwell-ai/inkwell/internal/prompts"
	"github.com/inkwell-ai/inkwell/internal/queue"
	"github.com/inkwell-ai/inkwell/internal/services/ai"
	"github.com/inkwell-ai/inkwell/internal/validation"
	"go.uber.org/zap"
)

const (
	// historyWindow is how many recent entries feed the reflection prompt.
	historyWindow = 10
	// reanalyzeBatchSize caps how many entries one reanalyze job touches.
	reanalyzeBatchSize = 500
	// retryBaseDelay seeds the re-enqueue backoff for capacity failures.
	retryBaseDelay = time.Minute
)

// EntryAnalyzer processes journal analysis jobs: it classifies an entry
// (sentiment, topics, categories) and generates a reflective insight.
type EntryAnalyzer struct {
	generator   ai.Generator
	journalRepo database.JournalRepositoryInterface
	insightRepo database.InsightRepositoryInterface
	userRepo    database.UserRepositoryInterface
	promptRepo  database.PromptRepositoryInterface
	jobQueue    queue.JobQueue // For re-enqueueing jobs with delays
	logger      *zap.Logger
}

// NewEntryAnalyzer creates a new entry analyzer
func NewEntryAnalyzer(
	generator ai.Generator,
	journalRepo database.JournalRepositoryInterface,
	insightRepo database.InsightRepositoryInterface,
	userRepo database.UserRepositoryInterface,
	promptRepo database.PromptRepositoryInterface,
	jobQueue queue.JobQueue,
	logger *zap.Logger,
) *EntryAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntryAnalyzer{
		generator:   generator,
		journalRepo: journalRepo,
		insightRepo: insightRepo,
		userRepo:    userRepo,
		promptRepo:  promptRepo,
		jobQueue:    jobQueue,
		logger:      logger,
	}
}

// categorizationResult is the JSON shape the classification prompt demands.
type categorizationResult struct {
	Sentiment  string   `json:"sentiment"`
	Topics     []string `json:"topics"`
	Categories []string `json:"categories"`
}

// ProcessEntryAnalysisJob runs the full analysis pipeline for one entry.
func (a *EntryAnalyzer) ProcessEntryAnalysisJob(ctx context.Context, job *queue.Job) error {
	if job.EntryID == nil {
		return fmt.Errorf("entry_id is required for entry analysis job")
	}

	entry, err := a.journalRepo.GetByID(ctx, *job.EntryID)
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}
	if entry.UserID != job.UserID {
		return fmt.Errorf("entry does not belong to user")
	}

	return a.analyzeEntry(ctx, entry)
}

// ProcessReanalyzeUserJob re-runs analysis over a user's recent entries,
// typically after a prompt template change.
func (a *EntryAnalyzer) ProcessReanalyzeUserJob(ctx context.Context, job *queue.Job) error {
	entries, err := a.journalRepo.GetByUserID(ctx, job.UserID, reanalyzeBatchSize)
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}

	analyzed := 0
	for _, entry := range entries {
		if err := a.analyzeEntry(ctx, entry); err != nil {
			a.logger.Warn("reanalyze_entry_failed",
				zap.String("entry_id", entry.ID.String()),
				zap.Error(err),
			)
			continue
		}
		analyzed++
	}

	a.logger.Info("reanalyze_user_done",
		zap.Int64("user_id", job.UserID),
		zap.Int("entries", len(entries)),
		zap.Int("analyzed", analyzed),
	)
	return nil
}

func (a *EntryAnalyzer) analyzeEntry(ctx context.Context, entry *models.JournalEntry) error {
	call := ai.CallContext{UserID: entry.UserID, Mode: "journal"}

	result, model, err := a.categorize(ctx, entry, call)
	if err != nil {
		return err
	}
	if result == nil {
		// Blocked by the safety layer; nothing further to do for this entry.
		return nil
	}

	sentiment := models.Sentiment(strings.ToLower(result.Sentiment))
	if validation.ValidateSentiment(string(sentiment)) != nil {
		sentiment = models.SentimentNeutral
	}

	if err := a.journalRepo.UpdateAnalysis(ctx, entry.ID, sentiment, result.Topics, result.Categories, model); err != nil {
		return fmt.Errorf("failed to store analysis: %w", err)
	}

	return a.reflect(ctx, entry, sentiment, result.Topics, call)
}

// categorize runs the JSON classification call. A nil result with nil error
// means the entry was blocked and should be skipped.
func (a *EntryAnalyzer) categorize(ctx context.Context, entry *models.JournalEntry, call ai.CallContext) (*categorizationResult, string, error) {
	tpl, err := a.promptRepo.Get(ctx, prompts.IDCategorization)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load categorization prompt: %w", err)
	}
	prompt := fmt.Sprintf(tpl, entry.RawContent, strings.Join(prompts.JournalCategories, ", "))

	outcome := a.generator.Generate(ctx,
		[]ai.Part{ai.TextPart(prompt)},
		ai.TaskCategorization,
		ai.GenerateOptions{JSONOutput: true},
		call,
	)

	switch outcome.Kind {
	case ai.OutcomeSuccess:
		result, err := parseCategorization(outcome.Text)
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse categorization: %w", err)
		}
		return result, outcome.Model, nil
	case ai.OutcomeBlocked:
		a.logger.Warn("categorization_blocked",
			zap.String("entry_id", entry.ID.String()),
			zap.String("reason", outcome.BlockReason),
		)
		return nil, "", nil
	case ai.OutcomeNoContent:
		return nil, "", fmt.Errorf("categorization returned no content")
	default:
		return nil, "", outcomeError("categorization", outcome)
	}
}

// reflect generates the therapist-style insight over the entry and its
// recent history.
func (a *EntryAnalyzer) reflect(ctx context.Context, entry *models.JournalEntry, sentiment models.Sentiment, topics []string, call ai.CallContext) error {
	tpl, err := a.promptRepo.Get(ctx, prompts.IDAnalysis)
	if err != nil {
		return fmt.Errorf("failed to load analysis prompt: %w", err)
	}

	username := "friend"
	if user, err := a.userRepo.GetByID(ctx, entry.UserID); err == nil && user.Username != "" {
		username = user.Username
	}

	history, err := a.journalRepo.GetByUserID(ctx, entry.UserID, historyWindow)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	prompt := fmt.Sprintf(tpl, username, formatCurrentEntry(entry), formatHistory(history, entry.ID))

	outcome := a.generator.Generate(ctx,
		[]ai.Part{ai.TextPart(prompt)},
		ai.TaskJournalAnalysis,
		ai.GenerateOptions{},
		call,
	)

	switch outcome.Kind {
	case ai.OutcomeSuccess:
		insight := &models.Insight{
			ID:             uuid.New(),
			EntryID:        entry.ID,
			SentimentScore: sentimentScore(sentiment),
			SentimentLabel: sentiment,
			KeyTopics:      topics,
			Summary:        outcome.Text,
		}
		if err := a.insightRepo.Create(ctx, insight); err != nil {
			return fmt.Errorf("failed to store insight: %w", err)
		}
		return nil
	case ai.OutcomeBlocked:
		a.logger.Warn("reflection_blocked",
			zap.String("entry_id", entry.ID.String()),
			zap.String("reason", outcome.BlockReason),
		)
		return nil
	case ai.OutcomeNoContent:
		return fmt.Errorf("reflection returned no content")
	default:
		return outcomeError("reflection", outcome)
	}
}

// ProcessJob processes a job based on its type
func (a *EntryAnalyzer) ProcessJob(ctx context.Context, msg *queue.Message) error {
	job := msg.Job

	switch job.Type {
	case queue.JobTypeEntryAnalysis:
		if err := a.ProcessEntryAnalysisJob(ctx, job); err != nil {
			return a.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	case queue.JobTypeReanalyzeUser:
		if err := a.ProcessReanalyzeUserJob(ctx, job); err != nil {
			// Reanalysis failures are non-critical and never retried
			if nackErr := msg.Nack(false); nackErr != nil {
				a.logger.Warn("nack_failed", zap.Error(nackErr))
			}
			return fmt.Errorf("reanalysis failed: %w", err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack reanalysis job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			a.logger.Warn("nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError re-enqueues capacity failures with a delay and dead-letters
// everything else.
func (a *EntryAnalyzer) handleJobError(ctx context.Context, msg *queue.Message, job *queue.Job, err error) error {
	if ai.IsCapacityError(err) && job.CanRetry() && a.jobQueue != nil {
		delay := retryBaseDelay << uint(job.RetryCount)
		notBefore := time.Now().Add(delay)

		delayedJob := &queue.Job{
			ID:         job.ID,
			Type:       job.Type,
			UserID:     job.UserID,
			EntryID:    job.EntryID,
			NotBefore:  &notBefore,
			NotAfter:   job.NotAfter,
			Metadata:   job.Metadata,
			CreatedAt:  job.CreatedAt,
			RetryCount: job.RetryCount + 1,
			MaxRetries: job.MaxRetries,
		}

		if ackErr := msg.Ack(); ackErr != nil {
			a.logger.Warn("ack_before_reenqueue_failed", zap.Error(ackErr))
		}

		if enqueueErr := a.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
			return fmt.Errorf("capacity exhausted, failed to re-enqueue: %w", enqueueErr)
		}

		a.logger.Info("job_reenqueued_after_capacity_error",
			zap.String("job_id", job.ID.String()),
			zap.Duration("delay", delay),
			zap.Int("retry_count", job.RetryCount+1),
		)
		return nil
	}

	if nackErr := msg.Nack(false); nackErr != nil {
		a.logger.Warn("nack_failed", zap.Error(nackErr))
	}
	return err
}

// Run consumes jobs until the context is cancelled.
func (a *EntryAnalyzer) Run(ctx context.Context, jobQueue queue.JobQueue, prefetch int) error {
	msgs, errs, err := jobQueue.Consume(ctx, prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case consumeErr, ok := <-errs:
			if ok && consumeErr != nil {
				return fmt.Errorf("consumer failed: %w", consumeErr)
			}
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := a.ProcessJob(ctx, msg); err != nil {
				a.logger.Error("job_failed",
					zap.String("job_id", msg.Job.ID.String()),
					zap.String("job_type", string(msg.Job.Type)),
					zap.Error(err),
				)
			}
		}
	}
}

// parseCategorization decodes the model's JSON reply, tolerating markdown
// code fences around the object.
func parseCategorization(text string) (*categorizationResult, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var result categorizationResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func formatCurrentEntry(entry *models.JournalEntry) string {
	return fmt.Sprintf("Current entry (%s):\n%s", entry.CreatedAt.Format("2006-01-02"), entry.RawContent)
}

func formatHistory(history []*models.JournalEntry, currentID uuid.UUID) string {
	var b strings.Builder
	for _, entry := range history {
		if entry.ID == currentID {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", entry.CreatedAt.Format("2006-01-02"), entry.RawContent)
	}
	if b.Len() == 0 {
		return "No previous entries."
	}
	return "Previous entries:\n" + b.String()
}

func sentimentScore(s models.Sentiment) float64 {
	switch s {
	case models.SentimentPositive:
		return 1
	case models.SentimentNegative:
		return -1
	default:
		return 0
	}
}

func outcomeError(stage string, outcome ai.Outcome) error {
	if outcome.Err != nil {
		return fmt.Errorf("%s failed (%s): %w", stage, outcome.ErrKind, outcome.Err)
	}
	return fmt.Errorf("%s failed (%s)", stage, outcome.ErrKind)
}
