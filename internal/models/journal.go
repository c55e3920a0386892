package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// InputType records how a journal entry arrived.
type InputType string

const (
	InputTypeText  InputType = "text"
	InputTypeVoice InputType = "voice"
	InputTypePhoto InputType = "photo"
)

// Sentiment labels assigned by the analysis pass.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
)

// JournalEntry is one journal note. Sentiment, topics and categories are
// filled in asynchronously by the analysis worker; until then the entry is
// pending.
type JournalEntry struct {
	ID           uuid.UUID  `json:"id"`
	UserID       int64      `json:"user_id"`
	RawContent   string     `json:"raw_content"`
	InputType    InputType  `json:"input_type"`
	WordCount    int        `json:"word_count"`
	Sentiment    Sentiment  `json:"sentiment,omitempty"`
	Topics       []string   `json:"topics,omitempty"`
	Categories   []string   `json:"categories,omitempty"`
	ModelVersion string     `json:"model_version,omitempty"`
	AnalyzedAt   *time.Time `json:"analyzed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ModifiedAt   time.Time  `json:"modified_at"`
}

// CountWords computes the stored word count for entry content.
func CountWords(content string) int {
	return len(strings.Fields(content))
}

// Analyzed reports whether the analysis pass has completed for this entry.
func (e *JournalEntry) Analyzed() bool {
	return e.AnalyzedAt != nil
}
