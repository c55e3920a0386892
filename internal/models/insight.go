package models

import (
	"time"

	"github.com/google/uuid"
)

// Insight holds the deeper analysis attached to one journal entry.
type Insight struct {
	ID                  uuid.UUID `json:"id"`
	EntryID             uuid.UUID `json:"entry_id"`
	SentimentScore      float64   `json:"sentiment_score"`
	SentimentLabel      Sentiment `json:"sentiment_label"`
	DetectedEmotions    []string  `json:"detected_emotions,omitempty"`
	KeyTopics           []string  `json:"key_topics,omitempty"`
	Summary             string    `json:"summary,omitempty"`
	ReflectionQuestions []string  `json:"reflection_questions,omitempty"`
	GeneratedAt         time.Time `json:"generated_at"`
}
