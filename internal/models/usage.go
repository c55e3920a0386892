package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageRecord is one append-only token-consumption row. Rows are created per
// generation call and never mutated or deleted.
type UsageRecord struct {
	ID               uuid.UUID `json:"id"`
	UserID           int64     `json:"user_id"`
	Date             string    `json:"date"`
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	TotalTokens      int64     `json:"total_tokens"`
	Feature          string    `json:"feature,omitempty"`
	ModelName        string    `json:"model_name,omitempty"`
	LoggedAt         time.Time `json:"logged_at"`
}
