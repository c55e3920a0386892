package models

import "time"

// PromptTemplate is an opaque prompt text keyed by a stable identifier.
// Templates are seeded at startup and may be edited operationally; the AI
// core treats their contents as opaque strings.
type PromptTemplate struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
