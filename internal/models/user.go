package models

import "time"

// User is a person interacting through the messaging transport. The ID is
// the transport platform's numeric user identifier.
type User struct {
	ID                int64          `json:"id"`
	Username          string         `json:"username,omitempty"`
	Timezone          string         `json:"timezone,omitempty"`
	PreferredLanguage string         `json:"preferred_language,omitempty"`
	Approved          bool           `json:"approved"`
	Settings          map[string]any `json:"settings,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	LastActiveAt      time.Time      `json:"last_active_at"`
}
