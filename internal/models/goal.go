package models

import (
	"time"

	"github.com/google/uuid"
)

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusAbandoned GoalStatus = "abandoned"
)

// Goal is a user-declared objective tracked alongside journaling.
type Goal struct {
	ID           uuid.UUID  `json:"id"`
	UserID       int64      `json:"user_id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	TargetMetric string     `json:"target_metric,omitempty"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Status       GoalStatus `json:"status"`
	Priority     int        `json:"priority,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
}
