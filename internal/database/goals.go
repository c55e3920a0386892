package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/inkwell-ai/inkwell/internal/models"
)

// GoalRepository handles goal database operations.
type GoalRepository struct {
	db *DB
}

// NewGoalRepository creates a new goal repository.
func NewGoalRepository(db *DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// Create inserts a new goal.
func (r *GoalRepository) Create(ctx context.Context, goal *models.Goal) error {
	tagsJSON, err := json.Marshal(goal.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal goal tags: %w", err)
	}

	query := `
		INSERT INTO goals (id, user_id, name, description, target_metric, start_date, end_date, status, priority, tags)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, $10)
	`

	_, err = r.db.ExecContext(ctx, query,
		goal.ID,
		goal.UserID,
		goal.Name,
		goal.Description,
		goal.TargetMetric,
		goal.StartDate,
		goal.EndDate,
		string(goal.Status),
		goal.Priority,
		tagsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}

	return nil
}

// GetByID retrieves a goal by ID, scoped to one user.
func (r *GoalRepository) GetByID(ctx context.Context, id uuid.UUID, userID int64) (*models.Goal, error) {
	query := `
		SELECT id, user_id, name, description, target_metric, start_date, end_date, status, priority, tags
		FROM goals
		WHERE id = $1 AND user_id = $2
	`

	goal, err := scanGoal(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}

	return goal, nil
}

// GetByUserID retrieves all goals for a user, optionally filtered by status.
func (r *GoalRepository) GetByUserID(ctx context.Context, userID int64, status models.GoalStatus) ([]*models.Goal, error) {
	query := `
		SELECT id, user_id, name, description, target_metric, start_date, end_date, status, priority, tags
		FROM goals
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY start_date DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	goals := []*models.Goal{}
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goals: %w", err)
	}

	return goals, nil
}

// UpdateStatus transitions a goal to a new lifecycle state.
func (r *GoalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, userID int64, status models.GoalStatus) error {
	query := `UPDATE goals SET status = $1 WHERE id = $2 AND user_id = $3`

	result, err := r.db.ExecContext(ctx, query, string(status), id, userID)
	if err != nil {
		return fmt.Errorf("failed to update goal status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check goal update: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a goal.
func (r *GoalRepository) Delete(ctx context.Context, id uuid.UUID, userID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check goal delete: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanGoal(row scanner) (*models.Goal, error) {
	goal := &models.Goal{}
	var description, targetMetric sql.NullString
	var endDate sql.NullTime
	var priority sql.NullInt64
	var status string
	var tagsJSON []byte

	err := row.Scan(
		&goal.ID,
		&goal.UserID,
		&goal.Name,
		&description,
		&targetMetric,
		&goal.StartDate,
		&endDate,
		&status,
		&priority,
		&tagsJSON,
	)
	if err != nil {
		return nil, err
	}

	goal.Description = description.String
	goal.TargetMetric = targetMetric.String
	if endDate.Valid {
		goal.EndDate = &endDate.Time
	}
	goal.Status = models.GoalStatus(status)
	goal.Priority = int(priority.Int64)
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &goal.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal goal tags: %w", err)
		}
	}

	return goal, nil
}
