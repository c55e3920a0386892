package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/inkwell-ai/inkwell/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// UserRepository handles user database operations.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by transport ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	var settingsJSON []byte
	var username, timezone, language sql.NullString

	query := `
		SELECT id, username, timezone, preferred_language, approved, settings, created_at, last_active_at
		FROM users
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&username,
		&timezone,
		&language,
		&user.Approved,
		&settingsJSON,
		&user.CreatedAt,
		&user.LastActiveAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Username = username.String
	user.Timezone = timezone.String
	user.PreferredLanguage = language.String
	if len(settingsJSON) > 0 {
		if err := json.Unmarshal(settingsJSON, &user.Settings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user settings: %w", err)
		}
	}

	return user, nil
}

// Upsert creates the user row if missing and refreshes last_active_at.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	settingsJSON, err := json.Marshal(user.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal user settings: %w", err)
	}

	query := `
		INSERT INTO users (id, username, timezone, preferred_language, approved, settings, created_at, last_active_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (id) DO UPDATE
		SET last_active_at = EXCLUDED.last_active_at,
		    username = COALESCE(NULLIF(EXCLUDED.username, ''), users.username)
		RETURNING COALESCE(username, ''), approved, created_at, last_active_at
	`

	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Username,
		user.Timezone,
		user.PreferredLanguage,
		user.Approved,
		settingsJSON,
		now,
	).Scan(&user.Username, &user.Approved, &user.CreatedAt, &user.LastActiveAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

// SetApproved flips the approval gate for a user.
func (r *UserRepository) SetApproved(ctx context.Context, id int64, approved bool) error {
	query := `UPDATE users SET approved = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, approved, id)
	if err != nil {
		return fmt.Errorf("failed to set approval: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all users ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT id, COALESCE(username, ''), approved, created_at, last_active_at
		FROM users
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Username, &user.Approved, &user.CreatedAt, &user.LastActiveAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// SetUsername updates the stored display name.
func (r *UserRepository) SetUsername(ctx context.Context, id int64, username string) error {
	query := `UPDATE users SET username = $1, last_active_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, username, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set username: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
