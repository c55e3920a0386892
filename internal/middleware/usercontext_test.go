package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inkwell-ai/inkwell/internal/database"
	"github.com/inkwell-ai/inkwell/internal/models"
	"github.com/inkwell-ai/inkwell/internal/request"
	"go.uber.org/zap"
)

type mockUserRepo struct {
	upsertErr error
	approved  bool
	upserted  *models.User
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return nil, database.ErrNotFound
}

func (m *mockUserRepo) Upsert(ctx context.Context, user *models.User) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	user.Approved = m.approved
	m.upserted = user
	return nil
}

var _ database.UserRepositoryInterface = (*mockUserRepo)(nil)

func TestUserContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		userIDHeader    string
		usernameHeader  string
		repo            *mockUserRepo
		requireApproval bool
		wantStatus      int
		wantUserID      int64
	}{
		{
			name:         "missing header rejected",
			userIDHeader: "",
			repo:         &mockUserRepo{},
			wantStatus:   http.StatusUnauthorized,
		},
		{
			name:         "non-numeric header rejected",
			userIDHeader: "abc",
			repo:         &mockUserRepo{},
			wantStatus:   http.StatusUnauthorized,
		},
		{
			name:         "negative id rejected",
			userIDHeader: "-5",
			repo:         &mockUserRepo{},
			wantStatus:   http.StatusUnauthorized,
		},
		{
			name:         "upsert failure is a server error",
			userIDHeader: "42",
			repo:         &mockUserRepo{upsertErr: errors.New("db down")},
			wantStatus:   http.StatusInternalServerError,
		},
		{
			name:            "unapproved user rejected when approval required",
			userIDHeader:    "42",
			repo:            &mockUserRepo{approved: false},
			requireApproval: true,
			wantStatus:      http.StatusForbidden,
		},
		{
			name:            "approved user passes approval gate",
			userIDHeader:    "42",
			repo:            &mockUserRepo{approved: true},
			requireApproval: true,
			wantStatus:      http.StatusOK,
			wantUserID:      42,
		},
		{
			name:           "unapproved user passes when approval not required",
			userIDHeader:   "42",
			usernameHeader: "ada",
			repo:           &mockUserRepo{},
			wantStatus:     http.StatusOK,
			wantUserID:     42,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotUser *models.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = request.UserFromContext(r)
				w.WriteHeader(http.StatusOK)
			})

			handler := UserContext(tt.repo, tt.requireApproval, zap.NewNop())(next)

			r := httptest.NewRequest("POST", "/api/chat", nil)
			if tt.userIDHeader != "" {
				r.Header.Set("X-User-ID", tt.userIDHeader)
			}
			if tt.usernameHeader != "" {
				r.Header.Set("X-Username", tt.usernameHeader)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantUserID != 0 {
				if gotUser == nil {
					t.Fatal("expected user in context")
				}
				if gotUser.ID != tt.wantUserID {
					t.Errorf("user ID = %d, want %d", gotUser.ID, tt.wantUserID)
				}
				if tt.usernameHeader != "" && tt.repo.upserted.Username != tt.usernameHeader {
					t.Errorf("upserted username = %q, want %q", tt.repo.upserted.Username, tt.usernameHeader)
				}
			}
		})
	}
}
