package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/inkwell-ai/inkwell/internal/database"
	"github.com/inkwell-ai/inkwell/internal/models"
	"github.com/inkwell-ai/inkwell/internal/prompts"
	"github.com/inkwell-ai/inkwell/internal/request"
	"github.com/inkwell-ai/inkwell/internal/services/ai"
)

type stubGenerator struct {
	outcome  ai.Outcome
	lastTask ai.TaskType
	lastCall ai.CallContext
	parts    []ai.Part
}

func (s *stubGenerator) Generate(ctx context.Context, parts []ai.Part, task ai.TaskType, opts ai.GenerateOptions, call ai.CallContext) ai.Outcome {
	s.parts = parts
	s.lastTask = task
	s.lastCall = call
	return s.outcome
}

var _ ai.Generator = (*stubGenerator)(nil)

type stubPromptRepo struct{}

func (s *stubPromptRepo) Get(ctx context.Context, id string) (string, error) {
	def, ok := prompts.Defaults[id]
	if !ok {
		return "", database.ErrNotFound
	}
	return def.Text, nil
}

var _ database.PromptRepositoryInterface = (*stubPromptRepo)(nil)

func authedRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	user := &models.User{ID: 42, Username: "ada"}
	return r.WithContext(request.WithUser(r.Context(), user))
}

func TestChatHandler_SendMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		authed     bool
		outcome    ai.Outcome
		wantStatus int
	}{
		{
			name:       "success",
			body:       `{"message": "How was my week?"}`,
			authed:     true,
			outcome:    ai.Outcome{Kind: ai.OutcomeSuccess, Text: "Pretty good.", Model: "analysis-model"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unauthenticated",
			body:       `{"message": "hi"}`,
			authed:     false,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty message",
			body:       `{"message": "   "}`,
			authed:     true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing message",
			body:       `{}`,
			authed:     true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid json",
			body:       `{not json`,
			authed:     true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "blocked maps to 422",
			body:       `{"message": "something"}`,
			authed:     true,
			outcome:    ai.Outcome{Kind: ai.OutcomeBlocked, BlockReason: "content_filter"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "capacity exhaustion maps to 429",
			body:       `{"message": "something"}`,
			authed:     true,
			outcome:    ai.Outcome{Kind: ai.OutcomeError, ErrKind: ai.ErrRateLimitExceeded},
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "no roles maps to 503",
			body:       `{"message": "something"}`,
			authed:     true,
			outcome:    ai.Outcome{Kind: ai.OutcomeError, ErrKind: ai.ErrServiceUnavailable},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "backend failure maps to 502",
			body:       `{"message": "something"}`,
			authed:     true,
			outcome:    ai.Outcome{Kind: ai.OutcomeError, ErrKind: ai.ErrBackend},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := &stubGenerator{outcome: tt.outcome}
			handler := NewChatHandler(gen, &stubPromptRepo{})

			var r *http.Request
			if tt.authed {
				r = authedRequest("POST", "/api/chat", tt.body)
			} else {
				r = httptest.NewRequest("POST", "/api/chat", strings.NewReader(tt.body))
			}
			w := httptest.NewRecorder()

			handler.SendMessage(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body: %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				if gen.lastTask != ai.TaskChat {
					t.Errorf("task = %s, want chat", gen.lastTask)
				}
				if gen.lastCall.UserID != 42 || gen.lastCall.Mode != "chat" {
					t.Errorf("call context = %+v", gen.lastCall)
				}
				if len(gen.parts) != 2 {
					t.Fatalf("parts = %d, want persona + message", len(gen.parts))
				}
				if !strings.Contains(gen.parts[0].Text, "ada") {
					t.Errorf("persona part should address the user by name: %q", gen.parts[0].Text)
				}
			}
		})
	}
}

func TestChatHandler_RateLimitSetsRetryAfter(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{outcome: ai.Outcome{Kind: ai.OutcomeError, ErrKind: ai.ErrRateLimitExceeded}}
	handler := NewChatHandler(gen, &stubPromptRepo{})

	w := httptest.NewRecorder()
	handler.SendMessage(w, authedRequest("POST", "/api/chat", `{"message": "hello"}`))

	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
}
