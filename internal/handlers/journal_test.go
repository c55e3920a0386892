package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/inkwell-ai/inkwell/internal/database"
	"github.com/inkwell-ai/inkwell/internal/models"
	"github.com/inkwell-ai/inkwell/internal/queue"
)

type mockJournalRepo struct {
	entries   map[uuid.UUID]*models.JournalEntry
	createErr error
	created   []*models.JournalEntry
}

func newMockJournalRepo() *mockJournalRepo {
	return &mockJournalRepo{entries: make(map[uuid.UUID]*models.JournalEntry)}
}

func (m *mockJournalRepo) Create(ctx context.Context, entry *models.JournalEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, entry)
	m.entries[entry.ID] = entry
	return nil
}

func (m *mockJournalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.JournalEntry, error) {
	entry, ok := m.entries[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return entry, nil
}

func (m *mockJournalRepo) GetByUserID(ctx context.Context, userID int64, limit int) ([]*models.JournalEntry, error) {
	var out []*models.JournalEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockJournalRepo) GetAllByUserID(ctx context.Context, userID int64) ([]*models.JournalEntry, error) {
	return m.GetByUserID(ctx, userID, 0)
}

func (m *mockJournalRepo) Search(ctx context.Context, userID int64, query string, limit int) ([]*models.JournalEntry, error) {
	return nil, nil
}

func (m *mockJournalRepo) UpdateAnalysis(ctx context.Context, id uuid.UUID, sentiment models.Sentiment, topics, categories []string, modelVersion string) error {
	return nil
}

var _ database.JournalRepositoryInterface = (*mockJournalRepo)(nil)

type mockInsightRepo struct {
	insights map[uuid.UUID]*models.Insight
}

func (m *mockInsightRepo) Create(ctx context.Context, insight *models.Insight) error { return nil }

func (m *mockInsightRepo) GetByEntryID(ctx context.Context, entryID uuid.UUID) (*models.Insight, error) {
	insight, ok := m.insights[entryID]
	if !ok {
		return nil, database.ErrNotFound
	}
	return insight, nil
}

var _ database.InsightRepositoryInterface = (*mockInsightRepo)(nil)

type mockJobQueue struct {
	enqueued   []*queue.Job
	enqueueErr error
}

func (m *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

func (m *mockJobQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (m *mockJobQueue) Close() error { return nil }

func (m *mockJobQueue) HealthCheck(ctx context.Context) error { return nil }

var _ queue.JobQueue = (*mockJobQueue)(nil)

func TestJournalHandler_CreateEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		body          string
		authed        bool
		enqueueErr    error
		wantStatus    int
		wantInputType models.InputType
		wantEnqueued  int
	}{
		{
			name:          "text entry queued for analysis",
			body:          `{"content": "Today I finally shipped the migration."}`,
			authed:        true,
			wantStatus:    http.StatusCreated,
			wantInputType: models.InputTypeText,
			wantEnqueued:  1,
		},
		{
			name:          "explicit input type",
			body:          `{"content": "dictated note", "input_type": "voice"}`,
			authed:        true,
			wantStatus:    http.StatusCreated,
			wantInputType: models.InputTypeVoice,
			wantEnqueued:  1,
		},
		{
			name:       "invalid input type",
			body:       `{"content": "hello", "input_type": "carrier_pigeon"}`,
			authed:     true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty after sanitization",
			body:       "{\"content\": \" \\u0007 \"}",
			authed:     true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing content",
			body:       `{}`,
			authed:     true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unauthenticated",
			body:       `{"content": "hello"}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:          "queue failure still creates the entry",
			body:          `{"content": "resilient entry"}`,
			authed:        true,
			enqueueErr:    errors.New("broker down"),
			wantStatus:    http.StatusCreated,
			wantInputType: models.InputTypeText,
			wantEnqueued:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := newMockJournalRepo()
			jobs := &mockJobQueue{enqueueErr: tt.enqueueErr}
			handler := NewJournalHandler(repo, &mockInsightRepo{}, jobs, nil)

			var r *http.Request
			if tt.authed {
				r = authedRequest("POST", "/api/journal", tt.body)
			} else {
				r = httptest.NewRequest("POST", "/api/journal", nil)
			}
			w := httptest.NewRecorder()

			handler.CreateEntry(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body: %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if len(jobs.enqueued) != tt.wantEnqueued {
				t.Fatalf("enqueued = %d jobs, want %d", len(jobs.enqueued), tt.wantEnqueued)
			}

			if tt.wantStatus != http.StatusCreated {
				return
			}
			if len(repo.created) != 1 {
				t.Fatalf("created = %d entries, want 1", len(repo.created))
			}
			entry := repo.created[0]
			if entry.UserID != 42 {
				t.Errorf("entry user = %d, want 42", entry.UserID)
			}
			if entry.InputType != tt.wantInputType {
				t.Errorf("input type = %s, want %s", entry.InputType, tt.wantInputType)
			}
			if entry.WordCount == 0 {
				t.Error("word count not computed")
			}
			if tt.wantEnqueued == 1 {
				job := jobs.enqueued[0]
				if job.Type != queue.JobTypeEntryAnalysis {
					t.Errorf("job type = %s, want %s", job.Type, queue.JobTypeEntryAnalysis)
				}
				if job.EntryID == nil || *job.EntryID != entry.ID {
					t.Errorf("job entry ID = %v, want %s", job.EntryID, entry.ID)
				}
				if job.UserID != 42 {
					t.Errorf("job user = %d, want 42", job.UserID)
				}
			}
		})
	}
}

func TestJournalHandler_ListEntries_LimitValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"no limit", "", http.StatusOK},
		{"valid limit", "?limit=20", http.StatusOK},
		{"zero limit", "?limit=0", http.StatusBadRequest},
		{"negative limit", "?limit=-5", http.StatusBadRequest},
		{"over maximum", "?limit=501", http.StatusBadRequest},
		{"not a number", "?limit=ten", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := NewJournalHandler(newMockJournalRepo(), &mockInsightRepo{}, &mockJobQueue{}, nil)
			w := httptest.NewRecorder()
			handler.ListEntries(w, authedRequest("GET", "/api/journal"+tt.query, ""))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestJournalHandler_GetEntry_Ownership(t *testing.T) {
	t.Parallel()

	repo := newMockJournalRepo()
	mine := &models.JournalEntry{ID: uuid.New(), UserID: 42, RawContent: "mine", CreatedAt: time.Now()}
	theirs := &models.JournalEntry{ID: uuid.New(), UserID: 99, RawContent: "not mine", CreatedAt: time.Now()}
	repo.entries[mine.ID] = mine
	repo.entries[theirs.ID] = theirs

	handler := NewJournalHandler(repo, &mockInsightRepo{}, &mockJobQueue{}, nil)

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{"own entry", mine.ID.String(), http.StatusOK},
		{"someone else's entry", theirs.ID.String(), http.StatusNotFound},
		{"unknown entry", uuid.New().String(), http.StatusNotFound},
		{"malformed id", "not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := authedRequest("GET", "/api/journal/"+tt.id, "")
			r = mux.SetURLVars(r, map[string]string{"id": tt.id})
			w := httptest.NewRecorder()

			handler.GetEntry(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestJournalHandler_GetInsight(t *testing.T) {
	t.Parallel()

	repo := newMockJournalRepo()
	entry := &models.JournalEntry{ID: uuid.New(), UserID: 42}
	repo.entries[entry.ID] = entry

	insights := &mockInsightRepo{insights: map[uuid.UUID]*models.Insight{
		entry.ID: {ID: uuid.New(), EntryID: entry.ID, Summary: "a calm day"},
	}}
	handler := NewJournalHandler(repo, insights, &mockJobQueue{}, nil)

	r := authedRequest("GET", "/api/journal/"+entry.ID.String()+"/insight", "")
	r = mux.SetURLVars(r, map[string]string{"id": entry.ID.String()})
	w := httptest.NewRecorder()
	handler.GetInsight(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool           `json:"success"`
		Data    models.Insight `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.Data.Summary != "a calm day" {
		t.Errorf("unexpected response: %+v", resp)
	}

	// An analyzed entry without a stored insight is a 404, not a server error.
	pending := &models.JournalEntry{ID: uuid.New(), UserID: 42}
	repo.entries[pending.ID] = pending
	r = authedRequest("GET", "/api/journal/"+pending.ID.String()+"/insight", "")
	r = mux.SetURLVars(r, map[string]string{"id": pending.ID.String()})
	w = httptest.NewRecorder()
	handler.GetInsight(w, r)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestJournalHandler_ReanalyzeAll(t *testing.T) {
	t.Parallel()

	jobs := &mockJobQueue{}
	handler := NewJournalHandler(newMockJournalRepo(), &mockInsightRepo{}, jobs, nil)

	w := httptest.NewRecorder()
	handler.ReanalyzeAll(w, authedRequest("POST", "/api/journal/reanalyze", ""))

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body: %s)", w.Code, w.Body.String())
	}
	if len(jobs.enqueued) != 1 {
		t.Fatalf("enqueued = %d jobs, want 1", len(jobs.enqueued))
	}
	job := jobs.enqueued[0]
	if job.Type != queue.JobTypeReanalyzeUser || job.UserID != 42 || job.EntryID != nil {
		t.Errorf("unexpected job: %+v", job)
	}
}

func TestJournalHandler_ExportEntries(t *testing.T) {
	t.Parallel()

	repo := newMockJournalRepo()
	entry := &models.JournalEntry{
		ID:         uuid.New(),
		UserID:     42,
		RawContent: "walked along the river today",
		InputType:  models.InputTypeText,
		CreatedAt:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
	repo.entries[entry.ID] = entry
	handler := NewJournalHandler(repo, &mockInsightRepo{}, &mockJobQueue{}, nil)

	w := httptest.NewRecorder()
	handler.ExportEntries(w, authedRequest("GET", "/api/journal/export", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", got)
	}
	if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, "journal_export_42.txt") {
		t.Errorf("Content-Disposition = %q, want filename journal_export_42.txt", got)
	}
	body := w.Body.String()
	if !strings.Contains(body, "--- Entry on 2026-03-14 at 09:30:00 (Input Type: text) ---") {
		t.Errorf("body missing entry header: %q", body)
	}
	if !strings.Contains(body, "walked along the river today") {
		t.Errorf("body missing entry content: %q", body)
	}
}

func TestJournalHandler_ExportEntries_Empty(t *testing.T) {
	t.Parallel()

	handler := NewJournalHandler(newMockJournalRepo(), &mockInsightRepo{}, &mockJobQueue{}, nil)

	w := httptest.NewRecorder()
	handler.ExportEntries(w, authedRequest("GET", "/api/journal/export", ""))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
