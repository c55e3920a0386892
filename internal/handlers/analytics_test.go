package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inkwell-ai/inkwell/internal/database"
	"github.com/inkwell-ai/inkwell/internal/services/ai"
)

type mockAnalyticsRepo struct {
	entries    int64
	sentiments []database.SentimentCount
	topics     []database.TopicCount
	trend      []database.DailyWordCount
	err        error
}

func (m *mockAnalyticsRepo) SentimentDistribution(ctx context.Context, userID int64, since time.Time) ([]database.SentimentCount, error) {
	return m.sentiments, m.err
}

func (m *mockAnalyticsRepo) TopTopics(ctx context.Context, userID int64, since time.Time, limit int) ([]database.TopicCount, error) {
	return m.topics, m.err
}

func (m *mockAnalyticsRepo) WordCountTrend(ctx context.Context, userID int64, since time.Time) ([]database.DailyWordCount, error) {
	return m.trend, m.err
}

func (m *mockAnalyticsRepo) EntryCount(ctx context.Context, userID int64, since time.Time) (int64, error) {
	return m.entries, m.err
}

var _ database.AnalyticsRepositoryInterface = (*mockAnalyticsRepo)(nil)

func TestAnalyticsHandler_GetAnalytics(t *testing.T) {
	t.Parallel()

	repo := &mockAnalyticsRepo{
		entries:    12,
		sentiments: []database.SentimentCount{{Sentiment: "positive", Count: 8}, {Sentiment: "neutral", Count: 4}},
		topics:     []database.TopicCount{{Topic: "work", Count: 5}},
	}
	handler := NewAnalyticsHandler(repo, &stubPromptRepo{}, &stubGenerator{})

	w := httptest.NewRecorder()
	handler.GetAnalytics(w, authedRequest("GET", "/api/analytics?days=7", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body: %s)", w.Code, w.Body.String())
	}

	var resp struct {
		Data AnalyticsResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.Days != 7 || resp.Data.Entries != 12 {
		t.Errorf("days = %d entries = %d", resp.Data.Days, resp.Data.Entries)
	}
	if len(resp.Data.Sentiments) != 2 || len(resp.Data.TopTopics) != 1 {
		t.Errorf("unexpected aggregates: %+v", resp.Data)
	}
	if resp.Data.Narrative != "" {
		t.Error("narrative should be absent unless requested")
	}
}

func TestAnalyticsHandler_DaysValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"default", "", http.StatusOK},
		{"minimum", "?days=1", http.StatusOK},
		{"maximum", "?days=365", http.StatusOK},
		{"zero", "?days=0", http.StatusBadRequest},
		{"too large", "?days=366", http.StatusBadRequest},
		{"not a number", "?days=week", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := NewAnalyticsHandler(&mockAnalyticsRepo{}, &stubPromptRepo{}, &stubGenerator{})
			w := httptest.NewRecorder()
			handler.GetAnalytics(w, authedRequest("GET", "/api/analytics"+tt.query, ""))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestAnalyticsHandler_Narrative(t *testing.T) {
	t.Parallel()

	t.Run("included on success", func(t *testing.T) {
		t.Parallel()

		gen := &stubGenerator{outcome: ai.Outcome{Kind: ai.OutcomeSuccess, Text: "A steady, upbeat week."}}
		handler := NewAnalyticsHandler(&mockAnalyticsRepo{entries: 3}, &stubPromptRepo{}, gen)

		w := httptest.NewRecorder()
		handler.GetAnalytics(w, authedRequest("GET", "/api/analytics?narrative=true", ""))

		var resp struct {
			Data AnalyticsResponse `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Data.Narrative != "A steady, upbeat week." {
			t.Errorf("narrative = %q", resp.Data.Narrative)
		}
		if gen.lastTask != ai.TaskAnalytics {
			t.Errorf("task = %s, want analytics", gen.lastTask)
		}
	})

	t.Run("generation failure degrades to plain numbers", func(t *testing.T) {
		t.Parallel()

		gen := &stubGenerator{outcome: ai.Outcome{Kind: ai.OutcomeError, ErrKind: ai.ErrRateLimitExceeded}}
		handler := NewAnalyticsHandler(&mockAnalyticsRepo{entries: 3}, &stubPromptRepo{}, gen)

		w := httptest.NewRecorder()
		handler.GetAnalytics(w, authedRequest("GET", "/api/analytics?narrative=true", ""))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 despite narrative failure", w.Code)
		}
		var resp struct {
			Data AnalyticsResponse `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Data.Narrative != "" {
			t.Errorf("narrative = %q, want empty", resp.Data.Narrative)
		}
	})

	t.Run("skipped when no entries", func(t *testing.T) {
		t.Parallel()

		gen := &stubGenerator{outcome: ai.Outcome{Kind: ai.OutcomeSuccess, Text: "should not be asked"}}
		handler := NewAnalyticsHandler(&mockAnalyticsRepo{entries: 0}, &stubPromptRepo{}, gen)

		w := httptest.NewRecorder()
		handler.GetAnalytics(w, authedRequest("GET", "/api/analytics?narrative=true", ""))

		var resp struct {
			Data AnalyticsResponse `json:"data"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Data.Narrative != "" {
			t.Error("narrative should be skipped for an empty window")
		}
		if gen.lastTask != "" {
			t.Errorf("generator should not be called, got task %s", gen.lastTask)
		}
	})
}

func TestAnalyticsHandler_RepoError(t *testing.T) {
	t.Parallel()

	handler := NewAnalyticsHandler(&mockAnalyticsRepo{err: errors.New("db down")}, &stubPromptRepo{}, &stubGenerator{})
	w := httptest.NewRecorder()
	handler.GetAnalytics(w, authedRequest("GET", "/api/analytics", ""))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
