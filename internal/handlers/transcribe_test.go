package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inkwell-ai/inkwell/internal/services/ai"
)

// taskGenerator routes each task type to its own canned outcome so the
// transcription and punctuation passes can be controlled independently.
type taskGenerator struct {
	outcomes map[ai.TaskType]ai.Outcome
	calls    []ai.TaskType
}

func (g *taskGenerator) Generate(ctx context.Context, parts []ai.Part, task ai.TaskType, opts ai.GenerateOptions, call ai.CallContext) ai.Outcome {
	g.calls = append(g.calls, task)
	return g.outcomes[task]
}

var _ ai.Generator = (*taskGenerator)(nil)

func TestTranscribeHandler_Transcribe(t *testing.T) {
	t.Parallel()

	audio := base64.StdEncoding.EncodeToString([]byte("fake audio bytes"))
	goodBody := `{"audio_base64": "` + audio + `", "mime_type": "audio/ogg"}`

	tests := []struct {
		name        string
		body        string
		outcomes    map[ai.TaskType]ai.Outcome
		wantStatus  int
		wantText    string
		wantRawText string
		wantCalls   int
	}{
		{
			name: "punctuation applied",
			body: goodBody,
			outcomes: map[ai.TaskType]ai.Outcome{
				ai.TaskTranscription: {Kind: ai.OutcomeSuccess, Text: "today i went hiking", Model: "transcribe-model"},
				ai.TaskPunctuation:   {Kind: ai.OutcomeSuccess, Text: "Today I went hiking."},
			},
			wantStatus:  http.StatusOK,
			wantText:    "Today I went hiking.",
			wantRawText: "today i went hiking",
			wantCalls:   2,
		},
		{
			name: "punctuation failure falls back to raw transcript",
			body: goodBody,
			outcomes: map[ai.TaskType]ai.Outcome{
				ai.TaskTranscription: {Kind: ai.OutcomeSuccess, Text: "today i went hiking", Model: "transcribe-model"},
				ai.TaskPunctuation:   {Kind: ai.OutcomeError, ErrKind: ai.ErrRateLimitExceeded},
			},
			wantStatus:  http.StatusOK,
			wantText:    "today i went hiking",
			wantRawText: "today i went hiking",
			wantCalls:   2,
		},
		{
			name: "empty punctuation result falls back to raw transcript",
			body: goodBody,
			outcomes: map[ai.TaskType]ai.Outcome{
				ai.TaskTranscription: {Kind: ai.OutcomeSuccess, Text: "today i went hiking", Model: "transcribe-model"},
				ai.TaskPunctuation:   {Kind: ai.OutcomeSuccess, Text: "   "},
			},
			wantStatus:  http.StatusOK,
			wantText:    "today i went hiking",
			wantRawText: "today i went hiking",
			wantCalls:   2,
		},
		{
			name: "no speech",
			body: goodBody,
			outcomes: map[ai.TaskType]ai.Outcome{
				ai.TaskTranscription: {Kind: ai.OutcomeNoContent},
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCalls:  1,
		},
		{
			name: "transcription rate limited",
			body: goodBody,
			outcomes: map[ai.TaskType]ai.Outcome{
				ai.TaskTranscription: {Kind: ai.OutcomeError, ErrKind: ai.ErrRateLimitExceeded},
			},
			wantStatus: http.StatusTooManyRequests,
			wantCalls:  1,
		},
		{
			name:       "unsupported media type",
			body:       `{"audio_base64": "` + audio + `", "mime_type": "audio/flac"}`,
			wantStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:       "invalid base64",
			body:       `{"audio_base64": "%%%", "mime_type": "audio/ogg"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := &taskGenerator{outcomes: tt.outcomes}
			handler := NewTranscribeHandler(gen, &stubPromptRepo{}, newMockJournalRepo(), &mockJobQueue{}, nil)

			w := httptest.NewRecorder()
			handler.Transcribe(w, authedRequest("POST", "/api/transcribe", tt.body))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body: %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if len(gen.calls) != tt.wantCalls {
				t.Fatalf("generator calls = %v, want %d", gen.calls, tt.wantCalls)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp struct {
				Data TranscribeResponse `json:"data"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Data.Text != tt.wantText {
				t.Errorf("text = %q, want %q", resp.Data.Text, tt.wantText)
			}
			if resp.Data.RawText != tt.wantRawText {
				t.Errorf("raw text = %q, want %q", resp.Data.RawText, tt.wantRawText)
			}
			if resp.Data.Model != "transcribe-model" {
				t.Errorf("model = %q", resp.Data.Model)
			}
		})
	}
}

func TestTranscribeHandler_SaveUsesFormattedText(t *testing.T) {
	t.Parallel()

	audio := base64.StdEncoding.EncodeToString([]byte("fake audio bytes"))
	gen := &taskGenerator{outcomes: map[ai.TaskType]ai.Outcome{
		ai.TaskTranscription: {Kind: ai.OutcomeSuccess, Text: "long day but a good one", Model: "transcribe-model"},
		ai.TaskPunctuation:   {Kind: ai.OutcomeSuccess, Text: "Long day, but a good one."},
	}}
	repo := newMockJournalRepo()
	jobs := &mockJobQueue{}
	handler := NewTranscribeHandler(gen, &stubPromptRepo{}, repo, jobs, nil)

	body := `{"audio_base64": "` + audio + `", "mime_type": "audio/ogg", "save": true}`
	w := httptest.NewRecorder()
	handler.Transcribe(w, authedRequest("POST", "/api/transcribe", body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body: %s)", w.Code, w.Body.String())
	}
	if len(repo.created) != 1 {
		t.Fatalf("created = %d entries, want 1", len(repo.created))
	}
	if got := repo.created[0].RawContent; got != "Long day, but a good one." {
		t.Errorf("saved content = %q, want the punctuated transcript", got)
	}
	if len(jobs.enqueued) != 1 {
		t.Errorf("enqueued = %d jobs, want 1", len(jobs.enqueued))
	}
}
