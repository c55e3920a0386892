package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inkwell-ai/inkwell/internal/models"
	"github.com/inkwell-ai/inkwell/internal/services/ai"
)

func TestOCRHandler_ExtractText(t *testing.T) {
	t.Parallel()

	image := base64.StdEncoding.EncodeToString([]byte("fake image bytes"))

	tests := []struct {
		name       string
		body       string
		outcome    ai.Outcome
		wantStatus int
	}{
		{
			name:       "success",
			body:       `{"image_base64": "` + image + `", "mime_type": "image/jpeg"}`,
			outcome:    ai.Outcome{Kind: ai.OutcomeSuccess, Text: "Dear diary", Model: "ocr-model"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unsupported media type",
			body:       `{"image_base64": "` + image + `", "mime_type": "image/tiff"}`,
			wantStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:       "invalid base64",
			body:       `{"image_base64": "not-base64!!!", "mime_type": "image/png"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing mime type",
			body:       `{"image_base64": "` + image + `"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no text in image",
			body:       `{"image_base64": "` + image + `", "mime_type": "image/png"}`,
			outcome:    ai.Outcome{Kind: ai.OutcomeNoContent},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "blocked image",
			body:       `{"image_base64": "` + image + `", "mime_type": "image/png"}`,
			outcome:    ai.Outcome{Kind: ai.OutcomeBlocked, BlockReason: "safety"},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := &stubGenerator{outcome: tt.outcome}
			handler := NewOCRHandler(gen, &stubPromptRepo{}, newMockJournalRepo(), &mockJobQueue{}, nil)

			w := httptest.NewRecorder()
			handler.ExtractText(w, authedRequest("POST", "/api/ocr", tt.body))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body: %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if gen.lastTask != ai.TaskOCR {
				t.Errorf("task = %s, want ocr", gen.lastTask)
			}
			if len(gen.parts) != 2 || gen.parts[1].MIMEType != "image/jpeg" {
				t.Errorf("expected prompt + media part, got %+v", gen.parts)
			}

			var resp struct {
				Data OCRResponse `json:"data"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Data.Text != "Dear diary" || resp.Data.Model != "ocr-model" {
				t.Errorf("unexpected response: %+v", resp.Data)
			}
			if resp.Data.EntryID != nil {
				t.Error("entry should not be saved without save flag")
			}
		})
	}
}

func TestOCRHandler_SaveCreatesEntryAndJob(t *testing.T) {
	t.Parallel()

	image := base64.StdEncoding.EncodeToString([]byte("fake image bytes"))
	gen := &stubGenerator{outcome: ai.Outcome{Kind: ai.OutcomeSuccess, Text: "Dear diary, today was bright.", Model: "ocr-model"}}
	repo := newMockJournalRepo()
	jobs := &mockJobQueue{}
	handler := NewOCRHandler(gen, &stubPromptRepo{}, repo, jobs, nil)

	body := `{"image_base64": "` + image + `", "mime_type": "image/jpeg", "save": true}`
	w := httptest.NewRecorder()
	handler.ExtractText(w, authedRequest("POST", "/api/ocr", body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d (body: %s)", w.Code, w.Body.String())
	}
	if len(repo.created) != 1 {
		t.Fatalf("created = %d entries, want 1", len(repo.created))
	}
	entry := repo.created[0]
	if entry.InputType != models.InputTypePhoto {
		t.Errorf("input type = %s, want photo", entry.InputType)
	}
	if entry.RawContent != "Dear diary, today was bright." {
		t.Errorf("content = %q", entry.RawContent)
	}
	if len(jobs.enqueued) != 1 {
		t.Fatalf("enqueued = %d jobs, want 1", len(jobs.enqueued))
	}
	if jobs.enqueued[0].EntryID == nil || *jobs.enqueued[0].EntryID != entry.ID {
		t.Errorf("job entry ID = %v, want %s", jobs.enqueued[0].EntryID, entry.ID)
	}

	var resp struct {
		Data OCRResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.EntryID == nil || *resp.Data.EntryID != entry.ID {
		t.Errorf("response entry ID = %v, want %s", resp.Data.EntryID, entry.ID)
	}
}
