package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/inkwell-ai/inkwell/internal/database"
	"github.com/inkwell-ai/inkwell/internal/models"
	"github.com/inkwell-ai/inkwell/internal/prompts"
	"github.com/inkwell-ai/inkwell/internal/queue"
	"github.com/inkwell-ai/inkwell/internal/request"
	"github.com/inkwell-ai/inkwell/internal/services/ai"
	"github.com/inkwell-ai/inkwell/internal/validation"
	"go.uber.org/zap"
)

var allowedAudioTypes = map[string]bool{
	"audio/ogg":  true,
	"audio/mpeg": true,
	"audio/mp3":  true,
	"audio/wav":  true,
}

// TranscribeHandler turns voice notes into formatted text
type TranscribeHandler struct {
	generator   ai.Generator
	promptRepo  database.PromptRepositoryInterface
	journalRepo database.JournalRepositoryInterface
	jobQueue    queue.JobQueue
	logger      *zap.Logger
}

// NewTranscribeHandler creates a new transcription handler
func NewTranscribeHandler(generator ai.Generator, promptRepo database.PromptRepositoryInterface, journalRepo database.JournalRepositoryInterface, jobQueue queue.JobQueue, logger *zap.Logger) *TranscribeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscribeHandler{
		generator:   generator,
		promptRepo:  promptRepo,
		journalRepo: journalRepo,
		jobQueue:    jobQueue,
		logger:      logger,
	}
}

// RegisterRoutes registers transcription routes
func (h *TranscribeHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/transcribe", h.Transcribe).Methods("POST")
}

// TranscribeRequest carries a base64-encoded voice note
type TranscribeRequest struct {
	AudioBase64 string `json:"audio_base64" validate:"required"`
	MIMEType    string `json:"mime_type" validate:"required"`
	// Save stores the transcript as a journal entry and queues analysis.
	Save bool `json:"save,omitempty"`
}

// TranscribeResponse is the formatted transcript
type TranscribeResponse struct {
	Text string `json:"text"`
	// RawText is the transcript before punctuation restoration. It equals
	// Text when the punctuation pass failed and the raw transcript was used.
	RawText string     `json:"raw_text"`
	Model   string     `json:"model,omitempty"`
	EntryID *uuid.UUID `json:"entry_id,omitempty"`
}

// Transcribe converts a voice note to text, then restores punctuation.
func (h *TranscribeHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req TranscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	if !allowedAudioTypes[req.MIMEType] {
		respondJSONError(w, http.StatusUnsupportedMediaType, "Unsupported Media Type", "mime_type must be audio/ogg, audio/mpeg, audio/mp3 or audio/wav")
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "audio_base64 is not valid base64")
		return
	}

	ctx := r.Context()
	call := ai.CallContext{UserID: user.ID, Mode: "transcription"}

	prompt, err := h.promptRepo.Get(ctx, prompts.IDTranscription)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load transcription prompt")
		return
	}

	parts := []ai.Part{
		ai.TextPart(prompt),
		ai.MediaPart(req.MIMEType, data),
	}

	outcome := h.generator.Generate(ctx, parts, ai.TaskTranscription, ai.GenerateOptions{}, call)

	switch outcome.Kind {
	case ai.OutcomeSuccess:
	case ai.OutcomeNoContent:
		respondJSONError(w, http.StatusUnprocessableEntity, "No Speech Found", "The audio contained no recognizable speech")
		return
	default:
		respondOutcomeError(w, outcome)
		return
	}

	rawText := outcome.Text
	text := h.restorePunctuation(ctx, rawText, call)

	resp := TranscribeResponse{Text: text, RawText: rawText, Model: outcome.Model}

	if req.Save {
		entry := &models.JournalEntry{
			ID:         uuid.New(),
			UserID:     user.ID,
			RawContent: text,
			InputType:  models.InputTypeVoice,
			WordCount:  models.CountWords(text),
		}
		if err := h.journalRepo.Create(ctx, entry); err != nil {
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save entry")
			return
		}
		job := queue.NewJob(queue.JobTypeEntryAnalysis, user.ID, &entry.ID)
		if err := h.jobQueue.Enqueue(ctx, job); err != nil {
			h.logger.Error("enqueue_analysis_failed",
				zap.String("entry_id", entry.ID.String()),
				zap.Error(err),
			)
		}
		resp.EntryID = &entry.ID
	}

	respondJSON(w, http.StatusOK, resp)
}

// restorePunctuation runs the punctuation pass over a raw transcript. Any
// failure falls back to the raw transcript; a rough transcript beats an
// error.
func (h *TranscribeHandler) restorePunctuation(ctx context.Context, rawText string, call ai.CallContext) string {
	tpl, err := h.promptRepo.Get(ctx, prompts.IDPunctuation)
	if err != nil {
		h.logger.Warn("punctuation_prompt_unavailable", zap.Error(err))
		return rawText
	}

	outcome := h.generator.Generate(ctx,
		[]ai.Part{ai.TextPart(fmt.Sprintf(tpl, rawText))},
		ai.TaskPunctuation,
		ai.GenerateOptions{},
		call,
	)
	if outcome.Kind != ai.OutcomeSuccess {
		h.logger.Warn("punctuation_pass_failed", zap.Int("outcome_kind", int(outcome.Kind)))
		return rawText
	}

	cleaned := validation.SanitizeText(outcome.Text)
	if cleaned == "" {
		return rawText
	}
	return cleaned
}
