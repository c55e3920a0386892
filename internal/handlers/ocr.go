package handlers

import (
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

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// OCRHandler extracts text from photographed journal pages
type OCRHandler struct {
	generator   ai.Generator
	promptRepo  database.PromptRepositoryInterface
	journalRepo database.JournalRepositoryInterface
	jobQueue    queue.JobQueue
	logger      *zap.Logger
}

// NewOCRHandler creates a new OCR handler
func NewOCRHandler(generator ai.Generator, promptRepo database.PromptRepositoryInterface, journalRepo database.JournalRepositoryInterface, jobQueue queue.JobQueue, logger *zap.Logger) *OCRHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OCRHandler{
		generator:   generator,
		promptRepo:  promptRepo,
		journalRepo: journalRepo,
		jobQueue:    jobQueue,
		logger:      logger,
	}
}

// RegisterRoutes registers OCR routes
func (h *OCRHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ocr", h.ExtractText).Methods("POST")
}

// OCRRequest carries a base64-encoded image
type OCRRequest struct {
	ImageBase64 string `json:"image_base64" validate:"required"`
	MIMEType    string `json:"mime_type" validate:"required"`
	// Save stores the extracted text as a journal entry and queues analysis.
	Save bool `json:"save,omitempty"`
}

// OCRResponse is the extracted text
type OCRResponse struct {
	Text    string     `json:"text"`
	Model   string     `json:"model,omitempty"`
	EntryID *uuid.UUID `json:"entry_id,omitempty"`
}

// ExtractText runs OCR over an uploaded image.
func (h *OCRHandler) ExtractText(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req OCRRequest
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

	if !allowedImageTypes[req.MIMEType] {
		respondJSONError(w, http.StatusUnsupportedMediaType, "Unsupported Media Type", "mime_type must be image/jpeg, image/png or image/webp")
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "image_base64 is not valid base64")
		return
	}

	ctx := r.Context()

	prompt, err := h.promptRepo.Get(ctx, prompts.IDOCR)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load OCR prompt")
		return
	}

	parts := []ai.Part{
		ai.TextPart(prompt),
		ai.MediaPart(req.MIMEType, data),
	}

	outcome := h.generator.Generate(ctx, parts, ai.TaskOCR,
		ai.GenerateOptions{},
		ai.CallContext{UserID: user.ID, Mode: "ocr"},
	)

	switch outcome.Kind {
	case ai.OutcomeSuccess:
	case ai.OutcomeNoContent:
		respondJSONError(w, http.StatusUnprocessableEntity, "No Text Found", "The image contained no recognizable text")
		return
	default:
		respondOutcomeError(w, outcome)
		return
	}

	resp := OCRResponse{Text: outcome.Text, Model: outcome.Model}

	if req.Save {
		entry := &models.JournalEntry{
			ID:         uuid.New(),
			UserID:     user.ID,
			RawContent: outcome.Text,
			InputType:  models.InputTypePhoto,
			WordCount:  models.CountWords(outcome.Text),
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
