package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/inkwell-ai/inkwell/internal/database"
	"github.com/inkwell-ai/inkwell/internal/models"
	"github.com/inkwell-ai/inkwell/internal/queue"
	"github.com/inkwell-ai/inkwell/internal/request"
	"github.com/inkwell-ai/inkwell/internal/validation"
	"go.uber.org/zap"
)

// MaxEntryLength caps a journal entry after sanitization.
const MaxEntryLength = 50000

// JournalHandler handles journal entry requests
type JournalHandler struct {
	journalRepo database.JournalRepositoryInterface
	insightRepo database.InsightRepositoryInterface
	jobQueue    queue.JobQueue
	logger      *zap.Logger
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(journalRepo database.JournalRepositoryInterface, insightRepo database.InsightRepositoryInterface, jobQueue queue.JobQueue, logger *zap.Logger) *JournalHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalHandler{
		journalRepo: journalRepo,
		insightRepo: insightRepo,
		jobQueue:    jobQueue,
		logger:      logger,
	}
}

// RegisterRoutes registers journal routes
func (h *JournalHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/journal", h.CreateEntry).Methods("POST")
	r.HandleFunc("/journal", h.ListEntries).Methods("GET")
	r.HandleFunc("/journal/search", h.SearchEntries).Methods("GET")
	r.HandleFunc("/journal/export", h.ExportEntries).Methods("GET")
	r.HandleFunc("/journal/{id}", h.GetEntry).Methods("GET")
	r.HandleFunc("/journal/{id}/insight", h.GetInsight).Methods("GET")
	r.HandleFunc("/journal/reanalyze", h.ReanalyzeAll).Methods("POST")
}

// CreateEntryRequest represents a new journal entry
type CreateEntryRequest struct {
	Content   string `json:"content" validate:"required"`
	InputType string `json:"input_type,omitempty" validate:"omitempty,input_type"`
}

// CreateEntry stores a journal entry and queues it for analysis.
func (h *JournalHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateEntryRequest
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

	req.Content = validation.SanitizeText(req.Content)
	if req.Content == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Content is required and cannot be empty after sanitization")
		return
	}
	if len(req.Content) > MaxEntryLength {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Content exceeds maximum length of %d characters", MaxEntryLength))
		return
	}

	inputType := models.InputTypeText
	if req.InputType != "" {
		inputType = models.InputType(req.InputType)
	}

	ctx := r.Context()
	entry := &models.JournalEntry{
		ID:         uuid.New(),
		UserID:     user.ID,
		RawContent: req.Content,
		InputType:  inputType,
		WordCount:  models.CountWords(req.Content),
	}

	if err := h.journalRepo.Create(ctx, entry); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create entry")
		return
	}

	// Analysis runs out of band; a queue failure leaves the entry pending
	// rather than failing the write.
	job := queue.NewJob(queue.JobTypeEntryAnalysis, user.ID, &entry.ID)
	if err := h.jobQueue.Enqueue(ctx, job); err != nil {
		h.logger.Error("enqueue_analysis_failed",
			zap.String("entry_id", entry.ID.String()),
			zap.Error(err),
		)
	}

	respondJSON(w, http.StatusCreated, entry)
}

// ListEntries returns the user's most recent entries.
func (h *JournalHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	limit := 0
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 1 || parsed > 500 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "limit must be an integer between 1 and 500")
			return
		}
		limit = parsed
	}

	entries, err := h.journalRepo.GetByUserID(r.Context(), user.ID, limit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve entries")
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// SearchEntries searches the user's entries by content.
func (h *JournalHandler) SearchEntries(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	query := validation.SanitizeText(r.URL.Query().Get("q"))
	if query == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Query parameter q is required")
		return
	}

	entries, err := h.journalRepo.Search(r.Context(), user.ID, query, 0)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Search failed")
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// ExportEntries returns the user's full journal as a plain-text download,
// oldest entry first.
func (h *JournalHandler) ExportEntries(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	entries, err := h.journalRepo.GetAllByUserID(r.Context(), user.ID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Export failed")
		return
	}
	if len(entries) == 0 {
		respondJSONError(w, http.StatusNotFound, "Not Found", "No journal entries to export yet")
		return
	}

	var b strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&b, "--- Entry on %s at %s (Input Type: %s) ---\n",
			entry.CreatedAt.Format("2006-01-02"),
			entry.CreatedAt.Format("15:04:05"),
			entry.InputType,
		)
		b.WriteString(entry.RawContent)
		b.WriteString("\n\n")
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("journal_export_%d.txt", user.ID)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}

// GetEntry retrieves one entry by ID.
func (h *JournalHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	entry, ok := h.loadOwnedEntry(w, r, user.ID)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, entry)
}

// GetInsight retrieves the latest insight for an entry.
func (h *JournalHandler) GetInsight(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	entry, ok := h.loadOwnedEntry(w, r, user.ID)
	if !ok {
		return
	}

	insight, err := h.insightRepo.GetByEntryID(r.Context(), entry.ID)
	if err == database.ErrNotFound {
		respondJSONError(w, http.StatusNotFound, "Not Found", "No insight for this entry yet")
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve insight")
		return
	}

	respondJSON(w, http.StatusOK, insight)
}

// ReanalyzeAll queues a re-analysis of the user's entries.
func (h *JournalHandler) ReanalyzeAll(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	job := queue.NewJob(queue.JobTypeReanalyzeUser, user.ID, nil)
	if err := h.jobQueue.Enqueue(r.Context(), job); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to queue re-analysis")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]any{"job_id": job.ID})
}

// loadOwnedEntry parses the entry ID from the route, loads it and verifies
// ownership, writing the error response itself on failure.
func (h *JournalHandler) loadOwnedEntry(w http.ResponseWriter, r *http.Request, userID int64) (*models.JournalEntry, bool) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid entry ID")
		return nil, false
	}

	entry, err := h.journalRepo.GetByID(r.Context(), id)
	if err != nil || entry.UserID != userID {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Entry not found")
		return nil, false
	}

	return entry, true
}
