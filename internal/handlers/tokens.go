package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/inkwell-ai/inkwell/internal/database"
	"github.com/inkwell-ai/inkwell/internal/request"
	"github.com/inkwell-ai/inkwell/internal/services/ai"
)

// TokensHandler reports a user's token consumption
type TokensHandler struct {
	ledger    *ai.Ledger
	usageRepo *database.UsageRepository
}

// NewTokensHandler creates a new tokens handler. The usage repository may be
// nil, which disables the history endpoint.
func NewTokensHandler(ledger *ai.Ledger, usageRepo *database.UsageRepository) *TokensHandler {
	return &TokensHandler{ledger: ledger, usageRepo: usageRepo}
}

// RegisterRoutes registers token usage routes
func (h *TokensHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/tokens", h.GetUsage).Methods("GET")
	r.HandleFunc("/tokens/history", h.GetHistory).Methods("GET")
}

// TokenUsageResponse summarizes token consumption
type TokenUsageResponse struct {
	Date          string `json:"date"`
	DailyTokens   int64  `json:"daily_tokens"`
	TotalTokens   int64  `json:"total_tokens"`
	SessionTokens int64  `json:"session_tokens"`
}

// GetUsage returns the caller's daily, all-time and session token totals.
func (h *TokensHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	date := time.Now().Format("2006-01-02")
	summary, err := h.ledger.Summary(r.Context(), user.ID, date)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve token usage")
		return
	}

	respondJSON(w, http.StatusOK, TokenUsageResponse{
		Date:          date,
		DailyTokens:   summary.DailyTokens,
		TotalTokens:   summary.TotalTokens,
		SessionTokens: summary.SessionTokens,
	})
}

// GetHistory returns the caller's newest usage rows, one per generation call.
func (h *TokensHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}
	if h.usageRepo == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Usage history is not available")
		return
	}

	limit := 0
	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 1 || parsed > 200 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "limit must be an integer between 1 and 200")
			return
		}
		limit = parsed
	}

	records, err := h.usageRepo.RecentUsage(r.Context(), user.ID, limit)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve usage history")
		return
	}

	respondJSON(w, http.StatusOK, records)
}
