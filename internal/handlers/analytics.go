package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/inkwell-ai/inkwell/internal/database"
	"github.com/inkwell-ai/inkwell/internal/prompts"
	"github.com/inkwell-ai/inkwell/internal/request"
	"github.com/inkwell-ai/inkwell/internal/services/ai"
)

// AnalyticsHandler answers aggregate questions about a user's journaling
type AnalyticsHandler struct {
	analyticsRepo database.AnalyticsRepositoryInterface
	promptRepo    database.PromptRepositoryInterface
	generator     ai.Generator
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsRepo database.AnalyticsRepositoryInterface, promptRepo database.PromptRepositoryInterface, generator ai.Generator) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsRepo: analyticsRepo,
		promptRepo:    promptRepo,
		generator:     generator,
	}
}

// RegisterRoutes registers analytics routes
func (h *AnalyticsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/analytics", h.GetAnalytics).Methods("GET")
}

// AnalyticsResponse aggregates journaling statistics over a window
type AnalyticsResponse struct {
	Days       int                       `json:"days"`
	Entries    int64                     `json:"entries"`
	Sentiments []database.SentimentCount `json:"sentiments"`
	TopTopics  []database.TopicCount     `json:"top_topics"`
	WordTrend  []database.DailyWordCount `json:"word_trend"`
	// Narrative is a model-written summary, present when requested and
	// available.
	Narrative string `json:"narrative,omitempty"`
}

// GetAnalytics returns aggregates for the requested window, with an
// optional model-written narrative summary.
func (h *AnalyticsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	days := 30
	if rawDays := r.URL.Query().Get("days"); rawDays != "" {
		parsed, err := strconv.Atoi(rawDays)
		if err != nil || parsed < 1 || parsed > 365 {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "days must be an integer between 1 and 365")
			return
		}
		days = parsed
	}

	ctx := r.Context()
	since := time.Now().AddDate(0, 0, -days)

	entries, err := h.analyticsRepo.EntryCount(ctx, user.ID, since)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to compute analytics")
		return
	}
	sentiments, err := h.analyticsRepo.SentimentDistribution(ctx, user.ID, since)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to compute analytics")
		return
	}
	topics, err := h.analyticsRepo.TopTopics(ctx, user.ID, since, 10)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to compute analytics")
		return
	}
	trend, err := h.analyticsRepo.WordCountTrend(ctx, user.ID, since)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to compute analytics")
		return
	}

	resp := AnalyticsResponse{
		Days:       days,
		Entries:    entries,
		Sentiments: sentiments,
		TopTopics:  topics,
		WordTrend:  trend,
	}

	if r.URL.Query().Get("narrative") == "true" && entries > 0 {
		resp.Narrative = h.narrative(r, user.ID, resp)
	}

	respondJSON(w, http.StatusOK, resp)
}

// narrative asks a model to summarize the aggregates. Failures degrade to
// the plain numbers; the endpoint never errors because of the narrative.
func (h *AnalyticsHandler) narrative(r *http.Request, userID int64, stats AnalyticsResponse) string {
	ctx := r.Context()

	tpl, err := h.promptRepo.Get(ctx, prompts.IDAnalytics)
	if err != nil {
		return ""
	}

	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return ""
	}

	outcome := h.generator.Generate(ctx,
		[]ai.Part{ai.TextPart(fmt.Sprintf(tpl, statsJSON))},
		ai.TaskAnalytics,
		ai.GenerateOptions{},
		ai.CallContext{UserID: userID, Mode: "analytics"},
	)
	if outcome.Kind != ai.OutcomeSuccess {
		return ""
	}
	return outcome.Text
}
