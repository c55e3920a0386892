package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/inkwell-ai/inkwell/internal/services/ai"
)

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage removes internal details from error messages
func sanitizeErrorMessage(message string) string {
	sanitized := message
	if len(sanitized) > 200 {
		sanitized = sanitized[:200] + "..."
	}
	return sanitized
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondOutcomeError maps a failed generation outcome onto an HTTP error.
// Callers handle OutcomeSuccess and OutcomeNoContent themselves.
func respondOutcomeError(w http.ResponseWriter, outcome ai.Outcome) {
	switch outcome.Kind {
	case ai.OutcomeBlocked:
		respondJSONError(w, http.StatusUnprocessableEntity, "Content Blocked",
			"The request was declined by the content safety layer")
	case ai.OutcomeError:
		switch outcome.ErrKind {
		case ai.ErrServiceUnavailable:
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable",
				"No AI models are configured")
		case ai.ErrRateLimitExceeded:
			w.Header().Set("Retry-After", "60")
			respondJSONError(w, http.StatusTooManyRequests, "Too Many Requests",
				"AI capacity is exhausted, please retry later")
		default:
			respondJSONError(w, http.StatusBadGateway, "Bad Gateway",
				"The AI backend failed to produce a response")
		}
	default:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error",
			"Unexpected generation outcome")
	}
}
