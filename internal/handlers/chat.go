package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/inkwell-ai/inkwell/internal/database"
	"github.com/inkwell-ai/inkwell/internal/prompts"
	"github.com/inkwell-ai/inkwell/internal/request"
	"github.com/inkwell-ai/inkwell/internal/services/ai"
	"github.com/inkwell-ai/inkwell/internal/validation"
)

// MaxChatMessageLength caps a chat message after sanitization.
const MaxChatMessageLength = 8000

// ChatHandler handles conversational requests
type ChatHandler struct {
	generator  ai.Generator
	promptRepo database.PromptRepositoryInterface
}

// NewChatHandler creates a new chat handler
func NewChatHandler(generator ai.Generator, promptRepo database.PromptRepositoryInterface) *ChatHandler {
	return &ChatHandler{generator: generator, promptRepo: promptRepo}
}

// RegisterRoutes registers chat routes
func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/chat", h.SendMessage).Methods("POST")
}

// ChatRequest represents a chat message request
type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

// ChatResponse is the reply to a chat message
type ChatResponse struct {
	Reply string `json:"reply"`
	Model string `json:"model,omitempty"`
}

// SendMessage answers a single conversational turn.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req ChatRequest
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

	req.Message = validation.SanitizeText(req.Message)
	if req.Message == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Message is required and cannot be empty after sanitization")
		return
	}
	if len(req.Message) > MaxChatMessageLength {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Message exceeds maximum length of %d characters", MaxChatMessageLength))
		return
	}

	ctx := r.Context()

	persona, err := h.promptRepo.Get(ctx, prompts.IDChat)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load chat persona")
		return
	}

	username := user.Username
	if username == "" {
		username = "friend"
	}

	parts := []ai.Part{
		ai.TextPart(fmt.Sprintf(persona, username)),
		ai.TextPart(req.Message),
	}

	outcome := h.generator.Generate(ctx, parts, ai.TaskChat,
		ai.GenerateOptions{},
		ai.CallContext{UserID: user.ID, Mode: "chat"},
	)

	switch outcome.Kind {
	case ai.OutcomeSuccess:
		respondJSON(w, http.StatusOK, ChatResponse{Reply: outcome.Text, Model: outcome.Model})
	case ai.OutcomeNoContent:
		respondJSON(w, http.StatusOK, ChatResponse{Reply: "", Model: outcome.Model})
	default:
		respondOutcomeError(w, outcome)
	}
}
