package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/inkwell-ai/inkwell/internal/database"
	"github.com/inkwell-ai/inkwell/internal/models"
	"github.com/inkwell-ai/inkwell/internal/request"
	"github.com/inkwell-ai/inkwell/internal/validation"
)

// MaxGoalNameLength caps the goal name after sanitization.
const MaxGoalNameLength = 200

// GoalsHandler manages user goals
type GoalsHandler struct {
	goalRepo *database.GoalRepository
}

// NewGoalsHandler creates a new goals handler
func NewGoalsHandler(goalRepo *database.GoalRepository) *GoalsHandler {
	return &GoalsHandler{goalRepo: goalRepo}
}

// RegisterRoutes registers goal routes
func (h *GoalsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/goals", h.CreateGoal).Methods("POST")
	r.HandleFunc("/goals", h.ListGoals).Methods("GET")
	r.HandleFunc("/goals/{id}", h.GetGoal).Methods("GET")
	r.HandleFunc("/goals/{id}/status", h.UpdateStatus).Methods("PATCH")
	r.HandleFunc("/goals/{id}", h.DeleteGoal).Methods("DELETE")
}

// CreateGoalRequest represents a new goal
type CreateGoalRequest struct {
	Name         string     `json:"name" validate:"required"`
	Description  string     `json:"description,omitempty"`
	TargetMetric string     `json:"target_metric,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Priority     int        `json:"priority,omitempty" validate:"omitempty,min=1,max=5"`
	Tags         []string   `json:"tags,omitempty"`
}

// UpdateGoalStatusRequest changes a goal's lifecycle state
type UpdateGoalStatusRequest struct {
	Status string `json:"status" validate:"required,goal_status"`
}

// CreateGoal creates a new goal
func (h *GoalsHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
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

	req.Name = validation.SanitizeText(req.Name)
	if req.Name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name is required and cannot be empty after sanitization")
		return
	}
	if len(req.Name) > MaxGoalNameLength {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Name exceeds maximum length of %d characters", MaxGoalNameLength))
		return
	}

	goal := &models.Goal{
		ID:           uuid.New(),
		UserID:       user.ID,
		Name:         req.Name,
		Description:  validation.SanitizeText(req.Description),
		TargetMetric: req.TargetMetric,
		StartDate:    time.Now(),
		EndDate:      req.EndDate,
		Status:       models.GoalStatusActive,
		Priority:     req.Priority,
		Tags:         req.Tags,
	}

	if err := h.goalRepo.Create(r.Context(), goal); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create goal")
		return
	}

	respondJSON(w, http.StatusCreated, goal)
}

// ListGoals lists the user's goals, optionally filtered by status.
func (h *GoalsHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	status := models.GoalStatus(r.URL.Query().Get("status"))
	if status != "" {
		if err := validation.Validate.Var(string(status), "goal_status"); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid status filter")
			return
		}
	}

	goals, err := h.goalRepo.GetByUserID(r.Context(), user.ID, status)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve goals")
		return
	}

	respondJSON(w, http.StatusOK, goals)
}

// GetGoal retrieves a goal by ID
func (h *GoalsHandler) GetGoal(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid goal ID")
		return
	}

	goal, err := h.goalRepo.GetByID(r.Context(), id, user.ID)
	if err == database.ErrNotFound {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Goal not found")
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve goal")
		return
	}

	respondJSON(w, http.StatusOK, goal)
}

// UpdateStatus transitions a goal to a new lifecycle state
func (h *GoalsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid goal ID")
		return
	}

	var req UpdateGoalStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Status must be active, completed or abandoned")
		return
	}

	err = h.goalRepo.UpdateStatus(r.Context(), id, user.ID, models.GoalStatus(req.Status))
	if err == database.ErrNotFound {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Goal not found")
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update goal")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"id": id, "status": req.Status})
}

// DeleteGoal removes a goal
func (h *GoalsHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid goal ID")
		return
	}

	err = h.goalRepo.Delete(r.Context(), id, user.ID)
	if err == database.ErrNotFound {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Goal not found")
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete goal")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
