package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/inkwell-ai/inkwell/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("input_type", validateInputType); err != nil {
		panic(fmt.Sprintf("failed to register input_type validator: %v", err))
	}
	if err := Validate.RegisterValidation("sentiment", validateSentiment); err != nil {
		panic(fmt.Sprintf("failed to register sentiment validator: %v", err))
	}
	if err := Validate.RegisterValidation("goal_status", validateGoalStatus); err != nil {
		panic(fmt.Sprintf("failed to register goal_status validator: %v", err))
	}
}

// validateInputType validates that a string is a valid InputType enum value
func validateInputType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	switch models.InputType(value) {
	case models.InputTypeText, models.InputTypeVoice, models.InputTypePhoto:
		return true
	default:
		return false
	}
}

// validateSentiment validates that a string is a valid Sentiment enum value
func validateSentiment(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	switch models.Sentiment(value) {
	case models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral, models.SentimentMixed:
		return true
	default:
		return false
	}
}

// validateGoalStatus validates that a string is a valid GoalStatus enum value
func validateGoalStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	switch models.GoalStatus(value) {
	case models.GoalStatusActive, models.GoalStatusCompleted, models.GoalStatusAbandoned:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateInputType validates an InputType string value
func ValidateInputType(value string) error {
	switch models.InputType(value) {
	case models.InputTypeText, models.InputTypeVoice, models.InputTypePhoto:
		return nil
	default:
		return fmt.Errorf("invalid input_type: %s (must be 'text', 'voice', or 'photo')", value)
	}
}

// ValidateSentiment validates a Sentiment string value
func ValidateSentiment(value string) error {
	switch models.Sentiment(value) {
	case models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral, models.SentimentMixed:
		return nil
	default:
		return fmt.Errorf("invalid sentiment: %s (must be 'positive', 'negative', 'neutral', or 'mixed')", value)
	}
}
