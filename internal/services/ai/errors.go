package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// APIError represents an error from the backend model API.
type APIError struct {
	Message    string
	Type       string
	Code       string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// BlockedError signals a content-policy refusal from the backend. The refusal
// may still carry usage metadata, which the dispatcher records.
type BlockedError struct {
	Reason string
	Usage  *Usage
}

func (e *BlockedError) Error() string {
	return "generation blocked: " + e.Reason
}

// IsCapacityError reports whether an error is a rate-limit/quota-class
// refusal from the backend, as distinct from a content-policy refusal.
func IsCapacityError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.Code == "insufficient_quota"
	}

	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "resource exhausted") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "quota")
}

// IsBlockedError reports whether an error is a content-policy refusal and
// returns it if so.
func IsBlockedError(err error) (*BlockedError, bool) {
	var blocked *BlockedError
	if errors.As(err, &blocked) {
		return blocked, true
	}
	return nil, false
}

// ErrorKindName returns a short diagnostic category for an arbitrary backend
// error, safe to surface to callers (never a raw message or stack trace).
func ErrorKindName(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Type != "" {
			return apiErr.Type
		}
		return fmt.Sprintf("api_error_%d", apiErr.StatusCode)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return fmt.Sprintf("%T", err)
}
