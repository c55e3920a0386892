package ai

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsCapacityError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "api error 429", err: &APIError{StatusCode: 429}, want: true},
		{name: "wrapped api error 429", err: fmt.Errorf("call failed: %w", &APIError{StatusCode: 429}), want: true},
		{name: "insufficient quota code", err: &APIError{StatusCode: 400, Code: "insufficient_quota"}, want: true},
		{name: "api error 500", err: &APIError{StatusCode: 500}, want: false},
		{name: "plain rate limit message", err: errors.New("rate limit hit"), want: true},
		{name: "resource exhausted message", err: errors.New("resource exhausted"), want: true},
		{name: "unrelated error", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsCapacityError(tt.err); got != tt.want {
				t.Errorf("IsCapacityError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsBlockedError(t *testing.T) {
	t.Parallel()

	blocked := &BlockedError{Reason: "safety"}
	wrapped := fmt.Errorf("generate: %w", blocked)

	if got, ok := IsBlockedError(wrapped); !ok || got.Reason != "safety" {
		t.Errorf("IsBlockedError(wrapped) = %v, %v; want blocked error", got, ok)
	}
	if _, ok := IsBlockedError(errors.New("other")); ok {
		t.Error("IsBlockedError should not match arbitrary errors")
	}
}

func TestErrorKindName(t *testing.T) {
	t.Parallel()

	if got := ErrorKindName(&APIError{Type: "server_error", StatusCode: 500}); got != "server_error" {
		t.Errorf("ErrorKindName = %q, want server_error", got)
	}
	if got := ErrorKindName(&APIError{StatusCode: 503}); got != "api_error_503" {
		t.Errorf("ErrorKindName = %q, want api_error_503", got)
	}
	if got := ErrorKindName(nil); got != "" {
		t.Errorf("ErrorKindName(nil) = %q, want empty", got)
	}
}
