package request

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/inkwell-ai/inkwell/internal/models"
)

func TestClientIP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		wantIP  string
	}{
		{"x-forwarded-for", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "", "1.2.3.4"},
		{"x-forwarded-for first", map[string]string{"X-Forwarded-For": " 1.2.3.4 , 5.6.7.8 "}, "", "1.2.3.4"},
		{"x-real-ip", map[string]string{"X-Real-IP": "9.9.9.9"}, "", "9.9.9.9"},
		{"remote addr", nil, "10.0.0.1:12345", "10.0.0.1:12345"},
		{"xff over xri", map[string]string{"X-Forwarded-For": "1.2.3.4", "X-Real-IP": "9.9.9.9"}, "", "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if tt.remote != "" {
				r.RemoteAddr = tt.remote
			}
			got := ClientIP(r)
			if got != tt.wantIP {
				t.Errorf("ClientIP() = %q, want %q", got, tt.wantIP)
			}
		})
	}
}

func TestUserContextRoundTrip(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/", nil)
	if got := UserFromContext(r); got != nil {
		t.Fatalf("expected nil user on bare request, got %+v", got)
	}
	if got := UserID(r); got != 0 {
		t.Fatalf("expected zero user ID on bare request, got %d", got)
	}

	user := &models.User{ID: 1234, Username: "ada"}
	r = r.WithContext(WithUser(r.Context(), user))

	if got := UserFromContext(r); got != user {
		t.Errorf("UserFromContext() = %+v, want %+v", got, user)
	}
	if got := UserID(r); got != 1234 {
		t.Errorf("UserID() = %d, want 1234", got)
	}
}

func TestUserFromContextWrongType(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "/", nil)
	ctx := context.WithValue(r.Context(), UserContextKey(), "not a user")
	r = r.WithContext(ctx)

	if got := UserFromContext(r); got != nil {
		t.Errorf("expected nil for wrong type, got %+v", got)
	}
}
