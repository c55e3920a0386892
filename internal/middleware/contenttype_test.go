package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{"get skips validation", "GET", "", http.StatusOK},
		{"delete skips validation", "DELETE", "", http.StatusOK},
		{"post without content type", "POST", "", http.StatusBadRequest},
		{"post with json", "POST", "application/json", http.StatusOK},
		{"post with json charset", "POST", "application/json; charset=utf-8", http.StatusOK},
		{"post with form data", "POST", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"put with xml", "PUT", "text/xml", http.StatusUnsupportedMediaType},
		{"patch with json", "PATCH", "application/JSON", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			r := httptest.NewRequest(tt.method, "/api/journal", strings.NewReader("{}"))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()

			ContentType(next).ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := MaxRequestSize(16)(next)

	r := httptest.NewRequest("POST", "/api/journal", strings.NewReader(strings.Repeat("x", 64)))
	r.ContentLength = 64
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, r)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}

	r = httptest.NewRequest("POST", "/api/journal", strings.NewReader("tiny"))
	w = httptest.NewRecorder()

	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
