package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"worldgen-server/internal/shared/config"
)

func TestCORSPreflightAllowsAPIKey(t *testing.T) {
	c := NewCORS(config.FrontendConfig{URL: "http://localhost:3000, http://editor.local"})
	h := c.Middleware(okHandler())

	// browsers send request header names lowercased
	req := httptest.NewRequest(http.MethodOptions, "/api/generate/chunk", nil)
	req.Header.Set("Origin", "http://editor.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", strings.ToLower(APIKeyHeader))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://editor.local" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.EqualFold(got, APIKeyHeader) {
		t.Fatalf("Access-Control-Allow-Headers = %q, want %q", got, strings.ToLower(APIKeyHeader))
	}
}

func TestCORSPreflightRejectsUnknownOrigin(t *testing.T) {
	c := NewCORS(config.FrontendConfig{URL: "http://localhost:3000"})
	h := c.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/generate/chunk", nil)
	req.Header.Set("Origin", "http://elsewhere.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want empty", got)
	}
}
