package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"worldgen-server/internal/chunk"
	chunkHandlers "worldgen-server/internal/chunk/handlers"
	"worldgen-server/internal/genconfig"
	"worldgen-server/internal/middleware"
	serverHandlers "worldgen-server/internal/server/handlers"
)

func newTestMux(t *testing.T, apiKey string) *http.ServeMux {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg, err := genconfig.Load(filepath.Join("..", "..", "shared", "steampunk_gen_config.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	repo, err := chunk.OpenSQLite(filepath.Join(t.TempDir(), "world.db"), logger)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	service := chunk.NewService(repo, nil, cfg, logger)
	routes := NewRoutes(
		chunkHandlers.NewChunkHandler(service, 1<<20),
		serverHandlers.NewHealthHandler(service),
		middleware.NewAuthenticator(apiKey, nil),
	)
	return routes.Setup()
}

func TestRoutesHealthIsPublic(t *testing.T) {
	mux := newTestMux(t, "secret-key")

	for _, path := range []string{"/health", "/api/server/health", "/api/server/ready"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestRoutesRequireAPIKey(t *testing.T) {
	mux := newTestMux(t, "secret-key")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate/chunk", strings.NewReader(`{"seed":1,"scope_type":"city"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/generate/chunk", strings.NewReader(`{"seed":1,"scope_type":"city"}`))
	req.Header.Set(middleware.APIKeyHeader, "secret-key")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRoutesStatsPathValue(t *testing.T) {
	mux := newTestMux(t, "")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chunks/city:unknown/stats", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
