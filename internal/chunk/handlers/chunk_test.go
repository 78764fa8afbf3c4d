package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"worldgen-server/internal/chunk"
	"worldgen-server/internal/genconfig"
)

func newTestHandler(t *testing.T) *ChunkHandler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg, err := genconfig.Load(filepath.Join("..", "..", "..", "shared", "steampunk_gen_config.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	repo, err := chunk.OpenSQLite(filepath.Join(t.TempDir(), "world.db"), logger)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return NewChunkHandler(chunk.NewService(repo, nil, cfg, logger), 1<<20)
}

func TestGenerateThenStats(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/generate/chunk", strings.NewReader(`{"seed": 12, "scope_type": "city"}`))
	h.GenerateChunk(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status = %d, body %s", rec.Code, rec.Body.String())
	}

	var gen chunk.GenerateResponse
	if err := json.NewDecoder(rec.Body).Decode(&gen); err != nil {
		t.Fatalf("decode generate response: %v", err)
	}
	if !strings.HasPrefix(gen.ChunkID, "city:") || gen.NodesCount == 0 {
		t.Fatalf("generate response = %+v", gen)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/chunks/"+gen.ChunkID+"/stats", nil)
	req.SetPathValue("id", gen.ChunkID)
	h.ChunkStats(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d, body %s", rec.Code, rec.Body.String())
	}

	var stats chunk.Stats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.ChunkID != gen.ChunkID || stats.LinksCount != gen.LinksCount {
		t.Fatalf("stats = %+v, want chunk %s with %d links", stats, gen.ChunkID, gen.LinksCount)
	}
}

func TestHandlerErrors(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name    string
		method  string
		body    string
		pathID  string
		handler func(http.ResponseWriter, *http.Request)
		want    int
	}{
		{"generate wrong method", http.MethodGet, "", "", h.GenerateChunk, http.StatusMethodNotAllowed},
		{"generate bad json", http.MethodPost, "{", "", h.GenerateChunk, http.StatusBadRequest},
		{"generate missing scope", http.MethodPost, `{"seed": 1}`, "", h.GenerateChunk, http.StatusBadRequest},
		{"generate unknown scope", http.MethodPost, `{"seed": 1, "scope_type": "continent"}`, "", h.GenerateChunk, http.StatusUnprocessableEntity},
		{"stats unknown chunk", http.MethodGet, "", "city:nowhere", h.ChunkStats, http.StatusNotFound},
		{"stats wrong method", http.MethodPost, "", "city:x", h.ChunkStats, http.StatusMethodNotAllowed},
		{"bulk bad id", http.MethodPost, `{"nodes": [{"id": "x", "node_type": "city", "name": "A"}]}`, "", h.BulkUpsert, http.StatusBadRequest},
		{"bulk wrong method", http.MethodGet, "", "", h.BulkUpsert, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			if tt.pathID != "" {
				req.SetPathValue("id", tt.pathID)
			}
			rec := httptest.NewRecorder()
			tt.handler(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestBulkUpsertHandler(t *testing.T) {
	h := newTestHandler(t)
	body := `{
		"nodes": [{"id": "6f1c2b1e-0000-5000-8000-000000000001", "node_type": "city", "name": "Gearford", "chunk_id": "city:manual"}],
		"links": []
	}`

	rec := httptest.NewRecorder()
	h.BulkUpsert(rec, httptest.NewRequest(http.MethodPost, "/api/bulk_upsert", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp chunk.BulkUpsertResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Inserted != 1 {
		t.Fatalf("inserted = %d, want 1", resp.Inserted)
	}
}
