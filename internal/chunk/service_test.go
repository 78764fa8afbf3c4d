package chunk

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"worldgen-server/internal/genconfig"
	"worldgen-server/internal/shared/errors"
	"worldgen-server/internal/worldgen"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T) (*Service, *SQLiteRepository) {
	t.Helper()
	cfg, err := genconfig.Load(filepath.Join("..", "..", "shared", "steampunk_gen_config.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	repo, err := OpenSQLite(filepath.Join(t.TempDir(), "world.db"), testLogger())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewService(repo, NewStatsCache(nil, 0, testLogger()), cfg, testLogger()), repo
}

func TestGenerateChunkPersists(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	resp, err := svc.GenerateChunk(ctx, GenerateRequest{Seed: 42, ScopeType: "city"})
	if err != nil {
		t.Fatalf("GenerateChunk() error = %v", err)
	}
	if resp.NodesCount == 0 || resp.LinksCount == 0 {
		t.Fatalf("response = %+v, want nodes and links", resp)
	}

	status, err := repo.ChunkStatus(ctx, resp.ChunkID)
	if err != nil {
		t.Fatalf("ChunkStatus() error = %v", err)
	}
	if status != StatusValidated {
		t.Fatalf("status = %s, want %s", status, StatusValidated)
	}

	stats, err := svc.ChunkStats(ctx, resp.ChunkID)
	if err != nil {
		t.Fatalf("ChunkStats() error = %v", err)
	}
	total := 0
	for _, n := range stats.NodesByType {
		total += n
	}
	if total != resp.NodesCount {
		t.Fatalf("stats nodes = %d, want %d", total, resp.NodesCount)
	}
	if stats.NodesByType["city"] != 1 {
		t.Fatalf("city count = %d, want 1", stats.NodesByType["city"])
	}
	if stats.LinksCount != resp.LinksCount {
		t.Fatalf("stats links = %d, want %d", stats.LinksCount, resp.LinksCount)
	}
}

func TestGenerateChunkIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.GenerateChunk(ctx, GenerateRequest{Seed: 5, ScopeType: "country"})
	if err != nil {
		t.Fatalf("first GenerateChunk() error = %v", err)
	}
	second, err := svc.GenerateChunk(ctx, GenerateRequest{Seed: 5, ScopeType: "country"})
	if err != nil {
		t.Fatalf("second GenerateChunk() error = %v", err)
	}
	if *first != *second {
		t.Fatalf("responses differ: %+v vs %+v", first, second)
	}

	stats, err := svc.ChunkStats(ctx, first.ChunkID)
	if err != nil {
		t.Fatalf("ChunkStats() error = %v", err)
	}
	if stats.NodesByType["country"] != 1 {
		t.Fatalf("country rows = %d, want 1 after regeneration", stats.NodesByType["country"])
	}
}

func TestGenerateChunkErrors(t *testing.T) {
	svc, _ := newTestService(t)
	bad := "not-a-uuid"

	tests := []struct {
		name string
		req  GenerateRequest
		want errors.ErrorType
	}{
		{"unknown scope", GenerateRequest{Seed: 1, ScopeType: "continent"}, errors.ErrorTypeConfiguration},
		{"bad scope id", GenerateRequest{Seed: 1, ScopeType: "city", ScopeNodeID: &bad}, errors.ErrorTypeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GenerateChunk(context.Background(), tt.req)
			if got := errors.GetType(err); got != tt.want {
				t.Fatalf("error type = %s, want %s (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestChunkStatsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ChunkStats(context.Background(), "city:missing")
	if !errors.Is(err, errors.ErrorTypeNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
}

const (
	nodeA = "6f1c2b1e-0000-5000-8000-000000000001"
	nodeB = "6f1c2b1e-0000-5000-8000-000000000002"
	linkA = "6f1c2b1e-0000-5000-8000-0000000000a1"
)

func TestBulkUpsert(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	weight := 0.5

	req := BulkUpsertRequest{
		Nodes: []worldgen.NodeRecord{
			{ID: nodeA, NodeType: "city", Name: "Old Name", ChunkID: "city:edited"},
			{ID: nodeB, NodeType: "npc", Name: "Ada Quill", ParentID: strPtr(nodeA), ChunkID: "city:edited"},
			{ID: nodeA, NodeType: "city", Name: "New Name", ChunkID: "city:edited"},
		},
		Links: []worldgen.LinkRecord{
			{ID: linkA, SrcID: nodeB, DstID: nodeA, LinkType: "member_of", Weight: &weight},
		},
	}

	resp, err := svc.BulkUpsert(ctx, req)
	if err != nil {
		t.Fatalf("BulkUpsert() error = %v", err)
	}
	if resp.Inserted != 4 {
		t.Fatalf("inserted = %d, want 4", resp.Inserted)
	}

	stats, err := svc.ChunkStats(ctx, "city:edited")
	if err != nil {
		t.Fatalf("ChunkStats() error = %v", err)
	}
	if stats.NodesByType["city"] != 1 || stats.NodesByType["npc"] != 1 || stats.LinksCount != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestBulkUpsertValidation(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name string
		req  BulkUpsertRequest
	}{
		{"bad node id", BulkUpsertRequest{Nodes: []worldgen.NodeRecord{{ID: "x", NodeType: "city", Name: "A"}}}},
		{"missing name", BulkUpsertRequest{Nodes: []worldgen.NodeRecord{{ID: nodeA, NodeType: "city"}}}},
		{"bad parent", BulkUpsertRequest{Nodes: []worldgen.NodeRecord{{ID: nodeA, NodeType: "city", Name: "A", ParentID: strPtr("nope")}}}},
		{"bad link dst", BulkUpsertRequest{Links: []worldgen.LinkRecord{{ID: linkA, SrcID: nodeA, DstID: "nope", LinkType: "member_of"}}}},
		{"missing link type", BulkUpsertRequest{Links: []worldgen.LinkRecord{{ID: linkA, SrcID: nodeA, DstID: nodeB}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.BulkUpsert(context.Background(), tt.req)
			if !errors.Is(err, errors.ErrorTypeValidation) {
				t.Fatalf("error = %v, want validation", err)
			}
		})
	}
}

func TestDedupeByIDKeepsLast(t *testing.T) {
	in := []worldgen.NodeRecord{{ID: "a", Name: "1"}, {ID: "b", Name: "2"}, {ID: "a", Name: "3"}}
	out := dedupeByID(in, func(n worldgen.NodeRecord) string { return n.ID })
	if len(out) != 2 || out[0].ID != "b" || out[1].Name != "3" {
		t.Fatalf("dedupeByID() = %+v", out)
	}
}

func TestNilStatsCacheIsSafe(t *testing.T) {
	var c *StatsCache
	ctx := context.Background()
	if _, ok := c.Get(ctx, "x"); ok {
		t.Fatalf("nil cache reported a hit")
	}
	c.Set(ctx, &Stats{ChunkID: "x"})
	c.Invalidate(ctx, "x")
}

func strPtr(s string) *string { return &s }
