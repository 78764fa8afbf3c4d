package chunk

import (
	"context"
	"fmt"
	"log/slog"

	"worldgen-server/internal/genconfig"
	"worldgen-server/internal/shared/errors"
	"worldgen-server/internal/worldgen"

	"github.com/google/uuid"
)

type Service struct {
	store  Store
	cache  *StatsCache
	cfg    *genconfig.Config
	logger *slog.Logger
}

func NewService(store Store, cache *StatsCache, cfg *genconfig.Config, logger *slog.Logger) *Service {
	logger.Debug("Initializing chunk service", "stats_cache", cache != nil)

	return &Service{
		store:  store,
		cache:  cache,
		cfg:    cfg,
		logger: logger,
	}
}

// GenerateChunk runs the generator and persists the result.
func (s *Service) GenerateChunk(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	logger := s.logger.With(
		"component", "chunk_service",
		"operation", "generate_chunk",
		"seed", req.Seed,
		"scope_type", req.ScopeType,
	)
	logger.Info("Generating chunk")

	scope := worldgen.Scope{Type: worldgen.ScopeType(req.ScopeType)}
	if req.ScopeNodeID != nil && *req.ScopeNodeID != "" {
		id, err := uuid.Parse(*req.ScopeNodeID)
		if err != nil {
			return nil, errors.WrapValidation("scope_node_id must be a UUID", err)
		}
		scope.NodeID = &id
	}

	chunk, err := worldgen.Generate(s.cfg, req.Seed, scope)
	if err != nil {
		return nil, err
	}

	rec := chunk.Record()
	meta := Meta{
		ChunkID:     rec.ChunkID,
		ScopeType:   req.ScopeType,
		ScopeNodeID: rec.ScopeNodeID,
		Seed:        req.Seed,
	}
	if err := s.store.SaveChunk(ctx, meta, rec.Nodes, rec.Links); err != nil {
		return nil, errors.WrapInternal("failed to persist chunk", err)
	}
	s.cache.Invalidate(ctx, rec.ChunkID)

	logger.Info("Chunk generated",
		"chunk_id", rec.ChunkID,
		"nodes", len(rec.Nodes),
		"links", len(rec.Links))

	return &GenerateResponse{
		ChunkID:     rec.ChunkID,
		ScopeNodeID: rec.ScopeNodeID,
		NodesCount:  len(rec.Nodes),
		LinksCount:  len(rec.Links),
	}, nil
}

// BulkUpsert stores externally edited nodes and links. Later entries win
// over earlier ones with the same id.
func (s *Service) BulkUpsert(ctx context.Context, req BulkUpsertRequest) (*BulkUpsertResponse, error) {
	logger := s.logger.With(
		"component", "chunk_service",
		"operation", "bulk_upsert",
		"nodes", len(req.Nodes),
		"links", len(req.Links),
	)
	logger.Debug("Upserting graph")

	if err := validateGraph(req.Nodes, req.Links); err != nil {
		return nil, err
	}

	nodes := dedupeByID(req.Nodes, func(n worldgen.NodeRecord) string { return n.ID })
	links := dedupeByID(req.Links, func(l worldgen.LinkRecord) string { return l.ID })

	if err := s.store.UpsertGraph(ctx, nodes, links); err != nil {
		return nil, errors.WrapInternal("failed to upsert graph", err)
	}

	touched := make(map[string]struct{})
	var chunkIDs []string
	for _, n := range nodes {
		if _, ok := touched[n.ChunkID]; n.ChunkID != "" && !ok {
			touched[n.ChunkID] = struct{}{}
			chunkIDs = append(chunkIDs, n.ChunkID)
		}
	}
	s.cache.Invalidate(ctx, chunkIDs...)

	return &BulkUpsertResponse{Inserted: len(req.Nodes) + len(req.Links)}, nil
}

func (s *Service) ChunkStats(ctx context.Context, chunkID string) (*Stats, error) {
	logger := s.logger.With("component", "chunk_service", "operation", "chunk_stats", "chunk_id", chunkID)

	if chunkID == "" {
		return nil, errors.Validation("chunk id is required")
	}

	if stats, ok := s.cache.Get(ctx, chunkID); ok {
		logger.Debug("Stats served from cache")
		return stats, nil
	}

	stats, err := s.store.ChunkStats(ctx, chunkID)
	if err != nil {
		return nil, errors.WrapInternal("failed to compute chunk stats", err)
	}
	if stats == nil {
		return nil, errors.NotFoundf("chunk %s not found", chunkID)
	}

	s.cache.Set(ctx, stats)
	return stats, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func validateGraph(nodes []worldgen.NodeRecord, links []worldgen.LinkRecord) error {
	for i, n := range nodes {
		if err := checkUUID("nodes", i, "id", n.ID); err != nil {
			return err
		}
		if n.NodeType == "" || n.Name == "" {
			return errors.Validationf("nodes[%d]: node_type and name are required", i)
		}
		if n.ParentID != nil {
			if err := checkUUID("nodes", i, "parent_id", *n.ParentID); err != nil {
				return err
			}
		}
	}
	for i, l := range links {
		if err := checkUUID("links", i, "id", l.ID); err != nil {
			return err
		}
		if err := checkUUID("links", i, "src_id", l.SrcID); err != nil {
			return err
		}
		if err := checkUUID("links", i, "dst_id", l.DstID); err != nil {
			return err
		}
		if l.LinkType == "" {
			return errors.Validationf("links[%d]: link_type is required", i)
		}
	}
	return nil
}

func checkUUID(collection string, i int, field, value string) error {
	if _, err := uuid.Parse(value); err != nil {
		return errors.WrapValidation(fmt.Sprintf("%s[%d]: %s must be a UUID", collection, i, field), err)
	}
	return nil
}

func dedupeByID[T any](items []T, id func(T) string) []T {
	last := make(map[string]int, len(items))
	for i, item := range items {
		last[id(item)] = i
	}
	out := make([]T, 0, len(last))
	for i, item := range items {
		if last[id(item)] == i {
			out = append(out, item)
		}
	}
	return out
}
