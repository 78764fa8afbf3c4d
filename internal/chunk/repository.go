package chunk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"worldgen-server/internal/shared/database"
	"worldgen-server/internal/worldgen"
)

// Repository is the Postgres Store.
type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing chunk repository")

	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) getExecutor(tx *database.Tx) database.Executor {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) SaveChunk(ctx context.Context, meta Meta, nodes []worldgen.NodeRecord, links []worldgen.LinkRecord) error {
	logger := r.logger.With(
		"component", "chunk_repository",
		"operation", "save_chunk",
		"chunk_id", meta.ChunkID,
		"nodes", len(nodes),
		"links", len(links),
	)
	logger.Debug("Saving chunk")

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := r.upsertChunkRow(ctx, meta, tx); err != nil {
			return err
		}
		if err := r.upsertNodes(ctx, nodes, tx); err != nil {
			return err
		}
		if err := r.upsertLinks(ctx, links, tx); err != nil {
			return err
		}
		return r.setStatus(ctx, meta.ChunkID, StatusValidated, tx)
	})
	if err != nil {
		logger.Error("Failed to save chunk", "error", err)
		return err
	}

	logger.Debug("Chunk saved")
	return nil
}

func (r *Repository) UpsertGraph(ctx context.Context, nodes []worldgen.NodeRecord, links []worldgen.LinkRecord) error {
	logger := r.logger.With(
		"component", "chunk_repository",
		"operation", "upsert_graph",
		"nodes", len(nodes),
		"links", len(links),
	)
	logger.Debug("Upserting graph")

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := r.upsertNodes(ctx, nodes, tx); err != nil {
			return err
		}
		return r.upsertLinks(ctx, links, tx)
	})
	if err != nil {
		logger.Error("Failed to upsert graph", "error", err)
		return err
	}
	return nil
}

func (r *Repository) upsertChunkRow(ctx context.Context, meta Meta, tx *database.Tx) error {
	attrs, err := json.Marshal(map[string]any{"seed": meta.Seed})
	if err != nil {
		return fmt.Errorf("failed to marshal chunk attrs: %w", err)
	}

	query := `
		INSERT INTO chunks (chunk_id, scope_type, scope_node_id, status, attrs)
		VALUES ($1, $2, $3::uuid, $4, $5::jsonb)
		ON CONFLICT (chunk_id) DO UPDATE SET
			status = EXCLUDED.status,
			attrs = EXCLUDED.attrs,
			updated_at = NOW()
	`
	_, err = r.getExecutor(tx).ExecContext(ctx, query,
		meta.ChunkID, meta.ScopeType, meta.ScopeNodeID, string(StatusGenerated), string(attrs))
	if err != nil {
		return fmt.Errorf("failed to upsert chunk row: %w", err)
	}
	return nil
}

func (r *Repository) setStatus(ctx context.Context, chunkID string, status Status, tx *database.Tx) error {
	query := `UPDATE chunks SET status = $2, updated_at = NOW() WHERE chunk_id = $1`
	if _, err := r.getExecutor(tx).ExecContext(ctx, query, chunkID, string(status)); err != nil {
		return fmt.Errorf("failed to update chunk status: %w", err)
	}
	return nil
}

// upsertNodes writes all nodes in one statement by expanding a JSON array
// server side.
func (r *Repository) upsertNodes(ctx context.Context, nodes []worldgen.NodeRecord, tx *database.Tx) error {
	if len(nodes) == 0 {
		return nil
	}

	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("failed to marshal nodes: %w", err)
	}

	query := `
		INSERT INTO nodes (id, node_type, name, parent_id, slug, chunk_id, attrs)
		SELECT
			(data->>'id')::uuid,
			data->>'node_type',
			data->>'name',
			(data->>'parent_id')::uuid,
			data->>'slug',
			NULLIF(data->>'chunk_id', ''),
			COALESCE(data->'attrs', '{}'::json)::jsonb
		FROM json_array_elements($1::json) AS data
		ON CONFLICT (id) DO UPDATE SET
			node_type = EXCLUDED.node_type,
			name = EXCLUDED.name,
			parent_id = EXCLUDED.parent_id,
			slug = EXCLUDED.slug,
			chunk_id = EXCLUDED.chunk_id,
			attrs = EXCLUDED.attrs,
			updated_at = NOW()
	`
	if _, err := r.getExecutor(tx).ExecContext(ctx, query, string(nodesJSON)); err != nil {
		return fmt.Errorf("failed to upsert nodes: %w", err)
	}
	return nil
}

func (r *Repository) upsertLinks(ctx context.Context, links []worldgen.LinkRecord, tx *database.Tx) error {
	if len(links) == 0 {
		return nil
	}

	linksJSON, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("failed to marshal links: %w", err)
	}

	query := `
		INSERT INTO links (id, src_id, dst_id, link_type, weight, attrs)
		SELECT
			(data->>'id')::uuid,
			(data->>'src_id')::uuid,
			(data->>'dst_id')::uuid,
			data->>'link_type',
			(data->>'weight')::double precision,
			COALESCE(data->'attrs', '{}'::json)::jsonb
		FROM json_array_elements($1::json) AS data
		ON CONFLICT (id) DO UPDATE SET
			src_id = EXCLUDED.src_id,
			dst_id = EXCLUDED.dst_id,
			link_type = EXCLUDED.link_type,
			weight = EXCLUDED.weight,
			attrs = EXCLUDED.attrs
	`
	if _, err := r.getExecutor(tx).ExecContext(ctx, query, string(linksJSON)); err != nil {
		return fmt.Errorf("failed to upsert links: %w", err)
	}
	return nil
}

func (r *Repository) ChunkStats(ctx context.Context, chunkID string) (*Stats, error) {
	logger := r.logger.With("component", "chunk_repository", "operation", "chunk_stats", "chunk_id", chunkID)
	logger.Debug("Counting chunk contents")

	rows, err := r.db.QueryContext(ctx,
		`SELECT node_type, COUNT(*) FROM nodes WHERE chunk_id = $1 GROUP BY node_type`, chunkID)
	if err != nil {
		logger.Error("Failed to count nodes", "error", err)
		return nil, fmt.Errorf("failed to count nodes: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	stats := &Stats{ChunkID: chunkID, NodesByType: map[string]int{}}
	for rows.Next() {
		var nodeType string
		var count int
		if err := rows.Scan(&nodeType, &count); err != nil {
			logger.Error("Failed to scan node count", "error", err)
			return nil, fmt.Errorf("failed to scan node count: %w", err)
		}
		stats.NodesByType[nodeType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating node counts: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM links l
		JOIN nodes n ON l.src_id = n.id
		WHERE n.chunk_id = $1
	`, chunkID).Scan(&stats.LinksCount)
	if err != nil {
		logger.Error("Failed to count links", "error", err)
		return nil, fmt.Errorf("failed to count links: %w", err)
	}

	if len(stats.NodesByType) == 0 {
		var exists bool
		err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM chunks WHERE chunk_id = $1)`, chunkID).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to look up chunk: %w", err)
		}
		if !exists {
			logger.Debug("Chunk not found")
			return nil, nil
		}
	}

	logger.Debug("Chunk stats computed", "links", stats.LinksCount)
	return stats, nil
}
