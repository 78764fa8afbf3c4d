package chunk

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"worldgen-server/internal/worldgen"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteRepository is an embedded Store for the CLI and tests.
type SQLiteRepository struct {
	conn   *sqlx.DB
	logger *slog.Logger
}

// OpenSQLite opens or creates the database at path and ensures the schema.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteRepository, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	conn.SetMaxOpenConns(1)

	repo := &SQLiteRepository{conn: conn, logger: logger}
	if err := repo.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Debug("SQLite chunk store opened", "path", path)
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.conn.Close()
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.conn.PingContext(ctx)
}

func (r *SQLiteRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		chunk_id TEXT PRIMARY KEY,
		scope_type TEXT NOT NULL,
		scope_node_id TEXT NOT NULL,
		status TEXT NOT NULL,
		attrs TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		node_type TEXT NOT NULL,
		name TEXT NOT NULL,
		parent_id TEXT,
		slug TEXT,
		chunk_id TEXT,
		attrs TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS links (
		id TEXT PRIMARY KEY,
		src_id TEXT NOT NULL,
		dst_id TEXT NOT NULL,
		link_type TEXT NOT NULL,
		weight REAL,
		attrs TEXT NOT NULL DEFAULT '{}'
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_chunk ON nodes(chunk_id);
	CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id);
	CREATE INDEX IF NOT EXISTS idx_links_src ON links(src_id);
	`
	_, err := r.conn.Exec(schema)
	return err
}

func (r *SQLiteRepository) SaveChunk(ctx context.Context, meta Meta, nodes []worldgen.NodeRecord, links []worldgen.LinkRecord) error {
	tx, err := r.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	attrs, err := json.Marshal(map[string]any{"seed": meta.Seed})
	if err != nil {
		return fmt.Errorf("marshal chunk attrs: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO chunks (chunk_id, scope_type, scope_node_id, status, attrs)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (chunk_id) DO UPDATE SET
			status = excluded.status,
			attrs = excluded.attrs,
			updated_at = CURRENT_TIMESTAMP`,
		meta.ChunkID, meta.ScopeType, meta.ScopeNodeID, string(StatusGenerated), string(attrs))
	if err != nil {
		return fmt.Errorf("upsert chunk %s: %w", meta.ChunkID, err)
	}

	if err := upsertGraphTx(ctx, tx, nodes, links); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `UPDATE chunks SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE chunk_id = ?`,
		string(StatusValidated), meta.ChunkID)
	if err != nil {
		return fmt.Errorf("mark chunk %s validated: %w", meta.ChunkID, err)
	}

	return tx.Commit()
}

func (r *SQLiteRepository) UpsertGraph(ctx context.Context, nodes []worldgen.NodeRecord, links []worldgen.LinkRecord) error {
	tx, err := r.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := upsertGraphTx(ctx, tx, nodes, links); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertGraphTx(ctx context.Context, tx *sqlx.Tx, nodes []worldgen.NodeRecord, links []worldgen.LinkRecord) error {
	nodeStmt, err := tx.PreparexContext(ctx, `INSERT INTO nodes (id, node_type, name, parent_id, slug, chunk_id, attrs)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			node_type = excluded.node_type,
			name = excluded.name,
			parent_id = excluded.parent_id,
			slug = excluded.slug,
			chunk_id = excluded.chunk_id,
			attrs = excluded.attrs,
			updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return err
	}
	defer nodeStmt.Close()

	for _, n := range nodes {
		attrs, err := marshalAttrs(n.Attrs)
		if err != nil {
			return fmt.Errorf("marshal attrs of node %s: %w", n.ID, err)
		}
		var chunkID *string
		if n.ChunkID != "" {
			chunkID = &n.ChunkID
		}
		if _, err := nodeStmt.ExecContext(ctx, n.ID, n.NodeType, n.Name, n.ParentID, n.Slug, chunkID, attrs); err != nil {
			return fmt.Errorf("upsert node %s: %w", n.ID, err)
		}
	}

	linkStmt, err := tx.PreparexContext(ctx, `INSERT INTO links (id, src_id, dst_id, link_type, weight, attrs)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			src_id = excluded.src_id,
			dst_id = excluded.dst_id,
			link_type = excluded.link_type,
			weight = excluded.weight,
			attrs = excluded.attrs`)
	if err != nil {
		return err
	}
	defer linkStmt.Close()

	for _, l := range links {
		attrs, err := marshalAttrs(l.Attrs)
		if err != nil {
			return fmt.Errorf("marshal attrs of link %s: %w", l.ID, err)
		}
		if _, err := linkStmt.ExecContext(ctx, l.ID, l.SrcID, l.DstID, l.LinkType, l.Weight, attrs); err != nil {
			return fmt.Errorf("upsert link %s: %w", l.ID, err)
		}
	}
	return nil
}

func marshalAttrs(attrs map[string]any) (string, error) {
	if attrs == nil {
		return "{}", nil
	}
	b, err := json.Marshal(attrs)
	return string(b), err
}

type nodeTypeCount struct {
	NodeType string `db:"node_type"`
	Count    int    `db:"count"`
}

func (r *SQLiteRepository) ChunkStats(ctx context.Context, chunkID string) (*Stats, error) {
	var counts []nodeTypeCount
	err := r.conn.SelectContext(ctx, &counts,
		`SELECT node_type, COUNT(*) AS count FROM nodes WHERE chunk_id = ? GROUP BY node_type`, chunkID)
	if err != nil {
		return nil, fmt.Errorf("count nodes: %w", err)
	}

	stats := &Stats{ChunkID: chunkID, NodesByType: make(map[string]int, len(counts))}
	for _, c := range counts {
		stats.NodesByType[c.NodeType] = c.Count
	}

	err = r.conn.GetContext(ctx, &stats.LinksCount, `SELECT COUNT(*) FROM links l
		JOIN nodes n ON l.src_id = n.id
		WHERE n.chunk_id = ?`, chunkID)
	if err != nil {
		return nil, fmt.Errorf("count links: %w", err)
	}

	if len(counts) == 0 {
		var status string
		err := r.conn.GetContext(ctx, &status, `SELECT status FROM chunks WHERE chunk_id = ?`, chunkID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("look up chunk: %w", err)
		}
	}
	return stats, nil
}

// ChunkStatus reports the lifecycle status of a chunk row.
func (r *SQLiteRepository) ChunkStatus(ctx context.Context, chunkID string) (Status, error) {
	var status string
	if err := r.conn.GetContext(ctx, &status, `SELECT status FROM chunks WHERE chunk_id = ?`, chunkID); err != nil {
		return "", err
	}
	return Status(status), nil
}
