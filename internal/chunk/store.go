package chunk

import (
	"context"

	"worldgen-server/internal/worldgen"
)

// Store persists generated graphs. Nodes and links are upserted by id so
// regenerating a chunk overwrites it in place.
type Store interface {
	// SaveChunk writes the chunk row as generated, upserts the graph and
	// marks the chunk validated, all in one transaction.
	SaveChunk(ctx context.Context, meta Meta, nodes []worldgen.NodeRecord, links []worldgen.LinkRecord) error
	UpsertGraph(ctx context.Context, nodes []worldgen.NodeRecord, links []worldgen.LinkRecord) error
	// ChunkStats returns nil when neither a chunk row nor any node exists.
	ChunkStats(ctx context.Context, chunkID string) (*Stats, error)
	Ping(ctx context.Context) error
}
