package chunk

import (
	"worldgen-server/internal/worldgen"
)

type Status string

const (
	StatusGenerated Status = "generated"
	StatusValidated Status = "validated"
)

// Meta is the chunk lifecycle row written alongside the generated graph.
type Meta struct {
	ChunkID     string
	ScopeType   string
	ScopeNodeID string
	Seed        int64
}

type GenerateRequest struct {
	Seed        int64   `json:"seed"`
	ScopeType   string  `json:"scope_type"`
	ScopeNodeID *string `json:"scope_node_id"`
}

type GenerateResponse struct {
	ChunkID     string `json:"chunk_id"`
	ScopeNodeID string `json:"scope_node_id"`
	NodesCount  int    `json:"nodes_count"`
	LinksCount  int    `json:"links_count"`
}

type BulkUpsertRequest struct {
	Nodes []worldgen.NodeRecord `json:"nodes"`
	Links []worldgen.LinkRecord `json:"links"`
}

type BulkUpsertResponse struct {
	Inserted int `json:"inserted"`
}

type Stats struct {
	ChunkID     string         `json:"chunk_id"`
	NodesByType map[string]int `json:"nodes_by_type"`
	LinksCount  int            `json:"links_count"`
}
