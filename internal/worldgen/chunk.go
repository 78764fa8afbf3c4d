package worldgen

import (
	"encoding/json"

	"github.com/google/uuid"
)

type NodeType string

const (
	NodeCountry  NodeType = "country"
	NodeCity     NodeType = "city"
	NodeDistrict NodeType = "district"
	NodeBuilding NodeType = "building"
	NodeNPC      NodeType = "npc"
	NodeFaction  NodeType = "faction"
)

// NodeTypes lists every node type in hierarchy order.
var NodeTypes = []NodeType{NodeCountry, NodeCity, NodeDistrict, NodeBuilding, NodeNPC, NodeFaction}

const (
	LinkMemberOf     = "member_of"
	MembershipWeight = 0.8
)

// Attrs is implemented by the closed per-type attribute structs. Map is the
// open representation stored and sent over the wire.
type Attrs interface {
	Map() map[string]any
}

type CountryAttrs struct {
	Tech   string
	Wealth string
}

func (a CountryAttrs) Map() map[string]any {
	return map[string]any{"tech": a.Tech, "wealth": a.Wealth}
}

type CityAttrs struct {
	DominantIndustry string
	Wealth           string
	Density          string
	PopulationTarget int
}

func (a CityAttrs) Map() map[string]any {
	return map[string]any{
		"dominant_industry": a.DominantIndustry,
		"wealth":            a.Wealth,
		"density":           a.Density,
		"population_target": a.PopulationTarget,
	}
}

type DistrictAttrs struct {
	Archetype  string
	Pollution  string
	WealthBias string
	Tags       []string
}

func (a DistrictAttrs) Map() map[string]any {
	return map[string]any{
		"archetype":   a.Archetype,
		"pollution":   a.Pollution,
		"wealth_bias": a.WealthBias,
		"tags":        nonNil(a.Tags),
	}
}

type BuildingAttrs struct {
	BuildingID string
	Capacity   int
	Tags       []string
}

func (a BuildingAttrs) Map() map[string]any {
	return map[string]any{
		"building_id": a.BuildingID,
		"capacity":    a.Capacity,
		"tags":        nonNil(a.Tags),
	}
}

// NPCAttrs.FactionID is empty for NPCs without a membership.
type NPCAttrs struct {
	Profession string
	Category   string
	FactionID  string
}

func (a NPCAttrs) Map() map[string]any {
	var faction any
	if a.FactionID != "" {
		faction = a.FactionID
	}
	return map[string]any{
		"profession": a.Profession,
		"category":   a.Category,
		"faction_id": faction,
	}
}

type FactionAttrs struct {
	ID string
}

func (a FactionAttrs) Map() map[string]any {
	return map[string]any{"id": a.ID}
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

type Node struct {
	ID       uuid.UUID
	Type     NodeType
	Name     string
	ParentID *uuid.UUID
	Slug     *string
	ChunkID  string
	Attrs    Attrs
}

type Link struct {
	ID     uuid.UUID
	SrcID  uuid.UUID
	DstID  uuid.UUID
	Type   string
	Weight *float64
	Attrs  map[string]any
}

// Chunk is the output of one generation call.
type Chunk struct {
	ChunkID     string
	ScopeNodeID uuid.UUID
	Nodes       []Node
	Links       []Link
}

// CountByType tallies nodes per node type.
func (c *Chunk) CountByType() map[NodeType]int {
	counts := make(map[NodeType]int, len(NodeTypes))
	for _, n := range c.Nodes {
		counts[n.Type]++
	}
	return counts
}

// NodeRecord is the wire and storage shape of a node.
type NodeRecord struct {
	ID       string         `json:"id"`
	NodeType string         `json:"node_type"`
	Name     string         `json:"name"`
	ParentID *string        `json:"parent_id"`
	Slug     *string        `json:"slug"`
	ChunkID  string         `json:"chunk_id"`
	Attrs    map[string]any `json:"attrs"`
}

type LinkRecord struct {
	ID       string         `json:"id"`
	SrcID    string         `json:"src_id"`
	DstID    string         `json:"dst_id"`
	LinkType string         `json:"link_type"`
	Weight   *float64       `json:"weight"`
	Attrs    map[string]any `json:"attrs"`
}

type ChunkRecord struct {
	ChunkID     string       `json:"chunk_id"`
	ScopeNodeID string       `json:"scope_node_id"`
	Nodes       []NodeRecord `json:"nodes"`
	Links       []LinkRecord `json:"links"`
}

func (n Node) Record() NodeRecord {
	rec := NodeRecord{
		ID:       n.ID.String(),
		NodeType: string(n.Type),
		Name:     n.Name,
		Slug:     n.Slug,
		ChunkID:  n.ChunkID,
		Attrs:    map[string]any{},
	}
	if n.ParentID != nil {
		p := n.ParentID.String()
		rec.ParentID = &p
	}
	if n.Attrs != nil {
		rec.Attrs = n.Attrs.Map()
	}
	return rec
}

func (l Link) Record() LinkRecord {
	attrs := l.Attrs
	if attrs == nil {
		attrs = map[string]any{}
	}
	return LinkRecord{
		ID:       l.ID.String(),
		SrcID:    l.SrcID.String(),
		DstID:    l.DstID.String(),
		LinkType: l.Type,
		Weight:   l.Weight,
		Attrs:    attrs,
	}
}

func (c *Chunk) Record() ChunkRecord {
	rec := ChunkRecord{
		ChunkID:     c.ChunkID,
		ScopeNodeID: c.ScopeNodeID.String(),
		Nodes:       make([]NodeRecord, 0, len(c.Nodes)),
		Links:       make([]LinkRecord, 0, len(c.Links)),
	}
	for _, n := range c.Nodes {
		rec.Nodes = append(rec.Nodes, n.Record())
	}
	for _, l := range c.Links {
		rec.Links = append(rec.Links, l.Record())
	}
	return rec
}

func (c *Chunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Record())
}
