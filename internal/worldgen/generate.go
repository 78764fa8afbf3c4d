// Package worldgen builds deterministic world chunks: countries or single
// cities with their districts, buildings, NPCs and faction memberships.
//
// Every identifier is derived from the seed namespace and the chunk id, and
// every random draw comes from a named stream seeded from the seed, so
// generating twice with the same inputs yields the same nodes and links.
// Generate is safe for concurrent use; the configuration is only read.
package worldgen

import (
	"log/slog"

	"worldgen-server/internal/genconfig"
	"worldgen-server/internal/shared/errors"

	"github.com/google/uuid"
)

type ScopeType string

const (
	ScopeCountry ScopeType = "country"
	ScopeCity    ScopeType = "city"
)

// Scope selects what a chunk covers. NodeID fixes the id of the scope root;
// when nil the id is derived from a name drawn from the scope stream.
type Scope struct {
	Type   ScopeType
	NodeID *uuid.UUID
}

// Generate produces the chunk for scope. It fails with a configuration error
// before creating anything when the config or scope type is unusable.
func Generate(cfg *genconfig.Config, seed int64, scope Scope) (*Chunk, error) {
	if scope.Type != ScopeCountry && scope.Type != ScopeCity {
		return nil, errors.Configurationf("scope_type must be 'country' or 'city', got %q", scope.Type)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ns := Namespace(cfg.Random.Prefix(), seed)
	rng := newStreams(seed, cfg.Random)

	pool := cfg.WorldParams.NamePools.Cities
	if scope.Type == ScopeCountry {
		pool = cfg.WorldParams.NamePools.Countries
	}
	rootName := pick(rng.scope, pool)
	rootID := DeriveID(ns, string(scope.Type)+":"+rootName)
	if scope.NodeID != nil {
		rootID = *scope.NodeID
	}
	chunkID := string(scope.Type) + ":" + rootID.String()

	g := newGenContext(cfg, ns, chunkID, rng)
	switch scope.Type {
	case ScopeCountry:
		g.synthesizeCountry(rootID, rootName)
	case ScopeCity:
		g.synthesizeOrphanCity(rootID, rootName)
	}

	for _, city := range g.cities {
		g.populate(city)
	}
	g.emitFactions()

	slog.With("component", "worldgen", "operation", "generate").Debug("Chunk generated",
		"chunk_id", chunkID,
		"seed", seed,
		"cities", len(g.cities),
		"nodes", len(g.nodes),
		"links", len(g.links),
	)

	return &Chunk{
		ChunkID:     chunkID,
		ScopeNodeID: rootID,
		Nodes:       g.nodes,
		Links:       g.links,
	}, nil
}

// populate creates the city's NPCs, places them and draws their factions.
func (g *genContext) populate(city *cityState) {
	pl := newPlacer(g, city)
	pools := g.cfg.WorldParams.NamePools
	weight := MembershipWeight

	for _, entry := range g.planPopulation(city) {
		p := entry.profession
		for i := 0; i < entry.count; i++ {
			name := pick(g.rng.population, pools.GivenNames) + " " + pick(g.rng.population, pools.Surnames)

			parent := city.id
			attrs := NPCAttrs{Profession: p.ID, Category: p.Category}
			if b := pl.place(p); b != nil {
				parent = b.id
				if fid, ok := g.drawFaction(p.Category, b.district); ok {
					attrs.FactionID = fid
				}
			}

			npc := g.addNode(NodeNPC, name, &parent, attrs)
			if attrs.FactionID != "" {
				g.addLink(npc.ID, FactionNodeID(g.ns, g.chunkID, attrs.FactionID), LinkMemberOf, &weight)
			}
		}
	}
}
