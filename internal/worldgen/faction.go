package worldgen

import (
	"worldgen-server/internal/genconfig"
)

type factionWeight struct {
	id     string
	weight float64
}

// factionWeights computes the influence of every faction admitting category
// over district d. Non-positive weights are dropped; configured order is kept.
func factionWeights(factions []genconfig.Faction, category string, d *district) []factionWeight {
	tags := d.tags()
	var out []factionWeight
	for _, f := range factions {
		if !f.Admits(category) {
			continue
		}
		w := f.Influence.Country["base"]
		w += f.Influence.City[d.archetype]
		for _, t := range tags {
			w += f.Influence.DistrictTags[t]
		}
		if w > 0 {
			out = append(out, factionWeight{id: f.ID, weight: w})
		}
	}
	return out
}

// drawFaction samples a faction for an NPC of category living in d. The
// second result is false when no faction is eligible.
func (g *genContext) drawFaction(category string, d *district) (string, bool) {
	weights := factionWeights(g.cfg.Factions, category, d)
	if len(weights) == 0 {
		return "", false
	}

	total := 0.0
	for _, fw := range weights {
		total += fw.weight
	}

	draw := g.rng.factions.Float64() * total
	acc := 0.0
	for _, fw := range weights {
		acc += fw.weight
		if draw <= acc {
			return fw.id, true
		}
	}
	return weights[len(weights)-1].id, true
}

// emitFactions adds one node per configured faction, members or not.
func (g *genContext) emitFactions() {
	for _, f := range g.cfg.Factions {
		id := FactionNodeID(g.ns, g.chunkID, f.ID)
		g.addFixedNode(id, NodeFaction, titleCase(f.ID), nil, FactionAttrs{ID: f.ID})
	}
}
