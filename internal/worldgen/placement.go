package worldgen

import (
	"fmt"
	"sort"

	"worldgen-server/internal/genconfig"
)

// Districts at or below this many placed NPCs are exempt from the diversity cap.
const diversityGrace = 5

var overflowTags = []string{"residential", "overflow"}

type districtProfession struct {
	district *district
	id       string
}

// placer owns the capacity and diversity counters of one city.
type placer struct {
	g    *genContext
	city *cityState

	placed       map[*district]int
	byProfession map[districtProfession]int
	overflows    int
}

func newPlacer(g *genContext, city *cityState) *placer {
	return &placer{
		g:            g,
		city:         city,
		placed:       make(map[*district]int),
		byProfession: make(map[districtProfession]int),
	}
}

// place finds a building for one NPC of profession p. A nil result means the
// NPC belongs to the city itself.
func (pl *placer) place(p genconfig.Profession) *building {
	maxShare := pl.g.cfg.PlacementRules.Diversity.MaxSameProfessionPctPerDistrict
	for _, b := range pl.candidates(p) {
		if b.capacityLeft <= 0 {
			continue
		}
		total := pl.placed[b.district]
		if total > diversityGrace {
			cur := pl.byProfession[districtProfession{b.district, p.ID}]
			if float64(cur+1)/float64(total+1) > maxShare {
				continue
			}
		}
		pl.commit(b, p)
		return b
	}

	failsafe := pl.g.cfg.PlacementRules.Failsafe
	for _, b := range pl.city.buildings {
		if b.templateID == failsafe.OverflowBuilding && b.capacityLeft > 0 {
			pl.commit(b, p)
			return b
		}
	}

	if failsafe.CreateOverflowIfMissing && len(pl.city.districts) > 0 {
		b := pl.createOverflow(failsafe)
		pl.commit(b, p)
		return b
	}
	return nil
}

// candidates lists buildings sharing a tag with the profession's allowed
// tags, preferred districts first and city order otherwise.
func (pl *placer) candidates(p genconfig.Profession) []*building {
	allowed := make(map[string]struct{}, len(p.AllowedBuildingTags))
	for _, t := range p.AllowedBuildingTags {
		allowed[t] = struct{}{}
	}

	var out []*building
	for _, b := range pl.city.buildings {
		for _, t := range b.tags {
			if _, ok := allowed[t]; ok {
				out = append(out, b)
				break
			}
		}
	}

	if len(p.PreferredDistricts) > 0 {
		preferred := make(map[string]struct{}, len(p.PreferredDistricts))
		for _, d := range p.PreferredDistricts {
			preferred[d] = struct{}{}
		}
		isPreferred := func(b *building) bool {
			if _, ok := preferred[b.district.name]; ok {
				return true
			}
			_, ok := preferred[b.district.archetype]
			return ok
		}
		sort.SliceStable(out, func(i, j int) bool {
			return isPreferred(out[i]) && !isPreferred(out[j])
		})
	}
	return out
}

func (pl *placer) commit(b *building, p genconfig.Profession) {
	b.capacityLeft--
	pl.placed[b.district]++
	pl.byProfession[districtProfession{b.district, p.ID}]++
}

// createOverflow adds an overflow building to a district drawn from the
// placement stream. It becomes part of the city's building set.
func (pl *placer) createOverflow(failsafe genconfig.Failsafe) *building {
	g := pl.g
	d := pick(g.rng.placement, pl.city.districts)

	pl.overflows++
	name := titleCase(failsafe.OverflowBuilding) + " Overflow"
	if pl.overflows > 1 {
		name = fmt.Sprintf("%s %d", name, pl.overflows)
	}

	capacity := failsafe.Capacity()
	districtID := d.id
	node := g.addNode(NodeBuilding, name, &districtID, BuildingAttrs{
		BuildingID: failsafe.OverflowBuilding,
		Capacity:   capacity,
		Tags:       overflowTags,
	})

	b := &building{
		id:           node.ID,
		templateID:   failsafe.OverflowBuilding,
		tags:         overflowTags,
		capacityLeft: capacity,
	}
	pl.city.addBuilding(d, b)
	return b
}
