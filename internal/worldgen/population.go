package worldgen

import (
	"math"
	"sort"

	"worldgen-server/internal/genconfig"
)

type planEntry struct {
	profession genconfig.Profession
	count      int
}

// ratioFor picks the ratio entry for the city, falling back to the first
// configured entry.
func (g *genContext) ratioFor(attrs CityAttrs) genconfig.RatioEntry {
	for _, r := range g.cfg.Ratios {
		if r.Matches(attrs.DominantIndustry, attrs.Wealth) {
			return r
		}
	}
	return g.cfg.Ratios[0]
}

// planPopulation turns the city's population target into per-profession
// counts. Counts are rounded per category and per profession and are not
// rebalanced afterwards, so the total may drift from the target.
func (g *genContext) planPopulation(city *cityState) []planEntry {
	ratio := g.ratioFor(city.attrs)
	facilities := city.facilityTags()

	categories := make([]string, 0, len(ratio.Categories))
	for cat := range ratio.Categories {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	target := float64(city.attrs.PopulationTarget)
	var plan []planEntry
	for _, cat := range categories {
		eligible := eligibleProfessions(g.idx.professionsByCat[cat], facilities)
		if len(eligible) == 0 {
			continue
		}

		catCount := math.RoundToEven(target * ratio.Categories[cat])
		weightSum := 0.0
		for _, p := range eligible {
			weightSum += p.EffectiveWeight()
		}
		if weightSum == 0 {
			weightSum = 1
		}
		for _, p := range eligible {
			n := int(math.RoundToEven(catCount * p.EffectiveWeight() / weightSum))
			plan = append(plan, planEntry{profession: p, count: n})
		}
	}
	return plan
}

// eligibleProfessions keeps professions without facility requirements and
// those with at least one required tag present in the city.
func eligibleProfessions(professions []genconfig.Profession, facilities map[string]struct{}) []genconfig.Profession {
	var out []genconfig.Profession
	for _, p := range professions {
		if len(p.RequiresFacilityTags) == 0 {
			out = append(out, p)
			continue
		}
		for _, tag := range p.RequiresFacilityTags {
			if _, ok := facilities[tag]; ok {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
