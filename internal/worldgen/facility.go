package worldgen

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// Buildings drawn per district before the city-wide cap applies.
const (
	minBuildingsPerDistrict = 5
	maxBuildingsPerDistrict = 20
)

// furnishCity lays out districts and fills them with buildings until the
// city's building cap is reached. Floors and rooms are not generated.
func (g *genContext) furnishCity(city *cityState) {
	wp := g.cfg.WorldParams
	count := intBetween(g.rng.topology, wp.DistrictPerCityRange.Min, wp.DistrictPerCityRange.Max)

	cityID := city.id
	for i := 0; i < count; i++ {
		arch := pick(g.rng.style, g.cfg.Styles.DistrictArchetypes)
		name := fmt.Sprintf("%s District %d", capitalize(arch.ID), i+1)
		node := g.addNode(NodeDistrict, name, &cityID, DistrictAttrs{
			Archetype:  arch.ID,
			Pollution:  arch.Pollution(),
			WealthBias: arch.Wealth(),
			Tags:       arch.Tags,
		})
		city.districts = append(city.districts, &district{
			id:        node.ID,
			name:      strings.ToLower(node.Name),
			archetype: arch.ID,
		})
	}

	limit := g.cfg.CityBuildingCap()
	built := 0
	for _, d := range city.districts {
		target := intBetween(g.rng.topology, minBuildingsPerDistrict, maxBuildingsPerDistrict)
		candidates := g.idx.templatesFor(g.cfg, d.archetype)
		districtID := d.id
		for j := 0; j < target; j++ {
			tpl := pick(g.rng.topology, candidates)
			capacity := int(math.Round(float64(tpl.BaseCapacity) * uniform(g.rng.topology, 0.9, 1.1)))
			name := fmt.Sprintf("%s %d", titleCase(tpl.ID), j+1)
			node := g.addNode(NodeBuilding, name, &districtID, BuildingAttrs{
				BuildingID: tpl.ID,
				Capacity:   capacity,
				Tags:       tpl.Tags,
			})
			city.addBuilding(d, &building{
				id:           node.ID,
				templateID:   tpl.ID,
				tags:         tpl.Tags,
				capacityLeft: capacity,
			})
			built++
			if built >= limit {
				return
			}
		}
	}
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// titleCase turns an identifier like "dry_dock" into "Dry Dock".
func titleCase(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "_", " "))
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}
