package worldgen

import (
	"fmt"

	"worldgen-server/internal/genconfig"

	"github.com/google/uuid"
)

// synthesizeCountry creates the country root and its share of the world's
// cities. Each city is furnished before the next one is drawn.
func (g *genContext) synthesizeCountry(id uuid.UUID, name string) {
	attrs := CountryAttrs{
		Tech:   pick(g.rng.style, g.cfg.Styles.Technologies),
		Wealth: pick(g.rng.topology, genconfig.WealthTiers),
	}
	country := g.addFixedNode(id, NodeCountry, name, nil, attrs)

	wp := g.cfg.WorldParams
	count := CityCountForCountry(country.ID, wp.Countries, wp.CitiesTotal)
	parent := country.ID
	for i := 0; i < count; i++ {
		cityName := fmt.Sprintf("%s %d", pick(g.rng.topology, wp.NamePools.Cities), i+1)
		city := g.newCity(cityName, &parent, nil)
		g.furnishCity(city)
	}
}

// synthesizeOrphanCity creates a parentless city root for city-scoped chunks.
func (g *genContext) synthesizeOrphanCity(id uuid.UUID, name string) {
	city := g.newCity(name, nil, &id)
	g.furnishCity(city)
}

func (g *genContext) newCity(name string, parent *uuid.UUID, fixedID *uuid.UUID) *cityState {
	wp := g.cfg.WorldParams
	attrs := CityAttrs{
		DominantIndustry: pick(g.rng.topology, g.cfg.IndustryIDs()),
		Wealth:           pick(g.rng.topology, genconfig.WealthTiers),
		Density:          pick(g.rng.topology, wp.CityDensityLevels),
		PopulationTarget: intBetween(g.rng.population, wp.CitySizeRange.Min, wp.CitySizeRange.Max),
	}

	var node Node
	if fixedID != nil {
		node = g.addFixedNode(*fixedID, NodeCity, name, parent, attrs)
	} else {
		node = g.addNode(NodeCity, name, parent, attrs)
	}

	city := &cityState{id: node.ID, attrs: attrs}
	g.cities = append(g.cities, city)
	return city
}
