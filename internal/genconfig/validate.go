package genconfig

import (
	"worldgen-server/internal/shared/errors"
)

// Validate performs the checks a schema cannot express. It is also run by
// the generator so hand-built configs get the same treatment as loaded ones.
func (c *Config) Validate() error {
	if c == nil {
		return errors.Configurationf("generation config is missing")
	}

	wp := c.WorldParams
	if wp.Countries < 1 {
		return errors.Configurationf("world_params.countries must be at least 1, got %d", wp.Countries)
	}
	if wp.CitiesTotal < 0 {
		return errors.Configurationf("world_params.cities_total must not be negative, got %d", wp.CitiesTotal)
	}
	if err := checkRange("world_params.city_size_range", wp.CitySizeRange, 0); err != nil {
		return err
	}
	if err := checkRange("world_params.district_per_city_range", wp.DistrictPerCityRange, 0); err != nil {
		return err
	}
	if len(wp.CityDensityLevels) == 0 {
		return errors.Configurationf("world_params.city_density_levels must not be empty")
	}

	pools := map[string][]string{
		"countries":   wp.NamePools.Countries,
		"cities":      wp.NamePools.Cities,
		"given_names": wp.NamePools.GivenNames,
		"surnames":    wp.NamePools.Surnames,
	}
	for name, pool := range pools {
		if len(pool) == 0 {
			return errors.Configurationf("world_params.name_pools.%s must not be empty", name)
		}
	}

	if len(c.Styles.Technologies) == 0 {
		return errors.Configurationf("styles.technologies must not be empty")
	}
	if len(c.Styles.DistrictArchetypes) == 0 {
		return errors.Configurationf("styles.district_archetypes must not be empty")
	}

	if len(c.Buildings) == 0 {
		return errors.Configurationf("buildings must declare at least one template")
	}
	templates := make(map[string]struct{}, len(c.Buildings))
	for _, b := range c.Buildings {
		if b.ID == "" {
			return errors.Configurationf("building template without id")
		}
		if _, dup := templates[b.ID]; dup {
			return errors.Configurationf("duplicate building template %q", b.ID)
		}
		if b.BaseCapacity < 0 {
			return errors.Configurationf("building %q has negative base_capacity", b.ID)
		}
		templates[b.ID] = struct{}{}
	}

	professions := make(map[string]struct{}, len(c.Professions))
	for _, p := range c.Professions {
		if p.ID == "" || p.Category == "" {
			return errors.Configurationf("profession entries need both id and category")
		}
		if _, dup := professions[p.ID]; dup {
			return errors.Configurationf("duplicate profession %q", p.ID)
		}
		if p.Weight != nil && *p.Weight < 0 {
			return errors.Configurationf("profession %q has negative weight", p.ID)
		}
		professions[p.ID] = struct{}{}
	}

	factions := make(map[string]struct{}, len(c.Factions))
	for _, f := range c.Factions {
		if f.ID == "" {
			return errors.Configurationf("faction without id")
		}
		if _, dup := factions[f.ID]; dup {
			return errors.Configurationf("duplicate faction %q", f.ID)
		}
		factions[f.ID] = struct{}{}
	}

	for _, ind := range c.Industries {
		for _, req := range ind.RequiredBuildings {
			if _, ok := templates[req]; !ok {
				return errors.Configurationf("industry %q requires unknown building %q", ind.ID, req)
			}
		}
	}

	if len(c.Ratios) == 0 {
		return errors.Configurationf("ratios must declare at least one entry")
	}
	for i, r := range c.Ratios {
		if len(r.Key) != 2 {
			return errors.Configurationf("ratios[%d].key must be [industry, wealth]", i)
		}
		for cat, share := range r.Categories {
			if share < 0 {
				return errors.Configurationf("ratios[%d] share for %q is negative", i, cat)
			}
		}
	}

	pct := c.PlacementRules.Diversity.MaxSameProfessionPctPerDistrict
	if pct <= 0 || pct > 1 {
		return errors.Configurationf("placement_rules.diversity.max_same_profession_pct_per_district must be in (0, 1], got %v", pct)
	}
	if c.PlacementRules.Failsafe.OverflowBuilding == "" {
		return errors.Configurationf("placement_rules.failsafe.overflow_building is required")
	}
	return nil
}

func checkRange(field string, r Range, floor int) error {
	if r.Min < floor {
		return errors.Configurationf("%s lower bound must be at least %d, got %d", field, floor, r.Min)
	}
	if r.Min > r.Max {
		return errors.Configurationf("%s is inverted: [%d, %d]", field, r.Min, r.Max)
	}
	return nil
}
