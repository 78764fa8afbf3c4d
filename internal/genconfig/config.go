// Package genconfig holds the world generation configuration: world
// parameters, building archetypes, professions, factions, ratio tables and
// placement rules. A Config is read-only once loaded and may be shared by
// concurrent generation calls.
package genconfig

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	DefaultNamespacePrefix  = "steampunk"
	DefaultOverflowCapacity = 100
)

// Stream concerns. Each maps to an independently seeded random stream.
const (
	StreamScope      = "scope"
	StreamTopology   = "topology"
	StreamStyle      = "style"
	StreamPopulation = "population"
	StreamPlacement  = "placement"
	StreamFactions   = "factions"
)

// DefaultIndustries is used when the configuration declares no industries.
var DefaultIndustries = []string{"manufacturing", "shipyard", "academia", "mining"}

// WealthTiers are the wealth levels drawn for countries and cities.
var WealthTiers = []string{"low", "medium", "high"}

type Config struct {
	WorldParams    WorldParams        `yaml:"world_params"`
	Styles         Styles             `yaml:"styles"`
	Buildings      []BuildingTemplate `yaml:"buildings"`
	Professions    []Profession       `yaml:"professions"`
	Factions       []Faction          `yaml:"factions"`
	Industries     []Industry         `yaml:"industries"`
	Ratios         []RatioEntry       `yaml:"ratios"`
	PlacementRules PlacementRules     `yaml:"placement_rules"`
	Random         Random             `yaml:"random"`
}

type WorldParams struct {
	Countries            int       `yaml:"countries"`
	CitiesTotal          int       `yaml:"cities_total"`
	CitySizeRange        Range     `yaml:"city_size_range"`
	DistrictPerCityRange Range     `yaml:"district_per_city_range"`
	BuildingCountTarget  int       `yaml:"building_count_target"`
	CityDensityLevels    []string  `yaml:"city_density_levels"`
	NamePools            NamePools `yaml:"name_pools"`
}

type NamePools struct {
	Countries  []string `yaml:"countries"`
	Cities     []string `yaml:"cities"`
	GivenNames []string `yaml:"given_names"`
	Surnames   []string `yaml:"surnames"`
}

// Range is an inclusive integer interval written as a two element list.
type Range struct {
	Min int
	Max int
}

func (r *Range) UnmarshalYAML(value *yaml.Node) error {
	var bounds []int
	if err := value.Decode(&bounds); err != nil {
		return err
	}
	if len(bounds) != 2 {
		return fmt.Errorf("line %d: range must have exactly two elements, got %d", value.Line, len(bounds))
	}
	r.Min, r.Max = bounds[0], bounds[1]
	return nil
}

func (r Range) MarshalYAML() (interface{}, error) {
	return []int{r.Min, r.Max}, nil
}

type Styles struct {
	Technologies       []string            `yaml:"technologies"`
	DistrictArchetypes []DistrictArchetype `yaml:"district_archetypes"`
}

type DistrictArchetype struct {
	ID            string   `yaml:"id"`
	PollutionBias string   `yaml:"pollution_bias"`
	WealthBias    string   `yaml:"wealth_bias"`
	Tags          []string `yaml:"tags"`
}

// Pollution returns the archetype's pollution bias, "medium" when unset.
func (a DistrictArchetype) Pollution() string {
	if a.PollutionBias == "" {
		return "medium"
	}
	return a.PollutionBias
}

// Wealth returns the archetype's wealth bias, "medium" when unset.
func (a DistrictArchetype) Wealth() string {
	if a.WealthBias == "" {
		return "medium"
	}
	return a.WealthBias
}

type BuildingTemplate struct {
	ID                 string   `yaml:"id"`
	BaseCapacity       int      `yaml:"base_capacity"`
	Tags               []string `yaml:"tags"`
	PreferredDistricts []string `yaml:"preferred_districts"`
}

type Profession struct {
	ID                   string   `yaml:"id"`
	Category             string   `yaml:"category"`
	Weight               *float64 `yaml:"weight"`
	RequiresFacilityTags []string `yaml:"requires_facility_tags"`
	AllowedBuildingTags  []string `yaml:"allowed_building_tags"`
	PreferredDistricts   []string `yaml:"preferred_districts"`
}

// EffectiveWeight is the configured weight, 1 when omitted.
func (p Profession) EffectiveWeight() float64 {
	if p.Weight == nil {
		return 1.0
	}
	return *p.Weight
}

type Faction struct {
	ID               string    `yaml:"id"`
	AdmitsCategories []string  `yaml:"admits_categories"`
	Influence        Influence `yaml:"influence"`
}

// Admits reports whether members of category may join the faction.
func (f Faction) Admits(category string) bool {
	for _, c := range f.AdmitsCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Influence weights. Country holds the "base" weight, City is keyed by
// district archetype and DistrictTags by building tag.
type Influence struct {
	Country      map[string]float64 `yaml:"country"`
	City         map[string]float64 `yaml:"city"`
	DistrictTags map[string]float64 `yaml:"district_tags"`
}

type Industry struct {
	ID                string   `yaml:"id"`
	RequiredBuildings []string `yaml:"required_buildings"`
}

// RatioEntry maps a (dominant industry, wealth) key to category shares.
type RatioEntry struct {
	Key        []string           `yaml:"key"`
	Categories map[string]float64 `yaml:"categories"`
}

func (r RatioEntry) Matches(industry, wealth string) bool {
	return len(r.Key) == 2 && r.Key[0] == industry && r.Key[1] == wealth
}

type PlacementRules struct {
	Diversity Diversity `yaml:"diversity"`
	Failsafe  Failsafe  `yaml:"failsafe"`
}

type Diversity struct {
	MaxSameProfessionPctPerDistrict float64 `yaml:"max_same_profession_pct_per_district"`
}

type Failsafe struct {
	OverflowBuilding        string `yaml:"overflow_building"`
	CreateOverflowIfMissing bool   `yaml:"create_overflow_if_missing"`
	OverflowCapacity        int    `yaml:"overflow_capacity"`
}

// Capacity of a synthesized overflow building.
func (f Failsafe) Capacity() int {
	if f.OverflowCapacity <= 0 {
		return DefaultOverflowCapacity
	}
	return f.OverflowCapacity
}

type Random struct {
	NamespacePrefix string            `yaml:"namespace_prefix"`
	Streams         map[string]string `yaml:"streams"`
}

// StreamName resolves the configured stream name for a concern; the concern
// itself is the default.
func (r Random) StreamName(concern string) string {
	if name, ok := r.Streams[concern]; ok && name != "" {
		return name
	}
	return concern
}

func (r Random) Prefix() string {
	if r.NamespacePrefix == "" {
		return DefaultNamespacePrefix
	}
	return r.NamespacePrefix
}

// IndustryIDs lists the dominant industries a city can be assigned.
func (c *Config) IndustryIDs() []string {
	if len(c.Industries) == 0 {
		return DefaultIndustries
	}
	ids := make([]string, 0, len(c.Industries))
	for _, ind := range c.Industries {
		ids = append(ids, ind.ID)
	}
	return ids
}

// CityBuildingCap is the number of buildings each city may hold.
func (c *Config) CityBuildingCap() int {
	cities := c.WorldParams.CitiesTotal
	if cities < 1 {
		cities = 1
	}
	perCity := c.WorldParams.BuildingCountTarget / cities
	if perCity < 1 {
		return 1
	}
	return perCity
}
