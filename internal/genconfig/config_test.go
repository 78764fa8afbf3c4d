package genconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"worldgen-server/internal/shared/errors"
)

const minimalYAML = `
world_params:
  countries: 1
  cities_total: 1
  city_size_range: [10, 20]
  district_per_city_range: [1, 2]
  building_count_target: 4
  city_density_levels: [dense]
  name_pools:
    countries: [Brassmoor]
    cities: [Gearford]
    given_names: [Ada]
    surnames: [Cogsworth]
styles:
  technologies: [steam]
  district_archetypes:
    - id: industrial
buildings:
  - id: tenement
    base_capacity: 40
    tags: [residential]
professions:
  - id: lamplighter
    category: service
    allowed_building_tags: [residential]
factions:
  - id: soot_union
    admits_categories: [service]
ratios:
  - key: [manufacturing, low]
    categories: {service: 1.0}
placement_rules:
  diversity:
    max_same_profession_pct_per_district: 0.5
  failsafe:
    overflow_building: tenement
`

func TestLoad_SampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "shared", "steampunk_gen_config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WorldParams.Countries != 3 || cfg.WorldParams.CitiesTotal != 8 {
		t.Fatalf("unexpected world params: %+v", cfg.WorldParams)
	}
	if cfg.WorldParams.CitySizeRange != (Range{Min: 120, Max: 400}) {
		t.Fatalf("city_size_range: got %+v", cfg.WorldParams.CitySizeRange)
	}
	if len(cfg.Factions) == 0 || len(cfg.Ratios) == 0 {
		t.Fatalf("expected factions and ratios to be loaded")
	}
	if got := cfg.PlacementRules.Failsafe.OverflowBuilding; got != "boarding_house" {
		t.Fatalf("overflow building: got %q", got)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := cfg.Random.Prefix(); got != DefaultNamespacePrefix {
		t.Fatalf("prefix: got %q", got)
	}
	if got := cfg.Random.StreamName(StreamPlacement); got != StreamPlacement {
		t.Fatalf("stream name: got %q", got)
	}
	if got := cfg.PlacementRules.Failsafe.Capacity(); got != DefaultOverflowCapacity {
		t.Fatalf("overflow capacity: got %d", got)
	}
	if got := cfg.Professions[0].EffectiveWeight(); got != 1.0 {
		t.Fatalf("weight: got %v", got)
	}
	if got := cfg.IndustryIDs(); len(got) != len(DefaultIndustries) {
		t.Fatalf("industries: got %v", got)
	}
	if got := cfg.Styles.DistrictArchetypes[0].Pollution(); got != "medium" {
		t.Fatalf("pollution default: got %q", got)
	}
	if got := cfg.CityBuildingCap(); got != 4 {
		t.Fatalf("city building cap: got %d", got)
	}
}

func TestParse_StreamOverrides(t *testing.T) {
	raw := minimalYAML + `
random:
  namespace_prefix: clockwork
  streams:
    topology: topo-v2
`
	cfg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := cfg.Random.StreamName(StreamTopology); got != "topo-v2" {
		t.Fatalf("topology stream: got %q", got)
	}
	if got := cfg.Random.StreamName(StreamStyle); got != StreamStyle {
		t.Fatalf("style stream: got %q", got)
	}
	if got := cfg.Random.Prefix(); got != "clockwork" {
		t.Fatalf("prefix: got %q", got)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(string) string
		wantMsg string
	}{
		{
			name:    "missing ratios section",
			mutate:  func(s string) string { return s[:strings.Index(s, "ratios:")] + s[strings.Index(s, "placement_rules:"):] },
			wantMsg: "schema",
		},
		{
			name:    "range with three elements",
			mutate:  func(s string) string { return strings.Replace(s, "[10, 20]", "[10, 20, 30]", 1) },
			wantMsg: "schema",
		},
		{
			name:    "inverted range",
			mutate:  func(s string) string { return strings.Replace(s, "[1, 2]", "[3, 2]", 1) },
			wantMsg: "inverted",
		},
		{
			name: "industry references unknown building",
			mutate: func(s string) string {
				return s + "industries:\n  - id: mining\n    required_buildings: [mine_head]\n"
			},
			wantMsg: "unknown building",
		},
		{
			name:    "diversity cap out of bounds",
			mutate:  func(s string) string { return strings.Replace(s, "0.5", "1.5", 1) },
			wantMsg: "schema",
		},
		{
			name: "duplicate building template",
			mutate: func(s string) string {
				return strings.Replace(s, "buildings:\n", "buildings:\n  - id: tenement\n    base_capacity: 5\n", 1)
			},
			wantMsg: "duplicate building",
		},
		{
			name:    "not yaml",
			mutate:  func(string) string { return "world_params: [" },
			wantMsg: "YAML",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.mutate(minimalYAML)))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, errors.ErrorTypeConfiguration) {
				t.Fatalf("expected configuration error, got %v (%s)", err, errors.GetType(err))
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.wantMsg)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, errors.ErrorTypeConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLoad_FromTempDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Buildings[0].ID != "tenement" {
		t.Fatalf("buildings: %+v", cfg.Buildings)
	}
}

func TestValidate_NilConfig(t *testing.T) {
	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, errors.ErrorTypeConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
