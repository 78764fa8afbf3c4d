package worldgen

import (
	"fmt"
	"sort"

	"worldgen-server/internal/genconfig"

	"github.com/google/uuid"
)

// genContext accumulates the output of one Generate call. Nothing in it
// outlives the call.
type genContext struct {
	cfg     *genconfig.Config
	ns      uuid.UUID
	chunkID string
	rng     *streams
	idx     *index

	nodes  []Node
	links  []Link
	seen   map[uuid.UUID]struct{}
	cities []*cityState
}

func newGenContext(cfg *genconfig.Config, ns uuid.UUID, chunkID string, rng *streams) *genContext {
	return &genContext{
		cfg:     cfg,
		ns:      ns,
		chunkID: chunkID,
		rng:     rng,
		idx:     buildIndex(cfg),
		seen:    make(map[uuid.UUID]struct{}),
	}
}

// addNode derives the node id from its key. A name that would collide with
// an existing node under the same parent gets a " #n" suffix.
func (g *genContext) addNode(t NodeType, name string, parent *uuid.UUID, attrs Attrs) Node {
	id := DeriveID(g.ns, nodeKey(g.chunkID, t, name, parent))
	if _, dup := g.seen[id]; dup {
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s #%d", name, n)
			id = DeriveID(g.ns, nodeKey(g.chunkID, t, candidate, parent))
			if _, dup := g.seen[id]; !dup {
				name = candidate
				break
			}
		}
	}
	return g.addFixedNode(id, t, name, parent, attrs)
}

func (g *genContext) addFixedNode(id uuid.UUID, t NodeType, name string, parent *uuid.UUID, attrs Attrs) Node {
	node := Node{
		ID:       id,
		Type:     t,
		Name:     name,
		ParentID: parent,
		ChunkID:  g.chunkID,
		Attrs:    attrs,
	}
	g.seen[id] = struct{}{}
	g.nodes = append(g.nodes, node)
	return node
}

func (g *genContext) addLink(src, dst uuid.UUID, linkType string, weight *float64) {
	g.links = append(g.links, Link{
		ID:     DeriveID(g.ns, linkKey(g.chunkID, src, dst, linkType)),
		SrcID:  src,
		DstID:  dst,
		Type:   linkType,
		Weight: weight,
		Attrs:  map[string]any{},
	})
}

// index holds config lookups computed once per call.
type index struct {
	templatesByArchetype map[string][]genconfig.BuildingTemplate
	professionsByCat     map[string][]genconfig.Profession
}

func buildIndex(cfg *genconfig.Config) *index {
	idx := &index{
		templatesByArchetype: make(map[string][]genconfig.BuildingTemplate),
		professionsByCat:     make(map[string][]genconfig.Profession),
	}
	for _, b := range cfg.Buildings {
		for _, arch := range b.PreferredDistricts {
			idx.templatesByArchetype[arch] = append(idx.templatesByArchetype[arch], b)
		}
	}
	for _, p := range cfg.Professions {
		idx.professionsByCat[p.Category] = append(idx.professionsByCat[p.Category], p)
	}
	return idx
}

// templatesFor returns the templates preferring archetype, or the whole
// catalog when none does.
func (idx *index) templatesFor(cfg *genconfig.Config, archetype string) []genconfig.BuildingTemplate {
	if t := idx.templatesByArchetype[archetype]; len(t) > 0 {
		return t
	}
	return cfg.Buildings
}

type cityState struct {
	id        uuid.UUID
	attrs     CityAttrs
	districts []*district
	buildings []*building
}

type district struct {
	id        uuid.UUID
	name      string
	archetype string
	buildings []*building
}

type building struct {
	id           uuid.UUID
	district     *district
	templateID   string
	tags         []string
	capacityLeft int
}

func (c *cityState) addBuilding(d *district, b *building) {
	b.district = d
	d.buildings = append(d.buildings, b)
	c.buildings = append(c.buildings, b)
}

// facilityTags is the set of tags across every building in the city.
func (c *cityState) facilityTags() map[string]struct{} {
	tags := make(map[string]struct{})
	for _, b := range c.buildings {
		for _, t := range b.tags {
			tags[t] = struct{}{}
		}
	}
	return tags
}

// tags returns the distinct building tags of the district in sorted order.
func (d *district) tags() []string {
	set := make(map[string]struct{})
	for _, b := range d.buildings {
		for _, t := range b.tags {
			set[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
