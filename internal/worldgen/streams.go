package worldgen

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"

	"worldgen-server/internal/genconfig"
)

// Stream returns a generator seeded from the first 64 bits of
// SHA-256("<seed>:<name>").
func Stream(seed int64, name string) *rand.Rand {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s", seed, name)))
	return rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(sum[:8]))))
}

// streams is the per-call registry of named generators. None of them is
// ever shared between calls.
type streams struct {
	scope      *rand.Rand
	topology   *rand.Rand
	style      *rand.Rand
	population *rand.Rand
	placement  *rand.Rand
	factions   *rand.Rand
}

func newStreams(seed int64, r genconfig.Random) *streams {
	return &streams{
		scope:      Stream(seed, r.StreamName(genconfig.StreamScope)),
		topology:   Stream(seed, r.StreamName(genconfig.StreamTopology)),
		style:      Stream(seed, r.StreamName(genconfig.StreamStyle)),
		population: Stream(seed, r.StreamName(genconfig.StreamPopulation)),
		placement:  Stream(seed, r.StreamName(genconfig.StreamPlacement)),
		factions:   Stream(seed, r.StreamName(genconfig.StreamFactions)),
	}
}

// intBetween draws uniformly from the inclusive range [lo, hi].
func intBetween(r *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

func pick[T any](r *rand.Rand, items []T) T {
	return items[r.Intn(len(items))]
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}
