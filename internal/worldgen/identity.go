package worldgen

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// Namespace derives the per-seed UUID namespace from the first 16 bytes of
// SHA-256("<prefix>:<seed>").
func Namespace(prefix string, seed int64) uuid.UUID {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", prefix, seed)))
	var ns uuid.UUID
	copy(ns[:], sum[:16])
	return ns
}

// DeriveID returns the version 5 UUID of key within ns.
func DeriveID(ns uuid.UUID, key string) uuid.UUID {
	return uuid.NewSHA1(ns, []byte(key))
}

func nodeKey(chunkID string, t NodeType, name string, parent *uuid.UUID) string {
	p := ""
	if parent != nil {
		p = parent.String()
	}
	return chunkID + ":" + string(t) + ":" + name + ":" + p
}

func linkKey(chunkID string, src, dst uuid.UUID, linkType string) string {
	return chunkID + ":link:" + src.String() + ":" + dst.String() + ":" + linkType
}

// FactionNodeID is the fixed id of a faction inside a chunk.
func FactionNodeID(ns uuid.UUID, chunkID, factionID string) uuid.UUID {
	return DeriveID(ns, chunkID+":faction:"+factionID)
}

// CityCountForCountry splits citiesTotal across countries. The remainder goes
// to the countries whose id, read as a 128-bit integer modulo countries,
// falls below it, so summing over one country per index yields citiesTotal.
func CityCountForCountry(countryID uuid.UUID, countries, citiesTotal int) int {
	if countries < 1 {
		countries = 1
	}
	base := citiesTotal / countries
	remainder := citiesTotal % countries

	idx := new(big.Int).SetBytes(countryID[:])
	idx.Mod(idx, big.NewInt(int64(countries)))
	if idx.Int64() < int64(remainder) {
		return base + 1
	}
	return base
}
