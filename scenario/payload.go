package scenario

import (
	"math/rand"
)

// PayloadGenerator builds random nested JSON objects from dictionary words
type PayloadGenerator struct {
	dict     *Dictionary
	maxDepth int
	maxNodes int
	rng      *rand.Rand
}

func NewPayloadGenerator(dict *Dictionary, maxDepth, maxNodes int, rng *rand.Rand) *PayloadGenerator {
	if maxDepth == 0 {
		maxDepth = 3
	}
	if maxNodes == 0 {
		maxNodes = 6
	}
	return &PayloadGenerator{
		dict:     dict,
		maxDepth: maxDepth,
		maxNodes: maxNodes,
		rng:      rng,
	}
}

// Object returns an object with 1 to maxNodes keys, nesting with a 30% chance per key
func (g *PayloadGenerator) Object(depth int) map[string]any {
	if depth >= g.maxDepth {
		return map[string]any{g.dict.RandomWord(g.rng): g.dict.RandomWord(g.rng)}
	}

	count := g.rng.Intn(g.maxNodes) + 1
	obj := make(map[string]any, count)
	for i := 0; i < count; i++ {
		key := g.dict.RandomWord(g.rng)
		switch {
		case depth < g.maxDepth-1 && g.rng.Float32() < 0.3:
			obj[key] = g.Object(depth + 1)
		case g.rng.Float32() < 0.2:
			obj[key] = g.rng.Intn(1000)
		default:
			obj[key] = g.dict.RandomWord(g.rng)
		}
	}
	return obj
}
