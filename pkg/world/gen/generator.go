// Package gen produces the initial contents of chunks that are not stored
// anywhere.
package gen

import (
	"fmt"

	"github.com/go-theft-craft/chunklayer/pkg/world/chunk"
)

// Generator produces chunk data deterministically from a seed.
type Generator interface {
	// Generate returns a new chunk of the given height for the chunk
	// column at (chunkX, chunkZ).
	Generate(chunkX, chunkZ int32, height int) *chunk.Chunk
}

// HeightFinder is implemented by generators that know their terrain height
// without generating a chunk.
type HeightFinder interface {
	// HeightAt returns the local Y of the topmost generated block at
	// block column (x, z), or -1 if the column is empty.
	HeightAt(x, z int) int
}

// SpawnY returns the local Y a player standing on the terrain of g at block
// column (x, z) occupies. Generators that are not HeightFinders spawn at 0.
func SpawnY(g Generator, x, z int) int {
	if hf, ok := g.(HeightFinder); ok {
		return hf.HeightAt(x, z) + 1
	}
	return 0
}

// New returns the generator registered under kind. Known kinds are "flat"
// and "void".
func New(kind string, seed int64) (Generator, error) {
	switch kind {
	case "flat", "":
		return NewFlatGenerator(seed), nil
	case "void":
		return VoidGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown generator type %q", kind)
	}
}

// VoidGenerator generates chunks of air.
type VoidGenerator struct{}

func (VoidGenerator) Generate(_, _ int32, height int) *chunk.Chunk {
	return chunk.WithHeight(height)
}
