package block

// Biome is an index into the biome registry sent to the client.
type Biome uint16

// DefaultBiome is the biome new sections are filled with.
const DefaultBiome Biome = 0

// ToIndex returns the registry index of b.
func (b Biome) ToIndex() uint32 {
	return uint32(b)
}
