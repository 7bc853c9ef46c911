package chunk

import "github.com/go-theft-craft/chunklayer/pkg/block"

const (
	// SectionWidth is the horizontal size of a chunk in blocks.
	SectionWidth = 16
	// SectionHeight is the vertical size of one section in blocks.
	SectionHeight = 16
	// SectionBlockCount is the number of blocks in one section.
	SectionBlockCount = SectionWidth * SectionWidth * SectionHeight
	// SectionBiomeCount is the number of 4×4×4 biome cells in one section.
	SectionBiomeCount = SectionBlockCount / 64
)

// Section is one 16-block-high slice of a chunk.
// Block index = x + z*16 + y*256, biome index = x + z*4 + y*16.
type Section struct {
	blockStates PalettedContainer[block.State]
	biomes      PalettedContainer[block.Biome]
}

func newSection() Section {
	return Section{
		blockStates: NewPalettedContainer(SectionBlockCount, block.Air),
		biomes:      NewPalettedContainer(SectionBiomeCount, block.DefaultBiome),
	}
}

// BlockStates returns the section's block state container.
func (s *Section) BlockStates() *PalettedContainer[block.State] {
	return &s.blockStates
}

// Biomes returns the section's biome container.
func (s *Section) Biomes() *PalettedContainer[block.Biome] {
	return &s.biomes
}

// NonAirCount returns the number of blocks in the section that are not air.
func (s *Section) NonAirCount() int {
	return s.blockStates.Count(func(st block.State) bool { return !st.IsAir() })
}

func (s *Section) clone() Section {
	return Section{
		blockStates: s.blockStates.Clone(),
		biomes:      s.biomes.Clone(),
	}
}
