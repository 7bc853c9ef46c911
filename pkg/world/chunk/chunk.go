// Package chunk holds the block, biome and block entity data of a single
// chunk column, independent of any network state.
//
// All coordinates are local to the chunk. Block coordinates range over
// x, z in [0,16) and y in [0,Height()); biome coordinates address 4×4×4
// cells, so x, z in [0,4) and y in [0,Height()/4). Passing coordinates
// outside those ranges is a programming error and panics.
package chunk

import (
	"fmt"
	"slices"

	"github.com/go-theft-craft/chunklayer/pkg/block"
	"github.com/go-theft-craft/chunklayer/pkg/world/nbt"
)

// Chunk is a column of sections plus the block entities inside it.
type Chunk struct {
	sections      []Section
	blockEntities map[uint32]nbt.Compound
}

// New creates an empty chunk with a height of zero.
func New() *Chunk {
	return &Chunk{blockEntities: make(map[uint32]nbt.Compound)}
}

// WithHeight creates a chunk of air with the given height, which must be a
// multiple of 16.
func WithHeight(height int) *Chunk {
	c := New()
	c.SetHeight(height)
	return c
}

// Height returns the height of the chunk in blocks.
func (c *Chunk) Height() int {
	return len(c.sections) * SectionHeight
}

// SetHeight resizes the chunk. Sections beyond the new height are dropped
// along with their block entities; new sections are filled with air and the
// default biome. height must be a non-negative multiple of 16.
func (c *Chunk) SetHeight(height int) {
	if height < 0 || height%SectionHeight != 0 {
		panic(fmt.Sprintf("chunk: height %d is not a non-negative multiple of %d", height, SectionHeight))
	}

	count := height / SectionHeight
	if count < len(c.sections) {
		c.sections = slices.Delete(c.sections, count, len(c.sections))
		for idx := range c.blockEntities {
			if int(idx)/(SectionWidth*SectionWidth) >= height {
				delete(c.blockEntities, idx)
			}
		}
		return
	}
	for len(c.sections) < count {
		c.sections = append(c.sections, newSection())
	}
}

// SectionCount returns the number of sections in the chunk.
func (c *Chunk) SectionCount() int {
	return len(c.sections)
}

// Section returns the section at index sectY, counted from the bottom.
func (c *Chunk) Section(sectY int) *Section {
	c.checkSection(sectY)
	return &c.sections[sectY]
}

// BlockState returns the block state at the given local coordinates.
func (c *Chunk) BlockState(x, y, z int) block.State {
	c.checkBlock(x, y, z)
	return c.sections[y/SectionHeight].blockStates.Get(sectionBlockIndex(x, y, z))
}

// SetBlockState sets the block state at the given coordinates and returns
// the previous state. If the block entity kind changes, any block entity
// stored at the position is removed.
func (c *Chunk) SetBlockState(x, y, z int, state block.State) block.State {
	c.checkBlock(x, y, z)
	old := c.sections[y/SectionHeight].blockStates.Set(sectionBlockIndex(x, y, z), state)
	if old != state {
		oldKind, _ := old.BlockEntityKind()
		newKind, _ := state.BlockEntityKind()
		if oldKind != newKind {
			delete(c.blockEntities, blockIndex(x, y, z))
		}
	}
	return old
}

// FillBlockStateSection sets every block in section sectY to state. Block
// entities in the section are kept; they are filtered out when the chunk is
// encoded if the new state does not carry one.
func (c *Chunk) FillBlockStateSection(sectY int, state block.State) {
	c.checkSection(sectY)
	c.sections[sectY].blockStates.Fill(state)
}

// FillBlockStates sets every block in the chunk to state.
func (c *Chunk) FillBlockStates(state block.State) {
	for i := range c.sections {
		c.sections[i].blockStates.Fill(state)
	}
}

// Biome returns the biome of the 4×4×4 cell at the given biome coordinates.
func (c *Chunk) Biome(x, y, z int) block.Biome {
	c.checkBiome(x, y, z)
	return c.sections[y/4].biomes.Get(sectionBiomeIndex(x, y, z))
}

// SetBiome sets the biome of one cell and returns the previous biome.
func (c *Chunk) SetBiome(x, y, z int, biome block.Biome) block.Biome {
	c.checkBiome(x, y, z)
	return c.sections[y/4].biomes.Set(sectionBiomeIndex(x, y, z), biome)
}

// FillBiomeSection sets every biome cell in section sectY to biome.
func (c *Chunk) FillBiomeSection(sectY int, biome block.Biome) {
	c.checkSection(sectY)
	c.sections[sectY].biomes.Fill(biome)
}

// FillBiomes sets every biome cell in the chunk to biome.
func (c *Chunk) FillBiomes(biome block.Biome) {
	for i := range c.sections {
		c.sections[i].biomes.Fill(biome)
	}
}

// BlockEntity returns the block entity at the given coordinates. The
// returned compound is the stored value, not a copy.
func (c *Chunk) BlockEntity(x, y, z int) (nbt.Compound, bool) {
	c.checkBlock(x, y, z)
	be, ok := c.blockEntities[blockIndex(x, y, z)]
	return be, ok
}

// SetBlockEntity stores be at the given coordinates, or removes the block
// entity there if be is nil. The previous block entity is returned.
func (c *Chunk) SetBlockEntity(x, y, z int, be nbt.Compound) (nbt.Compound, bool) {
	c.checkBlock(x, y, z)
	idx := blockIndex(x, y, z)
	old, ok := c.blockEntities[idx]
	switch {
	case be == nil:
		delete(c.blockEntities, idx)
	case c.blockEntities == nil:
		c.blockEntities = map[uint32]nbt.Compound{idx: be}
	default:
		c.blockEntities[idx] = be
	}
	return old, ok
}

// ClearBlockEntities removes every block entity from the chunk.
func (c *Chunk) ClearBlockEntities() {
	clear(c.blockEntities)
}

// BlockEntityCount returns the number of stored block entities.
func (c *Chunk) BlockEntityCount() int {
	return len(c.blockEntities)
}

// ForEachBlockEntity calls fn for every block entity in ascending block
// index order (x fastest, then z, then y).
func (c *Chunk) ForEachBlockEntity(fn func(x, y, z int, be nbt.Compound)) {
	indices := make([]uint32, 0, len(c.blockEntities))
	for idx := range c.blockEntities {
		indices = append(indices, idx)
	}
	slices.Sort(indices)

	for _, idx := range indices {
		x := int(idx % SectionWidth)
		z := int(idx / SectionWidth % SectionWidth)
		y := int(idx / (SectionWidth * SectionWidth))
		fn(x, y, z, c.blockEntities[idx])
	}
}

// CountNonAirBlocks returns the number of non-air blocks in section sectY.
func (c *Chunk) CountNonAirBlocks(sectY int) int {
	c.checkSection(sectY)
	return c.sections[sectY].NonAirCount()
}

// Clone returns a deep copy of the chunk, including block entity payloads.
func (c *Chunk) Clone() *Chunk {
	out := &Chunk{
		sections:      make([]Section, len(c.sections)),
		blockEntities: make(map[uint32]nbt.Compound, len(c.blockEntities)),
	}
	for i := range c.sections {
		out.sections[i] = c.sections[i].clone()
	}
	for idx, be := range c.blockEntities {
		out.blockEntities[idx] = be.Clone()
	}
	return out
}

// ShrinkToFit compacts every container to its smallest representation.
func (c *Chunk) ShrinkToFit() {
	for i := range c.sections {
		c.sections[i].blockStates.ShrinkToFit()
		c.sections[i].biomes.ShrinkToFit()
	}
	c.sections = slices.Clip(c.sections)
}

func blockIndex(x, y, z int) uint32 {
	return uint32(x + z*SectionWidth + y*SectionWidth*SectionWidth)
}

func sectionBlockIndex(x, y, z int) int {
	return x + z*SectionWidth + (y%SectionHeight)*SectionWidth*SectionWidth
}

func sectionBiomeIndex(x, y, z int) int {
	return x + z*4 + (y%4)*16
}

func (c *Chunk) checkBlock(x, y, z int) {
	if x < 0 || x >= SectionWidth || z < 0 || z >= SectionWidth || y < 0 || y >= c.Height() {
		panic(fmt.Sprintf("chunk: block coordinates (%d, %d, %d) out of bounds for height %d", x, y, z, c.Height()))
	}
}

func (c *Chunk) checkBiome(x, y, z int) {
	if x < 0 || x >= 4 || z < 0 || z >= 4 || y < 0 || y >= c.Height()/4 {
		panic(fmt.Sprintf("chunk: biome coordinates (%d, %d, %d) out of bounds for height %d", x, y, z, c.Height()))
	}
}

func (c *Chunk) checkSection(sectY int) {
	if sectY < 0 || sectY >= len(c.sections) {
		panic(fmt.Sprintf("chunk: section %d out of bounds for %d sections", sectY, len(c.sections)))
	}
}
