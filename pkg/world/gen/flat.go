package gen

import (
	"github.com/go-theft-craft/chunklayer/pkg/block"
	"github.com/go-theft-craft/chunklayer/pkg/world/chunk"
	"github.com/go-theft-craft/chunklayer/pkg/world/nbt"
)

const biomePlains block.Biome = 1

// Layer is a horizontal band of one block state in a flat world.
type Layer struct {
	State     block.State
	Thickness int
}

// FlatGenerator generates a classic superflat world:
// bedrock at y=0, stone y=1..2, dirt y=3, grass y=4.
//
// Every chunk whose coordinates are both multiples of 8 also gets a chest
// on the surface at its north-west corner.
type FlatGenerator struct {
	Layers []Layer
	Biome  block.Biome
}

// NewFlatGenerator creates a FlatGenerator with the default layers.
func NewFlatGenerator(_ int64) *FlatGenerator {
	return &FlatGenerator{
		Layers: []Layer{
			{State: block.Bedrock, Thickness: 1},
			{State: block.Stone, Thickness: 2},
			{State: block.Dirt, Thickness: 1},
			{State: block.GrassBlock, Thickness: 1},
		},
		Biome: biomePlains,
	}
}

func (g *FlatGenerator) Generate(chunkX, chunkZ int32, height int) *chunk.Chunk {
	c := chunk.WithHeight(height)
	c.FillBiomes(g.Biome)

	y := 0
	for _, l := range g.Layers {
		top := min(y+l.Thickness, height)
		for y < top {
			if y%chunk.SectionHeight == 0 && y+chunk.SectionHeight <= top {
				c.FillBlockStateSection(y/chunk.SectionHeight, l.State)
				y += chunk.SectionHeight
				continue
			}
			for x := range chunk.SectionWidth {
				for z := range chunk.SectionWidth {
					c.SetBlockState(x, y, z, l.State)
				}
			}
			y++
		}
	}

	if chunkX%8 == 0 && chunkZ%8 == 0 && y < height {
		c.SetBlockState(0, y, 0, block.Chest)
		c.SetBlockEntity(0, y, 0, nbt.Compound{
			"CustomName": `{"text":"Spawn chest"}`,
		})
	}
	return c
}

// HeightAt returns the Y of the topmost generated block.
func (g *FlatGenerator) HeightAt(_, _ int) int {
	top := 0
	for _, l := range g.Layers {
		top += l.Thickness
	}
	return top - 1
}
