package gen

import (
	"testing"

	"github.com/go-theft-craft/chunklayer/pkg/block"
	"github.com/go-theft-craft/chunklayer/pkg/world/chunk"
)

func TestFlatGeneratorLayers(t *testing.T) {
	g := NewFlatGenerator(0)
	c := g.Generate(3, -2, 64)

	if c.Height() != 64 {
		t.Fatalf("Height = %d, want 64", c.Height())
	}

	want := map[int]block.State{
		0: block.Bedrock,
		1: block.Stone,
		2: block.Stone,
		3: block.Dirt,
		4: block.GrassBlock,
		5: block.Air,
	}
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			for y, w := range want {
				if got := c.BlockState(x, y, z); got != w {
					t.Errorf("block at (%d,%d,%d) = %v, want %v", x, y, z, got, w)
				}
			}
		}
	}
	if got := c.CountNonAirBlocks(0); got != 5*256 {
		t.Errorf("CountNonAirBlocks(0) = %d, want %d", got, 5*256)
	}
	if got := c.Biome(2, 10, 2); got != biomePlains {
		t.Errorf("Biome = %v, want plains", got)
	}
	if c.BlockEntityCount() != 0 {
		t.Errorf("BlockEntityCount = %d, want 0", c.BlockEntityCount())
	}
}

func TestFlatGeneratorThickLayerFillsSections(t *testing.T) {
	g := &FlatGenerator{Layers: []Layer{
		{State: block.Bedrock, Thickness: 1},
		{State: block.Stone, Thickness: 40},
	}}
	c := g.Generate(1, 1, 64)

	if got := c.CountNonAirBlocks(1); got != chunk.SectionBlockCount {
		t.Errorf("section 1 non-air = %d, want %d", got, chunk.SectionBlockCount)
	}
	if got := c.BlockState(7, 40, 7); got != block.Stone {
		t.Errorf("block at y=40 = %v, want stone", got)
	}
	if got := c.BlockState(7, 41, 7); got != block.Air {
		t.Errorf("block at y=41 = %v, want air", got)
	}
	if got := g.HeightAt(0, 0); got != 40 {
		t.Errorf("HeightAt = %d, want 40", got)
	}
}

func TestFlatGeneratorTruncatesToHeight(t *testing.T) {
	g := &FlatGenerator{Layers: []Layer{{State: block.Stone, Thickness: 100}}}
	c := g.Generate(0, 0, 32)

	for sectY := range c.SectionCount() {
		if got := c.CountNonAirBlocks(sectY); got != chunk.SectionBlockCount {
			t.Errorf("section %d non-air = %d, want %d", sectY, got, chunk.SectionBlockCount)
		}
	}
	if c.BlockEntityCount() != 0 {
		t.Error("no room for a chest, but one was placed")
	}
}

func TestFlatGeneratorSpawnChest(t *testing.T) {
	c := NewFlatGenerator(0).Generate(-8, 16, 32)

	if got := c.BlockState(0, 5, 0); got != block.Chest {
		t.Fatalf("block at (0,5,0) = %v, want chest", got)
	}
	if _, ok := c.BlockEntity(0, 5, 0); !ok {
		t.Error("chest has no block entity")
	}
}

func TestNew(t *testing.T) {
	for _, kind := range []string{"flat", "void", ""} {
		if _, err := New(kind, 1); err != nil {
			t.Errorf("New(%q) error: %v", kind, err)
		}
	}
	if _, err := New("amplified", 1); err == nil {
		t.Error("New(\"amplified\") should fail")
	}

	g, _ := New("void", 0)
	c := g.Generate(0, 0, 48)
	for sectY := range c.SectionCount() {
		if n := c.CountNonAirBlocks(sectY); n != 0 {
			t.Errorf("void section %d non-air = %d", sectY, n)
		}
	}
}

func TestSpawnY(t *testing.T) {
	tests := []struct {
		name string
		g    Generator
		want int
	}{
		{"default flat", NewFlatGenerator(0), 5},
		{"no layers", &FlatGenerator{}, 0},
		{"void", VoidGenerator{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SpawnY(tt.g, 16, -3); got != tt.want {
				t.Errorf("SpawnY = %d, want %d", got, tt.want)
			}
		})
	}
}
