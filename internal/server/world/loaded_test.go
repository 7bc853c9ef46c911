package world

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/go-theft-craft/chunklayer/pkg/block"
	"github.com/go-theft-craft/chunklayer/pkg/protocol"
	"github.com/go-theft-craft/chunklayer/pkg/world/chunk"
	"github.com/go-theft-craft/chunklayer/pkg/world/nbt"
)

var testInfo = LayerInfo{
	Height:           512,
	MinY:             -16,
	BiomeRegistryLen: 200,
	Threshold:        256,
}

func writeInit(t *testing.T, lc *LoadedChunk, pos ChunkPos, info LayerInfo) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := lc.WriteInitPackets(protocol.NewWriter(&buf, info.Threshold), pos, &info); err != nil {
		t.Fatalf("WriteInitPackets: %v", err)
	}
	return buf.Bytes()
}

func TestEmptyChunkInitPacket(t *testing.T) {
	idx := NewChunkIndex(testInfo.Height)
	pos := ChunkPos{X: 3, Z: 4}
	idx.Insert(pos, chunk.New())
	lc := idx.Get(pos)

	if lc.hasCachedPacket() {
		t.Fatal("new chunk already has a cached packet")
	}
	frame := writeInit(t, lc, pos, testInfo)
	if !lc.hasCachedPacket() {
		t.Fatal("WriteInitPackets did not populate the cache")
	}

	d := decodeFrame(t, frame, testInfo.Threshold, testInfo.Height/16)
	if d.X != 3 || d.Z != 4 {
		t.Errorf("position = (%d, %d), want (3, 4)", d.X, d.Z)
	}
	if len(d.Heightmaps) != 0 {
		t.Errorf("heightmaps = %v, want empty", d.Heightmaps)
	}
	if len(d.Sections) != 32 {
		t.Fatalf("sections = %d, want 32", len(d.Sections))
	}
	for i, s := range d.Sections {
		if s.NonAir != 0 || s.BlockBits != 0 || s.Blocks[0] != 0 {
			t.Errorf("section %d: non-air %d, block bits %d, block %d; want air", i, s.NonAir, s.BlockBits, s.Blocks[0])
		}
		if s.BiomeBits != 0 || s.Biomes[0] != 0 {
			t.Errorf("section %d: biome bits %d, biome %d; want default", i, s.BiomeBits, s.Biomes[0])
		}
	}
	if len(d.BlockEntities) != 0 {
		t.Errorf("block entities = %d, want 0", len(d.BlockEntities))
	}
	for i, m := range d.LightMasks {
		if len(m) != 0 {
			t.Errorf("light mask %d = %v, want empty", i, m)
		}
	}
	if d.LightArrays != [2]int32{} {
		t.Errorf("light arrays = %v, want empty", d.LightArrays)
	}
}

func TestSetBlockStateRebuildsPacket(t *testing.T) {
	idx := NewChunkIndex(testInfo.Height)
	pos := ChunkPos{X: 3, Z: 4}
	lc := idx.Entry(pos).OrDefault()
	writeInit(t, lc, pos, testInfo)

	if old := lc.SetBlockState(0, 4, 0, block.Stone); old != block.Air {
		t.Fatalf("old state = %v, want air", old)
	}
	if lc.hasCachedPacket() {
		t.Fatal("cache not cleared by a block change")
	}

	d := decodeFrame(t, writeInit(t, lc, pos, testInfo), testInfo.Threshold, 32)
	if !lc.hasCachedPacket() {
		t.Fatal("cache not repopulated")
	}

	s := d.Sections[0]
	if s.NonAir != 1 {
		t.Errorf("non-air = %d, want 1", s.NonAir)
	}
	if s.BlockBits != 4 {
		t.Errorf("block bits = %d, want 4", s.BlockBits)
	}
	for i, v := range s.Blocks {
		want := uint64(block.Air)
		if i == 4*256 {
			want = uint64(block.Stone)
		}
		if v != want {
			t.Fatalf("block %d = %d, want %d", i, v, want)
		}
	}
}

func TestPacketMatchesChunk(t *testing.T) {
	info := LayerInfo{Height: 64, MinY: -64, BiomeRegistryLen: 64, Threshold: protocol.NoCompression}
	lc := newLoadedChunk(info.Height)

	for i := range 300 {
		lc.SetBlockState(i%16, i/16%64, i/7%16, block.State(i%40+1))
	}
	lc.FillBlockStateSection(3, block.Dirt)
	for i := range 10 {
		lc.SetBiome(i%4, 0, i/4, block.Biome(i*6))
	}

	d := decodeFrame(t, writeInit(t, lc, ChunkPos{X: -1, Z: 7}, info), info.Threshold, 4)
	for sectY, s := range d.Sections {
		for i, v := range s.Blocks {
			x, z, y := i%16, i/16%16, sectY*16+i/256
			if want := uint64(lc.BlockState(x, y, z)); v != want {
				t.Fatalf("block (%d,%d,%d) = %d, want %d", x, y, z, v, want)
			}
		}
		for i, v := range s.Biomes {
			x, z, y := i%4, i/4%4, sectY*4+i/16
			if want := uint64(lc.Biome(x, y, z)); v != want {
				t.Fatalf("biome (%d,%d,%d) = %d, want %d", x, y, z, v, want)
			}
		}
		if want := int16(lc.CountNonAirBlocks(sectY)); s.NonAir != want {
			t.Errorf("section %d non-air = %d, want %d", sectY, s.NonAir, want)
		}
	}
	// Ten distinct biomes in section zero exceed the 3-bit palette.
	if d.Sections[0].BiomeBits != 6 {
		t.Errorf("section 0 biome bits = %d, want direct 6", d.Sections[0].BiomeBits)
	}
	if d.Sections[3].BlockBits != 0 {
		t.Errorf("filled section block bits = %d, want 0", d.Sections[3].BlockBits)
	}
}

func TestBlockEntitiesInPacket(t *testing.T) {
	info := testInfo
	lc := newLoadedChunk(info.Height)

	lc.SetBlockState(1, 20, 2, block.Chest)
	lc.SetBlockEntity(1, 20, 2, nbt.Compound{"CustomName": "loot"})
	lc.SetBlockState(15, 300, 15, block.Barrel)
	lc.SetBlockEntity(15, 300, 15, nbt.Compound{})

	// A payload under a block that carries no block entity is left out.
	lc.SetBlockState(3, 3, 3, block.Stone)
	lc.SetBlockEntity(3, 3, 3, nbt.Compound{"stale": int32(1)})

	d := decodeFrame(t, writeInit(t, lc, ChunkPos{}, info), info.Threshold, 32)

	want := []decodedBlockEntity{
		{PackedXZ: 0x12, Y: 20 - 16, Kind: int32(block.EntityChest), Data: map[string]any{"CustomName": "loot"}},
		{PackedXZ: 0xFF, Y: 300 - 16, Kind: int32(block.EntityBarrel), Data: map[string]any{}},
	}
	if diff := cmp.Diff(want, d.BlockEntities, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("block entities mismatch (-want +got):\n%s", diff)
	}
	if lc.BlockEntityCount() != 3 {
		t.Errorf("BlockEntityCount = %d, want 3", lc.BlockEntityCount())
	}
}

func TestInvalidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(lc *LoadedChunk)
	}{
		{"set block state", func(lc *LoadedChunk) { lc.SetBlockState(0, 0, 0, block.Stone) }},
		{"set biome", func(lc *LoadedChunk) { lc.SetBiome(0, 0, 0, 5) }},
		{"fill block section", func(lc *LoadedChunk) { lc.FillBlockStateSection(0, block.Air) }},
		{"fill blocks", func(lc *LoadedChunk) { lc.FillBlockStates(block.Air) }},
		{"fill biome section", func(lc *LoadedChunk) { lc.FillBiomeSection(0, block.DefaultBiome) }},
		{"fill biomes", func(lc *LoadedChunk) { lc.FillBiomes(block.DefaultBiome) }},
		{"set block entity", func(lc *LoadedChunk) { lc.SetBlockEntity(1, 1, 1, nbt.Compound{}) }},
		{"remove block entity", func(lc *LoadedChunk) { lc.SetBlockEntity(2, 2, 2, nil) }},
		{"clear block entities", func(lc *LoadedChunk) { lc.ClearBlockEntities() }},
		{"mutate block entity", func(lc *LoadedChunk) {
			be, _ := lc.BlockEntityMut(2, 2, 2)
			be["Lock"] = "key"
		}},
		{"replace", func(lc *LoadedChunk) { lc.Replace(chunk.New()) }},
		{"set height", func(lc *LoadedChunk) { lc.SetHeight(32) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := newLoadedChunk(64)
			lc.SetBlockState(2, 2, 2, block.Chest)
			lc.SetBlockEntity(2, 2, 2, nbt.Compound{})
			writeInit(t, lc, ChunkPos{}, testInfo)

			tt.mutate(lc)
			if lc.hasCachedPacket() {
				t.Error("cache not cleared")
			}
		})
	}
}

func TestNoOpWritesKeepCache(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(lc *LoadedChunk)
	}{
		{"same block state", func(lc *LoadedChunk) { lc.SetBlockState(2, 2, 2, block.Chest) }},
		{"same biome", func(lc *LoadedChunk) { lc.SetBiome(0, 0, 0, block.DefaultBiome) }},
		{"absent block entity", func(lc *LoadedChunk) { lc.BlockEntityMut(5, 5, 5) }},
		{"same height", func(lc *LoadedChunk) { lc.SetHeight(64) }},
		{"shrink", func(lc *LoadedChunk) { lc.ShrinkToFit() }},
		{"reads", func(lc *LoadedChunk) {
			lc.BlockState(2, 2, 2)
			lc.BlockEntity(2, 2, 2)
			lc.ToChunk()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := newLoadedChunk(64)
			lc.SetBlockState(2, 2, 2, block.Chest)
			lc.SetBlockEntity(2, 2, 2, nbt.Compound{})
			before := writeInit(t, lc, ChunkPos{}, testInfo)

			tt.mutate(lc)
			if !lc.hasCachedPacket() {
				t.Fatal("cache cleared by a no-op")
			}
			if after := writeInit(t, lc, ChunkPos{}, testInfo); !bytes.Equal(before, after) {
				t.Error("cached bytes changed")
			}
		})
	}
}

func TestClearBlockEntitiesWhenEmpty(t *testing.T) {
	lc := newLoadedChunk(16)
	writeInit(t, lc, ChunkPos{}, testInfo)
	lc.ClearBlockEntities()
	if !lc.hasCachedPacket() {
		t.Error("clearing no block entities cleared the cache")
	}
}

func TestReplace(t *testing.T) {
	lc := newLoadedChunk(64)
	lc.SetBlockState(0, 0, 0, block.Stone)
	lc.IncViewerCount()

	next := chunk.WithHeight(16)
	next.SetBlockState(1, 1, 1, block.Dirt)
	old := lc.Replace(next)

	if got := old.BlockState(0, 0, 0); got != block.Stone {
		t.Errorf("old chunk block = %v, want stone", got)
	}
	if lc.Height() != 64 {
		t.Errorf("Height = %d, want 64", lc.Height())
	}
	if got := lc.BlockState(1, 1, 1); got != block.Dirt {
		t.Errorf("new chunk block = %v, want dirt", got)
	}
	if lc.ViewerCount() != 1 {
		t.Errorf("ViewerCount = %d, want 1", lc.ViewerCount())
	}
}

func TestToChunkIsIndependent(t *testing.T) {
	lc := newLoadedChunk(16)
	lc.SetBlockState(0, 0, 0, block.Stone)
	snap := lc.ToChunk()
	writeInit(t, lc, ChunkPos{}, testInfo)

	snap.SetBlockState(0, 0, 0, block.Dirt)
	if got := lc.BlockState(0, 0, 0); got != block.Stone {
		t.Errorf("snapshot write leaked into the loaded chunk: %v", got)
	}
	if !lc.hasCachedPacket() {
		t.Error("snapshot write cleared the cache")
	}
}

func TestViewerCount(t *testing.T) {
	lc := newLoadedChunk(16)
	for range 5 {
		lc.IncViewerCount()
	}
	if lc.ViewerCount() != 5 {
		t.Fatalf("ViewerCount = %d, want 5", lc.ViewerCount())
	}
	for range 5 {
		lc.DecViewerCount()
	}
	if lc.ViewerCount() != 0 {
		t.Fatalf("ViewerCount = %d, want 0", lc.ViewerCount())
	}

	defer func() {
		if recover() == nil {
			t.Error("DecViewerCount below zero did not panic")
		}
		if lc.ViewerCount() != 0 {
			t.Errorf("ViewerCount after underflow = %d, want 0", lc.ViewerCount())
		}
	}()
	lc.DecViewerCount()
}

func TestCompressionThresholds(t *testing.T) {
	lc := newLoadedChunk(64)
	lc.SetBlockState(4, 4, 4, block.Glass)

	for _, threshold := range []protocol.CompressionThreshold{protocol.NoCompression, 0, 256, 1 << 20} {
		info := testInfo
		info.Threshold = threshold
		lc.invalidate()

		d := decodeFrame(t, writeInit(t, lc, ChunkPos{X: 9}, info), threshold, 4)
		if d.X != 9 || d.Sections[0].NonAir != 1 {
			t.Errorf("threshold %d: x = %d, non-air = %d", threshold, d.X, d.Sections[0].NonAir)
		}
	}
}

func TestCachedBytesAreReplayed(t *testing.T) {
	lc := newLoadedChunk(32)
	pos := ChunkPos{X: 1, Z: 2}

	first := writeInit(t, lc, pos, testInfo)

	var buf bytes.Buffer
	w := protocol.NewWriter(&buf, testInfo.Threshold)
	built, n, err := lc.writeInitPackets(w, pos, &testInfo)
	if err != nil {
		t.Fatalf("writeInitPackets: %v", err)
	}
	if built {
		t.Error("second write rebuilt the packet")
	}
	if n != len(first) || !bytes.Equal(buf.Bytes(), first) {
		t.Error("second write did not replay the cached bytes")
	}
}

type failingWriter struct{}

var errWrite = errors.New("write failed")

func (failingWriter) WritePacketBytes([]byte) error { return errWrite }

func TestWriteErrorKeepsCache(t *testing.T) {
	lc := newLoadedChunk(16)
	err := lc.WriteInitPackets(failingWriter{}, ChunkPos{}, &testInfo)
	if !errors.Is(err, errWrite) {
		t.Fatalf("err = %v, want %v", err, errWrite)
	}
	if !lc.hasCachedPacket() {
		t.Error("a failed write should not discard the built packet")
	}
}

func TestBuildErrorLeavesCacheEmpty(t *testing.T) {
	lc := newLoadedChunk(16)
	lc.SetBlockState(0, 0, 0, block.Chest)
	lc.SetBlockEntity(0, 0, 0, nbt.Compound{"bad": struct{}{}})

	var buf bytes.Buffer
	err := lc.WriteInitPackets(protocol.NewWriter(&buf, protocol.NoCompression), ChunkPos{}, &testInfo)
	if err == nil {
		t.Fatal("expected an error for an unencodable block entity")
	}
	if lc.hasCachedPacket() {
		t.Error("failed build populated the cache")
	}
	if buf.Len() != 0 {
		t.Errorf("failed build wrote %d bytes", buf.Len())
	}
}
