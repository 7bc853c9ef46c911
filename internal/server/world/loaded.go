package world

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-theft-craft/chunklayer/pkg/block"
	"github.com/go-theft-craft/chunklayer/pkg/protocol"
	"github.com/go-theft-craft/chunklayer/pkg/world/chunk"
	"github.com/go-theft-craft/chunklayer/pkg/world/nbt"
)

const (
	blockStateMinBits = 4
	blockStateMaxBits = 8
	biomeMinBits      = 0
	biomeMaxBits      = 3
)

// PacketWriter receives packet bytes that are already framed.
type PacketWriter interface {
	WritePacketBytes(b []byte) error
}

// LoadedChunk is a chunk held by a ChunkIndex together with the state
// needed to send it to clients: a viewer count and the cached chunk data
// packet.
//
// Methods that change the chunk require exclusive access to the
// LoadedChunk; WriteInitPackets and the getters may run concurrently with
// each other. Layer enforces this with a read/write lock. The viewer count
// may be changed at any time.
type LoadedChunk struct {
	viewers atomic.Uint32
	chunk   *chunk.Chunk

	mu     sync.Mutex // guards cached
	cached []byte
}

func newLoadedChunk(height int) *LoadedChunk {
	return &LoadedChunk{chunk: chunk.WithHeight(height)}
}

// Replace swaps in a copy of c, resized to this chunk's height, and returns
// the previous data. The viewer count is kept. c itself is left untouched,
// so later changes to it never reach the loaded chunk.
func (lc *LoadedChunk) Replace(c *chunk.Chunk) *chunk.Chunk {
	return lc.adopt(c.Clone())
}

// adopt is Replace for storage nothing else references.
func (lc *LoadedChunk) adopt(c *chunk.Chunk) *chunk.Chunk {
	c.SetHeight(lc.chunk.Height())
	old := lc.chunk
	lc.chunk = c
	lc.invalidate()
	return old
}

func (lc *LoadedChunk) intoChunk() *chunk.Chunk {
	return lc.chunk
}

// ToChunk returns a deep copy of the chunk data.
func (lc *LoadedChunk) ToChunk() *chunk.Chunk {
	return lc.chunk.Clone()
}

// ViewerCount returns the number of clients currently viewing the chunk.
func (lc *LoadedChunk) ViewerCount() uint32 {
	return lc.viewers.Load()
}

// IncViewerCount records a client entering view of the chunk.
func (lc *LoadedChunk) IncViewerCount() {
	lc.viewers.Add(1)
}

// DecViewerCount records a client leaving view of the chunk. It panics if
// the count is already zero.
func (lc *LoadedChunk) DecViewerCount() {
	for {
		n := lc.viewers.Load()
		if n == 0 {
			panic("world: viewer count underflow")
		}
		if lc.viewers.CompareAndSwap(n, n-1) {
			return
		}
	}
}

// Height returns the chunk height in blocks.
func (lc *LoadedChunk) Height() int {
	return lc.chunk.Height()
}

// SetHeight resizes the chunk. See chunk.Chunk.SetHeight.
func (lc *LoadedChunk) SetHeight(height int) {
	if height != lc.chunk.Height() {
		lc.chunk.SetHeight(height)
		lc.invalidate()
	}
}

// BlockState returns the block state at a position local to the chunk.
func (lc *LoadedChunk) BlockState(x, y, z int) block.State {
	return lc.chunk.BlockState(x, y, z)
}

// SetBlockState sets a block state and returns the previous one.
func (lc *LoadedChunk) SetBlockState(x, y, z int, state block.State) block.State {
	old := lc.chunk.SetBlockState(x, y, z, state)
	if old != state {
		lc.invalidate()
	}
	return old
}

// FillBlockStateSection sets every block of section sectY to state.
func (lc *LoadedChunk) FillBlockStateSection(sectY int, state block.State) {
	lc.chunk.FillBlockStateSection(sectY, state)
	lc.invalidate()
}

// FillBlockStates sets every block of the chunk to state.
func (lc *LoadedChunk) FillBlockStates(state block.State) {
	lc.chunk.FillBlockStates(state)
	lc.invalidate()
}

// Biome returns the biome of the 4×4×4 cell at (x, y, z).
func (lc *LoadedChunk) Biome(x, y, z int) block.Biome {
	return lc.chunk.Biome(x, y, z)
}

// SetBiome sets the biome of one 4×4×4 cell and returns the previous one.
func (lc *LoadedChunk) SetBiome(x, y, z int, biome block.Biome) block.Biome {
	old := lc.chunk.SetBiome(x, y, z, biome)
	if old != biome {
		lc.invalidate()
	}
	return old
}

// FillBiomeSection sets every biome cell of section sectY to biome.
func (lc *LoadedChunk) FillBiomeSection(sectY int, biome block.Biome) {
	lc.chunk.FillBiomeSection(sectY, biome)
	lc.invalidate()
}

// FillBiomes sets every biome cell of the chunk to biome.
func (lc *LoadedChunk) FillBiomes(biome block.Biome) {
	lc.chunk.FillBiomes(biome)
	lc.invalidate()
}

// BlockEntity returns the block entity at the given position. The compound
// must not be modified; use BlockEntityMut for that.
func (lc *LoadedChunk) BlockEntity(x, y, z int) (nbt.Compound, bool) {
	return lc.chunk.BlockEntity(x, y, z)
}

// BlockEntityMut returns the block entity at the given position for
// in-place modification.
func (lc *LoadedChunk) BlockEntityMut(x, y, z int) (nbt.Compound, bool) {
	be, ok := lc.chunk.BlockEntity(x, y, z)
	if ok {
		lc.invalidate()
	}
	return be, ok
}

// SetBlockEntity stores be at the given position, or removes the block
// entity there when be is nil. The previous block entity is returned.
func (lc *LoadedChunk) SetBlockEntity(x, y, z int, be nbt.Compound) (nbt.Compound, bool) {
	old, ok := lc.chunk.SetBlockEntity(x, y, z, be)
	lc.invalidate()
	return old, ok
}

// ClearBlockEntities removes every block entity.
func (lc *LoadedChunk) ClearBlockEntities() {
	if lc.chunk.BlockEntityCount() > 0 {
		lc.chunk.ClearBlockEntities()
		lc.invalidate()
	}
}

// BlockEntityCount returns the number of block entities.
func (lc *LoadedChunk) BlockEntityCount() int {
	return lc.chunk.BlockEntityCount()
}

// CountNonAirBlocks returns the number of non-air blocks in section sectY.
func (lc *LoadedChunk) CountNonAirBlocks(sectY int) int {
	return lc.chunk.CountNonAirBlocks(sectY)
}

// ShrinkToFit compacts the chunk's storage. The encoding does not change.
func (lc *LoadedChunk) ShrinkToFit() {
	lc.chunk.ShrinkToFit()
}

func (lc *LoadedChunk) invalidate() {
	lc.mu.Lock()
	lc.cached = nil
	lc.mu.Unlock()
}

func (lc *LoadedChunk) hasCachedPacket() bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.cached != nil
}

// WriteInitPackets writes the packets that show this chunk at pos to a
// client. The chunk data packet is built on first use and cached until the
// chunk changes.
func (lc *LoadedChunk) WriteInitPackets(w PacketWriter, pos ChunkPos, info *LayerInfo) error {
	_, _, err := lc.writeInitPackets(w, pos, info)
	return err
}

// writeInitPackets reports whether the packet had to be built and how many
// bytes were written.
func (lc *LoadedChunk) writeInitPackets(w PacketWriter, pos ChunkPos, info *LayerInfo) (built bool, n int, err error) {
	lc.mu.Lock()
	if lc.cached == nil {
		data, err := lc.buildChunkData(pos, info)
		if err != nil {
			lc.mu.Unlock()
			return false, 0, fmt.Errorf("build chunk data %v: %w", pos, err)
		}
		lc.cached = data
		built = true
	}
	data := lc.cached
	lc.mu.Unlock()

	return built, len(data), w.WritePacketBytes(data)
}

// buildChunkData assembles and frames the chunk data packet.
func (lc *LoadedChunk) buildChunkData(pos ChunkPos, info *LayerInfo) ([]byte, error) {
	blockDirectBits := chunk.BitWidth(uint64(block.MaxRaw().ToRaw()))
	biomeDirectBits := chunk.BitWidth(uint64(info.BiomeRegistryLen - 1))

	var sections []byte
	for sectY := range lc.chunk.SectionCount() {
		sect := lc.chunk.Section(sectY)
		sections = binary.BigEndian.AppendUint16(sections, uint16(sect.NonAirCount()))
		sections = sect.BlockStates().AppendEncoded(sections, stateBits,
			blockStateMinBits, blockStateMaxBits, blockDirectBits)
		sections = sect.Biomes().AppendEncoded(sections, biomeBits,
			biomeMinBits, biomeMaxBits, biomeDirectBits)
	}

	var entities []ChunkDataBlockEntity
	lc.chunk.ForEachBlockEntity(func(x, y, z int, be nbt.Compound) {
		kind, ok := lc.chunk.BlockState(x, y, z).BlockEntityKind()
		if !ok {
			return
		}
		entities = append(entities, ChunkDataBlockEntity{
			PackedXZ: uint8(x<<4 | z),
			Y:        int16(y + info.MinY),
			Kind:     int32(kind),
			Data:     be,
		})
	})

	n := lc.chunk.SectionCount()
	pkt := &ChunkData{
		X:                   pos.X,
		Z:                   pos.Z,
		Heightmaps:          nbt.Compound{},
		Data:                sections,
		BlockEntities:       entities,
		SkyLightMask:        lightMask(n),
		BlockLightMask:      lightMask(n),
		EmptySkyLightMask:   lightMask(n),
		EmptyBlockLightMask: lightMask(n),
	}

	var buf bytes.Buffer
	if err := protocol.NewWriter(&buf, info.Threshold).WritePacket(pkt); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func stateBits(s block.State) uint64 { return uint64(s.ToRaw()) }

func biomeBits(b block.Biome) uint64 { return uint64(b.ToIndex()) }
