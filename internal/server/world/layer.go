// Package world keeps the chunks of one dimension loaded in memory and
// produces the packets that send them to clients.
package world

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-theft-craft/chunklayer/pkg/block"
	"github.com/go-theft-craft/chunklayer/pkg/protocol"
	"github.com/go-theft-craft/chunklayer/pkg/world/chunk"
	"github.com/go-theft-craft/chunklayer/pkg/world/gen"
)

// ChunkPos identifies a chunk column by its chunk coordinates.
type ChunkPos struct {
	X, Z int32
}

// ChunkPosAt returns the position of the chunk containing block (x, z).
func ChunkPosAt(x, z int) ChunkPos {
	return ChunkPos{X: int32(x >> 4), Z: int32(z >> 4)}
}

func (p ChunkPos) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Z)
}

// LayerInfo holds the dimension parameters chunk packets depend on.
type LayerInfo struct {
	// Height is the height of every chunk, a multiple of 16.
	Height int
	// MinY is the Y coordinate of the bottom of every chunk.
	MinY int
	// BiomeRegistryLen is the number of biomes the client knows. It must
	// be at least 1.
	BiomeRegistryLen int
	Threshold        protocol.CompressionThreshold
}

// Layer owns a ChunkIndex and serializes access to it: mutations take the
// write lock, packet writes share the read lock.
type Layer struct {
	mu    sync.RWMutex
	info  LayerInfo
	index *ChunkIndex
	gen   gen.Generator
	log   *slog.Logger
}

// NewLayer creates an empty layer. Chunks loaded on demand come from
// generator; a nil generator loads chunks of air.
func NewLayer(info LayerInfo, generator gen.Generator, log *slog.Logger) *Layer {
	if generator == nil {
		generator = gen.VoidGenerator{}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Layer{
		info:  info,
		index: NewChunkIndex(info.Height),
		gen:   generator,
		log:   log.With("component", "layer"),
	}
}

// Info returns the layer's parameters.
func (l *Layer) Info() LayerInfo {
	return l.info
}

// Update runs fn with exclusive access to the index.
func (l *Layer) Update(fn func(idx *ChunkIndex)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.index)
}

// View runs fn with shared access to the index. fn must not modify chunks;
// it may write packets and change viewer counts.
func (l *Layer) View(fn func(idx *ChunkIndex)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn(l.index)
}

// ChunkCount returns the number of loaded chunks.
func (l *Layer) ChunkCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.index.Len()
}

// LoadChunk generates the chunk at pos if it is not loaded yet. It reports
// whether a chunk was generated.
func (l *Layer) LoadChunk(pos ChunkPos) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked(pos)
}

func (l *Layer) loadLocked(pos ChunkPos) bool {
	if l.index.Get(pos) != nil {
		return false
	}
	l.index.insertNew(pos, l.gen.Generate(pos.X, pos.Z, l.info.Height))
	l.log.Debug("chunk generated", "pos", pos)
	return true
}

// InsertChunk stores a copy of c at pos and returns the chunk data it
// displaced.
func (l *Layer) InsertChunk(pos ChunkPos, c *chunk.Chunk) (*chunk.Chunk, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.index.Insert(pos, c)
}

// RemoveChunk unloads the chunk at pos and returns its data. A chunk that
// still has viewers stays loaded and RemoveChunk reports false; its
// viewers must leave first.
func (l *Layer) RemoveChunk(pos ChunkPos) (*chunk.Chunk, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lc := l.index.Get(pos); lc != nil && lc.ViewerCount() > 0 {
		l.log.Warn("refusing to unload viewed chunk", "pos", pos, "viewers", lc.ViewerCount())
		return nil, false
	}
	return l.index.Remove(pos)
}

// Block returns the block state at absolute coordinates. It reports false
// if the chunk is not loaded or y is outside the layer.
func (l *Layer) Block(x, y, z int) (block.State, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ly, ok := l.localY(y)
	if !ok {
		return block.Air, false
	}
	lc := l.index.Get(ChunkPosAt(x, z))
	if lc == nil {
		return block.Air, false
	}
	return lc.BlockState(x&0xF, ly, z&0xF), true
}

// SetBlock sets the block state at absolute coordinates, generating the
// chunk first if needed, and returns the previous state. It reports false
// if y is outside the layer.
func (l *Layer) SetBlock(x, y, z int, state block.State) (block.State, bool) {
	ly, ok := l.localY(y)
	if !ok {
		return block.Air, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pos := ChunkPosAt(x, z)
	l.loadLocked(pos)
	return l.index.Get(pos).SetBlockState(x&0xF, ly, z&0xF, state), true
}

// ViewerEnter records a client starting to view pos and writes the chunk's
// init packets to w. It reports false if the chunk is not loaded.
func (l *Layer) ViewerEnter(w PacketWriter, pos ChunkPos) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	lc := l.index.Get(pos)
	if lc == nil {
		return false, nil
	}
	lc.IncViewerCount()
	return true, l.writeInitPackets(w, pos, lc)
}

// ViewerLeave records a client no longer viewing pos.
func (l *Layer) ViewerLeave(pos ChunkPos) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if lc := l.index.Get(pos); lc != nil {
		lc.DecViewerCount()
	}
}

// WriteInitPackets writes the init packets of the chunk at pos to w. It
// reports false if the chunk is not loaded.
func (l *Layer) WriteInitPackets(w PacketWriter, pos ChunkPos) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	lc := l.index.Get(pos)
	if lc == nil {
		return false, nil
	}
	return true, l.writeInitPackets(w, pos, lc)
}

func (l *Layer) writeInitPackets(w PacketWriter, pos ChunkPos, lc *LoadedChunk) error {
	built, n, err := lc.writeInitPackets(w, pos, &l.info)
	if built {
		l.log.Debug("chunk packet cache rebuilt", "pos", pos, "bytes", n)
	}
	return err
}

func (l *Layer) localY(y int) (int, bool) {
	ly := y - l.info.MinY
	if ly < 0 || ly >= l.info.Height {
		return 0, false
	}
	return ly, true
}
