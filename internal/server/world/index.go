package world

import (
	"fmt"

	"github.com/go-theft-craft/chunklayer/pkg/world/chunk"
)

// ChunkIndex maps chunk positions to loaded chunks of one fixed height.
// It is not safe for concurrent use; Layer guards it.
type ChunkIndex struct {
	chunks map[ChunkPos]*LoadedChunk
	height int
}

// NewChunkIndex creates an empty index whose chunks all have the given
// height. height must be a non-negative multiple of 16.
func NewChunkIndex(height int) *ChunkIndex {
	if height < 0 || height%chunk.SectionHeight != 0 {
		panic(fmt.Sprintf("world: index height %d is not a non-negative multiple of %d", height, chunk.SectionHeight))
	}
	return &ChunkIndex{
		chunks: make(map[ChunkPos]*LoadedChunk),
		height: height,
	}
}

// Height returns the height of every chunk in the index.
func (idx *ChunkIndex) Height() int {
	return idx.height
}

// Len returns the number of loaded chunks.
func (idx *ChunkIndex) Len() int {
	return len(idx.chunks)
}

// Get returns the chunk at pos, or nil if none is loaded.
func (idx *ChunkIndex) Get(pos ChunkPos) *LoadedChunk {
	return idx.chunks[pos]
}

// Insert stores a copy of c at pos, resized to the index height, and
// returns the chunk data it displaced. An existing loaded chunk at pos keeps
// its viewer count. The caller keeps c; two positions never share storage.
func (idx *ChunkIndex) Insert(pos ChunkPos, c *chunk.Chunk) (*chunk.Chunk, bool) {
	if lc, ok := idx.chunks[pos]; ok {
		return lc.Replace(c), true
	}
	idx.insertNew(pos, c.Clone())
	return nil, false
}

// Remove unloads the chunk at pos and returns its data.
func (idx *ChunkIndex) Remove(pos ChunkPos) (*chunk.Chunk, bool) {
	lc, ok := idx.chunks[pos]
	if !ok {
		return nil, false
	}
	delete(idx.chunks, pos)
	return lc.intoChunk(), true
}

// Range calls fn for every loaded chunk in unspecified order until fn
// returns false.
func (idx *ChunkIndex) Range(fn func(pos ChunkPos, lc *LoadedChunk) bool) {
	for pos, lc := range idx.chunks {
		if !fn(pos, lc) {
			return
		}
	}
}

// Entry looks up pos once and returns a handle to its slot.
func (idx *ChunkIndex) Entry(pos ChunkPos) Entry {
	return Entry{index: idx, pos: pos, chunk: idx.chunks[pos]}
}

// insertNew loads c at a vacant pos. c must not be referenced elsewhere.
func (idx *ChunkIndex) insertNew(pos ChunkPos, c *chunk.Chunk) *LoadedChunk {
	lc := newLoadedChunk(idx.height)
	lc.adopt(c)
	idx.chunks[pos] = lc
	return lc
}

// Entry is a slot in a ChunkIndex that is either occupied or vacant.
type Entry struct {
	index *ChunkIndex
	pos   ChunkPos
	chunk *LoadedChunk
}

// Occupied returns the occupied view of e if a chunk is loaded there.
func (e Entry) Occupied() (OccupiedEntry, bool) {
	if e.chunk == nil {
		return OccupiedEntry{}, false
	}
	return OccupiedEntry{index: e.index, pos: e.pos, chunk: e.chunk}, true
}

// Vacant returns the vacant view of e if no chunk is loaded there.
func (e Entry) Vacant() (VacantEntry, bool) {
	if e.chunk != nil {
		return VacantEntry{}, false
	}
	return VacantEntry{index: e.index, pos: e.pos}, true
}

func (e Entry) Key() ChunkPos {
	return e.pos
}

// OrDefault returns the loaded chunk, inserting an empty one if the slot
// is vacant.
func (e Entry) OrDefault() *LoadedChunk {
	if e.chunk != nil {
		return e.chunk
	}
	return e.index.insertNew(e.pos, chunk.New())
}

// OrInsertWith returns the loaded chunk, inserting a copy of the result of
// fn if the slot is vacant.
func (e Entry) OrInsertWith(fn func() *chunk.Chunk) *LoadedChunk {
	if e.chunk != nil {
		return e.chunk
	}
	return e.index.insertNew(e.pos, fn().Clone())
}

// OccupiedEntry is a slot holding a loaded chunk.
type OccupiedEntry struct {
	index *ChunkIndex
	pos   ChunkPos
	chunk *LoadedChunk
}

func (e OccupiedEntry) Key() ChunkPos {
	return e.pos
}

// Get returns the loaded chunk in the slot.
func (e OccupiedEntry) Get() *LoadedChunk {
	return e.chunk
}

// IntoMut returns the loaded chunk in the slot, for callers that are done
// with the entry.
func (e OccupiedEntry) IntoMut() *LoadedChunk {
	return e.chunk
}

// Insert replaces the chunk data in the slot with a copy of c and returns
// the old data.
func (e OccupiedEntry) Insert(c *chunk.Chunk) *chunk.Chunk {
	return e.chunk.Replace(c)
}

// Remove unloads the chunk and returns its data.
func (e OccupiedEntry) Remove() *chunk.Chunk {
	_, c := e.RemoveEntry()
	return c
}

// RemoveEntry unloads the chunk and returns its position and data.
func (e OccupiedEntry) RemoveEntry() (ChunkPos, *chunk.Chunk) {
	delete(e.index.chunks, e.pos)
	return e.pos, e.chunk.intoChunk()
}

// VacantEntry is a slot with no loaded chunk.
type VacantEntry struct {
	index *ChunkIndex
	pos   ChunkPos
}

func (e VacantEntry) Key() ChunkPos {
	return e.pos
}

// IntoKey returns the position of the slot.
func (e VacantEntry) IntoKey() ChunkPos {
	return e.pos
}

// Insert loads a copy of c, resized to the index height, into the slot.
func (e VacantEntry) Insert(c *chunk.Chunk) *LoadedChunk {
	return e.index.insertNew(e.pos, c.Clone())
}
