package world

import (
	"github.com/willf/bitset"

	"github.com/go-theft-craft/chunklayer/pkg/world/nbt"
)

// ChunkDataPacketID is the play-state clientbound ID of the chunk data and
// update light packet in protocol 763.
const ChunkDataPacketID = 0x24

// ChunkData is the packet that sends a whole chunk column to a client.
type ChunkData struct {
	X                   int32                  `mc:"i32"`
	Z                   int32                  `mc:"i32"`
	Heightmaps          nbt.Compound           `mc:"nbt"`
	Data                []byte                 `mc:"bytearray"`
	BlockEntities       []ChunkDataBlockEntity `mc:"array"`
	SkyLightMask        *bitset.BitSet         `mc:"bitset"`
	BlockLightMask      *bitset.BitSet         `mc:"bitset"`
	EmptySkyLightMask   *bitset.BitSet         `mc:"bitset"`
	EmptyBlockLightMask *bitset.BitSet         `mc:"bitset"`
	SkyLightArrays      [][]byte               `mc:"bytearrays"`
	BlockLightArrays    [][]byte               `mc:"bytearrays"`
}

func (ChunkData) PacketID() int32 { return ChunkDataPacketID }

// ChunkDataBlockEntity is one block entity record of a ChunkData packet.
type ChunkDataBlockEntity struct {
	PackedXZ uint8        `mc:"u8"` // x<<4 | z
	Y        int16        `mc:"i16"`
	Kind     int32        `mc:"varint"`
	Data     nbt.Compound `mc:"nbt"`
}

// lightMask returns a cleared light mask for a chunk of sectionCount
// sections. Light masks carry one bit per section plus one section below
// and one above the chunk. No light is computed, so every bit stays clear
// and the mask encodes as an empty long array.
func lightMask(sectionCount int) *bitset.BitSet {
	return bitset.New(uint(sectionCount + 2))
}
