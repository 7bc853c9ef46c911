package chunk

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/go-theft-craft/chunklayer/pkg/protocol"
)

// BitWidth returns the number of bits needed to represent n.
func BitWidth(n uint64) int {
	return bits.Len64(n)
}

// AppendEncoded appends the network encoding of c to dst and returns the
// extended slice.
//
// toBits maps a value to its raw registry ID. Palettes use at least
// minIndirectBits per entry; when more than maxIndirectBits would be needed
// the container is written directly with directBits per entry.
//
// AppendEncoded panics if a raw ID does not fit the width it is packed at,
// which means the registry the widths were derived from is wrong.
func (c *PalettedContainer[T]) AppendEncoded(dst []byte, toBits func(T) uint64, minIndirectBits, maxIndirectBits, directBits int) []byte {
	switch {
	case c.direct != nil:
		return c.appendDirect(dst, toBits, directBits)

	case c.palette != nil:
		bitsPerEntry := max(minIndirectBits, BitWidth(uint64(len(c.palette)-1)))
		if bitsPerEntry > maxIndirectBits {
			return c.appendDirect(dst, toBits, directBits)
		}

		dst = append(dst, byte(bitsPerEntry))
		dst = protocol.AppendVarInt(dst, int32(len(c.palette)))
		for _, v := range c.palette {
			dst = protocol.AppendVarInt(dst, int32(toBits(v)))
		}
		dst = protocol.AppendVarInt(dst, int32(compactLongsLen(c.length, bitsPerEntry)))
		return appendCompactLongs(dst, c.length, bitsPerEntry, func(idx int) uint64 {
			return uint64(c.index(idx))
		})

	default:
		dst = append(dst, 0)
		dst = protocol.AppendVarInt(dst, int32(toBits(c.single)))
		return protocol.AppendVarInt(dst, 0)
	}
}

func (c *PalettedContainer[T]) appendDirect(dst []byte, toBits func(T) uint64, directBits int) []byte {
	dst = append(dst, byte(directBits))
	dst = protocol.AppendVarInt(dst, int32(compactLongsLen(c.length, directBits)))
	return appendCompactLongs(dst, c.length, directBits, func(idx int) uint64 {
		return toBits(c.Get(idx))
	})
}

// compactLongsLen returns the number of 64-bit words needed to store count
// entries of bitsPerEntry bits when entries may not span two words.
func compactLongsLen(count, bitsPerEntry int) int {
	perLong := 64 / bitsPerEntry
	return (count + perLong - 1) / perLong
}

// appendCompactLongs packs count entries into big-endian 64-bit words,
// least significant bits first. Leftover high bits of each word stay zero.
func appendCompactLongs(dst []byte, count, bitsPerEntry int, value func(idx int) uint64) []byte {
	if bitsPerEntry < 1 || bitsPerEntry > 64 {
		panic(fmt.Sprintf("chunk: invalid bits per entry %d", bitsPerEntry))
	}

	perLong := 64 / bitsPerEntry
	limit := uint64(1)<<bitsPerEntry - 1

	var word [8]byte
	for start := 0; start < count; start += perLong {
		var long uint64
		for i := 0; i < perLong && start+i < count; i++ {
			v := value(start + i)
			if v > limit {
				panic(fmt.Sprintf("chunk: value %d does not fit in %d bits", v, bitsPerEntry))
			}
			long |= v << (i * bitsPerEntry)
		}
		binary.BigEndian.PutUint64(word[:], long)
		dst = append(dst, word[:]...)
	}
	return dst
}
