package world

import (
	"bytes"
	"testing"

	"github.com/Tnze/go-mc/level"
	mcnbt "github.com/Tnze/go-mc/nbt"

	"github.com/go-theft-craft/chunklayer/pkg/protocol"
	"github.com/go-theft-craft/chunklayer/pkg/world/chunk"
)

type decodedChunk struct {
	X, Z          int32
	Heightmaps    map[string]any
	Sections      []decodedSection
	BlockEntities []decodedBlockEntity
	LightMasks    [4][]uint64
	LightArrays   [2]int32
}

type decodedSection struct {
	NonAir    int16
	BlockBits int
	Blocks    []uint64
	BiomeBits int
	Biomes    []uint64
}

type decodedBlockEntity struct {
	PackedXZ uint8
	Y        int16
	Kind     int32
	Data     map[string]any
}

// decodeFrame reads one chunk data frame written with threshold and checks
// nothing follows it.
func decodeFrame(t *testing.T, frame []byte, threshold protocol.CompressionThreshold, sections int) decodedChunk {
	t.Helper()

	r := bytes.NewReader(frame)
	var (
		id   int32
		body []byte
		err  error
	)
	if threshold.Enabled() {
		id, body, err = protocol.ReadCompressedPacket(r)
	} else {
		id, body, err = protocol.ReadRawPacket(r)
	}
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if r.Len() != 0 {
		t.Fatalf("%d bytes after the frame", r.Len())
	}
	if id != ChunkDataPacketID {
		t.Fatalf("packet id = 0x%02X, want 0x%02X", id, ChunkDataPacketID)
	}
	return decodeChunkData(t, body, sections)
}

func decodeChunkData(t *testing.T, body []byte, sections int) decodedChunk {
	t.Helper()

	r := bytes.NewReader(body)
	var d decodedChunk
	must := func(err error, what string) {
		t.Helper()
		if err != nil {
			t.Fatalf("read %s: %v", what, err)
		}
	}

	var err error
	d.X, err = protocol.ReadI32(r)
	must(err, "x")
	d.Z, err = protocol.ReadI32(r)
	must(err, "z")

	_, err = mcnbt.NewDecoder(r).Decode(&d.Heightmaps)
	must(err, "heightmaps")

	data, err := protocol.ReadByteArray(r)
	must(err, "section data")
	sr := bytes.NewReader(data)
	for range sections {
		var s decodedSection
		s.NonAir, err = protocol.ReadI16(sr)
		must(err, "non-air count")
		s.BlockBits, s.Blocks = decodeContainer(t, sr, chunk.SectionBlockCount, blockStateMaxBits)
		s.BiomeBits, s.Biomes = decodeContainer(t, sr, chunk.SectionBiomeCount, biomeMaxBits)
		d.Sections = append(d.Sections, s)
	}
	if sr.Len() != 0 {
		t.Fatalf("%d bytes after %d sections", sr.Len(), sections)
	}

	count, _, err := protocol.ReadVarInt(r)
	must(err, "block entity count")
	for range count {
		var be decodedBlockEntity
		be.PackedXZ, err = protocol.ReadU8(r)
		must(err, "packed xz")
		be.Y, err = protocol.ReadI16(r)
		must(err, "block entity y")
		be.Kind, _, err = protocol.ReadVarInt(r)
		must(err, "block entity kind")
		_, err = mcnbt.NewDecoder(r).Decode(&be.Data)
		must(err, "block entity data")
		d.BlockEntities = append(d.BlockEntities, be)
	}

	for i := range d.LightMasks {
		d.LightMasks[i], err = protocol.ReadLongArray(r)
		must(err, "light mask")
	}
	for i := range d.LightArrays {
		d.LightArrays[i], _, err = protocol.ReadVarInt(r)
		must(err, "light arrays")
	}
	if r.Len() != 0 {
		t.Fatalf("%d bytes after the packet body", r.Len())
	}
	return d
}

// decodeContainer reads one paletted container and expands it to raw IDs.
// Widths above maxIndirect are direct.
func decodeContainer(t *testing.T, r *bytes.Reader, length, maxIndirect int) (int, []uint64) {
	t.Helper()

	bits, err := r.ReadByte()
	if err != nil {
		t.Fatalf("read bits per entry: %v", err)
	}

	var palette []int32
	switch {
	case bits == 0:
		v, _, err := protocol.ReadVarInt(r)
		if err != nil {
			t.Fatalf("read single value: %v", err)
		}
		palette = []int32{v}
	case int(bits) <= maxIndirect:
		n, _, err := protocol.ReadVarInt(r)
		if err != nil {
			t.Fatalf("read palette length: %v", err)
		}
		for range n {
			v, _, err := protocol.ReadVarInt(r)
			if err != nil {
				t.Fatalf("read palette: %v", err)
			}
			palette = append(palette, v)
		}
	}

	longs, err := protocol.ReadLongArray(r)
	if err != nil {
		t.Fatalf("read data array: %v", err)
	}

	out := make([]uint64, length)
	if bits == 0 {
		if len(longs) != 0 {
			t.Fatalf("single valued container has %d longs", len(longs))
		}
		for i := range out {
			out[i] = uint64(palette[0])
		}
		return 0, out
	}

	storage := level.NewBitStorage(int(bits), length, longs)
	for i := range out {
		v := uint64(storage.Get(i))
		if palette != nil {
			v = uint64(palette[v])
		}
		out[i] = v
	}
	return int(bits), out
}
