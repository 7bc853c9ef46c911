package protocol

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// CompressionThreshold is the minimum size, in bytes, of a packet body
// (including its ID) that gets zlib-compressed. A negative threshold
// disables compression and selects the uncompressed frame layout.
type CompressionThreshold int32

// NoCompression disables compression.
const NoCompression CompressionThreshold = -1

// Enabled reports whether frames use the compressed layout.
func (t CompressionThreshold) Enabled() bool {
	return t >= 0
}

// Writer frames packets onto an underlying io.Writer, applying the
// configured compression threshold.
type Writer struct {
	w         io.Writer
	threshold CompressionThreshold
}

// NewWriter creates a Writer that frames packets for the given threshold.
func NewWriter(w io.Writer, threshold CompressionThreshold) *Writer {
	return &Writer{w: w, threshold: threshold}
}

// Threshold returns the compression threshold packets are framed with.
func (pw *Writer) Threshold() CompressionThreshold {
	return pw.threshold
}

// WritePacket marshals p and writes it as one frame.
func (pw *Writer) WritePacket(p Packet) error {
	data, err := Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal packet 0x%02X: %w", p.PacketID(), err)
	}
	return pw.WriteRawPacket(p.PacketID(), data)
}

// WriteRawPacket frames an already marshalled packet body.
func (pw *Writer) WriteRawPacket(packetID int32, data []byte) error {
	if !pw.threshold.Enabled() {
		return WriteRawPacket(pw.w, packetID, data)
	}

	uncompressed := make([]byte, 0, VarIntSize(packetID)+len(data))
	uncompressed = AppendVarInt(uncompressed, packetID)
	uncompressed = append(uncompressed, data...)

	var frame []byte
	if len(uncompressed) < int(pw.threshold) {
		frame = AppendVarInt(frame, 0)
		frame = append(frame, uncompressed...)
	} else {
		compressed, err := deflate(uncompressed)
		if err != nil {
			return fmt.Errorf("compress packet 0x%02X: %w", packetID, err)
		}
		frame = AppendVarInt(frame, int32(len(uncompressed)))
		frame = append(frame, compressed...)
	}

	out := make([]byte, 0, VarIntSize(int32(len(frame)))+len(frame))
	out = AppendVarInt(out, int32(len(frame)))
	out = append(out, frame...)

	if _, err := pw.w.Write(out); err != nil {
		return fmt.Errorf("flush packet: %w", err)
	}
	return nil
}

// WritePacketBytes writes bytes that are already framed for this writer's
// threshold, such as a cached packet.
func (pw *Writer) WritePacketBytes(b []byte) error {
	if _, err := pw.w.Write(b); err != nil {
		return fmt.Errorf("write packet bytes: %w", err)
	}
	return nil
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func inflate(data []byte, size int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	out := make([]byte, size)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, err
	}
	return out, nil
}
