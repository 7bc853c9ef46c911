package protocol

import (
	"bytes"
	"fmt"
	"io"
)

// maxPacketLength is the largest frame a client accepts (2^21 - 1).
const maxPacketLength = 1<<21 - 1

type Packet interface {
	PacketID() int32
}

func ReadRawPacket(r io.Reader) (packetID int32, data []byte, err error) {
	payload, err := readFrame(r)
	if err != nil {
		return 0, nil, err
	}
	return splitPacketID(payload)
}

// ReadCompressedPacket reads a frame written with compression enabled: the
// frame carries the uncompressed data length, zero meaning the payload was
// stored as is.
func ReadCompressedPacket(r io.Reader) (packetID int32, data []byte, err error) {
	frame, err := readFrame(r)
	if err != nil {
		return 0, nil, err
	}

	buf := bytes.NewReader(frame)
	dataLen, _, err := ReadVarInt(buf)
	if err != nil {
		return 0, nil, fmt.Errorf("read data length: %w", err)
	}

	rest := frame[len(frame)-buf.Len():]
	if dataLen == 0 {
		return splitPacketID(rest)
	}
	if dataLen < 0 || dataLen > maxPacketLength {
		return 0, nil, fmt.Errorf("data length out of range: %d", dataLen)
	}

	payload, err := inflate(rest, int(dataLen))
	if err != nil {
		return 0, nil, fmt.Errorf("decompress packet: %w", err)
	}
	return splitPacketID(payload)
}

func readFrame(r io.Reader) ([]byte, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("read packet length: %w", err)
	}
	if length < 1 {
		return nil, fmt.Errorf("packet length too small: %d", length)
	}
	if length > maxPacketLength {
		return nil, fmt.Errorf("packet too large: %d bytes", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read packet payload: %w", err)
	}
	return payload, nil
}

func splitPacketID(payload []byte) (int32, []byte, error) {
	buf := bytes.NewReader(payload)
	packetID, _, err := ReadVarInt(buf)
	if err != nil {
		return 0, nil, fmt.Errorf("read packet ID: %w", err)
	}
	return packetID, payload[len(payload)-buf.Len():], nil
}

func WriteRawPacket(w io.Writer, packetID int32, data []byte) error {
	idSize := VarIntSize(packetID)
	totalLen := idSize + len(data)

	var buf bytes.Buffer
	buf.Grow(VarIntSize(int32(totalLen)) + totalLen)

	if _, err := WriteVarInt(&buf, int32(totalLen)); err != nil {
		return fmt.Errorf("write packet length: %w", err)
	}
	if _, err := WriteVarInt(&buf, packetID); err != nil {
		return fmt.Errorf("write packet ID: %w", err)
	}
	if _, err := buf.Write(data); err != nil {
		return fmt.Errorf("write packet data: %w", err)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("flush packet: %w", err)
	}
	return nil
}
