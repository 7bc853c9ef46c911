package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

func ReadVarInt(r io.Reader) (int32, int, error) {
	var result uint32
	var numRead int
	buf := make([]byte, 1)

	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, numRead, err
		}
		numRead++

		result |= uint32(buf[0]&0x7F) << (7 * (numRead - 1))

		if buf[0]&0x80 == 0 {
			break
		}

		if numRead >= 5 {
			return 0, numRead, fmt.Errorf("VarInt too long")
		}
	}

	return int32(result), numRead, nil
}

func WriteVarInt(w io.Writer, value int32) (int, error) {
	var buf [5]byte
	n := PutVarInt(buf[:], value)
	return w.Write(buf[:n])
}

func PutVarInt(buf []byte, value int32) int {
	val := uint32(value)
	n := 0
	for {
		b := byte(val & 0x7F)
		val >>= 7
		if val != 0 {
			b |= 0x80
		}
		buf[n] = b
		n++
		if val == 0 {
			break
		}
	}
	return n
}

// AppendVarInt appends the VarInt encoding of value to dst.
func AppendVarInt(dst []byte, value int32) []byte {
	var buf [5]byte
	n := PutVarInt(buf[:], value)
	return append(dst, buf[:n]...)
}

func VarIntSize(value int32) int {
	val := uint32(value)
	size := 0
	for {
		size++
		val >>= 7
		if val == 0 {
			break
		}
	}
	return size
}

func ReadByteArray(r io.Reader) ([]byte, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("read byte array length: %w", err)
	}
	if length < 0 {
		return nil, fmt.Errorf("negative byte array length: %d", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read byte array data: %w", err)
	}
	return buf, nil
}

func WriteByteArray(w io.Writer, data []byte) (int, error) {
	n1, err := WriteVarInt(w, int32(len(data)))
	if err != nil {
		return n1, err
	}
	n2, err := w.Write(data)
	return n1 + n2, err
}

// ReadLongArray reads a VarInt-prefixed array of big-endian 64-bit words.
func ReadLongArray(r io.Reader) ([]uint64, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("read long array length: %w", err)
	}
	if length < 0 {
		return nil, fmt.Errorf("negative long array length: %d", length)
	}
	longs := make([]uint64, length)
	if err := binary.Read(r, binary.BigEndian, longs); err != nil {
		return nil, fmt.Errorf("read long array data: %w", err)
	}
	return longs, nil
}

// WriteLongArray writes a VarInt length followed by each word in big-endian order.
func WriteLongArray(w io.Writer, longs []uint64) error {
	if _, err := WriteVarInt(w, int32(len(longs))); err != nil {
		return err
	}
	var buf [8]byte
	for _, l := range longs {
		binary.BigEndian.PutUint64(buf[:], l)
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

func ReadU8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func ReadI16(r io.Reader) (int16, error) {
	var val int16
	if err := binary.Read(r, binary.BigEndian, &val); err != nil {
		return 0, err
	}
	return val, nil
}

func ReadI32(r io.Reader) (int32, error) {
	var val int32
	if err := binary.Read(r, binary.BigEndian, &val); err != nil {
		return 0, err
	}
	return val, nil
}
