package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"reflect"

	"github.com/willf/bitset"

	"github.com/go-theft-craft/chunklayer/pkg/world/nbt"
)

const tagName = "mc"

// Marshal encodes a Packet struct into bytes using mc struct tags.
func Marshal(p Packet) ([]byte, error) {
	v := reflect.ValueOf(p)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("marshal: expected struct, got %s", v.Kind())
	}

	var buf bytes.Buffer
	if err := marshalStruct(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalStruct(w io.Writer, v reflect.Value) error {
	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get(tagName)
		if tag == "" || tag == "-" {
			continue
		}

		var err error
		if tag == "array" {
			err = writeArray(w, v.Field(i))
		} else {
			err = WriteField(w, tag, v.Field(i).Interface())
		}
		if err != nil {
			return fmt.Errorf("marshal field %s: %w", field.Name, err)
		}
	}
	return nil
}

// writeArray writes a VarInt count followed by each struct element encoded
// with its own mc tags.
func writeArray(w io.Writer, v reflect.Value) error {
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("array: expected slice, got %s", v.Kind())
	}
	if _, err := WriteVarInt(w, int32(v.Len())); err != nil {
		return err
	}
	for i := range v.Len() {
		elem := v.Index(i)
		if elem.Kind() == reflect.Ptr {
			elem = elem.Elem()
		}
		if elem.Kind() != reflect.Struct {
			return fmt.Errorf("array: expected struct elements, got %s", elem.Kind())
		}
		if err := marshalStruct(w, elem); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// WriteField encodes val as the wire type named by tag.
func WriteField(w io.Writer, tag string, val any) error {
	switch tag {
	case "varint":
		_, err := WriteVarInt(w, val.(int32))
		return err
	case "u8":
		return binary.Write(w, binary.BigEndian, val.(uint8))
	case "i16":
		return binary.Write(w, binary.BigEndian, val.(int16))
	case "i32":
		return binary.Write(w, binary.BigEndian, val.(int32))
	case "bytearray":
		_, err := WriteByteArray(w, val.([]byte))
		return err
	case "bytearrays":
		arrays := val.([][]byte)
		if _, err := WriteVarInt(w, int32(len(arrays))); err != nil {
			return err
		}
		for _, a := range arrays {
			if _, err := WriteByteArray(w, a); err != nil {
				return err
			}
		}
		return nil
	case "bitset":
		return WriteLongArray(w, bitSetWords(val.(*bitset.BitSet)))
	case "nbt":
		nw := nbt.NewWriter(w)
		nw.WriteCompound("", val.(nbt.Compound))
		return nw.Err()
	default:
		return fmt.Errorf("unknown field tag: %q", tag)
	}
}

// bitSetWords returns the words of b without trailing zero words, matching
// the minimal long array a client expects. A nil set encodes as empty.
func bitSetWords(b *bitset.BitSet) []uint64 {
	if b == nil {
		return nil
	}
	words := b.Bytes()
	n := len(words)
	for n > 0 && words[n-1] == 0 {
		n--
	}
	return words[:n]
}
