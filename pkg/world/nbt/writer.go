package nbt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"slices"
)

// NBT tag type IDs.
const (
	TagEnd       byte = 0
	TagByte      byte = 1
	TagShort     byte = 2
	TagInt       byte = 3
	TagLong      byte = 4
	TagFloat     byte = 5
	TagDouble    byte = 6
	TagByteArray byte = 7
	TagString    byte = 8
	TagList      byte = 9
	TagCompound  byte = 10
	TagIntArray  byte = 11
	TagLongArray byte = 12
)

// Writer writes NBT binary data to an io.Writer in big-endian format.
// All write methods accumulate errors internally; call Err() after writing
// to check for failures.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter creates a new NBT Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first error encountered during writing.
func (w *Writer) Err() error {
	return w.err
}

// Marshal encodes c as a root compound with an empty name.
func Marshal(c Compound) ([]byte, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteCompound("", c)
	if err := w.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *Writer) write(data []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(data)
}

func (w *Writer) putByte(v byte) {
	w.write([]byte{v})
}

func (w *Writer) putUint16(v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	w.write(buf[:])
}

func (w *Writer) putInt32(v int32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	w.write(buf[:])
}

func (w *Writer) putInt64(v int64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	w.write(buf[:])
}

func (w *Writer) putString(s string) {
	w.putUint16(uint16(len(s)))
	if len(s) > 0 {
		w.write([]byte(s))
	}
}

func (w *Writer) writeTagHeader(tagType byte, name string) {
	w.putByte(tagType)
	w.putString(name)
}

// BeginCompound writes a compound tag header. Use name="" for the root.
func (w *Writer) BeginCompound(name string) {
	w.writeTagHeader(TagCompound, name)
}

// EndCompound writes an End tag to close a compound.
func (w *Writer) EndCompound() {
	w.putByte(TagEnd)
}

// WriteCompound writes c as a named compound tag. Keys are written in sorted
// order so equal compounds always produce identical bytes.
func (w *Writer) WriteCompound(name string, c Compound) {
	w.BeginCompound(name)
	w.compoundPayload(c)
}

// WriteTag writes a single named tag whose type is inferred from v.
func (w *Writer) WriteTag(name string, v any) {
	tag, ok := tagTypeOf(v)
	if !ok {
		w.fail(fmt.Errorf("nbt: unsupported value type %T for %q", v, name))
		return
	}
	w.writeTagHeader(tag, name)
	w.payload(v)
}

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) compoundPayload(c Compound) {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		w.WriteTag(k, c[k])
	}
	w.EndCompound()
}

func (w *Writer) payload(v any) {
	switch v := v.(type) {
	case bool:
		if v {
			w.putByte(1)
		} else {
			w.putByte(0)
		}
	case int8:
		w.putByte(byte(v))
	case uint8:
		w.putByte(v)
	case int16:
		w.putUint16(uint16(v))
	case int32:
		w.putInt32(v)
	case int64:
		w.putInt64(v)
	case float32:
		w.putInt32(int32(math.Float32bits(v)))
	case float64:
		w.putInt64(int64(math.Float64bits(v)))
	case []byte:
		w.putInt32(int32(len(v)))
		w.write(v)
	case string:
		w.putString(v)
	case []int32:
		w.putInt32(int32(len(v)))
		for _, val := range v {
			w.putInt32(val)
		}
	case []int64:
		w.putInt32(int32(len(v)))
		for _, val := range v {
			w.putInt64(val)
		}
	case Compound:
		w.compoundPayload(v)
	case []Compound:
		w.putByte(TagCompound)
		w.putInt32(int32(len(v)))
		for _, c := range v {
			w.compoundPayload(c)
		}
	case []string:
		w.putByte(TagString)
		w.putInt32(int32(len(v)))
		for _, s := range v {
			w.putString(s)
		}
	}
}

func tagTypeOf(v any) (byte, bool) {
	switch v.(type) {
	case bool, int8, uint8:
		return TagByte, true
	case int16:
		return TagShort, true
	case int32:
		return TagInt, true
	case int64:
		return TagLong, true
	case float32:
		return TagFloat, true
	case float64:
		return TagDouble, true
	case []byte:
		return TagByteArray, true
	case string:
		return TagString, true
	case []int32:
		return TagIntArray, true
	case []int64:
		return TagLongArray, true
	case Compound:
		return TagCompound, true
	case []Compound, []string:
		return TagList, true
	}
	return 0, false
}
