package chunk

// maxPaletteLen is the number of distinct values an indirect container can
// hold before it switches to direct storage. Indices are stored as nibbles.
const maxPaletteLen = 16

// PalettedContainer holds a fixed number of values of T in the smallest of
// three representations: a single value repeated everywhere, a palette of
// up to 16 distinct values with a 4-bit index per entry, or one value per
// entry.
//
// The zero value is not usable; create containers with NewPalettedContainer.
type PalettedContainer[T comparable] struct {
	length int

	single T

	// Indirect representation, active when palette is non-nil.
	palette []T
	indices []byte

	// Direct representation, active when direct is non-nil.
	direct []T
}

// NewPalettedContainer returns a container of length entries, all set to v.
func NewPalettedContainer[T comparable](length int, v T) PalettedContainer[T] {
	return PalettedContainer[T]{length: length, single: v}
}

// Len returns the number of entries.
func (c *PalettedContainer[T]) Len() int {
	return c.length
}

// Get returns the value at idx.
func (c *PalettedContainer[T]) Get(idx int) T {
	c.checkIndex(idx)

	switch {
	case c.direct != nil:
		return c.direct[idx]
	case c.palette != nil:
		return c.palette[c.index(idx)]
	default:
		return c.single
	}
}

// Set stores v at idx and returns the previous value.
func (c *PalettedContainer[T]) Set(idx int, v T) T {
	c.checkIndex(idx)

	switch {
	case c.direct != nil:
		old := c.direct[idx]
		c.direct[idx] = v
		return old

	case c.palette != nil:
		old := c.palette[c.index(idx)]
		if old == v {
			return old
		}
		if i, ok := c.paletteIndex(v); ok {
			c.setIndex(idx, i)
			return old
		}
		if len(c.palette) < maxPaletteLen {
			c.palette = append(c.palette, v)
			c.setIndex(idx, len(c.palette)-1)
			return old
		}
		c.toDirect()
		c.direct[idx] = v
		return old

	default:
		old := c.single
		if old == v {
			return old
		}
		c.palette = make([]T, 2, maxPaletteLen)
		c.palette[0], c.palette[1] = old, v
		c.indices = make([]byte, (c.length+1)/2)
		c.setIndex(idx, 1)
		return old
	}
}

// Fill sets every entry to v, collapsing to the single value representation.
func (c *PalettedContainer[T]) Fill(v T) {
	c.single = v
	c.palette = nil
	c.indices = nil
	c.direct = nil
}

// Clone returns an independent copy of c.
func (c *PalettedContainer[T]) Clone() PalettedContainer[T] {
	out := PalettedContainer[T]{length: c.length, single: c.single}
	if c.palette != nil {
		out.palette = append(make([]T, 0, maxPaletteLen), c.palette...)
		out.indices = append([]byte(nil), c.indices...)
	}
	if c.direct != nil {
		out.direct = append([]T(nil), c.direct...)
	}
	return out
}

// Count returns the number of entries for which pred returns true.
func (c *PalettedContainer[T]) Count(pred func(T) bool) int {
	switch {
	case c.direct != nil:
		n := 0
		for _, v := range c.direct {
			if pred(v) {
				n++
			}
		}
		return n

	case c.palette != nil:
		matches := make([]bool, len(c.palette))
		for i, v := range c.palette {
			matches[i] = pred(v)
		}
		n := 0
		for idx := range c.length {
			if matches[c.index(idx)] {
				n++
			}
		}
		return n

	default:
		if pred(c.single) {
			return c.length
		}
		return 0
	}
}

// ShrinkToFit rebuilds the container in the smallest representation able to
// hold its current contents. Unused palette entries are dropped.
func (c *PalettedContainer[T]) ShrinkToFit() {
	if c.palette == nil && c.direct == nil {
		return
	}

	var distinct []T
	seen := make(map[T]int, maxPaletteLen)
	for idx := range c.length {
		v := c.Get(idx)
		if _, ok := seen[v]; !ok {
			seen[v] = len(distinct)
			distinct = append(distinct, v)
		}
	}

	switch {
	case len(distinct) == 1:
		c.Fill(distinct[0])
	case len(distinct) <= maxPaletteLen:
		indices := make([]byte, (c.length+1)/2)
		for idx := range c.length {
			setNibble(indices, idx, seen[c.Get(idx)])
		}
		c.palette = append(make([]T, 0, maxPaletteLen), distinct...)
		c.indices = indices
		c.direct = nil
	case c.direct == nil:
		c.toDirect()
	}
}

func (c *PalettedContainer[T]) toDirect() {
	direct := make([]T, c.length)
	for idx := range c.length {
		direct[idx] = c.palette[c.index(idx)]
	}
	c.direct = direct
	c.palette = nil
	c.indices = nil
}

func (c *PalettedContainer[T]) paletteIndex(v T) (int, bool) {
	for i, p := range c.palette {
		if p == v {
			return i, true
		}
	}
	return 0, false
}

func (c *PalettedContainer[T]) index(idx int) int {
	b := c.indices[idx/2]
	if idx%2 == 0 {
		return int(b & 0x0F)
	}
	return int(b >> 4)
}

func (c *PalettedContainer[T]) setIndex(idx, i int) {
	setNibble(c.indices, idx, i)
}

func (c *PalettedContainer[T]) checkIndex(idx int) {
	if idx < 0 || idx >= c.length {
		panic("chunk: paletted container index out of range")
	}
}

// setNibble sets a 4-bit value at the given entry index in a nibble array.
func setNibble(arr []byte, index, val int) {
	byteIdx := index / 2
	if index%2 == 0 {
		arr[byteIdx] = (arr[byteIdx] & 0xF0) | byte(val&0x0F)
	} else {
		arr[byteIdx] = (arr[byteIdx] & 0x0F) | byte((val&0x0F)<<4)
	}
}
