package chunk

import (
	"errors"
	"sort"
)

// Errors returned by chunk operations.
var (
	ErrOutOfRange = errors.New("position out of range")
	ErrFull       = errors.New("chunk capacity exceeded")
)

// Chunk is a fixed-capacity mutable byte sequence with a newline table.
// The newline table holds the offset of every '\n' inside the chunk and is
// kept sorted across all mutations.
type Chunk struct {
	id       uint32
	capacity int
	data     []byte
	newlines []int
}

// newChunk creates an empty chunk. Chunks are only created by a Pool.
func newChunk(id uint32, capacity int) *Chunk {
	return &Chunk{
		id:       id,
		capacity: capacity,
		data:     make([]byte, 0, minInt(capacity, initialAlloc)),
	}
}

// initialAlloc bounds the first allocation so small documents do not pay
// for a full 64 KiB chunk up front.
const initialAlloc = 1024

// ID returns the chunk's stable pool identifier.
func (c *Chunk) ID() uint32 { return c.id }

// Len returns the number of bytes stored.
func (c *Chunk) Len() int { return len(c.data) }

// Capacity returns the fixed capacity.
func (c *Chunk) Capacity() int { return c.capacity }

// Free returns the remaining space before the chunk is full.
func (c *Chunk) Free() int { return c.capacity - len(c.data) }

// IsEmpty returns true if the chunk holds no bytes.
func (c *Chunk) IsEmpty() bool { return len(c.data) == 0 }

// String returns the chunk contents.
func (c *Chunk) String() string { return string(c.data) }

// Sub returns the bytes in [start, end) as a string.
func (c *Chunk) Sub(start, end int) (string, error) {
	if start < 0 || end < start || end > len(c.data) {
		return "", ErrOutOfRange
	}
	return string(c.data[start:end]), nil
}

// LineStarts returns the sorted offsets of every newline in the chunk.
// The returned slice is owned by the chunk; callers must not mutate it.
func (c *Chunk) LineStarts() []int { return c.newlines }

// NewlineCount returns the number of newlines in the chunk.
func (c *Chunk) NewlineCount() int { return len(c.newlines) }

// Append adds s at the end of the chunk, recording newline offsets.
func (c *Chunk) Append(s string) error {
	if len(c.data)+len(s) > c.capacity {
		return ErrFull
	}
	base := len(c.data)
	c.data = append(c.data, s...)
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			c.newlines = append(c.newlines, base+i)
		}
	}
	return nil
}

// Insert places s at local position pos, shifting existing newline entries
// and merging in the newlines of s so the table stays sorted.
func (c *Chunk) Insert(pos int, s string) error {
	if pos < 0 || pos > len(c.data) {
		return ErrOutOfRange
	}
	if len(c.data)+len(s) > c.capacity {
		return ErrFull
	}
	if len(s) == 0 {
		return nil
	}

	c.data = append(c.data, make([]byte, len(s))...)
	copy(c.data[pos+len(s):], c.data[pos:])
	copy(c.data[pos:], s)

	// Shift entries at or past the insertion point, then splice in the
	// newlines carried by s at their sorted position.
	at := sort.SearchInts(c.newlines, pos)
	for i := at; i < len(c.newlines); i++ {
		c.newlines[i] += len(s)
	}
	var added []int
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			added = append(added, pos+i)
		}
	}
	if len(added) > 0 {
		c.newlines = append(c.newlines, added...)
		copy(c.newlines[at+len(added):], c.newlines[at:len(c.newlines)-len(added)])
		copy(c.newlines[at:], added)
	}
	return nil
}

// Delete removes n bytes starting at local position pos, dropping newline
// entries inside the removed range and shifting the rest.
func (c *Chunk) Delete(pos, n int) error {
	if pos < 0 || n < 0 || pos+n > len(c.data) {
		return ErrOutOfRange
	}
	if n == 0 {
		return nil
	}

	c.data = append(c.data[:pos], c.data[pos+n:]...)

	lo := sort.SearchInts(c.newlines, pos)
	hi := sort.SearchInts(c.newlines, pos+n)
	c.newlines = append(c.newlines[:lo], c.newlines[hi:]...)
	for i := lo; i < len(c.newlines); i++ {
		c.newlines[i] -= n
	}
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
