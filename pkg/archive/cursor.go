package archive

import (
	"encoding/binary"
	"io"
)

// Cursor reads fixed-width little-endian fields from an unbuffered stream and tracks
// how many bytes have been consumed. It never seeks.
type Cursor struct {
	r   io.Reader
	pos int64
	buf [4]byte
}

func NewCursor(r io.Reader) *Cursor {
	return &Cursor{r: r}
}

// Pos returns the number of bytes consumed so far.
func (c *Cursor) Pos() int64 {
	return c.pos
}

func (c *Cursor) fill(n int) ([]byte, error) {
	b := c.buf[:n]
	read, err := io.ReadFull(c.r, b)
	c.pos += int64(read)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Cursor) ReadUint16() (uint16, error) {
	b, err := c.fill(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *Cursor) ReadUint32() (uint32, error) {
	b, err := c.fill(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *Cursor) ReadInt32() (int32, error) {
	v, err := c.ReadUint32()
	return int32(v), err
}

// ReadTag reads a 4-byte tag verbatim.
func (c *Cursor) ReadTag() ([4]byte, error) {
	var tag [4]byte
	b, err := c.fill(4)
	if err != nil {
		return tag, err
	}
	copy(tag[:], b)
	return tag, nil
}

// ReadPadded reads one meaningful byte followed by three padding bytes.
func (c *Cursor) ReadPadded() (uint8, error) {
	b, err := c.fill(4)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadFull fills p completely.
func (c *Cursor) ReadFull(p []byte) error {
	n, err := io.ReadFull(c.r, p)
	c.pos += int64(n)
	return err
}

// ReadBytes returns the next n bytes in a freshly allocated slice.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	p := make([]byte, n)
	if err := c.ReadFull(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadUpTo reads at most n bytes, growing the result as data arrives so a bogus size
// cannot force a large allocation.
func (c *Cursor) ReadUpTo(n int64) ([]byte, error) {
	p, err := io.ReadAll(io.LimitReader(c.r, n))
	c.pos += int64(len(p))
	return p, err
}
