package protocol

import "fmt"

// Cursor reads forward over an immutable buffer.
// Invariant: 0 <= off <= len(buf).
type Cursor struct {
	buf []byte
	off int
}

func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Pop returns the byte at the current offset and advances by one.
func (c *Cursor) Pop() (byte, error) {
	if c.off >= len(c.buf) {
		return 0, fmt.Errorf("%w: pop at offset %d", ErrBufferUnderflow, c.off)
	}
	b := c.buf[c.off]
	c.off++
	return b, nil
}

// TakeN returns the next n bytes and advances by n. On failure the offset is
// left untouched. The returned slice aliases the buffer and is capacity-capped
// so appends never write into it.
func (c *Cursor) TakeN(n int) ([]byte, error) {
	if n < 0 || n > len(c.buf)-c.off {
		return nil, fmt.Errorf("%w: take %d at offset %d, %d remaining", ErrBufferUnderflow, n, c.off, c.Remaining())
	}
	start := c.off
	c.off += n
	return c.buf[start:c.off:c.off], nil
}

func (c *Cursor) Offset() int {
	return c.off
}

func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}

// Finish reports ErrTrailingData when unread bytes remain.
func (c *Cursor) Finish() error {
	if rem := c.Remaining(); rem != 0 {
		return fmt.Errorf("%w: %d bytes after offset %d", ErrTrailingData, rem, c.off)
	}
	return nil
}
