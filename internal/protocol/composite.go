package protocol

import (
	"fmt"
	"unicode/utf8"
)

// ReadString decodes a u64 length prefix followed by that many UTF-8 bytes.
func ReadString(c *Cursor) (string, error) {
	start := c.Offset()
	n, err := ReadU64(c)
	if err != nil {
		return "", fmt.Errorf("string length: %w", err)
	}
	if n > uint64(c.Remaining()) {
		return "", fmt.Errorf("%w: string of %d bytes at offset %d, %d remaining", ErrBufferUnderflow, n, start, c.Remaining())
	}
	b, err := c.TakeN(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: string at offset %d", ErrInvalidUTF8, start)
	}
	return string(b), nil
}

// ReadList decodes a u64 element count followed by that many elements.
// Every element type on this wire encodes to at least one byte, so a count
// larger than the remaining buffer is rejected before anything is allocated.
func ReadList[T any](c *Cursor, elem func(*Cursor) (T, error)) ([]T, error) {
	start := c.Offset()
	n, err := ReadU64(c)
	if err != nil {
		return nil, fmt.Errorf("list length: %w", err)
	}
	if n > uint64(c.Remaining()) {
		return nil, fmt.Errorf("%w: list of %d elements at offset %d, %d bytes remaining", ErrBufferUnderflow, n, start, c.Remaining())
	}
	out := make([]T, 0, int(n))
	for i := uint64(0); i < n; i++ {
		v, err := elem(c)
		if err != nil {
			return nil, fmt.Errorf("list element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func WriteList[T any](w *Writer, elem func(*Writer, T), vs []T) {
	w.PutU64(uint64(len(vs)))
	for _, v := range vs {
		if w.err != nil {
			return
		}
		elem(w, v)
	}
}

// readTag reads a one-byte 0/1 discriminant.
func readTag(c *Cursor, kind string) (bool, error) {
	start := c.Offset()
	tag, err := c.Pop()
	if err != nil {
		return false, fmt.Errorf("%s tag: %w", kind, err)
	}
	switch tag {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s tag %d at offset %d", ErrInvalidTag, kind, tag, start)
	}
}

func writeTag(w *Writer, set bool) {
	if set {
		w.PutByte(1)
		return
	}
	w.PutByte(0)
}
