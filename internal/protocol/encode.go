package protocol

import (
	"fmt"
	"unicode/utf8"
)

// Encodable is implemented by generated enum and struct types.
type Encodable interface {
	EncodeWire(w *Writer)
}

// Writer accumulates one encoded message. The first failure is sticky: later
// writes are dropped and Err reports it.
type Writer struct {
	buf []byte
	err error
}

func NewWriter(capHint int) *Writer {
	if capHint < 0 {
		capHint = 0
	}
	return &Writer{buf: make([]byte, 0, capHint)}
}

// Bytes returns the encoded bytes. The result is only meaningful when Err is nil.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) PutByte(b byte) {
	if w.err != nil {
		return
	}
	w.buf = append(w.buf, b)
}

func (w *Writer) PutU16(v uint16) {
	w.putVarint(U128(uint64(v)))
}

func (w *Writer) PutU32(v uint32) {
	w.putVarint(U128(uint64(v)))
}

func (w *Writer) PutU64(v uint64) {
	w.putVarint(U128(v))
}

func (w *Writer) PutU128(v Uint128) {
	w.putVarint(v)
}

// PutVarint writes v with an explicit width check.
func (w *Writer) PutVarint(v Uint128, width Width) {
	if w.err != nil {
		return
	}
	buf, err := AppendVarint(w.buf, v, width)
	if err != nil {
		w.fail(err)
		return
	}
	w.buf = buf
}

func (w *Writer) putVarint(v Uint128) {
	if w.err != nil {
		return
	}
	w.buf = appendGroups(w.buf, v)
}

// PutString writes a u64 length prefix and the UTF-8 bytes of s. Strings
// that are not valid UTF-8 fail the writer, since no decoder would accept them.
func (w *Writer) PutString(s string) {
	if w.err != nil {
		return
	}
	if !utf8.ValidString(s) {
		w.fail(fmt.Errorf("%w: encode string at offset %d", ErrInvalidUTF8, len(w.buf)))
		return
	}
	w.putVarint(U128(uint64(len(s))))
	w.buf = append(w.buf, s...)
}

// Marshal encodes v into a fresh buffer.
func Marshal(v Encodable) ([]byte, error) {
	w := NewWriter(16)
	v.EncodeWire(w)
	if err := w.Err(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// WriteValue adapts an Encodable to the element-writer shape used by lists,
// options and results.
func WriteValue[T Encodable](w *Writer, v T) {
	v.EncodeWire(w)
}
