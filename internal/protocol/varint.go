package protocol

import "fmt"

// Width is the declared bit width of a varint.
type Width uint8

const (
	Width16  Width = 16
	Width32  Width = 32
	Width64  Width = 64
	Width128 Width = 128
)

func (w Width) valid() bool {
	switch w {
	case Width16, Width32, Width64, Width128:
		return true
	}
	return false
}

// MaxBytes is the longest wire form for w: 16->3, 32->5, 64->10, 128->19.
func (w Width) MaxBytes() int {
	return (int(w) + 6) / 7
}

// maxFinalByte bounds the byte in the last permitted group position, which
// only has w mod 7 payload bits left.
func (w Width) maxFinalByte() byte {
	return byte(1<<(uint(w)%7)) - 1
}

// ReadVarint decodes one varint of width w. The accumulator is 128 bits wide
// for every width so no group is truncated before the range checks run.
func ReadVarint(c *Cursor, w Width) (Uint128, error) {
	if !w.valid() {
		return Uint128{}, fmt.Errorf("%w: %d", ErrUnsupportedWidth, w)
	}
	start := c.Offset()
	limit := w.MaxBytes()
	var out Uint128
	for i := 0; i < limit; i++ {
		b, err := c.Pop()
		if err != nil {
			return Uint128{}, err
		}
		out = out.Or(U128(uint64(b & 0x7f)).Lsh(uint(7 * i)))
		if b&0x80 != 0 {
			continue
		}
		if i == limit-1 && b > w.maxFinalByte() {
			return Uint128{}, fmt.Errorf("%w: u%d final group 0x%02x at offset %d", ErrInvalidVarint, w, b, start)
		}
		return out, nil
	}
	return Uint128{}, fmt.Errorf("%w: u%d longer than %d bytes at offset %d", ErrInvalidVarint, w, limit, start)
}

// AppendVarint appends the canonical wire form of v to dst. It fails with
// ErrVarintOverflow when v does not fit in w bits.
func AppendVarint(dst []byte, v Uint128, w Width) ([]byte, error) {
	if !w.valid() {
		return dst, fmt.Errorf("%w: %d", ErrUnsupportedWidth, w)
	}
	if v.BitLen() > int(w) {
		return dst, fmt.Errorf("%w: %d-bit value for u%d", ErrVarintOverflow, v.BitLen(), w)
	}
	return appendGroups(dst, v), nil
}

func appendGroups(dst []byte, v Uint128) []byte {
	for {
		b := byte(v.Lo & 0x7f)
		v = v.Rsh(7)
		if v.IsZero() {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// VarintLen returns the number of bytes AppendVarint emits for v.
func VarintLen(v Uint128) int {
	n := (v.BitLen() + 6) / 7
	if n == 0 {
		return 1
	}
	return n
}

func ReadU16(c *Cursor) (uint16, error) {
	v, err := ReadVarint(c, Width16)
	if err != nil {
		return 0, err
	}
	return uint16(v.Lo), nil
}

func ReadU32(c *Cursor) (uint32, error) {
	v, err := ReadVarint(c, Width32)
	if err != nil {
		return 0, err
	}
	return uint32(v.Lo), nil
}

func ReadU64(c *Cursor) (uint64, error) {
	v, err := ReadVarint(c, Width64)
	if err != nil {
		return 0, err
	}
	return v.Lo, nil
}

func ReadU128(c *Cursor) (Uint128, error) {
	return ReadVarint(c, Width128)
}
