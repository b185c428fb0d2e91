package protocol

import "fmt"

// Enum is satisfied by generated enumerations: uint32 ordinals assigned in
// declaration order, closed over the declared cases.
type Enum interface {
	~uint32
	Valid() bool
}

func ReadEnum[E Enum](c *Cursor) (E, error) {
	start := c.Offset()
	v, err := ReadU32(c)
	if err != nil {
		var zero E
		return zero, err
	}
	e := E(v)
	if !e.Valid() {
		var zero E
		return zero, fmt.Errorf("%w: %T ordinal %d at offset %d", ErrUnknownEnumCase, e, v, start)
	}
	return e, nil
}

func WriteEnum[E Enum](w *Writer, e E) {
	w.PutU32(uint32(e))
}
