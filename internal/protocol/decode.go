package protocol

// Decodable is implemented by pointers to generated enum and struct types.
type Decodable interface {
	DecodeWire(c *Cursor) error
}

// Unmarshal decodes buf into v and requires every byte to be consumed.
func Unmarshal(buf []byte, v Decodable) error {
	c := NewCursor(buf)
	if err := v.DecodeWire(c); err != nil {
		return err
	}
	return c.Finish()
}

// DecodeAll runs decode over buf and requires every byte to be consumed.
func DecodeAll[T any](buf []byte, decode func(*Cursor) (T, error)) (T, error) {
	c := NewCursor(buf)
	v, err := decode(c)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := c.Finish(); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// ReadValue adapts a Decodable type to the element-reader shape used by
// lists, options and results.
func ReadValue[T any, PT interface {
	*T
	Decodable
}](c *Cursor) (T, error) {
	var v T
	if err := PT(&v).DecodeWire(c); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
