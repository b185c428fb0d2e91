package protocol

import "fmt"

// Option holds a value of T or nothing. The zero Option is None.
type Option[T any] struct {
	value T
	some  bool
}

func Some[T any](v T) Option[T] {
	return Option[T]{value: v, some: true}
}

func None[T any]() Option[T] {
	return Option[T]{}
}

// OptionFromPtr returns None for nil and Some(*p) otherwise.
func OptionFromPtr[T any](p *T) Option[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

func (o Option[T]) Get() (T, bool) {
	return o.value, o.some
}

func (o Option[T]) IsSome() bool {
	return o.some
}

func (o Option[T]) IsNone() bool {
	return !o.some
}

func (o Option[T]) OrElse(def T) T {
	if o.some {
		return o.value
	}
	return def
}

func (o Option[T]) String() string {
	if !o.some {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", o.value)
}

func ReadOption[T any](c *Cursor, inner func(*Cursor) (T, error)) (Option[T], error) {
	some, err := readTag(c, "option")
	if err != nil {
		return Option[T]{}, err
	}
	if !some {
		return None[T](), nil
	}
	v, err := inner(c)
	if err != nil {
		return Option[T]{}, fmt.Errorf("option value: %w", err)
	}
	return Some(v), nil
}

func WriteOption[T any](w *Writer, inner func(*Writer, T), o Option[T]) {
	writeTag(w, o.some)
	if o.some {
		inner(w, o.value)
	}
}
