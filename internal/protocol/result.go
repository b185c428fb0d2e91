package protocol

import "fmt"

// Result holds either an Ok value of T or an Err value of E. The zero Result
// is Ok with the zero T.
type Result[T, E any] struct {
	ok    T
	err   E
	isErr bool
}

func Ok[T, E any](v T) Result[T, E] {
	return Result[T, E]{ok: v}
}

func Err[T, E any](e E) Result[T, E] {
	return Result[T, E]{err: e, isErr: true}
}

func (r Result[T, E]) IsOk() bool {
	return !r.isErr
}

func (r Result[T, E]) IsErr() bool {
	return r.isErr
}

// Value returns the Ok payload; ok is false for an Err result.
func (r Result[T, E]) Value() (T, bool) {
	return r.ok, !r.isErr
}

// ErrValue returns the Err payload; ok is false for an Ok result.
func (r Result[T, E]) ErrValue() (E, bool) {
	return r.err, r.isErr
}

func (r Result[T, E]) String() string {
	if r.isErr {
		return fmt.Sprintf("Err(%v)", r.err)
	}
	return fmt.Sprintf("Ok(%v)", r.ok)
}

func ReadResult[T, E any](c *Cursor, ok func(*Cursor) (T, error), fail func(*Cursor) (E, error)) (Result[T, E], error) {
	isErr, err := readTag(c, "result")
	if err != nil {
		return Result[T, E]{}, err
	}
	if isErr {
		e, err := fail(c)
		if err != nil {
			return Result[T, E]{}, fmt.Errorf("result err: %w", err)
		}
		return Err[T](e), nil
	}
	v, err := ok(c)
	if err != nil {
		return Result[T, E]{}, fmt.Errorf("result ok: %w", err)
	}
	return Ok[T, E](v), nil
}

func WriteResult[T, E any](w *Writer, ok func(*Writer, T), fail func(*Writer, E), r Result[T, E]) {
	writeTag(w, r.isErr)
	if r.isErr {
		fail(w, r.err)
		return
	}
	ok(w, r.ok)
}
