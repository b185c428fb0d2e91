package protocol

import (
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/ipcwire/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"pgregory.net/rapid"
)

type shade uint32

const (
	shadeLight shade = iota
	shadeDark
	shadeNone
)

func (s shade) Valid() bool { return s <= shadeNone }

func (s shade) EncodeWire(w *Writer) { WriteEnum(w, s) }

func (s *shade) DecodeWire(c *Cursor) error {
	v, err := ReadEnum[shade](c)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

type swatch struct {
	Name   string
	Tags   []string
	Shade  shade
	Weight uint64
}

func (s swatch) EncodeWire(w *Writer) {
	w.PutString(s.Name)
	WriteList(w, (*Writer).PutString, s.Tags)
	WriteEnum(w, s.Shade)
	w.PutU64(s.Weight)
}

func (s *swatch) DecodeWire(c *Cursor) error {
	var err error
	if s.Name, err = ReadString(c); err != nil {
		return err
	}
	if s.Tags, err = ReadList(c, ReadString); err != nil {
		return err
	}
	if s.Shade, err = ReadEnum[shade](c); err != nil {
		return err
	}
	if s.Weight, err = ReadU64(c); err != nil {
		return err
	}
	return nil
}

var cmpOpts = []cmp.Option{
	cmp.Exporter(func(reflect.Type) bool { return true }),
	cmpopts.EquateEmpty(),
}

func encode(t testing.TB, fn func(w *Writer)) []byte {
	t.Helper()
	w := NewWriter(0)
	fn(w)
	if err := w.Err(); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return w.Bytes()
}

// assertTruncationUnderflows checks every strict prefix of full fails with
// ErrBufferUnderflow rather than yielding a value.
func assertTruncationUnderflows[T any](t *testing.T, full []byte, decode func(*Cursor) (T, error)) {
	t.Helper()
	for cut := 0; cut < len(full); cut++ {
		v, err := DecodeAll(full[:cut], decode)
		if !errors.Is(err, ErrBufferUnderflow) {
			t.Fatalf("cut=%d of %d: expected ErrBufferUnderflow, got value=%v err=%v", cut, len(full), v, err)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	testlog.Start(t)
	for _, s := range []string{"", "a", "alice", "héllo wörld", "日本語", "👋🏽 emoji", string(make([]byte, 300))} {
		enc := encode(t, func(w *Writer) { w.PutString(s) })
		got, err := DecodeAll(enc, ReadString)
		if err != nil {
			t.Fatalf("decode %q: %v", s, err)
		}
		if got != s {
			t.Fatalf("round trip: got %q want %q", got, s)
		}
	}
}

func TestStringWireForm(t *testing.T) {
	testlog.Start(t)
	enc := encode(t, func(w *Writer) { w.PutString("hi") })
	want := []byte{0x02, 'h', 'i'}
	if diff := cmp.Diff(want, enc); diff != "" {
		t.Fatalf("wire mismatch (-want +got):\n%s", diff)
	}
}

func TestStringInvalidUTF8(t *testing.T) {
	testlog.Start(t)
	if _, err := DecodeAll([]byte{0x02, 0xc3, 0x28}, ReadString); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
	w := NewWriter(0)
	w.PutString(string([]byte{0xff, 0xfe}))
	if !errors.Is(w.Err(), ErrInvalidUTF8) {
		t.Fatalf("expected encode ErrInvalidUTF8, got %v", w.Err())
	}
}

func TestStringLengthBeyondBuffer(t *testing.T) {
	testlog.Start(t)
	buf := encode(t, func(w *Writer) { w.PutU64(1 << 40) })
	buf = append(buf, 'x')
	c := NewCursor(buf)
	if _, err := ReadString(c); !errors.Is(err, ErrBufferUnderflow) {
		t.Fatalf("expected ErrBufferUnderflow, got %v", err)
	}
}

func TestListRoundTrip(t *testing.T) {
	testlog.Start(t)
	for _, in := range [][]string{{}, {"one"}, {"a", "", "ccc", "δ"}} {
		enc := encode(t, func(w *Writer) { WriteList(w, (*Writer).PutString, in) })
		got, err := DecodeAll(enc, func(c *Cursor) ([]string, error) { return ReadList(c, ReadString) })
		if err != nil {
			t.Fatalf("decode %v: %v", in, err)
		}
		if diff := cmp.Diff(in, got, cmpOpts...); diff != "" {
			t.Fatalf("list mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestListHugeCountRejectedBeforeAllocation(t *testing.T) {
	testlog.Start(t)
	buf := encode(t, func(w *Writer) { w.PutU64(^uint64(0)) })
	_, err := DecodeAll(buf, func(c *Cursor) ([]string, error) { return ReadList(c, ReadString) })
	if !errors.Is(err, ErrBufferUnderflow) {
		t.Fatalf("expected ErrBufferUnderflow, got %v", err)
	}
}

func TestOptionRoundTripAcrossTypes(t *testing.T) {
	testlog.Start(t)

	t.Run("string", func(t *testing.T) {
		for _, o := range []Option[string]{None[string](), Some(""), Some("code-123")} {
			enc := encode(t, func(w *Writer) { WriteOption(w, (*Writer).PutString, o) })
			got, err := DecodeAll(enc, func(c *Cursor) (Option[string], error) { return ReadOption(c, ReadString) })
			if err != nil {
				t.Fatalf("decode %v: %v", o, err)
			}
			if diff := cmp.Diff(o, got, cmpOpts...); diff != "" {
				t.Fatalf("option mismatch (-want +got):\n%s", diff)
			}
		}
	})

	t.Run("list", func(t *testing.T) {
		for _, o := range []Option[[]string]{None[[]string](), Some([]string{"x", "y"})} {
			enc := encode(t, func(w *Writer) {
				WriteOption(w, func(w *Writer, v []string) { WriteList(w, (*Writer).PutString, v) }, o)
			})
			got, err := DecodeAll(enc, func(c *Cursor) (Option[[]string], error) {
				return ReadOption(c, func(c *Cursor) ([]string, error) { return ReadList(c, ReadString) })
			})
			if err != nil {
				t.Fatalf("decode %v: %v", o, err)
			}
			if diff := cmp.Diff(o, got, cmpOpts...); diff != "" {
				t.Fatalf("option mismatch (-want +got):\n%s", diff)
			}
		}
	})

	t.Run("enum", func(t *testing.T) {
		for _, o := range []Option[shade]{None[shade](), Some(shadeLight), Some(shadeNone)} {
			enc := encode(t, func(w *Writer) { WriteOption(w, WriteEnum[shade], o) })
			got, err := DecodeAll(enc, func(c *Cursor) (Option[shade], error) { return ReadOption(c, ReadEnum[shade]) })
			if err != nil {
				t.Fatalf("decode %v: %v", o, err)
			}
			if diff := cmp.Diff(o, got, cmpOpts...); diff != "" {
				t.Fatalf("option mismatch (-want +got):\n%s", diff)
			}
		}
	})

	t.Run("struct", func(t *testing.T) {
		for _, o := range []Option[swatch]{None[swatch](), Some(swatch{Name: "teal", Tags: []string{"cool"}, Shade: shadeDark, Weight: 1 << 50})} {
			enc := encode(t, func(w *Writer) { WriteOption(w, WriteValue[swatch], o) })
			got, err := DecodeAll(enc, func(c *Cursor) (Option[swatch], error) { return ReadOption(c, ReadValue[swatch, *swatch]) })
			if err != nil {
				t.Fatalf("decode %v: %v", o, err)
			}
			if diff := cmp.Diff(o, got, cmpOpts...); diff != "" {
				t.Fatalf("option mismatch (-want +got):\n%s", diff)
			}
		}
	})

	t.Run("option", func(t *testing.T) {
		inner := func(w *Writer, v Option[string]) { WriteOption(w, (*Writer).PutString, v) }
		readInner := func(c *Cursor) (Option[string], error) { return ReadOption(c, ReadString) }
		for _, o := range []Option[Option[string]]{None[Option[string]](), Some(None[string]()), Some(Some("deep"))} {
			enc := encode(t, func(w *Writer) { WriteOption(w, inner, o) })
			got, err := DecodeAll(enc, func(c *Cursor) (Option[Option[string]], error) { return ReadOption(c, readInner) })
			if err != nil {
				t.Fatalf("decode %v: %v", o, err)
			}
			if diff := cmp.Diff(o, got, cmpOpts...); diff != "" {
				t.Fatalf("option mismatch (-want +got):\n%s", diff)
			}
		}
	})

	t.Run("result", func(t *testing.T) {
		inner := func(w *Writer, r Result[string, shade]) { WriteResult(w, (*Writer).PutString, WriteEnum[shade], r) }
		readInner := func(c *Cursor) (Result[string, shade], error) { return ReadResult(c, ReadString, ReadEnum[shade]) }
		for _, o := range []Option[Result[string, shade]]{
			None[Result[string, shade]](),
			Some(Ok[string, shade]("fine")),
			Some(Err[string](shadeDark)),
		} {
			enc := encode(t, func(w *Writer) { WriteOption(w, inner, o) })
			got, err := DecodeAll(enc, func(c *Cursor) (Option[Result[string, shade]], error) { return ReadOption(c, readInner) })
			if err != nil {
				t.Fatalf("decode %v: %v", o, err)
			}
			if diff := cmp.Diff(o, got, cmpOpts...); diff != "" {
				t.Fatalf("option mismatch (-want +got):\n%s", diff)
			}
		}
	})
}

func TestOptionAccessors(t *testing.T) {
	testlog.Start(t)
	if v, ok := None[string]().Get(); ok || v != "" {
		t.Fatalf("none yielded %q", v)
	}
	if v, ok := Some("x").Get(); !ok || v != "x" {
		t.Fatalf("some yielded %q %v", v, ok)
	}
	if got := None[int]().OrElse(4); got != 4 {
		t.Fatalf("OrElse got %d", got)
	}
	code := "123456"
	if !OptionFromPtr(&code).IsSome() || !OptionFromPtr[string](nil).IsNone() {
		t.Fatalf("OptionFromPtr mismatch")
	}
	var zero Option[string]
	if zero.IsSome() {
		t.Fatalf("zero option should be none")
	}
}

func TestResultRoundTrip(t *testing.T) {
	testlog.Start(t)
	writeR := func(w *Writer, r Result[swatch, shade]) { WriteResult(w, WriteValue[swatch], WriteEnum[shade], r) }
	readR := func(c *Cursor) (Result[swatch, shade], error) {
		return ReadResult(c, ReadValue[swatch, *swatch], ReadEnum[shade])
	}

	ok := Ok[swatch, shade](swatch{Name: "ink", Tags: nil, Shade: shadeNone, Weight: 3})
	enc := encode(t, func(w *Writer) { writeR(w, ok) })
	if enc[0] != 0 {
		t.Fatalf("ok tag should be 0, got %d", enc[0])
	}
	got, err := DecodeAll(enc, readR)
	if err != nil {
		t.Fatalf("decode ok: %v", err)
	}
	v, isOk := got.Value()
	if !isOk || v.Name != "ink" || v.Weight != 3 || len(v.Tags) != 0 {
		t.Fatalf("unexpected ok payload %+v ok=%v", v, isOk)
	}

	bad := Err[swatch](shadeDark)
	enc = encode(t, func(w *Writer) { writeR(w, bad) })
	if enc[0] != 1 {
		t.Fatalf("err tag should be 1, got %d", enc[0])
	}
	got, err = DecodeAll(enc, readR)
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	e, isErr := got.ErrValue()
	if !isErr || e != shadeDark {
		t.Fatalf("unexpected err payload %v isErr=%v", e, isErr)
	}
	if _, isOk := got.Value(); isOk {
		t.Fatalf("err result reported ok")
	}
}

func TestInvalidTags(t *testing.T) {
	testlog.Start(t)
	for _, tag := range []byte{2, 7, 0xff} {
		if _, err := DecodeAll([]byte{tag, 0x00}, func(c *Cursor) (Option[string], error) { return ReadOption(c, ReadString) }); !errors.Is(err, ErrInvalidTag) {
			t.Fatalf("option tag %d: expected ErrInvalidTag, got %v", tag, err)
		}
		if _, err := DecodeAll([]byte{tag, 0x00}, func(c *Cursor) (Result[string, shade], error) {
			return ReadResult(c, ReadString, ReadEnum[shade])
		}); !errors.Is(err, ErrInvalidTag) {
			t.Fatalf("result tag %d: expected ErrInvalidTag, got %v", tag, err)
		}
	}
}

func TestEnumUnknownCase(t *testing.T) {
	testlog.Start(t)
	if _, err := DecodeAll([]byte{0x03}, ReadEnum[shade]); !errors.Is(err, ErrUnknownEnumCase) {
		t.Fatalf("expected ErrUnknownEnumCase, got %v", err)
	}
	big := encode(t, func(w *Writer) { w.PutU32(1 << 20) })
	if _, err := DecodeAll(big, ReadEnum[shade]); !errors.Is(err, ErrUnknownEnumCase) {
		t.Fatalf("expected ErrUnknownEnumCase, got %v", err)
	}
	for _, s := range []shade{shadeLight, shadeDark, shadeNone} {
		got, err := DecodeAll([]byte{byte(s)}, ReadEnum[shade])
		if err != nil || got != s {
			t.Fatalf("ordinal %d: got %d err %v", s, got, err)
		}
	}
}

func TestStructMarshalUnmarshal(t *testing.T) {
	testlog.Start(t)
	in := swatch{Name: "slate", Tags: []string{"grey", "stone"}, Shade: shadeDark, Weight: 900}
	enc, err := Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out swatch
	if err := Unmarshal(enc, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(in, out, cmpOpts...); diff != "" {
		t.Fatalf("struct mismatch (-want +got):\n%s", diff)
	}

	if err := Unmarshal(append(enc, 0x00), &out); !errors.Is(err, ErrTrailingData) {
		t.Fatalf("expected ErrTrailingData, got %v", err)
	}
}

func TestTruncatedCompositesUnderflow(t *testing.T) {
	testlog.Start(t)

	str := encode(t, func(w *Writer) { w.PutString("truncate me ✂") })
	assertTruncationUnderflows(t, str, ReadString)

	list := encode(t, func(w *Writer) { WriteList(w, (*Writer).PutString, []string{"a", "bb", "ccc"}) })
	assertTruncationUnderflows(t, list, func(c *Cursor) ([]string, error) { return ReadList(c, ReadString) })

	opt := encode(t, func(w *Writer) { WriteOption(w, (*Writer).PutString, Some("present")) })
	assertTruncationUnderflows(t, opt, func(c *Cursor) (Option[string], error) { return ReadOption(c, ReadString) })

	res := encode(t, func(w *Writer) {
		WriteResult(w, WriteValue[swatch], WriteEnum[shade], Ok[swatch, shade](swatch{Name: "n", Tags: []string{"t"}, Shade: shadeLight, Weight: 1 << 33}))
	})
	assertTruncationUnderflows(t, res, func(c *Cursor) (Result[swatch, shade], error) {
		return ReadResult(c, ReadValue[swatch, *swatch], ReadEnum[shade])
	})

	enum := encode(t, func(w *Writer) { WriteEnum(w, shadeNone) })
	assertTruncationUnderflows(t, enum, ReadEnum[shade])

	st := encode(t, func(w *Writer) { WriteValue(w, swatch{Name: "x", Shade: shadeDark, Weight: 77}) })
	assertTruncationUnderflows(t, st, ReadValue[swatch, *swatch])
}

func TestStringListProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.SliceOf(rapid.String()).Draw(t, "strings")
		w := NewWriter(0)
		WriteList(w, (*Writer).PutString, in)
		if err := w.Err(); err != nil {
			t.Fatalf("encode: %v", err)
		}
		got, err := DecodeAll(w.Bytes(), func(c *Cursor) ([]string, error) { return ReadList(c, ReadString) })
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != len(in) {
			t.Fatalf("length: got %d want %d", len(got), len(in))
		}
		for i := range in {
			if got[i] != in[i] {
				t.Fatalf("element %d: got %q want %q", i, got[i], in[i])
			}
		}
	})
}
