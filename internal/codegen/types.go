package codegen

import (
	"fmt"
	"strings"
)

type Kind int

const (
	KindPrimitive Kind = iota
	KindEnum
	KindRecord
	KindList
	KindOption
	KindResult
)

// TypeRef is a resolved type expression such as result<user, get-user-error-code>.
type TypeRef struct {
	Kind Kind
	Name string // primitive name or declared kebab-case name
	Args []*TypeRef
}

type primitive struct {
	goType string
	read   string
	put    string
}

var primitives = map[string]primitive{
	"string": {"string", "ReadString", "PutString"},
	"u16":    {"uint16", "ReadU16", "PutU16"},
	"u32":    {"uint32", "ReadU32", "PutU32"},
	"u64":    {"uint64", "ReadU64", "PutU64"},
	"u128":   {"protocol.Uint128", "ReadU128", "PutU128"},
}

// parseType parses expr against the declared enum and record names.
func parseType(expr string, enums, records map[string]bool) (*TypeRef, error) {
	p := &typeParser{src: expr, enums: enums, records: records}
	t, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("%w: trailing input in %q", ErrUnknownType, expr)
	}
	return t, nil
}

type typeParser struct {
	src     string
	pos     int
	enums   map[string]bool
	records map[string]bool
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		ch := p.src[p.pos]
		if ch == '-' || ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			p.pos++
			continue
		}
		break
	}
	return p.src[start:p.pos]
}

func (p *typeParser) expect(ch byte) error {
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != ch {
		return fmt.Errorf("%w: expected %q at %d in %q", ErrUnknownType, ch, p.pos, p.src)
	}
	p.pos++
	return nil
}

func (p *typeParser) parse() (*TypeRef, error) {
	name := p.ident()
	if name == "" {
		return nil, fmt.Errorf("%w: empty type in %q", ErrUnknownType, p.src)
	}
	arity := map[string]int{"list": 1, "option": 1, "result": 2}
	if n, generic := arity[name]; generic {
		if err := p.expect('<'); err != nil {
			return nil, err
		}
		t := &TypeRef{Name: name}
		for i := 0; i < n; i++ {
			if i > 0 {
				if err := p.expect(','); err != nil {
					return nil, err
				}
			}
			arg, err := p.parse()
			if err != nil {
				return nil, err
			}
			t.Args = append(t.Args, arg)
		}
		if err := p.expect('>'); err != nil {
			return nil, err
		}
		switch name {
		case "list":
			t.Kind = KindList
		case "option":
			t.Kind = KindOption
		default:
			t.Kind = KindResult
		}
		return t, nil
	}
	switch {
	case primitives[name].goType != "":
		return &TypeRef{Kind: KindPrimitive, Name: name}, nil
	case p.enums[name]:
		return &TypeRef{Kind: KindEnum, Name: name}, nil
	case p.records[name]:
		return &TypeRef{Kind: KindRecord, Name: name}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// GoType renders the Go type for t.
func (t *TypeRef) GoType() string {
	switch t.Kind {
	case KindPrimitive:
		return primitives[t.Name].goType
	case KindList:
		return "[]" + t.Args[0].GoType()
	case KindOption:
		return "protocol.Option[" + t.Args[0].GoType() + "]"
	case KindResult:
		return "protocol.Result[" + t.Args[0].GoType() + ", " + t.Args[1].GoType() + "]"
	default:
		return exportedName(t.Name)
	}
}

// ReaderFunc renders an expression of type func(*protocol.Cursor) (T, error).
func (t *TypeRef) ReaderFunc() string {
	switch t.Kind {
	case KindPrimitive:
		return "protocol." + primitives[t.Name].read
	case KindEnum:
		return "protocol.ReadEnum[" + t.GoType() + "]"
	case KindRecord:
		return "protocol.ReadValue[" + t.GoType() + ", *" + t.GoType() + "]"
	default:
		return "func(c *protocol.Cursor) (" + t.GoType() + ", error) {\nreturn " + t.ReadCall("c") + "\n}"
	}
}

// ReadCall renders a call reading t from cursor c.
func (t *TypeRef) ReadCall(c string) string {
	switch t.Kind {
	case KindList:
		return "protocol.ReadList(" + c + ", " + t.Args[0].ReaderFunc() + ")"
	case KindOption:
		return "protocol.ReadOption(" + c + ", " + t.Args[0].ReaderFunc() + ")"
	case KindResult:
		return "protocol.ReadResult(" + c + ", " + t.Args[0].ReaderFunc() + ", " + t.Args[1].ReaderFunc() + ")"
	default:
		return t.ReaderFunc() + "(" + c + ")"
	}
}

// WriterFunc renders an expression of type func(*protocol.Writer, T).
func (t *TypeRef) WriterFunc() string {
	switch t.Kind {
	case KindPrimitive:
		return "(*protocol.Writer)." + primitives[t.Name].put
	case KindEnum:
		return "protocol.WriteEnum[" + t.GoType() + "]"
	case KindRecord:
		return "protocol.WriteValue[" + t.GoType() + "]"
	default:
		return "func(w *protocol.Writer, v " + t.GoType() + ") {\n" + t.WriteStmt("w", "v") + "\n}"
	}
}

// WriteStmt renders a statement writing expression x with writer w.
func (t *TypeRef) WriteStmt(w, x string) string {
	switch t.Kind {
	case KindPrimitive:
		return w + "." + primitives[t.Name].put + "(" + x + ")"
	case KindEnum, KindRecord:
		return x + ".EncodeWire(" + w + ")"
	case KindList:
		return "protocol.WriteList(" + w + ", " + t.Args[0].WriterFunc() + ", " + x + ")"
	case KindOption:
		return "protocol.WriteOption(" + w + ", " + t.Args[0].WriterFunc() + ", " + x + ")"
	default:
		return "protocol.WriteResult(" + w + ", " + t.Args[0].WriterFunc() + ", " + t.Args[1].WriterFunc() + ", " + x + ")"
	}
}

func (t *TypeRef) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return t.Name + "<" + strings.Join(args, ", ") + ">"
}
