package codegen

import (
	"fmt"
	"go/token"
	"strings"
)

type enumModel struct {
	GoName string
	Cases  []string
}

type fieldModel struct {
	GoName string
	Type   *TypeRef
}

type recordModel struct {
	GoName string
	Fields []fieldModel
}

type funcModel struct {
	GoName   string
	Endpoint string
	Params   []fieldModel
	Result   *TypeRef
}

type model struct {
	Source  string
	Package string
	Enums   []enumModel
	Records []recordModel
	Funcs   []funcModel
}

// Names used by the generated stubs and handlers; params must not shadow them.
var reservedLocals = map[string]bool{
	"ctx": true, "cl": true, "args": true, "out": true, "b": true, "ret": true, "err": true, "protocol": true,
}

func paramName(name string) string {
	n := localName(name)
	if token.IsKeyword(n) || reservedLocals[n] {
		return n + "Arg"
	}
	return n
}

// resolve validates s and builds the template model.
func resolve(s Schema, source string) (model, error) {
	m := model{Source: source, Package: s.Package}
	if !token.IsIdentifier(s.Package) {
		return m, fmt.Errorf("%w: package %q", ErrInvalidSchema, s.Package)
	}

	seen := map[string]string{}
	declare := func(kind, name string) error {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: %s with empty name", ErrInvalidSchema, kind)
		}
		goName := exportedName(name)
		if prev, dup := seen[goName]; dup {
			return fmt.Errorf("%w: %s %q collides with %s", ErrInvalidSchema, kind, name, prev)
		}
		seen[goName] = kind + " " + name
		return nil
	}

	enums := map[string]bool{}
	records := map[string]bool{}
	for _, e := range s.Enums {
		if err := declare("enum", e.Name); err != nil {
			return m, err
		}
		if len(e.Cases) == 0 {
			return m, fmt.Errorf("%w: enum %q has no cases", ErrInvalidSchema, e.Name)
		}
		enums[e.Name] = true
		em := enumModel{GoName: exportedName(e.Name)}
		caseSeen := map[string]bool{}
		for _, c := range e.Cases {
			cn := exportedName(c)
			if cn == "" || caseSeen[cn] {
				return m, fmt.Errorf("%w: enum %q case %q", ErrInvalidSchema, e.Name, c)
			}
			caseSeen[cn] = true
			em.Cases = append(em.Cases, cn)
		}
		m.Enums = append(m.Enums, em)
	}
	for _, r := range s.Records {
		if err := declare("record", r.Name); err != nil {
			return m, err
		}
		records[r.Name] = true
	}

	fields := func(owner string, decls []FieldDecl, name func(string) string) ([]fieldModel, error) {
		out := make([]fieldModel, 0, len(decls))
		names := map[string]bool{}
		for _, f := range decls {
			t, err := parseType(f.Type, enums, records)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", owner, f.Name, err)
			}
			n := name(f.Name)
			if n == "" || names[n] {
				return nil, fmt.Errorf("%w: %s field %q", ErrInvalidSchema, owner, f.Name)
			}
			names[n] = true
			out = append(out, fieldModel{GoName: n, Type: t})
		}
		return out, nil
	}

	for _, r := range s.Records {
		fs, err := fields(r.Name, r.Fields, exportedName)
		if err != nil {
			return m, err
		}
		m.Records = append(m.Records, recordModel{GoName: exportedName(r.Name), Fields: fs})
	}

	endpoints := map[string]bool{}
	for _, f := range s.Funcs {
		if err := declare("func", f.Name); err != nil {
			return m, err
		}
		ps, err := fields(f.Name, f.Params, paramName)
		if err != nil {
			return m, err
		}
		if strings.TrimSpace(f.Result) == "" {
			return m, fmt.Errorf("%w: func %q has no result", ErrInvalidSchema, f.Name)
		}
		res, err := parseType(f.Result, enums, records)
		if err != nil {
			return m, fmt.Errorf("%s result: %w", f.Name, err)
		}
		ep := f.Endpoint
		if ep == "" {
			ep = endpointName(f.Name)
		}
		if endpoints[ep] {
			return m, fmt.Errorf("%w: duplicate endpoint %q", ErrInvalidSchema, ep)
		}
		endpoints[ep] = true
		m.Funcs = append(m.Funcs, funcModel{GoName: exportedName(f.Name), Endpoint: ep, Params: ps, Result: res})
	}
	return m, nil
}
