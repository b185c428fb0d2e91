package codegen

const bindingsTemplate = `// Code generated by ipcgen from {{.Source}}. DO NOT EDIT.

package {{.Package}}

import (
	"context"
{{- if or .Enums .Records}}
	"fmt"
{{- end}}

	"github.com/danmuck/ipcwire/internal/protocol"
)

const (
{{- range .Funcs}}
	Endpoint{{.GoName}} = "{{.Endpoint}}"
{{- end}}
)

// Endpoints lists every endpoint in declaration order.
var Endpoints = []string{
{{- range .Funcs}}
	Endpoint{{.GoName}},
{{- end}}
}
{{range $e := .Enums}}
type {{$e.GoName}} uint32

const (
{{- range $i, $c := $e.Cases}}
	{{$e.GoName}}{{$c}}{{if eq $i 0}} {{$e.GoName}} = iota{{end}}
{{- end}}
)

func (e {{$e.GoName}}) Valid() bool {
	return e < {{len $e.Cases}}
}

func (e {{$e.GoName}}) String() string {
	switch e {
{{- range $e.Cases}}
	case {{$e.GoName}}{{.}}:
		return "{{.}}"
{{- end}}
	}
	return fmt.Sprintf("{{$e.GoName}}(%d)", uint32(e))
}

func (e {{$e.GoName}}) EncodeWire(w *protocol.Writer) {
	protocol.WriteEnum(w, e)
}

func (e *{{$e.GoName}}) DecodeWire(c *protocol.Cursor) error {
	v, err := protocol.ReadEnum[{{$e.GoName}}](c)
	if err != nil {
		return err
	}
	*e = v
	return nil
}
{{end}}
{{- range $r := .Records}}
type {{$r.GoName}} struct {
{{- range $r.Fields}}
	{{.GoName}} {{.Type.GoType}}
{{- end}}
}

func (v {{$r.GoName}}) EncodeWire(w *protocol.Writer) {
{{- range $r.Fields}}
	{{.Type.WriteStmt "w" (printf "v.%s" .GoName)}}
{{- end}}
}

func (v *{{$r.GoName}}) DecodeWire(c *protocol.Cursor) error {
	var err error
{{- range $r.Fields}}
	if v.{{.GoName}}, err = {{.Type.ReadCall "c"}}; err != nil {
		return fmt.Errorf("{{$r.GoName}}.{{.GoName}}: %w", err)
	}
{{- end}}
	return nil
}
{{end}}
// Backend is implemented by the serving side of every endpoint. A returned
// error is a failure to produce a reply, not an application error code.
type Backend interface {
{{- range .Funcs}}
	{{.GoName}}(ctx context.Context{{range .Params}}, {{.GoName}} {{.Type.GoType}}{{end}}) ({{.Result.GoType}}, error)
{{- end}}
}
{{range $f := .Funcs}}
// {{$f.GoName}} calls the {{$f.Endpoint}} endpoint.
func (cl *Client) {{$f.GoName}}(ctx context.Context{{range $f.Params}}, {{.GoName}} {{.Type.GoType}}{{end}}) ({{$f.Result.GoType}}, error) {
	args := protocol.NewWriter(0)
{{- range $f.Params}}
	{{.Type.WriteStmt "args" .GoName}}
{{- end}}
	return invoke(ctx, cl, Endpoint{{$f.GoName}}, args, {{$f.Result.ReaderFunc}})
}
{{end}}
var handlers = map[string]handlerFunc{
{{- range $f := .Funcs}}
	Endpoint{{$f.GoName}}: func(ctx context.Context, b Backend, args *protocol.Cursor, out *protocol.Writer) error {
{{- range $f.Params}}
		{{.GoName}}, err := {{.Type.ReadCall "args"}}
		if err != nil {
			return argError(Endpoint{{$f.GoName}}, "{{.GoName}}", err)
		}
{{- end}}
		if err := args.Finish(); err != nil {
			return argError(Endpoint{{$f.GoName}}, "", err)
		}
		ret, err := b.{{$f.GoName}}(ctx{{range $f.Params}}, {{.GoName}}{{end}})
		if err != nil {
			return err
		}
		{{$f.Result.WriteStmt "out" "ret"}}
		return nil
	},
{{- end}}
}
`
