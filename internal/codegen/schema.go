package codegen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidSchema = errors.New("codegen: invalid schema")
	ErrUnknownType   = errors.New("codegen: unknown type")
)

// Schema is the TOML interface description.
//
//	package = "ipc"
//	[[enum]]   name = "login-error-code"  cases = ["two-factor-required", ...]
//	[[record]] name = "user"              fields = [{ name = "user-id", type = "string" }, ...]
//	[[func]]   name = "login"             params = [...]  result = "option<login-error-code>"
type Schema struct {
	Package string       `toml:"package"`
	Enums   []EnumDecl   `toml:"enum"`
	Records []RecordDecl `toml:"record"`
	Funcs   []FuncDecl   `toml:"func"`
}

type EnumDecl struct {
	Name  string   `toml:"name"`
	Cases []string `toml:"cases"`
}

type FieldDecl struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type RecordDecl struct {
	Name   string      `toml:"name"`
	Fields []FieldDecl `toml:"fields"`
}

type FuncDecl struct {
	Name     string      `toml:"name"`
	Endpoint string      `toml:"endpoint"`
	Params   []FieldDecl `toml:"params"`
	Result   string      `toml:"result"`
}

func ParseSchema(data string) (Schema, error) {
	var s Schema
	meta, err := toml.Decode(data, &s)
	return finishSchema(s, meta, err, "<inline>")
}

func LoadSchema(path string) (Schema, error) {
	var s Schema
	meta, err := toml.DecodeFile(path, &s)
	return finishSchema(s, meta, err, path)
}

func finishSchema(s Schema, meta toml.MetaData, err error, source string) (Schema, error) {
	if err != nil {
		return Schema{}, fmt.Errorf("%w: %s: %v", ErrInvalidSchema, source, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Schema{}, fmt.Errorf("%w: %s: unknown keys %v", ErrInvalidSchema, source, undecoded)
	}
	if strings.TrimSpace(s.Package) == "" {
		s.Package = "ipc"
	}
	log.Debug().
		Str("source", source).
		Int("enums", len(s.Enums)).
		Int("records", len(s.Records)).
		Int("funcs", len(s.Funcs)).
		Msg("codegen schema loaded")
	return s, nil
}
