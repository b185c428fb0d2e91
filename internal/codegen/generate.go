// Package codegen renders Go wire bindings from a TOML interface schema.
package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"text/template"

	"github.com/rs/zerolog/log"
)

var bindings = template.Must(template.New("bindings").Parse(bindingsTemplate))

// Generate renders gofmt-ed bindings for s. source is recorded in the header.
func Generate(s Schema, source string) ([]byte, error) {
	m, err := resolve(s, source)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := bindings.Execute(&buf, m); err != nil {
		return nil, fmt.Errorf("codegen: render: %w", err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("codegen: format: %w", err)
	}
	return out, nil
}

// GenerateFile loads schemaPath and writes the bindings to outPath.
func GenerateFile(schemaPath, outPath string) error {
	s, err := LoadSchema(schemaPath)
	if err != nil {
		return err
	}
	out, err := Generate(s, filepath.Base(schemaPath))
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return err
	}
	log.Info().
		Str("schema", schemaPath).
		Str("out", outPath).
		Int("bytes", len(out)).
		Msg("bindings generated")
	return nil
}
