// Package definitions reads CRS definition catalogs from YAML files.
package definitions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jobrunner/gauss/internal/domain"
)

// Document is the top-level structure of a definition file.
type Document struct {
	Definitions []domain.CRSDefinition `yaml:"definitions"`
}

// File reads definitions from a YAML file.
type File struct {
	path string
}

// NewFile creates a definition source for the given path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Location returns the file path.
func (f *File) Location() string {
	return f.path
}

// Load reads and validates all definitions of the file.
func (f *File) Load(ctx context.Context) ([]domain.CRSDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("opening definitions: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// Decode reads a definition document. Unknown fields and duplicate codes
// are errors; every definition is validated.
func Decode(r io.Reader) ([]domain.CRSDefinition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding definitions: %w", err)
	}

	seen := make(map[int]bool, len(doc.Definitions))
	var errs []error
	for _, def := range doc.Definitions {
		if seen[def.Code] {
			errs = append(errs, &domain.DefinitionError{Code: def.Code, Err: errors.New("duplicate code")})
			continue
		}
		seen[def.Code] = true
		if err := def.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return doc.Definitions, nil
}

// Encode writes definitions as a YAML document.
func Encode(w io.Writer, defs []domain.CRSDefinition) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Document{Definitions: defs}); err != nil {
		return fmt.Errorf("encoding definitions: %w", err)
	}
	return enc.Close()
}
