package validate

import (
	"fmt"
	"path/filepath"

	"github.com/xeipuuv/gojsonschema"

	checkerrors "github.com/randalmurphal/skillcheck/internal/errors"
)

// Schema is a compiled JSON Schema that skill documents must satisfy.
type Schema struct {
	path   string
	schema *gojsonschema.Schema
}

// LoadSchema compiles the JSON Schema at path. Relative $ref values resolve
// against the schema's own location.
func LoadSchema(path string) (*Schema, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, checkerrors.ErrSchemaInvalid(path).WithCause(err)
	}
	loader := gojsonschema.NewReferenceLoader("file://" + filepath.ToSlash(abs))
	compiled, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, checkerrors.ErrSchemaInvalid(path).WithCause(err)
	}
	return &Schema{path: path, schema: compiled}, nil
}

// Path returns the schema location as configured.
func (s *Schema) Path() string {
	return s.path
}

// Violations validates data and returns one description per violation.
func (s *Schema) Violations(data []byte) ([]string, error) {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validate against %s: %w", s.path, err)
	}
	if result.Valid() {
		return nil, nil
	}
	out := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		out = append(out, desc.String())
	}
	return out, nil
}
