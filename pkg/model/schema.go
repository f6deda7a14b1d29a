package model

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaFS embed.FS

// ErrSchemaViolation indicates a document does not conform to the
// embedded schema.
var ErrSchemaViolation = errors.New("document violates schema")

// Schema returns the embedded document JSON Schema.
func Schema() ([]byte, error) {
	data, err := schemaFS.ReadFile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("read embedded schema: %w", err)
	}

	return data, nil
}

// ValidateBytes checks serialized document JSON against the embedded
// schema. All violations are folded into the returned error.
func ValidateBytes(data []byte) error {
	schemaBytes, err := Schema()
	if err != nil {
		return err
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("run schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}

	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(violations, "; "))
}

// Validate serializes the document and checks it against the embedded
// schema.
func (d *Document) Validate() error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	return ValidateBytes(data)
}
