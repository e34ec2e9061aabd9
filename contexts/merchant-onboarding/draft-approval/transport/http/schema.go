package http

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed approve_draft.schema.json
var approveDraftSchema string

var compiledApproveDraftSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(approveDraftSchema))
})

// ValidateApproveDraftBody checks a raw request body against the embedded
// schema. It returns one "field: description" entry per violation.
func ValidateApproveDraftBody(body []byte) ([]string, error) {
	schema, err := compiledApproveDraftSchema()
	if err != nil {
		return nil, fmt.Errorf("compile approve-draft schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, item := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", item.Field(), item.Description()))
	}
	return violations, nil
}
