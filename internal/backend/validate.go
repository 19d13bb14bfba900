package backend

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// intentSchemaDef is the JSON Schema the intent-classification payload must
// conform to before its verdict is trusted.
var intentSchemaDef = map[string]any{
	"type":     "object",
	"required": []any{"success", "data"},
	"properties": map[string]any{
		"success": map[string]any{"type": "boolean"},
		"data": map[string]any{
			"type":     "object",
			"required": []any{"wants_to_start"},
			"properties": map[string]any{
				"wants_to_start": map[string]any{"type": "boolean"},
			},
		},
	},
}

var (
	intentSchemaOnce sync.Once
	intentSchema     *jsonschema.Schema
	intentSchemaErr  error
)

// validateIntentPayload checks raw against the intent schema.
// Returns *ErrMalformedPayload on failure.
func validateIntentPayload(raw json.RawMessage) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ErrMalformedPayload{
			Service: "intent-classification",
			Body:    raw,
			Err:     fmt.Errorf("invalid JSON: %w", err),
		}
	}

	compiled, err := compiledIntentSchema()
	if err != nil {
		return &ErrMalformedPayload{
			Service: "intent-classification",
			Body:    raw,
			Err:     fmt.Errorf("compile schema: %w", err),
		}
	}

	if err := compiled.Validate(parsed); err != nil {
		return &ErrMalformedPayload{
			Service: "intent-classification",
			Body:    raw,
			Err:     fmt.Errorf("schema validation failed: %w", err),
		}
	}
	return nil
}

func compiledIntentSchema() (*jsonschema.Schema, error) {
	intentSchemaOnce.Do(func() {
		// The jsonschema library expects a parsed JSON value, not raw bytes.
		defBytes, err := json.Marshal(intentSchemaDef)
		if err != nil {
			intentSchemaErr = err
			return
		}
		var defParsed any
		if err := json.Unmarshal(defBytes, &defParsed); err != nil {
			intentSchemaErr = err
			return
		}

		c := jsonschema.NewCompiler()
		const schemaURL = "schema://intent-classification.json"
		if err := c.AddResource(schemaURL, defParsed); err != nil {
			intentSchemaErr = err
			return
		}
		intentSchema, intentSchemaErr = c.Compile(schemaURL)
	})
	return intentSchema, intentSchemaErr
}
