// Package analyze - schema.go validates analyzer responses against embedded JSON Schemas.
package analyze

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// analysisSchema constrains the full HTML-analysis response.
const analysisSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["fields"],
  "properties": {
    "fields": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["selector", "label", "suggested_value", "confidence"],
        "properties": {
          "selector": {"type": "string", "minLength": 1},
          "label": {"type": "string"},
          "suggested_value": {"type": "string"},
          "confidence": {"type": "string", "enum": ["low", "medium", "high"]},
          "note": {"type": "string"},
          "type": {"type": "string"},
          "options": {"type": "array", "items": {"type": "string"}}
        }
      }
    }
  }
}`

// answersSchema constrains the cached-shape answer-generation response.
const answersSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["answers"],
  "properties": {
    "answers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["selector", "suggested_value", "confidence"],
        "properties": {
          "selector": {"type": "string", "minLength": 1},
          "label": {"type": "string"},
          "suggested_value": {"type": "string"},
          "confidence": {"type": "string", "enum": ["low", "medium", "high"]},
          "note": {"type": "string"}
        }
      }
    }
  }
}`

// validateAgainstSchema checks a raw JSON document against a schema string.
func validateAgainstSchema(schemaJSON, document string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	documentLoader := gojsonschema.NewStringLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &ParseError{Message: "schema validation failed to run", Cause: err}
	}

	if !result.Valid() {
		var sb strings.Builder
		for i, desc := range result.Errors() {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
		}
		return &ParseError{Message: "response does not match schema: " + sb.String()}
	}
	return nil
}
