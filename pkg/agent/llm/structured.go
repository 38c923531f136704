package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"talentscout/pkg/agent/llmerrors"
)

// Result is implemented by every named structured-output type.
// Validate rejects payloads that decoded but are missing required content.
type Result interface {
	Validate() error
}

// CompleteStructured sends a system+user exchange that must answer with a JSON object
// matching schema, then decodes and validates it into out.
// Decode and validation failures are returned as ErrorTypeSchemaViolation.
func CompleteStructured(ctx context.Context, client LLMClient, system, user string, schema Schema, out Result) error {
	req := NewCompletionRequest([]CompletionMessage{
		NewSystemMessage(system),
		NewUserMessage(user),
	})
	req.ResponseSchema = &schema

	resp, err := client.Complete(ctx, req)
	if err != nil {
		return err //nolint:wrapcheck // already classified by the provider client
	}
	return DecodeStructured(resp.Content, out)
}

// DecodeStructured parses a model response into out and validates it.
func DecodeStructured(content string, out Result) error {
	payload := extractJSONObject(content)
	if payload == "" {
		return llmerrors.NewError(llmerrors.ErrorTypeSchemaViolation, "response contains no JSON object")
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeSchemaViolation, err, "response does not match schema")
	}
	if err := out.Validate(); err != nil {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeSchemaViolation, err, err.Error())
	}
	return nil
}

// extractJSONObject trims markdown fences and surrounding prose some providers add
// even in JSON mode.
func extractJSONObject(content string) string {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// ObjectSchema builds a strict JSON Schema object with every property required.
func ObjectSchema(name string, properties map[string]any) Schema {
	required := make([]string, 0, len(properties))
	for key := range properties {
		required = append(required, key)
	}
	slices.Sort(required)
	return Schema{
		Name: name,
		Definition: map[string]any{
			"type":                 "object",
			"properties":           properties,
			"required":             required,
			"additionalProperties": false,
		},
	}
}

// Property helpers for ObjectSchema.
var (
	StringProperty  = map[string]any{"type": "string"}  //nolint:gochecknoglobals
	BooleanProperty = map[string]any{"type": "boolean"} //nolint:gochecknoglobals
	IntegerProperty = map[string]any{"type": "integer"} //nolint:gochecknoglobals
	StringArray     = map[string]any{                   //nolint:gochecknoglobals
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
)

// SchemaInstruction is appended to the system prompt for providers without strict
// JSON-schema output.
func SchemaInstruction(schema *Schema) string {
	definition, err := json.Marshal(schema.Definition)
	if err != nil {
		definition = []byte("{}")
	}
	return fmt.Sprintf("Respond only with a single JSON object (no prose, no code fences) matching this JSON Schema named %q:\n%s",
		schema.Name, definition)
}
