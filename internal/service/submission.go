package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Message returned for any missing or malformed submission field.
const msgMissingFields = "Missing required fields"

// submissionSchema describes a note generation request body.
var submissionSchema = mustSchema(`{
	"type": "object",
	"required": ["prompt", "options"],
	"properties": {
		"prompt":  {"type": "string", "minLength": 1},
		"options": {"type": "object", "minProperties": 1}
	}
}`)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return schema
}

// Submission is a validated note generation request.
type Submission struct {
	Prompt  string
	Options json.RawMessage
}

// ParseSubmission validates a raw request body.
// All failures are ValidationErrors with the same caller-facing message.
func ParseSubmission(body []byte) (*Submission, error) {
	if len(body) == 0 {
		return nil, &ValidationError{Message: msgMissingFields}
	}

	result, err := submissionSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		// Body is not JSON at all.
		return nil, &ValidationError{Message: msgMissingFields, Detail: err.Error()}
	}
	if !result.Valid() {
		return nil, &ValidationError{Message: msgMissingFields, Detail: describeSchemaErrors(result)}
	}

	var raw struct {
		Prompt  string          `json:"prompt"`
		Options json.RawMessage `json:"options"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ValidationError{Message: msgMissingFields, Detail: err.Error()}
	}
	if strings.TrimSpace(raw.Prompt) == "" {
		return nil, &ValidationError{Message: msgMissingFields, Detail: "prompt: blank"}
	}
	// Postgres text and jsonb both refuse NUL.
	if strings.ContainsRune(raw.Prompt, 0) {
		return nil, &ValidationError{Message: msgMissingFields, Detail: "prompt: contains NUL"}
	}
	var options any
	if err := json.Unmarshal(raw.Options, &options); err != nil {
		return nil, &ValidationError{Message: msgMissingFields, Detail: err.Error()}
	}
	if containsNUL(options) {
		return nil, &ValidationError{Message: msgMissingFields, Detail: "options: contains NUL"}
	}

	return &Submission{Prompt: raw.Prompt, Options: raw.Options}, nil
}

// containsNUL reports whether any key or string value in a decoded JSON
// document contains U+0000.
func containsNUL(v any) bool {
	switch v := v.(type) {
	case string:
		return strings.ContainsRune(v, 0)
	case map[string]any:
		for k, elem := range v {
			if strings.ContainsRune(k, 0) || containsNUL(elem) {
				return true
			}
		}
	case []any:
		for _, elem := range v {
			if containsNUL(elem) {
				return true
			}
		}
	}
	return false
}

// describeSchemaErrors flattens schema errors for logging.
func describeSchemaErrors(result *gojsonschema.Result) string {
	parts := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return strings.Join(parts, "; ")
}
