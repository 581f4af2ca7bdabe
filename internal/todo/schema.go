package todo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://github.com/nibzard/tasktrack/tasks.schema.json"

const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/nibzard/tasktrack/tasks.schema.json",
  "title": "tasktrack task file",
  "type": "object",
  "required": ["tasks"],
  "properties": {
    "tasks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "body"],
        "properties": {
          "title": {"type": "string"},
          "body": {"type": "string"},
          "completed": {
            "type": "boolean",
            "description": "true while the task is outstanding (historical inverted name)"
          },
          "creation_date": {"type": "string"},
          "completion_date": {"type": ["string", "null"]}
        }
      }
    }
  }
}
`

var (
	builtinSchemaOnce sync.Once
	builtinSchema     *jsonschema.Schema
)

// SchemaJSON returns the JSON Schema the task file is validated against.
func SchemaJSON() string {
	return schemaJSON
}

func compiledSchema() *jsonschema.Schema {
	builtinSchemaOnce.Do(func() {
		builtinSchema = jsonschema.MustCompileString(schemaURL, schemaJSON)
	})
	return builtinSchema
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Valid    bool
	Errors   []error
	Warnings []string
	// SchemaPath is the external schema used, empty when the built-in one was.
	SchemaPath string
	Tasks      int
}

// ValidateFile validates the task file at path. When schemaPath is non-empty
// and readable it is used instead of the built-in schema. Unlike Decode,
// every violation is reported.
func ValidateFile(path, schemaPath string) (*ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}

	result := &ValidationResult{
		Valid:    true,
		Errors:   make([]error, 0),
		Warnings: make([]string, 0),
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &FormatError{Err: fmt.Errorf("invalid JSON: %w", err)})
		return result, nil
	}

	schema := compiledSchema()
	if schemaPath != "" {
		external, warning := compileExternalSchema(schemaPath)
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		if external != nil {
			schema = external
			result.SchemaPath = schemaPath
		}
	}

	if err := schema.Validate(doc); err != nil {
		result.Valid = false
		for _, fe := range schemaErrors(err) {
			result.Errors = append(result.Errors, fe)
		}
		return result, nil
	}

	if obj, ok := doc.(map[string]interface{}); ok {
		if tasks, ok := obj["tasks"].([]interface{}); ok {
			result.Tasks = len(tasks)
		}
	}
	return result, nil
}

// compileExternalSchema compiles a schema file, returning a warning instead
// of an error so callers can fall back to the built-in schema.
func compileExternalSchema(schemaPath string) (*jsonschema.Schema, string) {
	absPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return nil, fmt.Sprintf("invalid schema path: %v", err)
	}

	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Sprintf("schema file not found: %s", absPath)
		}
		return nil, fmt.Sprintf("failed to read schema file: %v", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	schema, err := compiler.Compile(absPath)
	if err != nil {
		return nil, fmt.Sprintf("invalid schema file: %v", err)
	}
	return schema, ""
}

// schemaErrors flattens a schema validation error into leaf FormatErrors.
func schemaErrors(err error) []*FormatError {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []*FormatError{{Err: err}}
	}
	var out []*FormatError
	collectSchemaErrors(&out, ve)
	if len(out) == 0 {
		out = append(out, &FormatError{Err: err})
	}
	return out
}

func collectSchemaErrors(out *[]*FormatError, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}

	if len(err.Causes) == 0 {
		path := jsonPointerToPath(err.InstanceLocation)
		if strings.HasSuffix(err.KeywordLocation, "/required") {
			path = joinField(path, missingProperty(err.Message))
		}
		*out = append(*out, &FormatError{
			Path: path,
			Err:  errors.New(err.Message),
		})
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(out, cause)
	}
}

// missingProperty extracts the first name from a "missing properties: 'a', 'b'"
// message, or "" when the message has another shape.
func missingProperty(msg string) string {
	_, list, ok := strings.Cut(msg, ":")
	if !ok {
		return ""
	}
	first, _, _ := strings.Cut(list, ",")
	return strings.Trim(strings.TrimSpace(first), `'"`)
}

func joinField(path, field string) string {
	switch {
	case field == "":
		return path
	case path == "":
		return field
	default:
		return path + "." + field
	}
}

// jsonPointerToPath converts "/tasks/0/title" into "tasks[0].title".
func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var path strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			fmt.Fprintf(&path, "[%d]", idx)
			continue
		}
		if path.Len() > 0 {
			path.WriteByte('.')
		}
		path.WriteString(part)
	}
	return path.String()
}
