package docstract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FieldError describes one validation failure.
type FieldError struct {
	Path    string // dotted path into the response, e.g. "holder.nif"
	Message string
}

func (e FieldError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// ValidationError aggregates every field that failed validation for one
// response.
type ValidationError struct {
	Model  string // schema model name
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.String()
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Model, strings.Join(msgs, "; "))
}

// SanitizeJSONResponse strips the markdown fences and stray whitespace that
// models sometimes wrap around JSON output.
func SanitizeJSONResponse(b []byte) []byte {
	s := strings.TrimSpace(string(b))
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return []byte(strings.TrimSpace(s))
}

// decodeAndValidate parses sanitized response bytes into T and checks the
// result against the schema's required fields.
func decodeAndValidate[T any](raw []byte, sch *schemaModel) (*T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		var synErr *json.SyntaxError
		if errors.As(err, &synErr) {
			return nil, fmt.Errorf("parse response: %w", err)
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &ValidationError{Model: sch.name, Fields: []FieldError{{
				Path:    typeErr.Field,
				Message: fmt.Sprintf("cannot decode %s into %s", typeErr.Value, typeErr.Type),
			}}}
		}
		// Custom unmarshalers (FlexibleDate) report their own failures.
		return nil, &ValidationError{Model: sch.name, Fields: []FieldError{{Message: err.Error()}}}
	}

	if fieldErrs := checkRequiredFields(sch, raw); len(fieldErrs) > 0 {
		return nil, &ValidationError{Model: sch.name, Fields: fieldErrs}
	}
	return &out, nil
}

// checkRequiredFields walks the schema field tree against the raw response
// and reports required properties that are missing or null.
func checkRequiredFields(sch *schemaModel, raw []byte) []FieldError {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return []FieldError{{Message: fmt.Sprintf("response is not a JSON object: %v", err)}}
	}
	return walkRequired(sch.fields, m, "")
}

func walkRequired(fields []fieldSpec, m map[string]json.RawMessage, parent string) []FieldError {
	var errs []FieldError
	for _, f := range fields {
		path := joinPath(parent, f.jsonKey)
		data, ok := m[f.jsonKey]
		if !ok || isJSONNull(data) {
			if f.required {
				errs = append(errs, FieldError{Path: path, Message: "required field is missing or null"})
			}
			continue
		}
		if len(f.children) == 0 {
			continue
		}
		if f.isSlice {
			var items []json.RawMessage
			if err := json.Unmarshal(data, &items); err != nil {
				errs = append(errs, FieldError{Path: path, Message: "expected a JSON array"})
				continue
			}
			for i, item := range items {
				if isJSONNull(item) {
					continue
				}
				var child map[string]json.RawMessage
				if err := json.Unmarshal(item, &child); err != nil {
					errs = append(errs, FieldError{Path: fmt.Sprintf("%s[%d]", path, i), Message: "expected a JSON object"})
					continue
				}
				errs = append(errs, walkRequired(f.children, child, fmt.Sprintf("%s[%d]", path, i))...)
			}
			continue
		}
		var child map[string]json.RawMessage
		if err := json.Unmarshal(data, &child); err != nil {
			errs = append(errs, FieldError{Path: path, Message: "expected a JSON object"})
			continue
		}
		errs = append(errs, walkRequired(f.children, child, path)...)
	}
	return errs
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

func isJSONNull(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}
