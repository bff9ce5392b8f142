package docstract

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// descriptionTag carries the per-field extraction hint forwarded to the model.
const descriptionTag = "description"

var (
	timeType     = reflect.TypeOf(time.Time{})
	flexDateType = reflect.TypeOf(FlexibleDate{})
)

// fieldSpec records what the validator needs to know about one property.
type fieldSpec struct {
	jsonKey  string
	required bool
	isSlice  bool
	children []fieldSpec // nested object properties, if any
}

// schemaModel is the analyzed form of a caller-supplied schema struct: a
// JSON-Schema style description for the prompt plus the field tree used to
// validate the response.
type schemaModel struct {
	name   string
	doc    map[string]any
	fields []fieldSpec
}

// schemaOf derives the schema description from T. Property names come from
// json tags, extraction hints from description tags. Pointer fields are
// optional; everything else is required.
func schemaOf[T any]() (*schemaModel, error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema model must be a struct, got %s", rt.Kind())
	}

	props, required, fields, err := describeStruct(rt, map[reflect.Type]bool{})
	if err != nil {
		return nil, err
	}

	doc := map[string]any{
		"title":      rt.Name(),
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	return &schemaModel{name: rt.Name(), doc: doc, fields: fields}, nil
}

// MarshalIndent renders the schema description as indented JSON for prompt
// embedding.
func (s *schemaModel) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(s.doc, "", "  ")
}

// fieldCount returns the number of leaf properties in the schema.
func (s *schemaModel) fieldCount() int {
	return countLeaves(s.fields)
}

func countLeaves(fields []fieldSpec) int {
	n := 0
	for _, f := range fields {
		if len(f.children) == 0 {
			n++
			continue
		}
		n += countLeaves(f.children)
	}
	return n
}

func describeStruct(t reflect.Type, seen map[reflect.Type]bool) (map[string]any, []string, []fieldSpec, error) {
	if seen[t] {
		return nil, nil, nil, fmt.Errorf("recursive schema model %s is not supported", t.Name())
	}
	seen[t] = true
	defer delete(seen, t)

	props := map[string]any{}
	var required []string
	var fields []fieldSpec

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		// Embedded structs act as mixins: their fields are promoted.
		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Tag.Get("json") == "" {
			embProps, embRequired, embFields, err := describeStruct(f.Type, seen)
			if err != nil {
				return nil, nil, nil, err
			}
			for k, v := range embProps {
				props[k] = v
			}
			required = append(required, embRequired...)
			fields = append(fields, embFields...)
			continue
		}

		jsonKey := strings.Split(f.Tag.Get("json"), ",")[0]
		if jsonKey == "-" {
			continue
		}
		if jsonKey == "" {
			jsonKey = f.Name
		}

		ft := f.Type
		optional := false
		if ft.Kind() == reflect.Pointer {
			optional = true
			ft = ft.Elem()
		}

		prop, children, isSlice, err := describeType(ft, seen)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%s.%s: %w", t.Name(), f.Name, err)
		}
		if desc := f.Tag.Get(descriptionTag); desc != "" {
			prop["description"] = desc
		}
		props[jsonKey] = prop
		if !optional {
			required = append(required, jsonKey)
		}
		fields = append(fields, fieldSpec{
			jsonKey:  jsonKey,
			required: !optional,
			isSlice:  isSlice,
			children: children,
		})
	}

	sort.Strings(required)
	return props, required, fields, nil
}

func describeType(t reflect.Type, seen map[reflect.Type]bool) (map[string]any, []fieldSpec, bool, error) {
	switch t {
	case flexDateType:
		return map[string]any{"type": "string", "format": "date"}, nil, false, nil
	case timeType:
		return map[string]any{"type": "string", "format": "date-time"}, nil, false, nil
	}

	switch t.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}, nil, false, nil
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil, false, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}, nil, false, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil, false, nil
	case reflect.Struct:
		props, required, fields, err := describeStruct(t, seen)
		if err != nil {
			return nil, nil, false, err
		}
		obj := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			obj["required"] = required
		}
		return obj, fields, false, nil
	case reflect.Slice, reflect.Array:
		elem := t.Elem()
		if elem.Kind() == reflect.Pointer {
			elem = elem.Elem()
		}
		item, children, _, err := describeType(elem, seen)
		if err != nil {
			return nil, nil, false, err
		}
		return map[string]any{"type": "array", "items": item}, children, true, nil
	case reflect.Map:
		return map[string]any{"type": "object"}, nil, false, nil
	default:
		return nil, nil, false, fmt.Errorf("unsupported field type %s", t)
	}
}
