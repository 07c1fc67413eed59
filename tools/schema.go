package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// FunctionSchema describes a callable tool: its name, what it does and the
// JSON Schema of its arguments object.
type FunctionSchema struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  ValueSchema `json:"parameters"`
	// Raw is the arguments schema as another server published it. When set it
	// is advertised and enforced as is; Parameters is only a summary of it.
	Raw json.RawMessage `json:"-"`
}

// ParametersJSON returns the arguments schema callers see and arguments are
// validated against.
func (s *FunctionSchema) ParametersJSON() (json.RawMessage, error) {
	if len(s.Raw) > 0 {
		return s.Raw, nil
	}
	return json.Marshal(s.Parameters)
}

// ValueSchema is the subset of JSON Schema used to describe arguments.
type ValueSchema struct {
	Type        string       `json:"type,omitempty"`
	Description string       `json:"description,omitempty"`
	Items       *ValueSchema `json:"items,omitempty"`
	// A nil map means "no properties keyword", an empty one means "no properties".
	Properties           *map[string]ValueSchema `json:"properties,omitempty"`
	AdditionalProperties any                     `json:"additionalProperties,omitempty"`
	Required             []string                `json:"required,omitempty"`
	Enum                 []any                   `json:"enum,omitempty"`
	AnyOf                []ValueSchema           `json:"anyOf,omitempty"`
}

func generateSchema(name, description string, typ reflect.Type) FunctionSchema {
	params := ValueSchema{Type: "object"}
	if typ != jsonRawMessageType {
		params = objectSchemaFor(typ)
	}
	return FunctionSchema{Name: name, Description: description, Parameters: params}
}

// valueSchemaFor maps the Go types usable in tool parameters to JSON Schema.
func valueSchemaFor(t reflect.Type) ValueSchema {
	switch t.Kind() {
	case reflect.String:
		return ValueSchema{Type: "string"}
	case reflect.Bool:
		return ValueSchema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ValueSchema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return ValueSchema{Type: "number"}
	case reflect.Slice:
		items := valueSchemaFor(t.Elem())
		return ValueSchema{Type: "array", Items: &items}
	case reflect.Pointer:
		return valueSchemaFor(t.Elem())
	case reflect.Struct:
		return objectSchemaFor(t)
	default:
		panic("unsupported parameter type: " + t.String())
	}
}

// objectSchemaFor describes a struct by its exported, JSON-visible fields.
// Fields without omitempty are required.
func objectSchemaFor(typ reflect.Type) ValueSchema {
	properties := map[string]ValueSchema{}
	var required []string
	for _, field := range reflect.VisibleFields(typ) {
		if !field.IsExported() || field.Anonymous {
			continue
		}
		name, opts, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}
		schema := valueSchemaFor(field.Type)
		schema.Description = field.Tag.Get("description")
		properties[name] = schema
		if !strings.Contains(opts, "omitempty") {
			required = append(required, name)
		}
	}
	return ValueSchema{Type: "object", Properties: &properties, Required: required}
}

// compileSchema resolves the arguments schema of s for validation.
func compileSchema(s *FunctionSchema) (*jsonschema.Resolved, error) {
	data, err := s.ParametersJSON()
	if err != nil {
		return nil, fmt.Errorf("encode schema for %s: %w", s.Name, err)
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("decode schema for %s: %w", s.Name, err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve schema for %s: %w", s.Name, err)
	}
	return resolved, nil
}

// validateArguments checks that params is a JSON object accepted by resolved.
func validateArguments(resolved *jsonschema.Resolved, params json.RawMessage) error {
	var args any
	if err := json.Unmarshal(params, &args); err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	if _, ok := args.(map[string]any); !ok {
		return errors.New("arguments must be a JSON object")
	}
	return resolved.Validate(args)
}
