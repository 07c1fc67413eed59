// Package tools defines callable tools and the results they produce.
package tools

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

type Tool interface {
	// Label returns a nice human readable title for the tool.
	Label() string
	// Description returns the description of the tool.
	Description() string
	// FuncName returns the function name callers invoke the tool by.
	FuncName() string
	// Run runs the tool with the provided parameters.
	Run(r Runner, params json.RawMessage) Result
	// Schema returns the JSON schema for the tool.
	Schema() *FunctionSchema
}

var jsonRawMessageType = reflect.TypeOf(json.RawMessage{})

// Func returns a tool for a function implementation with the given name and
// description. Params must be a struct (possibly empty) or json.RawMessage;
// struct arguments are validated against the generated schema before fn runs.
func Func[Params any](label, description, funcName string, fn func(r Runner, params Params) Result) Tool {
	schemaType := reflect.TypeOf((*Params)(nil)).Elem()
	if schemaType.Kind() != reflect.Struct && schemaType != jsonRawMessageType {
		panic("Params must be a struct or json.RawMessage")
	}
	return &tool{
		label:       label,
		description: description,
		funcName:    funcName,
		schemaType:  schemaType,
		validate:    schemaType != jsonRawMessageType,
		strict:      true,
		fn: func(r Runner, params json.RawMessage) Result {
			var p Params
			if err := json.Unmarshal(params, &p); err != nil {
				return ErrorWithLabel("Invalid arguments", fmt.Errorf("unmarshal error for %s: %w", funcName, err))
			}
			return fn(r, p)
		},
	}
}

// External returns a tool whose schema is provided explicitly and whose
// handler receives the raw JSON arguments. Tools proxied from another server
// are built this way. Arguments are checked against the schema when it can be
// compiled; a schema this package cannot resolve is left to the other side.
func External(label string, schema *FunctionSchema, fn func(r Runner, params json.RawMessage) Result) Tool {
	if schema == nil {
		panic("External requires a non-nil schema")
	}
	t := &tool{
		label:       label,
		description: schema.Description,
		funcName:    schema.Name,
		schemaType:  jsonRawMessageType,
		schema:      schema,
		validate:    true,
		fn:          fn,
	}
	t.schemaOnce.Do(func() {})
	return t
}

type tool struct {
	label, description, funcName string

	fn func(r Runner, params json.RawMessage) Result

	schema     *FunctionSchema
	schemaOnce sync.Once
	schemaType reflect.Type

	validate bool
	// strict turns a schema that does not compile into a call error.
	strict       bool
	resolved     *jsonschema.Resolved
	resolveErr   error
	resolvedOnce sync.Once
}

func (t *tool) Label() string {
	return t.label
}

func (t *tool) Description() string {
	return t.description
}

func (t *tool) FuncName() string {
	return t.funcName
}

// Run treats absent or null arguments as an empty object.
func (t *tool) Run(r Runner, params json.RawMessage) Result {
	if len(params) == 0 || string(params) == "null" {
		params = json.RawMessage(`{}`)
	}
	if err := t.validateParams(params); err != nil {
		return ErrorWithLabel("Invalid arguments", fmt.Errorf("validation error for %s: %w", t.funcName, err))
	}
	return t.fn(r, params)
}

func (t *tool) Schema() *FunctionSchema {
	t.schemaOnce.Do(func() {
		schema := generateSchema(t.funcName, t.description, t.schemaType)
		t.schema = &schema
	})
	return t.schema
}

func (t *tool) validateParams(params json.RawMessage) error {
	if !t.validate {
		return nil
	}
	t.resolvedOnce.Do(func() {
		t.resolved, t.resolveErr = compileSchema(t.Schema())
	})
	if t.resolveErr != nil {
		if t.strict {
			return t.resolveErr
		}
		return nil
	}
	return validateArguments(t.resolved, params)
}
