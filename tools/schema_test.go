package tools

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSchema(t *testing.T) {
	type testParams struct {
		Name    string `json:"name"`
		Day     string `json:"day,omitempty" description:"Weekday"`
		Limit   int    `json:"limit"`
		Veggie  bool   `json:"veggie"`
		Ignored string `json:"-"`
	}
	schema := generateSchema("find_dish", "Find a dish", reflect.TypeOf(testParams{}))

	got, err := json.Marshal(schema)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "find_dish",
		"description": "Find a dish",
		"parameters": {
			"type": "object",
			"properties": {
				"name": {"type": "string"},
				"day": {"type": "string", "description": "Weekday"},
				"limit": {"type": "integer"},
				"veggie": {"type": "boolean"}
			},
			"required": ["name", "limit", "veggie"]
		}
	}`, string(got))
}

func TestGenerateSchema_EmptyStruct(t *testing.T) {
	schema := generateSchema("get_menu", "Menu", reflect.TypeOf(struct{}{}))
	got, err := json.Marshal(schema.Parameters)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object","properties":{}}`, string(got))
}

func TestGenerateSchema_NestedTypes(t *testing.T) {
	type item struct {
		Name     string `json:"name"`
		Calories *int   `json:"calories,omitempty"`
	}
	type params struct {
		Items []item `json:"items"`
	}
	schema := generateSchema("nested", "", reflect.TypeOf(params{}))
	props := *schema.Parameters.Properties

	require.Equal(t, "array", props["items"].Type)
	require.NotNil(t, props["items"].Items)
	assert.Equal(t, "object", props["items"].Items.Type)
	assert.Equal(t, []string{"name"}, props["items"].Items.Required)
	assert.Equal(t, "integer", (*props["items"].Items.Properties)["calories"].Type)

	assert.Panics(t, func() {
		generateSchema("bad", "", reflect.TypeOf(struct {
			Tags map[string]int `json:"tags"`
		}{}))
	})
}

func TestValidateArguments(t *testing.T) {
	type testParams struct {
		Name  string  `json:"name"`
		Limit int     `json:"limit"`
		Score float64 `json:"score,omitempty"`
	}
	funcSchema := generateSchema("f", "", reflect.TypeOf(testParams{}))
	resolved, err := compileSchema(&funcSchema)
	require.NoError(t, err)

	tests := []struct {
		name     string
		jsonData string
		wantErr  bool
	}{
		{name: "valid", jsonData: `{"name":"Rice","limit":3}`},
		{name: "valid with optional", jsonData: `{"name":"Rice","limit":3,"score":0.5}`},
		{name: "extra fields allowed", jsonData: `{"name":"Rice","limit":3,"other":true}`},
		{name: "missing required", jsonData: `{"name":"Rice"}`, wantErr: true},
		{name: "fractional integer", jsonData: `{"name":"Rice","limit":1.5}`, wantErr: true},
		{name: "wrong type", jsonData: `{"name":7,"limit":1}`, wantErr: true},
		{name: "not an object", jsonData: `[1,2]`, wantErr: true},
		{name: "not json", jsonData: `{`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateArguments(resolved, json.RawMessage(tt.jsonData))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParametersJSONPrefersRaw(t *testing.T) {
	raw := json.RawMessage(`{"type":"object","properties":{"qty":{"anyOf":[{"type":"integer"},{"type":"null"}]}}}`)
	schema := &FunctionSchema{Name: "order", Parameters: ValueSchema{Type: "object"}, Raw: raw}
	got, err := schema.ParametersJSON()
	require.NoError(t, err)
	assert.Equal(t, string(raw), string(got))

	schema.Raw = nil
	got, err = schema.ParametersJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object"}`, string(got))
}
