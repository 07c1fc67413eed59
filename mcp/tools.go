package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/flitsinc/menu-mcp/content"
	"github.com/flitsinc/menu-mcp/tools"
)

// NewMCPTool wraps a tool of an upstream MCP server. The upstream input
// schema is advertised and enforced as received; only a missing top-level
// type is filled in as "object".
func NewMCPTool(client *Client, mcpTool *mcpsdk.Tool) tools.Tool {
	label := mcpTool.Name
	if mcpTool.Title != "" {
		label = mcpTool.Title
	}
	input := schemaMap(mcpTool.InputSchema)
	if _, ok := input["type"]; !ok {
		input["type"] = "object"
	}
	raw, err := json.Marshal(input)
	if err != nil {
		raw = json.RawMessage(`{"type":"object"}`)
	}
	schema := &tools.FunctionSchema{
		Name:        mcpTool.Name,
		Description: mcpTool.Description,
		Parameters:  convertMCPInputSchemaToValueSchema(input),
		Raw:         raw,
	}
	return tools.External(label, schema, func(r tools.Runner, params json.RawMessage) tools.Result {
		return callUpstream(r, client, mcpTool.Name, label, params)
	})
}

// callUpstream forwards the call and relays the answer. A single JSON text
// item is relayed byte for byte.
func callUpstream(r tools.Runner, client *Client, name, label string, params json.RawMessage) tools.Result {
	r.Report(fmt.Sprintf("calling %s on %s", name, client.Name()))
	resp, err := client.CallTool(r.Context(), name, params)
	if err != nil {
		return tools.ErrorWithLabel("MCP tool execution failed", err)
	}

	texts := textContent(resp)
	if resp.IsError {
		msg := "MCP tool returned error"
		if len(texts) > 0 {
			msg = strings.Join(texts, "\n")
		}
		var body struct {
			Error *string `json:"error"`
		}
		if json.Unmarshal([]byte(msg), &body) == nil && body.Error != nil {
			msg = *body.Error
		}
		return tools.ErrorWithMessage("MCP tool error", msg,
			fmt.Errorf("%s on %s: %w", name, client.Name(), errors.New(msg)))
	}

	switch {
	case len(texts) == 1 && json.Valid([]byte(texts[0])):
		return tools.SuccessWithJSON(label, json.RawMessage(texts[0]))
	case len(texts) == 0 && resp.StructuredContent != nil:
		return tools.SuccessWithLabel(label, resp.StructuredContent)
	case len(texts) == 0:
		return tools.SuccessWithLabel(label, map[string]any{"result": "success"})
	}
	return tools.SuccessWithContent(label, content.FromText(strings.Join(texts, "\n")))
}

func textContent(resp *mcpsdk.CallToolResult) []string {
	var texts []string
	for _, c := range resp.Content {
		if text, ok := c.(*mcpsdk.TextContent); ok {
			texts = append(texts, text.Text)
		}
	}
	return texts
}

// schemaMap normalizes an input schema received over the wire to a map.
func schemaMap(schema any) map[string]any {
	switch s := schema.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return s
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{}
	}
	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// convertMCPInputSchemaToValueSchema converts MCP input schema to
// tools.ValueSchema. A missing type defaults to "object" at the top level
// only.
func convertMCPInputSchemaToValueSchema(inputSchema map[string]any) tools.ValueSchema {
	schema := convertValueSchema(inputSchema)
	if schema.Type == "" && len(schema.AnyOf) == 0 {
		schema.Type = "object"
		convertObjectKeywords(&schema, inputSchema)
	}
	return schema
}

func convertValueSchema(m map[string]any) tools.ValueSchema {
	var schema tools.ValueSchema
	schema.Type, _ = m["type"].(string)
	schema.Description, _ = m["description"].(string)
	if enum, ok := m["enum"].([]any); ok {
		schema.Enum = enum
	}
	if anyOf, ok := m["anyOf"].([]any); ok {
		for _, alt := range anyOf {
			if altMap, ok := alt.(map[string]any); ok {
				schema.AnyOf = append(schema.AnyOf, convertValueSchema(altMap))
			}
		}
	}

	switch schema.Type {
	case "object":
		convertObjectKeywords(&schema, m)
	case "array":
		if items, ok := m["items"].(map[string]any); ok {
			itemSchema := convertValueSchema(items)
			schema.Items = &itemSchema
		}
	}
	return schema
}

func convertObjectKeywords(schema *tools.ValueSchema, m map[string]any) {
	if props, ok := m["properties"].(map[string]any); ok {
		properties := make(map[string]tools.ValueSchema, len(props))
		for name, propSchema := range props {
			if propMap, ok := propSchema.(map[string]any); ok {
				properties[name] = convertValueSchema(propMap)
			}
		}
		schema.Properties = &properties
	}
	if req, ok := m["required"].([]any); ok {
		required := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				required = append(required, s)
			}
		}
		schema.Required = required
	}
	if ap, ok := m["additionalProperties"]; ok {
		schema.AdditionalProperties = ap
	}
}
