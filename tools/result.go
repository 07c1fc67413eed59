package tools

import (
	"encoding/json"
	"fmt"

	"github.com/flitsinc/menu-mcp/content"
)

// Result defines the outcome of a tool execution.
type Result interface {
	// Label returns a short single line description of the entire tool run.
	Label() string
	// Content returns the structured content of the result.
	Content() content.Content
	// Error returns the error that occurred during the tool run, if any.
	Error() error
}

type result struct {
	label   string
	content content.Content
	err     error
}

func (r *result) Label() string {
	return r.label
}

func (r *result) Content() content.Content {
	return r.content
}

func (r *result) Error() error {
	return r.err
}

func Error(err error) Result {
	return ErrorWithLabel("", err)
}

// ErrorWithLabel returns a result whose content is {"error": err.Error()}.
func ErrorWithLabel(label string, err error) Result {
	if err == nil {
		panic("tools: cannot create error result with nil error")
	}
	return ErrorWithMessage(label, err.Error(), err)
}

// ErrorWithMessage returns a result whose content is {"error": message} while
// Error() still reports err. Use it when the caller must see a stable message
// and the cause only belongs in logs.
func ErrorWithMessage(label, message string, err error) Result {
	if err == nil {
		panic("tools: cannot create error result with nil error")
	}
	errorJSON, _ := json.Marshal(map[string]string{"error": message})
	if label == "" {
		label = fmt.Sprintf("Error: %s", message)
	}
	return &result{label, content.FromRawJSON(errorJSON), err}
}

// SuccessWithLabel creates a result with an explicit label by marshaling the
// value to JSON content.
func SuccessWithLabel(label string, value any) Result {
	c, err := content.FromAny(value)
	if err != nil {
		return ErrorWithLabel(fmt.Sprintf("Error (%s)", label), fmt.Errorf("failed to marshal success result to JSON: %w", err))
	}
	return SuccessWithContent(label, c)
}

// SuccessWithJSON wraps an already encoded JSON document without touching it.
func SuccessWithJSON(label string, data json.RawMessage) Result {
	return SuccessWithContent(label, content.FromRawJSON(data))
}

// SuccessWithContent creates a result with an explicit label and
// pre-constructed content.
func SuccessWithContent(label string, content content.Content) Result {
	if label == "" {
		label = "Success"
	}
	return &result{label: label, content: content, err: nil}
}
