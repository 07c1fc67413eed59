// Package content holds the items a tool result carries back to the caller.
package content

import (
	"encoding/json"
	"strings"
)

type Type string

const (
	TypeText Type = "text"
	TypeJSON Type = "json"
)

type Item interface {
	Type() Type
}

type Text struct {
	Text string `json:"text"`
}

func (t *Text) Type() Type {
	return TypeText
}

// JSON is an opaque JSON value. Data is kept exactly as received.
type JSON struct {
	Data json.RawMessage `json:"data"`
}

func (j *JSON) Type() Type {
	return TypeJSON
}

type Content []Item

// FromAny marshals the given value to JSON and returns a new JSON content item
// with the marshalled JSON data.
func FromAny(value any) (Content, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return FromRawJSON(data), nil
}

// FromRawJSON returns a new JSON content item with the given raw JSON data.
func FromRawJSON(data json.RawMessage) Content {
	return Content{
		&JSON{Data: data},
	}
}

// FromText returns a new content item with the given text.
func FromText(text string) Content {
	return Content{
		&Text{Text: text},
	}
}

// JSONData returns the data of the first JSON item.
func (c Content) JSONData() (json.RawMessage, bool) {
	for _, item := range c {
		if j, ok := item.(*JSON); ok {
			return j.Data, true
		}
	}
	return nil, false
}

// String concatenates all items, JSON items verbatim.
func (c Content) String() string {
	var sb strings.Builder
	for _, item := range c {
		switch item := item.(type) {
		case *Text:
			sb.WriteString(item.Text)
		case *JSON:
			sb.Write(item.Data)
		}
	}
	return sb.String()
}
