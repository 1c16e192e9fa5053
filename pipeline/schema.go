package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/use-agent/harvest/llm"
)

type jsonSchema struct {
	Type                 string                `json:"type"`
	Properties           map[string]jsonSchema `json:"properties,omitempty"`
	Items                *jsonSchema           `json:"items,omitempty"`
	Required             []string              `json:"required,omitempty"`
	AdditionalProperties *bool                 `json:"additionalProperties,omitempty"`
}

func closedObject(props map[string]jsonSchema, required []string) jsonSchema {
	no := false
	return jsonSchema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: &no,
	}
}

// ListingSchema builds the listing container schema for fields: an object
// with a required "listings" array whose items carry every field as a
// required string.
func ListingSchema(fields []string) llm.Schema {
	props := make(map[string]jsonSchema, len(fields))
	for _, f := range fields {
		props[f] = jsonSchema{Type: "string"}
	}
	listing := closedObject(props, fields)

	root := closedObject(map[string]jsonSchema{
		"listings": {Type: "array", Items: &listing},
	}, []string{"listings"})

	raw, _ := json.Marshal(root)
	return llm.Schema{Name: "listings_container", JSON: raw}
}

// ListingShape renders the example shape of ListingSchema, e.g.
// {"listings":[{"title":"string","price":"string"}]}.
func ListingShape(fields []string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		name, _ := json.Marshal(f)
		parts[i] = string(name) + `:"string"`
	}
	return `{"listings":[{` + strings.Join(parts, ",") + `}]}`
}

// PaginationSchema is the fixed {"page_urls":[string]} schema.
func PaginationSchema() llm.Schema {
	root := closedObject(map[string]jsonSchema{
		"page_urls": {Type: "array", Items: &jsonSchema{Type: "string"}},
	}, []string{"page_urls"})

	raw, _ := json.Marshal(root)
	return llm.Schema{Name: "pagination", JSON: raw}
}

// normalizeFields trims field names and drops empty ones, keeping order
// and removing duplicates.
func normalizeFields(fields []string) []string {
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
