package api

import (
	"google.golang.org/genai"
)

// schemaNode is a backend-neutral description of the response schema.
// Type names follow the OpenAPI subset used by the Gemini API.
type schemaNode struct {
	Type       string
	Properties map[string]*schemaNode
	Items      *schemaNode
	Required   []string
}

const (
	typeObject = "OBJECT"
	typeString = "STRING"
	typeNumber = "NUMBER"
	typeArray  = "ARRAY"
)

// responseSchema is the fixed output shape requested for every prompt
var responseSchema = &schemaNode{
	Type: typeObject,
	Properties: map[string]*schemaNode{
		"response": {Type: typeString},
		"stats": {
			Type: typeObject,
			Properties: map[string]*schemaNode{
				"entanglement":  {Type: typeNumber},
				"entropy":       {Type: typeNumber},
				"superposition": {Type: typeNumber},
				"qubitStates": {
					Type:  typeArray,
					Items: &schemaNode{Type: typeNumber},
				},
				"semanticVector": {
					Type: typeObject,
					Properties: map[string]*schemaNode{
						"x": {Type: typeNumber},
						"y": {Type: typeNumber},
						"z": {Type: typeNumber},
					},
				},
			},
		},
	},
	Required: []string{"response", "stats"},
}

// toGenai converts the node into the SDK schema type
func (n *schemaNode) toGenai() *genai.Schema {
	if n == nil {
		return nil
	}
	s := &genai.Schema{
		Type:     genai.Type(n.Type),
		Required: n.Required,
		Items:    n.Items.toGenai(),
	}
	if len(n.Properties) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(n.Properties))
		for name, prop := range n.Properties {
			s.Properties[name] = prop.toGenai()
		}
	}
	return s
}

// toMap converts the node into its REST JSON form
func (n *schemaNode) toMap() map[string]any {
	m := map[string]any{"type": n.Type}
	if n.Items != nil {
		m["items"] = n.Items.toMap()
	}
	if len(n.Properties) > 0 {
		props := make(map[string]any, len(n.Properties))
		for name, prop := range n.Properties {
			props[name] = prop.toMap()
		}
		m["properties"] = props
	}
	if len(n.Required) > 0 {
		m["required"] = n.Required
	}
	return m
}
