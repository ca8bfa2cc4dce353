// Package jsonschema holds a minimal JSON Schema representation used to
// publish the shape of survey JSON/YAML documents.
package jsonschema

// Draft is the JSON Schema dialect emitted by this package.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// Schema is a minimal JSON Schema node. Extend incrementally.
type Schema struct {
	Schema      string `json:"$schema,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	// Core
	Type string `json:"type,omitempty"`
	Enum []any  `json:"enum,omitempty"`

	// String
	MinLength *int `json:"minLength,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Array
	Items    *Schema `json:"items,omitempty"`
	MinItems *int    `json:"minItems,omitempty"`

	// Composition
	AllOf []*Schema `json:"allOf,omitempty"`
	If    *Schema   `json:"if,omitempty"`
	Then  *Schema   `json:"then,omitempty"`
}

// Int returns a pointer to n for the optional numeric keywords.
func Int(n int) *int { return &n }
