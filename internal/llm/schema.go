package llm

import (
	"encoding/json"
	"fmt"
)

type SchemaType string

const (
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
	TypeArray   SchemaType = "array"
	TypeObject  SchemaType = "object"
)

// Schema is a provider-neutral description of the JSON shape requested from the model.
// Each provider translates it into its own structured-output format.
type Schema struct {
	Type        SchemaType         `json:"type"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
}

func String() *Schema  { return &Schema{Type: TypeString} }
func Number() *Schema  { return &Schema{Type: TypeNumber} }
func Integer() *Schema { return &Schema{Type: TypeInteger} }
func Boolean() *Schema { return &Schema{Type: TypeBoolean} }

func ArrayOf(items *Schema) *Schema {
	return &Schema{Type: TypeArray, Items: items}
}

func Object(props map[string]*Schema) *Schema {
	return &Schema{Type: TypeObject, Properties: props}
}

// Describe returns a copy of s with a description attached.
func (s *Schema) Describe(desc string) *Schema {
	c := *s
	c.Description = desc
	return &c
}

// PromptSuffix renders the schema as an instruction for providers without native structured output.
func (s *Schema) PromptSuffix() string {
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("\n\nRespond ONLY with JSON (no prose, no markdown) matching this JSON schema:\n%s", data)
}
