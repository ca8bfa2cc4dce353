package surveyschema

import js "github.com/reoring/surveyschema/jsonschema"

// JSONSchema describes the JSON/YAML survey document accepted in strict mode.
func JSONSchema() *js.Schema {
	types := make([]any, len(QuestionTypes))
	for i, t := range QuestionTypes {
		types[i] = string(t)
	}
	question := &js.Schema{
		Type: "object",
		Properties: map[string]*js.Schema{
			"id":      {Type: "string", MinLength: js.Int(1)},
			"type":    {Type: "string", Enum: types},
			"label":   {Type: "string", MinLength: js.Int(1)},
			"options": {Type: "array", Items: &js.Schema{Type: "string"}},
		},
		Required:             []string{"id", "type", "label"},
		AdditionalProperties: false,
		AllOf: []*js.Schema{{
			If: &js.Schema{Properties: map[string]*js.Schema{
				"type": {Enum: []any{string(TypeSingleSelect), string(TypeMultiSelect)}},
			}},
			Then: &js.Schema{
				Required:   []string{"options"},
				Properties: map[string]*js.Schema{"options": {MinItems: js.Int(MinSelectOptions)}},
			},
		}},
	}
	return &js.Schema{
		Schema:      js.Draft,
		Title:       "Survey",
		Description: "A survey definition: an ordered list of questions.",
		Type:        "object",
		Properties: map[string]*js.Schema{
			"questions": {Type: "array", Items: question},
		},
		Required:             []string{"questions"},
		AdditionalProperties: false,
	}
}
