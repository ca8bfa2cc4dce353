package surveyschema

import "slices"

// Schema is the canonical in-memory survey definition.
type Schema struct {
	Questions []Question `json:"questions" yaml:"questions"`
}

// Question is one survey question. Options only matter for select types.
type Question struct {
	ID      string       `json:"id" yaml:"id"`
	Type    QuestionType `json:"type" yaml:"type"`
	Label   string       `json:"label" yaml:"label"`
	Options []string     `json:"options" yaml:"options"`
}

// Clone returns a deep copy of s.
func (s Schema) Clone() Schema {
	out := Schema{}
	if s.Questions != nil {
		out.Questions = make([]Question, len(s.Questions))
		for i, q := range s.Questions {
			out.Questions[i] = q.Clone()
		}
	}
	return out
}

// Equal reports structural equality. A nil and an empty list are equal.
func (s Schema) Equal(o Schema) bool {
	return slices.EqualFunc(s.Questions, o.Questions, Question.Equal)
}

// Clone returns a deep copy of q.
func (q Question) Clone() Question {
	q.Options = slices.Clone(q.Options)
	return q
}

// Equal reports field-wise equality. A nil and an empty option list are equal.
func (q Question) Equal(o Question) bool {
	return q.ID == o.ID && q.Type == o.Type && q.Label == o.Label && slices.Equal(q.Options, o.Options)
}

// Question returns the question with the given id.
func (s Schema) Question(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// normalized returns a copy whose nil option lists are empty, so every
// encoder writes "options" as a list.
func (s Schema) normalized() Schema {
	out := s.Clone()
	if out.Questions == nil {
		out.Questions = []Question{}
	}
	for i := range out.Questions {
		if out.Questions[i].Options == nil {
			out.Questions[i].Options = []string{}
		}
	}
	return out
}
