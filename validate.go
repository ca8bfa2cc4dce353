package surveyschema

import (
	"fmt"
	"strings"

	"github.com/reoring/surveyschema/internal/textpos"
)

// rawQuestion is a question as read from any source format, before it is
// checked against the grammar. Has* fields distinguish missing from empty.
type rawQuestion struct {
	Ordinal  int // 1-based position among questions
	ID       string
	HasID    bool
	Type     string
	HasType  bool
	Label    string
	HasLabel bool
	Options  []string
	// StrayText is non-whitespace free text found among the question's fields.
	StrayText    string
	StrayTextPos textpos.Position
	Pos          textpos.Position
	LabelPos     textpos.Position
}

func (q rawQuestion) ref() string {
	if q.HasID && strings.TrimSpace(q.ID) != "" {
		return fmt.Sprintf("question %q", q.ID)
	}
	return fmt.Sprintf("question #%d", q.Ordinal)
}

func validTypeList() string {
	names := make([]string, len(QuestionTypes))
	for i, t := range QuestionTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// checkQuestion applies the per-question grammar and returns every violation.
func checkQuestion(q rawQuestion) Diagnostics {
	var ds Diagnostics
	if !q.HasID || strings.TrimSpace(q.ID) == "" {
		ds = append(ds, newDiagnostic(KindAttribute, q.Pos, "%s is missing the required \"id\" attribute", q.ref()))
	}
	switch {
	case !q.HasType:
		ds = append(ds, newDiagnostic(KindAttribute, q.Pos, "%s is missing the required \"type\" attribute", q.ref()))
	case !QuestionType(q.Type).Known():
		ds = append(ds, newDiagnostic(KindAttribute, q.Pos, "%s has invalid type %q; valid types are: %s", q.ref(), q.Type, validTypeList()))
	}
	if !q.HasLabel || strings.TrimSpace(q.Label) == "" {
		pos := q.LabelPos
		if !pos.Known() {
			pos = q.Pos
		}
		ds = append(ds, newDiagnostic(KindStructure, pos, "%s must have a non-empty <label>", q.ref()))
	}
	if strings.TrimSpace(q.StrayText) != "" {
		ds = append(ds, newDiagnostic(KindText, q.StrayTextPos, "%s contains unexpected text %q; only <label> and <option> are allowed", q.ref(), excerpt(q.StrayText, 40)))
	}
	if QuestionType(q.Type).IsSelect() && len(q.Options) < MinSelectOptions {
		ds = append(ds, newDiagnostic(KindStructure, q.Pos, "%s of type %q requires at least %d <option> elements, found %d", q.ref(), q.Type, MinSelectOptions, len(q.Options)))
	}
	return ds
}

// checkQuestions runs checkQuestion over qs and reports repeated ids.
func checkQuestions(qs []rawQuestion) Diagnostics {
	var ds Diagnostics
	seen := make(map[string]int, len(qs))
	for _, q := range qs {
		ds = append(ds, checkQuestion(q)...)
		id := strings.TrimSpace(q.ID)
		if !q.HasID || id == "" {
			continue
		}
		if first, dup := seen[id]; dup {
			ds = append(ds, newDiagnostic(KindAttribute, q.Pos, "question #%d reuses id %q already used by question #%d", q.Ordinal, id, first))
			continue
		}
		seen[id] = q.Ordinal
	}
	return ds
}

// buildSchema converts already-checked questions into the canonical model.
func buildSchema(qs []rawQuestion) Schema {
	s := Schema{Questions: make([]Question, 0, len(qs))}
	for _, q := range qs {
		opts := make([]string, len(q.Options))
		for i, o := range q.Options {
			opts[i] = strings.TrimSpace(o)
		}
		s.Questions = append(s.Questions, Question{
			ID:      q.ID,
			Type:    QuestionType(q.Type),
			Label:   strings.TrimSpace(q.Label),
			Options: opts,
		})
	}
	return s
}
