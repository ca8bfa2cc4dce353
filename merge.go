package surveyschema

import "slices"

// Merge places incoming questions into current and returns the result.
// Neither argument is modified.
//
// When current is nil or has no questions the result holds incoming as-is.
// Otherwise each incoming question, in order, is spliced right after the
// last question of the same type, or appended when no question has that
// type. The lookup runs against the list as it grows, so a batch of one type
// lands consecutively and keeps its order.
func Merge(current *Schema, incoming []Question) Schema {
	var out Schema
	if current != nil {
		out = current.Clone()
	}
	if len(out.Questions) == 0 {
		out.Questions = cloneQuestions(incoming)
		return out
	}
	qs := out.Questions
	for _, q := range incoming {
		q = q.Clone()
		at := lastIndexOfType(qs, q.Type)
		if at < 0 {
			qs = append(qs, q)
			continue
		}
		qs = slices.Insert(qs, at+1, q)
	}
	out.Questions = qs
	return out
}

func lastIndexOfType(qs []Question, t QuestionType) int {
	for i := len(qs) - 1; i >= 0; i-- {
		if qs[i].Type == t {
			return i
		}
	}
	return -1
}

func cloneQuestions(qs []Question) []Question {
	if qs == nil {
		return nil
	}
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = q.Clone()
	}
	return out
}
