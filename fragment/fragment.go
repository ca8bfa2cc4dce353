// Package fragment turns generated question fragments into questions ready
// for surveyschema.Merge.
//
// A generator streams a JSON document such as
//
//	{"questions":[{"id":"q_ai_1","type":"single-select","label":"How is it?","options":["Good","Bad"]}]}
//
// in arbitrary chunks. Decode reads the concatenated stream, AssignIDs
// renumbers the questions after the ids already present in the target
// survey, and Keep does both and merges.
package fragment

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"

	surveyschema "github.com/reoring/surveyschema"
)

// IDPrefix is the prefix of generated question ids ("q1", "q2", ...).
const IDPrefix = "q"

// Decode reads a complete fragment from r. Both {"questions":[...]} and a
// bare [...] list are accepted.
func Decode(r io.Reader) ([]surveyschema.Question, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read fragment: %w", err)
	}
	return DecodeBytes(data)
}

// DecodeBytes is Decode for an in-memory fragment.
func DecodeBytes(data []byte) ([]surveyschema.Question, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decode fragment: empty input")
	}
	if trimmed[0] == '[' {
		var qs []surveyschema.Question
		if err := j.Unmarshal(trimmed, &qs); err != nil {
			return nil, fmt.Errorf("decode fragment: %w", err)
		}
		return qs, nil
	}
	var doc surveyschema.Schema
	if err := j.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode fragment: %w", err)
	}
	return doc.Questions, nil
}

// NextID returns the id following the largest numeric "q<N>" id in s, or
// "q1" when there is none. Ids that do not follow the pattern are ignored.
func NextID(s *surveyschema.Schema) string {
	return IDPrefix + strconv.Itoa(maxNumericID(s)+1)
}

func maxNumericID(s *surveyschema.Schema) int {
	highest := 0
	if s == nil {
		return highest
	}
	for _, q := range s.Questions {
		n, ok := numericID(q.ID)
		if ok && n > highest {
			highest = n
		}
	}
	return highest
}

func numericID(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, IDPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// AssignIDs returns copies of qs with fresh ids continuing from the largest
// numeric id in current.
func AssignIDs(current *surveyschema.Schema, qs []surveyschema.Question) []surveyschema.Question {
	next := maxNumericID(current) + 1
	out := make([]surveyschema.Question, len(qs))
	for i, q := range qs {
		q = q.Clone()
		q.ID = IDPrefix + strconv.Itoa(next)
		next++
		out[i] = q
	}
	return out
}

// Keep assigns ids to the fragment questions and merges them into current.
func Keep(current *surveyschema.Schema, qs []surveyschema.Question) surveyschema.Schema {
	return surveyschema.Merge(current, AssignIDs(current, qs))
}
