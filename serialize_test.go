package surveyschema_test

import (
	"strings"
	"testing"

	surveyschema "github.com/reoring/surveyschema"
)

func sampleSchema() surveyschema.Schema {
	return surveyschema.MustParse(validXML, surveyschema.FormatXML)
}

func TestSerialize_RoundTrip(t *testing.T) {
	schemas := map[string]surveyschema.Schema{
		"sample": sampleSchema(),
		"empty":  {},
		"escaping": {Questions: []surveyschema.Question{
			{ID: "q1", Type: surveyschema.TypeSingleSelect, Label: `Salt & "pepper" <or> sugar?`, Options: []string{"a < b", "yes"}},
			{ID: "q2", Type: surveyschema.TypeText, Label: "true"},
		}},
	}
	for name, s := range schemas {
		for _, f := range surveyschema.Formats {
			t.Run(name+"/"+f.String(), func(t *testing.T) {
				text, err := surveyschema.Serialize(s, f)
				if err != nil {
					t.Fatalf("serialize: %v", err)
				}
				res := surveyschema.ParseSurvey(text, f)
				if !res.OK() {
					t.Fatalf("re-parse failed: %v\n%s", res.Diagnostics, text)
				}
				if !res.Schema.Equal(s) {
					t.Fatalf("round trip mismatch:\n got %+v\nwant %+v\n%s", *res.Schema, s, text)
				}
			})
		}
	}
}

func TestToXML_ReplacesCharactersOutsideXML(t *testing.T) {
	s := surveyschema.Schema{Questions: []surveyschema.Question{
		{ID: "q1", Type: surveyschema.TypeText, Label: "x\x01y"},
	}}
	res := surveyschema.ParseSurvey(surveyschema.ToXML(s), surveyschema.FormatXML)
	if !res.OK() {
		t.Fatalf("re-parse failed: %v", res.Diagnostics)
	}
	if got := res.Schema.Questions[0].Label; got != "x\uFFFDy" {
		t.Fatalf("label = %q, want %q", got, "x\uFFFDy")
	}
	for _, f := range []surveyschema.Format{surveyschema.FormatJSON, surveyschema.FormatYAML} {
		text, err := surveyschema.Serialize(s, f)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		back := surveyschema.ParseSurvey(text, f)
		if !back.OK() || !back.Schema.Equal(s) {
			t.Fatalf("%s should keep control characters: %+v", f, back)
		}
	}
}

func TestToXML_Layout(t *testing.T) {
	s := surveyschema.Schema{Questions: []surveyschema.Question{
		{ID: "q1", Type: surveyschema.TypeSingleSelect, Label: "Pick", Options: []string{"A", "B"}},
	}}
	want := `<survey>
  <question id="q1" type="single-select">
    <label>Pick</label>
    <option>A</option>
    <option>B</option>
  </question>
</survey>
`
	if got := surveyschema.ToXML(s); got != want {
		t.Fatalf("ToXML =\n%s\nwant\n%s", got, want)
	}
}

func TestToJSON_FieldOrder(t *testing.T) {
	s := surveyschema.Schema{Questions: []surveyschema.Question{{ID: "q1", Type: surveyschema.TypeText, Label: "Name"}}}
	got, err := surveyschema.ToJSON(s)
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	want := `{
  "questions": [
    {
      "id": "q1",
      "type": "text",
      "label": "Name",
      "options": []
    }
  ]
}
`
	if got != want {
		t.Fatalf("ToJSON =\n%s\nwant\n%s", got, want)
	}
}

func TestToYAML_FieldOrder(t *testing.T) {
	s := surveyschema.Schema{Questions: []surveyschema.Question{{ID: "q1", Type: surveyschema.TypeRating, Label: "Rate", Options: nil}}}
	got, err := surveyschema.ToYAML(s)
	if err != nil {
		t.Fatalf("ToYAML: %v", err)
	}
	idx := func(sub string) int { return strings.Index(got, sub) }
	if !(idx("id:") < idx("type:") && idx("type:") < idx("label:") && idx("label:") < idx("options:")) {
		t.Fatalf("unexpected field order:\n%s", got)
	}
}

func TestSerialize_UnknownFormat(t *testing.T) {
	if _, err := surveyschema.Serialize(surveyschema.Schema{}, surveyschema.Format(9)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestConvert(t *testing.T) {
	out, err := surveyschema.Convert(validXML, surveyschema.FormatXML, surveyschema.FormatYAML)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	back := surveyschema.MustParse(out, surveyschema.FormatYAML)
	if !back.Equal(sampleSchema()) {
		t.Fatalf("converted schema differs")
	}
	_, err = surveyschema.Convert("<survey><question></survey>", surveyschema.FormatXML, surveyschema.FormatJSON)
	ds, ok := surveyschema.AsDiagnostics(err)
	if !ok || len(ds) != 1 {
		t.Fatalf("expected diagnostics error, got %v", err)
	}
}
