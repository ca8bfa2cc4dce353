package surveyschema_test

import (
	"strings"
	"testing"

	surveyschema "github.com/reoring/surveyschema"
)

func TestParseSurveyString_UnknownFormat(t *testing.T) {
	res := surveyschema.ParseSurveyString("a,b,c", "csv")
	if res.OK() {
		t.Fatalf("expected failure")
	}
	if len(res.Diagnostics) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %v", res.Diagnostics)
	}
	d := res.Diagnostics[0]
	if d.Kind != surveyschema.KindSyntax || !strings.Contains(d.Message, `"csv"`) {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
}

func TestParseSurvey_OutOfRangeFormat(t *testing.T) {
	res := surveyschema.ParseSurvey("<survey/>", surveyschema.Format(42))
	if res.OK() || len(res.Diagnostics) != 1 || res.Diagnostics[0].Kind != surveyschema.KindSyntax {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestParseSurvey_ResultInvariant(t *testing.T) {
	inputs := []struct {
		code   string
		format surveyschema.Format
	}{
		{"<survey></survey>", surveyschema.FormatXML},
		{"<survey><question></survey>", surveyschema.FormatXML},
		{"", surveyschema.FormatXML},
		{`{"questions":[]}`, surveyschema.FormatJSON},
		{`{"questions":[`, surveyschema.FormatJSON},
		{"", surveyschema.FormatJSON},
		{"questions: []\n", surveyschema.FormatYAML},
		{"questions: [\n", surveyschema.FormatYAML},
	}
	for _, in := range inputs {
		res := surveyschema.ParseSurvey(in.code, in.format)
		if res.OK() == (len(res.Diagnostics) > 0) {
			t.Fatalf("%s %q: schema present=%v with %d diagnostics", in.format, in.code, res.OK(), len(res.Diagnostics))
		}
		if !res.OK() && res.Err() == nil {
			t.Fatalf("%s %q: Err() must be non-nil on failure", in.format, in.code)
		}
	}
}

func TestParseSurvey_MaxBytes(t *testing.T) {
	res := surveyschema.ParseSurvey("<survey></survey>", surveyschema.FormatXML, surveyschema.ParseOpt{MaxBytes: 4})
	if res.OK() || res.Diagnostics[0].Kind != surveyschema.KindSyntax {
		t.Fatalf("expected size diagnostic, got %+v", res)
	}
}

func TestParseFormat(t *testing.T) {
	for tag, want := range map[string]surveyschema.Format{"xml": surveyschema.FormatXML, "JSON": surveyschema.FormatJSON, "yml": surveyschema.FormatYAML, " yaml ": surveyschema.FormatYAML} {
		got, err := surveyschema.ParseFormat(tag)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", tag, got, err)
		}
	}
	if _, err := surveyschema.ParseFormat("csv"); err == nil {
		t.Fatalf("expected error for csv")
	}
	if f, err := surveyschema.FormatFromPath("dir/survey.yml"); err != nil || f != surveyschema.FormatYAML {
		t.Fatalf("FormatFromPath = %v, %v", f, err)
	}
}

func TestParseSurvey_ConcurrentUse(t *testing.T) {
	const doc = `<survey><question id="q1" type="text"><label>Name</label></question></survey>`
	done := make(chan bool)
	for i := 0; i < 8; i++ {
		go func() {
			res := surveyschema.ParseSurvey(doc, surveyschema.FormatXML)
			done <- res.OK() && len(res.Schema.Questions) == 1
		}()
	}
	for i := 0; i < 8; i++ {
		if !<-done {
			t.Fatalf("concurrent parse failed")
		}
	}
}
