package surveyschema

import (
	"fmt"

	"github.com/reoring/surveyschema/internal/textpos"
)

// ParseResult is either a Schema (OK) or a non-empty list of Diagnostics.
type ParseResult struct {
	Schema      *Schema     `json:"schema,omitempty"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// OK reports whether parsing produced a schema.
func (r ParseResult) OK() bool { return r.Schema != nil }

// Err returns the diagnostics as an error, or nil on success.
func (r ParseResult) Err() error {
	if r.OK() {
		return nil
	}
	return r.Diagnostics
}

func okResult(s Schema) ParseResult {
	return ParseResult{Schema: &s, Diagnostics: Diagnostics{}}
}

func errResult(ds ...Diagnostic) ParseResult {
	return ParseResult{Diagnostics: AppendDiagnostics(nil, ds...)}
}

// ParseSurvey parses code in the given format. It never panics: every
// failure, including an unknown format, comes back as diagnostics.
func ParseSurvey(code string, format Format, opts ...ParseOpt) (res ParseResult) {
	var opt ParseOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	defer func() {
		if r := recover(); r != nil {
			res = errResult(newDiagnostic(KindSyntax, textpos.Position{}, "internal %s parser failure: %v", format, r))
		}
		res = settle(res)
	}()

	if opt.MaxBytes > 0 && int64(len(code)) > opt.MaxBytes {
		return errResult(newDiagnostic(KindSyntax, textpos.Position{}, "input is %d bytes, limit is %d", len(code), opt.MaxBytes))
	}
	data := []byte(code)
	switch format {
	case FormatXML:
		return parseXML(data)
	case FormatJSON:
		return parseJSON(data, opt)
	case FormatYAML:
		return parseYAML(data, opt)
	default:
		return errResult(unknownFormat(format.String()))
	}
}

// ParseSurveyString is ParseSurvey for a raw format tag such as "xml".
func ParseSurveyString(code, tag string, opts ...ParseOpt) ParseResult {
	f, err := ParseFormat(tag)
	if err != nil {
		return errResult(unknownFormat(tag))
	}
	return ParseSurvey(code, f, opts...)
}

func unknownFormat(tag string) Diagnostic {
	return newDiagnostic(KindSyntax, textpos.Position{}, "unrecognized format %q: expected one of xml, json, yaml", tag)
}

// settle enforces the result invariant: a schema iff no diagnostics.
func settle(r ParseResult) ParseResult {
	if len(r.Diagnostics) > 0 {
		r.Schema = nil
		return r
	}
	if r.Schema == nil {
		return errResult(newDiagnostic(KindSyntax, textpos.Position{}, "%s", "survey could not be parsed"))
	}
	r.Diagnostics = Diagnostics{}
	return r
}

// MustParse parses code and panics on diagnostics. Intended for fixtures.
func MustParse(code string, format Format) Schema {
	res := ParseSurvey(code, format)
	if !res.OK() {
		panic(fmt.Sprintf("surveyschema: %v", res.Diagnostics))
	}
	return *res.Schema
}
