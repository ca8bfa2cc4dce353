// Package surveyschema parses, validates, serializes and merges survey
// definitions written in XML, JSON or YAML.
//
// Every format decodes into one canonical Schema. Failures never escape as
// errors or panics from ParseSurvey: they are reported as Diagnostics with a
// kind (syntax, structure, attribute, text) and an optional line/column.
//
// Design policy:
// - Keep the public API in the root package; per-format decoding lives under source/.
// - All operations are pure: no I/O, no shared state, safe for concurrent use.
// - Collaborators (storage, HTTP, CLI) live under internal/ and cmd/.
//
// Typical usage:
//
//	res := surveyschema.ParseSurvey(code, surveyschema.FormatXML)
//	if !res.OK() {
//		for _, d := range res.Diagnostics { fmt.Println(d) }
//		return
//	}
//	yamlText, _ := surveyschema.Serialize(*res.Schema, surveyschema.FormatYAML)
//	merged := surveyschema.Merge(res.Schema, generated)
package surveyschema
