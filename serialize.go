package surveyschema

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	j "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Serialize renders s in the given format.
func Serialize(s Schema, format Format, opts ...SerializeOpt) (string, error) {
	var opt SerializeOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	switch format {
	case FormatXML:
		return toXML(s, opt), nil
	case FormatJSON:
		return toJSON(s, opt)
	case FormatYAML:
		return toYAML(s, opt)
	default:
		return "", fmt.Errorf("serialize: %w: %s", ErrUnknownFormat, format)
	}
}

// ToXML renders s as a <survey> document.
func ToXML(s Schema) string { return toXML(s, SerializeOpt{}) }

// ToJSON renders s as indented JSON with fields in id, type, label, options order.
func ToJSON(s Schema) (string, error) { return toJSON(s, SerializeOpt{}) }

// ToYAML renders s as YAML with the same field set and order as ToJSON.
func ToYAML(s Schema) (string, error) { return toYAML(s, SerializeOpt{}) }

// Convert parses code in one format and renders it in another.
func Convert(code string, from, to Format, opts ...ParseOpt) (string, error) {
	res := ParseSurvey(code, from, opts...)
	if !res.OK() {
		return "", res.Diagnostics
	}
	return Serialize(*res.Schema, to)
}

// toXML escapes text and attribute values so any label survives a round trip.
func toXML(s Schema, opt SerializeOpt) string {
	ind := opt.indent()
	var b strings.Builder
	b.WriteString("<survey>\n")
	for _, q := range s.Questions {
		fmt.Fprintf(&b, "%s<question id=\"%s\" type=\"%s\">\n", ind, escapeXML(q.ID), escapeXML(string(q.Type)))
		fmt.Fprintf(&b, "%s%s<label>%s</label>\n", ind, ind, escapeXML(q.Label))
		for _, o := range q.Options {
			fmt.Fprintf(&b, "%s%s<option>%s</option>\n", ind, ind, escapeXML(o))
		}
		fmt.Fprintf(&b, "%s</question>\n", ind)
	}
	b.WriteString("</survey>\n")
	return b.String()
}

// escapeXML escapes markup characters. Characters XML 1.0 cannot carry at
// all, such as U+0001, come out as U+FFFD.
func escapeXML(s string) string {
	var b bytes.Buffer
	// EscapeText only fails when the writer does.
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func toJSON(s Schema, opt SerializeOpt) (string, error) {
	var b bytes.Buffer
	enc := j.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", opt.indent())
	if err := enc.Encode(s.normalized()); err != nil {
		return "", fmt.Errorf("serialize json: %w", err)
	}
	return b.String(), nil
}

func toYAML(s Schema, opt SerializeOpt) (string, error) {
	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(len(opt.indent()))
	if err := enc.Encode(s.normalized()); err != nil {
		return "", fmt.Errorf("serialize yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("serialize yaml: %w", err)
	}
	return b.String(), nil
}
