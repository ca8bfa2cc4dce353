package surveyschema

import (
	"errors"
	"strings"

	"github.com/reoring/surveyschema/internal/textpos"
	xmlsrc "github.com/reoring/surveyschema/source/xml"
)

const (
	xmlRootTag     = "survey"
	xmlQuestionTag = "question"
	xmlLabelTag    = "label"
	xmlOptionTag   = "option"
)

// parseXML runs the XML pipeline: well-formedness and root shape stop at
// the first failure; root children and per-question checks accumulate.
func parseXML(data []byte) ParseResult {
	root, err := xmlsrc.Parse(data)
	if err != nil {
		return errResult(xmlSyntaxDiagnostic(err))
	}
	if root.Name != xmlRootTag {
		return errResult(newDiagnostic(KindStructure, root.Pos, "root element must be <%s>, found <%s>", xmlRootTag, root.Name))
	}

	var ds Diagnostics
	var questions []rawQuestion
	for _, c := range root.Children {
		switch {
		case c.Kind == xmlsrc.KindText:
			if strings.TrimSpace(c.Text) != "" {
				ds = append(ds, newDiagnostic(KindText, c.Pos, "unexpected text %q directly inside <%s>", excerpt(c.Text, 40), xmlRootTag))
			}
		case c.Name != xmlQuestionTag:
			ds = append(ds, newDiagnostic(KindStructure, c.Pos, "unexpected element <%s> inside <%s>; only <%s> is allowed", c.Name, xmlRootTag, xmlQuestionTag))
		default:
			questions = append(questions, xmlQuestion(c, len(questions)+1))
		}
	}
	ds = append(ds, checkQuestions(questions)...)
	if len(ds) > 0 {
		return errResult(ds...)
	}
	return okResult(buildSchema(questions))
}

func xmlQuestion(el *xmlsrc.Node, ordinal int) rawQuestion {
	q := rawQuestion{Ordinal: ordinal, Pos: el.Pos}
	q.ID, q.HasID = el.Attr("id")
	q.Type, q.HasType = el.Attr("type")
	if label := el.FirstChild(xmlLabelTag); label != nil {
		q.HasLabel = true
		q.Label = label.TextContent()
		q.LabelPos = label.Pos
	}
	for _, o := range el.ChildElements(xmlOptionTag) {
		q.Options = append(q.Options, o.TextContent())
	}
	for _, c := range el.Children {
		if c.Kind == xmlsrc.KindText && strings.TrimSpace(c.Text) != "" {
			if q.StrayText == "" {
				q.StrayTextPos = c.Pos
			}
			q.StrayText += c.Text
		}
	}
	return q
}

// xmlSyntaxDiagnostic turns a tree-builder failure into one syntax
// diagnostic with a short message.
func xmlSyntaxDiagnostic(err error) Diagnostic {
	var se *xmlsrc.SyntaxError
	if errors.As(err, &se) {
		pos := se.Pos
		if !pos.Known() {
			pos = textpos.FromMessage(se.Msg)
		}
		return newDiagnostic(KindSyntax, pos, "malformed XML: %s", excerpt(se.Msg, 120))
	}
	return newDiagnostic(KindSyntax, textpos.FromMessage(err.Error()), "malformed XML: %s", excerpt(err.Error(), 120))
}
