package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"

	surveyschema "github.com/reoring/surveyschema"
	"github.com/reoring/surveyschema/i18n"
)

var (
	pathColor  = color.New(color.Bold)
	okColor    = color.New(color.FgGreen, color.Bold)
	errorColor = color.New(color.FgRed, color.Bold)
	kindColors = map[surveyschema.Kind]*color.Color{
		surveyschema.KindSyntax:    color.New(color.FgRed),
		surveyschema.KindStructure: color.New(color.FgMagenta),
		surveyschema.KindAttribute: color.New(color.FgYellow),
		surveyschema.KindText:      color.New(color.FgCyan),
	}
)

// renderResult prints one file's outcome in the style of compiler output:
// path:line:col: kind: message.
func renderResult(w io.Writer, path string, res surveyschema.ParseResult) {
	if res.OK() {
		fmt.Fprintf(w, "%s: %s\n", pathColor.Sprint(path),
			okColor.Sprint(i18n.T("valid", map[string]string{"count": strconv.Itoa(len(res.Schema.Questions))})))
		return
	}
	for _, d := range res.Diagnostics {
		renderDiagnostic(w, path, d)
	}
	fmt.Fprintf(w, "%s: %s\n", pathColor.Sprint(path),
		errorColor.Sprint(i18n.T("invalid", map[string]string{"count": strconv.Itoa(len(res.Diagnostics))})))
}

func renderDiagnostic(w io.Writer, path string, d surveyschema.Diagnostic) {
	loc := path
	line, col := d.Position()
	if line > 0 {
		loc += ":" + strconv.Itoa(line)
		if col > 0 {
			loc += ":" + strconv.Itoa(col)
		}
	}
	kc, ok := kindColors[d.Kind]
	if !ok {
		kc = errorColor
	}
	fmt.Fprintf(w, "%s: %s: %s\n", pathColor.Sprint(loc), kc.Sprint(i18n.T(string(d.Kind), nil)), d.Message)
}
