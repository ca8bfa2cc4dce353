package surveyschema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/surveyschema/internal/textpos"
)

// Kind classifies a Diagnostic. There are exactly four kinds.
type Kind string

const (
	KindSyntax    Kind = "syntax"    // malformed text in the stated format
	KindStructure Kind = "structure" // wrong element shape or child cardinality
	KindAttribute Kind = "attribute" // missing or invalid field value
	KindText      Kind = "text"      // unexpected free text in a structural position
)

// Diagnostic is one independent parse or validation failure.
type Diagnostic struct {
	Kind    Kind   `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
	Line    *int   `json:"line,omitempty" yaml:"line,omitempty"`
	Column  *int   `json:"column,omitempty" yaml:"column,omitempty"`
}

// newDiagnostic builds a Diagnostic, attaching the position when known.
func newDiagnostic(kind Kind, pos textpos.Position, format string, args ...any) Diagnostic {
	d := Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)}
	if pos.Line > 0 {
		line := pos.Line
		d.Line = &line
	}
	if pos.Column > 0 {
		col := pos.Column
		d.Column = &col
	}
	return d
}

// Position returns the line and column, zero when absent.
func (d Diagnostic) Position() (line, column int) {
	if d.Line != nil {
		line = *d.Line
	}
	if d.Column != nil {
		column = *d.Column
	}
	return line, column
}

func (d Diagnostic) String() string {
	line, col := d.Position()
	switch {
	case line > 0 && col > 0:
		return fmt.Sprintf("%s: %s (line %d, column %d)", d.Kind, d.Message, line, col)
	case line > 0:
		return fmt.Sprintf("%s: %s (line %d)", d.Kind, d.Message, line)
	default:
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
}

// Diagnostics is an ordered list of diagnostics that implements error.
type Diagnostics []Diagnostic

// Error summarizes the first few diagnostics.
func (ds Diagnostics) Error() string {
	if len(ds) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(ds), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ds[i].String())
	}
	if len(ds) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(ds))
	}
	return b.String()
}

// Kinds counts diagnostics per kind.
func (ds Diagnostics) Kinds() map[Kind]int {
	out := make(map[Kind]int, 4)
	for _, d := range ds {
		out[d.Kind]++
	}
	return out
}

// AppendDiagnostics appends to dst, initializing it when needed.
func AppendDiagnostics(dst Diagnostics, more ...Diagnostic) Diagnostics {
	if dst == nil {
		dst = Diagnostics{}
	}
	return append(dst, more...)
}

// AsDiagnostics extracts Diagnostics from err using errors.As.
func AsDiagnostics(err error) (Diagnostics, bool) {
	if err == nil {
		return nil, false
	}
	var ds Diagnostics
	if errors.As(err, &ds) {
		return ds, true
	}
	return nil, false
}

// excerpt trims s and shortens it to at most n runes.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
