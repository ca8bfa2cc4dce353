// Package json decodes survey JSON with goccy/go-json and maps decoder
// failures back to input positions.
package json

import (
	"errors"
	"strings"

	j "github.com/goccy/go-json"

	"github.com/reoring/surveyschema/internal/textpos"
)

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error { return j.Unmarshal(data, v) }

// ErrorPosition locates a decoder error inside data. It prefers the byte
// offset carried by the error and falls back to a "line N" pattern in the
// message.
func ErrorPosition(data []byte, err error) textpos.Position {
	var se *j.SyntaxError
	if errors.As(err, &se) && se.Offset > 0 {
		return textpos.At(data, se.Offset)
	}
	var te *j.UnmarshalTypeError
	if errors.As(err, &te) && te.Offset > 0 {
		return textpos.At(data, te.Offset)
	}
	return textpos.FromMessage(err.Error())
}

// CleanMessage strips the package prefix decoders put on their messages.
func CleanMessage(err error) string {
	msg := err.Error()
	msg = strings.TrimPrefix(msg, "json: ")
	return strings.TrimSpace(msg)
}

// Duplicate describes an object key seen more than once.
type Duplicate struct {
	Key  string
	Path string           // JSON Pointer of the object holding Key.
	Pos  textpos.Position // the repeated occurrence
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapePointer(key string) string { return pointerEscaper.Replace(key) }
