package surveyschema

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is the closed set of survey text formats.
type Format int

const (
	FormatXML Format = iota
	FormatJSON
	FormatYAML
)

// Formats lists every supported format in canonical order.
var Formats = []Format{FormatXML, FormatJSON, FormatYAML}

// ErrUnknownFormat is returned by ParseFormat for an unrecognized tag.
var ErrUnknownFormat = errors.New("unknown survey format")

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Valid reports whether f is one of the known formats.
func (f Format) Valid() bool {
	switch f {
	case FormatXML, FormatJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// ParseFormat maps a format tag ("xml", "json", "yaml"; "yml" is accepted as
// an alias) to a Format.
func ParseFormat(tag string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "xml":
		return FormatXML, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, tag)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

func (f Format) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, int(f))
	}
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// QuestionType is the kind of answer a question collects. Decoders keep
// unknown values verbatim; Known reports whether a value is recognized.
type QuestionType string

const (
	TypeSingleSelect QuestionType = "single-select"
	TypeMultiSelect  QuestionType = "multi-select"
	TypeText         QuestionType = "text"
	TypeTextarea     QuestionType = "textarea"
	TypeRating       QuestionType = "rating"
)

// QuestionTypes lists the recognized types in canonical order.
var QuestionTypes = []QuestionType{TypeSingleSelect, TypeMultiSelect, TypeText, TypeTextarea, TypeRating}

// Known reports whether t is a recognized question type.
func (t QuestionType) Known() bool {
	for _, k := range QuestionTypes {
		if t == k {
			return true
		}
	}
	return false
}

// IsSelect reports whether t requires options.
func (t QuestionType) IsSelect() bool { return t == TypeSingleSelect || t == TypeMultiSelect }

// MinSelectOptions is the minimum option count for select questions.
const MinSelectOptions = 2

// ParseOpt bundles parsing options.
type ParseOpt struct {
	// Strict runs the question grammar checks on JSON and YAML input as well,
	// and reports duplicate and unknown keys. XML is always checked.
	Strict bool
	// MaxBytes rejects larger inputs when > 0.
	MaxBytes int64
}

// SerializeOpt bundles serialization options.
type SerializeOpt struct {
	// Indent is the indentation unit; two spaces when empty.
	Indent string
}

func (o SerializeOpt) indent() string {
	if o.Indent == "" {
		return "  "
	}
	return o.Indent
}
