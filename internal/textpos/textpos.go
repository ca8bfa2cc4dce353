// Package textpos converts byte offsets into 1-based line/column positions.
package textpos

import (
	"regexp"
	"sort"
	"strconv"
	"unicode/utf8"
)

// Position is a 1-based line/column pair. Zero values mean unknown.
type Position struct {
	Line   int
	Column int
}

// Known reports whether the position carries a line number.
func (p Position) Known() bool { return p.Line > 0 }

// At returns the position of the byte at offset within data. Columns count
// runes, not bytes. Offsets past the end clamp to the end of data; negative
// offsets yield the zero Position.
func At(data []byte, offset int64) Position {
	if offset < 0 {
		return Position{}
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col := 1, 1
	for i := 0; i < int(offset); {
		r, size := utf8.DecodeRune(data[i:])
		i += size
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return Position{Line: line, Column: col}
}

// Index answers repeated offset lookups over the same input without
// rescanning it from the start.
type Index struct {
	data  []byte
	lines []int // byte offset of each line start
}

// NewIndex records the line starts of data.
func NewIndex(data []byte) *Index {
	lines := []int{0}
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &Index{data: data, lines: lines}
}

// At is the indexed equivalent of the package-level At.
func (x *Index) At(offset int64) Position {
	if offset < 0 {
		return Position{}
	}
	if offset > int64(len(x.data)) {
		offset = int64(len(x.data))
	}
	off := int(offset)
	line := sort.Search(len(x.lines), func(i int) bool { return x.lines[i] > off }) - 1
	start := x.lines[line]
	return Position{Line: line + 1, Column: utf8.RuneCount(x.data[start:off]) + 1}
}

var lineColPattern = regexp.MustCompile(`(?i)line (\d+)(?:(?:,|:)?\s*col(?:umn)? (\d+))?`)

// FromMessage extracts "line N" (and optionally "column M") from a parser
// error message.
func FromMessage(msg string) Position {
	m := lineColPattern.FindStringSubmatch(msg)
	if m == nil {
		return Position{}
	}
	var p Position
	p.Line, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		p.Column, _ = strconv.Atoi(m[2])
	}
	return p
}
