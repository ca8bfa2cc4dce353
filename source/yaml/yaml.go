// Package yaml decodes survey YAML with gopkg.in/yaml.v3, keeping node
// positions for diagnostics.
package yaml

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/surveyschema/internal/textpos"
)

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error { return yaml.Unmarshal(data, v) }

// DecodeNode decodes data and returns the top-level content node, or nil for
// an empty document.
func DecodeNode(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil, nil
		}
		return doc.Content[0], nil
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	return &doc, nil
}

// DuplicateKeyError reports a key repeated within one mapping, with both
// positions.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// DuplicateKeys walks n and returns every duplicated mapping key in document
// order.
func DuplicateKeys(n *yaml.Node) []*DuplicateKeyError {
	var out []*DuplicateKeyError
	var walk func(*yaml.Node)
	walk = func(n *yaml.Node) {
		if n == nil {
			return
		}
		switch n.Kind {
		case yaml.DocumentNode, yaml.SequenceNode:
			for _, c := range n.Content {
				walk(c)
			}
		case yaml.MappingNode:
			first := make(map[string][2]int, len(n.Content)/2)
			for i := 0; i+1 < len(n.Content); i += 2 {
				k := n.Content[i]
				if pos, dup := first[k.Value]; dup {
					out = append(out, &DuplicateKeyError{Key: k.Value, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column})
				} else {
					first[k.Value] = [2]int{k.Line, k.Column}
				}
				walk(n.Content[i+1])
			}
		}
	}
	walk(n)
	return out
}

// Lookup returns the value node stored under key in mapping m.
func Lookup(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// Pos returns the node position.
func Pos(n *yaml.Node) textpos.Position {
	if n == nil {
		return textpos.Position{}
	}
	return textpos.Position{Line: n.Line, Column: n.Column}
}

// ExpansionError reports alias expansion that is cyclic or too large.
type ExpansionError struct {
	Msg string
	Pos textpos.Position
}

func (e *ExpansionError) Error() string { return "yaml: " + e.Msg }

// ErrorPosition extracts the first "line N" reference from a decoder error.
func ErrorPosition(err error) textpos.Position {
	var ee *ExpansionError
	if errors.As(err, &ee) {
		return ee.Pos
	}
	var te *yaml.TypeError
	if errors.As(err, &te) && len(te.Errors) > 0 {
		return textpos.FromMessage(te.Errors[0])
	}
	return textpos.FromMessage(err.Error())
}

// CleanMessage strips the "yaml: " prefix and folds multi-error reports
// into one line.
func CleanMessage(err error) string {
	var te *yaml.TypeError
	if errors.As(err, &te) && len(te.Errors) > 0 {
		return strings.Join(te.Errors, "; ")
	}
	return strings.TrimSpace(strings.TrimPrefix(err.Error(), "yaml: "))
}
