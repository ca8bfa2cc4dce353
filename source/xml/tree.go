// Package xml builds a small tagged tree (element and text nodes) from XML
// text. Each node records where it starts in the input so callers can attach
// positions to diagnostics.
package xml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/reoring/surveyschema/internal/textpos"
)

// NodeKind distinguishes element nodes from text nodes.
type NodeKind int

const (
	KindElement NodeKind = iota
	KindText
)

func (k NodeKind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Attr is a single element attribute.
type Attr struct {
	Name  string
	Value string
}

// Node is either an element (Name, Attrs, Children) or a text run (Text).
type Node struct {
	Kind     NodeKind
	Name     string
	Attrs    []Attr
	Children []*Node
	Text     string
	Pos      textpos.Position
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// ChildElements returns the direct element children named name, in document
// order. An empty name matches every element.
func (n *Node) ChildElements(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == KindElement && (name == "" || c.Name == name) {
			out = append(out, c)
		}
	}
	return out
}

// FirstChild returns the first direct element child named name, or nil.
func (n *Node) FirstChild(name string) *Node {
	for _, c := range n.Children {
		if c.Kind == KindElement && c.Name == name {
			return c
		}
	}
	return nil
}

// TextContent concatenates every descendant text node.
func (n *Node) TextContent() string {
	if n.Kind == KindText {
		return n.Text
	}
	var b strings.Builder
	var walk func(*Node)
	walk = func(x *Node) {
		for _, c := range x.Children {
			if c.Kind == KindText {
				b.WriteString(c.Text)
				continue
			}
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// SyntaxError reports malformed markup.
type SyntaxError struct {
	Msg string
	Pos textpos.Position
}

func (e *SyntaxError) Error() string {
	if e.Pos.Known() {
		return fmt.Sprintf("line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
	}
	return e.Msg
}

// Parse reads a complete document and returns its root element.
func Parse(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true

	var (
		root  *Node
		stack []*Node
	)
	for {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapSyntax(data, dec, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && root != nil {
				return nil, syntaxAt(data, start, "extra content after the root element")
			}
			el := &Node{Kind: KindElement, Name: t.Name.Local, Pos: elementPos(data, start)}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				el.Attrs = append(el.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			} else {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, syntaxAt(data, start+leadingSpace(t), "text is not allowed outside the root element")
				}
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Node{
				Kind: KindText,
				Text: string(t),
				Pos:  textpos.At(data, start+leadingSpace(t)),
			})
		}
	}
	if len(stack) > 0 {
		return nil, syntaxAt(data, int64(len(data)), fmt.Sprintf("unexpected end of input: <%s> is not closed", stack[len(stack)-1].Name))
	}
	if root == nil {
		return nil, &SyntaxError{Msg: "no root element found", Pos: textpos.At(data, int64(len(data)))}
	}
	return root, nil
}

func wrapSyntax(data []byte, dec *xml.Decoder, err error) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		pos := textpos.At(data, dec.InputOffset())
		if pos.Line != se.Line {
			pos = textpos.Position{Line: se.Line}
		}
		return &SyntaxError{Msg: se.Msg, Pos: pos}
	}
	return &SyntaxError{Msg: err.Error(), Pos: textpos.FromMessage(err.Error())}
}

func syntaxAt(data []byte, off int64, msg string) error {
	return &SyntaxError{Msg: msg, Pos: textpos.At(data, off)}
}

// elementPos skips whitespace and non-element markup preceding a start tag
// so the position lands on its '<'.
func elementPos(data []byte, off int64) textpos.Position {
	if off >= 0 && off < int64(len(data)) {
		if i := bytes.IndexByte(data[off:], '<'); i >= 0 {
			off += int64(i)
		}
	}
	return textpos.At(data, off)
}

func leadingSpace(b []byte) int64 {
	return int64(len(b) - len(bytes.TrimLeft(b, " \t\r\n")))
}
