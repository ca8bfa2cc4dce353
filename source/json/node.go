package json

import (
	"bytes"
	"fmt"

	j "github.com/goccy/go-json"

	"github.com/reoring/surveyschema/internal/textpos"
)

// MaxDepth bounds container nesting accepted by DecodeNode.
const MaxDepth = 1000

// Kind is the JSON type of a Node.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindObject
	KindArray
)

// Member is one key/value pair of an object, in document order. Repeated
// keys are kept.
type Member struct {
	Key    string
	KeyPos textpos.Position
	Value  *Node
}

// Node is a decoded JSON value that remembers where it started.
type Node struct {
	Kind    Kind
	Text    string // string value or number literal
	Bool    bool
	Members []Member
	Items   []*Node
	Pos     textpos.Position
}

type nodeDecoder struct {
	data  []byte
	dec   *j.Decoder
	index *textpos.Index
}

// DecodeNode decodes a single JSON value into a position-carrying tree.
func DecodeNode(data []byte) (*Node, error) {
	d := &nodeDecoder{data: data, index: textpos.NewIndex(data)}
	d.dec = j.NewDecoder(bytes.NewReader(data))
	d.dec.UseNumber()
	tok, pos, err := d.next()
	if err != nil {
		return nil, err
	}
	return d.value(tok, pos, 0)
}

// next reads a token and the position of its first byte. The decoder's
// offset sits after the previous token, so separators are skipped first.
func (d *nodeDecoder) next() (j.Token, textpos.Position, error) {
	off := d.dec.InputOffset()
	for off < int64(len(d.data)) && isSeparator(d.data[off]) {
		off++
	}
	tok, err := d.dec.Token()
	return tok, d.index.At(off), err
}

func isSeparator(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', ',', ':':
		return true
	}
	return false
}

func (d *nodeDecoder) value(tok j.Token, pos textpos.Position, depth int) (*Node, error) {
	switch v := tok.(type) {
	case nil:
		return &Node{Kind: KindNull, Pos: pos}, nil
	case string:
		return &Node{Kind: KindString, Text: v, Pos: pos}, nil
	case j.Number:
		return &Node{Kind: KindNumber, Text: string(v), Pos: pos}, nil
	case float64:
		return &Node{Kind: KindNumber, Text: fmt.Sprint(v), Pos: pos}, nil
	case bool:
		return &Node{Kind: KindBool, Bool: v, Pos: pos}, nil
	case j.Delim:
		if depth >= MaxDepth {
			return nil, fmt.Errorf("nesting exceeds %d levels at line %d", MaxDepth, pos.Line)
		}
		switch v {
		case '{':
			return d.object(pos, depth+1)
		case '[':
			return d.array(pos, depth+1)
		}
	}
	return nil, fmt.Errorf("unexpected %v at line %d, column %d", tok, pos.Line, pos.Column)
}

func (d *nodeDecoder) object(pos textpos.Position, depth int) (*Node, error) {
	n := &Node{Kind: KindObject, Pos: pos}
	for {
		tok, keyPos, err := d.next()
		if err != nil {
			return nil, err
		}
		if tok == j.Delim('}') {
			return n, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key at line %d, column %d", keyPos.Line, keyPos.Column)
		}
		tok, valPos, err := d.next()
		if err != nil {
			return nil, err
		}
		val, err := d.value(tok, valPos, depth)
		if err != nil {
			return nil, err
		}
		n.Members = append(n.Members, Member{Key: key, KeyPos: keyPos, Value: val})
	}
}

func (d *nodeDecoder) array(pos textpos.Position, depth int) (*Node, error) {
	n := &Node{Kind: KindArray, Pos: pos}
	for {
		tok, itemPos, err := d.next()
		if err != nil {
			return nil, err
		}
		if tok == j.Delim(']') {
			return n, nil
		}
		item, err := d.value(tok, itemPos, depth)
		if err != nil {
			return nil, err
		}
		n.Items = append(n.Items, item)
	}
}

// Duplicates reports every repeated object key under n, with the position of
// the repeated occurrence.
func Duplicates(n *Node) []Duplicate {
	var out []Duplicate
	var walk func(n *Node, path string)
	walk = func(n *Node, path string) {
		switch n.Kind {
		case KindObject:
			seen := make(map[string]bool, len(n.Members))
			for _, m := range n.Members {
				if seen[m.Key] {
					out = append(out, Duplicate{Key: m.Key, Path: displayPath(path), Pos: m.KeyPos})
				}
				seen[m.Key] = true
				walk(m.Value, path+"/"+escapePointer(m.Key))
			}
		case KindArray:
			for i, it := range n.Items {
				walk(it, fmt.Sprintf("%s/%d", path, i))
			}
		}
	}
	walk(n, "")
	return out
}

func displayPath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
