package surveyschema

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/reoring/surveyschema/internal/textpos"
	jsonsrc "github.com/reoring/surveyschema/source/json"
	yamlsrc "github.com/reoring/surveyschema/source/yaml"
)

// treeKind is the shape of a decoded JSON or YAML value.
type treeKind int

const (
	treeNull treeKind = iota
	treeScalar
	treeMap
	treeList
)

func (k treeKind) String() string {
	switch k {
	case treeScalar:
		return "scalar"
	case treeMap:
		return "mapping"
	case treeList:
		return "list"
	default:
		return "null"
	}
}

type treeEntry struct {
	key    string
	keyPos textpos.Position
	value  *treeValue
}

// treeValue is a position-carrying view over decoded JSON or YAML, used by
// strict validation so both formats share one walker.
type treeValue struct {
	kind     treeKind
	scalar   string
	isString bool
	entries  []treeEntry
	items    []*treeValue
	pos      textpos.Position
}

func (v *treeValue) get(key string) (*treeValue, bool) {
	if v == nil {
		return nil, false
	}
	for _, e := range v.entries {
		if e.key == key {
			return e.value, true
		}
	}
	return nil, false
}

// treeFromJSON converts a position-carrying goccy/go-json tree. Object
// members keep document order; a repeated key resolves to its first value.
func treeFromJSON(n *jsonsrc.Node) *treeValue {
	if n == nil {
		return &treeValue{kind: treeNull}
	}
	switch n.Kind {
	case jsonsrc.KindObject:
		out := &treeValue{kind: treeMap, pos: n.Pos}
		for _, m := range n.Members {
			out.entries = append(out.entries, treeEntry{key: m.Key, keyPos: m.KeyPos, value: treeFromJSON(m.Value)})
		}
		return out
	case jsonsrc.KindArray:
		out := &treeValue{kind: treeList, pos: n.Pos}
		for _, it := range n.Items {
			out.items = append(out.items, treeFromJSON(it))
		}
		return out
	case jsonsrc.KindString:
		return &treeValue{kind: treeScalar, scalar: n.Text, isString: true, pos: n.Pos}
	case jsonsrc.KindNumber, jsonsrc.KindBool:
		return &treeValue{kind: treeScalar, scalar: n.Text, pos: n.Pos}
	default:
		return &treeValue{kind: treeNull, pos: n.Pos}
	}
}

// maxYAMLTreeNodes caps the nodes visited while expanding aliases.
const maxYAMLTreeNodes = 100_000

// yamlTreeBuilder converts a yaml.v3 node tree, keeping line/column
// positions. Aliases are expanded in place; an alias that refers to one of
// its own ancestors, or an expansion past maxYAMLTreeNodes, stops the walk.
type yamlTreeBuilder struct {
	active  map[*yaml.Node]bool
	visited int
	err     error
}

// treeFromYAML builds the strict-mode tree for n. Plain scalars count as
// strings because yaml.v3 decodes them into string fields.
func treeFromYAML(n *yaml.Node) (*treeValue, error) {
	b := &yamlTreeBuilder{active: make(map[*yaml.Node]bool)}
	v := b.build(n)
	if b.err != nil {
		return nil, b.err
	}
	return v, nil
}

func (b *yamlTreeBuilder) build(n *yaml.Node) *treeValue {
	if n == nil || b.err != nil {
		return &treeValue{kind: treeNull}
	}
	pos := textpos.Position{Line: n.Line, Column: n.Column}
	b.visited++
	if b.visited > maxYAMLTreeNodes {
		b.err = &yamlsrc.ExpansionError{Msg: fmt.Sprintf("document expands to more than %d nodes", maxYAMLTreeNodes), Pos: pos}
		return &treeValue{kind: treeNull}
	}
	if b.active[n] {
		b.err = &yamlsrc.ExpansionError{Msg: "alias refers to a node that contains it", Pos: pos}
		return &treeValue{kind: treeNull}
	}
	b.active[n] = true
	defer delete(b.active, n)

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return &treeValue{kind: treeNull, pos: pos}
		}
		return b.build(n.Content[0])
	case yaml.AliasNode:
		if n.Alias != nil && b.active[n.Alias] {
			b.err = &yamlsrc.ExpansionError{Msg: fmt.Sprintf("alias *%s refers to a node that contains it", n.Value), Pos: pos}
			return &treeValue{kind: treeNull}
		}
		return b.build(n.Alias)
	case yaml.MappingNode:
		out := &treeValue{kind: treeMap, pos: pos}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			out.entries = append(out.entries, treeEntry{
				key:    k.Value,
				keyPos: textpos.Position{Line: k.Line, Column: k.Column},
				value:  b.build(n.Content[i+1]),
			})
		}
		return out
	case yaml.SequenceNode:
		out := &treeValue{kind: treeList, pos: pos}
		for _, c := range n.Content {
			out.items = append(out.items, b.build(c))
		}
		return out
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return &treeValue{kind: treeNull, pos: pos}
		}
		return &treeValue{kind: treeScalar, scalar: n.Value, isString: true, pos: pos}
	default:
		return &treeValue{kind: treeNull, pos: pos}
	}
}

var (
	documentKeys = map[string]bool{"questions": true}
	questionKeys = map[string]bool{"id": true, "type": true, "label": true, "options": true}
)

// checkTree applies the survey grammar to a decoded document: the root must
// be a mapping with a "questions" list whose items are question mappings.
func checkTree(root *treeValue) Diagnostics {
	if root.kind != treeMap {
		return Diagnostics{newDiagnostic(KindStructure, root.pos, "survey document must be a mapping with a \"questions\" list, found %s", root.kind)}
	}
	var ds Diagnostics
	for _, e := range root.entries {
		if !documentKeys[e.key] {
			ds = append(ds, newDiagnostic(KindAttribute, e.keyPos, "unknown field %q in survey document", e.key))
		}
	}
	list, ok := root.get("questions")
	if !ok {
		return append(ds, newDiagnostic(KindStructure, root.pos, "survey document is missing the \"questions\" list"))
	}
	if list.kind == treeNull {
		return ds
	}
	if list.kind != treeList {
		return append(ds, newDiagnostic(KindStructure, list.pos, "\"questions\" must be a list, found %s", list.kind))
	}
	var qs []rawQuestion
	for i, item := range list.items {
		ordinal := i + 1
		if item.kind != treeMap {
			ds = append(ds, newDiagnostic(KindStructure, item.pos, "question #%d must be a mapping, found %s", ordinal, item.kind))
			continue
		}
		q, fieldDs := treeQuestion(item, ordinal)
		ds = append(ds, fieldDs...)
		qs = append(qs, q)
	}
	return append(ds, checkQuestions(qs)...)
}

func treeQuestion(m *treeValue, ordinal int) (rawQuestion, Diagnostics) {
	q := rawQuestion{Ordinal: ordinal, Pos: m.pos}
	var ds Diagnostics
	str := func(key string) (string, bool) {
		v, ok := m.get(key)
		if !ok || v.kind == treeNull {
			return "", false
		}
		if v.kind != treeScalar || !v.isString {
			ds = append(ds, newDiagnostic(KindAttribute, v.pos, "question #%d field %q must be a string, found %s", ordinal, key, v.kind))
			return "", false
		}
		return v.scalar, true
	}
	q.ID, q.HasID = str("id")
	q.Type, q.HasType = str("type")
	q.Label, q.HasLabel = str("label")
	if lv, ok := m.get("label"); ok {
		q.LabelPos = lv.pos
	}
	if ov, ok := m.get("options"); ok && ov.kind != treeNull {
		if ov.kind != treeList {
			ds = append(ds, newDiagnostic(KindStructure, ov.pos, "question #%d field \"options\" must be a list, found %s", ordinal, ov.kind))
		} else {
			for j, o := range ov.items {
				if o.kind != treeScalar || !o.isString {
					ds = append(ds, newDiagnostic(KindAttribute, o.pos, "question #%d option #%d must be a string, found %s", ordinal, j+1, o.kind))
					continue
				}
				q.Options = append(q.Options, o.scalar)
			}
		}
	}
	for _, e := range m.entries {
		if !questionKeys[e.key] {
			ds = append(ds, newDiagnostic(KindAttribute, e.keyPos, "question #%d has unknown field %q", ordinal, e.key))
		}
	}
	return q, ds
}
