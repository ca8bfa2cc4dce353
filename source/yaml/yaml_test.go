package yaml_test

import (
	"testing"

	yamlsrc "github.com/reoring/surveyschema/source/yaml"
)

func TestDuplicateKeys(t *testing.T) {
	n, err := yamlsrc.DecodeNode([]byte("questions:\n  - id: q1\n    id: q2\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dups := yamlsrc.DuplicateKeys(n)
	if len(dups) != 1 {
		t.Fatalf("expected 1 duplicate, got %d", len(dups))
	}
	d := dups[0]
	if d.Key != "id" || d.FirstLine != 2 || d.Line != 3 {
		t.Fatalf("unexpected duplicate: %+v", d)
	}
}

func TestDecodeNode_Empty(t *testing.T) {
	n, err := yamlsrc.DecodeNode(nil)
	if err != nil || n != nil {
		t.Fatalf("expected nil node and no error, got %v, %v", n, err)
	}
}

func TestErrorPosition(t *testing.T) {
	_, err := yamlsrc.DecodeNode([]byte("questions:\n  - id: q1\n   bad: [\n"))
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if pos := yamlsrc.ErrorPosition(err); !pos.Known() {
		t.Fatalf("expected a line in %q", err.Error())
	}
}
