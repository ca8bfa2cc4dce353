package surveyschema

import (
	"github.com/reoring/surveyschema/internal/textpos"
	yamlsrc "github.com/reoring/surveyschema/source/yaml"
)

// parseYAML mirrors parseJSON for YAML input.
func parseYAML(data []byte, opt ParseOpt) ParseResult {
	var s Schema
	if err := yamlsrc.Unmarshal(data, &s); err != nil {
		return errResult(newDiagnostic(KindSyntax, yamlsrc.ErrorPosition(err), "invalid YAML: %s", yamlsrc.CleanMessage(err)))
	}
	if !opt.Strict {
		return okResult(s)
	}

	node, err := yamlsrc.DecodeNode(data)
	if err != nil {
		return errResult(newDiagnostic(KindSyntax, yamlsrc.ErrorPosition(err), "invalid YAML: %s", yamlsrc.CleanMessage(err)))
	}
	var ds Diagnostics
	for _, d := range yamlsrc.DuplicateKeys(node) {
		ds = append(ds, newDiagnostic(KindAttribute, textpos.Position{Line: d.Line, Column: d.Col}, "duplicate key %q (first defined at line %d)", d.Key, d.FirstLine))
	}
	tree, err := treeFromYAML(node)
	if err != nil {
		return errResult(newDiagnostic(KindSyntax, yamlsrc.ErrorPosition(err), "invalid YAML: %s", yamlsrc.CleanMessage(err)))
	}
	ds = append(ds, checkTree(tree)...)
	if len(ds) > 0 {
		return errResult(ds...)
	}
	return okResult(s)
}
