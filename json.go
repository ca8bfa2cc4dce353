package surveyschema

import jsonsrc "github.com/reoring/surveyschema/source/json"

// parseJSON decodes data as a Schema. A decode failure yields exactly one
// syntax diagnostic. Without Strict the decoded value is trusted as-is.
func parseJSON(data []byte, opt ParseOpt) ParseResult {
	var s Schema
	if err := jsonsrc.Unmarshal(data, &s); err != nil {
		return errResult(newDiagnostic(KindSyntax, jsonsrc.ErrorPosition(data, err), "invalid JSON: %s", jsonsrc.CleanMessage(err)))
	}
	if !opt.Strict {
		return okResult(s)
	}

	root, err := jsonsrc.DecodeNode(data)
	if err != nil {
		return errResult(newDiagnostic(KindSyntax, jsonsrc.ErrorPosition(data, err), "invalid JSON: %s", jsonsrc.CleanMessage(err)))
	}
	var ds Diagnostics
	for _, d := range jsonsrc.Duplicates(root) {
		ds = append(ds, newDiagnostic(KindAttribute, d.Pos, "duplicate key %q in object at %s", d.Key, d.Path))
	}
	ds = append(ds, checkTree(treeFromJSON(root))...)
	if len(ds) > 0 {
		return errResult(ds...)
	}
	return okResult(s)
}
