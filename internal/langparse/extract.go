package langparse

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/keel/internal/types"
)

// extractDefinitions runs cl's definition query over tree and builds one
// types.Definition per @function/@method match, following the teacher's
// extractBasicSymbolsStringRef loop: collect every ".name" capture in a
// match first, then dispatch on the match's primary capture name.
func extractDefinitions(cl *compiledLang, tree *tree_sitter.Tree, content []byte, path string) []types.Definition {
	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	matches := qc.Matches(cl.defQuery, tree.RootNode(), content)
	captureNames := cl.defQuery.CaptureNames()

	var defs []types.Definition
	for {
		match := matches.Next()
		if match == nil {
			break
		}

		names := make(map[string]string, 2)
		for _, c := range match.Captures {
			capName := captureNames[c.Index]
			if hasSuffix(capName, ".name") {
				names[capName] = nodeText(c.Node, content)
			}
		}

		for _, c := range match.Captures {
			capName := captureNames[c.Index]
			switch capName {
			case "function":
				if name, ok := names["function.name"]; ok {
					defs = append(defs, buildDefinition(cl, c.Node, content, name))
				}
			case "method":
				if name, ok := names["method.name"]; ok {
					defs = append(defs, buildDefinition(cl, c.Node, content, name))
				}
			}
		}
	}
	endpoints := scanEndpoints(content, defs)
	attachEndpoints(defs, endpoints)
	return defs
}

func buildDefinition(cl *compiledLang, node tree_sitter.Node, content []byte, name string) types.Definition {
	text := nodeText(node, content)
	signature, body := splitSignatureBody(text, cl.style)
	lineStart := int(node.StartPosition().Row) + 1
	lineEnd := int(node.EndPosition().Row) + 1

	docstring, _ := leadingDocComment(content, lineStart, cl.style, body)

	return types.Definition{
		Name:        name,
		Kind:        types.NodeKindFunction,
		Signature:   signature,
		Body:        body,
		LineStart:   lineStart,
		LineEnd:     lineEnd,
		Docstring:   docstring,
		IsPublic:    isPublic(name, signature, cl.style),
		TypeHintsOK: typeHintsOK(signature, docstring, cl.style),
	}
}

// extractReferences walks the whole tree looking for call-expression-like
// nodes, rather than a capture query, since callee extraction needs the
// "function"/"arguments" fields that differ in shape across grammars but
// share field names closely enough for one generic walk.
func extractReferences(cl *compiledLang, root tree_sitter.Node, content []byte, path string) []types.Reference {
	var refs []types.Reference
	var walk func(n tree_sitter.Node)
	walk = func(n tree_sitter.Node) {
		kind := n.Kind()
		for _, callKind := range cl.style.CallNodeKinds {
			if kind == callKind {
				if ref, ok := buildReference(n, content); ok {
					ref.File = path
					refs = append(refs, ref)
				}
				break
			}
		}
		count := n.ChildCount()
		for i := uint(0); i < count; i++ {
			child := n.Child(i)
			if child != nil {
				walk(*child)
			}
		}
	}
	walk(root)
	return refs
}

func buildReference(n tree_sitter.Node, content []byte) (types.Reference, bool) {
	callee := n.ChildByFieldName("function")
	if callee == nil {
		callee = n.ChildByFieldName("name")
	}
	if callee == nil {
		return types.Reference{}, false
	}
	name, receiver := calleeNameAndReceiver(*callee, content)
	if name == "" {
		return types.Reference{}, false
	}

	argCount := -1
	if args := n.ChildByFieldName("arguments"); args != nil {
		argCount = int(args.NamedChildCount())
	}

	return types.Reference{
		Name:     name,
		Line:     int(n.StartPosition().Row) + 1,
		Kind:     types.ReferenceKindCall,
		ArgCount: argCount,
		Receiver: receiver,
	}, true
}

// calleeNameAndReceiver strips a member-access callee ("obj.method") down
// to its trailing identifier plus the receiver expression text, which is
// enough for Tier 2 receiver-method resolution without a full type
// checker.
func calleeNameAndReceiver(n tree_sitter.Node, content []byte) (name string, receiver string) {
	switch n.Kind() {
	case "identifier", "field_identifier", "property_identifier", "name", "type_identifier":
		return nodeText(n, content), ""
	case "member_expression", "field_expression", "selector_expression", "scoped_identifier":
		if prop := n.ChildByFieldName("property"); prop != nil {
			return nodeText(*prop, content), receiverText(n, content)
		}
		if field := n.ChildByFieldName("field"); field != nil {
			return nodeText(*field, content), receiverText(n, content)
		}
	}
	// Fall back to the last named child, which is the common shape for
	// member-call variants this switch doesn't special-case (PHP's
	// member_call_expression, Java's method_invocation).
	if count := n.NamedChildCount(); count > 0 {
		if last := n.NamedChild(count - 1); last != nil {
			return nodeText(*last, content), receiverText(n, content)
		}
	}
	return "", ""
}

func receiverText(n tree_sitter.Node, content []byte) string {
	if obj := n.ChildByFieldName("object"); obj != nil {
		return nodeText(*obj, content)
	}
	if val := n.ChildByFieldName("value"); val != nil {
		return nodeText(*val, content)
	}
	return ""
}

func nodeText(n tree_sitter.Node, content []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if int(end) > len(content) || start > end {
		return ""
	}
	return string(content[start:end])
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
