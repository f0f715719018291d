package langparse

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/keel/internal/types"
)

// extractTypeDecls builds the type-name -> structure records tier 2's
// structural resolution needs (§4.3: composition embedding, trait
// requirements, generic bounds). Implemented for Go, the language the
// existing receiver-narrowing machinery already targets; the remaining
// supported languages fall back to tier 2's flat exact-name/fuzzy match
// until their own struct/trait/embedding shapes get the same treatment
// (documented in DESIGN.md alongside Tier 1's per-language import-scope
// gaps, the same kind of staged rollout).
func extractTypeDecls(lang string, root tree_sitter.Node, content []byte) []types.TypeDecl {
	if lang != "go" {
		return nil
	}

	var decls []types.TypeDecl
	var walk func(n tree_sitter.Node)
	walk = func(n tree_sitter.Node) {
		if n.Kind() == "type_declaration" {
			decls = append(decls, goTypeSpecs(n, content)...)
		}
		count := n.ChildCount()
		for i := uint(0); i < count; i++ {
			if child := n.Child(i); child != nil {
				walk(*child)
			}
		}
	}
	walk(root)
	return decls
}

func goTypeSpecs(n tree_sitter.Node, content []byte) []types.TypeDecl {
	var out []types.TypeDecl
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		spec := n.NamedChild(i)
		if spec == nil || spec.Kind() != "type_spec" {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		typeNode := spec.ChildByFieldName("type")
		if nameNode == nil || typeNode == nil {
			continue
		}
		decl := types.TypeDecl{Name: nodeText(*nameNode, content)}
		if tparams := spec.ChildByFieldName("type_parameters"); tparams != nil {
			decl.TypeParams = goTypeParams(*tparams, content)
		}
		switch typeNode.Kind() {
		case "struct_type":
			decl.Embeds = goStructEmbeds(*typeNode, content)
		case "interface_type":
			decl.IsInterface = true
			decl.Methods, decl.Supertraits = goInterfaceElems(*typeNode, content)
		default:
			// A defined type over something other than a struct or
			// interface (an alias, a numeric type, a slice type) has
			// no method-set/embedding structure of its own to track.
			continue
		}
		out = append(out, decl)
	}
	return out
}

func goTypeParams(n tree_sitter.Node, content []byte) []types.TypeParam {
	var out []types.TypeParam
	bounds := make(map[string]string)
	collectTypeParamBounds(n, content, bounds)
	for name, bound := range bounds {
		out = append(out, types.TypeParam{Name: name, Bounds: []string{bound}})
	}
	return out
}

// goStructEmbeds collects a struct_type's embedded field type names: a
// field_declaration_list entry with no name field of its own, just a
// (possibly pointer) type reference.
func goStructEmbeds(n tree_sitter.Node, content []byte) []string {
	var out []string
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		fields := n.NamedChild(i)
		if fields == nil || fields.Kind() != "field_declaration_list" {
			continue
		}
		fc := fields.NamedChildCount()
		for j := uint(0); j < fc; j++ {
			field := fields.NamedChild(j)
			if field == nil {
				continue
			}
			switch field.Kind() {
			case "embedded_field":
				out = append(out, stripPointer(nodeText(*field, content)))
			case "field_declaration":
				// Some grammar versions represent an embedded field as
				// a field_declaration with a type but no name children
				// at all, rather than a dedicated embedded_field node.
				if typeNode := field.ChildByFieldName("type"); typeNode != nil && !hasIdentifierChild(*field) {
					out = append(out, stripPointer(nodeText(*typeNode, content)))
				}
			}
		}
	}
	return out
}

func hasIdentifierChild(n tree_sitter.Node) bool {
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		if nc := n.NamedChild(i); nc != nil && nc.Kind() == "field_identifier" {
			return true
		}
	}
	return false
}

// goInterfaceElems splits an interface_type's body into its own required
// method names and any embedded interface (supertrait) names.
func goInterfaceElems(n tree_sitter.Node, content []byte) (methods []string, supertraits []string) {
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		elem := n.NamedChild(i)
		if elem == nil {
			continue
		}
		switch elem.Kind() {
		case "method_elem":
			if nameNode := elem.ChildByFieldName("name"); nameNode != nil {
				methods = append(methods, nodeText(*nameNode, content))
			}
		case "type_identifier", "qualified_type", "generic_type":
			supertraits = append(supertraits, nodeText(*elem, content))
		}
	}
	return methods, supertraits
}
