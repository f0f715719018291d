package langparse

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/keel/internal/types"
)

// goFuncNodeKinds are the tree-sitter-go node kinds that open a fresh
// local-variable scope for receiver-type resolution: top-level
// functions, methods, and function literals (closures get their own
// scope rather than inheriting the enclosing one, since a shadowed
// parameter name is common and would otherwise resolve wrong).
var goFuncNodeKinds = map[string]bool{
	"function_declaration": true,
	"method_declaration":   true,
	"func_literal":         true,
}

// goScope is one function/method/closure body's local bindings: plain
// variable -> declared type, and generic type parameter -> bound
// trait/interface name.
type goScope struct {
	startLine  int
	endLine    int
	vars       map[string]string
	typeParams map[string]string
}

// resolveGoReceiverTypes rewrites each Go call reference's Receiver
// field from a raw call-site expression ("c" in "c.Area()") to its
// declared static type ("Circle"), using only same-file local variable,
// parameter, and receiver declarations (§4.3 Tier 2's "receiver.method()"
// lookup needs a type name, not a variable name, to consult the method
// set). When the variable's declared type is itself a generic type
// parameter bound by a trait ("func Foo[T Shape](t T)"), the reference
// resolves through to the trait name instead, flagged via
// ReceiverViaGenericBound so tier 2 treats it as trait satisfaction
// rather than a direct method-set lookup.
//
// A reference whose receiver can't be resolved this way (a field
// access, a chained call, a package-scope var) is cleared rather than
// left as the raw variable-name text: comparing a variable name against
// a declared type name would produce a false negative on essentially
// every call, which is worse than falling back to the flat tier 2
// match.
func resolveGoReceiverTypes(root tree_sitter.Node, content []byte, refs []types.Reference) {
	scopes := collectGoScopes(root, content)
	for i := range refs {
		if refs[i].Kind != types.ReferenceKindCall || refs[i].Receiver == "" {
			continue
		}
		name := refs[i].Receiver
		refs[i].Receiver = ""
		if !isSimpleIdent(name) {
			continue
		}

		for _, sc := range scopes {
			if refs[i].Line < sc.startLine || refs[i].Line > sc.endLine {
				continue
			}
			typ, ok := sc.vars[name]
			if !ok {
				continue
			}
			if bound, isParam := sc.typeParams[typ]; isParam {
				refs[i].Receiver = bound
				refs[i].ReceiverViaGenericBound = true
			} else {
				refs[i].Receiver = typ
			}
		}
	}
}

func isSimpleIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func collectGoScopes(root tree_sitter.Node, content []byte) []goScope {
	var scopes []goScope
	var walk func(n tree_sitter.Node)
	walk = func(n tree_sitter.Node) {
		if goFuncNodeKinds[n.Kind()] {
			scopes = append(scopes, buildGoScope(n, content))
		}
		count := n.ChildCount()
		for i := uint(0); i < count; i++ {
			if child := n.Child(i); child != nil {
				walk(*child)
			}
		}
	}
	walk(root)
	return scopes
}

func buildGoScope(n tree_sitter.Node, content []byte) goScope {
	sc := goScope{
		startLine:  int(n.StartPosition().Row) + 1,
		endLine:    int(n.EndPosition().Row) + 1,
		vars:       make(map[string]string),
		typeParams: make(map[string]string),
	}

	if recv := n.ChildByFieldName("receiver"); recv != nil {
		collectParamTypes(*recv, content, sc.vars)
	}
	if tparams := n.ChildByFieldName("type_parameters"); tparams != nil {
		collectTypeParamBounds(*tparams, content, sc.typeParams)
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		collectParamTypes(*params, content, sc.vars)
	}
	if body := n.ChildByFieldName("body"); body != nil {
		collectGoLocalDecls(*body, content, sc.vars)
	}
	return sc
}

// collectParamTypes walks a parameter_list/receiver's
// parameter_declaration children, binding each named parameter to its
// (pointer-stripped) declared type text.
func collectParamTypes(n tree_sitter.Node, content []byte, out map[string]string) {
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || child.Kind() != "parameter_declaration" {
			continue
		}
		typeNode := child.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		typeName := stripPointer(nodeText(*typeNode, content))
		bindIdentifierNames(*child, content, out, typeName)
	}
}

// collectTypeParamBounds walks a type_parameter_list's
// type_parameter_declaration children, binding each type parameter name
// to its constraint's text (skipping the built-in "any"/"comparable"
// constraints, which no declared type can ever satisfy a lookup for).
func collectTypeParamBounds(n tree_sitter.Node, content []byte, out map[string]string) {
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || child.Kind() != "type_parameter_declaration" {
			continue
		}
		constraintNode := child.ChildByFieldName("constraint")
		if constraintNode == nil {
			continue
		}
		constraint := nodeText(*constraintNode, content)
		if constraint == "any" || constraint == "comparable" {
			continue
		}
		bindIdentifierNames(*child, content, out, constraint)
	}
}

// bindIdentifierNames binds every plain "identifier" named child of n to
// value, the shape both parameter_declaration ("name, name2 Type") and
// type_parameter_declaration ("T, U Constraint") share: one or more
// comma-separated name identifiers followed by a single type/constraint
// node with a different node kind.
func bindIdentifierNames(n tree_sitter.Node, content []byte, out map[string]string, value string) {
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		nc := n.NamedChild(i)
		if nc == nil || nc.Kind() != "identifier" {
			continue
		}
		out[nodeText(*nc, content)] = value
	}
}

// collectGoLocalDecls walks a function body (not descending into nested
// func_literal scopes, which get their own goScope via collectGoScopes)
// for var declarations and short variable declarations, binding each
// declared name to its type where the type is syntactically explicit.
func collectGoLocalDecls(n tree_sitter.Node, content []byte, out map[string]string) {
	var walk func(n tree_sitter.Node)
	walk = func(n tree_sitter.Node) {
		switch n.Kind() {
		case "func_literal":
			return
		case "var_declaration":
			collectVarSpecs(n, content, out)
		case "short_var_declaration":
			collectShortVarDecl(n, content, out)
		}
		count := n.ChildCount()
		for i := uint(0); i < count; i++ {
			if child := n.Child(i); child != nil {
				walk(*child)
			}
		}
	}
	walk(n)
}

func collectVarSpecs(n tree_sitter.Node, content []byte, out map[string]string) {
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		spec := n.NamedChild(i)
		if spec == nil || spec.Kind() != "var_spec" {
			continue
		}
		typeNode := spec.ChildByFieldName("type")
		if typeNode == nil {
			continue
		}
		typeName := stripPointer(nodeText(*typeNode, content))
		bindIdentifierNames(*spec, content, out, typeName)
	}
}

// collectShortVarDecl handles "c := Circle{}" and "c := &Circle{}": the
// right-hand side's composite literal type is the only inferred-type
// shape this tracks without a real type checker: a call's return type
// ("c := NewCircle()") is left unresolved.
func collectShortVarDecl(n tree_sitter.Node, content []byte, out map[string]string) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil {
		return
	}
	names := expressionListIdentifiers(*left, content)
	values := expressionListNodes(*right)
	if len(names) == 0 || len(names) != len(values) {
		return
	}
	for i, name := range names {
		if typ := compositeLiteralType(values[i], content); typ != "" {
			out[name] = typ
		}
	}
}

func expressionListIdentifiers(n tree_sitter.Node, content []byte) []string {
	if n.Kind() == "identifier" {
		return []string{nodeText(n, content)}
	}
	var out []string
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		if nc := n.NamedChild(i); nc != nil && nc.Kind() == "identifier" {
			out = append(out, nodeText(*nc, content))
		}
	}
	return out
}

func expressionListNodes(n tree_sitter.Node) []tree_sitter.Node {
	if n.Kind() != "expression_list" {
		return []tree_sitter.Node{n}
	}
	var out []tree_sitter.Node
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		if nc := n.NamedChild(i); nc != nil {
			out = append(out, *nc)
		}
	}
	return out
}

// compositeLiteralType extracts "Circle" from either "Circle{}" directly
// or the "&Circle{}" pointer form one level up.
func compositeLiteralType(n tree_sitter.Node, content []byte) string {
	if n.Kind() == "unary_expression" {
		if operand := n.ChildByFieldName("operand"); operand != nil {
			return compositeLiteralType(*operand, content)
		}
		return ""
	}
	if n.Kind() != "composite_literal" {
		return ""
	}
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return ""
	}
	return nodeText(*typeNode, content)
}

func stripPointer(s string) string {
	if len(s) > 0 && s[0] == '*' {
		return s[1:]
	}
	return s
}
