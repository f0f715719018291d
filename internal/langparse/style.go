// Package langparse turns source text into types.ParseResult values: one
// module node's worth of definitions, references, and imports per file.
// Definitions and calls come from tree-sitter grammars and capture
// queries, one compiled parser+query pair per extension, following the
// teacher's per-extension TreeSitterParser.setupX layout. Imports are
// pulled with plain regexes instead, the same division of labor the
// teacher's ImportResolver uses, since an import line rarely needs a
// full parse to recover its source path.
package langparse

// bodyDelim describes how a language's grammar separates a definition's
// signature from its body in source text.
type bodyDelim int

const (
	delimBrace bodyDelim = iota // signature ends at the first top-level '{'
	delimColon                  // signature ends at the first top-level ':' (Python)
)

// typeDiscipline classifies a language for the type-hint enrichment rule
// (closing the "inconsistent-annotation" open question: typed languages
// are always considered annotated, dynamically-typed languages require
// an explicit annotation on both parameters and return, found either in
// the signature itself or in a recognized doc-comment tag).
type typeDiscipline int

const (
	disciplineStaticallyTyped typeDiscipline = iota
	disciplineDynamicAnnotatable
)

// langStyle carries the per-language text heuristics extract.go and
// heuristics.go need once a definition's raw node text has been sliced
// out of the file content.
type langStyle struct {
	Delim          bodyDelim
	Discipline     typeDiscipline
	CommentPrefix  []string // line-comment prefixes recognized above a definition
	BlockCommentOn [2]string
	PublicKeyword  string // "pub", "public"; empty means name-casing/underscore heuristic
	CallNodeKinds  []string
}

var styles = map[string]langStyle{
	"go":         {Delim: delimBrace, Discipline: disciplineStaticallyTyped, CommentPrefix: []string{"//"}, CallNodeKinds: []string{"call_expression"}},
	"python":     {Delim: delimColon, Discipline: disciplineDynamicAnnotatable, CommentPrefix: []string{"#"}, CallNodeKinds: []string{"call"}},
	"javascript": {Delim: delimBrace, Discipline: disciplineDynamicAnnotatable, CommentPrefix: []string{"//"}, BlockCommentOn: [2]string{"/**", "*/"}, CallNodeKinds: []string{"call_expression", "new_expression"}},
	"typescript": {Delim: delimBrace, Discipline: disciplineStaticallyTyped, CommentPrefix: []string{"//"}, BlockCommentOn: [2]string{"/**", "*/"}, CallNodeKinds: []string{"call_expression", "new_expression"}},
	"rust":       {Delim: delimBrace, Discipline: disciplineStaticallyTyped, CommentPrefix: []string{"///", "//"}, PublicKeyword: "pub", CallNodeKinds: []string{"call_expression"}},
	"java":       {Delim: delimBrace, Discipline: disciplineStaticallyTyped, CommentPrefix: []string{"//"}, BlockCommentOn: [2]string{"/**", "*/"}, PublicKeyword: "public", CallNodeKinds: []string{"method_invocation", "object_creation_expression"}},
	"csharp":     {Delim: delimBrace, Discipline: disciplineStaticallyTyped, CommentPrefix: []string{"//"}, BlockCommentOn: [2]string{"/**", "*/"}, PublicKeyword: "public", CallNodeKinds: []string{"invocation_expression", "object_creation_expression"}},
	"php":        {Delim: delimBrace, Discipline: disciplineDynamicAnnotatable, CommentPrefix: []string{"//", "#"}, BlockCommentOn: [2]string{"/**", "*/"}, PublicKeyword: "public", CallNodeKinds: []string{"function_call_expression", "member_call_expression", "scoped_call_expression"}},
	"cpp":        {Delim: delimBrace, Discipline: disciplineStaticallyTyped, CommentPrefix: []string{"//"}, BlockCommentOn: [2]string{"/**", "*/"}, CallNodeKinds: []string{"call_expression"}},
	"zig":        {Delim: delimBrace, Discipline: disciplineStaticallyTyped, CommentPrefix: []string{"//", "///"}, PublicKeyword: "pub", CallNodeKinds: []string{"call_expression"}},
}
