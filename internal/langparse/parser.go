package langparse

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/keel/internal/errkit"
	"github.com/standardbeagle/keel/internal/types"
)

type compiledLang struct {
	parser   *tree_sitter.Parser
	defQuery *tree_sitter.Query
	style    langStyle
	lang     string
}

// Registry holds one compiled parser+query per file extension. It is not
// safe for concurrent use by multiple goroutines against the same
// extension; the map engine's worker pool gives each worker its own
// Registry (see mapengine), the same isolation the teacher's parser pool
// gives each borrowed TreeSitterParser.
type Registry struct {
	byExt map[string]*compiledLang
}

// New compiles every registered grammar. A grammar whose binding fails
// to produce a usable query is skipped rather than treated as fatal,
// matching the teacher's defensive "query != nil" checks around the
// known tree-sitter Go binding quirk where NewQuery can return a typed
// nil error.
func New() *Registry {
	r := &Registry{byExt: make(map[string]*compiledLang)}
	for _, spec := range grammarSpecs {
		language := spec.language()
		parser := tree_sitter.NewParser()
		if err := parser.SetLanguage(language); err != nil {
			continue
		}
		query, _ := tree_sitter.NewQuery(language, spec.defQuery)
		if query == nil {
			continue
		}
		for _, ext := range spec.extensions {
			lang := languageForExtension[ext]
			cl := &compiledLang{parser: parser, defQuery: query, style: styles[lang], lang: lang}
			r.byExt[ext] = cl
		}
	}
	return r
}

// Supports reports whether ext has a compiled grammar.
func (r *Registry) Supports(ext string) bool {
	_, ok := r.byExt[ext]
	return ok
}

// ParseFile parses one file's content into definitions, references, and
// imports. The returned ParseResult always carries a single implicit
// module node: one file is one module per §4.2.
func (r *Registry) ParseFile(path string, content []byte) (result *types.ParseResult, err error) {
	ext := extOf(path)
	cl, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("langparse: unsupported extension %q", ext)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = &errkit.ParseFailureError{Language: cl.lang, File: path, Underlying: fmt.Errorf("panic: %v", rec)}
		}
	}()

	buf := make([]byte, len(content))
	copy(buf, content)

	tree := cl.parser.Parse(buf, nil)
	if tree == nil {
		return nil, &errkit.ParseFailureError{Language: cl.lang, File: path, Underlying: fmt.Errorf("tree-sitter returned no tree")}
	}
	defer tree.Close()

	defs := extractDefinitions(cl, tree, content, path)
	refs := extractReferences(cl, tree.RootNode(), content, path)
	imports := extractImports(cl.lang, content)
	typeDecls := extractTypeDecls(cl.lang, tree.RootNode(), content)

	if cl.lang == "go" {
		resolveGoReceiverTypes(tree.RootNode(), content, refs)
	}

	lineCount := strings.Count(string(content), "\n") + 1
	defs = append(defs, moduleDefinition(path, lineCount))

	return &types.ParseResult{
		Language:    cl.lang,
		File:        path,
		Content:     content,
		LineCount:   lineCount,
		Definitions: defs,
		References:  refs,
		Imports:     imports,
		Types:       typeDecls,
	}, nil
}

func extOf(path string) string {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(path[idx:])
}

// moduleDefinition builds the implicit per-file module node (§4.2): one
// module per file, named from the file stem, spanning the whole file.
func moduleDefinition(path string, lineCount int) types.Definition {
	base := path
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	stem := base
	if idx := strings.LastIndexByte(stem, '.'); idx > 0 {
		stem = stem[:idx]
	}
	return types.Definition{
		Name: stem,
		Kind: types.NodeKindModule,
		// Signature/Body feed the content hash (§4.1); a module has
		// neither, so the full path stands in for Body to keep two
		// same-stem modules in different directories from hashing
		// identically.
		Signature: stem,
		Body:      path,
		LineStart: 1,
		LineEnd:   lineCount,
		IsPublic:  true,
	}
}
