package langparse

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// grammarSpec is everything the registry needs to compile one language's
// parser and definition-capture query, mirroring a single setupX method
// from the teacher's parser_language_setup.go.
type grammarSpec struct {
	extensions []string
	language   func() *tree_sitter.Language
	defQuery   string
}

// defQuery capture conventions, kept across all languages: a definition
// node is captured as @function or @method, with its identifier captured
// as @function.name / @method.name in the same pattern. A module-level
// import statement is captured as @import without needing its internals
// broken out, since imports.go re-parses that line with a regex anyway.
var grammarSpecs = []grammarSpec{
	{
		extensions: []string{".go"},
		language:   func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_go.Language()) },
		defQuery: `
			(function_declaration name: (identifier) @function.name) @function
			(method_declaration name: (field_identifier) @method.name) @method
			(import_spec) @import
		`,
	},
	{
		extensions: []string{".py"},
		language:   func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_python.Language()) },
		defQuery: `
			(class_definition
				body: (block
					(function_definition name: (identifier) @method.name) @method))
			(function_definition name: (identifier) @function.name) @function
			(import_statement) @import
			(import_from_statement) @import
		`,
	},
	{
		extensions: []string{".js", ".jsx"},
		language:   func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_javascript.Language()) },
		defQuery: `
			(function_declaration name: (identifier) @function.name) @function
			(generator_function_declaration name: (identifier) @function.name) @function
			(variable_declarator
				name: (identifier) @function.name
				value: [(arrow_function) (function_expression) (generator_function)]) @function
			(method_definition name: (property_identifier) @method.name) @method
			(import_statement) @import
		`,
	},
	{
		extensions: []string{".ts", ".tsx"},
		language:   func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()) },
		defQuery: `
			(function_declaration name: (identifier) @function.name) @function
			(generator_function_declaration name: (identifier) @function.name) @function
			(method_definition name: (property_identifier) @method.name) @method
			(function_expression name: (identifier) @function.name) @function
			(import_statement) @import
		`,
	},
	{
		extensions: []string{".rs"},
		language:   func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_rust.Language()) },
		defQuery: `
			(impl_item
				body: (declaration_list
					(function_item name: (identifier) @method.name) @method))
			(function_item name: (identifier) @function.name) @function
			(use_declaration) @import
		`,
	},
	{
		extensions: []string{".java"},
		language:   func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_java.Language()) },
		defQuery: `
			(method_declaration name: (identifier) @method.name) @method
			(constructor_declaration name: (identifier) @method.name) @method
			(import_declaration) @import
		`,
	},
	{
		extensions: []string{".cs"},
		language:   func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_csharp.Language()) },
		defQuery: `
			(method_declaration name: (identifier) @method.name) @method
			(constructor_declaration name: (identifier) @method.name) @method
			(using_directive) @import
		`,
	},
	{
		extensions: []string{".php"},
		language:   func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP()) },
		defQuery: `
			(method_declaration name: (name) @method.name) @method
			(function_definition name: (name) @function.name) @function
			(namespace_use_declaration) @import
		`,
	},
	{
		extensions: []string{".cpp", ".cc", ".cxx", ".c", ".h", ".hpp"},
		language:   func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_cpp.Language()) },
		defQuery: `
			(function_definition declarator: (function_declarator declarator: (identifier) @function.name)) @function
			(function_definition declarator: (function_declarator declarator: (field_identifier) @method.name)) @method
			(preproc_include) @import
		`,
	},
	{
		extensions: []string{".zig"},
		language:   func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_zig.Language()) },
		defQuery: `
			(function_declaration name: (identifier) @function.name) @function
		`,
	},
}

// languageForExtension maps an extension back to the walk-package
// language tag, so the registry and the walker agree on naming.
var languageForExtension = map[string]string{
	".go": "go", ".py": "python",
	".js": "javascript", ".jsx": "javascript",
	".ts": "typescript", ".tsx": "typescript",
	".rs": "rust", ".java": "java", ".cs": "csharp", ".php": "php",
	".cpp": "cpp", ".cc": "cpp", ".cxx": "cpp", ".c": "cpp", ".h": "cpp", ".hpp": "cpp",
	".zig": "zig",
}
