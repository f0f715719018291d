// Package walk discovers the source files a map or compile operation
// should consider: a filesystem walk from the project root, honoring an
// ignore list of glob patterns (version control metadata, dependency
// directories, build outputs) and a set of supported source-language
// extensions (§4.5 step 1). Glob matching is delegated to doublestar,
// the same matcher the teacher's ignore-pattern code uses, since Go's
// stdlib filepath.Match does not support "**".
package walk

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIgnorePatterns mirrors the teacher's baseline exclusion list,
// trimmed to the categories §4.5 step 1 requires at minimum: VCS
// metadata, dependency directories, and build outputs.
var DefaultIgnorePatterns = []string{
	"**/.git/**",
	"**/.keel/**",
	"**/node_modules/**",
	"**/vendor/**",
	"**/bower_components/**",
	"**/dist/**",
	"**/build/**",
	"**/out/**",
	"**/target/**",
	"**/bin/**",
	"**/obj/**",
	"**/__pycache__/**",
	"**/*.pyc",
}

// LanguageExtensions maps a supported source language tag to the file
// extensions the parser front end accepts for it.
var LanguageExtensions = map[string][]string{
	"go":         {".go"},
	"python":     {".py"},
	"javascript": {".js", ".jsx"},
	"typescript": {".ts", ".tsx"},
	"rust":       {".rs"},
	"java":       {".java"},
	"csharp":     {".cs"},
	"php":        {".php"},
	"cpp":        {".cpp", ".cc", ".cxx", ".hpp", ".h", ".c"},
	"zig":        {".zig"},
}

// IgnoreSet matches repository-relative paths against a list of glob
// patterns.
type IgnoreSet struct {
	patterns []string
}

// NewIgnoreSet builds an IgnoreSet from the default patterns plus any
// project-specific additions.
func NewIgnoreSet(extra []string) *IgnoreSet {
	patterns := make([]string, 0, len(DefaultIgnorePatterns)+len(extra))
	patterns = append(patterns, DefaultIgnorePatterns...)
	patterns = append(patterns, extra...)
	return &IgnoreSet{patterns: patterns}
}

// Matches reports whether relPath (forward-slash, repository-relative)
// should be excluded.
func (s *IgnoreSet) Matches(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, p := range s.patterns {
		if ok, _ := doublestar.Match(p, relPath); ok {
			return true
		}
	}
	return false
}

// extensionLanguage inverts LanguageExtensions for fast lookup.
func extensionLanguage(languages []string) map[string]string {
	allowed := make(map[string]bool, len(languages))
	for _, l := range languages {
		allowed[l] = true
	}
	out := make(map[string]string)
	for lang, exts := range LanguageExtensions {
		if len(languages) > 0 && !allowed[lang] {
			continue
		}
		for _, ext := range exts {
			out[ext] = lang
		}
	}
	return out
}

// File is one discovered source file, paired with its detected language.
type File struct {
	Path     string // repository-relative, forward-slash
	Abs      string
	Language string
}

// Walk discovers files under root whose extension maps to one of
// languages (empty means "all supported languages"), skipping anything
// the ignore set matches.
func Walk(root string, languages []string, ignore *IgnoreSet) ([]File, error) {
	extToLang := extensionLanguage(languages)
	var files []File

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				return nil
			}
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if ignore.Matches(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if ignore.Matches(rel) {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		lang, ok := extToLang[ext]
		if !ok {
			return nil
		}
		files = append(files, File{Path: rel, Abs: path, Language: lang})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
