package langparse

import (
	"regexp"
	"strings"
	"sync"

	"github.com/standardbeagle/keel/internal/types"
)

// importRegexes follows the teacher's ImportResolver: regex extraction
// over raw source text rather than tree-walking, since an import
// statement's shape is regular enough that a full parse buys nothing.
var (
	importRegexesOnce sync.Once
	importRegexes     map[string][]*regexp.Regexp
)

func compileImportRegexes() {
	importRegexes = map[string][]*regexp.Regexp{
		"go": {
			regexp.MustCompile(`import\s+(\w+)?\s*"([^"]+)"`),
			regexp.MustCompile(`(?s)import\s*\(\s*([^)]+)\s*\)`),
		},
		"python": {
			regexp.MustCompile(`^from\s+(\S+)\s+import\s+(.+)$`),
			regexp.MustCompile(`^import\s+(\S+)(?:\s+as\s+(\w+))?$`),
		},
		"javascript": {
			regexp.MustCompile(`import\s+\{([^}]+)\}\s+from\s+['"]([^'"]+)['"]`),
			regexp.MustCompile(`import\s+(\w+)\s+from\s+['"]([^'"]+)['"]`),
			regexp.MustCompile(`import\s+\*\s+as\s+(\w+)\s+from\s+['"]([^'"]+)['"]`),
			regexp.MustCompile(`require\(['"]([^'"]+)['"]\)`),
		},
		"rust": {
			regexp.MustCompile(`^use\s+([^;]+);`),
		},
		"java": {
			regexp.MustCompile(`^import\s+(static\s+)?([\w.]+)(\.\*)?;`),
		},
		"csharp": {
			regexp.MustCompile(`^using\s+(static\s+)?([\w.]+)\s*;`),
		},
		"php": {
			regexp.MustCompile(`^use\s+([\w\\]+)(?:\s+as\s+(\w+))?;`),
		},
		"cpp": {
			regexp.MustCompile(`^#include\s*[<"]([^>"]+)[>"]`),
		},
		"zig": {
			regexp.MustCompile(`@import\(\s*"([^"]+)"\s*\)`),
		},
	}
	importRegexes["typescript"] = importRegexes["javascript"]
}

// extractImports scans file content line by line, applying the language's
// regexes to the whole line (most import statements are single-line;
// Go's parenthesized block is matched against the full text instead).
func extractImports(lang string, content []byte) []types.Import {
	importRegexesOnce.Do(compileImportRegexes)
	regexes := importRegexes[lang]
	if len(regexes) == 0 {
		return nil
	}

	var imports []types.Import
	full := string(content)

	if lang == "go" {
		if m := regexes[1].FindStringSubmatch(full); m != nil {
			imports = append(imports, parseGoImportBlock(m[1])...)
		}
	}

	lines := strings.Split(full, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if lang == "go" {
			if m := regexes[0].FindStringSubmatch(trimmed); m != nil {
				names := []string{}
				if m[1] != "" {
					names = []string{m[1]}
				}
				imports = append(imports, types.Import{Source: m[2], Names: names, IsBlank: m[1] == types.BlankMarker, IsDot: m[1] == types.DotMarker, Line: i + 1})
			}
			continue
		}
		for _, re := range regexes {
			m := re.FindStringSubmatch(trimmed)
			if m == nil {
				continue
			}
			if imp, ok := buildImport(lang, re, m, i+1, trimmed); ok {
				imports = append(imports, imp)
				break
			}
		}
	}
	return imports
}

func parseGoImportBlock(block string) []types.Import {
	var out []types.Import
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.Trim(line, `"`)
		parts := strings.Fields(line)
		var alias, path string
		switch len(parts) {
		case 1:
			path = strings.Trim(parts[0], `"`)
		case 2:
			alias = parts[0]
			path = strings.Trim(parts[1], `"`)
		default:
			continue
		}
		imp := types.Import{Source: path}
		switch alias {
		case types.BlankMarker:
			imp.IsBlank = true
		case types.DotMarker:
			imp.IsDot = true
		case "":
		default:
			imp.Names = []string{alias}
		}
		out = append(out, imp)
	}
	return out
}

func buildImport(lang string, re *regexp.Regexp, m []string, line int, raw string) (types.Import, bool) {
	switch lang {
	case "python":
		if strings.HasPrefix(raw, "from") {
			names := splitNames(m[2])
			wildcard := len(names) == 1 && names[0] == types.WildcardMarker
			return types.Import{Source: m[1], Names: names, IsWildcard: wildcard, IsRelative: strings.HasPrefix(m[1], "."), Line: line}, true
		}
		alias := ""
		if len(m) > 2 {
			alias = m[2]
		}
		names := []string{}
		if alias != "" {
			names = []string{alias}
		}
		return types.Import{Source: m[1], Names: names, Line: line}, true
	case "javascript", "typescript":
		if strings.Contains(re.String(), "require") {
			return types.Import{Source: m[1], Line: line}, true
		}
		if strings.Contains(re.String(), `\{`) {
			return types.Import{Source: m[2], Names: splitNames(m[1]), Line: line}, true
		}
		if strings.Contains(re.String(), `\*`) {
			return types.Import{Source: m[2], Names: []string{m[1]}, IsWildcard: true, Line: line}, true
		}
		return types.Import{Source: m[2], Names: []string{m[1]}, Line: line}, true
	case "rust":
		path := strings.TrimSpace(m[1])
		wildcard := strings.HasSuffix(path, "::*")
		return types.Import{Source: strings.TrimSuffix(path, "::*"), IsWildcard: wildcard, Line: line}, true
	case "java":
		wildcard := m[3] != ""
		return types.Import{Source: strings.TrimSuffix(m[2], ".*"), IsWildcard: wildcard, Line: line}, true
	case "csharp":
		return types.Import{Source: m[2], Line: line}, true
	case "php":
		names := []string{}
		if len(m) > 2 && m[2] != "" {
			names = []string{m[2]}
		}
		return types.Import{Source: m[1], Names: names, Line: line}, true
	case "cpp":
		return types.Import{Source: m[1], IsRelative: strings.Contains(raw, `"`), Line: line}, true
	case "zig":
		return types.Import{Source: m[1], IsRelative: strings.HasPrefix(m[1], "."), Line: line}, true
	}
	return types.Import{}, false
}

func splitNames(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if idx := strings.Index(p, " as "); idx >= 0 {
			p = strings.TrimSpace(p[idx+4:])
		}
		if p == "*" {
			p = types.WildcardMarker
		}
		out = append(out, p)
	}
	return out
}
