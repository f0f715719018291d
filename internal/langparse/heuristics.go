package langparse

import (
	"strings"
	"unicode"
)

// splitSignatureBody finds where a definition's signature ends and its
// body begins. Brace languages split at the first '{' outside any
// parameter-list parentheses; Python splits at the first top-level ':'.
// An arrow/expression body with no brace at all (a bare JS arrow
// function) falls back to treating the whole text as signature with an
// empty body, which keeps hashing stable rather than guessing.
func splitSignatureBody(text string, style langStyle) (signature, body string) {
	depth := 0
	for i, r := range text {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case '{':
			if depth == 0 && style.Delim == delimBrace {
				return text[:i], text[i:]
			}
		case ':':
			if depth == 0 && style.Delim == delimColon {
				return text[:i+1], text[i+1:]
			}
		}
	}
	return text, ""
}

// isPublic decides export/visibility. Languages with an explicit
// public/pub keyword check the signature text for it; everything else
// falls back to the Go/Python convention of leading-underscore or
// lowercase-first-letter meaning unexported.
func isPublic(name, signature string, style langStyle) bool {
	if style.PublicKeyword != "" {
		return containsWord(signature, style.PublicKeyword)
	}
	if containsWord(signature, "private") || containsWord(signature, "protected") {
		return false
	}
	if name == "" {
		return false
	}
	if strings.HasPrefix(name, "_") {
		return false
	}
	if style.Discipline == disciplineDynamicAnnotatable {
		// Python/JS/PHP have no case-based visibility: a leading
		// underscore is the only export signal the grammar gives us.
		return true
	}
	// Go-family case convention: an exported identifier starts uppercase.
	r := []rune(name)[0]
	return !unicode.IsLetter(r) || unicode.IsUpper(r)
}

func containsWord(haystack, word string) bool {
	idx := strings.Index(haystack, word)
	if idx < 0 {
		return false
	}
	before := idx == 0 || !isIdentByte(haystack[idx-1])
	after := idx+len(word) >= len(haystack) || !isIdentByte(haystack[idx+len(word)])
	return before && after
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// typeHintsOK implements the §4.2 enrichment rule: statically typed
// languages are always considered annotated (the grammar enforces it);
// dynamically typed languages need an explicit annotation on both
// parameters and return, found in the signature itself (": Type" /
// "-> Type" style) or in a recognized doc-comment tag (@param/@return,
// Python ":type"/":rtype:", PHPDoc @param/@return).
func typeHintsOK(signature, docstring string, style langStyle) bool {
	if style.Discipline == disciplineStaticallyTyped {
		return true
	}
	params := ""
	if open, close := strings.Index(signature, "("), strings.Index(signature, ")"); open >= 0 && close > open {
		params = signature[open+1 : close]
	}
	hasParamHint := isBareColonEmptyParams(signature) || strings.Contains(params, ":")
	hasReturnHint := strings.Contains(signature, "->") || strings.Contains(signature, "): ")
	if hasParamHint && hasReturnHint {
		return true
	}
	doc := strings.ToLower(docstring)
	hasDocParam := strings.Contains(doc, "@param") || strings.Contains(doc, ":type") || strings.Contains(doc, ":param")
	hasDocReturn := strings.Contains(doc, "@return") || strings.Contains(doc, ":rtype:") || strings.Contains(doc, ":return")
	return hasDocParam && hasDocReturn
}

func isBareColonEmptyParams(signature string) bool {
	open := strings.Index(signature, "(")
	close := strings.Index(signature, ")")
	if open < 0 || close < 0 || close <= open {
		return false
	}
	return strings.TrimSpace(signature[open+1:close]) == ""
}

// leadingDocComment walks upward from a definition's first source line
// collecting a contiguous run of comment lines directly above it (a
// block comment, or consecutive line comments), or, for Python, reads
// the first statement of the body if it is a triple-quoted string.
func leadingDocComment(content []byte, lineStart int, style langStyle, body string) (docstring string, has bool) {
	if style.Delim == delimColon {
		trimmed := strings.TrimLeft(body, " \t\r\n")
		if strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "'''") {
			quote := trimmed[:3]
			rest := trimmed[3:]
			if end := strings.Index(rest, quote); end >= 0 {
				return strings.TrimSpace(rest[:end]), true
			}
		}
		return "", false
	}

	lines := strings.Split(string(content), "\n")
	idx := lineStart - 2 // zero-based index of the line above the definition
	var collected []string
	for idx >= 0 {
		line := strings.TrimSpace(lines[idx])
		if line == "" {
			break
		}
		matched := false
		for _, p := range style.CommentPrefix {
			if strings.HasPrefix(line, p) {
				collected = append([]string{strings.TrimSpace(strings.TrimPrefix(line, p))}, collected...)
				matched = true
				break
			}
		}
		if !matched && style.BlockCommentOn[1] != "" && strings.Contains(line, style.BlockCommentOn[1]) {
			collected = append([]string{line}, collected...)
			idx--
			for idx >= 0 {
				blockLine := strings.TrimSpace(lines[idx])
				collected = append([]string{blockLine}, collected...)
				if strings.Contains(blockLine, style.BlockCommentOn[0]) {
					idx--
					break
				}
				idx--
			}
			matched = true
		}
		if !matched {
			break
		}
		idx--
	}
	if len(collected) == 0 {
		return "", false
	}
	return strings.TrimSpace(strings.Join(collected, "\n")), true
}
