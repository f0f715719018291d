package enforce

import "strings"

// paramCount returns the number of parameters in a signature string, or
// -1 if the signature's parameter list isn't parseable (no balanced
// parens found). It is a best-effort lexical count — brace/bracket
// depth is tracked so a generic type argument or a parameter's own
// function-type annotation doesn't get mistaken for a top-level comma
// (§4.6 E005: "both sides parseable").
func paramCount(signature string) int {
	open := strings.IndexByte(signature, '(')
	if open < 0 {
		return -1
	}
	// A Go method signature opens with its receiver list
	// ("func (c *T) Name(...)"); the parameter list is the next group.
	if strings.TrimSpace(signature[:open]) == "func" {
		if rc := strings.IndexByte(signature[open:], ')'); rc >= 0 {
			if next := strings.IndexByte(signature[open+rc+1:], '('); next >= 0 {
				open += rc + 1 + next
			}
		}
	}
	depth := 0
	start := -1
	end := -1
	for i := open; i < len(signature); i++ {
		switch signature[i] {
		case '(', '[', '{', '<':
			if signature[i] == '(' && depth == 0 {
				start = i
			}
			depth++
		case ')', ']', '}', '>':
			depth--
			if signature[i] == ')' && depth == 0 {
				end = i
				goto done
			}
		}
	}
done:
	if start < 0 || end < 0 || end <= start {
		return -1
	}
	inner := strings.TrimSpace(signature[start+1 : end])
	if inner == "" {
		return 0
	}
	count := 1
	depth = 0
	for _, r := range inner {
		switch r {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			depth--
		case ',':
			if depth == 0 {
				count++
			}
		}
	}
	return count
}

// argCountMatches reports whether a call's argument count is compatible
// with a target definition's declared parameter count. Either side
// being unparseable (-1) means "don't know" — E005 only fires when both
// sides are known and disagree.
func argCountMatches(callArgCount, paramN int) bool {
	if callArgCount < 0 || paramN < 0 {
		return true
	}
	return callArgCount == paramN
}
