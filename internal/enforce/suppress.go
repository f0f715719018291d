package enforce

import "fmt"

func suppressionSet(codes []string) map[string]bool {
	out := make(map[string]bool, len(codes))
	for _, c := range codes {
		out[c] = true
	}
	return out
}

// applySuppression rewrites any violation whose code is suppressed into
// S001/INFO, preserving the original code in the message and attaching
// a human-readable suppress hint (§4.6 suppression).
func applySuppression(vs []Violation, suppressed map[string]bool) []Violation {
	if len(suppressed) == 0 {
		return vs
	}
	out := make([]Violation, len(vs))
	for i, v := range vs {
		if suppressed[v.Code] {
			original := v.Code
			v.Message = fmt.Sprintf("[suppressed %s] %s", original, v.Message)
			v.Code = CodeSuppressed
			v.Severity = SeverityInfo
			v.Category = CategorySuppressed
			v.Suppressed = true
			v.SuppressHint = fmt.Sprintf("suppressed via --suppress %s; remove the flag to see this again", original)
		}
		out[i] = v
	}
	return out
}
