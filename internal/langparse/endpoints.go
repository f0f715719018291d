package langparse

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/keel/internal/types"
)

// endpointPatterns recognizes the handful of routing call shapes common
// across the pack's server examples (net/http-style method+path calls,
// Express/Flask-style decorator or method calls). A miss here just means
// no external-endpoint annotation on that definition; it never blocks
// parsing.
var endpointPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\.(?:HandleFunc|Handle)\(\s*"([^"]+)"`),
	regexp.MustCompile(`(?i)\b(?:Get|Post|Put|Delete|Patch)\(\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`@(?:app|router|bp)\.route\(\s*['"]([^'"]+)['"](?:.*methods\s*=\s*\[([^\]]*)\])?`),
	regexp.MustCompile(`@(?:Get|Post|Put|Delete|Patch)Mapping\(\s*(?:value\s*=\s*)?"([^"]+)"`),
}

type rawEndpoint struct {
	line   int
	method string
	path   string
}

// scanEndpoints finds routing calls anywhere in a file's content and
// returns them tagged with their source line; attachEndpoints then
// assigns each one to whichever definition's line range contains it.
func scanEndpoints(content []byte, defs []types.Definition) []rawEndpoint {
	lines := strings.Split(string(content), "\n")
	var found []rawEndpoint
	for i, line := range lines {
		for _, re := range endpointPatterns {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			method := methodFromCall(line)
			found = append(found, rawEndpoint{line: i + 1, method: method, path: m[1]})
		}
	}
	return found
}

func methodFromCall(line string) string {
	lower := strings.ToLower(line)
	for _, m := range []string{"get", "post", "put", "delete", "patch"} {
		if strings.Contains(lower, "."+m+"(") || strings.Contains(lower, m+"mapping") {
			return strings.ToUpper(m)
		}
	}
	if strings.Contains(lower, "handlefunc") || strings.Contains(lower, "handle(") || strings.Contains(lower, ".route(") {
		return "GET"
	}
	return "GET"
}

func attachEndpoints(defs []types.Definition, found []rawEndpoint) {
	for _, ep := range found {
		for i := range defs {
			if ep.line >= defs[i].LineStart && ep.line <= defs[i].LineEnd {
				defs[i].Endpoints = append(defs[i].Endpoints, types.Endpoint{Kind: "http", Method: ep.method, Path: ep.path})
				break
			}
		}
	}
}
