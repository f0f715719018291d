// Package namewords splits an identifier into the lowercase word
// segments used by module-profile construction (§4.5 step 5) and the
// placement check (§4.6 W001): every package that reasons about a
// function's "name prefix" or "responsibility words" agrees on the
// same case/underscore boundary rules.
package namewords

import (
	"regexp"
	"strings"
)

var boundary = regexp.MustCompile(`[A-Z]?[a-z0-9]+|[A-Z]+(?:[A-Z][a-z]|$)`)

// Split breaks name into lowercase word segments on case and
// underscore/hyphen boundaries: "GetWidgetByID" -> ["get", "widget",
// "by", "id"], "http_server" -> ["http", "server"].
func Split(name string) []string {
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(name)
	var words []string
	for _, field := range strings.Fields(cleaned) {
		words = append(words, boundary.FindAllString(field, -1)...)
	}
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return words
}

// FirstPrefix returns name's first word segment, lowercased, or "" if
// name has no recognizable word boundary.
func FirstPrefix(name string) string {
	words := Split(name)
	if len(words) == 0 {
		return ""
	}
	return words[0]
}

// Contains reports whether want appears in prefixes.
func Contains(prefixes []string, want string) bool {
	for _, p := range prefixes {
		if p == want {
			return true
		}
	}
	return false
}
