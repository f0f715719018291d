package mapengine

import (
	"regexp"

	"github.com/standardbeagle/keel/internal/hashkit"
	"github.com/standardbeagle/keel/internal/resolve"
	"github.com/standardbeagle/keel/internal/types"
)

// nodeHash computes the stored node identity hash. It uses the
// file-disambiguated variant (§4.1) rather than the plain content hash:
// the (hash, name) pair must be unique globally (§3), and two different
// files legitimately containing a byte-identical, same-named definition
// (a common boilerplate constructor, say) would otherwise collide. The
// plain, non-disambiguated Hash remains available for duplicate-name
// detection (W002), which is specifically checking for that case.
func nodeHash(file string, d types.Definition) string {
	return hashkit.HashDisambiguated(file, d.Signature, d.Body, d.Docstring)
}

// buildIndex builds the project-wide resolver index from every parsed
// file's definitions and imports (§4.5 step 3: "build a global name
// index ... from all definitions").
func buildIndex(projectRoot string, parsed []*types.ParseResult) *resolve.Index {
	files := make(map[string]resolve.FileInfo, len(parsed))
	for _, pf := range parsed {
		candidates := make([]resolve.Candidate, 0, len(pf.Definitions))
		for _, d := range pf.Definitions {
			receiver, pointerReceiver := goReceiver(pf.Language, d.Signature)
			candidates = append(candidates, resolve.Candidate{
				Hash:            nodeHash(pf.File, d),
				Name:            d.Name,
				File:            pf.File,
				Receiver:        receiver,
				PointerReceiver: pointerReceiver,
			})
		}
		files[pf.File] = resolve.FileInfo{Candidates: candidates, Imports: pf.Imports, Language: pf.Language, Types: pf.Types}
	}
	return resolve.NewIndex(projectRoot, files)
}

// goReceiverPattern extracts the receiver type name from a Go method
// signature ("func (s *Store) UpsertNode(...)" -> "Store"). Other
// languages' method signatures don't carry a comparably simple
// syntactic receiver marker, so this stays Go-specific; tier 2's
// receiver narrowing degrades gracefully to its unnarrowed exact-match
// branch for every other language.
var goReceiverPattern = regexp.MustCompile(`^func\s*\(\s*\w+\s+(\*?)([A-Za-z_]\w*)\s*\)`)

func goReceiver(lang, signature string) (name string, pointerReceiver bool) {
	if lang != "go" {
		return "", false
	}
	m := goReceiverPattern.FindStringSubmatch(signature)
	if m == nil {
		return "", false
	}
	return m[2], m[1] == "*"
}
