package hashkit

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// CallSiteFingerprint computes a fast, non-cryptographic fingerprint of a
// call site for use as a ResolutionCacheEntry key (§3, §4.3 Tier 3). It is
// deliberately not the cryptographic node hash: cache keys only need
// cheap equality, not collision resistance against adversarial input, and
// are recomputed on every parse.
func CallSiteFingerprint(file string, line int, callee string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(file)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(strconv.Itoa(line))
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(callee)
	return d.Sum64()
}
