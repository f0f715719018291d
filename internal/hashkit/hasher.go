package hashkit

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

// Hash computes the 11-character content hash of a definition from the
// triple (signature, body, docstring), per §4.1.
//
// Normalization rules (chosen once, documented, and never changed):
//  1. Each of signature/body/docstring has leading and trailing
//     whitespace trimmed, and internal whitespace runs (spaces, tabs)
//     collapsed to a single space.
//  2. Blank lines are removed entirely from body and docstring before
//     the whitespace-run collapse, so reformatting that only adds or
//     removes blank lines never changes the hash.
//  3. Line endings are normalized to "\n" before any other processing.
//  4. No case-folding is applied: renaming an identifier's case is a
//     semantic change and must change the hash.
//
// The normalized triple is joined with a NUL separator (a byte that
// cannot appear in the normalized text) and hashed with SHA-256; the
// first 8 bytes of the digest are taken as a big-endian uint64 and
// base-63 encoded to exactly 11 characters. SHA-256 truncation, not a
// weaker 64-bit hash, is used so the truncated bits still carry the
// full avalanche property of a cryptographic digest.
func Hash(signature, body, docstring string) string {
	return hashValue(normalize(signature), normalize(body), normalize(docstring))
}

// HashDisambiguated additionally mixes the file path into the input, so
// two textually identical definitions in different files receive
// distinct hashes. Used when the caller needs per-file uniqueness even
// across duplicate code (e.g. two files each defining an identical
// constructor stub).
func HashDisambiguated(filePath, signature, body, docstring string) string {
	return hashValue(normalize(filePath), normalize(signature), normalize(body), normalize(docstring))
}

func hashValue(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	sum := h.Sum(nil)
	v := binary.BigEndian.Uint64(sum[:8])
	return encodeBase63(v)
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		kept = append(kept, collapseSpaces(trimmed))
	}
	return strings.Join(kept, "\n")
}

func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		isSpace := r == ' ' || r == '\t'
		if isSpace {
			if !prevSpace {
				b.WriteByte(' ')
			}
			prevSpace = true
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
