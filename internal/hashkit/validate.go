package hashkit

// Valid reports whether s has the wire-stable hash shape: exactly
// HashLength characters drawn from the base-63 alphabet (§6). Consumers
// must use full-string equality on hashes; two hashes sharing a prefix
// are never treated as equivalent, so this only checks shape, not
// provenance.
func Valid(s string) bool {
	if len(s) != HashLength {
		return false
	}
	_, err := decodeBase63(s)
	return err == nil
}
