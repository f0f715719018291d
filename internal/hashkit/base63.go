// Package hashkit provides the deterministic content hash that defines
// node identity (§4.1) together with a fast non-cryptographic fingerprint
// used for call-site cache keys. The base-63 encoding here is the same
// alphabet and packing scheme the rest of the corpus uses for short,
// collision-resistant identifiers.
package hashkit

import "errors"

const (
	base63   = 63
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_"
	// HashLength is the fixed width of a node hash (§3, §6): any value
	// shorter than this after encoding is left-padded with the zero digit
	// so two hashes of equal prefix are never equal by truncation alone.
	HashLength = 11
)

var (
	ErrEmptyString = errors.New("hashkit: empty encoded string")
	ErrInvalidChar = errors.New("hashkit: invalid character in encoded string")
)

var charValue [256]int8

func init() {
	for i := range charValue {
		charValue[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		charValue[alphabet[i]] = int8(i)
	}
}

// encodeBase63 encodes value to base-63, left-padded with the zero digit
// ('A') to exactly HashLength characters.
func encodeBase63(value uint64) string {
	var buf [HashLength]byte
	for i := range buf {
		buf[i] = alphabet[0]
	}
	pos := HashLength
	for value > 0 && pos > 0 {
		pos--
		buf[pos] = alphabet[value%base63]
		value /= base63
	}
	return string(buf[:])
}

// decodeBase63 decodes a base-63 string back to a uint64.
func decodeBase63(s string) (uint64, error) {
	if s == "" {
		return 0, ErrEmptyString
	}
	var value uint64
	for i := 0; i < len(s); i++ {
		v := charValue[s[i]]
		if v < 0 {
			return 0, ErrInvalidChar
		}
		value = value*base63 + uint64(v)
	}
	return value, nil
}
