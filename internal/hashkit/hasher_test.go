package hashkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_Deterministic(t *testing.T) {
	h1 := Hash("func Foo(x int) int", "return x + 1", "Foo doubles nothing, adds one.")
	h2 := Hash("func Foo(x int) int", "return x + 1", "Foo doubles nothing, adds one.")
	require.Equal(t, h1, h2)
	require.Len(t, h1, HashLength)
}

func TestHash_WhitespaceInsensitive(t *testing.T) {
	a := Hash("func Foo(x int) int", "return x + 1", "")
	b := Hash("func   Foo(x   int)   int", "\n\n  return   x + 1  \n\n", "")
	assert.Equal(t, a, b, "reformatting whitespace must not change the hash")
}

func TestHash_SemanticChange(t *testing.T) {
	base := Hash("func Foo(x int) int", "return x + 1", "")

	tests := []struct {
		name      string
		signature string
		body      string
	}{
		{"param added", "func Foo(x int, y int) int", "return x + 1"},
		{"return type changed", "func Foo(x int) string", "return x + 1"},
		{"name changed", "func Bar(x int) int", "return x + 1"},
		{"body changed", "func Foo(x int) int", "return x + 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Hash(tt.signature, tt.body, "")
			assert.NotEqual(t, base, h)
		})
	}
}

func TestHashDisambiguated_DifferentFiles(t *testing.T) {
	a := HashDisambiguated("pkg/a.go", "func Foo() {}", "", "")
	b := HashDisambiguated("pkg/b.go", "func Foo() {}", "", "")
	assert.NotEqual(t, a, b)
}

func TestCallSiteFingerprint_Stable(t *testing.T) {
	a := CallSiteFingerprint("main.go", 12, "Foo")
	b := CallSiteFingerprint("main.go", 12, "Foo")
	assert.Equal(t, a, b)

	c := CallSiteFingerprint("main.go", 13, "Foo")
	assert.NotEqual(t, a, c)
}
