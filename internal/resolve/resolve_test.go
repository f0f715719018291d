package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/keel/internal/types"
)

func buildIndex() *Index {
	files := map[string]FileInfo{
		"a.go": {
			Language:   "go",
			Candidates: []Candidate{{Hash: "AAAAAAAAAAA", Name: "Helper", File: "a.go"}},
		},
		"b.py": {
			Language: "python",
			Candidates: []Candidate{
				{Hash: "BBBBBBBBBBB", Name: "process", File: "b.py"},
			},
			Imports: []types.Import{{Source: "helpers", Names: []string{"process"}}},
		},
		"helpers.py": {
			Language:   "python",
			Candidates: []Candidate{{Hash: "CCCCCCCCCCC", Name: "process", File: "helpers.py"}},
		},
	}
	return NewIndex("/proj", files)
}

func TestResolve_Tier0SameFile(t *testing.T) {
	idx := buildIndex()
	r := New(idx, nil)
	res := r.Resolve(types.Reference{Name: "Helper"}, "a.go")
	assert.Equal(t, TierSameFile, res.Tier)
	assert.Equal(t, ConfidenceSameFile, res.Confidence)
	assert.Equal(t, "AAAAAAAAAAA", res.Hash)
}

func TestResolve_Tier2Structural(t *testing.T) {
	idx := buildIndex()
	r := New(idx, nil)
	res := r.Resolve(types.Reference{Name: "process"}, "unknown.py")
	assert.Equal(t, TierStructural, res.Tier)
}

// TestResolve_Tier2StructuralReceiverNarrowed covers §8's testable
// property that resolving receiver.m() on a typed receiver picks the
// implementation matching the receiver's type, not one of the others
// sharing the same method name.
func TestResolve_Tier2StructuralReceiverNarrowed(t *testing.T) {
	files := map[string]FileInfo{
		"shapes.go": {
			Language: "go",
			Candidates: []Candidate{
				{Hash: "CIRCLEAREAAA", Name: "Area", File: "shapes.go", Receiver: "Circle", PointerReceiver: true},
				{Hash: "SQUAREAREAAA", Name: "Area", File: "shapes.go", Receiver: "Square", PointerReceiver: true},
			},
		},
	}
	idx := NewIndex("/proj", files)
	r := New(idx, nil)

	circleRes := r.Resolve(types.Reference{Name: "Area", Receiver: "Circle"}, "shapes.go")
	assert.Equal(t, TierStructural, circleRes.Tier)
	assert.Equal(t, "CIRCLEAREAAA", circleRes.Hash)
	assert.Equal(t, ConfidenceStructuralHigher, circleRes.Confidence)

	squareRes := r.Resolve(types.Reference{Name: "Area", Receiver: "Square"}, "shapes.go")
	assert.Equal(t, TierStructural, squareRes.Tier)
	assert.Equal(t, "SQUAREAREAAA", squareRes.Hash)
}

// TestResolve_Tier2StructuralEmbeddingPromotesAtLowerConfidence covers
// the "outer wins, promoted method scored lower" half of the same
// property: an embedding type with no method of its own resolves
// through to the embedded type's implementation, at the lower
// promoted-method confidence band.
func TestResolve_Tier2StructuralEmbeddingPromotesAtLowerConfidence(t *testing.T) {
	files := map[string]FileInfo{
		"shapes.go": {
			Language: "go",
			Candidates: []Candidate{
				{Hash: "CIRCLEAREAAA", Name: "Area", File: "shapes.go", Receiver: "Circle", PointerReceiver: true},
			},
			Types: []types.TypeDecl{
				{Name: "NamedCircle", Embeds: []string{"Circle"}},
			},
		},
	}
	idx := NewIndex("/proj", files)
	r := New(idx, nil)

	res := r.Resolve(types.Reference{Name: "Area", Receiver: "NamedCircle"}, "shapes.go")
	assert.Equal(t, TierStructural, res.Tier)
	assert.Equal(t, "CIRCLEAREAAA", res.Hash)
	assert.Equal(t, ConfidenceStructural, res.Confidence)
}

// TestResolve_Tier2StructuralTraitSatisfaction covers interface
// satisfaction resolving through to the single concrete implementor,
// and declining to guess when more than one type would qualify.
func TestResolve_Tier2StructuralTraitSatisfaction(t *testing.T) {
	files := map[string]FileInfo{
		"shapes.go": {
			Language: "go",
			Candidates: []Candidate{
				{Hash: "CIRCLEAREAAA", Name: "Area", File: "shapes.go", Receiver: "Circle", PointerReceiver: true},
			},
			Types: []types.TypeDecl{
				{Name: "Shape", IsInterface: true, Methods: []string{"Area"}},
			},
		},
	}
	idx := NewIndex("/proj", files)
	r := New(idx, nil)

	res := r.Resolve(types.Reference{Name: "Area", Receiver: "Shape"}, "shapes.go")
	assert.Equal(t, TierStructural, res.Tier)
	assert.Equal(t, "CIRCLEAREAAA", res.Hash)
	assert.Equal(t, ConfidenceTrait, res.Confidence)

	// Adding a second type satisfying Shape with its own Area method
	// makes the trait ambiguous; §4.3's "never guess unless exactly
	// one is viable" means this must now miss tier 2 entirely.
	files["more.go"] = FileInfo{
		Language: "go",
		Candidates: []Candidate{
			{Hash: "SQUAREAREAAA", Name: "Area", File: "more.go", Receiver: "Square", PointerReceiver: true},
		},
	}
	idx2 := NewIndex("/proj", files)
	r2 := New(idx2, nil)
	ambiguous := r2.Resolve(types.Reference{Name: "Area", Receiver: "Shape"}, "shapes.go")
	assert.Equal(t, TierUnresolved, ambiguous.Tier)
}

func TestResolve_Unresolved(t *testing.T) {
	idx := buildIndex()
	r := New(idx, nil)
	res := r.Resolve(types.Reference{Name: "doesNotExist"}, "a.go")
	assert.Equal(t, TierUnresolved, res.Tier)
	assert.Empty(t, res.Hash)
}

type fakeTier3 struct {
	candidate Candidate
	found     bool
}

func (f fakeTier3) Resolve(ctx context.Context, ref types.Reference, sourceFile string) (Candidate, bool, error) {
	return f.candidate, f.found, nil
}

func TestResolve_Tier3Fallback(t *testing.T) {
	idx := buildIndex()
	r := New(idx, fakeTier3{candidate: Candidate{Hash: "DDDDDDDDDDD", File: "x.go"}, found: true})
	res := r.Resolve(types.Reference{Name: "totallyUnknownSymbol"}, "a.go")
	require.Equal(t, TierSemantic, res.Tier)
	assert.Equal(t, "DDDDDDDDDDD", res.Hash)
}
