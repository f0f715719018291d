package resolve

import (
	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/keel/internal/types"
)

// fuzzyThreshold is how similar a near-miss name must be to the
// reference's name before tier2 accepts it as a refinement rather than
// an unrelated candidate with a coincidentally low-confidence match.
const fuzzyThreshold = 0.82

// tier2 is the language-specific structural resolver (§4.3 Tier 2): for
// a receiver-method call whose call-site receiver was resolved to a
// static type (see resolveGoReceiverTypes), look that method up in the
// receiver type's method set — following struct/composition embedding
// when the type doesn't declare the method directly, and falling back
// to interface/trait satisfaction when the receiver's static type (or
// the trait bound behind a generic type parameter) is itself a
// trait/interface rather than a concrete type. A reference with no
// resolved receiver type, or one the structural index has no record of,
// falls through to the flat project-wide exact-name/fuzzy match the
// teacher's semantic.FuzzyMatcher uses for "did you mean" suggestions.
func (r *Resolver) tier2(ref types.Reference, sourceFile string) (Result, bool) {
	if ref.Receiver != "" {
		if res, ok := r.tier2Structural(ref); ok {
			return res, true
		}
		if r.index.types[ref.Receiver] != nil {
			return Result{}, false
		}
	}
	return r.tier2FlatFallback(ref)
}

// tier2Structural implements the method-set/embedding/trait-satisfaction
// half of §4.3 Tier 2.
func (r *Resolver) tier2Structural(ref types.Reference) (Result, bool) {
	idx := r.index

	if ref.ReceiverViaGenericBound {
		return idx.resolveViaTrait(ref.Receiver, ref.Name)
	}

	if owner, ok := idx.resolveMethodOwner(ref.Receiver, ref.Name); ok {
		confidence := ConfidenceStructuralHigher
		if owner.Receiver != ref.Receiver {
			// Promoted from an embedded type rather than declared
			// directly on the receiver's own type.
			confidence = ConfidenceStructural
		}
		return Result{Hash: owner.Hash, File: owner.File, Tier: TierStructural, Confidence: confidence}, true
	}

	// The receiver's static type might itself be an interface/trait
	// (e.g. "var s Shape; s.Area()") rather than a concrete type; in
	// that case the call binds through trait satisfaction instead of a
	// direct method-set lookup.
	if ti := idx.types[ref.Receiver]; ti != nil && ti.isInterface {
		return idx.resolveViaTrait(ref.Receiver, ref.Name)
	}

	return Result{}, false
}

// resolveViaTrait binds a call through interface/trait satisfaction: it
// only resolves when exactly one concrete type in the project satisfies
// traitName and declares (or promotes) method — "never guesses unless
// exactly one is viable" per §4.3's failure-mode rule. Confidence is
// 0.30 for an empty interface/trait (satisfied by everything, so the
// match carries the least evidence) and 0.40 otherwise.
func (idx *Index) resolveViaTrait(traitName, method string) (Result, bool) {
	impls := idx.implementors(traitName)
	var owner Candidate
	matches := 0
	for _, implName := range impls {
		if c, ok := idx.resolveMethodOwner(implName, method); ok {
			owner = c
			matches++
		}
	}
	if matches != 1 {
		return Result{}, false
	}
	_, empty := idx.satisfies(owner.Receiver, traitName)
	confidence := ConfidenceTrait
	if empty {
		confidence = ConfidenceTraitEmpty
	}
	return Result{Hash: owner.Hash, File: owner.File, Tier: TierStructural, Confidence: confidence}, true
}

// tier2FlatFallback is the pre-structural algorithm, kept for references
// whose receiver type is unknown (every non-Go language today, and Go
// calls on a receiver expression too complex to statically type): an
// exact same-name candidate anywhere in the project, or (failing that)
// the closest near-miss name by Jaro-Winkler similarity.
func (r *Resolver) tier2FlatFallback(ref types.Reference) (Result, bool) {
	exact := r.index.byName[ref.Name]
	if len(exact) > 0 {
		// Multiple same-named candidates with no way to disambiguate:
		// still report the first deterministically rather than
		// guessing, at the lower confidence band.
		return Result{Hash: exact[0].Hash, File: exact[0].File, Tier: TierStructural, Confidence: ConfidenceStructural}, true
	}

	best, bestScore := "", 0.0
	var bestCandidate Candidate
	for name, candidates := range r.index.byName {
		score, err := edlib.StringsSimilarity(ref.Name, name, edlib.JaroWinkler)
		if err != nil || float64(score) < fuzzyThreshold || float64(score) <= bestScore {
			continue
		}
		bestScore = float64(score)
		best = name
		bestCandidate = candidates[0]
	}
	if best == "" {
		return Result{}, false
	}
	return Result{Hash: bestCandidate.Hash, File: bestCandidate.File, Tier: TierStructural, Confidence: ConfidenceStructural}, true
}
