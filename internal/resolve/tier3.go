package resolve

import (
	"context"
	"time"

	"github.com/standardbeagle/keel/internal/types"
)

// DefaultTier3Timeout bounds how long a semantic provider gets before
// the resolver gives up and degrades silently back to "unresolved",
// per §4.3's requirement that a slow or unavailable Tier 3 never block
// a compile.
const DefaultTier3Timeout = 200 * time.Millisecond

// Tier3Provider is the optional semantic resolution backend: an LSP
// subprocess, a precomputed cross-file index, or any other mechanism a
// deployment wires in. A nil Tier3Provider on the Resolver disables
// Tier 3 entirely rather than calling through to one that always fails.
type Tier3Provider interface {
	Resolve(ctx context.Context, ref types.Reference, sourceFile string) (Candidate, bool, error)
}

// tier3Resolve calls the provider under a bounded timeout and converts
// any error or timeout into a plain miss — never a fatal error for the
// compile that triggered it.
func (r *Resolver) tier3Resolve(ref types.Reference, sourceFile string) (Result, bool) {
	timeout := DefaultTier3Timeout
	if r.timeout > 0 {
		timeout = time.Duration(r.timeout) * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	type outcome struct {
		candidate Candidate
		found     bool
		err       error
	}
	done := make(chan outcome, 1)
	go func() {
		c, found, err := r.tier3.Resolve(ctx, ref, sourceFile)
		done <- outcome{c, found, err}
	}()

	select {
	case o := <-done:
		if o.err != nil || !o.found {
			return Result{}, false
		}
		return Result{Hash: o.candidate.Hash, File: o.candidate.File, Tier: TierSemantic, Confidence: 1.0}, true
	case <-ctx.Done():
		return Result{}, false
	}
}
