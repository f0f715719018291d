package enforce

import "github.com/standardbeagle/keel/internal/types"

// applyCircuitBreaker loads the stored (code, hash) failure streaks,
// escalates or downgrades each raw violation's fix-hint accordingly
// (§4.6), and persists the updated streaks — including resetting the
// streak for any (code, hash) that fired last run but is clean this
// run, since a clean compile of that pair resets its counter.
func (e *Engine) applyCircuitBreaker(raw []Violation, nowUnixNano int64) ([]Violation, error) {
	entries, err := e.Store.LoadCircuitBreaker()
	if err != nil {
		return nil, err
	}
	byCodeHash := make(map[[2]string]types.CircuitBreakerEntry, len(entries))
	for _, en := range entries {
		byCodeHash[[2]string{en.Code, en.Hash}] = en
	}

	maxFailures := e.Cfg.CircuitBreaker.MaxFailures
	if maxFailures <= 0 {
		maxFailures = 3
	}

	seenThisRun := make(map[[2]string]bool, len(raw))
	out := make([]Violation, 0, len(raw))

	for _, v := range raw {
		ck := [2]string{v.Code, v.Hash}
		seenThisRun[ck] = true
		prev, had := byCodeHash[ck]

		var streak int
		if had {
			streak = prev.ConsecutiveFailures + 1
		} else {
			streak = 1
		}

		switch {
		case streak == maxFailures-1 && maxFailures > 1:
			v.FixHint = v.FixHint + " (this is the second-to-last strike before auto-downgrade — widen context with `discover` before the next edit)"
		case streak >= maxFailures:
			v.Severity = SeverityWarn
			v.FixHint = "[auto-downgraded] " + v.FixHint
		}

		if err := e.Store.SaveCircuitBreakerEntry(types.CircuitBreakerEntry{
			Code:                v.Code,
			Hash:                v.Hash,
			ConsecutiveFailures: streak,
			LastFailureUnixNano: nowUnixNano,
			Downgraded:          streak >= maxFailures,
		}); err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	// Anything that had a streak but didn't fire this run compiled
	// clean: reset it.
	for ck := range byCodeHash {
		if !seenThisRun[ck] {
			if err := e.Store.ResetCircuitBreakerEntry(ck[0], ck[1]); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}
