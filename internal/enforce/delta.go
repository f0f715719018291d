package enforce

import (
	"sort"

	"github.com/standardbeagle/keel/internal/types"
)

// Snapshot reduces a CompileResult to the stable keys §4.6's delta
// logic diffs across two compiles.
func Snapshot(r *CompileResult) types.ViolationSnapshot {
	keys := make([]types.ViolationKey, 0, len(r.Errors)+len(r.Warnings))
	for _, v := range r.Errors {
		keys = append(keys, v.key())
	}
	for _, v := range r.Warnings {
		keys = append(keys, v.key())
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		if a.Hash != b.Hash {
			return a.Hash < b.Hash
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
	return types.ViolationSnapshot{Keys: keys, ErrorCount: len(r.Errors), WarnCount: len(r.Warnings)}
}

// Delta is the result of comparing two compile snapshots.
type Delta struct {
	NewErrors        []types.ViolationKey `json:"new_errors"`
	ResolvedErrors   []types.ViolationKey `json:"resolved_errors"`
	NewWarnings      []types.ViolationKey `json:"new_warnings"`
	ResolvedWarnings []types.ViolationKey `json:"resolved_warnings"`
	NetErrors        int                  `json:"net_errors"`
	NetWarnings      int                  `json:"net_warnings"`
}

// ComputeDelta compares a previous snapshot against the current
// CompileResult (§8: "compute_delta(prev, curr).net_errors =
// |curr.errors| - |prev.errors|").
func ComputeDelta(prev types.ViolationSnapshot, curr *CompileResult) Delta {
	prevSet := make(map[types.ViolationKey]bool, len(prev.Keys))
	for _, k := range prev.Keys {
		prevSet[k] = true
	}

	currSnap := Snapshot(curr)
	currSet := make(map[types.ViolationKey]bool, len(currSnap.Keys))
	for _, k := range currSnap.Keys {
		currSet[k] = true
	}

	var d Delta
	for _, v := range curr.Errors {
		k := v.key()
		if !prevSet[k] {
			d.NewErrors = append(d.NewErrors, k)
		}
	}
	for _, v := range curr.Warnings {
		k := v.key()
		if !prevSet[k] {
			d.NewWarnings = append(d.NewWarnings, k)
		}
	}
	// A resolved key's original severity isn't recoverable from the
	// snapshot alone (§3's ViolationSnapshot keeps keys and counts, not
	// per-key severity), so every resolved key is reported under
	// ResolvedErrors; ResolvedWarnings stays empty. NetErrors/
	// NetWarnings below are exact regardless, since they come from the
	// snapshot's own counts rather than the key diff.
	for _, k := range prev.Keys {
		if !currSet[k] {
			d.ResolvedErrors = append(d.ResolvedErrors, k)
		}
	}
	d.NetErrors = len(curr.Errors) - prev.ErrorCount
	d.NetWarnings = len(curr.Warnings) - prev.WarnCount
	return d
}
