package enforce

import (
	"github.com/standardbeagle/keel/internal/config"
	"github.com/standardbeagle/keel/internal/graphstore"
	"github.com/standardbeagle/keel/internal/klog"
	"github.com/standardbeagle/keel/internal/types"
)

// ResultVersion is the schema version stamped on every CompileResult.
const ResultVersion = "1"

// CompileResult is the outcome of one enforcement run (§6's
// CompileResult).
type CompileResult struct {
	Version string `json:"version"`
	Command string `json:"command"`

	Errors   []Violation `json:"errors"`
	Warnings []Violation `json:"warnings"`

	HashesChanged map[string]string `json:"hashes_changed,omitempty"` // new hash -> old hash

	Clean bool `json:"clean"`
}

// Options controls one Compile invocation.
type Options struct {
	BatchStart  bool
	BatchEnd    bool
	Suppress    []string
	NowUnixNano int64
}

// Engine wires the enforcement pipeline's collaborators.
type Engine struct {
	Store *graphstore.Store
	Cfg   *config.Config
}

// New builds an Engine.
func New(store *graphstore.Store, cfg *config.Config) *Engine {
	return &Engine{Store: store, Cfg: cfg}
}

// Compile runs the enforcement engine over one batch of freshly-parsed
// files (§4.6): it persists hash updates, runs the violation checks,
// applies circuit-breaker escalation/downgrade, defers non-structural
// violations while a batch is open, and rewrites suppressed codes to
// S001/INFO.
func (e *Engine) Compile(batch []types.FileIndex, opts Options) (*CompileResult, error) {
	log := klog.For(klog.CategoryEnforce)

	hashesChanged := map[string]string{}
	var raw []Violation

	for _, fi := range batch {
		vs, changed, err := e.compileFile(fi)
		if err != nil {
			return nil, err
		}
		raw = append(raw, vs...)
		for newHash, oldHash := range changed {
			hashesChanged[newHash] = oldHash
		}
	}

	// A removed definition's own edges were replaced by ReplaceEdgesFromFile
	// already, but edges from OTHER files that still pointed at it (already
	// reported as E004 above, via their still-present incoming-edge rows)
	// need sweeping now that the target node is gone.
	if _, err := e.Store.CleanupOrphanedEdges(); err != nil {
		return nil, err
	}

	raw, err := e.applyCircuitBreaker(raw, opts.NowUnixNano)
	if err != nil {
		return nil, err
	}

	if opts.BatchStart {
		if _, err := e.Store.BatchStart(opts.NowUnixNano); err != nil {
			return nil, err
		}
	}

	active, startedAt, err := e.batchActive()
	if err != nil {
		return nil, err
	}

	// An expired buffer flushes into this compile's own output and the
	// window closes, so this run's own violations are treated as if no
	// batch were open (§4.6: "on expiry any subsequent compile flushes
	// the buffer").
	var expiredFlush []Violation
	if active && opts.NowUnixNano > 0 && batchExpired(startedAt, opts.NowUnixNano, e.Cfg.BatchExpiryMin) {
		expiredFlush, err = e.drainBatch()
		if err != nil {
			return nil, err
		}
		if err := e.Store.BatchClear(); err != nil {
			return nil, err
		}
		active = false
	}

	var immediate []Violation
	immediate = append(immediate, expiredFlush...)
	if active && !opts.BatchEnd {
		for _, v := range raw {
			if structuralCodes[v.Code] {
				immediate = append(immediate, v)
				continue
			}
			if err := e.deferViolation(v); err != nil {
				return nil, err
			}
		}
	} else {
		immediate = append(immediate, raw...)
	}

	if opts.BatchEnd {
		deferred, err := e.drainBatch()
		if err != nil {
			return nil, err
		}
		immediate = append(immediate, deferred...)
		if err := e.Store.BatchClear(); err != nil {
			return nil, err
		}
	}

	suppressed := suppressionSet(opts.Suppress)
	immediate = applySuppression(immediate, suppressed)

	result := &CompileResult{
		Version:       ResultVersion,
		Command:       "compile",
		HashesChanged: hashesChanged,
	}
	for _, v := range immediate {
		switch v.Severity {
		case SeverityError:
			result.Errors = append(result.Errors, v)
		default:
			result.Warnings = append(result.Warnings, v)
		}
	}
	result.Clean = len(result.Errors) == 0 && len(result.Warnings) == 0

	log.Debugw("compile finished", "files", len(batch), "errors", len(result.Errors), "warnings", len(result.Warnings))
	return result, nil
}

func (e *Engine) batchActive() (bool, int64, error) {
	started, active, err := e.Store.BatchStartedAt()
	if err != nil {
		return false, 0, err
	}
	if !active {
		return false, 0, nil
	}
	return true, started, nil
}

// batchExpired reports whether a batch window opened at startedAt is
// past its deadline at now, given the configured expiry in minutes.
func batchExpired(startedAt, now int64, expiryMin int) bool {
	if expiryMin <= 0 {
		return false
	}
	deadline := startedAt + int64(expiryMin)*60*1_000_000_000
	return now >= deadline
}
