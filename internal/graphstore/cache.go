package graphstore

import (
	"database/sql"

	"github.com/standardbeagle/keel/internal/errkit"
	"github.com/standardbeagle/keel/internal/types"
)

// GetResolutionCache looks up a cached resolution by call-site
// fingerprint and the source file's content hash — a content-hash
// change invalidates the cache entry implicitly, since the composite
// key no longer matches.
func (s *Store) GetResolutionCache(fingerprint uint64, sourceContentHash string) (*types.ResolutionCacheEntry, error) {
	row := s.db.QueryRow(`SELECT call_site_fingerprint, source_content_hash, target_node_id,
		confidence, tier, provider, target_file, target_name
		FROM resolution_cache WHERE call_site_fingerprint = ? AND source_content_hash = ?`,
		int64(fingerprint), sourceContentHash)
	var e types.ResolutionCacheEntry
	var fp int64
	if err := row.Scan(&fp, &e.SourceContentHash, &e.TargetNodeID, &e.Confidence, &e.Tier, &e.Provider, &e.TargetFile, &e.TargetName); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &errkit.DatabaseError{Op: "get_resolution_cache", Underlying: err}
	}
	e.CallSiteFingerprint = uint64(fp)
	return &e, nil
}

// PutResolutionCache stores or replaces a resolution result.
func (s *Store) PutResolutionCache(e types.ResolutionCacheEntry) error {
	_, err := s.db.Exec(`INSERT INTO resolution_cache
		(call_site_fingerprint, source_content_hash, target_node_id, confidence, tier, provider, target_file, target_name)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT(call_site_fingerprint, source_content_hash) DO UPDATE SET
			target_node_id=excluded.target_node_id, confidence=excluded.confidence, tier=excluded.tier,
			provider=excluded.provider, target_file=excluded.target_file, target_name=excluded.target_name`,
		int64(e.CallSiteFingerprint), e.SourceContentHash, e.TargetNodeID, e.Confidence, e.Tier, e.Provider, e.TargetFile, e.TargetName)
	if err != nil {
		return &errkit.DatabaseError{Op: "put_resolution_cache", Underlying: err}
	}
	return nil
}

// LoadCircuitBreaker returns every tracked (code, hash) failure streak.
func (s *Store) LoadCircuitBreaker() ([]types.CircuitBreakerEntry, error) {
	rows, err := s.db.Query(`SELECT code, hash, consecutive_failures, last_failure_unix_nano, downgraded FROM circuit_breaker`)
	if err != nil {
		return nil, &errkit.DatabaseError{Op: "load_circuit_breaker", Underlying: err}
	}
	defer rows.Close()

	var out []types.CircuitBreakerEntry
	for rows.Next() {
		var e types.CircuitBreakerEntry
		var downgraded int
		if err := rows.Scan(&e.Code, &e.Hash, &e.ConsecutiveFailures, &e.LastFailureUnixNano, &downgraded); err != nil {
			return nil, &errkit.DatabaseError{Op: "load_circuit_breaker:scan", Underlying: err}
		}
		e.Downgraded = downgraded != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveCircuitBreakerEntry persists a single (code, hash) failure streak.
func (s *Store) SaveCircuitBreakerEntry(e types.CircuitBreakerEntry) error {
	_, err := s.db.Exec(`INSERT INTO circuit_breaker (code, hash, consecutive_failures, last_failure_unix_nano, downgraded)
		VALUES (?,?,?,?,?)
		ON CONFLICT(code, hash) DO UPDATE SET
			consecutive_failures=excluded.consecutive_failures,
			last_failure_unix_nano=excluded.last_failure_unix_nano,
			downgraded=excluded.downgraded`,
		e.Code, e.Hash, e.ConsecutiveFailures, e.LastFailureUnixNano, boolToInt(e.Downgraded))
	if err != nil {
		return &errkit.DatabaseError{Op: "save_circuit_breaker_entry", Underlying: err}
	}
	return nil
}

// ResetCircuitBreakerEntry clears a (code, hash) streak, e.g. after a
// successful compile following a prior failure.
func (s *Store) ResetCircuitBreakerEntry(code, hash string) error {
	_, err := s.db.Exec(`DELETE FROM circuit_breaker WHERE code = ? AND hash = ?`, code, hash)
	if err != nil {
		return &errkit.DatabaseError{Op: "reset_circuit_breaker_entry", Underlying: err}
	}
	return nil
}
