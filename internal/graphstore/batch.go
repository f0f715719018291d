package graphstore

import (
	"database/sql"
	"strconv"

	"github.com/standardbeagle/keel/internal/errkit"
)

const batchStartedMetaKey = "batch_started_unix_nano"

// BatchStart records the batch deferral window's creation time in
// metadata. It is a no-op (returns the existing start time) if a batch
// is already active, since batch_start does not reset an in-progress
// buffer.
func (s *Store) BatchStart(nowUnixNano int64) (int64, error) {
	existing, active, err := s.BatchStartedAt()
	if err != nil {
		return 0, err
	}
	if active {
		return existing, nil
	}
	_, err = s.db.Exec(`INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		batchStartedMetaKey, strconv.FormatInt(nowUnixNano, 10))
	if err != nil {
		return 0, &errkit.DatabaseError{Op: "batch_start", Underlying: err}
	}
	return nowUnixNano, nil
}

// BatchStartedAt returns the batch window's start time and whether a
// batch is currently active.
func (s *Store) BatchStartedAt() (int64, bool, error) {
	row := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, batchStartedMetaKey)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, &errkit.DatabaseError{Op: "batch_started_at", Underlying: err}
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return v, true, nil
}

// BatchClear ends the batch window, clearing both the start marker and
// the deferral buffer.
func (s *Store) BatchClear() error {
	tx, err := s.db.Begin()
	if err != nil {
		return &errkit.DatabaseError{Op: "batch_clear:begin", Underlying: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM metadata WHERE key = ?`, batchStartedMetaKey); err != nil {
		return &errkit.DatabaseError{Op: "batch_clear:metadata", Underlying: err}
	}
	if _, err := tx.Exec(`DELETE FROM batch_buffer`); err != nil {
		return &errkit.DatabaseError{Op: "batch_clear:buffer", Underlying: err}
	}
	if err := tx.Commit(); err != nil {
		return &errkit.DatabaseError{Op: "batch_clear:commit", Underlying: err}
	}
	return nil
}

// BatchDefer appends one violation (already marshaled to JSON by the
// caller) to the deferral buffer.
func (s *Store) BatchDefer(violationJSON string) error {
	_, err := s.db.Exec(`INSERT INTO batch_buffer (violation_json) VALUES (?)`, violationJSON)
	if err != nil {
		return &errkit.DatabaseError{Op: "batch_defer", Underlying: err}
	}
	return nil
}

// BatchDrain returns every buffered violation's JSON payload and empties
// the buffer in the same transaction, so a concurrent reader can never
// observe a drained-but-not-cleared state.
func (s *Store) BatchDrain() ([]string, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, &errkit.DatabaseError{Op: "batch_drain:begin", Underlying: err}
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT violation_json FROM batch_buffer ORDER BY id ASC`)
	if err != nil {
		return nil, &errkit.DatabaseError{Op: "batch_drain:query", Underlying: err}
	}
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return nil, &errkit.DatabaseError{Op: "batch_drain:scan", Underlying: err}
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, &errkit.DatabaseError{Op: "batch_drain:rows", Underlying: err}
	}
	rows.Close()

	if _, err := tx.Exec(`DELETE FROM batch_buffer`); err != nil {
		return nil, &errkit.DatabaseError{Op: "batch_drain:clear", Underlying: err}
	}
	if err := tx.Commit(); err != nil {
		return nil, &errkit.DatabaseError{Op: "batch_drain:commit", Underlying: err}
	}
	return out, nil
}
