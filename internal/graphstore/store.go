// Package graphstore is the embedded relational store behind the call
// graph (§4.4): nodes, edges, module profiles, the resolution cache,
// and circuit-breaker state, all in one SQLite file under
// .keel/graph.db. The teacher has no SQL store of its own (it indexes
// in memory), so this package's persistence shape is grounded instead
// on a sibling example repo, theRebelliousNerd-codenerd's
// internal/store package: a single *sql.DB opened with
// modernc.org/sqlite (pure Go, no cgo), WAL journaling, and an additive
// schema-migration routine driven by PRAGMA table_info rather than a
// migration-framework dependency.
package graphstore

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/standardbeagle/keel/internal/errkit"
)

// Store wraps the graph database connection.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and opens the graph database at path,
// applying pragmas and running schema migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &errkit.DatabaseError{Op: "open", Underlying: err}
	}
	db.SetMaxOpenConns(1) // a single writer; WAL still lets readers proceed concurrently

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, &errkit.DatabaseError{Op: pragma, Underlying: err}
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ClearAll truncates every table.
func (s *Store) ClearAll() error {
	tables := []string{"edges", "nodes", "module_profiles", "resolution_cache", "circuit_breaker", "previous_hashes", "batch_buffer"}
	tx, err := s.db.Begin()
	if err != nil {
		return &errkit.DatabaseError{Op: "clear_all", Underlying: err}
	}
	defer tx.Rollback()
	for _, t := range tables {
		if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", t)); err != nil {
			return &errkit.DatabaseError{Op: "clear_all:" + t, Underlying: err}
		}
	}
	if _, err := tx.Exec(`DELETE FROM metadata WHERE key = ?`, batchStartedMetaKey); err != nil {
		return &errkit.DatabaseError{Op: "clear_all:batch_marker", Underlying: err}
	}
	if err := tx.Commit(); err != nil {
		return &errkit.DatabaseError{Op: "clear_all:commit", Underlying: err}
	}
	return nil
}
