package graphstore

import (
	"database/sql"
	"fmt"

	"github.com/standardbeagle/keel/internal/errkit"
)

// baseSchema is applied idempotently on every Open via CREATE TABLE IF
// NOT EXISTS; columns added after the original release go through
// columnMigrations instead, so schema version never needs to decrease
// and every migration is safe to re-run.
var baseSchema = []string{
	`CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS nodes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		hash TEXT NOT NULL,
		name TEXT NOT NULL,
		signature TEXT NOT NULL,
		file TEXT NOT NULL,
		line_start INTEGER NOT NULL,
		line_end INTEGER NOT NULL,
		docstring TEXT NOT NULL DEFAULT '',
		is_public INTEGER NOT NULL DEFAULT 0,
		type_hints_ok INTEGER NOT NULL DEFAULT 0,
		has_docstring INTEGER NOT NULL DEFAULT 0,
		module_id INTEGER NOT NULL DEFAULT 0,
		package TEXT NOT NULL DEFAULT '',
		UNIQUE(hash, name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_file ON nodes(file)`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_name ON nodes(name)`,
	`CREATE INDEX IF NOT EXISTS idx_nodes_hash ON nodes(hash)`,
	`CREATE TABLE IF NOT EXISTS previous_hashes (
		node_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		hash TEXT NOT NULL,
		rank INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_previous_hashes_node ON previous_hashes(node_id)`,
	`CREATE TABLE IF NOT EXISTS endpoints (
		node_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		method TEXT NOT NULL,
		path TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS edges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		target_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		file TEXT NOT NULL,
		line INTEGER NOT NULL,
		confidence REAL NOT NULL DEFAULT 1.0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_id)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_id)`,
	`CREATE TABLE IF NOT EXISTS module_profiles (
		module_id INTEGER PRIMARY KEY,
		path TEXT NOT NULL UNIQUE,
		function_count INTEGER NOT NULL DEFAULT 0,
		class_count INTEGER NOT NULL DEFAULT 0,
		line_count INTEGER NOT NULL DEFAULT 0,
		function_name_prefixes TEXT NOT NULL DEFAULT '',
		primary_type_names TEXT NOT NULL DEFAULT '',
		import_sources TEXT NOT NULL DEFAULT '',
		export_targets TEXT NOT NULL DEFAULT '',
		external_endpoint_count INTEGER NOT NULL DEFAULT 0,
		responsibility_words TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS resolution_cache (
		call_site_fingerprint INTEGER NOT NULL,
		source_content_hash TEXT NOT NULL,
		target_node_id INTEGER NOT NULL DEFAULT 0,
		confidence REAL NOT NULL DEFAULT 0,
		tier TEXT NOT NULL DEFAULT '',
		provider TEXT NOT NULL DEFAULT '',
		target_file TEXT NOT NULL DEFAULT '',
		target_name TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (call_site_fingerprint, source_content_hash)
	)`,
	`CREATE TABLE IF NOT EXISTS circuit_breaker (
		code TEXT NOT NULL,
		hash TEXT NOT NULL,
		consecutive_failures INTEGER NOT NULL DEFAULT 0,
		last_failure_unix_nano INTEGER NOT NULL DEFAULT 0,
		downgraded INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (code, hash)
	)`,
	`CREATE TABLE IF NOT EXISTS batch_buffer (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		violation_json TEXT NOT NULL
	)`,
}

// columnMigrations lists columns introduced after the initial schema,
// applied with ALTER TABLE ADD COLUMN when PRAGMA table_info shows they
// are missing. Empty for now; this is the seam later schema changes
// hang off rather than rewriting baseSchema in place.
var columnMigrations = map[string][]struct {
	name string
	ddl  string
}{}

func (s *Store) migrate() error {
	for _, stmt := range baseSchema {
		if _, err := s.db.Exec(stmt); err != nil {
			return &errkit.DatabaseError{Op: "migrate:" + stmt, Underlying: err}
		}
	}
	for table, cols := range columnMigrations {
		existing, err := tableColumns(s.db, table)
		if err != nil {
			return err
		}
		for _, c := range cols {
			if existing[c.name] {
				continue
			}
			if _, err := s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, c.ddl)); err != nil {
				return &errkit.DatabaseError{Op: "migrate:add_column:" + table + "." + c.name, Underlying: err}
			}
		}
	}
	return nil
}

func tableColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, &errkit.DatabaseError{Op: "table_info:" + table, Underlying: err}
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, &errkit.DatabaseError{Op: "table_info:scan:" + table, Underlying: err}
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
