package graphstore

import (
	"github.com/standardbeagle/keel/internal/errkit"
	"github.com/standardbeagle/keel/internal/types"
)

// GetEdges returns every edge touching nodeID, in either direction.
func (s *Store) GetEdges(nodeID int64) ([]types.GraphEdge, error) {
	rows, err := s.db.Query(`SELECT id, source_id, target_id, kind, file, line, confidence
		FROM edges WHERE source_id = ? OR target_id = ?`, nodeID, nodeID)
	if err != nil {
		return nil, &errkit.DatabaseError{Op: "get_edges", Underlying: err}
	}
	defer rows.Close()
	return scanEdges(rows)
}

// GetOutgoingEdges returns edges where nodeID is the source, the
// direction `discover`'s downstream BFS walks.
func (s *Store) GetOutgoingEdges(nodeID int64) ([]types.GraphEdge, error) {
	rows, err := s.db.Query(`SELECT id, source_id, target_id, kind, file, line, confidence
		FROM edges WHERE source_id = ?`, nodeID)
	if err != nil {
		return nil, &errkit.DatabaseError{Op: "get_outgoing_edges", Underlying: err}
	}
	defer rows.Close()
	return scanEdges(rows)
}

// GetIncomingEdges returns edges where nodeID is the target, the
// direction callers-of lookups walk (`check`, `explain`, `analyze`,
// and compile's E001/E004 checks).
func (s *Store) GetIncomingEdges(nodeID int64) ([]types.GraphEdge, error) {
	rows, err := s.db.Query(`SELECT id, source_id, target_id, kind, file, line, confidence
		FROM edges WHERE target_id = ?`, nodeID)
	if err != nil {
		return nil, &errkit.DatabaseError{Op: "get_incoming_edges", Underlying: err}
	}
	defer rows.Close()
	return scanEdges(rows)
}

// ReplaceEdgesFromFile atomically swaps every outgoing edge recorded
// from sourceFile for a fresh set, the commit-time half of a file
// re-scan.
func (s *Store) ReplaceEdgesFromFile(sourceFile string, edges []types.GraphEdge) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &errkit.DatabaseError{Op: "replace_edges:begin", Underlying: err}
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM edges WHERE file = ?`, sourceFile); err != nil {
		return &errkit.DatabaseError{Op: "replace_edges:delete", Underlying: err}
	}
	for _, e := range edges {
		if _, err := tx.Exec(`INSERT INTO edges (source_id, target_id, kind, file, line, confidence)
			VALUES (?,?,?,?,?,?)`, e.SourceID, e.TargetID, e.Kind, e.File, e.Line, e.Confidence); err != nil {
			return &errkit.DatabaseError{Op: "replace_edges:insert", Underlying: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &errkit.DatabaseError{Op: "replace_edges:commit", Underlying: err}
	}
	return nil
}

// CleanupOrphanedEdges removes edges whose source or target node no
// longer exists, run after a batch of node deletions.
func (s *Store) CleanupOrphanedEdges() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM edges WHERE
		source_id NOT IN (SELECT id FROM nodes) OR target_id NOT IN (SELECT id FROM nodes)`)
	if err != nil {
		return 0, &errkit.DatabaseError{Op: "cleanup_orphaned_edges", Underlying: err}
	}
	return res.RowsAffected()
}

func scanEdges(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]types.GraphEdge, error) {
	var out []types.GraphEdge
	for rows.Next() {
		var e types.GraphEdge
		if err := rows.Scan(&e.ID, &e.SourceID, &e.TargetID, &e.Kind, &e.File, &e.Line, &e.Confidence); err != nil {
			return nil, &errkit.DatabaseError{Op: "scan_edges", Underlying: err}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
