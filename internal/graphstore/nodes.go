package graphstore

import (
	"database/sql"
	"fmt"

	"github.com/standardbeagle/keel/internal/errkit"
	"github.com/standardbeagle/keel/internal/types"
)

const maxPreviousHashes = 3

// GetNodeByHash finds a node by its content hash (and, since hash is
// unique only paired with name, disambiguates on name too).
func (s *Store) GetNodeByHash(hash, name string) (*types.GraphNode, error) {
	row := s.db.QueryRow(`SELECT id, kind, hash, name, signature, file, line_start, line_end,
		docstring, is_public, type_hints_ok, has_docstring, module_id, package
		FROM nodes WHERE hash = ? AND name = ?`, hash, name)
	node, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &errkit.DatabaseError{Op: "get_node_by_hash", Underlying: err}
	}
	if err := s.attachExtras(node); err != nil {
		return nil, err
	}
	return node, nil
}

// GetNodeByID fetches a node by its surrogate primary key.
func (s *Store) GetNodeByID(id int64) (*types.GraphNode, error) {
	row := s.db.QueryRow(`SELECT id, kind, hash, name, signature, file, line_start, line_end,
		docstring, is_public, type_hints_ok, has_docstring, module_id, package
		FROM nodes WHERE id = ?`, id)
	node, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &errkit.DatabaseError{Op: "get_node_by_id", Underlying: err}
	}
	if err := s.attachExtras(node); err != nil {
		return nil, err
	}
	return node, nil
}

// GetNodesInFile returns every node (module, classes, functions)
// recorded against a given file.
func (s *Store) GetNodesInFile(file string) ([]types.GraphNode, error) {
	rows, err := s.db.Query(`SELECT id, kind, hash, name, signature, file, line_start, line_end,
		docstring, is_public, type_hints_ok, has_docstring, module_id, package
		FROM nodes WHERE file = ?`, file)
	if err != nil {
		return nil, &errkit.DatabaseError{Op: "get_nodes_in_file", Underlying: err}
	}
	defer rows.Close()
	return scanNodes(rows)
}

// FindNodesByName returns every node with an exact name match, used by
// compile's edge building and duplicate-name check, `explain`, and
// `discover --name`.
func (s *Store) FindNodesByName(name string) ([]types.GraphNode, error) {
	rows, err := s.db.Query(`SELECT id, kind, hash, name, signature, file, line_start, line_end,
		docstring, is_public, type_hints_ok, has_docstring, module_id, package
		FROM nodes WHERE name = ?`, name)
	if err != nil {
		return nil, &errkit.DatabaseError{Op: "find_nodes_by_name", Underlying: err}
	}
	defer rows.Close()
	return scanNodes(rows)
}

// FindNodeByHash finds a node by its content hash alone, with no name
// disambiguation. §8's collision-resistance property guarantees at most
// one name exists for a given hash in any one store, so hash alone is a
// safe lookup key for `discover`/`where`/`check`/`explain`, all of which
// only ever have a bare hash in hand.
func (s *Store) FindNodeByHash(hash string) (*types.GraphNode, error) {
	row := s.db.QueryRow(`SELECT id, kind, hash, name, signature, file, line_start, line_end,
		docstring, is_public, type_hints_ok, has_docstring, module_id, package
		FROM nodes WHERE hash = ?`, hash)
	node, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &errkit.DatabaseError{Op: "find_node_by_hash", Underlying: err}
	}
	if err := s.attachExtras(node); err != nil {
		return nil, err
	}
	return node, nil
}

// FindNodeByPreviousHash finds the node that currently retains oldHash
// among its previous_hashes — used by explain's rename-detection
// feature when a bare hash lookup misses.
func (s *Store) FindNodeByPreviousHash(oldHash string) (*types.GraphNode, error) {
	row := s.db.QueryRow(`SELECT node_id FROM previous_hashes WHERE hash = ? LIMIT 1`, oldHash)
	var nodeID int64
	if err := row.Scan(&nodeID); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, &errkit.DatabaseError{Op: "find_node_by_previous_hash", Underlying: err}
	}
	return s.GetNodeByID(nodeID)
}

// GetAllModules returns every module-kind node.
func (s *Store) GetAllModules() ([]types.GraphNode, error) {
	rows, err := s.db.Query(`SELECT id, kind, hash, name, signature, file, line_start, line_end,
		docstring, is_public, type_hints_ok, has_docstring, module_id, package
		FROM nodes WHERE kind = ?`, types.NodeKindModule)
	if err != nil {
		return nil, &errkit.DatabaseError{Op: "get_all_modules", Underlying: err}
	}
	defer rows.Close()
	return scanNodes(rows)
}

// UpsertNode inserts or updates a node, retaining up to
// maxPreviousHashes prior hashes (newest first) whenever the hash
// changes — the "hash-update-before-return" contract §4.6 enforcement
// relies on.
func (s *Store) UpsertNode(n *types.GraphNode) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &errkit.DatabaseError{Op: "upsert_node:begin", Underlying: err}
	}
	defer tx.Rollback()

	var collidingName string
	switch err := tx.QueryRow(`SELECT name FROM nodes WHERE hash = ? AND name != ? LIMIT 1`, n.Hash, n.Name).Scan(&collidingName); {
	case err == nil:
		return &errkit.HashCollisionError{Hash: n.Hash, ExistingName: collidingName, NewName: n.Name}
	case err != sql.ErrNoRows:
		return &errkit.DatabaseError{Op: "upsert_node:collision_check", Underlying: err}
	}

	var existingID int64
	var existingHash string
	err = tx.QueryRow(`SELECT id, hash FROM nodes WHERE file = ? AND name = ? AND kind = ?`, n.File, n.Name, n.Kind).Scan(&existingID, &existingHash)

	switch {
	case err == sql.ErrNoRows:
		res, err := tx.Exec(`INSERT INTO nodes (kind, hash, name, signature, file, line_start, line_end,
			docstring, is_public, type_hints_ok, has_docstring, module_id, package)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			n.Kind, n.Hash, n.Name, n.Signature, n.File, n.LineStart, n.LineEnd,
			n.Docstring, boolToInt(n.IsPublic), boolToInt(n.TypeHintsOK), boolToInt(n.HasDocstring), n.ModuleID, n.Package)
		if err != nil {
			return &errkit.DatabaseError{Op: "upsert_node:insert", Underlying: err}
		}
		n.ID, err = res.LastInsertId()
		if err != nil {
			return &errkit.DatabaseError{Op: "upsert_node:last_insert_id", Underlying: err}
		}
	case err != nil:
		return &errkit.DatabaseError{Op: "upsert_node:lookup", Underlying: err}
	default:
		n.ID = existingID
		if existingHash != n.Hash {
			if _, err := tx.Exec(`UPDATE previous_hashes SET rank = rank + 1 WHERE node_id = ?`, existingID); err != nil {
				return &errkit.DatabaseError{Op: "upsert_node:bump_rank", Underlying: err}
			}
			if _, err := tx.Exec(`INSERT INTO previous_hashes (node_id, hash, rank) VALUES (?, ?, 0)`, existingID, existingHash); err != nil {
				return &errkit.DatabaseError{Op: "upsert_node:push_previous_hash", Underlying: err}
			}
			if _, err := tx.Exec(`DELETE FROM previous_hashes WHERE node_id = ? AND rank >= ?`, existingID, maxPreviousHashes); err != nil {
				return &errkit.DatabaseError{Op: "upsert_node:trim_previous_hash", Underlying: err}
			}
		}
		if _, err := tx.Exec(`UPDATE nodes SET hash=?, signature=?, line_start=?, line_end=?, docstring=?,
			is_public=?, type_hints_ok=?, has_docstring=?, module_id=?, package=? WHERE id = ?`,
			n.Hash, n.Signature, n.LineStart, n.LineEnd, n.Docstring,
			boolToInt(n.IsPublic), boolToInt(n.TypeHintsOK), boolToInt(n.HasDocstring), n.ModuleID, n.Package, existingID); err != nil {
			return &errkit.DatabaseError{Op: "upsert_node:update", Underlying: err}
		}
	}

	if _, err := tx.Exec(`DELETE FROM endpoints WHERE node_id = ?`, n.ID); err != nil {
		return &errkit.DatabaseError{Op: "upsert_node:clear_endpoints", Underlying: err}
	}
	for _, ep := range n.Endpoints {
		if _, err := tx.Exec(`INSERT INTO endpoints (node_id, kind, method, path) VALUES (?,?,?,?)`, n.ID, ep.Kind, ep.Method, ep.Path); err != nil {
			return &errkit.DatabaseError{Op: "upsert_node:insert_endpoint", Underlying: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &errkit.DatabaseError{Op: "upsert_node:commit", Underlying: err}
	}
	return nil
}

// DeleteNodesNotIn removes every node in file that isn't in keepNames,
// the orphan-cleanup half of a file re-scan.
func (s *Store) DeleteNodesNotIn(file string, keepNames []string) error {
	placeholders := make([]string, len(keepNames))
	args := make([]any, 0, len(keepNames)+1)
	args = append(args, file)
	for i, n := range keepNames {
		placeholders[i] = "?"
		args = append(args, n)
	}
	query := `DELETE FROM nodes WHERE file = ?`
	if len(keepNames) > 0 {
		query += fmt.Sprintf(" AND name NOT IN (%s)", joinPlaceholders(placeholders))
	}
	if _, err := s.db.Exec(query, args...); err != nil {
		return &errkit.DatabaseError{Op: "delete_nodes_not_in", Underlying: err}
	}
	return nil
}

func joinPlaceholders(p []string) string {
	out := ""
	for i, s := range p {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}

func (s *Store) attachExtras(n *types.GraphNode) error {
	rows, err := s.db.Query(`SELECT hash FROM previous_hashes WHERE node_id = ? ORDER BY rank ASC`, n.ID)
	if err != nil {
		return &errkit.DatabaseError{Op: "attach_extras:previous_hashes", Underlying: err}
	}
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			rows.Close()
			return &errkit.DatabaseError{Op: "attach_extras:scan_previous_hash", Underlying: err}
		}
		n.PreviousHashes = append(n.PreviousHashes, h)
	}
	rows.Close()

	epRows, err := s.db.Query(`SELECT kind, method, path FROM endpoints WHERE node_id = ?`, n.ID)
	if err != nil {
		return &errkit.DatabaseError{Op: "attach_extras:endpoints", Underlying: err}
	}
	defer epRows.Close()
	for epRows.Next() {
		var ep types.Endpoint
		if err := epRows.Scan(&ep.Kind, &ep.Method, &ep.Path); err != nil {
			return &errkit.DatabaseError{Op: "attach_extras:scan_endpoint", Underlying: err}
		}
		n.Endpoints = append(n.Endpoints, ep)
	}
	return epRows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*types.GraphNode, error) {
	var n types.GraphNode
	var isPublic, typeHintsOK, hasDocstring int
	if err := row.Scan(&n.ID, &n.Kind, &n.Hash, &n.Name, &n.Signature, &n.File, &n.LineStart, &n.LineEnd,
		&n.Docstring, &isPublic, &typeHintsOK, &hasDocstring, &n.ModuleID, &n.Package); err != nil {
		return nil, err
	}
	n.IsPublic = isPublic != 0
	n.TypeHintsOK = typeHintsOK != 0
	n.HasDocstring = hasDocstring != 0
	return &n, nil
}

func scanNodes(rows *sql.Rows) ([]types.GraphNode, error) {
	var out []types.GraphNode
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, &errkit.DatabaseError{Op: "scan_nodes", Underlying: err}
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
