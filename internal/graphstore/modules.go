package graphstore

import (
	"strings"

	"github.com/standardbeagle/keel/internal/errkit"
	"github.com/standardbeagle/keel/internal/types"
)

const listSep = "\x1f" // unit separator, safe for names/paths that may contain commas

// UpsertModuleProfile inserts or replaces the derived profile for one
// module, used by `analyze` and cross-module placement checks.
func (s *Store) UpsertModuleProfile(p types.ModuleProfile) error {
	_, err := s.db.Exec(`INSERT INTO module_profiles
		(module_id, path, function_count, class_count, line_count, function_name_prefixes,
		 primary_type_names, import_sources, export_targets, external_endpoint_count, responsibility_words)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(module_id) DO UPDATE SET
			path=excluded.path, function_count=excluded.function_count, class_count=excluded.class_count,
			line_count=excluded.line_count, function_name_prefixes=excluded.function_name_prefixes,
			primary_type_names=excluded.primary_type_names, import_sources=excluded.import_sources,
			export_targets=excluded.export_targets, external_endpoint_count=excluded.external_endpoint_count,
			responsibility_words=excluded.responsibility_words`,
		p.ModuleID, p.Path, p.FunctionCount, p.ClassCount, p.LineCount, joinList(p.FunctionNamePrefixes),
		joinList(p.PrimaryTypeNames), joinList(p.ImportSources), joinList(p.ExportTargets),
		p.ExternalEndpointCount, joinList(p.ResponsibilityWords))
	if err != nil {
		return &errkit.DatabaseError{Op: "upsert_module_profile", Underlying: err}
	}
	return nil
}

// FindModulesByPrefix returns module profiles whose path starts with
// prefix.
func (s *Store) FindModulesByPrefix(prefix string) ([]types.ModuleProfile, error) {
	rows, err := s.db.Query(`SELECT module_id, path, function_count, class_count, line_count,
		function_name_prefixes, primary_type_names, import_sources, export_targets,
		external_endpoint_count, responsibility_words
		FROM module_profiles WHERE path LIKE ? || '%'`, prefix)
	if err != nil {
		return nil, &errkit.DatabaseError{Op: "find_modules_by_prefix", Underlying: err}
	}
	defer rows.Close()
	return scanModuleProfiles(rows)
}

// GetModuleProfile fetches one module's profile by module ID.
func (s *Store) GetModuleProfile(moduleID int64) (*types.ModuleProfile, error) {
	row := s.db.QueryRow(`SELECT module_id, path, function_count, class_count, line_count,
		function_name_prefixes, primary_type_names, import_sources, export_targets,
		external_endpoint_count, responsibility_words
		FROM module_profiles WHERE module_id = ?`, moduleID)
	var p types.ModuleProfile
	var prefixes, types_, imports, exports, words string
	if err := row.Scan(&p.ModuleID, &p.Path, &p.FunctionCount, &p.ClassCount, &p.LineCount,
		&prefixes, &types_, &imports, &exports, &p.ExternalEndpointCount, &words); err != nil {
		return nil, &errkit.DatabaseError{Op: "get_module_profile", Underlying: err}
	}
	p.FunctionNamePrefixes = splitList(prefixes)
	p.PrimaryTypeNames = splitList(types_)
	p.ImportSources = splitList(imports)
	p.ExportTargets = splitList(exports)
	p.ResponsibilityWords = splitList(words)
	return &p, nil
}

func scanModuleProfiles(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]types.ModuleProfile, error) {
	var out []types.ModuleProfile
	for rows.Next() {
		var p types.ModuleProfile
		var prefixes, types_, imports, exports, words string
		if err := rows.Scan(&p.ModuleID, &p.Path, &p.FunctionCount, &p.ClassCount, &p.LineCount,
			&prefixes, &types_, &imports, &exports, &p.ExternalEndpointCount, &words); err != nil {
			return nil, &errkit.DatabaseError{Op: "scan_module_profiles", Underlying: err}
		}
		p.FunctionNamePrefixes = splitList(prefixes)
		p.PrimaryTypeNames = splitList(types_)
		p.ImportSources = splitList(imports)
		p.ExportTargets = splitList(exports)
		p.ResponsibilityWords = splitList(words)
		out = append(out, p)
	}
	return out, rows.Err()
}

func joinList(vals []string) string {
	return strings.Join(vals, listSep)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, listSep)
}
