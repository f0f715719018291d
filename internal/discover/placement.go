package discover

import (
	"github.com/standardbeagle/keel/internal/errkit"
	"github.com/standardbeagle/keel/internal/namewords"
	"github.com/standardbeagle/keel/internal/types"
)

// ResultVersion is the schema version stamped on every result type in
// this package.
const ResultVersion = "1"

func errNotFound(hash string) error {
	return &errkit.NotFoundError{Kind: "node", Key: hash}
}

func errFileNotFound(file string) error {
	return &errkit.NotFoundError{Kind: "file", Key: file}
}

// suggestPlacement implements discover's `--suggest-placement` flag:
// the same cross-module prefix-matching W001 uses, exposed here as a
// read-only query rather than a compile-time violation.
func (e *Engine) suggestPlacement(target *types.GraphNode) (string, error) {
	prefix := namewords.FirstPrefix(target.Name)
	if prefix == "" {
		return "", nil
	}

	if target.ModuleID != 0 {
		own, err := e.Store.GetModuleProfile(target.ModuleID)
		if err == nil && own != nil && namewords.Contains(own.FunctionNamePrefixes, prefix) {
			return "", nil
		}
	}

	modules, err := e.Store.GetAllModules()
	if err != nil {
		return "", err
	}
	for _, m := range modules {
		if m.ID == target.ModuleID {
			continue
		}
		profile, err := e.Store.GetModuleProfile(m.ID)
		if err != nil {
			continue
		}
		if namewords.Contains(profile.FunctionNamePrefixes, prefix) {
			return profile.Path, nil
		}
	}
	return "", nil
}
