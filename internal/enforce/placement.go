package enforce

import (
	"fmt"

	"github.com/standardbeagle/keel/internal/namewords"
	"github.com/standardbeagle/keel/internal/types"
)

// checkPlacement implements W001: a function whose name prefix matches
// another module's profile better than its own file's is flagged, with
// the best-matching module named as a suggestion. A function whose own
// module has no profile yet (first compile before a `map` run) or whose
// prefix matches nothing anywhere is left alone — placement is advisory,
// not something to flag on thin evidence.
func (e *Engine) checkPlacement(d types.Definition, file, hash string, ownModuleID int64) (*Violation, error) {
	prefix := namewords.FirstPrefix(d.Name)
	if prefix == "" {
		return nil, nil
	}

	ownProfile, err := e.Store.GetModuleProfile(ownModuleID)
	if err != nil || ownProfile == nil || namewords.Contains(ownProfile.FunctionNamePrefixes, prefix) {
		return nil, nil
	}

	modules, err := e.Store.GetAllModules()
	if err != nil {
		return nil, err
	}

	for _, m := range modules {
		if m.ID == ownModuleID {
			continue
		}
		profile, err := e.Store.GetModuleProfile(m.ID)
		if err != nil {
			// No profile yet for this module (not yet mapped) — skip
			// rather than treat GetModuleProfile's not-found case as a
			// hard failure of the whole compile.
			continue
		}
		if namewords.Contains(profile.FunctionNamePrefixes, prefix) {
			return &Violation{
				Code:            CodePlacement,
				Severity:        SeverityWarn,
				Category:        CategoryPlacement,
				Message:         fmt.Sprintf("%s's name prefix %q matches %s's responsibilities better than its own file", d.Name, prefix, profile.Path),
				File:            file,
				Line:            d.LineStart,
				Hash:            hash,
				SuggestedModule: profile.Path,
				FixHint:         fmt.Sprintf("consider moving %s into %s, or renaming it to match this file's naming", d.Name, profile.Path),
			}, nil
		}
	}

	return nil, nil
}
