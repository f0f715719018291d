package enforce

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/keel/internal/hashkit"
	"github.com/standardbeagle/keel/internal/types"
)

// compileFile runs the full per-file pipeline for one FileIndex in a
// compile batch: hash-update detection (E001), public-API hygiene
// (E002/E003), removed-definition detection (E004), duplicate-name
// detection (W002), node/edge commit, and arity checking (E005) against
// whatever the now-committed edges resolve to. It returns the raw
// (pre circuit-breaker, pre-suppression) violations plus a map of new
// hash -> old hash for every definition whose content changed.
func (e *Engine) compileFile(fi types.FileIndex) ([]Violation, map[string]string, error) {
	oldNodes, err := e.Store.GetNodesInFile(fi.File)
	if err != nil {
		return nil, nil, err
	}
	oldByName := make(map[string]types.GraphNode, len(oldNodes))
	for _, n := range oldNodes {
		oldByName[n.Name] = n
	}

	var violations []Violation
	hashesChanged := map[string]string{}

	newByName := make(map[string]types.Definition, len(fi.Definitions))
	for _, d := range fi.Definitions {
		newByName[d.Name] = d
	}

	committed := make([]*types.GraphNode, 0, len(fi.Definitions))
	keepNames := make([]string, 0, len(fi.Definitions))

	// The module definition must be upserted first so its ID is available
	// to set on every other node in this file before those rows are
	// written — mirroring mapengine's commitNodes (see its comment on why
	// patching ModuleID after the fact never reaches the stored row).
	var moduleNode *types.GraphNode
	for _, d := range fi.Definitions {
		if d.Kind != types.NodeKindModule {
			continue
		}
		hash := hashkit.HashDisambiguated(fi.File, d.Signature, d.Body, d.Docstring)
		keepNames = append(keepNames, d.Name)
		moduleNode = &types.GraphNode{
			Kind:        d.Kind,
			Hash:        hash,
			Name:        d.Name,
			Signature:   d.Signature,
			File:        fi.File,
			LineStart:   d.LineStart,
			LineEnd:     d.LineEnd,
			Docstring:   d.Docstring,
			IsPublic:    d.IsPublic,
			TypeHintsOK: d.TypeHintsOK,
			Package:     d.Package,
			Endpoints:   d.Endpoints,
		}
		moduleNode.HasDocstring = d.Docstring != ""
		if err := e.Store.UpsertNode(moduleNode); err != nil {
			return nil, nil, err
		}
		committed = append(committed, moduleNode)
		break
	}

	for _, d := range fi.Definitions {
		if d.Kind == types.NodeKindModule {
			continue
		}
		hash := hashkit.HashDisambiguated(fi.File, d.Signature, d.Body, d.Docstring)
		keepNames = append(keepNames, d.Name)

		if old, ok := oldByName[d.Name]; ok && old.Hash != hash {
			hashesChanged[hash] = old.Hash
			incoming, err := e.Store.GetIncomingEdges(old.ID)
			if err != nil {
				return nil, nil, err
			}
			if len(incoming) > 0 {
				violations = append(violations, brokenCallerViolation(d, fi.File, hash, incoming))
			}
		}

		node := &types.GraphNode{
			Kind:        d.Kind,
			Hash:        hash,
			Name:        d.Name,
			Signature:   d.Signature,
			File:        fi.File,
			LineStart:   d.LineStart,
			LineEnd:     d.LineEnd,
			Docstring:   d.Docstring,
			IsPublic:    d.IsPublic,
			TypeHintsOK: d.TypeHintsOK,
			Package:     d.Package,
			Endpoints:   d.Endpoints,
		}
		node.HasDocstring = d.Docstring != ""
		if moduleNode != nil {
			node.ModuleID = moduleNode.ID
		}
		if err := e.Store.UpsertNode(node); err != nil {
			return nil, nil, err
		}
		committed = append(committed, node)

		if v, ok := checkTypeHintsAndDocs(d, fi.File, hash, e.Cfg.Enforce.TypeHints, e.Cfg.Enforce.Docstrings); ok {
			violations = append(violations, v...)
		}
		if e.Cfg.Enforce.DuplicateNames {
			if v, err := e.checkDuplicateName(d, fi.File, hash); err != nil {
				return nil, nil, err
			} else if v != nil {
				violations = append(violations, *v)
			}
		}
		if e.Cfg.Enforce.Placement && d.Kind == types.NodeKindFunction && moduleNode != nil {
			if v, err := e.checkPlacement(d, fi.File, hash, moduleNode.ID); err != nil {
				return nil, nil, err
			} else if v != nil {
				violations = append(violations, *v)
			}
		}
	}

	for name, old := range oldByName {
		if _, stillPresent := newByName[name]; stillPresent {
			continue
		}
		incoming, err := e.Store.GetIncomingEdges(old.ID)
		if err != nil {
			return nil, nil, err
		}
		if len(incoming) > 0 {
			violations = append(violations, functionRemovedViolation(old, incoming))
		}
	}

	if err := e.Store.DeleteNodesNotIn(fi.File, keepNames); err != nil {
		return nil, nil, err
	}

	edges, arityViolations, err := e.buildEdgesAndCheckArity(fi, committed)
	if err != nil {
		return nil, nil, err
	}
	violations = append(violations, arityViolations...)

	if err := e.Store.ReplaceEdgesFromFile(fi.File, edges); err != nil {
		return nil, nil, err
	}

	return violations, hashesChanged, nil
}

func brokenCallerViolation(d types.Definition, file, hash string, incoming []types.GraphEdge) Violation {
	affected := make([]AffectedNode, 0, len(incoming))
	for _, e := range incoming {
		affected = append(affected, AffectedNode{File: e.File, Line: e.Line})
	}
	return Violation{
		Code:     CodeBrokenCaller,
		Severity: SeverityError,
		Category: CategoryBrokenCaller,
		Message:  fmt.Sprintf("%s's signature changed and %d caller(s) reference the old version", d.Name, len(incoming)),
		File:     file,
		Line:     d.LineStart,
		Hash:     hash,
		Affected: affected,
		FixHint:  "update every caller to the new signature, or revert the change",
	}
}

func functionRemovedViolation(old types.GraphNode, incoming []types.GraphEdge) Violation {
	affected := make([]AffectedNode, 0, len(incoming))
	for _, e := range incoming {
		affected = append(affected, AffectedNode{File: e.File, Line: e.Line})
	}
	return Violation{
		Code:     CodeFunctionRemoved,
		Severity: SeverityError,
		Category: CategoryFunctionRemoved,
		Message:  fmt.Sprintf("%s was removed but %d caller(s) still reference it", old.Name, len(incoming)),
		File:     old.File,
		Line:     old.LineStart,
		Hash:     old.Hash,
		Affected: affected,
		FixHint:  "restore the definition, or update every caller to stop referencing it",
	}
}

func checkTypeHintsAndDocs(d types.Definition, file, hash string, checkTypeHints, checkDocstrings bool) ([]Violation, bool) {
	if !d.IsPublic {
		return nil, false
	}
	var out []Violation
	if checkTypeHints && !d.TypeHintsOK {
		out = append(out, Violation{
			Code:     CodeMissingTypeHints,
			Severity: SeverityError,
			Category: CategoryMissingTypeHints,
			Message:  fmt.Sprintf("%s is public but has no type annotations", d.Name),
			File:     file,
			Line:     d.LineStart,
			Hash:     hash,
			FixHint:  "add parameter and return type annotations",
		})
	}
	if checkDocstrings && d.Docstring == "" {
		out = append(out, Violation{
			Code:     CodeMissingDocstring,
			Severity: SeverityError,
			Category: CategoryMissingDocstring,
			Message:  fmt.Sprintf("%s is public but has no documentation comment", d.Name),
			File:     file,
			Line:     d.LineStart,
			Hash:     hash,
			FixHint:  "add a doc comment describing what this does and why",
		})
	}
	return out, len(out) > 0
}

// isTestFile is the non-test-file filter W002 uses: a filename
// containing "test" (any case, any position in
// the stem) is excluded from duplicate-name checks, since test doubles
// and fixtures legitimately reuse production names.
func isTestFile(file string) bool {
	return strings.Contains(strings.ToLower(file), "test")
}

func (e *Engine) checkDuplicateName(d types.Definition, file, hash string) (*Violation, error) {
	if isTestFile(file) {
		return nil, nil
	}
	matches, err := e.Store.FindNodesByName(d.Name)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if m.File == file || isTestFile(m.File) {
			continue
		}
		v := Violation{
			Code:     CodeDuplicateName,
			Severity: SeverityWarn,
			Category: CategoryDuplicateName,
			Message:  fmt.Sprintf("%s is also defined in %s", d.Name, m.File),
			File:     file,
			Line:     d.LineStart,
			Hash:     hash,
			Existing: m.File,
			FixHint:  "rename one of the two definitions, or consolidate them into a shared module",
		}
		return &v, nil
	}
	return nil, nil
}
