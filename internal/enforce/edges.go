package enforce

import (
	"fmt"

	"github.com/standardbeagle/keel/internal/types"
)

// buildEdgesAndCheckArity resolves every call reference in fi against
// the nodes just committed for this file plus the store's existing
// population, producing both the edges to persist and any E005
// arity-mismatch violations. Unlike the full map engine, compile
// operates over a small, possibly single-file batch, so its resolution
// is deliberately lighter: same-file definitions are matched directly
// against the committed set, and anything else falls back to an exact,
// unique store-wide name lookup rather than running the full tiered
// resolver — compile's job is catching structural regressions in the
// files just edited, not re-deriving project-wide call graph confidence
// (that is map's job).
func (e *Engine) buildEdgesAndCheckArity(fi types.FileIndex, committed []*types.GraphNode) ([]types.GraphEdge, []Violation, error) {
	byName := make(map[string]*types.GraphNode, len(committed))
	for _, n := range committed {
		byName[n.Name] = n
	}

	var edges []types.GraphEdge
	var violations []Violation

	for _, ref := range fi.References {
		if ref.Kind != types.ReferenceKindCall {
			continue
		}

		target := byName[ref.Name]
		if target == nil {
			matches, err := e.Store.FindNodesByName(ref.Name)
			if err != nil {
				return nil, nil, err
			}
			if len(matches) == 1 {
				m := matches[0]
				target = &m
			}
		}
		if target == nil {
			continue
		}

		if n := paramCount(target.Signature); !argCountMatches(ref.ArgCount, n) {
			violations = append(violations, Violation{
				Code:     CodeArityMismatch,
				Severity: SeverityError,
				Category: CategoryArityMismatch,
				Message:  fmt.Sprintf("call to %s passes %d argument(s), but its definition takes %d", ref.Name, ref.ArgCount, n),
				File:     fi.File,
				Line:     ref.Line,
				Hash:     target.Hash,
				FixHint:  "match the call site's argument count to the current definition",
			})
		}

		source := containingNode(committed, ref.Line)
		if source == nil {
			continue
		}
		confidence := 0.95
		if byName[ref.Name] == nil {
			confidence = 0.60 // resolved via the store-wide fallback, not same-file
		}
		edges = append(edges, types.GraphEdge{
			SourceID:   source.ID,
			TargetID:   target.ID,
			Kind:       types.EdgeKindCalls,
			File:       fi.File,
			Line:       ref.Line,
			Confidence: confidence,
		})
	}

	return edges, violations, nil
}

// containingNode mirrors mapengine's helper: the narrowest non-module
// definition whose line range contains line, falling back to the
// file's module node.
func containingNode(nodes []*types.GraphNode, line int) *types.GraphNode {
	var best *types.GraphNode
	bestSpan := -1
	for _, n := range nodes {
		if n.Kind == types.NodeKindModule {
			continue
		}
		if line < n.LineStart || line > n.LineEnd {
			continue
		}
		span := n.LineEnd - n.LineStart
		if best == nil || span < bestSpan {
			best = n
			bestSpan = span
		}
	}
	if best != nil {
		return best
	}
	for _, n := range nodes {
		if n.Kind == types.NodeKindModule {
			return n
		}
	}
	return nil
}
