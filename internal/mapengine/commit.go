package mapengine

import (
	"github.com/standardbeagle/keel/internal/resolve"
	"github.com/standardbeagle/keel/internal/types"
)

// commitNodes upserts one file's nodes and module profile, returning the
// committed nodes so a second pass can resolve edges against every
// file's node IDs — not just the file being committed. Nodes must settle
// before any edge references them, since an edge's target may live in a
// file committed earlier in this same pass (§4.5 step 7).
func (e *Engine) commitNodes(pf *types.ParseResult) ([]*types.GraphNode, int, error) {
	nodes := make([]*types.GraphNode, 0, len(pf.Definitions))
	keepNames := make([]string, 0, len(pf.Definitions))

	// The module definition carries the file's ModuleID for every other
	// node, but langparse appends it last. Commit it first so its ID is
	// known before any other node in this file is upserted — upserting a
	// node with ModuleID unset and patching the field in memory afterward
	// would leave the stored row at ModuleID 0 forever.
	var moduleDef *types.Definition
	for i := range pf.Definitions {
		if pf.Definitions[i].Kind == types.NodeKindModule {
			moduleDef = &pf.Definitions[i]
			break
		}
	}

	var moduleNode *types.GraphNode
	if moduleDef != nil {
		moduleNode = &types.GraphNode{
			Kind:         moduleDef.Kind,
			Hash:         nodeHash(pf.File, *moduleDef),
			Name:         moduleDef.Name,
			Signature:    moduleDef.Signature,
			File:         pf.File,
			LineStart:    moduleDef.LineStart,
			LineEnd:      moduleDef.LineEnd,
			Docstring:    moduleDef.Docstring,
			IsPublic:     moduleDef.IsPublic,
			TypeHintsOK:  moduleDef.TypeHintsOK,
			HasDocstring: moduleDef.Docstring != "",
			Package:      moduleDef.Package,
			Endpoints:    moduleDef.Endpoints,
		}
		if err := e.Store.UpsertNode(moduleNode); err != nil {
			return nil, 0, err
		}
		nodes = append(nodes, moduleNode)
		keepNames = append(keepNames, moduleNode.Name)
	}

	for _, d := range pf.Definitions {
		if d.Kind == types.NodeKindModule {
			continue
		}
		n := &types.GraphNode{
			Kind:         d.Kind,
			Hash:         nodeHash(pf.File, d),
			Name:         d.Name,
			Signature:    d.Signature,
			File:         pf.File,
			LineStart:    d.LineStart,
			LineEnd:      d.LineEnd,
			Docstring:    d.Docstring,
			IsPublic:     d.IsPublic,
			TypeHintsOK:  d.TypeHintsOK,
			HasDocstring: d.Docstring != "",
			Package:      d.Package,
			Endpoints:    d.Endpoints,
		}
		if moduleNode != nil {
			n.ModuleID = moduleNode.ID
		}
		if err := e.Store.UpsertNode(n); err != nil {
			return nil, 0, err
		}
		nodes = append(nodes, n)
		keepNames = append(keepNames, d.Name)
	}

	if err := e.Store.DeleteNodesNotIn(pf.File, keepNames); err != nil {
		return nil, 0, err
	}

	if moduleNode != nil {
		profile := buildModuleProfile(moduleNode.ID, pf)
		if err := e.Store.UpsertModuleProfile(profile); err != nil {
			return nil, 0, err
		}
	}

	return nodes, len(nodes), nil
}

// commitEdges resolves every reference in pf against resolver and
// persists the resulting edges. byHash is the project-wide hash→node
// index built from every file's commitNodes call in this run, so a
// cross-file target resolves to a real node ID even though its file was
// committed earlier in the same pass.
func (e *Engine) commitEdges(pf *types.ParseResult, nodes []*types.GraphNode, byHash map[string]*types.GraphNode, resolver *resolve.Resolver) (int, error) {
	var edges []types.GraphEdge
	for _, ref := range pf.References {
		res := resolver.Resolve(ref, pf.File)
		if res.Hash == "" {
			continue
		}
		target, ok := byHash[res.Hash]
		if !ok {
			continue
		}
		source := containingNode(nodes, ref.Line)
		if source == nil {
			continue
		}
		edges = append(edges, types.GraphEdge{
			SourceID:   source.ID,
			TargetID:   target.ID,
			Kind:       types.EdgeKindCalls,
			File:       pf.File,
			Line:       ref.Line,
			Confidence: res.Confidence,
		})
	}
	if err := e.Store.ReplaceEdgesFromFile(pf.File, edges); err != nil {
		return 0, err
	}
	return len(edges), nil
}

// containingNode finds the narrowest non-module definition whose line
// range contains line, falling back to the file's module node (which
// always spans the whole file) when no function/class definition does.
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
