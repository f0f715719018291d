// Package discover implements the read-only graph queries layered on
// top of the stored call graph: discover (BFS context), where (locate),
// check (pre-edit risk), explain (violation reasoning), and analyze
// (per-file smells and refactoring opportunities). None of these
// operations reparse source; they work entirely from what `map` and
// `compile` already committed to the store (§4.7).
package discover

import (
	"github.com/standardbeagle/keel/internal/config"
	"github.com/standardbeagle/keel/internal/graphstore"
	"github.com/standardbeagle/keel/internal/klog"
	"github.com/standardbeagle/keel/internal/types"
)

const maxDiscoverDepth = 3

// Engine wires the query collaborators, mirroring enforce.Engine and
// mapengine.Engine's store+config shape.
type Engine struct {
	Store *graphstore.Store
	Cfg   *config.Config
}

// New builds an Engine.
func New(store *graphstore.Store, cfg *config.Config) *Engine {
	return &Engine{Store: store, Cfg: cfg}
}

// NodeInfo is the flattened view of a types.GraphNode used across every
// result type in this package.
type NodeInfo struct {
	Hash      string `json:"hash"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	File      string `json:"file"`
	LineStart int    `json:"line_start"`
	LineEnd   int    `json:"line_end"`
}

func nodeInfo(n *types.GraphNode) NodeInfo {
	return NodeInfo{
		Hash:      n.Hash,
		Name:      n.Name,
		Kind:      string(n.Kind),
		File:      n.File,
		LineStart: n.LineStart,
		LineEnd:   n.LineEnd,
	}
}

// DistanceEntry is one node reached during a BFS traversal, tagged with
// its hop distance from the traversal's origin.
type DistanceEntry struct {
	NodeInfo
	Distance int `json:"distance"`
}

// ModuleContext is the module-level summary discover attaches to its
// target (§4.7: "path, sibling functions, responsibility keywords,
// external endpoints").
type ModuleContext struct {
	Path                  string   `json:"path"`
	SiblingFunctions      []string `json:"sibling_functions"`
	ResponsibilityWords   []string `json:"responsibility_words"`
	ExternalEndpointCount int      `json:"external_endpoint_count"`
}

// DiscoverResult is discover's wire shape.
type DiscoverResult struct {
	Version string `json:"version"`
	Command string `json:"command"`

	Target     NodeInfo        `json:"target"`
	Upstream   []DistanceEntry `json:"upstream"`
	Downstream []DistanceEntry `json:"downstream"`
	Module     *ModuleContext  `json:"module,omitempty"`

	SuggestedModule string `json:"suggested_module,omitempty"`
}

// Discover runs the BFS described in §4.7: from the target node, walk
// outgoing edges (downstream, i.e. what the target calls) and incoming
// edges (upstream, i.e. what calls the target) up to depth hops,
// capped at maxDiscoverDepth regardless of the caller's request.
func (e *Engine) Discover(hash string, depth int, suggestPlacement bool) (*DiscoverResult, error) {
	log := klog.For(klog.CategoryResolve)

	if depth <= 0 || depth > maxDiscoverDepth {
		depth = maxDiscoverDepth
	}

	target, err := e.Store.FindNodeByHash(hash)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, errNotFound(hash)
	}

	upstream, err := e.bfs(target.ID, depth, e.Store.GetIncomingEdges, func(edge types.GraphEdge) int64 { return edge.SourceID })
	if err != nil {
		return nil, err
	}
	downstream, err := e.bfs(target.ID, depth, e.Store.GetOutgoingEdges, func(edge types.GraphEdge) int64 { return edge.TargetID })
	if err != nil {
		return nil, err
	}

	result := &DiscoverResult{
		Version:    ResultVersion,
		Command:    "discover",
		Target:     nodeInfo(target),
		Upstream:   upstream,
		Downstream: downstream,
	}

	if target.ModuleID != 0 {
		module, err := e.moduleContext(target)
		if err != nil {
			return nil, err
		}
		result.Module = module
	}

	if suggestPlacement && target.Kind == types.NodeKindFunction {
		suggestion, err := e.suggestPlacement(target)
		if err != nil {
			return nil, err
		}
		result.SuggestedModule = suggestion
	}

	log.Debugw("discover finished", "hash", hash, "upstream", len(upstream), "downstream", len(downstream))
	return result, nil
}

// bfs walks edges from start outward, hop by hop, using neighborFn to
// fetch the next layer's edges and pickID to pull the neighbor's node ID
// out of each edge (incoming edges carry the neighbor as SourceID,
// outgoing edges carry it as TargetID).
func (e *Engine) bfs(start int64, maxDepth int, neighborFn func(int64) ([]types.GraphEdge, error), pickID func(types.GraphEdge) int64) ([]DistanceEntry, error) {
	visited := map[int64]bool{start: true}
	frontier := []int64{start}
	var out []DistanceEntry

	for d := 1; d <= maxDepth && len(frontier) > 0; d++ {
		var next []int64
		for _, id := range frontier {
			edges, err := neighborFn(id)
			if err != nil {
				return nil, err
			}
			for _, edge := range edges {
				if edge.Kind != types.EdgeKindCalls {
					continue
				}
				neighborID := pickID(edge)
				if visited[neighborID] {
					continue
				}
				visited[neighborID] = true
				node, err := e.Store.GetNodeByID(neighborID)
				if err != nil {
					return nil, err
				}
				if node == nil {
					continue
				}
				out = append(out, DistanceEntry{NodeInfo: nodeInfo(node), Distance: d})
				next = append(next, neighborID)
			}
		}
		frontier = next
	}
	return out, nil
}

func (e *Engine) moduleContext(target *types.GraphNode) (*ModuleContext, error) {
	profile, err := e.Store.GetModuleProfile(target.ModuleID)
	if err != nil || profile == nil {
		// Unmapped module (no `map` run has profiled it yet) — discover
		// still returns the target and traversal, just without module
		// context, rather than failing the whole query.
		return nil, nil
	}
	siblings, err := e.Store.GetNodesInFile(target.File)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, s := range siblings {
		if s.Kind == types.NodeKindFunction && s.Name != target.Name {
			names = append(names, s.Name)
		}
	}
	return &ModuleContext{
		Path:                  profile.Path,
		SiblingFunctions:      names,
		ResponsibilityWords:   profile.ResponsibilityWords,
		ExternalEndpointCount: profile.ExternalEndpointCount,
	}, nil
}
