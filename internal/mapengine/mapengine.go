// Package mapengine implements the full-repository scan (§4.5): walk the
// project tree, parse every supported source file, resolve every
// reference through the tiered resolver, compute module profiles, and
// commit the result into the graph store. It is the batch counterpart to
// a single-file compile; both share the same parse→resolve pipeline and
// both finish with the store's orphan-edge cleanup, but only mapengine
// owns the bounded parallel file-parse stage.
//
// The worker-pool shape is grounded on the pack's own full-project
// indexing pipeline (the errgroup-with-SetLimit pattern in
// other_examples' mycelium indexer pipeline), generalized from that
// repo's single-language parse step to one Registry per worker across
// ten grammars.
package mapengine

import (
	"context"

	"github.com/standardbeagle/keel/internal/config"
	"github.com/standardbeagle/keel/internal/errkit"
	"github.com/standardbeagle/keel/internal/graphstore"
	"github.com/standardbeagle/keel/internal/resolve"
	"github.com/standardbeagle/keel/internal/types"
)

// Result is the outcome of one full map run, the MapResult named in §6's
// structured-output contract.
type Result struct {
	Version string `json:"version"`
	Command string `json:"command"`

	FilesScanned int `json:"files_scanned"`
	FilesFailed  int `json:"files_failed"`

	NodesUpserted        int   `json:"nodes_upserted"`
	EdgesCommitted       int   `json:"edges_committed"`
	ModulesUpdated       int   `json:"modules_updated"`
	OrphanedEdgesRemoved int64 `json:"orphaned_edges_removed"`

	Errors []string `json:"errors,omitempty"`
}

// ResultVersion is the schema version stamped on every Result, per §6.
const ResultVersion = "1"

// Engine wires the map pipeline's collaborators: a graph store to commit
// into, the project configuration (languages, ignore list), and an
// optional Tier 3 semantic provider threaded through to the resolver.
type Engine struct {
	Store *graphstore.Store
	Cfg   *config.Config
	Tier3 resolve.Tier3Provider
}

// New builds an Engine. tier3 may be nil, which disables Tier 3
// resolution entirely for this run (§4.3's "absent means disabled").
func New(store *graphstore.Store, cfg *config.Config, tier3 resolve.Tier3Provider) *Engine {
	return &Engine{Store: store, Cfg: cfg, Tier3: tier3}
}

// Run performs one full map over projectRoot. It never returns a partial
// Result on a per-file failure — those are recorded in Errors and the
// run continues, per §7's ParseFailure policy — but a store-level
// failure (a failed commit) aborts the run and is returned as the error.
func (e *Engine) Run(ctx context.Context, projectRoot string) (*Result, error) {
	files, err := discoverFiles(projectRoot, e.Cfg)
	if err != nil {
		return nil, &errkit.IoFailureError{Op: "walk", Path: projectRoot, Underlying: err, SetupLevel: true}
	}

	parsed, parseErrs := parseAll(ctx, files)

	result := &Result{Version: ResultVersion, Command: "map", FilesScanned: len(files), FilesFailed: len(parseErrs)}
	for _, pe := range parseErrs {
		result.Errors = append(result.Errors, pe.Error())
	}

	idx := buildIndex(projectRoot, parsed)
	resolver := resolve.New(idx, e.Tier3)

	// Pass 1: settle every file's nodes and module profile first, so
	// pass 2 can resolve a cross-file edge target to a real node ID
	// regardless of which file committed it first (§4.5 step 7).
	nodesByFile := make(map[string][]*types.GraphNode, len(parsed))
	byHash := make(map[string]*types.GraphNode)
	for _, pf := range parsed {
		nodes, count, err := e.commitNodes(pf)
		if err != nil {
			return nil, err
		}
		nodesByFile[pf.File] = nodes
		for _, n := range nodes {
			byHash[n.Hash] = n
		}
		result.NodesUpserted += count
		result.ModulesUpdated++
	}

	// Pass 2: resolve references and commit edges now that every
	// file's nodes have stable IDs.
	for _, pf := range parsed {
		count, err := e.commitEdges(pf, nodesByFile[pf.File], byHash, resolver)
		if err != nil {
			return nil, err
		}
		result.EdgesCommitted += count
	}

	removed, err := e.Store.CleanupOrphanedEdges()
	if err != nil {
		return nil, err
	}
	result.OrphanedEdgesRemoved = removed

	return result, nil
}
