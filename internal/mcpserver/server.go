// Package mcpserver implements `serve --mcp` (§6): a line-delimited
// JSON-RPC 2.0 server over stdin/stdout exposing keel/compile,
// keel/discover, keel/where, keel/explain, and keel/map alongside the
// protocol's own initialize and tools/list lifecycle methods. It is a
// thin adapter over the same engines the CLI drives — no result type
// here differs from what `cmd/keel` would print for `--json`.
package mcpserver

import (
	"context"
	"path/filepath"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/keel/internal/config"
	"github.com/standardbeagle/keel/internal/discover"
	"github.com/standardbeagle/keel/internal/enforce"
	"github.com/standardbeagle/keel/internal/graphstore"
	"github.com/standardbeagle/keel/internal/klog"
	"github.com/standardbeagle/keel/internal/langparse"
	"github.com/standardbeagle/keel/internal/mapengine"
	"github.com/standardbeagle/keel/internal/resolve"
	"github.com/standardbeagle/keel/internal/walk"
)

// Server wires keel's engines to an MCP tool surface.
type Server struct {
	store *graphstore.Store
	cfg   *config.Config
	root  string

	mcp      *mcp.Server
	enforcer *enforce.Engine
	mapper   *mapengine.Engine
	disc     *discover.Engine
	parsers  *langparse.Registry
}

// New builds a Server rooted at projectRoot, backed by store.
func New(store *graphstore.Store, cfg *config.Config, projectRoot string, tier3 resolve.Tier3Provider) *Server {
	s := &Server{
		store:    store,
		cfg:      cfg,
		root:     projectRoot,
		enforcer: enforce.New(store, cfg),
		mapper:   mapengine.New(store, cfg, tier3),
		disc:     discover.New(store, cfg),
		parsers:  langparse.New(),
	}
	s.mcp = mcp.NewServer(&mcp.Implementation{Name: "keel-mcp-server", Version: "1"}, nil)
	s.registerTools()
	return s
}

// Run serves the protocol over stdio until ctx is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	log := klog.For(klog.CategoryMCP)
	log.Infow("mcp server starting", "root", s.root)
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "keel/compile",
		Description: "Incrementally enforce the call-graph invariants over changed files and report violations.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"files":       {Type: "array", Items: &jsonschema.Schema{Type: "string"}, Description: "repository-relative files to compile; empty means the whole project"},
				"strict":      {Type: "boolean", Description: "accepted; does not change the result"},
				"batch_start": {Type: "boolean"},
				"batch_end":   {Type: "boolean"},
				"suppress":    {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			},
		},
	}, s.handleCompile)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "keel/map",
		Description: "Full remap of the project into the call graph.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"strict": {Type: "boolean"}},
		},
	}, s.handleMap)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "keel/discover",
		Description: "BFS the call graph from a node hash, returning upstream/downstream context.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"hash":              {Type: "string"},
				"depth":             {Type: "integer"},
				"suggest_placement": {Type: "boolean"},
			},
			Required: []string{"hash"},
		},
	}, s.handleDiscover)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "keel/where",
		Description: "Locate a node by hash.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"hash": {Type: "string"}},
			Required:   []string{"hash"},
		},
	}, s.handleWhere)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "keel/explain",
		Description: "Explain the reasoning chain behind a violation code for a node hash.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"code": {Type: "string"},
				"hash": {Type: "string"},
			},
			Required: []string{"code", "hash"},
		},
	}, s.handleExplain)
}

func (s *Server) scopeFiles(requested []string) ([]walk.File, error) {
	if len(requested) > 0 {
		out := make([]walk.File, 0, len(requested))
		for _, f := range requested {
			out = append(out, walk.File{Path: f, Abs: filepath.Join(s.root, f)})
		}
		return out, nil
	}
	ignore := walk.NewIgnoreSet(nil)
	return walk.Walk(s.root, s.cfg.Languages, ignore)
}
