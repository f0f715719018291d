package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/keel/internal/enforce"
	"github.com/standardbeagle/keel/internal/errkit"
	"github.com/standardbeagle/keel/internal/types"
	"github.com/standardbeagle/keel/internal/walk"
)

func jsonResult(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(content)}}}, nil
}

func errResult(op string, err error) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"success": false, "operation": op, "error": err.Error()})
}

type compileParams struct {
	Files      []string `json:"files"`
	Strict     bool     `json:"strict"`
	BatchStart bool     `json:"batch_start"`
	BatchEnd   bool     `json:"batch_end"`
	Suppress   []string `json:"suppress"`
}

func (s *Server) handleCompile(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p compileParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errResult("compile", fmt.Errorf("invalid parameters: %w", err))
	}

	files, err := s.scopeFiles(p.Files)
	if err != nil {
		return errResult("compile", err)
	}
	batch, err := s.parseFiles(files)
	if err != nil {
		return errResult("compile", err)
	}

	result, err := s.enforcer.Compile(batch, enforce.Options{
		BatchStart: p.BatchStart,
		BatchEnd:   p.BatchEnd,
		Suppress:   p.Suppress,
	})
	if err != nil {
		return errResult("compile", err)
	}
	return jsonResult(result)
}

type mapParams struct {
	Strict bool `json:"strict"`
}

func (s *Server) handleMap(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p mapParams
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
			return errResult("map", fmt.Errorf("invalid parameters: %w", err))
		}
	}
	result, err := s.mapper.Run(ctx, s.root)
	if err != nil {
		return errResult("map", err)
	}
	return jsonResult(result)
}

type discoverParams struct {
	Hash             string `json:"hash"`
	Depth            int    `json:"depth"`
	SuggestPlacement bool   `json:"suggest_placement"`
}

func (s *Server) handleDiscover(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p discoverParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errResult("discover", fmt.Errorf("invalid parameters: %w", err))
	}
	result, err := s.disc.Discover(p.Hash, p.Depth, p.SuggestPlacement)
	if err != nil {
		return errResult("discover", err)
	}
	return jsonResult(result)
}

type whereParams struct {
	Hash string `json:"hash"`
}

func (s *Server) handleWhere(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p whereParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errResult("where", fmt.Errorf("invalid parameters: %w", err))
	}
	result, err := s.disc.Where(p.Hash)
	if err != nil {
		return errResult("where", err)
	}
	return jsonResult(result)
}

type explainParams struct {
	Code string `json:"code"`
	Hash string `json:"hash"`
}

func (s *Server) handleExplain(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p explainParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return errResult("explain", fmt.Errorf("invalid parameters: %w", err))
	}
	result, err := s.disc.Explain(p.Code, p.Hash)
	if err != nil {
		return errResult("explain", err)
	}
	return jsonResult(result)
}

// parseFiles re-parses each discovered file into a FileIndex for
// compile, skipping (per §7's ParseFailure policy) any file whose
// parse fails rather than aborting the whole batch.
func (s *Server) parseFiles(files []walk.File) ([]types.FileIndex, error) {
	var batch []types.FileIndex
	for _, f := range files {
		content, err := os.ReadFile(f.Abs)
		if err != nil {
			return nil, &errkit.IoFailureError{Op: "read", Path: f.Abs, Underlying: err}
		}
		pr, err := s.parsers.ParseFile(f.Path, content)
		if err != nil {
			continue
		}
		batch = append(batch, types.FileIndex{
			File:        pr.File,
			Definitions: pr.Definitions,
			References:  pr.References,
			Imports:     pr.Imports,
			Endpoints:   pr.Endpoints,
		})
	}
	return batch, nil
}
