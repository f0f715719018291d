package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/keel/internal/config"
	"github.com/standardbeagle/keel/internal/graphstore"
	"github.com/standardbeagle/keel/internal/mapengine"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "graph.db")
	store, err := graphstore.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	cfg.Languages = []string{"go"}

	writeFile(t, root, "greet.go", `package greet

// Hello returns a friendly greeting for name.
func Hello(name string) string {
	return "hello " + name
}
`)

	mapper := mapengine.New(store, cfg, nil)
	_, err = mapper.Run(context.Background(), root)
	require.NoError(t, err)

	return New(store, cfg, root, nil), root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCallTool_MapReturnsModuleCount(t *testing.T) {
	s, _ := newTestServer(t)
	out, err := s.CallTool("keel/map", nil)
	require.NoError(t, err)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Contains(t, parsed, "modules_updated")
}

func TestCallTool_CompileReportsNoViolationsForDocumentedFunction(t *testing.T) {
	s, _ := newTestServer(t)
	out, err := s.CallTool("keel/compile", map[string]interface{}{
		"files": []string{"greet.go"},
	})
	require.NoError(t, err)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.NotContains(t, parsed, "error")
}

func TestCallTool_WhereUnknownHashReturnsError(t *testing.T) {
	s, _ := newTestServer(t)
	out, err := s.CallTool("keel/where", map[string]interface{}{"hash": "does-not-exist"})
	require.NoError(t, err)
	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, false, parsed["success"])
	assert.Equal(t, "where", parsed["operation"])
}

func TestCallTool_DiscoverAndExplainRoundTrip(t *testing.T) {
	s, root := newTestServer(t)

	modules, err := s.store.GetAllModules()
	require.NoError(t, err)
	var hash string
	for _, m := range modules {
		nodes, err := s.store.GetNodesInFile(m.File)
		require.NoError(t, err)
		for _, n := range nodes {
			if n.Name == "Hello" {
				hash = n.Hash
			}
		}
	}
	require.NotEmpty(t, hash, "expected Hello to be indexed under %s", root)

	out, err := s.CallTool("keel/discover", map[string]interface{}{"hash": hash, "depth": 1})
	require.NoError(t, err)
	var discoverResult map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &discoverResult))
	assert.NotContains(t, discoverResult, "error")

	out, err = s.CallTool("keel/explain", map[string]interface{}{"code": "E004", "hash": hash})
	require.NoError(t, err)
	var explainResult map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &explainResult))
	assert.NotContains(t, explainResult, "error")
}

func TestCallTool_UnknownToolNameErrors(t *testing.T) {
	s, _ := newTestServer(t)
	_, err := s.CallTool("keel/nope", nil)
	assert.Error(t, err)
}
