package discover

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/keel/internal/config"
	"github.com/standardbeagle/keel/internal/errkit"
	"github.com/standardbeagle/keel/internal/graphstore"
	"github.com/standardbeagle/keel/internal/mapengine"
)

func newTestSetup(t *testing.T) (*Engine, *mapengine.Engine, string) {
	t.Helper()
	root := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "graph.db")
	store, err := graphstore.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	cfg.Languages = []string{"go"}
	mapper := mapengine.New(store, cfg, nil)
	return New(store, cfg), mapper, root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func hashOf(t *testing.T, e *Engine, file, name string) string {
	t.Helper()
	nodes, err := e.Store.GetNodesInFile(file)
	require.NoError(t, err)
	for _, n := range nodes {
		if n.Name == name {
			return n.Hash
		}
	}
	t.Fatalf("no node named %s in %s", name, file)
	return ""
}

func TestDiscover_BFSFindsUpstreamAndDownstream(t *testing.T) {
	e, mapper, root := newTestSetup(t)
	writeFile(t, root, "chain.go", `package chain

// Leaf does the base work.
func Leaf() int {
	return 1
}

// Middle calls Leaf.
func Middle() int {
	return Leaf()
}

// Top calls Middle.
func Top() int {
	return Middle()
}
`)
	_, err := mapper.Run(context.Background(), root)
	require.NoError(t, err)

	hash := hashOf(t, e, "chain.go", "Middle")
	result, err := e.Discover(hash, 0, false)
	require.NoError(t, err)
	assert.Equal(t, "Middle", result.Target.Name)
	require.Len(t, result.Upstream, 1)
	assert.Equal(t, "Top", result.Upstream[0].Name)
	require.Len(t, result.Downstream, 1)
	assert.Equal(t, "Leaf", result.Downstream[0].Name)
}

func TestDiscover_MissingHashReturnsNotFound(t *testing.T) {
	e, _, _ := newTestSetup(t)
	_, err := e.Discover("AAAAAAAAAAA", 0, false)
	require.Error(t, err)
	var nf *errkit.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestWhere_LocatesNode(t *testing.T) {
	e, mapper, root := newTestSetup(t)
	writeFile(t, root, "widget.go", `package widget

// Get fetches a widget by id.
func Get(id int) int {
	return id
}
`)
	_, err := mapper.Run(context.Background(), root)
	require.NoError(t, err)

	hash := hashOf(t, e, "widget.go", "Get")
	result, err := e.Where(hash)
	require.NoError(t, err)
	assert.Equal(t, "Get", result.Node.Name)
	assert.Equal(t, "widget.go", result.Node.File)
}

func TestCheck_NoCallersIsLowRisk(t *testing.T) {
	e, mapper, root := newTestSetup(t)
	writeFile(t, root, "lonely.go", `package lonely

// Orphan is never called.
func Orphan() int {
	return 1
}
`)
	_, err := mapper.Run(context.Background(), root)
	require.NoError(t, err)

	hash := hashOf(t, e, "lonely.go", "Orphan")
	result, err := e.Check(hash)
	require.NoError(t, err)
	assert.Equal(t, RiskLow, result.Risk)
	assert.Equal(t, 0, result.CallerCount)
}

func TestCheck_SingleSameFileCallerIsMediumRiskWithInlineSuggestion(t *testing.T) {
	e, mapper, root := newTestSetup(t)
	writeFile(t, root, "pair.go", `package pair

// Helper does one small thing.
func Helper() int {
	return 1
}

// Caller uses Helper.
func Caller() int {
	return Helper()
}
`)
	_, err := mapper.Run(context.Background(), root)
	require.NoError(t, err)

	hash := hashOf(t, e, "pair.go", "Helper")
	result, err := e.Check(hash)
	require.NoError(t, err)
	assert.Equal(t, RiskMedium, result.Risk)
	assert.Equal(t, 1, result.CallerCount)
	found := false
	for _, s := range result.Suggestions {
		if s != "" && s[0] == 's' {
			found = true
		}
	}
	assert.True(t, found, "expected an inlining suggestion, got %v", result.Suggestions)
}

func TestExplain_DetectsRenameViaPreviousHash(t *testing.T) {
	e, mapper, root := newTestSetup(t)
	writeFile(t, root, "rename.go", `package rename

// Original does a thing.
func Original() int {
	return 1
}
`)
	_, err := mapper.Run(context.Background(), root)
	require.NoError(t, err)
	oldHash := hashOf(t, e, "rename.go", "Original")

	writeFile(t, root, "rename.go", `package rename

// Original does the same thing, slightly bigger now.
func Original() int {
	return 1 + 1
}
`)
	_, err = mapper.Run(context.Background(), root)
	require.NoError(t, err)
	newHash := hashOf(t, e, "rename.go", "Original")
	require.NotEqual(t, oldHash, newHash)

	result, err := e.Explain("E004", oldHash)
	require.NoError(t, err)
	require.NotNil(t, result.Renamed)
	assert.Equal(t, newHash, result.Renamed.CurrentHash)
}

func TestAnalyze_FlagsOversizedFunctionAndMissingDocs(t *testing.T) {
	e, mapper, root := newTestSetup(t)

	var body string
	for i := 0; i < 110; i++ {
		body += "\t_ = 1\n"
	}
	writeFile(t, root, "big.go", "package big\n\nfunc Undocumented(x int) int {\n"+body+"\treturn x\n}\n")

	_, err := mapper.Run(context.Background(), root)
	require.NoError(t, err)

	result, err := e.Analyze("big.go")
	require.NoError(t, err)

	kinds := map[string]bool{}
	for _, s := range result.Smells {
		kinds[s.Kind] = true
	}
	assert.True(t, kinds["oversized_function"])
}

func TestAnalyze_UnknownFileReturnsNotFound(t *testing.T) {
	e, _, _ := newTestSetup(t)
	_, err := e.Analyze("nope.go")
	require.Error(t, err)
	var nf *errkit.NotFoundError
	require.ErrorAs(t, err, &nf)
}
