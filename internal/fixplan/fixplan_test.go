package fixplan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/keel/internal/config"
	"github.com/standardbeagle/keel/internal/enforce"
	"github.com/standardbeagle/keel/internal/graphstore"
	"github.com/standardbeagle/keel/internal/mapengine"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "graph.db")
	store, err := graphstore.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	cfg.Languages = []string{"go"}
	mapper := mapengine.New(store, cfg, nil)
	_, err = mapper.Run(context.Background(), root)
	require.NoError(t, err)

	return New(store, cfg, root), root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPlan_MissingDocstringProducesInsertAction(t *testing.T) {
	e, root := newTestEngine(t)
	writeFile(t, root, "bare.go", `package bare

func DoThing(x int) int {
	return x
}
`)
	result, err := e.Plan(nil, "bare.go", false)
	require.NoError(t, err)
	require.Len(t, result.Plans, 1)
	plan := result.Plans[0]
	assert.Equal(t, enforce.CodeMissingDocstring, plan.Code)
	require.Len(t, plan.Actions, 1)
	assert.Empty(t, plan.Actions[0].OldText)
	assert.NotEmpty(t, plan.Actions[0].NewText)
}

func TestPlan_ApplyInsertsDocstringAndRecompilesClean(t *testing.T) {
	e, root := newTestEngine(t)
	writeFile(t, root, "bare.go", `package bare

func DoThing(x int) int {
	return x
}
`)
	result, err := e.Plan(nil, "bare.go", true)
	require.NoError(t, err)
	require.Len(t, result.Plans, 1)
	assert.True(t, result.Plans[0].Applied)

	content, err := os.ReadFile(filepath.Join(root, "bare.go"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "// DoThing")
}

func TestPlan_ScopesToRequestedHash(t *testing.T) {
	e, root := newTestEngine(t)
	writeFile(t, root, "two.go", `package two

func First(x int) int {
	return x
}

func Second(x int) int {
	return x
}
`)
	all, err := e.Plan(nil, "two.go", false)
	require.NoError(t, err)
	require.Len(t, all.Plans, 2)

	only, err := e.Plan([]string{all.Plans[0].Hash}, "", false)
	require.NoError(t, err)
	require.Len(t, only.Plans, 1)
	assert.Equal(t, all.Plans[0].Hash, only.Plans[0].Hash)
}
