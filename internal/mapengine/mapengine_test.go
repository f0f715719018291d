package mapengine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/keel/internal/config"
	"github.com/standardbeagle/keel/internal/graphstore"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	projectRoot := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "graph.db")
	store, err := graphstore.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	cfg.Languages = []string{"go"}
	return New(store, cfg, nil), projectRoot
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRun_SameFileCallResolvesToEdge(t *testing.T) {
	e, root := newTestEngine(t)
	writeFile(t, root, "a.go", `package a

func Helper() int {
	return 1
}

func Caller() int {
	return Helper()
}
`)

	result, err := e.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 0, result.FilesFailed)
	assert.True(t, result.EdgesCommitted >= 1)

	nodes, err := e.Store.GetNodesInFile("a.go")
	require.NoError(t, err)
	var caller *int64
	for _, n := range nodes {
		if n.Name == "Caller" {
			id := n.ID
			caller = &id
		}
	}
	require.NotNil(t, caller)
	edges, err := e.Store.GetOutgoingEdges(*caller)
	require.NoError(t, err)
	require.Len(t, edges, 1)
}

func TestRun_CrossFileCallResolvesToEdge(t *testing.T) {
	e, root := newTestEngine(t)
	writeFile(t, root, "lib.go", `package lib

func Add(a, b int) int {
	return a + b
}
`)
	writeFile(t, root, "main.go", `package main

func Run() int {
	return Add(1, 2)
}
`)

	result, err := e.Run(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, 0, result.FilesFailed)

	nodes, err := e.Store.GetNodesInFile("main.go")
	require.NoError(t, err)
	var runID int64
	for _, n := range nodes {
		if n.Name == "Run" {
			runID = n.ID
		}
	}
	require.NotZero(t, runID)

	edges, err := e.Store.GetOutgoingEdges(runID)
	require.NoError(t, err)
	require.Len(t, edges, 1)

	target, err := e.Store.GetNodeByID(edges[0].TargetID)
	require.NoError(t, err)
	assert.Equal(t, "Add", target.Name)
	assert.Equal(t, "lib.go", target.File)
}

func TestRun_ModuleProfileComputed(t *testing.T) {
	e, root := newTestEngine(t)
	writeFile(t, root, "widget.go", `package widget

// GetWidgetByID fetches a widget.
func GetWidgetByID(id int) int {
	return id
}

// SetWidgetName renames a widget.
func SetWidgetName(id int, name string) {
}
`)

	_, err := e.Run(context.Background(), root)
	require.NoError(t, err)

	nodes, err := e.Store.GetNodesInFile("widget.go")
	require.NoError(t, err)
	var moduleID int64
	for _, n := range nodes {
		if n.Name == "widget" {
			moduleID = n.ID
		}
	}
	require.NotZero(t, moduleID)

	profile, err := e.Store.GetModuleProfile(moduleID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, 2, profile.FunctionCount)
	assert.Contains(t, profile.FunctionNamePrefixes, "get")
	assert.Contains(t, profile.FunctionNamePrefixes, "set")
}

func TestRun_RemovedFunctionOrphansItsEdges(t *testing.T) {
	e, root := newTestEngine(t)
	writeFile(t, root, "lib.go", `package lib

func Add(a, b int) int {
	return a + b
}
`)
	writeFile(t, root, "main.go", `package main

func Run() int {
	return Add(1, 2)
}
`)

	_, err := e.Run(context.Background(), root)
	require.NoError(t, err)

	writeFile(t, root, "main.go", `package main

func Run() int {
	return 0
}
`)

	result, err := e.Run(context.Background(), root)
	require.NoError(t, err)

	nodes, err := e.Store.GetNodesInFile("main.go")
	require.NoError(t, err)
	var runID int64
	for _, n := range nodes {
		if n.Name == "Run" {
			runID = n.ID
		}
	}
	require.NotZero(t, runID)

	edges, err := e.Store.GetOutgoingEdges(runID)
	require.NoError(t, err)
	assert.Len(t, edges, 0)
	_ = result
}
