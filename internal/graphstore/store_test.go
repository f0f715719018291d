package graphstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/keel/internal/errkit"
	"github.com/standardbeagle/keel/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertNode_InsertThenUpdate_TracksPreviousHash(t *testing.T) {
	s := newTestStore(t)

	n := &types.GraphNode{Kind: types.NodeKindFunction, Hash: "AAAAAAAAAAA", Name: "Foo", File: "a.go", LineStart: 1, LineEnd: 3}
	require.NoError(t, s.UpsertNode(n))
	firstID := n.ID

	n2 := &types.GraphNode{Kind: types.NodeKindFunction, Hash: "BBBBBBBBBBB", Name: "Foo", File: "a.go", LineStart: 1, LineEnd: 4}
	require.NoError(t, s.UpsertNode(n2))
	assert.Equal(t, firstID, n2.ID, "same file+name+kind updates in place")

	fetched, err := s.GetNodeByID(n2.ID)
	require.NoError(t, err)
	assert.Equal(t, "BBBBBBBBBBB", fetched.Hash)
	require.Len(t, fetched.PreviousHashes, 1)
	assert.Equal(t, "AAAAAAAAAAA", fetched.PreviousHashes[0])
}

func TestUpsertNode_PreviousHashesCappedAtThree(t *testing.T) {
	s := newTestStore(t)
	n := &types.GraphNode{Kind: types.NodeKindFunction, Hash: "H0000000000", Name: "Foo", File: "a.go"}
	require.NoError(t, s.UpsertNode(n))
	for _, h := range []string{"H0000000001", "H0000000002", "H0000000003", "H0000000004"} {
		n.Hash = h
		require.NoError(t, s.UpsertNode(n))
	}
	fetched, err := s.GetNodeByID(n.ID)
	require.NoError(t, err)
	assert.Len(t, fetched.PreviousHashes, maxPreviousHashes)
}

func TestUpsertNode_HashCollisionRejected(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.UpsertNode(&types.GraphNode{Kind: types.NodeKindFunction, Hash: "SAMEHASH000", Name: "Foo", File: "a.go"}))

	err := s.UpsertNode(&types.GraphNode{Kind: types.NodeKindFunction, Hash: "SAMEHASH000", Name: "Bar", File: "b.go"})
	require.Error(t, err)
	var collision *errkit.HashCollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, "Foo", collision.ExistingName)
	assert.Equal(t, "Bar", collision.NewName)
}

func TestReplaceEdgesFromFile(t *testing.T) {
	s := newTestStore(t)
	a := &types.GraphNode{Kind: types.NodeKindFunction, Hash: "AAAAAAAAAAA", Name: "A", File: "a.go"}
	b := &types.GraphNode{Kind: types.NodeKindFunction, Hash: "BBBBBBBBBBB", Name: "B", File: "a.go"}
	require.NoError(t, s.UpsertNode(a))
	require.NoError(t, s.UpsertNode(b))

	require.NoError(t, s.ReplaceEdgesFromFile("a.go", []types.GraphEdge{
		{SourceID: a.ID, TargetID: b.ID, Kind: types.EdgeKindCalls, File: "a.go", Line: 2, Confidence: 0.95},
	}))

	edges, err := s.GetOutgoingEdges(a.ID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, b.ID, edges[0].TargetID)

	require.NoError(t, s.ReplaceEdgesFromFile("a.go", nil))
	edges, err = s.GetOutgoingEdges(a.ID)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestCleanupOrphanedEdges(t *testing.T) {
	s := newTestStore(t)
	a := &types.GraphNode{Kind: types.NodeKindFunction, Hash: "AAAAAAAAAAA", Name: "A", File: "a.go"}
	require.NoError(t, s.UpsertNode(a))
	// Open enables foreign keys, which would reject an edge to a missing
	// node; turn them off so an orphaned edge can exist to be cleaned up.
	_, err := s.db.Exec("PRAGMA foreign_keys=OFF")
	require.NoError(t, err)
	require.NoError(t, s.ReplaceEdgesFromFile("a.go", []types.GraphEdge{
		{SourceID: a.ID, TargetID: 999999, Kind: types.EdgeKindCalls, File: "a.go", Line: 1},
	}))
	n, err := s.CleanupOrphanedEdges()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestModuleProfile_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	p := types.ModuleProfile{
		ModuleID: 1, Path: "internal/foo", FunctionCount: 3,
		ResponsibilityWords: []string{"valid", "process", "store"},
	}
	require.NoError(t, s.UpsertModuleProfile(p))

	fetched, err := s.GetModuleProfile(1)
	require.NoError(t, err)
	assert.Equal(t, "internal/foo", fetched.Path)
	assert.Equal(t, []string{"valid", "process", "store"}, fetched.ResponsibilityWords)

	byPrefix, err := s.FindModulesByPrefix("internal/")
	require.NoError(t, err)
	require.Len(t, byPrefix, 1)
}

func TestCircuitBreaker_SaveLoadReset(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveCircuitBreakerEntry(types.CircuitBreakerEntry{Code: "E001", Hash: "AAAAAAAAAAA", ConsecutiveFailures: 3, Downgraded: true}))

	entries, err := s.LoadCircuitBreaker()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Downgraded)

	require.NoError(t, s.ResetCircuitBreakerEntry("E001", "AAAAAAAAAAA"))
	entries, err = s.LoadCircuitBreaker()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
