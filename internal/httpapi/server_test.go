package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
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

	return New(store, cfg, root, nil, "127.0.0.1:0"), root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestHandleHealth_ReportsOK(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleCompile_CleanFileReturnsNoViolations(t *testing.T) {
	s, _ := newTestServer(t)
	payload := `{"files":["greet.go"]}`
	req := httptest.NewRequest(http.MethodPost, "/compile", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body, "error")
}

func TestHandleWhere_UnknownHashReturns404(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/where/does-not-exist", nil)
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
}

func TestHandleDiscoverAndExplain_RoundTrip(t *testing.T) {
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

	req := httptest.NewRequest(http.MethodGet, "/discover/"+hash+"?depth=1", nil)
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	explainPayload := `{"code":"E004","hash":"` + hash + `"}`
	req = httptest.NewRequest(http.MethodPost, "/explain", strings.NewReader(explainPayload))
	rec = httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
