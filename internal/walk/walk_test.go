package walk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalk_SkipsIgnoredDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main")
	writeFile(t, root, "vendor/dep/dep.go", "package dep")
	writeFile(t, root, "node_modules/pkg/index.js", "module.exports = {}")

	files, err := Walk(root, nil, NewIgnoreSet(nil))
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	assert.Contains(t, paths, "main.go")
	assert.NotContains(t, paths, "vendor/dep/dep.go")
	assert.NotContains(t, paths, "node_modules/pkg/index.js")
}

func TestWalk_FiltersByLanguage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a")
	writeFile(t, root, "b.py", "def f(): pass")

	files, err := Walk(root, []string{"go"}, NewIgnoreSet(nil))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "a.go", files[0].Path)
	assert.Equal(t, "go", files[0].Language)
}

func TestIgnoreSet_CustomPattern(t *testing.T) {
	set := NewIgnoreSet([]string{"**/*.generated.go"})
	assert.True(t, set.Matches("pkg/foo.generated.go"))
	assert.False(t, set.Matches("pkg/foo.go"))
}
