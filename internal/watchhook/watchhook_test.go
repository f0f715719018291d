package watchhook

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/keel/internal/walk"
)

func TestHook_DebouncesAndFiltersByLanguage(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "existing.go"), []byte("package main\n"), 0o644))

	h, err := New(root, []string{"go"}, walk.NewIgnoreSet(nil))
	require.NoError(t, err)
	h.debounce = 50 * time.Millisecond

	var mu sync.Mutex
	var batches [][]string
	done := make(chan struct{}, 1)
	h.OnBatch = func(paths []string) {
		mu.Lock()
		batches = append(batches, paths)
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.Start(ctx))
	defer h.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "existing.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0o644))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a debounced batch")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, batches)
	found := false
	for _, b := range batches {
		for _, p := range b {
			if p == "existing.go" {
				found = true
			}
			assert.NotEqual(t, "notes.txt", p)
		}
	}
	assert.True(t, found, "expected existing.go to appear in a batch")
}

func TestHook_IgnoresPatternedPaths(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "vendor"), 0o755))

	h, err := New(root, []string{"go"}, walk.NewIgnoreSet(nil))
	require.NoError(t, err)
	h.debounce = 50 * time.Millisecond

	var got []string
	var mu sync.Mutex
	h.OnBatch = func(paths []string) {
		mu.Lock()
		got = append(got, paths...)
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.Start(ctx))
	defer h.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "vendor", "dep.go"), []byte("package dep\n"), 0o644))
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, got, "vendor/ should be ignored by the default pattern set")
}
