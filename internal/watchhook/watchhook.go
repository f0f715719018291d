// Package watchhook is the integration point the core exposes for the
// out-of-scope file-watching collaborator (§1, §D): it recursively
// watches a project root with fsnotify and debounces raw filesystem
// events down to a deduplicated, language-filtered batch of changed
// repository-relative paths, handed to a caller-supplied callback. No
// command in `cmd/keel` uses it. It does not itself call compile or
// touch the graph store; §1
// keeps file watching an external collaborator, so this package stops
// at "here is what changed."
package watchhook

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/keel/internal/klog"
	"github.com/standardbeagle/keel/internal/walk"
)

// defaultDebounce coalesces bursts of events (a save that touches a
// file twice, an editor's swap-file dance) into a single callback.
const defaultDebounce = 300 * time.Millisecond

// Hook watches root and reports changed files through OnBatch.
type Hook struct {
	root      string
	languages []string
	ignore    *walk.IgnoreSet
	debounce  time.Duration

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer

	flushMu sync.Mutex // serializes flush, so OnBatch calls never overlap

	// OnBatch receives the deduplicated, language-filtered set of
	// repository-relative paths that changed since the last batch. It
	// is called from a debounce timer goroutine, never concurrently.
	OnBatch func(paths []string)
}

// New builds a Hook rooted at root. languages restricts which file
// extensions are reported (empty means all of walk.LanguageExtensions);
// ignore is applied the same way Walk applies it.
func New(root string, languages []string, ignore *walk.IgnoreSet) (*Hook, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if ignore == nil {
		ignore = walk.NewIgnoreSet(nil)
	}
	return &Hook{
		root:      root,
		languages: languages,
		ignore:    ignore,
		debounce:  defaultDebounce,
		watcher:   w,
		pending:   make(map[string]struct{}),
	}, nil
}

// Start adds watches for every directory under root and begins
// processing events until ctx is cancelled or Stop is called.
func (h *Hook) Start(ctx context.Context) error {
	log := klog.For(klog.CategoryWatch)
	if err := h.addWatches(h.root); err != nil {
		return err
	}
	log.Infow("watch hook starting", "root", h.root)
	go h.run(ctx)
	return nil
}

// Stop closes the underlying fsnotify watcher, unblocking run.
func (h *Hook) Stop() error {
	return h.watcher.Close()
}

// addWatches recursively registers a watch on every non-ignored
// directory under root, the same "watch every directory, filter
// events on arrival" strategy as the recursion-unaware fsnotify API
// forces on any caller.
func (h *Hook) addWatches(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel != "." && h.ignore.Matches(rel+"/") {
			return filepath.SkipDir
		}
		if err := h.watcher.Add(path); err != nil {
			return nil
		}
		return nil
	})
}

// run drains fsnotify events until ctx is cancelled or the watcher is
// closed, debouncing changes into batched OnBatch calls.
func (h *Hook) run(ctx context.Context) {
	log := klog.For(klog.CategoryWatch)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			h.handleEvent(event)
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			log.Warnw("watch hook error", "error", err)
		}
	}
}

func (h *Hook) handleEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(h.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if h.ignore.Matches(rel) {
		return
	}
	if event.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
			_ = h.watcher.Add(event.Name)
		}
	}
	if !h.matchesLanguage(rel) {
		return
	}
	h.queue(rel)
}

func (h *Hook) matchesLanguage(rel string) bool {
	ext := strings.ToLower(filepath.Ext(rel))
	if len(h.languages) == 0 {
		for _, exts := range walk.LanguageExtensions {
			for _, e := range exts {
				if e == ext {
					return true
				}
			}
		}
		return false
	}
	for _, lang := range h.languages {
		for _, e := range walk.LanguageExtensions[lang] {
			if e == ext {
				return true
			}
		}
	}
	return false
}

func (h *Hook) queue(rel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.pending[rel] = struct{}{}
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = time.AfterFunc(h.debounce, h.flush)
}

func (h *Hook) flush() {
	h.flushMu.Lock()
	defer h.flushMu.Unlock()

	h.mu.Lock()
	pending := h.pending
	h.pending = make(map[string]struct{})
	h.mu.Unlock()

	if len(pending) == 0 || h.OnBatch == nil {
		return
	}
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	h.OnBatch(paths)
}
