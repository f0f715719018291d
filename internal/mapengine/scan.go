package mapengine

import (
	"context"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/keel/internal/config"
	"github.com/standardbeagle/keel/internal/errkit"
	"github.com/standardbeagle/keel/internal/langparse"
	"github.com/standardbeagle/keel/internal/types"
	"github.com/standardbeagle/keel/internal/walk"
)

// parseWorkers bounds the file-parse worker pool (§5: "parallelism
// within the map engine is permitted at the file-parse stage"), sized
// the same as the pack's own indexing-pipeline precedent.
const parseWorkers = 8

// discoverFiles runs the filesystem walk (§4.5 step 1) with the
// project's configured language set and default ignore patterns.
func discoverFiles(projectRoot string, cfg *config.Config) ([]walk.File, error) {
	ignore := walk.NewIgnoreSet(nil)
	return walk.Walk(projectRoot, cfg.Languages, ignore)
}

// registryPool hands each goroutine its own langparse.Registry: a
// Registry's compiled tree-sitter parsers are not safe for concurrent
// reuse, so the pool gives every worker slot an isolated instance
// instead of sharing one across the errgroup, the same per-worker
// isolation the teacher's parser pool gives each borrowed parser.
var registryPool = sync.Pool{New: func() any { return langparse.New() }}

// parseAll parses files in parallel using an errgroup with a worker
// limit, grounded on the pack's own full-project indexing pipeline. A
// per-file parse failure is recovered into the returned error slice
// rather than aborting the batch (§7 ParseFailure policy); only a
// file-read failure on a file the walker already found is treated the
// same way, since it is just as recoverable per-file.
func parseAll(ctx context.Context, files []walk.File) ([]*types.ParseResult, []error) {
	results := make([]*types.ParseResult, len(files))
	errs := make([]error, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parseWorkers)

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			content, err := os.ReadFile(f.Abs)
			if err != nil {
				errs[i] = &errkit.IoFailureError{Op: "read", Path: f.Path, Underlying: err}
				return nil
			}

			reg := registryPool.Get().(*langparse.Registry)
			defer registryPool.Put(reg)

			pr, err := reg.ParseFile(f.Path, content)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = pr
			return nil
		})
	}
	_ = g.Wait()

	var parsed []*types.ParseResult
	var failures []error
	for i, r := range results {
		if errs[i] != nil {
			failures = append(failures, errs[i])
			continue
		}
		if r != nil {
			parsed = append(parsed, r)
		}
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].File < parsed[j].File })
	return parsed, failures
}
