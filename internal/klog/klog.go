// Package klog is the category-scoped logger used throughout keel. It
// mirrors the teacher's debug-category idiom (a small set of named
// categories, a global MCPMode switch that silences stdio when a
// protocol server owns stdin/stdout) but backs every category with a
// real structured logger (go.uber.org/zap) instead of raw fmt.Fprintf,
// so every line carries leveled, queryable fields.
package klog

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category scopes a log line to a subsystem.
type Category string

const (
	CategoryParse   Category = "parse"
	CategoryResolve Category = "resolve"
	CategoryStore   Category = "store"
	CategoryMap     Category = "map"
	CategoryEnforce Category = "enforce"
	CategoryFix     Category = "fix"
	CategoryMCP     Category = "mcp"
	CategoryHTTP    Category = "http"
	CategoryConfig  Category = "config"
	CategoryCLI     Category = "cli"
	CategoryWatch   Category = "watch"
)

var (
	mu        sync.RWMutex
	base      *zap.Logger = zap.NewNop()
	mcpMode   bool
)

// Init installs the process-wide zap logger. verbose lowers the level to
// debug; jsonFormat switches the encoder to JSON (useful when output is
// consumed by a log shipper rather than a terminal).
func Init(verbose bool, jsonFormat bool) error {
	cfg := zap.NewProductionConfig()
	if !jsonFormat {
		cfg = zap.NewDevelopmentConfig()
	}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	mu.Lock()
	base = l
	mu.Unlock()
	return nil
}

// SetMCPMode suppresses all logging to stdio: an attached MCP server
// owns stdin/stdout as a wire channel, and a stray log line there would
// corrupt the JSON-RPC stream.
func SetMCPMode(enabled bool) {
	mu.Lock()
	mcpMode = enabled
	mu.Unlock()
}

// For scopes a logger to a category, returning a *zap.SugaredLogger so
// callers can pass structured fields (file, hash, code) cheaply.
func For(c Category) *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	if mcpMode {
		return zap.NewNop().Sugar()
	}
	return base.Sugar().With("category", string(c))
}

// Sync flushes any buffered log entries; call once before process exit.
func Sync() {
	mu.RLock()
	l := base
	mu.RUnlock()
	_ = l.Sync()
}
