// Package httpapi implements `serve --http` (§6): a loopback-only HTTP
// surface exposing GET /health, POST /compile, GET /discover/{hash},
// GET /where/{hash}, and POST /explain. It serializes the same result
// structures as the CLI and the MCP server — no new result shapes live
// here, only the stdlib routing and JSON framing around them.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/standardbeagle/keel/internal/config"
	"github.com/standardbeagle/keel/internal/discover"
	"github.com/standardbeagle/keel/internal/enforce"
	"github.com/standardbeagle/keel/internal/graphstore"
	"github.com/standardbeagle/keel/internal/klog"
	"github.com/standardbeagle/keel/internal/langparse"
	"github.com/standardbeagle/keel/internal/mapengine"
	"github.com/standardbeagle/keel/internal/resolve"
	"github.com/standardbeagle/keel/internal/walk"
)

// Server wires keel's engines to a loopback HTTP surface.
type Server struct {
	store *graphstore.Store
	cfg   *config.Config
	root  string

	enforcer *enforce.Engine
	mapper   *mapengine.Engine
	disc     *discover.Engine
	parsers  *langparse.Registry

	http *http.Server
}

// New builds a Server rooted at projectRoot, backed by store. addr is
// the loopback address to bind, e.g. "127.0.0.1:4171".
func New(store *graphstore.Store, cfg *config.Config, projectRoot string, tier3 resolve.Tier3Provider, addr string) *Server {
	s := &Server{
		store:    store,
		cfg:      cfg,
		root:     projectRoot,
		enforcer: enforce.New(store, cfg),
		mapper:   mapengine.New(store, cfg, tier3),
		disc:     discover.New(store, cfg),
		parsers:  langparse.New(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /compile", s.handleCompile)
	mux.HandleFunc("GET /discover/{hash}", s.handleDiscover)
	mux.HandleFunc("GET /where/{hash}", s.handleWhere)
	mux.HandleFunc("POST /explain", s.handleExplain)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe binds addr and serves until Shutdown is called or the
// listener errors. Like the MCP server, there is no cooperative
// cancellation into an in-flight request — a dropped connection just
// discards its response (§3 Cancellation).
func (s *Server) ListenAndServe() error {
	log := klog.For(klog.CategoryHTTP)
	log.Infow("http server starting", "addr", s.http.Addr, "root", s.root)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests before closing.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) scopeFiles(requested []string) ([]walk.File, error) {
	if len(requested) > 0 {
		out := make([]walk.File, 0, len(requested))
		for _, f := range requested {
			out = append(out, walk.File{Path: f, Abs: filepath.Join(s.root, f)})
		}
		return out, nil
	}
	ignore := walk.NewIgnoreSet(nil)
	return walk.Walk(s.root, s.cfg.Languages, ignore)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, op string, err error) {
	writeJSON(w, status, map[string]any{"success": false, "operation": op, "error": err.Error()})
}

func depthParam(r *http.Request, def int) int {
	raw := r.URL.Query().Get("depth")
	if raw == "" {
		return def
	}
	d, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return d
}
