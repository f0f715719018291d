package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/standardbeagle/keel/internal/enforce"
	"github.com/standardbeagle/keel/internal/errkit"
	"github.com/standardbeagle/keel/internal/types"
	"github.com/standardbeagle/keel/internal/walk"
)

type compileRequest struct {
	Files      []string `json:"files"`
	Strict     bool     `json:"strict"`
	BatchStart bool     `json:"batch_start"`
	BatchEnd   bool     `json:"batch_end"`
	Suppress   []string `json:"suppress"`
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	if r.Body != nil {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			writeError(w, http.StatusBadRequest, "compile", fmt.Errorf("invalid request body: %w", err))
			return
		}
	}

	files, err := s.scopeFiles(req.Files)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "compile", err)
		return
	}
	batch, err := s.parseFiles(files)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "compile", err)
		return
	}

	result, err := s.enforcer.Compile(batch, enforce.Options{
		BatchStart: req.BatchStart,
		BatchEnd:   req.BatchEnd,
		Suppress:   req.Suppress,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "compile", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	depth := depthParam(r, 1)
	suggestPlacement := r.URL.Query().Get("suggest_placement") == "true"

	result, err := s.disc.Discover(hash, depth, suggestPlacement)
	if err != nil {
		writeNotFoundAware(w, "discover", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleWhere(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	result, err := s.disc.Where(hash)
	if err != nil {
		writeNotFoundAware(w, "where", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type explainRequest struct {
	Code string `json:"code"`
	Hash string `json:"hash"`
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "explain", fmt.Errorf("invalid request body: %w", err))
		return
	}
	result, err := s.disc.Explain(req.Code, req.Hash)
	if err != nil {
		writeNotFoundAware(w, "explain", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeNotFoundAware maps a read-only query miss to 404, matching the
// CLI's exit-2 convention for the same error kind (§7).
func writeNotFoundAware(w http.ResponseWriter, op string, err error) {
	var nf *errkit.NotFoundError
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, op, err)
		return
	}
	writeError(w, http.StatusInternalServerError, op, err)
}

// parseFiles mirrors cmd/keel's and mcpserver's helper of the same
// name: re-parse each scoped file into a FileIndex for compile,
// skipping any file whose parse fails rather than aborting the batch.
func (s *Server) parseFiles(files []walk.File) ([]types.FileIndex, error) {
	var batch []types.FileIndex
	for _, f := range files {
		content, err := os.ReadFile(f.Abs)
		if err != nil {
			return nil, &errkit.IoFailureError{Op: "read", Path: f.Abs, Underlying: err}
		}
		pr, err := s.parsers.ParseFile(f.Path, content)
		if err != nil {
			continue
		}
		batch = append(batch, types.FileIndex{
			File:        pr.File,
			Definitions: pr.Definitions,
			References:  pr.References,
			Imports:     pr.Imports,
			Endpoints:   pr.Endpoints,
		})
	}
	return batch, nil
}
