// Package fixplan implements §4.8: per-violation FixPlan generation,
// optional best-effort write-apply, and a recompile-verify pass. It
// has no persisted violation table to read from, so planning always
// starts with a fresh compile over the requested scope — the same way
// the CLI's `fix` command is the only consumer that needs both a
// compile result and something to act on it.
package fixplan

import (
	"os"
	"path/filepath"

	"github.com/standardbeagle/keel/internal/config"
	"github.com/standardbeagle/keel/internal/enforce"
	"github.com/standardbeagle/keel/internal/errkit"
	"github.com/standardbeagle/keel/internal/graphstore"
	"github.com/standardbeagle/keel/internal/klog"
	"github.com/standardbeagle/keel/internal/langparse"
	"github.com/standardbeagle/keel/internal/types"
	"github.com/standardbeagle/keel/internal/walk"
)

// ResultVersion is the schema version stamped on FixResult.
const ResultVersion = "1"

// Action is one edit a plan proposes (§4.8): a located old_text to
// replace with new_text, or (when old_text is empty) a line to insert
// new_text before.
type Action struct {
	File        string `json:"file"`
	Line        int    `json:"line"`
	OldText     string `json:"old_text"`
	NewText     string `json:"new_text"`
	Description string `json:"description"`
}

// FixPlan is one violation's proposed remedy.
type FixPlan struct {
	Code       string   `json:"code"`
	Hash       string   `json:"hash"`
	Category   string   `json:"category"`
	TargetName string   `json:"target_name"`
	Cause      string   `json:"cause"`
	Actions    []Action `json:"actions"`

	Applied      bool `json:"applied"`
	ActionFailed bool `json:"action_failed"`
}

// FixResult is `fix`'s wire shape.
type FixResult struct {
	Version string `json:"version"`
	Command string `json:"command"`

	Plans []FixPlan `json:"plans"`

	Applied    bool `json:"applied"`
	CleanAfter bool `json:"clean_after,omitempty"`
}

// Engine wires the fix planner's collaborators: a fresh enforcement
// run supplies the violations a plan is generated from, and a
// langparse registry re-parses files after `--apply` writes them, for
// the recompile-verify step.
type Engine struct {
	Store *graphstore.Store
	Cfg   *config.Config
	Root  string

	enforcer *enforce.Engine
	parsers  *langparse.Registry
}

// New builds an Engine rooted at projectRoot.
func New(store *graphstore.Store, cfg *config.Config, projectRoot string) *Engine {
	return &Engine{
		Store:    store,
		Cfg:      cfg,
		Root:     projectRoot,
		enforcer: enforce.New(store, cfg),
		parsers:  langparse.New(),
	}
}

// Plan generates fix plans for the requested hashes (or, if hashes is
// empty, for one file), optionally applying them and recompiling to
// verify. An empty hashes slice with a non-empty file scopes to every
// violation found in that file; both empty scopes to the whole
// project.
func (e *Engine) Plan(hashes []string, file string, apply bool) (*FixResult, error) {
	log := klog.For(klog.CategoryFix)

	files, err := e.scopeFiles(file)
	if err != nil {
		return nil, err
	}
	batch, err := e.parseFiles(files)
	if err != nil {
		return nil, err
	}

	compileResult, err := e.enforcer.Compile(batch, enforce.Options{})
	if err != nil {
		return nil, err
	}

	wanted := map[string]bool{}
	for _, h := range hashes {
		wanted[h] = true
	}

	all := append(append([]enforce.Violation{}, compileResult.Errors...), compileResult.Warnings...)
	var selected []enforce.Violation
	for _, v := range all {
		if len(wanted) > 0 && !wanted[v.Hash] {
			continue
		}
		if file != "" && v.File != file {
			continue
		}
		selected = append(selected, v)
	}

	result := &FixResult{Version: ResultVersion, Command: "fix"}
	for _, v := range selected {
		plan, err := e.buildPlan(v)
		if err != nil {
			return nil, err
		}
		result.Plans = append(result.Plans, *plan)
	}

	if !apply {
		return result, nil
	}

	result.Applied = true
	for i := range result.Plans {
		ok, err := e.applyPlan(&result.Plans[i])
		if err != nil {
			return nil, err
		}
		result.Plans[i].Applied = ok
		result.Plans[i].ActionFailed = !ok
	}

	verifyBatch, err := e.parseFiles(files)
	if err != nil {
		return nil, err
	}
	verify, err := e.enforcer.Compile(verifyBatch, enforce.Options{})
	if err != nil {
		return nil, err
	}
	result.CleanAfter = verify.Clean

	log.Infow("fix apply finished", "plans", len(result.Plans), "clean_after", result.CleanAfter)
	return result, nil
}

func (e *Engine) scopeFiles(file string) ([]walk.File, error) {
	if file != "" {
		abs := filepath.Join(e.Root, file)
		if _, err := os.Stat(abs); err != nil {
			return nil, &errkit.IoFailureError{Op: "stat", Path: abs, Underlying: err}
		}
		return []walk.File{{Path: file, Abs: abs}}, nil
	}
	ignore := walk.NewIgnoreSet(nil)
	return walk.Walk(e.Root, e.Cfg.Languages, ignore)
}

func (e *Engine) parseFiles(files []walk.File) ([]types.FileIndex, error) {
	var batch []types.FileIndex
	for _, f := range files {
		content, err := os.ReadFile(f.Abs)
		if err != nil {
			return nil, &errkit.IoFailureError{Op: "read", Path: f.Abs, Underlying: err}
		}
		pr, err := e.parsers.ParseFile(f.Path, content)
		if err != nil {
			continue // ParseFailure: this file contributes nothing (§7)
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
