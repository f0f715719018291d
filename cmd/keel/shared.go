package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/keel/internal/config"
	"github.com/standardbeagle/keel/internal/errkit"
	"github.com/standardbeagle/keel/internal/graphstore"
)

// project bundles the opened store and loaded config every command
// after init needs; it is built fresh per-invocation since the CLI is
// a short-lived process (§3 Cancellation).
type project struct {
	root  string
	cfg   *config.Config
	store *graphstore.Store
}

// openProject loads keel.json and opens graph.db under root. A missing
// .keel/ directory is a setup failure (exit 2), matching §7's IoFailure
// policy for missing graph.db.
func openProject(c *cli.Context) (*project, error) {
	root, err := filepath.Abs(c.String("root"))
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("resolve root: %v", err), 2)
	}

	dbPath := filepath.Join(config.DataDir(root), config.GraphDBFile)
	if _, statErr := os.Stat(dbPath); statErr != nil {
		return nil, cli.Exit(fmt.Sprintf("%s is not initialized: run `keel init` first", root), 2)
	}

	cfg, err := config.Load(root)
	if err != nil {
		var cpf *errkit.ConfigParseFailureError
		if !errors.As(err, &cpf) {
			return nil, cli.Exit(fmt.Sprintf("load config: %v", err), 2)
		}
		fmt.Fprintf(os.Stderr, "warning: %v; using defaults\n", err)
	}

	store, err := graphstore.Open(dbPath)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("open graph store: %v", err), 2)
	}

	return &project{root: root, cfg: cfg, store: store}, nil
}

// absUnder joins rel onto root, the same scoping convention
// internal/mcpserver and internal/httpapi apply to their own
// caller-supplied file lists.
func absUnder(root, rel string) string {
	return filepath.Join(root, rel)
}

func (p *project) Close() {
	if p.store != nil {
		p.store.Close()
	}
}

// emit prints result as indented JSON. §1 keeps the human and
// LLM-budgeted formatters external collaborators, so there is no other
// rendering: the output is the same with or without --json or --llm.
func emit(c *cli.Context, result any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// exitForError maps a core error to the CLI exit code policy in §7: a
// query miss (*errkit.NotFoundError) or any other core failure returned
// by a read-only query command is exit 2 — these commands have no
// "violations found" outcome of their own, unlike compile and fix,
// which build their own cli.ExitCoder from the result instead.
func exitForError(op string, err error) error {
	return cli.Exit(fmt.Sprintf("%s: %v", op, err), 2)
}
