package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/keel/internal/config"
	"github.com/standardbeagle/keel/internal/enforce"
	"github.com/standardbeagle/keel/internal/langparse"
	"github.com/standardbeagle/keel/internal/mapengine"
	"github.com/standardbeagle/keel/internal/types"
	"github.com/standardbeagle/keel/internal/walk"
)

var initCommand = &cli.Command{
	Name:  "init",
	Usage: "create .keel/ and write default configuration",
	Action: func(c *cli.Context) error {
		root := c.String("root")
		if _, err := config.Init(root); err != nil {
			return cli.Exit(fmt.Sprintf("init: %v", err), 2)
		}
		fmt.Printf("initialized %s\n", config.DataDir(root))
		return nil
	},
}

var mapCommand = &cli.Command{
	Name:  "map",
	Usage: "full remap of the project into the call graph",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "strict", Usage: "treat warnings as failing"},
	},
	Action: func(c *cli.Context) error {
		p, err := openProject(c)
		if err != nil {
			return err
		}
		defer p.Close()

		mapper := mapengine.New(p.store, p.cfg, nil)
		result, err := mapper.Run(context.Background(), p.root)
		if err != nil {
			return exitForError("map", err)
		}
		if err := emit(c, result); err != nil {
			return cli.Exit(err.Error(), 2)
		}
		if c.Bool("strict") && len(result.Errors) > 0 {
			return cli.Exit("map completed with errors", 1)
		}
		return nil
	},
}

var compileCommand = &cli.Command{
	Name:      "compile",
	Usage:     "incrementally enforce call-graph invariants over changed files",
	ArgsUsage: "[files...]",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "batch-start"},
		&cli.BoolFlag{Name: "batch-end"},
		&cli.BoolFlag{Name: "strict", Usage: "treat warnings as failing"},
		&cli.StringSliceFlag{Name: "suppress", Usage: "violation codes to downgrade to informational"},
	},
	Action: func(c *cli.Context) error {
		p, err := openProject(c)
		if err != nil {
			return err
		}
		defer p.Close()

		files, err := scopeFiles(p, c.Args().Slice())
		if err != nil {
			return exitForError("compile", err)
		}
		batch, err := parseFiles(p, files)
		if err != nil {
			return exitForError("compile", err)
		}

		enforcer := enforce.New(p.store, p.cfg)
		result, err := enforcer.Compile(batch, enforce.Options{
			BatchStart:  c.Bool("batch-start"),
			BatchEnd:    c.Bool("batch-end"),
			Suppress:    c.StringSlice("suppress"),
			NowUnixNano: time.Now().UnixNano(),
		})
		if err != nil {
			return exitForError("compile", err)
		}
		if err := emit(c, result); err != nil {
			return cli.Exit(err.Error(), 2)
		}

		if len(result.Errors) > 0 {
			return cli.Exit("compile found violations", 1)
		}
		if c.Bool("strict") && len(result.Warnings) > 0 {
			return cli.Exit("compile found warnings under --strict", 1)
		}
		return nil
	},
}

// scopeFiles resolves the files a compile/fix invocation should cover:
// explicit arguments when given, otherwise a full project walk.
func scopeFiles(p *project, requested []string) ([]walk.File, error) {
	if len(requested) > 0 {
		out := make([]walk.File, 0, len(requested))
		for _, f := range requested {
			out = append(out, walk.File{Path: f, Abs: absUnder(p.root, f)})
		}
		return out, nil
	}
	ignore := walk.NewIgnoreSet(nil)
	return walk.Walk(p.root, p.cfg.Languages, ignore)
}

// parseFiles re-parses each scoped file into a FileIndex, skipping any
// file whose parse fails rather than aborting the batch (§7 ParseFailure).
func parseFiles(p *project, files []walk.File) ([]types.FileIndex, error) {
	parsers := langparse.New()
	var batch []types.FileIndex
	for _, f := range files {
		content, err := os.ReadFile(f.Abs)
		if err != nil {
			continue
		}
		pr, err := parsers.ParseFile(f.Path, content)
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
