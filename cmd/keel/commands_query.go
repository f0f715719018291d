package main

import (
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/keel/internal/discover"
)

var discoverCommand = &cli.Command{
	Name:      "discover",
	Usage:     "BFS the call graph from a node hash",
	ArgsUsage: "HASH",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "depth", Value: 1},
		&cli.BoolFlag{Name: "suggest-placement"},
		&cli.BoolFlag{Name: "name", Usage: "treat the argument as a name, not a hash, and list matching nodes"},
	},
	Action: func(c *cli.Context) error {
		p, err := openProject(c)
		if err != nil {
			return err
		}
		defer p.Close()

		if c.NArg() < 1 {
			return cli.Exit("usage: keel discover [--name] HASH", 2)
		}
		arg := c.Args().First()

		if c.Bool("name") {
			result, err := nameLookup(p, arg)
			if err != nil {
				return exitForError("discover", err)
			}
			return emit(c, result)
		}

		eng := discover.New(p.store, p.cfg)
		result, err := eng.Discover(arg, c.Int("depth"), c.Bool("suggest-placement"))
		if err != nil {
			return exitForError("discover", err)
		}
		return emit(c, result)
	},
}

// NameResult is the deferred "discover --name" projection named in §6's
// structured-output contract: a bare list of nodes sharing a name,
// without the BFS context a hash-scoped discover call carries.
type NameResult struct {
	Version string              `json:"version"`
	Command string              `json:"command"`
	Name    string              `json:"name"`
	Nodes   []discover.NodeInfo `json:"nodes"`
}

func nameLookup(p *project, name string) (*NameResult, error) {
	nodes, err := p.store.FindNodesByName(name)
	if err != nil {
		return nil, err
	}
	out := make([]discover.NodeInfo, 0, len(nodes))
	for i := range nodes {
		out = append(out, discover.NodeInfo{
			Hash:      nodes[i].Hash,
			Name:      nodes[i].Name,
			Kind:      string(nodes[i].Kind),
			File:      nodes[i].File,
			LineStart: nodes[i].LineStart,
			LineEnd:   nodes[i].LineEnd,
		})
	}
	return &NameResult{Version: "1", Command: "discover", Name: name, Nodes: out}, nil
}

var whereCommand = &cli.Command{
	Name:      "where",
	Usage:     "locate a node by hash",
	ArgsUsage: "HASH",
	Action: func(c *cli.Context) error {
		p, err := openProject(c)
		if err != nil {
			return err
		}
		defer p.Close()
		if c.NArg() < 1 {
			return cli.Exit("usage: keel where HASH", 2)
		}

		eng := discover.New(p.store, p.cfg)
		result, err := eng.Where(c.Args().First())
		if err != nil {
			return exitForError("where", err)
		}
		return emit(c, result)
	},
}

var explainCommand = &cli.Command{
	Name:      "explain",
	Usage:     "explain the reasoning chain behind a violation code",
	ArgsUsage: "CODE HASH",
	Action: func(c *cli.Context) error {
		p, err := openProject(c)
		if err != nil {
			return err
		}
		defer p.Close()
		if c.NArg() < 2 {
			return cli.Exit("usage: keel explain CODE HASH", 2)
		}

		eng := discover.New(p.store, p.cfg)
		result, err := eng.Explain(c.Args().Get(0), c.Args().Get(1))
		if err != nil {
			return exitForError("explain", err)
		}
		return emit(c, result)
	},
}

var checkCommand = &cli.Command{
	Name:      "check",
	Usage:     "pre-edit risk assessment for a node hash",
	ArgsUsage: "HASH",
	Action: func(c *cli.Context) error {
		p, err := openProject(c)
		if err != nil {
			return err
		}
		defer p.Close()
		if c.NArg() < 1 {
			return cli.Exit("usage: keel check HASH", 2)
		}

		eng := discover.New(p.store, p.cfg)
		result, err := eng.Check(c.Args().First())
		if err != nil {
			return exitForError("check", err)
		}
		return emit(c, result)
	},
}

var analyzeCommand = &cli.Command{
	Name:      "analyze",
	Usage:     "file-level smells and refactor opportunities",
	ArgsUsage: "FILE",
	Action: func(c *cli.Context) error {
		p, err := openProject(c)
		if err != nil {
			return err
		}
		defer p.Close()
		if c.NArg() < 1 {
			return cli.Exit("usage: keel analyze FILE", 2)
		}

		eng := discover.New(p.store, p.cfg)
		result, err := eng.Analyze(c.Args().First())
		if err != nil {
			return exitForError("analyze", err)
		}
		return emit(c, result)
	},
}
