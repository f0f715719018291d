// Command keel is the CLI front end for the structural enforcement
// engine: thin argument parsing and exit-code mapping (§6/§7) over the
// core packages. It owns no enforcement logic of its own — every
// command opens the graph store, builds the relevant engine, and
// prints that engine's result.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/keel/internal/klog"
)

func main() {
	app := &cli.App{
		Name:                   "keel",
		Usage:                  "structural call-graph enforcement for autonomous coding agents",
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "emit structured JSON (results are always printed as JSON)"},
			&cli.BoolFlag{Name: "llm", Usage: "accepted for the LLM formatter; results are printed as the same JSON"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log to stderr at debug level instead of warnings only"},
			&cli.StringFlag{Name: "root", Usage: "project root (default: current directory)", Value: "."},
		},
		Before: func(c *cli.Context) error {
			return klog.Init(c.Bool("verbose"), c.Bool("json"))
		},
		Commands: []*cli.Command{
			initCommand,
			mapCommand,
			compileCommand,
			discoverCommand,
			whereCommand,
			explainCommand,
			checkCommand,
			analyzeCommand,
			fixCommand,
			serveCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			fmt.Fprintln(os.Stderr, exitErr.Error())
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
