package main

import (
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/keel/internal/fixplan"
)

var fixCommand = &cli.Command{
	Name:      "fix",
	Usage:     "produce (and optionally apply) fix plans for violations",
	ArgsUsage: "[hashes...]",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "file", Usage: "scope to a single file"},
		&cli.BoolFlag{Name: "apply", Usage: "apply each plan's actions to the source tree"},
	},
	Action: func(c *cli.Context) error {
		p, err := openProject(c)
		if err != nil {
			return err
		}
		defer p.Close()

		eng := fixplan.New(p.store, p.cfg, p.root)
		result, err := eng.Plan(c.Args().Slice(), c.String("file"), c.Bool("apply"))
		if err != nil {
			return exitForError("fix", err)
		}
		if err := emit(c, result); err != nil {
			return cli.Exit(err.Error(), 2)
		}

		if c.Bool("apply") {
			for _, plan := range result.Plans {
				if plan.ActionFailed {
					return cli.Exit("fix: one or more actions could not be applied", 1)
				}
			}
			if !result.CleanAfter {
				return cli.Exit("fix: recompile after apply is not clean", 1)
			}
		}
		return nil
	},
}
