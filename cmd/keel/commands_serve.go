package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/keel/internal/httpapi"
	"github.com/standardbeagle/keel/internal/klog"
	"github.com/standardbeagle/keel/internal/mcpserver"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "run as a long-lived server for an external collaborator",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "mcp", Usage: "serve line-delimited JSON-RPC over stdio"},
		&cli.BoolFlag{Name: "http", Usage: "serve the loopback HTTP API"},
		&cli.StringFlag{Name: "addr", Usage: "bind address for --http", Value: "127.0.0.1:4171"},
	},
	Action: func(c *cli.Context) error {
		if c.Bool("mcp") == c.Bool("http") {
			return cli.Exit("usage: keel serve --mcp | --http", 2)
		}

		p, err := openProject(c)
		if err != nil {
			return err
		}
		defer p.Close()

		log := klog.For(klog.CategoryCLI)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		errChan := make(chan error, 1)

		if c.Bool("mcp") {
			srv := mcpserver.New(p.store, p.cfg, p.root, nil)
			go func() {
				log.Infow("starting mcp server", "transport", "stdio")
				errChan <- srv.Run(ctx)
			}()
		} else {
			srv := httpapi.New(p.store, p.cfg, p.root, nil, c.String("addr"))
			go func() {
				log.Infow("starting http server", "addr", c.String("addr"))
				errChan <- srv.ListenAndServe()
			}()
			go func() {
				<-ctx.Done()
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				srv.Shutdown(shutdownCtx)
			}()
		}

		select {
		case err := <-errChan:
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			return nil
		case sig := <-sigChan:
			log.Infow("received signal, shutting down", "signal", sig.String())
			cancel()
			select {
			case err := <-errChan:
				return err
			case <-time.After(5 * time.Second):
				log.Warnw("graceful shutdown timed out, forcing exit")
				return nil
			}
		}
	},
}
