package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/drew/jobreport/internal/config"
	"github.com/drew/jobreport/internal/report"
	"github.com/drew/jobreport/internal/server"
	"github.com/drew/jobreport/internal/ui"
	"github.com/drew/jobreport/internal/watch"
)

type serveCmd struct {
	opts   *options
	listen string
	dir    string
}

func newServeCmd(opts *options) *serveCmd {
	return &serveCmd{opts: opts}
}

func (c *serveCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load result archives and serve the report API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.run(ctx, cmd)
		},
	}
	cmd.Flags().StringVar(&c.listen, "listen", "", "Listen address (overrides server.listenAddr)")
	cmd.Flags().StringVar(&c.dir, "results", "", "Results directory (overrides results.dir)")
	return cmd
}

func (c *serveCmd) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := c.opts.loadConfig()
	if err != nil {
		return err
	}
	if c.listen != "" {
		cfg.Server.ListenAddr = c.listen
	}
	if c.dir != "" {
		cfg.Results.Dir = c.dir
	}

	result, err := config.ValidateConfig(&cfg)
	if err != nil {
		return err
	}
	if !result.Valid {
		for _, e := range result.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "config: %v\n", e)
		}
		return errors.New("invalid configuration")
	}

	log := newLogger(cmd.ErrOrStderr(), logLevel(cfg.Log.Level, c.opts.verbose), c.opts.noColor || !ui.IsColorEnabled(os.Stderr))
	for _, w := range result.Warnings {
		log.Warn("config warning", "field", w.Field, "message", w.Message)
	}

	store := report.NewStore(log)
	n, err := store.LoadDir(ctx, cfg.Results.Dir, cfg.Results.Pattern, cfg.Results.Workers)
	if err != nil {
		return err
	}
	log.Info("loaded result archives", "dir", cfg.Results.Dir, "archives", n)

	if *cfg.Results.Watch {
		w, err := watch.New(cfg.Results.Dir, cfg.Results.RenewSuffix, func(path string) error {
			_, err := store.LoadFile(path)
			return err
		}, log)
		if err != nil {
			return err
		}
		defer w.Close()
		go w.Run(ctx)
	}

	srv := server.New(store, cfg.Server, cfg.SlidesTTL(), log)
	return srv.Run(ctx, cfg.ShutdownTimeout())
}
