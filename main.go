package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/drew/jobreport/internal/config"
)

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options are the persistent flags shared by every command
type options struct {
	configPath string
	verbose    bool
	noColor    bool
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return exitCodeError
	}
	return exitCodeSuccess
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "jobreport",
		Short:        "Serve and inspect per-user job analysis reports",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Help(); err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default: config.toml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Set debug logging level")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newServeCmd(opts).Command(),
		newValidateCmd(opts).Command(),
		newInitCmd().Command(),
		newInspectCmd(opts).Command(),
	)
	return root
}

// loadConfig reads the config file (if any) and fills in defaults
func (o *options) loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	return config.MergeWithDefaults(cfg), nil
}

// logLevel resolves the configured level; --verbose always wins
func logLevel(name string, verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, level slog.Level, noColor bool) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:   level,
		NoColor: noColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				t := a.Value.Time().UTC()
				a.Value = slog.StringValue(formatRFC3339Millis(t))
			}
			if s, ok := a.Value.Any().(string); ok && s == "" {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func formatRFC3339Millis(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000Z07:00")
}
