package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drew/jobreport/internal/config"
)

type validateCmd struct {
	opts *options
}

func newValidateCmd(opts *options) *validateCmd {
	return &validateCmd{opts: opts}
}

func (c *validateCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config.toml...]",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			files := args
			if len(files) == 0 {
				path := c.opts.configPath
				if path == "" {
					path = "config.toml"
				}
				files = []string{path}
			}

			invalid := 0
			for _, path := range files {
				result, err := config.ValidateConfigFile(path)
				if err != nil {
					return err
				}
				config.PrintValidationResult(path, result)
				if !result.Valid {
					invalid++
				}
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d config file(s) invalid", invalid, len(files))
			}
			return nil
		},
	}
}

type initCmd struct{}

func newInitCmd() *initCmd {
	return &initCmd{}
}

func (c *initCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter config.toml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "config.toml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %s\n", path)
			return nil
		},
	}
}
