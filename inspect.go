package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/drew/jobreport/internal/model"
	"github.com/drew/jobreport/internal/report"
	"github.com/drew/jobreport/internal/table"
	"github.com/drew/jobreport/internal/toc"
	"github.com/drew/jobreport/internal/ui"
)

type inspectCmd struct {
	opts *options
}

func newInspectCmd(opts *options) *inspectCmd {
	return &inspectCmd{opts: opts}
}

func (c *inspectCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect result archives without starting the server",
	}
	cmd.AddCommand(c.tocCommand(), c.tableCommand())
	return cmd
}

func (c *inspectCmd) renderer(w io.Writer) *ui.Renderer {
	if f, ok := w.(*os.File); ok {
		return ui.NewRenderer(w, !c.opts.noColor && ui.IsColorEnabled(f), ui.GetTerminalWidth(f))
	}
	return ui.NewRenderer(w, false, 80)
}

func (c *inspectCmd) tocCommand() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "toc <period>.tar.gz",
		Short: "Print the merged table of contents of an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := report.ParseFile(args[0])
			if err != nil {
				return err
			}
			store := report.NewStore(newLogger(cmd.ErrOrStderr(), logLevel("", c.opts.verbose), c.opts.noColor))
			store.Add(a)

			view, err := store.View(a.Period, user, user == "")
			if err != nil {
				return fmt.Errorf("period %d: %w", a.Period, err)
			}
			names := store.Names()
			deck, err := toc.Render(view, store.Content(), names, nil)
			if err != nil {
				return err
			}
			c.renderer(cmd.OutOrStdout()).RenderOutline(deck, names)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "Only include this user's table of contents")
	return cmd
}

func (c *inspectCmd) tableCommand() *cobra.Command {
	var (
		rows   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "table <period>.tar.gz...",
		Short: "Normalize the raw data of archives into one table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			periods := make(map[string]model.PeriodData, len(args))
			for _, path := range args {
				a, err := report.ParseFile(path)
				if err != nil {
					return err
				}
				periods[strconv.Itoa(a.Period)] = a.Raw
			}

			tbl := table.Normalize(periods, nil)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tbl)
			}

			r := c.renderer(cmd.OutOrStdout())
			r.RenderSchema(tbl)
			if rows != 0 {
				r.RenderRows(tbl, rows)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 0, "Also print this many rows (-1 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the table as JSON")
	return cmd
}
