package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gitswift/gitswift/internal/history"
	"github.com/gitswift/gitswift/internal/sync"
	"github.com/spf13/cobra"
)

func (c *cli) newHistoryCmd() *cobra.Command {
	var (
		limit  int
		output string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past sync runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}

			store, err := history.Open(cmd.Context(), c.cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if format != formatText {
				return writeStructured(cmd.OutOrStdout(), format, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), gray.Render("no runs recorded"))
				return nil
			}
			for _, r := range runs {
				printRun(cmd.OutOrStdout(), r)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show, 0 for all")
	cmd.PersistentFlags().StringVarP(&output, "output", "o", string(formatText), "output format: text, json or yaml")
	cmd.AddCommand(c.newHistoryShowCmd(&output))
	return cmd
}

func (c *cli) newHistoryShowCmd(output *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the files of one run (an unambiguous id prefix is enough)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(*output)
			if err != nil {
				return err
			}

			store, err := history.Open(cmd.Context(), c.cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			detail, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if format != formatText {
				return writeStructured(cmd.OutOrStdout(), format, detail)
			}

			w := cmd.OutOrStdout()
			printRun(w, detail.Run)
			for _, e := range detail.Entries {
				action := actionStyle(sync.Action(e.Action)).Render(fmt.Sprintf("%-17s", e.Action))
				line := fmt.Sprintf("  %s %s", action, e.Path)
				if e.Error != "" {
					line += "  " + red.Render(e.Error)
				}
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}
}

func printRun(w io.Writer, r history.Run) {
	status := green.Render("ok")
	if r.Failed > 0 {
		status = red.Render(fmt.Sprintf("%d failed", r.Failed))
	}
	fmt.Fprintf(w, "%s  %s  %-9s %s  %s  %s\n",
		yellow.Render(shortID(r.ID)),
		lightGray.Render(humanize.Time(r.Started)),
		r.Mode,
		bold.Render(r.Repository),
		gray.Render(fmt.Sprintf("+%d ~%d =%d in %s", r.Created, r.Updated, r.Skipped, r.Finished.Sub(r.Started).Round(time.Millisecond))),
		status,
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
