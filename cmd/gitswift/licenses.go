package main

import (
	"fmt"

	"github.com/gitswift/gitswift/internal/repospec"
	"github.com/spf13/cobra"
)

func newLicensesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "licenses",
		Short: "List the license templates accepted by --license",
		Args:  cobra.NoArgs,
		// no config, token or log file needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			for _, l := range repospec.Licenses() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", l.ID, gray.Render(l.Name))
			}
		},
	}
}
