package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/gitswift/gitswift/internal/credstore"
	"github.com/gitswift/gitswift/internal/sync"
	"github.com/gitswift/gitswift/internal/utils"
	"github.com/spf13/cobra"
)

func (c *cli) newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage stored access tokens",
	}
	cmd.AddCommand(c.newTokenAddCmd())
	cmd.AddCommand(c.newTokenListCmd())
	cmd.AddCommand(c.newTokenRemoveCmd())
	return cmd
}

func (c *cli) newTokenAddCmd() *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "add [token]",
		Short: "Verify a token against the server and store it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := c.cfg.Token
			if len(args) > 0 {
				token = strings.TrimSpace(args[0])
			}
			if token == "" {
				return credstore.ErrEmptyToken
			}

			sdk, err := c.newSDK(token)
			if err != nil {
				return err
			}
			defer sdk.Close()

			login, err := sync.NewGitHubRemote(sdk).CurrentUser(cmd.Context())
			if err != nil {
				return fmt.Errorf("verify token: %w", err)
			}

			if label == "" {
				label = credstore.DefaultLabel(login, time.Now())
			}
			store := credstore.New(c.cfg.TokenStorePath())
			if err := store.Put(label, token); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s token for %s stored as %q\n", green.Render("✔"), bold.Render(login), label)
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "label for the token (default: '<login> - <date>')")
	return cmd
}

func (c *cli) newTokenListCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored tokens",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}

			entries, err := credstore.New(c.cfg.TokenStorePath()).List()
			if err != nil {
				return err
			}
			for i := range entries {
				entries[i].Token = utils.MaskSecret(entries[i].Token)
			}

			if format != formatText {
				return writeStructured(cmd.OutOrStdout(), format, entries)
			}

			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), gray.Render("no stored tokens"))
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", e.Label, gray.Render(e.Token))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", string(formatText), "output format: text, json or yaml")
	return cmd
}

func (c *cli) newTokenRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <label|token>",
		Aliases: []string{"remove"},
		Short:   "Remove a stored token",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, err := credstore.New(c.cfg.TokenStorePath()).Delete(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %q\n", label)
			return nil
		},
	}
}
