package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/gitswift/gitswift/internal/config"
	"github.com/gitswift/gitswift/internal/sync"
	"github.com/spf13/cobra"
)

type configView struct {
	Path        string `json:"path" yaml:"path"`
	DataDir     string `json:"data_dir" yaml:"data_dir"`
	ServerURL   string `json:"server_url" yaml:"server_url"`
	Author      string `json:"author,omitempty" yaml:"author,omitempty"`
	Concurrency int    `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
}

func (c *cli) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or persist the gitswift config file",
	}
	cmd.AddCommand(c.newConfigPathCmd())
	cmd.AddCommand(c.newConfigSaveCmd())
	cmd.AddCommand(c.newConfigShowCmd())
	return cmd
}

// configPath is the file this invocation reads its settings from.
func (c *cli) configPath() string {
	if c.cfg.Path != "" {
		return c.cfg.Path
	}
	return config.DefaultConfigPath
}

func (c *cli) newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the resolved config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), c.configPath())
			return err
		},
	}
}

func (c *cli) newConfigSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Write the resolved settings to the config file",
		Long: `Write the resolved settings to the config file.

Flags, environment and the existing file are merged first, so
'gitswift config save --author Ada' keeps every other saved value.
Tokens are never written; use 'gitswift token add' for those.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath()
			if err := c.cfg.Save(path); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s config saved to %s\n", green.Render("✔"), cyan.Render(path))
			return nil
		},
	}

	cmd.Flags().StringP("author", "a", "", "default author recorded in logs and history")
	cmd.Flags().Int("concurrency", sync.DefaultConcurrency, fmt.Sprintf("default number of parallel file writes (1-%d)", sync.MaxConcurrency))
	return cmd
}

func (c *cli) newConfigShowCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the saved config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}

			path := c.configPath()
			saved, err := config.Load(path)
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("no config file at %s (run 'gitswift config save')", path)
			} else if err != nil {
				return err
			}

			view := configView{
				Path:        saved.Path,
				DataDir:     saved.DataDir,
				ServerURL:   saved.ServerURL,
				Author:      saved.Author,
				Concurrency: saved.Concurrency,
			}
			if format != formatText {
				return writeStructured(cmd.OutOrStdout(), format, view)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n", gray.Render("path:       "), view.Path)
			fmt.Fprintf(w, "%s %s\n", gray.Render("data dir:   "), view.DataDir)
			fmt.Fprintf(w, "%s %s\n", gray.Render("server:     "), view.ServerURL)
			if view.Author != "" {
				fmt.Fprintf(w, "%s %s\n", gray.Render("author:     "), view.Author)
			}
			if view.Concurrency > 0 {
				fmt.Fprintf(w, "%s %d\n", gray.Render("concurrency:"), view.Concurrency)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", string(formatText), "output format: text, json or yaml")
	return cmd
}
