package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gitswift/gitswift/internal/history"
	"github.com/gitswift/gitswift/internal/repospec"
	"github.com/gitswift/gitswift/internal/sync"
	"github.com/spf13/cobra"
)

func (c *cli) newPushCmd() *cobra.Command {
	var (
		name        string
		description string
		private     bool
		license     string
		excludes    []string
		createOnly  bool
		output      string
	)

	cmd := &cobra.Command{
		Use:   "push [dir]",
		Short: "Create a repository from a directory, or bring an existing one up to date",
		Long: `Push publishes every file under dir (default: the current directory).

If the repository does not exist yet it is created with an initial commit and
every file is uploaded. Otherwise files that differ are updated and identical
files are skipped. Files that exist only remotely are never deleted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}

			root, err := rootDir(args)
			if err != nil {
				return err
			}

			if name == "" {
				derived, err := repospec.NameFromDir(root)
				if err != nil {
					return fmt.Errorf("derive repository name from %s: %w (use --name)", root, err)
				}
				name = derived.String()
			}

			spec, err := repospec.NewCreationSpec(repospec.SpecInput{
				Name:        name,
				Description: description,
				Private:     private,
				License:     license,
				Author:      c.cfg.Author,
			})
			if err != nil {
				return err
			}

			return c.runSync(cmd, format, excludes, func(ctx context.Context, engine *sync.Engine) (*sync.Report, error) {
				if createOnly {
					return engine.CreateAndUpload(ctx, root, spec)
				}
				return engine.Push(ctx, root, spec)
			})
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&name, "name", "n", "", "repository name (default: the directory name)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "repository description")
	cmd.Flags().BoolVar(&private, "private", false, "create a private repository")
	cmd.Flags().StringVarP(&license, "license", "l", "", "license template, see 'gitswift licenses'")
	cmd.Flags().StringP("author", "a", "", "author recorded in logs and history")
	cmd.Flags().StringArrayVarP(&excludes, "exclude", "x", nil, "glob of paths to skip, repeatable")
	cmd.Flags().IntP("concurrency", "j", 0, "files synced in parallel")
	cmd.Flags().BoolVar(&createOnly, "create-only", false, "fail instead of updating an existing repository")
	cmd.Flags().StringVarP(&output, "output", "o", string(formatText), "report format: text, json or yaml")
	return cmd
}

func (c *cli) newUpdateCmd() *cobra.Command {
	var (
		name     string
		excludes []string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "update [dir]",
		Short: "Bring an existing repository up to date with a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}

			root, err := rootDir(args)
			if err != nil {
				return err
			}

			var repoName repospec.Name
			if name == "" {
				repoName, err = repospec.NameFromDir(root)
			} else {
				repoName, err = repospec.ValidateName(name)
			}
			if err != nil {
				return err
			}

			return c.runSync(cmd, format, excludes, func(ctx context.Context, engine *sync.Engine) (*sync.Report, error) {
				return engine.Reconcile(ctx, root, repoName)
			})
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVarP(&name, "name", "n", "", "repository name (default: the directory name)")
	cmd.Flags().StringP("author", "a", "", "author recorded in logs and history")
	cmd.Flags().StringArrayVarP(&excludes, "exclude", "x", nil, "glob of paths to skip, repeatable")
	cmd.Flags().IntP("concurrency", "j", 0, "files synced in parallel")
	cmd.Flags().StringVarP(&output, "output", "o", string(formatText), "report format: text, json or yaml")
	return cmd
}

type syncFunc func(ctx context.Context, engine *sync.Engine) (*sync.Report, error)

// runSync builds an engine against the configured server, runs fn, records the
// run and renders the report. A report with failed files is an error.
func (c *cli) runSync(cmd *cobra.Command, format outputFormat, excludes []string, fn syncFunc) error {
	token, label, err := c.resolveToken()
	if err != nil {
		return err
	}
	if label != "" {
		slog.Debug("using stored token", "label", label)
	}

	sdk, err := c.newSDK(token)
	if err != nil {
		return err
	}
	defer sdk.Close()

	opts := []sync.Option{
		sync.WithConcurrency(c.cfg.Concurrency),
		sync.WithIgnore(excludes...),
	}
	if format == formatText {
		opts = append(opts, sync.WithObserver(progressObserver(cmd.ErrOrStderr())))
	}
	engine := sync.New(sync.NewGitHubRemote(sdk), opts...)

	ctx := cmd.Context()
	report, runErr := fn(ctx, engine)
	if report == nil {
		return runErr
	}
	if report.Author == "" {
		report.Author = c.cfg.Author
	}

	// the run is recorded even when it was interrupted
	c.record(context.WithoutCancel(ctx), report)

	if err := renderReport(cmd.OutOrStdout(), format, report); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if report.Failed() {
		return fmt.Errorf("%w: %d of %d", errFilesFailed, report.Count(sync.ActionFailed), len(report.Outcomes))
	}
	return nil
}

func (c *cli) record(ctx context.Context, report *sync.Report) {
	store, err := history.Open(ctx, c.cfg.HistoryPath())
	if err != nil {
		slog.Warn("history unavailable", "error", err)
		return
	}
	defer store.Close()

	if err := store.Record(ctx, report); err != nil {
		slog.Warn("history record failed", "run", report.RunID, "error", err)
	}
}

func progressObserver(w io.Writer) sync.Observer {
	return func(done, total int, o sync.Outcome) {
		fmt.Fprintf(w, "%s %s %s\n",
			gray.Render(fmt.Sprintf("[%d/%d]", done, total)),
			actionStyle(o.Action).Render(string(o.Action)),
			o.Path,
		)
	}
}

func rootDir(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return os.Getwd()
}
