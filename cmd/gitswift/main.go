package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gitswift/gitswift/internal/config"
	"github.com/gitswift/gitswift/internal/credstore"
	"github.com/gitswift/gitswift/internal/ghsdk"
	"github.com/gitswift/gitswift/internal/utils"
	"github.com/gitswift/gitswift/internal/version"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	errNoToken     = errors.New("no access token: pass --token, set GITHUB_TOKEN or run 'gitswift token add'")
	errFilesFailed = errors.New("some files failed to sync")
)

// cli carries the state shared by every subcommand of one invocation.
type cli struct {
	v       *viper.Viper
	cfg     *config.Config
	logFile *os.File
}

func newRootCmd(c *cli) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gitswift",
		Short:         "Publish a local directory to a GitHub repository",
		Version:       version.Detailed(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "gitswift config file")
	rootCmd.PersistentFlags().String("data-dir", config.DefaultDataDir, "directory for tokens, history and logs")
	rootCmd.PersistentFlags().StringP("server", "s", config.DefaultServerURL, "GitHub API base URL")
	rootCmd.PersistentFlags().StringP("token", "t", "", "access token or the label of a stored token")
	rootCmd.PersistentFlags().Duration("timeout", config.DefaultTimeout, "per-request timeout")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(c.newPushCmd())
	rootCmd.AddCommand(c.newUpdateCmd())
	rootCmd.AddCommand(c.newTokenCmd())
	rootCmd.AddCommand(c.newHistoryCmd())
	rootCmd.AddCommand(c.newConfigCmd())
	rootCmd.AddCommand(newLicensesCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// execute runs one invocation of the CLI and releases what it opened.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := &cli{v: viper.New()}
	defer c.close()

	rootCmd := newRootCmd(c)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.ExecuteContext(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, red.Render("Error:"), err)
		stop()
		os.Exit(1)
	}
}

func (c *cli) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	if err := c.loadConfig(cmd); err != nil {
		return err
	}

	cfg := &config.Config{
		Path:        c.v.ConfigFileUsed(),
		DataDir:     c.v.GetString("data_dir"),
		ServerURL:   c.v.GetString("server_url"),
		Author:      c.v.GetString("author"),
		Concurrency: c.v.GetInt("concurrency"),
		Timeout:     c.v.GetDuration("timeout"),
		Token:       c.v.GetString("token"),
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg

	return c.setupLogging(cmd.ErrOrStderr(), c.v.GetBool("verbose"))
}

func (c *cli) loadConfig(cmd *cobra.Command) error {
	v := c.v

	if f := cmd.Flag("config"); f != nil && f.Changed {
		v.SetConfigFile(f.Value.String())
	} else {
		v.AddConfigPath(config.DefaultDataDir)
		v.SetConfigName("config")
		v.SetConfigType("json")
	}

	if err := v.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		var notFound viper.ConfigFileNotFoundError
		if !enoent && !errors.As(err, &notFound) {
			return fmt.Errorf("config read '%s': %w", v.ConfigFileUsed(), err)
		}
	}

	bindings := map[string]string{
		"data_dir":    "data-dir",
		"server_url":  "server",
		"token":       "token",
		"timeout":     "timeout",
		"verbose":     "verbose",
		"author":      "author",
		"concurrency": "concurrency",
	}
	for key, name := range bindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	v.SetEnvPrefix("GITSWIFT")
	v.AutomaticEnv()
	return v.BindEnv("token", "GITSWIFT_TOKEN", "GITHUB_TOKEN")
}

func (c *cli) setupLogging(console io.Writer, verbose bool) error {
	consoleLevel := slog.LevelWarn
	if verbose {
		consoleLevel = slog.LevelDebug
	}

	noColor := true
	if f, ok := console.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	consoleHandler := tint.NewHandler(console, &tint.Options{
		Level:      consoleLevel,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	})

	logPath := c.cfg.LogFilePath()
	if err := utils.EnsureParent(logPath); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	c.logFile = file

	fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(utils.NewMultiLogHandler(consoleHandler, fileHandler)))
	return nil
}

func (c *cli) close() {
	if c.logFile != nil {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		c.logFile.Close()
		c.logFile = nil
	}
}

// resolveToken picks the token for this run. An explicit value may be a
// raw token or a stored label. Without one, a single stored token is used.
func (c *cli) resolveToken() (token, label string, err error) {
	store := credstore.New(c.cfg.TokenStorePath())

	if c.cfg.Token != "" {
		return store.Resolve(c.cfg.Token)
	}

	entries, err := store.List()
	if err != nil {
		return "", "", err
	}
	switch len(entries) {
	case 0:
		return "", "", errNoToken
	case 1:
		return entries[0].Token, entries[0].Label, nil
	default:
		return "", "", fmt.Errorf("%w (%d tokens are stored, pick one with --token <label>)", errNoToken, len(entries))
	}
}

func (c *cli) newSDK(token string) (*ghsdk.SDK, error) {
	return ghsdk.New(&ghsdk.Config{
		BaseURL: c.cfg.ServerURL,
		Token:   token,
		Timeout: c.cfg.Timeout,
	})
}
