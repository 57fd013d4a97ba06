package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gitswift/gitswift/internal/sync"
	"github.com/gitswift/gitswift/internal/utils"
	"github.com/goccy/go-json"
)

const (
	DefaultServerURL = "https://api.github.com"
	DefaultTimeout   = 60 * time.Second

	configFileName  = "config.json"
	logsDir         = "logs"
	logFileName     = "gitswift.log"
	tokensFileName  = "tokens.json"
	historyFileName = "history.db"
)

var (
	home, _           = os.UserHomeDir()
	DefaultDataDir    = filepath.Join(home, ".gitswift")
	DefaultConfigPath = filepath.Join(DefaultDataDir, configFileName)
)

var (
	ErrInvalidConcurrency = fmt.Errorf("concurrency must be between 1 and %d", sync.MaxConcurrency)
	ErrInvalidTimeout     = errors.New("timeout cannot be negative")
)

// Config is the resolved runtime configuration.
type Config struct {
	DataDir     string        `json:"data_dir"`
	ServerURL   string        `json:"server_url"`
	Author      string        `json:"author,omitempty"`
	Concurrency int           `json:"concurrency,omitempty"`
	Timeout     time.Duration `json:"-"`
	Token       string        `json:"-"` // token or stored label, never written to disk
	Path        string        `json:"-"`
}

// Validate resolves paths and fills defaults.
func (c *Config) Validate() error {
	var err error

	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	c.DataDir, err = utils.ResolvePath(c.DataDir)
	if err != nil {
		return fmt.Errorf("data dir: %w", err)
	}

	if c.Path != "" {
		c.Path, err = utils.ResolvePath(c.Path)
		if err != nil {
			return fmt.Errorf("config path: %w", err)
		}
	}

	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")
	if err := utils.ValidateHTTPURL(c.ServerURL); err != nil {
		return fmt.Errorf("server url: %w", err)
	}

	if c.Concurrency == 0 {
		c.Concurrency = sync.DefaultConcurrency
	}
	if c.Concurrency < 1 || c.Concurrency > sync.MaxConcurrency {
		return ErrInvalidConcurrency
	}

	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	c.Author = strings.TrimSpace(c.Author)
	c.Token = strings.TrimSpace(c.Token)
	return nil
}

func (c *Config) LogFilePath() string {
	return filepath.Join(c.DataDir, logsDir, logFileName)
}

func (c *Config) TokenStorePath() string {
	return filepath.Join(c.DataDir, tokensFileName)
}

func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, historyFileName)
}

// Save writes the persistent fields to path.
func (c *Config) Save(path string) error {
	if err := utils.EnsureParent(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Load reads a config file written by Save.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Path = path
	return &cfg, nil
}
