package ghsdk

import (
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.github.com"
	DefaultTimeout = 60 * time.Second
)

// Config is the configuration for the SDK
type Config struct {
	BaseURL string        // BaseURL is required, e.g. https://api.github.com or https://ghe.example.com/api/v3
	Token   string        // Token is required, it is sent as a bearer credential and never inspected
	Timeout time.Duration // Timeout bounds a single request, zero means no timeout
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Token) == "" {
		return ErrNoToken
	}

	if c.BaseURL == "" {
		return ErrNoServerURL
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidServerURL
	}

	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}
