package ghsdk

import (
	"github.com/gitswift/gitswift/internal/version"
	"github.com/imroc/req/v3"
)

// SDK is the client for the hosting API (GitHub REST v3).
type SDK struct {
	client   *req.Client
	Users    *UsersAPI
	Repos    *ReposAPI
	Contents *ContentsAPI
}

// New creates a client authenticated with the configured bearer token.
//
// Retries are disabled: content writes are not idempotent and retry policy
// belongs to the caller.
func New(cfg *Config) (*SDK, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := req.C().
		SetBaseURL(cfg.BaseURL).
		SetUserAgent(version.UserAgent()).
		SetCommonBearerAuthToken(cfg.Token).
		SetCommonHeader(HeaderAccept, mediaTypeGitHubJSON).
		SetCommonHeader(HeaderAPIVersion, apiVersion).
		SetCommonRetryCount(0).
		SetCommonErrorResult(&APIError{}).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &SDK{
		client:   client,
		Users:    newUsersAPI(client),
		Repos:    newReposAPI(client),
		Contents: newContentsAPI(client),
	}, nil
}

// Close releases idle connections.
func (s *SDK) Close() {
	s.client.GetClient().CloseIdleConnections()
}
