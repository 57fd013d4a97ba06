package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gitswift/gitswift/internal/ghsdk"
	"github.com/gitswift/gitswift/internal/repospec"
)

// GitHubRemote implements Remote over the REST client.
type GitHubRemote struct {
	sdk *ghsdk.SDK
}

func NewGitHubRemote(sdk *ghsdk.SDK) *GitHubRemote {
	return &GitHubRemote{sdk: sdk}
}

func (g *GitHubRemote) CurrentUser(ctx context.Context) (string, error) {
	user, err := g.sdk.Users.Current(ctx)
	if err != nil {
		return "", classify(err)
	}
	return user.Login, nil
}

func (g *GitHubRemote) GetRepository(ctx context.Context, owner, name string) (*RemoteRepository, error) {
	repo, err := g.sdk.Repos.Get(ctx, owner, name)
	if err != nil {
		return nil, classify(err)
	}
	return toRemoteRepository(repo), nil
}

func (g *GitHubRemote) CreateRepository(ctx context.Context, spec *repospec.CreationSpec) (*RemoteRepository, error) {
	repo, err := g.sdk.Repos.Create(ctx, &ghsdk.CreateRepositoryParams{
		Name:            spec.Name.String(),
		Description:     spec.Description,
		Private:         spec.Private,
		AutoInit:        spec.AutoInit,
		LicenseTemplate: spec.License,
	})
	if err != nil {
		if isNameTaken(err) {
			return nil, fmt.Errorf("%w: %w", ErrRepositoryExists, err)
		}
		return nil, classify(err)
	}
	return toRemoteRepository(repo), nil
}

func (g *GitHubRemote) GetFileContent(ctx context.Context, repo *RemoteRepository, path string) (*RemoteFile, error) {
	file, err := g.sdk.Contents.Get(ctx, repo.Owner, repo.Name, path)
	if err != nil {
		return nil, classify(err)
	}
	return &RemoteFile{
		Content:   file.Content,
		Version:   file.SHA,
		Truncated: file.Truncated,
	}, nil
}

func (g *GitHubRemote) CreateFile(ctx context.Context, repo *RemoteRepository, path, message string, content []byte) error {
	_, err := g.sdk.Contents.Create(ctx, repo.Owner, repo.Name, path, message, content)
	return classify(err)
}

func (g *GitHubRemote) UpdateFile(ctx context.Context, repo *RemoteRepository, path, message string, content []byte, version string) error {
	_, err := g.sdk.Contents.Update(ctx, repo.Owner, repo.Name, path, message, content, version)
	if errors.Is(err, ghsdk.ErrConflict) {
		return fmt.Errorf("%w: %w", ErrStaleVersion, err)
	}
	return classify(err)
}

func toRemoteRepository(repo *ghsdk.Repository) *RemoteRepository {
	return &RemoteRepository{
		Owner:   repo.Owner.Login,
		Name:    repo.Name,
		URL:     repo.HTMLURL,
		Private: repo.Private,
	}
}

// classify maps client errors onto the engine's error classes, keeping the original in the chain.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ghsdk.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, ghsdk.ErrUnauthorized):
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	case errors.Is(err, ghsdk.ErrForbidden):
		var apiErr *ghsdk.APIError
		if errors.As(err, &apiErr) {
			if hint := scopeHint(apiErr); hint != "" {
				return fmt.Errorf("%w (%s): %w", ErrAuthorization, hint, err)
			}
		}
		return fmt.Errorf("%w: %w", ErrAuthorization, err)
	}
	return err
}

// scopeHint names the scopes the token has next to the ones the endpoint wants.
func scopeHint(apiErr *ghsdk.APIError) string {
	var parts []string
	if apiErr.TokenScopes != "" {
		parts = append(parts, "token scopes: "+apiErr.TokenScopes)
	}
	if apiErr.AcceptedScopes != "" {
		parts = append(parts, "accepted scopes: "+apiErr.AcceptedScopes)
	}
	return strings.Join(parts, "; ")
}

func isNameTaken(err error) bool {
	var apiErr *ghsdk.APIError
	if !errors.As(err, &apiErr) || !errors.Is(apiErr, ghsdk.ErrUnprocessable) {
		return false
	}
	for _, fe := range apiErr.Errors {
		if fe.Code == "already_exists" || strings.Contains(strings.ToLower(fe.Message), "already exists") {
			return true
		}
	}
	return false
}
