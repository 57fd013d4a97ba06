package ghsdk

import (
	"context"

	"github.com/imroc/req/v3"
)

const (
	v3Repo        = "/repos/{owner}/{repo}"
	v3CreateRepos = "/user/repos"
)

type ReposAPI struct {
	client *req.Client
}

func newReposAPI(client *req.Client) *ReposAPI {
	return &ReposAPI{
		client: client,
	}
}

// Get fetches a repository. A missing repository yields an error matching ErrNotFound.
func (r *ReposAPI) Get(ctx context.Context, owner, name string) (repo *Repository, err error) {
	res, err := r.client.R().
		SetContext(ctx).
		SetPathParam("owner", owner).
		SetPathParam("repo", name).
		SetSuccessResult(&repo).
		Get(v3Repo)

	if err := handleAPIError(res, err, "get repository"); err != nil {
		return nil, err
	}

	return repo, nil
}

// Create creates a repository owned by the authenticated user.
func (r *ReposAPI) Create(ctx context.Context, params *CreateRepositoryParams) (repo *Repository, err error) {
	res, err := r.client.R().
		SetContext(ctx).
		SetBody(params).
		SetSuccessResult(&repo).
		Post(v3CreateRepos)

	if err := handleAPIError(res, err, "create repository"); err != nil {
		return nil, err
	}

	return repo, nil
}
