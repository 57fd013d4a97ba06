package ghsdk

import (
	"context"

	"github.com/imroc/req/v3"
)

const (
	v3User = "/user"
)

type UsersAPI struct {
	client *req.Client
}

func newUsersAPI(client *req.Client) *UsersAPI {
	return &UsersAPI{
		client: client,
	}
}

// Current returns the account the token belongs to.
func (u *UsersAPI) Current(ctx context.Context) (user *User, err error) {
	res, err := u.client.R().
		SetContext(ctx).
		SetSuccessResult(&user).
		Get(v3User)

	if err := handleAPIError(res, err, "current user"); err != nil {
		return nil, err
	}

	return user, nil
}
