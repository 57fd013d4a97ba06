package sync

import (
	"context"

	"github.com/gitswift/gitswift/internal/repospec"
)

// Remote is the hosting service the engine talks to.
//
// Implementations return errors matching ErrNotFound for a missing
// repository or file, ErrAuthentication and ErrAuthorization for credential
// problems, ErrStaleVersion when an update is based on an outdated version,
// and ErrRepositoryExists when creation collides with an existing name.
type Remote interface {
	CurrentUser(ctx context.Context) (string, error)
	GetRepository(ctx context.Context, owner, name string) (*RemoteRepository, error)
	CreateRepository(ctx context.Context, spec *repospec.CreationSpec) (*RemoteRepository, error)
	GetFileContent(ctx context.Context, repo *RemoteRepository, path string) (*RemoteFile, error)
	CreateFile(ctx context.Context, repo *RemoteRepository, path, message string, content []byte) error
	UpdateFile(ctx context.Context, repo *RemoteRepository, path, message string, content []byte, version string) error
}

type RemoteRepository struct {
	Owner   string
	Name    string
	URL     string
	Private bool
}

func (r *RemoteRepository) FullName() string {
	return r.Owner + "/" + r.Name
}

// RemoteFile is a file as the remote currently holds it.
type RemoteFile struct {
	Content []byte
	// Version is the token an update must carry. For GitHub it is the blob SHA.
	Version string
	// Truncated is set when the remote did not inline the content; compare by Version instead.
	Truncated bool
}
