package sync

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is matched by Remote errors for a missing repository or file.
	ErrNotFound = errors.New("sync: not found")

	ErrAuthentication     = errors.New("sync: authentication failed, check that the token is valid")
	ErrAuthorization      = errors.New("sync: token is not allowed to do this, it needs the 'repo' scope")
	ErrRepositoryExists   = errors.New("sync: repository already exists")
	ErrRepositoryNotFound = errors.New("sync: repository does not exist")
	ErrStaleVersion       = errors.New("sync: remote file changed since it was read")
	ErrRootNotDir         = errors.New("sync: local root is not a directory")
	ErrInvalidExcludeGlob = errors.New("sync: invalid exclude pattern")
)

// FileOp is the step of a file's pass that failed.
type FileOp string

const (
	OpRead   FileOp = "read"
	OpFetch  FileOp = "fetch"
	OpCreate FileOp = "create"
	OpUpdate FileOp = "update"
)

// PerFileError is attached to a failed Outcome. It never aborts a pass.
type PerFileError struct {
	Path string
	Op   FileOp
	Err  error
}

func (e *PerFileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PerFileError) Unwrap() error {
	return e.Err
}

// RemoteQueryError is returned when the existence check fails for a reason other than not-found.
type RemoteQueryError struct {
	Name string
	Err  error
}

func (e *RemoteQueryError) Error() string {
	return fmt.Sprintf("query repository %q: %v", e.Name, e.Err)
}

func (e *RemoteQueryError) Unwrap() error {
	return e.Err
}

// CreationError is returned when the remote rejects repository creation.
// Details holds the structured sub-errors the remote sent, if any.
type CreationError struct {
	Name    string
	Details []string
	Err     error
}

func (e *CreationError) Error() string {
	msg := fmt.Sprintf("create repository %q: %v", e.Name, e.Err)
	if len(e.Details) > 0 {
		msg += " [" + strings.Join(e.Details, "; ") + "]"
	}
	return msg
}

func (e *CreationError) Unwrap() error {
	return e.Err
}

// detailer is implemented by remote errors carrying a list of sub-errors.
type detailer interface {
	Details() []string
}

func errorDetails(err error) []string {
	var d detailer
	if errors.As(err, &d) {
		return d.Details()
	}
	return nil
}
