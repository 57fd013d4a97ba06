package ghsdk

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/imroc/req/v3"
)

const (
	v3Contents = "/repos/{owner}/{repo}/contents/"

	encodingBase64 = "base64"
	encodingNone   = "none"
	typeFile       = "file"
)

type ContentsAPI struct {
	client *req.Client
}

func newContentsAPI(client *req.Client) *ContentsAPI {
	return &ContentsAPI{
		client: client,
	}
}

// Get fetches a single file from the default branch.
//
// Files above the API's inline limit come back with Truncated set and no
// Content; their SHA is still the git blob SHA and can be compared with BlobSHA.
func (c *ContentsAPI) Get(ctx context.Context, owner, repo, path string) (*FileContent, error) {
	res, err := c.client.R().
		SetContext(ctx).
		SetPathParam("owner", owner).
		SetPathParam("repo", repo).
		Get(v3Contents + escapeContentPath(path))

	if err := handleAPIError(res, err, "get contents"); err != nil {
		return nil, err
	}

	body := bytes.TrimSpace(res.Bytes())
	if len(body) > 0 && body[0] == '[' {
		// directory listing
		return nil, fmt.Errorf("get contents %q: %w", path, ErrNotAFile)
	}

	var entry contentEntry
	if err := jsonUnmarshal(body, &entry); err != nil {
		return nil, fmt.Errorf("get contents %q: decode: %w", path, err)
	}
	if entry.Type != typeFile {
		return nil, fmt.Errorf("get contents %q: type %s: %w", path, entry.Type, ErrNotAFile)
	}

	file := &FileContent{
		Path: entry.Path,
		SHA:  entry.SHA,
		Size: entry.Size,
	}

	switch entry.Encoding {
	case encodingBase64:
		data, err := decodeContent(entry.Content)
		if err != nil {
			return nil, fmt.Errorf("get contents %q: %w", path, err)
		}
		file.Content = data
	case encodingNone, "":
		file.Truncated = entry.Size > 0
	default:
		return nil, fmt.Errorf("get contents %q: unsupported encoding %q", path, entry.Encoding)
	}

	return file, nil
}

// Create adds a new file. Creating over an existing path is rejected by the server.
func (c *ContentsAPI) Create(ctx context.Context, owner, repo, path, message string, content []byte) (*FileCommit, error) {
	return c.put(ctx, owner, repo, path, &writeParams{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
	}, "create file")
}

// Update replaces an existing file. sha must be the blob SHA the change is based on.
func (c *ContentsAPI) Update(ctx context.Context, owner, repo, path, message string, content []byte, sha string) (*FileCommit, error) {
	return c.put(ctx, owner, repo, path, &writeParams{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     sha,
	}, "update file")
}

func (c *ContentsAPI) put(ctx context.Context, owner, repo, path string, params *writeParams, op string) (commit *FileCommit, err error) {
	res, err := c.client.R().
		SetContext(ctx).
		SetPathParam("owner", owner).
		SetPathParam("repo", repo).
		SetBody(params).
		SetSuccessResult(&commit).
		Put(v3Contents + escapeContentPath(path))

	if err := handleAPIError(res, err, op); err != nil {
		return nil, err
	}

	return commit, nil
}

// BlobSHA is the git blob object id of content, the same value the API reports as a file's sha.
func BlobSHA(content []byte) string {
	h := sha1.New()
	h.Write([]byte("blob " + strconv.Itoa(len(content)) + "\x00"))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func decodeContent(s string) ([]byte, error) {
	// the API wraps base64 payloads at 60 columns
	s = strings.NewReplacer("\n", "", "\r", "").Replace(s)
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return data, nil
}

func escapeContentPath(p string) string {
	segs := strings.Split(strings.Trim(p, "/"), "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}
