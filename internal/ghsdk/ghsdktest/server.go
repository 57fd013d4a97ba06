// Package ghsdktest runs an in-memory stand-in for the GitHub REST endpoints
// the client uses. Repositories and files live in maps; failures can be
// injected per request.
package ghsdktest

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLogin              = "octocat"
	DefaultToken              = "ghp_testtoken0123456789"
	DefaultLargeFileThreshold = 1 << 20

	base64LineWidth = 60
)

type Failure struct {
	Status  int
	Message string
}

type Server struct {
	*httptest.Server

	mu        sync.Mutex
	login     string
	token     string
	readOnly  bool
	threshold int
	repos     map[string]*repository
	failures  map[string]Failure
	calls     map[string]int
}

type repository struct {
	name        string
	description string
	private     bool
	license     string
	files       map[string][]byte
}

type Option func(*Server)

// WithLogin sets the account that owns the token.
func WithLogin(login string) Option {
	return func(s *Server) { s.login = login }
}

func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithReadOnlyToken makes every write answer 403 with an accepted-scopes hint.
func WithReadOnlyToken() Option {
	return func(s *Server) { s.readOnly = true }
}

// WithLargeFileThreshold sets the size above which file content is not inlined.
func WithLargeFileThreshold(n int) Option {
	return func(s *Server) { s.threshold = n }
}

// NewServer starts the fake. Close it when done.
func NewServer(opts ...Option) *Server {
	s := &Server{
		login:     DefaultLogin,
		token:     DefaultToken,
		threshold: DefaultLargeFileThreshold,
		repos:     make(map[string]*repository),
		failures:  make(map[string]Failure),
		calls:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(s.track, s.inject, s.authenticate)

	r.GET("/user", s.handleUser)
	r.POST("/user/repos", s.writeGuard, s.handleCreateRepo)
	r.GET("/repos/:owner/:repo", s.handleGetRepo)
	r.GET("/repos/:owner/:repo/contents/*path", s.handleGetContents)
	r.PUT("/repos/:owner/:repo/contents/*path", s.writeGuard, s.handlePutContents)

	s.Server = httptest.NewServer(r)
	return s
}

func (s *Server) Login() string { return s.login }
func (s *Server) Token() string { return s.token }

// Fail makes every request matching method and path answer status until cleared.
func (s *Server) Fail(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = Failure{Status: status, Message: message}
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]Failure)
}

// Calls counts requests for method and path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// CallsByMethod counts every request with method.
func (s *Server) CallsByMethod(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, v := range s.calls {
		if strings.HasPrefix(k, method+" ") {
			n += v
		}
	}
	return n
}

func (s *Server) AddRepo(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repos[name] = &repository{name: name, files: make(map[string][]byte)}
}

func (s *Server) HasRepo(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.repos[name]
	return ok
}

// RepoInfo reports the creation parameters a repository was created with.
func (s *Server) RepoInfo(name string) (description string, private bool, license string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.repos[name]
	if !ok {
		return "", false, "", false
	}
	return r.description, r.private, r.license, true
}

// PutFile seeds a file, creating the repository when needed.
func (s *Server) PutFile(repo, path string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.repos[repo]
	if !ok {
		r = &repository{name: repo, files: make(map[string][]byte)}
		s.repos[repo] = r
	}
	r.files[path] = append([]byte(nil), content...)
}

func (s *Server) File(repo, path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.repos[repo]
	if !ok {
		return nil, false
	}
	data, ok := r.files[path]
	return data, ok
}

// Paths lists the files of a repository in sorted order.
func (s *Server) Paths(repo string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.repos[repo]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(r.files))
	for p := range r.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// BlobSHA is the git blob object id of content.
func BlobSHA(content []byte) string {
	h := sha1.New()
	h.Write([]byte("blob " + strconv.Itoa(len(content)) + "\x00"))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// middleware

func (s *Server) track(c *gin.Context) {
	s.mu.Lock()
	s.calls[c.Request.Method+" "+c.Request.URL.Path]++
	s.mu.Unlock()
	c.Next()
}

func (s *Server) inject(c *gin.Context) {
	s.mu.Lock()
	f, ok := s.failures[c.Request.Method+" "+c.Request.URL.Path]
	s.mu.Unlock()
	if ok {
		abortWith(c, f.Status, f.Message)
		return
	}
	c.Next()
}

func (s *Server) authenticate(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if auth != "Bearer "+s.token && auth != "token "+s.token {
		abortWith(c, http.StatusUnauthorized, "Bad credentials")
		return
	}
	c.Header("X-OAuth-Scopes", s.scopes())
	c.Next()
}

func (s *Server) writeGuard(c *gin.Context) {
	if s.readOnly {
		c.Header("X-Accepted-OAuth-Scopes", "repo")
		abortWith(c, http.StatusForbidden, "Resource not accessible by personal access token")
		return
	}
	c.Next()
}

func (s *Server) scopes() string {
	if s.readOnly {
		return "read:user"
	}
	return "repo, read:user"
}

// handlers

func (s *Server) handleUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"login": s.login, "id": 1})
}

type createRepoRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Private         bool   `json:"private"`
	AutoInit        bool   `json:"auto_init"`
	LicenseTemplate string `json:"license_template"`
}

func (s *Server) handleCreateRepo(c *gin.Context) {
	var body createRepoRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWith(c, http.StatusBadRequest, "Problems parsing JSON")
		return
	}
	if body.Name == "" {
		abortWithErrors(c, "Repository creation failed.", gin.H{
			"resource": "Repository", "code": "missing_field", "field": "name",
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.repos[body.Name]; ok {
		abortWithErrors(c, "Repository creation failed.", gin.H{
			"resource": "Repository", "code": "custom", "field": "name",
			"message": "name already exists on this account",
		})
		return
	}

	r := &repository{
		name:        body.Name,
		description: body.Description,
		private:     body.Private,
		license:     body.LicenseTemplate,
		files:       make(map[string][]byte),
	}
	s.repos[body.Name] = r
	c.JSON(http.StatusCreated, s.repoJSON(r))
}

func (s *Server) handleGetRepo(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.lookup(c)
	if !ok {
		abortWith(c, http.StatusNotFound, "Not Found")
		return
	}
	c.JSON(http.StatusOK, s.repoJSON(r))
}

func (s *Server) handleGetContents(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.lookup(c)
	if !ok {
		abortWith(c, http.StatusNotFound, "Not Found")
		return
	}

	path := strings.Trim(c.Param("path"), "/")
	data, ok := r.files[path]
	if !ok {
		if entries := r.dirEntries(path); len(entries) > 0 {
			c.JSON(http.StatusOK, entries)
			return
		}
		abortWith(c, http.StatusNotFound, "Not Found")
		return
	}

	entry := gin.H{
		"type": "file",
		"name": path[strings.LastIndex(path, "/")+1:],
		"path": path,
		"sha":  BlobSHA(data),
		"size": len(data),
	}
	if len(data) > s.threshold {
		entry["encoding"] = "none"
		entry["content"] = ""
	} else {
		entry["encoding"] = "base64"
		entry["content"] = wrapBase64(data)
	}
	c.JSON(http.StatusOK, entry)
}

type putContentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

func (s *Server) handlePutContents(c *gin.Context) {
	var body putContentsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWith(c, http.StatusBadRequest, "Problems parsing JSON")
		return
	}
	if body.Message == "" {
		abortWith(c, http.StatusUnprocessableEntity, "Invalid request.\n\n\"message\" wasn't supplied.")
		return
	}
	data, err := base64.StdEncoding.DecodeString(body.Content)
	if err != nil {
		abortWith(c, http.StatusUnprocessableEntity, "content is not valid Base64")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.lookup(c)
	if !ok {
		abortWith(c, http.StatusNotFound, "Not Found")
		return
	}

	path := strings.Trim(c.Param("path"), "/")
	status := http.StatusCreated
	if current, exists := r.files[path]; exists {
		switch {
		case body.SHA == "":
			abortWith(c, http.StatusUnprocessableEntity, "Invalid request.\n\n\"sha\" wasn't supplied.")
			return
		case body.SHA != BlobSHA(current):
			abortWith(c, http.StatusConflict, path+" does not match "+body.SHA)
			return
		}
		status = http.StatusOK
	}

	r.files[path] = data
	sha := BlobSHA(data)
	c.JSON(status, gin.H{
		"content": gin.H{"path": path, "sha": sha},
		"commit":  gin.H{"sha": BlobSHA([]byte(body.Message + sha)), "message": body.Message},
	})
}

// helpers

func (s *Server) lookup(c *gin.Context) (*repository, bool) {
	if c.Param("owner") != s.login {
		return nil, false
	}
	r, ok := s.repos[c.Param("repo")]
	return r, ok
}

func (s *Server) repoJSON(r *repository) gin.H {
	return gin.H{
		"name":           r.name,
		"full_name":      s.login + "/" + r.name,
		"owner":          gin.H{"login": s.login},
		"description":    r.description,
		"html_url":       "https://github.com/" + s.login + "/" + r.name,
		"private":        r.private,
		"default_branch": "main",
	}
}

func (r *repository) dirEntries(dir string) []gin.H {
	prefix := dir + "/"
	if dir == "" {
		prefix = ""
	}
	seen := make(map[string]bool)
	var out []gin.H
	for p := range r.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		name, _, isDir := strings.Cut(rest, "/")
		if seen[name] {
			continue
		}
		seen[name] = true
		typ := "file"
		if isDir {
			typ = "dir"
		}
		out = append(out, gin.H{"type": typ, "name": name, "path": prefix + name})
	}
	return out
}

func wrapBase64(data []byte) string {
	enc := base64.StdEncoding.EncodeToString(data)
	var b strings.Builder
	for len(enc) > base64LineWidth {
		b.WriteString(enc[:base64LineWidth])
		b.WriteByte('\n')
		enc = enc[base64LineWidth:]
	}
	b.WriteString(enc)
	b.WriteByte('\n')
	return b.String()
}

func abortWith(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"message":           message,
		"documentation_url": "https://docs.github.com/rest",
	})
}

func abortWithErrors(c *gin.Context, message string, errs ...gin.H) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
		"message":           message,
		"errors":            errs,
		"documentation_url": "https://docs.github.com/rest/repos/repos#create-a-repository-for-the-authenticated-user",
	})
}
