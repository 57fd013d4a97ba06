package ghsdk

// User is the subset of the account object the client needs.
type User struct {
	Login string `json:"login"`
	ID    int64  `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
}

type RepositoryOwner struct {
	Login string `json:"login"`
}

type Repository struct {
	ID            int64           `json:"id,omitempty"`
	Name          string          `json:"name"`
	FullName      string          `json:"full_name"`
	Owner         RepositoryOwner `json:"owner"`
	Description   string          `json:"description,omitempty"`
	HTMLURL       string          `json:"html_url"`
	Private       bool            `json:"private"`
	DefaultBranch string          `json:"default_branch,omitempty"`
}

type CreateRepositoryParams struct {
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Private         bool   `json:"private"`
	AutoInit        bool   `json:"auto_init"`
	LicenseTemplate string `json:"license_template,omitempty"`
}

// FileContent is a decoded file from the contents endpoint.
type FileContent struct {
	Path      string
	SHA       string
	Size      int64
	Content   []byte
	Truncated bool
}

type FileCommit struct {
	Content struct {
		Path string `json:"path"`
		SHA  string `json:"sha"`
	} `json:"content"`
	Commit struct {
		SHA     string `json:"sha"`
		Message string `json:"message,omitempty"`
	} `json:"commit"`
}

type contentEntry struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Size     int64  `json:"size"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Content  string `json:"content"`
	SHA      string `json:"sha"`
}

type writeParams struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}
