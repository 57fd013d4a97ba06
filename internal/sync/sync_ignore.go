package sync

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gitswift/gitswift/internal/utils"
	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFileName is read from the local root when present, in gitignore syntax.
const IgnoreFileName = ".gitswiftignore"

var defaultIgnoreLines = []string{
	".git/",
}

// IgnoreList decides which local paths are left out of a pass.
type IgnoreList struct {
	baseDir  string
	excludes []string
	ignore   *gitignore.GitIgnore
}

// NewIgnoreList validates the extra doublestar excludes. Call Load before use.
func NewIgnoreList(baseDir string, excludes ...string) (*IgnoreList, error) {
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidExcludeGlob, pattern)
		}
	}
	return &IgnoreList{
		baseDir:  baseDir,
		excludes: excludes,
	}, nil
}

func (s *IgnoreList) Load() {
	ignorePath := filepath.Join(s.baseDir, IgnoreFileName)
	ignoreLines := append([]string(nil), defaultIgnoreLines...)

	if utils.FileExists(ignorePath) {
		rules := 0
		file, err := os.Open(ignorePath)
		if err != nil {
			slog.Warn("failed to open ignore file", "path", ignorePath, "error", err)
		} else {
			defer file.Close()

			scanner := bufio.NewScanner(file)
			for scanner.Scan() {
				line := strings.TrimRight(scanner.Text(), "\r")
				if line != "" {
					ignoreLines = append(ignoreLines, line)
					rules++
				}
			}

			if err := scanner.Err(); err != nil {
				slog.Warn("error reading ignore file", "path", ignorePath, "error", err)
			} else {
				slog.Debug("loaded ignore file", "path", ignorePath, "rules", rules)
			}
		}
	}

	s.ignore = gitignore.CompileIgnoreLines(ignoreLines...)
}

// ShouldIgnore takes a root-relative POSIX path.
func (s *IgnoreList) ShouldIgnore(relPath string, isDir bool) bool {
	if isGitDir(relPath) {
		return true
	}

	match := relPath
	if isDir {
		match += "/"
	}
	if s.ignore != nil && s.ignore.MatchesPath(match) {
		return true
	}

	for _, pattern := range s.excludes {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

func isGitDir(relPath string) bool {
	for _, seg := range strings.Split(relPath, "/") {
		if seg == ".git" {
			return true
		}
	}
	return false
}
