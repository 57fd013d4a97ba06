package sync

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gitswift/gitswift/internal/ghsdk"
	"github.com/gitswift/gitswift/internal/utils"
)

// LocalFile is a regular file found under the local root.
type LocalFile struct {
	Path    string // root-relative, POSIX separators
	AbsPath string
	Size    int64
	// Err is set when the entry was listed but could not be inspected.
	// It surfaces as a failed read for this path only.
	Err error
}

// Read loads the current content of the file.
func (f *LocalFile) Read() ([]byte, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return os.ReadFile(f.AbsPath)
}

// Fingerprint is the git blob SHA of content, the same value the remote reports
// as the version of an identical file.
func Fingerprint(content []byte) string {
	return ghsdk.BlobSHA(content)
}

// Scanner enumerates the files of a local tree.
//
// Per directory, files come first and then subdirectories, each in name
// order. Symlinks are followed; a symlinked directory that leads back to a
// directory already being walked is skipped. Only an unreadable root fails
// the scan: any other entry that cannot be inspected is returned with Err set.
type Scanner struct {
	rootDir string
	ignore  *IgnoreList
}

func NewScanner(rootDir string, ignore *IgnoreList) *Scanner {
	return &Scanner{rootDir: rootDir, ignore: ignore}
}

func (s *Scanner) Scan() ([]*LocalFile, error) {
	info, err := os.Stat(s.rootDir)
	if err != nil {
		return nil, fmt.Errorf("local scan failed: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotDir, s.rootDir)
	}

	real, err := filepath.EvalSymlinks(s.rootDir)
	if err != nil {
		return nil, fmt.Errorf("local scan failed: %w", err)
	}

	var files []*LocalFile
	visiting := mapset.NewThreadUnsafeSet(real)
	entries, err := os.ReadDir(s.rootDir)
	if err != nil {
		return nil, fmt.Errorf("local scan failed: %w", err)
	}
	s.walk(s.rootDir, "", entries, visiting, &files)
	return files, nil
}

func (s *Scanner) walk(dir, relDir string, entries []fs.DirEntry, visiting mapset.Set[string], files *[]*LocalFile) {
	var subdirs []string
	for _, entry := range entries {
		name := entry.Name()
		absPath := filepath.Join(dir, name)
		relPath := name
		if relDir != "" {
			relPath = relDir + "/" + name
		}

		info, err := s.stat(absPath, entry)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				slog.Warn("skipping broken symlink", "path", relPath)
				continue
			}
			s.unreadable(relPath, absPath, err, files)
			continue
		}

		switch {
		case info.IsDir():
			if !s.ignored(relPath, true) {
				subdirs = append(subdirs, name)
			}
		case info.Mode().IsRegular():
			if s.ignored(relPath, false) {
				continue
			}
			*files = append(*files, &LocalFile{
				Path:    utils.ToSlashRel(relPath),
				AbsPath: absPath,
				Size:    info.Size(),
			})
		default:
			slog.Debug("skipping non-regular file", "path", relPath, "mode", info.Mode().String())
		}
	}

	for _, name := range subdirs {
		absPath := filepath.Join(dir, name)
		relPath := name
		if relDir != "" {
			relPath = relDir + "/" + name
		}

		real, err := filepath.EvalSymlinks(absPath)
		if err != nil {
			s.unreadable(relPath, absPath, err, files)
			continue
		}
		if visiting.Contains(real) {
			slog.Warn("skipping symlink loop", "path", relPath, "target", real)
			continue
		}

		entries, err := os.ReadDir(absPath)
		if err != nil {
			s.unreadable(relPath, absPath, err, files)
			continue
		}

		visiting.Add(real)
		s.walk(absPath, relPath, entries, visiting, files)
		visiting.Remove(real)
	}
}

// unreadable records an entry that could not be stat'd or listed, unless it is ignored.
func (s *Scanner) unreadable(relPath, absPath string, err error, files *[]*LocalFile) {
	if s.ignored(relPath, false) {
		return
	}
	slog.Warn("local entry unreadable", "path", relPath, "error", err)
	*files = append(*files, &LocalFile{
		Path:    utils.ToSlashRel(relPath),
		AbsPath: absPath,
		Err:     err,
	})
}

// stat follows symlinks; other entries reuse the directory listing.
func (s *Scanner) stat(absPath string, entry fs.DirEntry) (fs.FileInfo, error) {
	if entry.Type()&fs.ModeSymlink != 0 {
		return os.Stat(absPath)
	}
	return entry.Info()
}

func (s *Scanner) ignored(relPath string, isDir bool) bool {
	return s.ignore != nil && s.ignore.ShouldIgnore(relPath, isDir)
}
