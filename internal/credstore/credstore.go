// Package credstore persists labelled access tokens for the CLI.
//
// The file is a flat JSON object mapping label to token. Every operation
// reads, modifies and rewrites it under an advisory file lock.
package credstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gitswift/gitswift/internal/utils"
	"github.com/goccy/go-json"
	"github.com/gofrs/flock"
)

const labelTimeLayout = "2006-01-02 15:04"

var (
	ErrEmptyLabel    = errors.New("credstore: label cannot be empty")
	ErrEmptyToken    = errors.New("credstore: token cannot be empty")
	ErrTokenNotFound = errors.New("credstore: no stored token matches")
	ErrCorrupt       = errors.New("credstore: token file is not valid JSON")
)

// Entry is a stored token.
type Entry struct {
	Label string `json:"label" yaml:"label"`
	Token string `json:"token" yaml:"token"`
}

type Store struct {
	path string
	lock *flock.Flock
}

// New returns a store backed by path. Nothing is read or created until first use.
func New(path string) *Store {
	return &Store{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

func (s *Store) Path() string {
	return s.path
}

// List returns every entry sorted by label.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry
	err := s.withLock(func(tokens map[string]string) (bool, error) {
		entries = toEntries(tokens)
		return false, nil
	})
	return entries, err
}

// Get returns the token stored under label.
func (s *Store) Get(label string) (string, bool, error) {
	var (
		token string
		ok    bool
	)
	err := s.withLock(func(tokens map[string]string) (bool, error) {
		token, ok = tokens[label]
		return false, nil
	})
	return token, ok, err
}

// Put stores token under label. A token already stored under a different
// label is moved, so each token appears once.
func (s *Store) Put(label, token string) error {
	label = strings.TrimSpace(label)
	token = strings.TrimSpace(token)
	if label == "" {
		return ErrEmptyLabel
	}
	if token == "" {
		return ErrEmptyToken
	}

	return s.withLock(func(tokens map[string]string) (bool, error) {
		for l, t := range tokens {
			if t == token && l != label {
				delete(tokens, l)
			}
		}
		tokens[label] = token
		return true, nil
	})
}

// Delete removes the entry whose label or token equals labelOrToken and returns its label.
func (s *Store) Delete(labelOrToken string) (string, error) {
	var removed string
	err := s.withLock(func(tokens map[string]string) (bool, error) {
		if _, ok := tokens[labelOrToken]; ok {
			removed = labelOrToken
		} else {
			for l, t := range tokens {
				if t == labelOrToken {
					removed = l
					break
				}
			}
		}
		if removed == "" {
			return false, ErrTokenNotFound
		}
		delete(tokens, removed)
		return true, nil
	})
	return removed, err
}

// Resolve maps a stored label to its token. Any other input is taken to be a token itself.
// label is empty when input was not a stored label.
func (s *Store) Resolve(input string) (token, label string, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", "", ErrEmptyToken
	}
	stored, ok, err := s.Get(input)
	if err != nil {
		return "", "", err
	}
	if ok {
		return stored, input, nil
	}
	return input, "", nil
}

// DefaultLabel names a token after its account and the time it was added.
func DefaultLabel(login string, now time.Time) string {
	return fmt.Sprintf("%s - %s", login, now.Format(labelTimeLayout))
}

func (s *Store) withLock(fn func(tokens map[string]string) (bool, error)) error {
	if err := utils.EnsureParent(s.path); err != nil {
		return fmt.Errorf("credstore: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("credstore: lock: %w", err)
	}
	defer s.lock.Unlock()

	tokens, err := s.read()
	if err != nil {
		return err
	}

	changed, err := fn(tokens)
	if err != nil || !changed {
		return err
	}
	return s.write(tokens)
}

func (s *Store) read() (map[string]string, error) {
	tokens := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return tokens, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credstore: read %s: %w", s.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return tokens, nil
	}
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	return tokens, nil
}

func (s *Store) write(tokens map[string]string) error {
	data, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return fmt.Errorf("credstore: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tokens-*.json")
	if err != nil {
		return fmt.Errorf("credstore: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("credstore: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("credstore: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("credstore: write: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("credstore: replace %s: %w", s.path, err)
	}
	return nil
}

func toEntries(tokens map[string]string) []Entry {
	entries := make([]Entry, 0, len(tokens))
	for l, t := range tokens {
		entries = append(entries, Entry{Label: l, Token: t})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Label < entries[j].Label })
	return entries
}
