// Package session persists the single "currently open" binary path between
// invocations of the CLI.
//
// The session is one line of text in one file. There is no locking: two
// concurrent writers race and the last one wins.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFileName is the session file created in the working directory.
const DefaultFileName = "lastopenedfile.txt"

// ErrNotFound is returned by Delete when there is no session to remove.
var ErrNotFound = errors.New("no open session")

// Store loads, saves and deletes the last opened path.
type Store interface {
	// Load returns the persisted path, or "" if none was saved.
	Load() (string, error)
	// Save replaces the persisted path.
	Save(path string) error
	// Delete removes the session. It reports ErrNotFound if there is none.
	Delete() error
}

// FileStore keeps the session in a plain text file.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the session file, creating it empty when it is missing.
func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		if err := s.write(""); err != nil {
			return "", err
		}
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading session file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save overwrites the session file with path.
func (s *FileStore) Save(path string) error {
	return s.write(path)
}

// Delete removes the session file.
func (s *FileStore) Delete() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", s.path, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

func (s *FileStore) write(content string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating session directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}
