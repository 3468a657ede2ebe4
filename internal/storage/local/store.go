// Per-user local filesystem storage for images and ledger files.

// Package local stores each user's uploads under the data directory:
// {base}/{username}/images/{file} for photos and {base}/{username}/places.csv
// for the ledger. The same relative layout is mirrored to the remote store.
package local

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LedgerFileName is the per-user ledger file.
const LedgerFileName = "places.csv"

// ErrInvalidUsername is returned for usernames that are not safe path
// components.
var ErrInvalidUsername = errors.New("invalid username")

// Store is the local half of the dual persistence. All paths are derived from
// a validated username so a request can never escape the base directory.
type Store struct {
	baseDir string
}

// NewStore creates a store rooted at baseDir, creating the directory if
// needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// BaseDir returns the root of the local data tree.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// checkName rejects names that are empty or could traverse outside the user's
// directory.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidUsername
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return ErrInvalidUsername
	}
	return nil
}

// SaveImage writes image bytes under the user's images directory and returns
// the absolute path written.
func (s *Store) SaveImage(username, fileName string, data []byte) (string, error) {
	if err := checkName(username); err != nil {
		return "", err
	}
	if err := checkName(fileName); err != nil {
		return "", fmt.Errorf("invalid image file name %q", fileName)
	}
	dir := filepath.Join(s.baseDir, username, "images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create images directory: %w", err)
	}
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return path, nil
}

// ReadLedger returns the raw ledger bytes for a user. A missing file is a
// normal outcome reported through found, not an error.
func (s *Store) ReadLedger(username string) (data []byte, found bool, err error) {
	if err := checkName(username); err != nil {
		return nil, false, err
	}
	data, err = os.ReadFile(s.LedgerPath(username))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read ledger: %w", err)
	}
	return data, true, nil
}

// WriteLedger writes the serialized ledger for a user and returns the
// absolute path written.
func (s *Store) WriteLedger(username string, data []byte) (string, error) {
	if err := checkName(username); err != nil {
		return "", err
	}
	dir := filepath.Join(s.baseDir, username)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create user directory: %w", err)
	}
	path := s.LedgerPath(username)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write ledger: %w", err)
	}
	return path, nil
}

// LedgerPath returns the absolute path of a user's ledger file.
func (s *Store) LedgerPath(username string) string {
	return filepath.Join(s.baseDir, username, LedgerFileName)
}

// RelLedgerPath returns the ledger path relative to the base directory, using
// forward slashes. This is the path used for remote mirroring and git staging.
func RelLedgerPath(username string) string {
	return username + "/" + LedgerFileName
}

// RelImagePath returns an image path relative to the base directory, using
// forward slashes.
func RelImagePath(username, fileName string) string {
	return username + "/images/" + fileName
}

// ListUsers returns the usernames that have a ledger file, sorted.
func (s *Store) ListUsers() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read base directory: %w", err)
	}
	var users []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(s.LedgerPath(e.Name())); err == nil {
			users = append(users, e.Name())
		}
	}
	sort.Strings(users)
	return users, nil
}
