// Package userstore implements the persistence layer of §4.2: an
// append-only set of registered usernames backed by a flat text file. No
// ELO, no match history — only presence-of-username matters.
package userstore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store wraps a newline-delimited username file. All reads and writes are
// serialized through mu, so a concurrent Exists scan never observes a
// half-written line and duplicate Register calls never interleave.
type Store struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// Open opens the username file at path in append mode. The file must
// already exist (see EnsureFile for bootstrapping a fresh deployment).
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("userstore: opening %s: %w", path, err)
	}
	return &Store{path: path, f: f}, nil
}

// EnsureFile creates path (and its parent directory) if it does not already
// exist. This is a deployment convenience called once by cmd/server before
// Open; the Store type itself never creates the file implicitly, matching
// §6's "the file must exist at startup" contract.
func EnsureFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("userstore: creating directory %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("userstore: creating %s: %w", path, err)
	}
	return f.Close()
}

// Close closes the underlying file handle.
func (s *Store) Close() error {
	return s.f.Close()
}

// Exists reports whether name appears as an exact line match anywhere in
// the file.
func (s *Store) Exists(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return false, fmt.Errorf("userstore: reading %s: %w", s.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if scanner.Text() == name {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("userstore: scanning %s: %w", s.path, err)
	}
	return false, nil
}

// Register appends name followed by a newline. Callers are expected to
// call Exists first and only Register when it returned false; a
// concurrent duplicate append is tolerated (Exists treats "any line
// matches" as true) rather than prevented.
func (s *Store) Register(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.f.WriteString(name + "\n"); err != nil {
		return fmt.Errorf("userstore: appending %q to %s: %w", name, s.path, err)
	}
	return nil
}
