// Package workspace resolves listed paths against the checkout on disk.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Service resolves repository-relative paths inside a checkout root.
type Service struct {
	root string
}

// New creates a Service for root. An empty root means the working directory.
func New(root string) (*Service, error) {
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	absPath, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	return &Service{root: absPath}, nil
}

// Root returns the absolute checkout root.
func (s *Service) Root() string {
	return s.root
}

// ResolvePath turns a listed path into an absolute path within the root.
// The path is an exact index entry: surrounding spaces are part of the name.
func (s *Service) ResolvePath(rawPath string) (string, error) {
	if rawPath == "" {
		return "", fmt.Errorf("empty path")
	}
	normalizedPath := strings.TrimPrefix(filepath.FromSlash(rawPath), string(filepath.Separator))

	absPath := filepath.Join(s.root, normalizedPath)

	relPath, err := filepath.Rel(s.root, absPath)
	if err != nil {
		return "", err
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal not allowed: %s", rawPath)
	}

	return absPath, nil
}

// Exists reports whether rawPath names a regular file in the checkout.
// Tracked files deleted from the worktree are still listed by git.
func (s *Service) Exists(rawPath string) bool {
	fullPath, err := s.ResolvePath(rawPath)
	if err != nil {
		return false
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
