// Package lister provides the tracked-file listing used by the enumerator.
package lister

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/taigrr/srcpaths/internal/types"
)

// Lister produces the raw listing of tracked files.
//
// A non-zero exit of the underlying tool is not an error at this level: the
// Listing carries the exit code and captured stderr so the caller can apply
// its own failure policy.
type Lister interface {
	List(ctx context.Context) (types.Listing, error)
}

// Func adapts a function to the Lister interface.
type Func func(ctx context.Context) (types.Listing, error)

// List calls f.
func (f Func) List(ctx context.Context) (types.Listing, error) {
	return f(ctx)
}

// LaunchError reports that the listing command could not be started.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Git lists the files in the git index with `git ls-files`.
type Git struct {
	// Binary is the git executable; empty means "git" looked up on PATH.
	Binary string
	// Dir is the checkout root; empty means the process working directory.
	Dir string
	// Timeout bounds the invocation; zero disables it.
	Timeout time.Duration
}

// NewGit creates a Git lister rooted at dir.
func NewGit(binary, dir string, timeout time.Duration) *Git {
	return &Git{Binary: binary, Dir: dir, Timeout: timeout}
}

// Args returns the arguments passed to the git binary. The ":/" pathspec
// with --full-name lists the whole index relative to the repository top
// level even when Dir is a subdirectory. core.quotePath=false keeps
// non-ASCII paths as raw UTF-8 instead of quoted octal escapes.
func (g *Git) Args() []string {
	return []string{"-c", "core.quotePath=false", "ls-files", "--full-name", "--", ":/"}
}

func (g *Git) binary() string {
	if strings.TrimSpace(g.Binary) == "" {
		return "git"
	}
	return g.Binary
}

// List runs git once and captures stdout and stderr separately.
func (g *Git) List(ctx context.Context) (types.Listing, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, g.binary(), g.Args()...)
	if strings.TrimSpace(g.Dir) != "" {
		cmd.Dir = g.Dir
	}

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err := cmd.Start(); err != nil {
		return types.Listing{}, &LaunchError{Command: g.binary(), Err: err}
	}

	return listingFrom(ctx, cmd.Wait(), outBuf.Bytes(), errBuf.Bytes())
}

// listingFrom interprets the result of Wait. The context only matters when
// the process failed: a listing that completed is kept even if ctx was
// canceled afterwards.
func listingFrom(ctx context.Context, waitErr error, stdout, stderr []byte) (types.Listing, error) {
	listing := types.Listing{Stdout: stdout, Stderr: stderr}
	if waitErr == nil {
		return listing, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return types.Listing{}, fmt.Errorf("git ls-files: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	if !errors.As(waitErr, &exitErr) {
		return types.Listing{}, fmt.Errorf("git ls-files: %w", waitErr)
	}
	listing.ExitCode = exitErr.ExitCode()
	return listing, nil
}

// TopLevel returns the absolute top-level directory of the repository that
// contains dir.
func TopLevel(ctx context.Context, binary, dir string) (string, error) {
	g := &Git{Binary: binary}
	cmd := exec.CommandContext(ctx, g.binary(), "rev-parse", "--show-toplevel")
	if strings.TrimSpace(dir) != "" {
		cmd.Dir = dir
	}

	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(errBuf.String()); msg != "" {
			return "", fmt.Errorf("git rev-parse: %w: %s", err, msg)
		}
		return "", fmt.Errorf("git rev-parse: %w", err)
	}

	top := strings.TrimRight(string(out), "\r\n")
	if top == "" {
		return "", fmt.Errorf("git rev-parse: empty top level for %s", dir)
	}
	return filepath.FromSlash(top), nil
}

// Static is a Lister that returns a fixed set of paths, one per line with a
// trailing newline, the way git prints them.
type Static struct {
	Paths    []string
	ExitCode int
	Stderr   string

	calls atomic.Int64
}

// NewStatic creates a Static lister returning paths.
func NewStatic(paths ...string) *Static {
	return &Static{Paths: paths}
}

// List returns the configured listing.
func (s *Static) List(ctx context.Context) (types.Listing, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return types.Listing{}, err
	}

	var out bytes.Buffer
	for _, p := range s.Paths {
		out.WriteString(p)
		out.WriteByte('\n')
	}

	return types.Listing{
		Stdout:   out.Bytes(),
		Stderr:   []byte(s.Stderr),
		ExitCode: s.ExitCode,
	}, nil
}

// Calls returns how many times List has been invoked.
func (s *Static) Calls() int {
	return int(s.calls.Load())
}
