// Package enumerator lists tracked source files matching a suffix.
//
// An Enumerator asks its Lister for the tracked-file listing once per
// iteration, decodes it as UTF-8, splits it on '\n' and yields a
// types.PathDescriptor for every line whose suffix matches. Nothing is
// cached: ranging over Paths twice runs the listing twice.
package enumerator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/taigrr/srcpaths/internal/config"
	"github.com/taigrr/srcpaths/internal/lister"
	"github.com/taigrr/srcpaths/internal/logging"
	"github.com/taigrr/srcpaths/internal/pathfilter"
	"github.com/taigrr/srcpaths/internal/srcpath"
	"github.com/taigrr/srcpaths/internal/types"
	"github.com/taigrr/srcpaths/internal/workspace"
)

// ErrEnumerationFailed matches every *EnumerationError.
var ErrEnumerationFailed = errors.New("enumeration failed")

// EnumerationError reports a listing that exited non-zero.
type EnumerationError struct {
	ExitCode int
	Stderr   string
}

func (e *EnumerationError) Error() string {
	msg := fmt.Sprintf("listing tracked files exited with status %d", e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Is makes errors.Is(err, ErrEnumerationFailed) hold.
func (e *EnumerationError) Is(target error) bool {
	return target == ErrEnumerationFailed
}

// DecodeError reports listing output that is not valid UTF-8.
type DecodeError struct {
	// Offset is the byte offset of the first invalid sequence.
	Offset int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("listing output is not valid UTF-8 (byte offset %d)", e.Offset)
}

// Options configures an Enumerator.
type Options struct {
	// OnFailure is config.OnFailureError or config.OnFailureIgnore.
	OnFailure string
	// LineEndings is config.LineEndingsNormalize or config.LineEndingsLF.
	LineEndings string
	// Workspace, when set, drops paths missing from the worktree.
	Workspace *workspace.Service
	Logger    *zap.Logger
}

// Enumerator produces descriptors for tracked files matching a filter.
type Enumerator struct {
	lister    lister.Lister
	filter    *pathfilter.PathFilter
	onFailure string
	lineEnds  string
	workspace *workspace.Service
	logger    *zap.Logger
}

// New creates an Enumerator. A nil filter matches ".erl" files.
func New(l lister.Lister, pf *pathfilter.PathFilter, opts Options) *Enumerator {
	if pf == nil {
		pf, _ = pathfilter.New(nil)
	}
	onFailure := opts.OnFailure
	if onFailure == "" {
		onFailure = config.OnFailureError
	}
	lineEnds := opts.LineEndings
	if lineEnds == "" {
		lineEnds = config.LineEndingsNormalize
	}
	return &Enumerator{
		lister:    l,
		filter:    pf,
		onFailure: onFailure,
		lineEnds:  lineEnds,
		workspace: opts.Workspace,
		logger:    logging.OrNop(opts.Logger),
	}
}

// FromConfig builds an Enumerator for cfg. A nil l lists with git in
// cfg.Root, which may be any directory inside the repository: paths are
// always relative to its top level.
func FromConfig(cfg *config.Config, l lister.Lister, logger *zap.Logger) (*Enumerator, error) {
	pf, err := pathfilter.New(cfg.FilterConfig())
	if err != nil {
		return nil, err
	}

	root := cfg.Root
	if l == nil {
		l = lister.NewGit(cfg.Git.Binary, cfg.Root, cfg.Git.Timeout)
		if cfg.RequireExisting {
			root = topLevelOr(cfg)
		}
	}

	opts := Options{
		OnFailure:   cfg.OnFailure,
		LineEndings: cfg.LineEndings,
		Logger:      logger,
	}
	if cfg.RequireExisting {
		ws, err := workspace.New(root)
		if err != nil {
			return nil, err
		}
		opts.Workspace = ws
	}

	return New(l, pf, opts), nil
}

// topLevelOr returns the repository top level containing cfg.Root, or
// cfg.Root itself when git cannot tell.
func topLevelOr(cfg *config.Config) string {
	ctx := context.Background()
	if cfg.Git.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Git.Timeout)
		defer cancel()
	}
	top, err := lister.TopLevel(ctx, cfg.Git.Binary, cfg.Root)
	if err != nil {
		return cfg.Root
	}
	return top
}

// Suffix returns the suffix being enumerated.
func (e *Enumerator) Suffix() string {
	return e.filter.Suffix()
}

// Paths returns the matching descriptors in listing order. An error is
// yielded at most once and ends the sequence.
func (e *Enumerator) Paths(ctx context.Context) iter.Seq2[types.PathDescriptor, error] {
	return e.Tally(ctx, nil)
}

// Tally is Paths that also adds to summary as the sequence is consumed.
func (e *Enumerator) Tally(ctx context.Context, summary *types.Summary) iter.Seq2[types.PathDescriptor, error] {
	return func(yield func(types.PathDescriptor, error) bool) {
		e.walk(ctx, summary, yield)
	}
}

// Collect drains Paths, stopping at the first error.
func (e *Enumerator) Collect(ctx context.Context) ([]types.PathDescriptor, error) {
	var out []types.PathDescriptor
	for d, err := range e.Paths(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Count runs one enumeration and reports what it saw.
func (e *Enumerator) Count(ctx context.Context) (types.Summary, error) {
	var summary types.Summary
	for _, err := range e.Tally(ctx, &summary) {
		if err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (e *Enumerator) walk(ctx context.Context, summary *types.Summary, yield func(types.PathDescriptor, error) bool) {
	if summary == nil {
		summary = &types.Summary{}
	}

	e.logger.Debug("listing tracked files", zap.String("suffix", e.filter.Suffix()))
	listing, err := e.lister.List(ctx)
	if err != nil {
		yield(types.PathDescriptor{}, err)
		return
	}

	if listing.ExitCode != 0 {
		if e.onFailure != config.OnFailureIgnore {
			yield(types.PathDescriptor{}, &EnumerationError{
				ExitCode: listing.ExitCode,
				Stderr:   string(listing.Stderr),
			})
			return
		}
		e.logger.Warn("tracked file listing failed, continuing with its output",
			zap.Int("exit_code", listing.ExitCode),
			zap.ByteString("stderr", bytes.TrimSpace(listing.Stderr)))
	}

	if !utf8.Valid(listing.Stdout) {
		yield(types.PathDescriptor{}, &DecodeError{Offset: invalidOffset(listing.Stdout)})
		return
	}

	for line := range strings.SplitSeq(string(listing.Stdout), "\n") {
		if e.lineEnds == config.LineEndingsNormalize {
			line = strings.TrimSuffix(line, "\r")
		}
		if line != "" {
			summary.Listed++
		}

		itemPath := srcpath.Parse(line)
		if !e.filter.HasSuffix(itemPath) {
			continue
		}
		if e.filter.Excluded(line) {
			summary.Excluded++
			continue
		}
		if e.workspace != nil && !e.workspace.Exists(line) {
			summary.Missing++
			e.logger.Debug("skipping tracked file missing from worktree", zap.String("path", line))
			continue
		}

		summary.Matched++
		if !yield(types.PathDescriptor{RawPath: line, ItemPath: itemPath}, nil) {
			return
		}
	}
}

func invalidOffset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}
