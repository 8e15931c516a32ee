// Package pathfilter decides which listed paths are source files of interest.
package pathfilter

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/taigrr/srcpaths/internal/srcpath"
	"github.com/taigrr/srcpaths/internal/types"
)

// DefaultSuffix is the suffix matched when none is configured.
const DefaultSuffix = ".erl"

// PathFilter matches paths by exact suffix and excludes glob patterns.
type PathFilter struct {
	suffix   string
	patterns []string
	excludes []glob.Glob
}

// New creates a new PathFilter with the given configuration.
// A nil config matches DefaultSuffix with no excludes.
func New(config *types.FilterConfig) (*PathFilter, error) {
	pf := &PathFilter{suffix: DefaultSuffix}
	if config == nil {
		return pf, nil
	}

	if s := srcpath.NormalizeSuffix(config.Suffix); s != "" {
		pf.suffix = s
	}

	for _, pattern := range config.ExcludePatterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		// '*' stops at '/', '**' crosses it
		g, err := glob.Compile(normalize(pattern), '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		pf.patterns = append(pf.patterns, pattern)
		pf.excludes = append(pf.excludes, g)
	}

	return pf, nil
}

// Suffix returns the suffix this filter matches.
func (pf *PathFilter) Suffix() string {
	return pf.suffix
}

// Patterns returns the exclude patterns as configured.
func (pf *PathFilter) Patterns() []string {
	return pf.patterns
}

// HasSuffix reports whether p carries the configured suffix.
func (pf *PathFilter) HasSuffix(p srcpath.ItemPath) bool {
	return p.HasSuffix(pf.suffix)
}

// Excluded reports whether raw matches any exclude pattern.
func (pf *PathFilter) Excluded(raw string) bool {
	path := normalize(raw)
	for _, g := range pf.excludes {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// Match reports whether p has the configured suffix and is not excluded.
func (pf *PathFilter) Match(p srcpath.ItemPath) bool {
	return pf.HasSuffix(p) && !pf.Excluded(p.String())
}

// FilterPaths filters a slice of paths to only include matching ones.
func (pf *PathFilter) FilterPaths(paths []string) []string {
	var matched []string
	for _, path := range paths {
		if pf.Match(srcpath.Parse(path)) {
			matched = append(matched, path)
		}
	}
	return matched
}

// normalize converts Windows separators so patterns written either way match.
func normalize(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
