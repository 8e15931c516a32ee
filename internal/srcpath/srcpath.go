// Package srcpath provides a structured view over repository-relative paths
// as printed by git.
package srcpath

import "strings"

// ItemPath is a forward-slash path relative to the repository root.
// The zero value is the empty path.
type ItemPath struct {
	raw string
}

// Parse wraps raw without cleaning it. Only '/' separates components, as in
// git's own output; a backslash is an ordinary name character.
func Parse(raw string) ItemPath {
	return ItemPath{raw: raw}
}

// String returns the path exactly as it was parsed.
func (p ItemPath) String() string {
	return p.raw
}

// IsEmpty reports whether the path has no components.
func (p ItemPath) IsEmpty() bool {
	return len(p.Parts()) == 0
}

func (p ItemPath) normalized() string {
	return strings.TrimRight(p.raw, "/")
}

// Name returns the final component, ignoring trailing slashes.
func (p ItemPath) Name() string {
	s := p.normalized()
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Suffix returns the extension of the final component including the dot.
// A leading dot marks a hidden file rather than a suffix, and a trailing dot
// is not a suffix either, so ".erl" and "rebar." both have no suffix.
func (p ItemPath) Suffix() string {
	name := p.Name()
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i:]
}

// Stem returns the final component without its suffix.
func (p ItemPath) Stem() string {
	return strings.TrimSuffix(p.Name(), p.Suffix())
}

// Dir returns everything before the final component, or "." when the path
// has a single component.
func (p ItemPath) Dir() string {
	s := p.normalized()
	i := strings.LastIndex(s, "/")
	if i < 0 {
		return "."
	}
	if i == 0 {
		return "/"
	}
	return s[:i]
}

// Parts returns the non-empty components of the path.
func (p ItemPath) Parts() []string {
	var parts []string
	for part := range strings.SplitSeq(p.normalized(), "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// HasSuffix reports whether the path's suffix is exactly suffix.
// The comparison is case-sensitive: "main.ERL" does not have suffix ".erl".
func (p ItemPath) HasSuffix(suffix string) bool {
	return suffix != "" && p.Suffix() == suffix
}

// NormalizeSuffix adds the leading dot to a bare extension such as "erl".
func NormalizeSuffix(suffix string) string {
	suffix = strings.TrimSpace(suffix)
	if suffix == "" || strings.HasPrefix(suffix, ".") {
		return suffix
	}
	return "." + suffix
}
