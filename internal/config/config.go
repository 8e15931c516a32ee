// Package config loads srcpaths configuration from defaults, an optional
// YAML file, an optional .env file and SRCPATHS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/taigrr/srcpaths/internal/pathfilter"
	"github.com/taigrr/srcpaths/internal/srcpath"
	"github.com/taigrr/srcpaths/internal/types"
)

const (
	// FileName is the configuration file looked up in the checkout root.
	FileName = ".srcpaths.yaml"
	// EnvFileName is the dotenv file looked up in the checkout root.
	EnvFileName = ".env"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "SRCPATHS_"
)

// Failure policies for a listing that exits non-zero.
const (
	OnFailureError  = "error"
	OnFailureIgnore = "ignore"
)

// Line-ending policies applied to each listed line.
const (
	LineEndingsNormalize = "normalize"
	LineEndingsLF        = "lf"
)

// GitConfig configures the git lister.
type GitConfig struct {
	// Binary is the git executable
	Binary string `yaml:"binary"`

	// Timeout bounds a single listing (0 = no timeout)
	Timeout time.Duration `yaml:"timeout"`
}

// Config represents srcpaths configuration options
type Config struct {
	// Suffix is the file suffix to enumerate, e.g. ".erl"
	Suffix string `yaml:"suffix"`

	// Exclude lists glob patterns removed from the enumeration
	Exclude []string `yaml:"exclude"`

	// Root is the checkout root (empty = working directory)
	Root string `yaml:"root"`

	// OnFailure decides what a non-zero git exit means: error or ignore
	OnFailure string `yaml:"on_failure"`

	// LineEndings is normalize (strip a trailing \r) or lf (keep bytes)
	LineEndings string `yaml:"line_endings"`

	// RequireExisting drops tracked paths missing from the worktree
	RequireExisting bool `yaml:"require_existing"`

	// LogLevel sets the logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	Git GitConfig `yaml:"git"`
}

// ValidationError reports an invalid configuration value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Suffix:      pathfilter.DefaultSuffix,
		OnFailure:   OnFailureError,
		LineEndings: LineEndingsNormalize,
		LogLevel:    "warn",
		Git: GitConfig{
			Binary: "git",
		},
	}
}

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// Root is the checkout root used to find FileName and EnvFileName.
	Root string
	// Path is an explicit configuration file; it must exist when set.
	Path string
	// LookupEnv reads environment variables; nil means os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load builds the configuration. Precedence, lowest first: defaults, the
// YAML file, the .env file, the process environment.
func Load(opts LoadOptions) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Root = opts.Root

	path := opts.Path
	required := path != ""
	if path == "" {
		path = filepath.Join(opts.Root, FileName)
	}
	if err := cfg.LoadFile(path); err != nil {
		if required || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	dotenv, err := readDotenv(filepath.Join(cfg.Root, EnvFileName))
	if err != nil {
		return nil, err
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.applyEnv(func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}); err != nil {
		return nil, err
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile merges the YAML file at path into c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func readDotenv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return values, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}

	if v, ok := get("SUFFIX"); ok {
		c.Suffix = v
	}
	if v, ok := get("EXCLUDE"); ok {
		c.Exclude = splitList(v)
	}
	if v, ok := get("ON_FAILURE"); ok {
		c.OnFailure = v
	}
	if v, ok := get("LINE_ENDINGS"); ok {
		c.LineEndings = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("GIT"); ok {
		c.Git.Binary = v
	}
	if v, ok := get("GIT_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ValidationError{Field: EnvPrefix + "GIT_TIMEOUT", Message: err.Error()}
		}
		c.Git.Timeout = d
	}
	if v, ok := get("REQUIRE_EXISTING"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ValidationError{Field: EnvPrefix + "REQUIRE_EXISTING", Message: err.Error()}
		}
		c.RequireExisting = b
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for item := range strings.SplitSeq(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Normalize canonicalizes values: suffixes get a leading dot, policy names
// are lowercased and blank fields fall back to their defaults.
func (c *Config) Normalize() {
	c.Suffix = srcpath.NormalizeSuffix(c.Suffix)
	c.OnFailure = strings.ToLower(strings.TrimSpace(c.OnFailure))
	c.LineEndings = strings.ToLower(strings.TrimSpace(c.LineEndings))
	if c.OnFailure == "" {
		c.OnFailure = OnFailureError
	}
	if c.LineEndings == "" {
		c.LineEndings = LineEndingsNormalize
	}
	if strings.TrimSpace(c.Git.Binary) == "" {
		c.Git.Binary = "git"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Suffix == "" || c.Suffix == "." {
		return &ValidationError{Field: "suffix", Message: "must not be empty"}
	}
	if strings.ContainsAny(c.Suffix[1:], "./\\") {
		return &ValidationError{Field: "suffix", Message: fmt.Sprintf("%q must be a single extension", c.Suffix)}
	}
	switch c.OnFailure {
	case OnFailureError, OnFailureIgnore:
	default:
		return &ValidationError{Field: "on_failure", Message: fmt.Sprintf("%q is not one of error, ignore", c.OnFailure)}
	}
	switch c.LineEndings {
	case LineEndingsNormalize, LineEndingsLF:
	default:
		return &ValidationError{Field: "line_endings", Message: fmt.Sprintf("%q is not one of normalize, lf", c.LineEndings)}
	}
	if c.Git.Timeout < 0 {
		return &ValidationError{Field: "git.timeout", Message: "must not be negative"}
	}
	return nil
}

// FilterConfig returns the path filter configuration.
func (c *Config) FilterConfig() *types.FilterConfig {
	return &types.FilterConfig{
		Suffix:          c.Suffix,
		ExcludePatterns: c.Exclude,
	}
}
