// Package main implements the srcpaths command, which lists the files
// tracked by git that carry a given suffix.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taigrr/srcpaths/internal/config"
	"github.com/taigrr/srcpaths/internal/enumerator"
	"github.com/taigrr/srcpaths/internal/lister"
	"github.com/taigrr/srcpaths/internal/logging"
	"github.com/taigrr/srcpaths/internal/types"
	"github.com/taigrr/srcpaths/internal/workspace"
)

// options holds the flags shared by the list and serve commands.
type options struct {
	configPath  string
	suffix      string
	exclude     []string
	onFailure   string
	lineEndings string
	logLevel    string
	existing    bool

	format   string
	absolute bool
	stats    bool
}

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "srcpaths [root]",
		Short: "List git-tracked source files by suffix",
		Long: `srcpaths lists the files tracked by git in a checkout and keeps the
ones with a given suffix (.erl by default). Untracked and ignored files
never show up because the listing comes from the git index, not from
walking the disk.

The output is meant to feed a formatter: one path per line, NUL-separated
with --format null, or JSON with --format json.`,
		Example: `srcpaths
srcpaths ~/src/couchdb --exclude 'src/*/test/**'
srcpaths -s .hrl --format null | xargs -0 erlfmt -w`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args, opts)
		},
	}

	addFilterFlags(cmd, opts)
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, null or json")
	cmd.Flags().BoolVar(&opts.absolute, "absolute", false, "print absolute paths")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "print listing counters to stderr")

	cmd.AddCommand(newServeCmd(opts))

	return cmd
}

func addFilterFlags(cmd *cobra.Command, opts *options) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "configuration file (default <root>/"+config.FileName+")")
	flags.StringVarP(&opts.suffix, "suffix", "s", "", "file suffix to list (default .erl)")
	flags.StringArrayVarP(&opts.exclude, "exclude", "x", nil, "glob pattern to exclude (repeatable)")
	flags.StringVar(&opts.onFailure, "on-failure", "", "when git exits non-zero: error or ignore")
	flags.StringVar(&opts.lineEndings, "line-endings", "", "normalize (strip \\r) or lf (keep bytes)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&opts.existing, "existing", false, "skip tracked files missing from the worktree")
}

// loadConfig resolves the root argument and layers flags over the loaded
// configuration.
func loadConfig(cmd *cobra.Command, args []string, opts *options) (*config.Config, error) {
	var root string
	if len(args) > 0 {
		root = args[0]
	} else {
		var err error
		root, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %s: %w", root, err)
	}
	root = abs

	cfg, err := config.Load(config.LoadOptions{Root: root, Path: opts.configPath})
	if err != nil {
		return nil, err
	}

	// Listed paths are relative to the repository top level, so the
	// configuration file and the workspace are anchored there as well.
	// Outside a repository the root is kept and the listing reports it.
	if top, topErr := lister.TopLevel(cmd.Context(), cfg.Git.Binary, root); topErr == nil && top != root {
		cfg, err = config.Load(config.LoadOptions{Root: top, Path: opts.configPath})
		if err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("suffix") {
		cfg.Suffix = opts.suffix
	}
	if flags.Changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, opts.exclude...)
	}
	if flags.Changed("on-failure") {
		cfg.OnFailure = opts.onFailure
	}
	if flags.Changed("line-endings") {
		cfg.LineEndings = opts.lineEndings
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("existing") {
		cfg.RequireExisting = opts.existing
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runList(cmd *cobra.Command, args []string, opts *options) error {
	cfg, err := loadConfig(cmd, args, opts)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
	defer func() { _ = logger.Sync() }()

	enum, err := enumerator.FromConfig(cfg, nil, logger)
	if err != nil {
		return err
	}

	var ws *workspace.Service
	if opts.absolute {
		ws, err = workspace.New(cfg.Root)
		if err != nil {
			return err
		}
	}

	w, err := newWriter(opts.format, cmd.OutOrStdout(), ws)
	if err != nil {
		return err
	}

	var summary types.Summary
	for d, err := range enum.Tally(cmd.Context(), &summary) {
		if err != nil {
			return err
		}
		if err := w.Write(d); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	logger.Debug("enumeration finished",
		zap.Int("listed", summary.Listed),
		zap.Int("matched", summary.Matched))

	if opts.stats {
		fmt.Fprintf(cmd.ErrOrStderr(), "listed %d, matched %d, excluded %d, missing %d\n",
			summary.Listed, summary.Matched, summary.Excluded, summary.Missing)
	}
	return nil
}
