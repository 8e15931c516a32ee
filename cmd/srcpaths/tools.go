package main

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/taigrr/srcpaths/internal/logging"
)

type (
	// ListSourcesInput contains parameters for listing tracked sources.
	ListSourcesInput struct {
		Suffix   string   `json:"suffix,omitempty" jsonschema:"File suffix to list, e.g. .erl (default: configured suffix)"`
		Exclude  []string `json:"exclude,omitempty" jsonschema:"Extra glob patterns to exclude; ** crosses directories"`
		Existing bool     `json:"existing,omitempty" jsonschema:"Skip tracked files missing from the worktree (default: false)"`
		Absolute bool     `json:"absolute,omitempty" jsonschema:"Include absolute paths (default: false)"`
		Offset   int      `json:"offset,omitempty" jsonschema:"Skip first N paths for pagination (default: 0)"`
		Limit    int      `json:"limit,omitempty" jsonschema:"Maximum paths to return (default: 500)"`
	}

	// ListSourcesOutput contains the tracked sources matching the suffix.
	ListSourcesOutput struct {
		Suffix  string       `json:"suffix"`
		Paths   []SourcePath `json:"paths"`
		Total   int          `json:"total"`
		HasMore bool         `json:"hasMore,omitempty"`
	}

	// DescribePathInput contains parameters for describing a path.
	DescribePathInput struct {
		Path string `json:"path" jsonschema:"Path relative to the repository root"`
	}

	// DescribePathOutput contains the structured view of a path.
	DescribePathOutput struct {
		Path     string   `json:"path"`
		Name     string   `json:"name"`
		Stem     string   `json:"stem"`
		Dir      string   `json:"dir"`
		Suffix   string   `json:"suffix"`
		Parts    []string `json:"parts"`
		Matches  bool     `json:"matches"`
		Excluded bool     `json:"excluded,omitempty"`
	}
)

func registerTools(server *mcp.Server, ts *toolServer) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sources",
		Description: "List files tracked by git whose suffix matches (default .erl). Untracked and ignored files are never listed. Paths are relative to the repository root, in index order. Supports pagination with offset/limit.",
	}, ts.handleListSources)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "describe_path",
		Description: "Split a repository path into name, stem, directory and suffix, and report whether list_sources would include it.",
	}, ts.handleDescribePath)
}

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve [root]",
		Short: "Serve the source listing over MCP on stdio",
		Long: `serve runs a Model Context Protocol server on stdin/stdout exposing the
list_sources and describe_path tools. Every list_sources call runs git
again, so the answer follows the index as it changes.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args, opts)
			if err != nil {
				return err
			}

			logger := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
			defer func() { _ = logger.Sync() }()

			server := mcp.NewServer(&mcp.Implementation{
				Name:    "srcpaths",
				Version: version,
			}, nil)

			registerTools(server, newToolServer(cfg, nil, logger))

			if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
				return fmt.Errorf("error running server: %w", err)
			}
			return nil
		},
	}
}
