package main

import (
	"context"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/taigrr/srcpaths/internal/config"
	"github.com/taigrr/srcpaths/internal/enumerator"
	"github.com/taigrr/srcpaths/internal/lister"
	"github.com/taigrr/srcpaths/internal/pathfilter"
	"github.com/taigrr/srcpaths/internal/srcpath"
	"github.com/taigrr/srcpaths/internal/workspace"
)

const defaultListLimit = 500

// toolServer answers MCP tool calls from a base configuration. Each call
// derives its own configuration so calls never share state.
type toolServer struct {
	cfg    *config.Config
	lister lister.Lister
	logger *zap.Logger
}

// newToolServer creates a toolServer. A nil l runs git in cfg.Root.
func newToolServer(cfg *config.Config, l lister.Lister, logger *zap.Logger) *toolServer {
	return &toolServer{cfg: cfg, lister: l, logger: logger}
}

func (ts *toolServer) configFor(input ListSourcesInput) (*config.Config, error) {
	cfg := *ts.cfg
	cfg.Exclude = slices.Clone(ts.cfg.Exclude)

	if s := strings.TrimSpace(input.Suffix); s != "" {
		cfg.Suffix = s
	}
	cfg.Exclude = append(cfg.Exclude, input.Exclude...)
	if input.Existing {
		cfg.RequireExisting = true
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (ts *toolServer) handleListSources(ctx context.Context, req *mcp.CallToolRequest, input ListSourcesInput) (*mcp.CallToolResult, ListSourcesOutput, error) {
	cfg, err := ts.configFor(input)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, ListSourcesOutput{}, err
	}

	enum, err := enumerator.FromConfig(cfg, ts.lister, ts.logger)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, ListSourcesOutput{}, err
	}

	var ws *workspace.Service
	if input.Absolute {
		ws, err = workspace.New(cfg.Root)
		if err != nil {
			return &mcp.CallToolResult{IsError: true}, ListSourcesOutput{}, err
		}
	}

	offset := max(input.Offset, 0)
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	output := ListSourcesOutput{
		Suffix: cfg.Suffix,
		Paths:  []SourcePath{},
	}

	for d, err := range enum.Paths(ctx) {
		if err != nil {
			return &mcp.CallToolResult{IsError: true}, ListSourcesOutput{}, err
		}

		idx := output.Total
		output.Total++
		if idx < offset || idx-offset >= limit {
			continue
		}

		sp, err := newSourcePath(d, ws)
		if err != nil {
			return &mcp.CallToolResult{IsError: true}, ListSourcesOutput{}, err
		}
		output.Paths = append(output.Paths, sp)
	}

	offset = min(offset, output.Total)
	output.HasMore = len(output.Paths) < output.Total-offset

	return nil, output, nil
}

func (ts *toolServer) handleDescribePath(ctx context.Context, req *mcp.CallToolRequest, input DescribePathInput) (*mcp.CallToolResult, DescribePathOutput, error) {
	pf, err := pathfilter.New(ts.cfg.FilterConfig())
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, DescribePathOutput{}, err
	}

	p := srcpath.Parse(input.Path)
	parts := p.Parts()
	if parts == nil {
		parts = []string{}
	}

	return nil, DescribePathOutput{
		Path:     p.String(),
		Name:     p.Name(),
		Stem:     p.Stem(),
		Dir:      p.Dir(),
		Suffix:   p.Suffix(),
		Parts:    parts,
		Matches:  pf.Match(p),
		Excluded: pf.Excluded(input.Path),
	}, nil
}
