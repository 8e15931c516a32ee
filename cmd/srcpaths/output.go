package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/taigrr/srcpaths/internal/types"
	"github.com/taigrr/srcpaths/internal/workspace"
)

type (
	// pathWriter prints descriptors as they are enumerated.
	pathWriter interface {
		Write(d types.PathDescriptor) error
		Close() error
	}

	// SourcePath is the JSON form of a descriptor, shared with the MCP tools.
	SourcePath struct {
		RawPath string `json:"rawPath"`
		AbsPath string `json:"absPath,omitempty"`
		Name    string `json:"name"`
		Stem    string `json:"stem"`
		Dir     string `json:"dir"`
		Suffix  string `json:"suffix"`
	}
)

func newSourcePath(d types.PathDescriptor, ws *workspace.Service) (SourcePath, error) {
	sp := SourcePath{
		RawPath: d.RawPath,
		Name:    d.ItemPath.Name(),
		Stem:    d.ItemPath.Stem(),
		Dir:     d.ItemPath.Dir(),
		Suffix:  d.ItemPath.Suffix(),
	}
	if ws != nil {
		abs, err := ws.ResolvePath(d.RawPath)
		if err != nil {
			return SourcePath{}, err
		}
		sp.AbsPath = abs
	}
	return sp, nil
}

func newWriter(format string, out io.Writer, ws *workspace.Service) (pathWriter, error) {
	switch format {
	case "", "text":
		return &lineWriter{w: bufio.NewWriter(out), ws: ws, sep: '\n'}, nil
	case "null":
		return &lineWriter{w: bufio.NewWriter(out), ws: ws, sep: 0}, nil
	case "json":
		return &jsonWriter{out: out, ws: ws, paths: []SourcePath{}}, nil
	default:
		return nil, fmt.Errorf("unknown format %q: want text, null or json", format)
	}
}

// lineWriter prints one path per record, streaming as it goes.
type lineWriter struct {
	w   *bufio.Writer
	ws  *workspace.Service
	sep byte
}

func (lw *lineWriter) Write(d types.PathDescriptor) error {
	path := d.RawPath
	if lw.ws != nil {
		abs, err := lw.ws.ResolvePath(path)
		if err != nil {
			return err
		}
		path = abs
	}
	if _, err := lw.w.WriteString(path); err != nil {
		return err
	}
	return lw.w.WriteByte(lw.sep)
}

func (lw *lineWriter) Close() error {
	return lw.w.Flush()
}

// jsonWriter buffers descriptors and prints a single JSON array on Close.
type jsonWriter struct {
	out   io.Writer
	ws    *workspace.Service
	paths []SourcePath
}

func (jw *jsonWriter) Write(d types.PathDescriptor) error {
	sp, err := newSourcePath(d, jw.ws)
	if err != nil {
		return err
	}
	jw.paths = append(jw.paths, sp)
	return nil
}

func (jw *jsonWriter) Close() error {
	enc := json.NewEncoder(jw.out)
	enc.SetIndent("", "  ")
	return enc.Encode(jw.paths)
}
