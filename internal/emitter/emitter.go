// Package emitter renders an OpenAPI document and writes it to disk or to a
// stream.
package emitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mark3labs/hto/internal/spec"
)

// Format is the serialization of the written document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Stdout is the OutPath value that writes to Options.Stdout.
const Stdout = "-"

// Options controls how a document is rendered and written.
type Options struct {
	OutPath string    // required; file path or "-"
	Format  Format    // defaults from the OutPath extension
	Compact bool      // single-line JSON
	DryRun  bool      // render and plan only
	Stdout  io.Writer // used when OutPath is "-"; defaults to os.Stdout
}

// PlannedFile describes the file the emitter writes (or would write).
type PlannedFile struct {
	Path string
	Size int
	Mode os.FileMode
}

// Result reports what Emit did.
type Result struct {
	Format  Format
	Planned PlannedFile
	Written bool
}

// ResolveFormat picks the output format: an explicit value wins, then the
// extension of path (.yaml and .yml select YAML), then JSON.
func ResolveFormat(path, explicit string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "":
	default:
		return "", fmt.Errorf("emitter: unsupported format %q (allowed: json, yaml)", explicit)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return FormatJSON, nil
}

// Render serializes doc. The output always ends with a newline and is
// byte-identical for equal documents.
func Render(doc *spec.Document, format Format, compact bool) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if !compact {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("emitter: unsupported format %q", format)
	}
	return buf.Bytes(), nil
}

// Emit renders doc and writes it. A cancelled ctx aborts before anything is
// written, so a superseded run leaves the previous output untouched.
func Emit(ctx context.Context, doc *spec.Document, opts Options) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("emitter: nil document")
	}
	if strings.TrimSpace(opts.OutPath) == "" {
		return nil, fmt.Errorf("emitter: OutPath is required")
	}
	format := opts.Format
	if format == "" {
		f, err := ResolveFormat(opts.OutPath, "")
		if err != nil {
			return nil, err
		}
		format = f
	}
	data, err := Render(doc, format, opts.Compact)
	if err != nil {
		return nil, err
	}

	res := &Result{Format: format, Planned: PlannedFile{Path: opts.OutPath, Size: len(data), Mode: 0o644}}
	if opts.DryRun {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.OutPath == Stdout {
		w := opts.Stdout
		if w == nil {
			w = os.Stdout
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("write output: %w", err)
		}
		res.Written = true
		return res, nil
	}

	abs, err := filepath.Abs(opts.OutPath)
	if err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}
	if err := writeAtomic(abs, data); err != nil {
		return nil, err
	}
	res.Planned.Path = abs
	res.Written = true
	return res, nil
}

// writeAtomic writes data next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write temp %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("close temp %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
