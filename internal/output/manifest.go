package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/changectx/internal/errors"
)

// Format selects the manifest encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml" in any case; empty means JSON
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", errors.ValidationErrorf("unsupported output format %q (use json or yaml)", s)
	}
}

// Encode renders v: JSON with two-space indentation, or YAML with two-space indentation
func Encode(v interface{}, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, errors.InternalErrorf("encode yaml: %v", err)
		}
		if err := enc.Close(); err != nil {
			return nil, errors.InternalErrorf("encode yaml: %v", err)
		}
		return buf.Bytes(), nil

	case FormatJSON, "":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return nil, errors.InternalErrorf("encode json: %v", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, errors.ValidationErrorf("unsupported output format %q", format)
	}
}

// WriteManifest encodes v and writes it to path, replacing any existing file.
// The content goes to a temp file in the same directory first so a failed run
// never leaves a truncated manifest behind.
func WriteManifest(path string, v interface{}, format Format) error {
	data, err := Encode(v, format)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.FileSystemErrorf(err, "create output directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.FileSystemErrorf(err, "create temp file for %s", path)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.FileSystemErrorf(err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.FileSystemErrorf(err, "write %s", path)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return errors.FileSystemErrorf(err, "chmod %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.FileSystemErrorf(err, "replace %s", path)
	}
	return nil
}

// DefaultFileName swaps the extension of a default manifest name to match format
func DefaultFileName(path string, format Format) string {
	if format != FormatYAML {
		return path
	}
	ext := filepath.Ext(path)
	if ext != ".json" {
		return path
	}
	return fmt.Sprintf("%s.yaml", strings.TrimSuffix(path, ext))
}
