package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lychee-technology/chartpreset"
	"github.com/lychee-technology/chartpreset/internal"
)

// writeDocument renders v as indented JSON or as YAML. v must marshal to a
// JSON object when YAML is requested.
func writeDocument(w io.Writer, v any, format string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	switch format {
	case "", "json":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		obj, err := chartpreset.ParseObject(data)
		if err != nil {
			return fmt.Errorf("convert result: %w", err)
		}
		out, err := internal.EncodeYAML(obj)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unknown format %q: use json or yaml", format)
	}
}

// writeOutput sends v to w, or to path when one is given.
func writeOutput(w io.Writer, path string, v any, format string) error {
	if path == "" {
		return writeDocument(w, v, format)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()
	if err := writeDocument(f, v, format); err != nil {
		return err
	}
	return f.Close()
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
