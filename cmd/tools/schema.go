package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lychee-technology/chartpreset/internal"
)

func runSchema(args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("schema", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: chartpreset-tools schema [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	outputFile := flags.String("out", "", "Path to write the schema (defaults to stdout)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	schema := internal.PresetSchema()
	if *outputFile == "" {
		_, err := stdout.Write(schema)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(*outputFile), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(*outputFile, schema, 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	fmt.Fprintf(stdout, "Preset schema written, output: %s\n", *outputFile)
	return nil
}
