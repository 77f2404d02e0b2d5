package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lychee-technology/chartpreset"
	"github.com/lychee-technology/chartpreset/internal"
	"go.uber.org/zap"
)

func runResolve(args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("resolve", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: chartpreset-tools resolve -preset <file> (-columns <file> | -dataset <dataset>) [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	var opts profileOptions
	opts.register(flags)
	presetFile := flags.String("preset", "", "Preset file, JSON or YAML (required)")
	columnsFile := flags.String("columns", "", "Column metadata file, JSON or YAML")
	dataset := flags.String("dataset", "", "Dataset to profile when -columns is not given")
	overlayOrder := flags.String("overlay-order", "", "Overlay merge order: declaration or reverse")
	keepUnresolved := flags.Bool("keep-unresolved", false, "Keep encoding fields that name no resolved variable")
	format := flags.String("format", "json", "Output format: json or yaml")
	outputFile := flags.String("out", "", "Path to write the resolution (defaults to stdout)")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if *presetFile == "" {
		return fmt.Errorf("-preset is required")
	}
	if *columnsFile == "" && *dataset == "" {
		return fmt.Errorf("either -columns or -dataset must be provided")
	}

	preset, err := readPresetFile(*presetFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var columns *chartpreset.ColumnTypes
	if *columnsFile != "" {
		columns, err = readColumnsFile(*columnsFile)
		if err != nil {
			return err
		}
	} else {
		provider, cleanup, err := opts.openMetadataProvider(ctx, *dataset)
		if err != nil {
			return err
		}
		defer cleanup()
		columns, err = provider.ColumnTypes(ctx, *dataset)
		if err != nil {
			return err
		}
	}

	cfg := chartpreset.ResolutionConfig{
		OverlayOrder:         chartpreset.OverlayOrder(*overlayOrder),
		KeepUnresolvedFields: *keepUnresolved,
	}
	switch cfg.OverlayOrder {
	case "":
		cfg.OverlayOrder = chartpreset.OverlayOrderDeclaration
	case chartpreset.OverlayOrderDeclaration, chartpreset.OverlayOrderReverse:
	default:
		return fmt.Errorf("invalid -overlay-order %q", *overlayOrder)
	}

	resolution, err := internal.NewPresetEngine(cfg, zap.L()).Resolve(ctx, preset, columns)
	if err != nil {
		return err
	}
	return writeOutput(stdout, *outputFile, resolution, *format)
}

func readPresetFile(path string) (*chartpreset.Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset file: %w", err)
	}
	return internal.DecodePresetDocument(internal.PresetDocument{
		Name:   internal.PresetNameFromFile(path),
		Origin: path,
		Data:   data,
	})
}

// readColumnsFile loads column metadata written as a JSON or YAML object.
func readColumnsFile(path string) (*chartpreset.ColumnTypes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read columns file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		obj, err := internal.ParseYAMLObject(data)
		if err != nil {
			return nil, chartpreset.NewInvalidColumnTypesError(err.Error())
		}
		if data, err = obj.MarshalJSON(); err != nil {
			return nil, fmt.Errorf("convert columns file: %w", err)
		}
	}

	var columns chartpreset.ColumnTypes
	if err := columns.UnmarshalJSON(data); err != nil {
		return nil, chartpreset.NewInvalidColumnTypesError(err.Error())
	}
	return &columns, nil
}
