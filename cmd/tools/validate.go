package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/lychee-technology/chartpreset/internal"
	"go.uber.org/zap"
)

type validateReport struct {
	Presets  []internal.PresetEntry `json:"presets"`
	Warnings int                    `json:"warnings"`
}

func runValidate(args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("validate", flag.ContinueOnError)
	flags.SetOutput(os.Stdout)
	flags.Usage = func() {
		fmt.Println("Usage: chartpreset-tools validate [options]")
		fmt.Println("")
		fmt.Println("Options:")
		flags.PrintDefaults()
	}

	dir := flags.String("dir", getenvDefault("PRESET_DIR", "presets"), "Directory containing preset files")
	format := flags.String("format", "json", "Report format: json or yaml")
	strict := flags.Bool("strict", false, "Fail when any preset has lint warnings")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	catalog, err := internal.NewPresetCatalog(context.Background(), []internal.PresetSource{internal.NewDirPresetSource(*dir)}, true, zap.L())
	if err != nil {
		return err
	}

	report := validateReport{Presets: catalog.Entries()}
	for _, entry := range report.Presets {
		report.Warnings += len(entry.Warnings)
	}
	if err := writeDocument(stdout, report, *format); err != nil {
		return err
	}

	if *strict && report.Warnings > 0 {
		return fmt.Errorf("%d lint warning(s) in %s", report.Warnings, *dir)
	}
	return nil
}
