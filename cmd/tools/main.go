package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Errorf("failed to set up logger: %w", err))
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		if err := runValidate(os.Args[2:], os.Stdout); err != nil {
			sugar.Fatalf("validate: %v", err)
		}
	case "profile":
		if err := runProfile(os.Args[2:], os.Stdout); err != nil {
			sugar.Fatalf("profile: %v", err)
		}
	case "resolve":
		if err := runResolve(os.Args[2:], os.Stdout); err != nil {
			sugar.Fatalf("resolve: %v", err)
		}
	case "schema":
		if err := runSchema(os.Args[2:], os.Stdout); err != nil {
			sugar.Fatalf("schema: %v", err)
		}
	default:
		sugar.Errorf("unknown command %q", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	logger := zap.S()
	logger.Info("Usage: chartpreset-tools <command> [options]")
	logger.Info("")
	logger.Info("Commands:")
	logger.Info("  validate   Validate every preset in a directory against the preset schema")
	logger.Info("  profile    Print the column metadata of a dataset (file, s3:// object, table or postgres:schema.table)")
	logger.Info("  resolve    Resolve a preset file against column metadata or a dataset")
	logger.Info("  schema     Print the preset JSON Schema")
}
