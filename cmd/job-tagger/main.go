package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/brickyard/jobticket/internal/logging"
	"github.com/brickyard/jobticket/internal/tagging"
	"github.com/brickyard/jobticket/internal/version"
)

func main() {
	fs := ff.NewFlagSet("job-tagger")
	var (
		assignmentsPath = fs.StringLong("assignments", "", "JSON file mapping row index or item to job ID (skips prompting)")
		logLevel        = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		logFormat       = fs.StringLong("log-format", "console", "Log format: 'console' or 'json'")
		showVersion     = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("JOBTICKET"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version.String)
		os.Exit(0)
	}

	logging.Setup(*logLevel, *logFormat)

	args := fs.GetArgs()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintln(os.Stderr, "error: exactly one input table path is required")
		os.Exit(1)
	}
	inputPath := args[0]

	// A table that fails to parse is fatal before any prompting starts
	table, err := tagging.ReadTable(inputPath)
	if err != nil {
		slog.Error("Failed to read table", "path", inputPath, "error", err)
		os.Exit(1)
	}

	var assignments tagging.Assignments
	if *assignmentsPath != "" {
		assignments, err = tagging.LoadAssignments(*assignmentsPath)
		if err != nil {
			slog.Error("Failed to load assignments", "path", *assignmentsPath, "error", err)
			os.Exit(1)
		}
	} else {
		assignments, err = tagging.PromptAssignments(table, os.Stdin, os.Stdout)
		if err != nil {
			slog.Error("Failed to read operator input", "error", err)
			os.Exit(1)
		}
	}

	tagged := tagging.Apply(table, assignments)
	outputPath := tagging.OutputPath(inputPath)
	if err := tagged.WriteCSV(outputPath); err != nil {
		slog.Error("Failed to write tagged table", "path", outputPath, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Tagged %d rows -> %s\n", len(tagged.Rows), outputPath)
}
