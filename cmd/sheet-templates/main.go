package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/brickyard/jobticket/internal/logging"
	"github.com/brickyard/jobticket/internal/sheets"
	"github.com/brickyard/jobticket/internal/version"
)

func main() {
	fs := ff.NewFlagSet("sheet-templates")
	var (
		outDir      = fs.StringLong("out", "templates", "Directory to write the templates into")
		logLevel    = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		logFormat   = fs.StringLong("log-format", "console", "Log format: 'console' or 'json'")
		showVersion = fs.BoolLong("version", "Show version information")
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

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		slog.Error("Failed to create output directory", "dir", *outDir, "error", err)
		os.Exit(1)
	}
	if err := sheets.WriteTemplates(*outDir); err != nil {
		slog.Error("Failed to write templates", "dir", *outDir, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote fuel-log.xlsx and quote.xlsx to %s\n", *outDir)
}
