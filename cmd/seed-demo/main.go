package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/brickyard/jobticket/internal/logging"
	"github.com/brickyard/jobticket/internal/seed"
	"github.com/brickyard/jobticket/internal/ticket"
	"github.com/brickyard/jobticket/internal/version"
)

func main() {
	fs := ff.NewFlagSet("seed-demo")
	var (
		dbPath      = fs.StringLong("db", "jobticket.db", "Ticket database file path")
		storageDir  = fs.StringLong("storage", "./receipts", "Storage directory path")
		months      = fs.IntLong("months", 6, "How many months back to seed")
		batches     = fs.IntLong("batches", 30, "Upload batches per month")
		avgItems    = fs.IntLong("avg-items", 2, "Average receipts per batch (1-5)")
		randSeed    = fs.IntLong("rand-seed", 0, "Random seed for reproducible runs (0: from the clock)")
		reset       = fs.BoolLong("reset", "Clear existing tickets and blobs before seeding")
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

	store, err := ticket.NewBoltStore(*dbPath)
	if err != nil {
		slog.Error("Failed to open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	storage, err := ticket.NewLocalStorage(*storageDir)
	if err != nil {
		slog.Error("Failed to open storage", "dir", *storageDir, "error", err)
		os.Exit(1)
	}

	seeder := seed.New(store, storage, seed.Options{
		Months:   *months,
		Batches:  *batches,
		AvgItems: *avgItems,
		Seed:     int64(*randSeed),
		Reset:    *reset,
	})

	summary, err := seeder.Run()
	if err != nil {
		slog.Error("Seeding failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded %d tickets in %d batches across %d months\n", summary.Tickets, summary.Batches, *months)
}
