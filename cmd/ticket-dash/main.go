package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/brickyard/jobticket/internal/logging"
	"github.com/brickyard/jobticket/internal/recognize"
	"github.com/brickyard/jobticket/internal/ticket"
	"github.com/brickyard/jobticket/internal/version"
)

func main() {
	fs := ff.NewFlagSet("ticket-dash")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "jobticket.db", "Ticket database file path")
		storageDir  = fs.StringLong("storage", "./receipts", "Storage directory path")
		engineName  = fs.StringLong("engine", "tesseract", "Recognition engine: 'tesseract', 'gemini' or 'ollama'")
		lang        = fs.StringLong("lang", "eng", "Tesseract language")
		psm         = fs.IntLong("psm", recognize.DefaultPageSegMode, "Tesseract page segmentation mode")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, bakllava)")
		ocrSync     = fs.BoolLong("ocr-sync", "Scan uploads inline during the request instead of on background workers")
		ocrWorkers  = fs.IntLong("ocr-workers", 2, "Number of background scan workers")
		maxUploadMB = fs.IntLong("max-upload-mb", 20, "Upload request size limit in MiB")
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

	slog.Info("Initializing database...", "path", *dbPath)
	store, err := ticket.NewBoltStore(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	slog.Info("Initializing storage...", "dir", *storageDir)
	storage, err := ticket.NewLocalStorage(*storageDir)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	apiKey := *geminiKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	slog.Info("Initializing recognition engine...", "engine", *engineName)
	engine, err := recognize.New(recognize.Options{
		Engine:      *engineName,
		Language:    *lang,
		PageSegMode: *psm,
		GeminiKey:   apiKey,
		GeminiModel: *geminiModel,
		OllamaURL:   *ollamaURL,
		OllamaModel: *ollamaModel,
	})
	if err != nil {
		slog.Error("Failed to initialize engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	service := ticket.NewService(store, storage, engine, !*ocrSync, *ocrWorkers)
	defer service.Close()

	// Adopt files other tools left in storage and finish scans a previous
	// run never completed
	if err := service.Rescan(true); err != nil {
		slog.Warn("Startup rescan failed", "error", err)
	}

	server := ticket.NewServer(service, *maxUploadMB)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
