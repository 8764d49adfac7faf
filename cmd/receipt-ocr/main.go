package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/brickyard/jobticket/internal/logging"
	"github.com/brickyard/jobticket/internal/recognize"
	"github.com/brickyard/jobticket/internal/version"
)

func main() {
	fs := ff.NewFlagSet("receipt-ocr")
	var (
		engineName  = fs.StringLong("engine", "tesseract", "Recognition engine: 'tesseract', 'gemini' or 'ollama'")
		lang        = fs.StringLong("lang", "eng", "Tesseract language")
		psm         = fs.IntLong("psm", recognize.DefaultPageSegMode, "Tesseract page segmentation mode")
		outDir      = fs.StringLong("out", "", "Output directory for result documents (default: next to each image)")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, bakllava)")
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

	paths := fs.GetArgs()
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintln(os.Stderr, "error: at least one image path is required")
		os.Exit(1)
	}

	apiKey := *geminiKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
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

	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0755); err != nil {
			slog.Error("Failed to create output directory", "dir", *outDir, "error", err)
			os.Exit(1)
		}
	}

	// One best-effort attempt per image; a failure is reported and the
	// rest of the batch keeps going
	for _, path := range paths {
		if err := extract(engine, path, *outDir); err != nil {
			slog.Error("Failed to extract text", "image", path, "error", err)
			continue
		}
		slog.Info("Extracted text", "image", path, "result", resultPath(path, *outDir))
	}
}

// extract recognizes one image and writes its result document.
func extract(engine recognize.Engine, path, outDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}

	text, err := engine.Recognize(context.Background(), data, recognize.ContentTypeForFile(path))
	if err != nil {
		return fmt.Errorf("recognizing image: %w", err)
	}

	return recognize.WriteResult(resultPath(path, outDir), recognize.Result{
		File: filepath.Base(path),
		Text: text,
	})
}

// resultPath places the result next to the source, or in outDir when set.
func resultPath(imagePath, outDir string) string {
	p := recognize.ResultPath(imagePath)
	if outDir == "" {
		return p
	}
	return filepath.Join(outDir, filepath.Base(p))
}
