package recognize

import (
	"context"
	"fmt"
	"strings"
)

// Engine is the contract for an external text recognition engine.
type Engine interface {
	// Name identifies the engine, e.g. "tesseract".
	Name() string
	// Recognize extracts the raw text from an encoded receipt image.
	Recognize(ctx context.Context, image []byte, contentType string) (string, error)
	// Close releases engine resources.
	Close() error
}

// Options selects and configures an engine.
type Options struct {
	Engine      string // "tesseract", "gemini" or "ollama"
	Language    string // tesseract trained-data language, e.g. "eng"
	PageSegMode int    // tesseract page segmentation mode
	GeminiKey   string
	GeminiModel string
	OllamaURL   string
	OllamaModel string
}

// New constructs the engine named in opts.
func New(opts Options) (Engine, error) {
	switch opts.Engine {
	case "tesseract", "":
		return NewTesseract(opts.Language, opts.PageSegMode), nil
	case "gemini":
		return NewGemini(opts.GeminiKey, opts.GeminiModel)
	case "ollama":
		return NewOllama(opts.OllamaURL, opts.OllamaModel)
	default:
		return nil, fmt.Errorf("unknown engine %q (valid: tesseract, gemini, ollama)", opts.Engine)
	}
}

// stripCodeFence removes a wrapping markdown code block from model output.
// Vision models tend to fence their transcriptions despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		// Drop a language tag on the opening fence
		if !strings.ContainsAny(s[:i], " \t") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
