package recognize

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// DefaultPageSegMode assumes a single uniform block of text, which is what
// a flattened receipt photo is.
const DefaultPageSegMode = 6

// Tesseract implements Engine against a locally installed Tesseract via
// gosseract. A fresh client is created per call; clients are cheap and not
// safe for reuse across goroutines.
type Tesseract struct {
	language      string
	pageSegMode   int
	clientFactory func() *gosseract.Client
}

// NewTesseract creates a Tesseract engine. An empty language falls back to
// "eng"; a pageSegMode of zero or below falls back to DefaultPageSegMode.
func NewTesseract(language string, pageSegMode int) *Tesseract {
	if language == "" {
		language = "eng"
	}
	if pageSegMode <= 0 {
		pageSegMode = DefaultPageSegMode
	}
	return &Tesseract{
		language:      language,
		pageSegMode:   pageSegMode,
		clientFactory: gosseract.NewClient,
	}
}

func (t *Tesseract) Name() string { return "tesseract" }

// Recognize normalizes and preprocesses the input, then extracts its text.
func (t *Tesseract) Recognize(ctx context.Context, image []byte, contentType string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	pngData, err := ToPNG(image, contentType)
	if err != nil {
		return "", err
	}
	prepared, err := preprocessForOCR(pngData)
	if err != nil {
		return "", err
	}

	c := t.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(prepared); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if err := c.SetLanguage(t.language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(t.pageSegMode)); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Close is a no-op; clients are per-call.
func (t *Tesseract) Close() error { return nil }
