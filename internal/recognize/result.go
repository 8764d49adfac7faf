package recognize

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Result statuses. A completed extraction carries no status at all.
const (
	StatusProcessing = "processing"
	StatusError      = "error"
)

// Result is the extraction record written next to each receipt image. One
// document per image; re-running an extraction overwrites it.
type Result struct {
	// File is the source filename the text came from.
	File string `json:"file,omitempty"`
	// Text is the raw recognized text, unparsed and unvalidated.
	Text string `json:"text"`
	// Status marks in-flight ("processing") or failed ("error") extractions.
	Status string `json:"status,omitempty"`
	// Error holds the engine failure message when Status is "error".
	Error string `json:"error,omitempty"`
	// StartedAt is set on processing placeholders (RFC 3339, UTC).
	StartedAt string `json:"started_at,omitempty"`
}

// Pending reports whether the extraction is still in flight.
func (r Result) Pending() bool { return r.Status == StatusProcessing }

// Failed reports whether the extraction ended in an engine error.
func (r Result) Failed() bool { return r.Status == StatusError }

// ResultPath derives the result document path for an image path: same
// directory, same stem, .json extension.
func ResultPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + ".json"
}

// Marshal renders r as an indented JSON document.
func (r Result) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return data, nil
}

// ParseResult decodes a result document.
func ParseResult(data []byte) (Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return Result{}, fmt.Errorf("parsing result: %w", err)
	}
	return r, nil
}

// WriteResult writes r as an indented JSON document, replacing any
// previous content.
func WriteResult(path string, r Result) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}

// ReadResult reads a result document back.
func ReadResult(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading result: %w", err)
	}
	return ParseResult(data)
}
