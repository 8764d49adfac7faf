package recognize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// transcribePrompt asks for a verbatim transcription only. Parsing line
// items, prices or vendors out of the text is someone else's job.
const transcribePrompt = `Transcribe all text visible in this receipt image, exactly as printed, top to bottom, preserving line breaks. Output the raw text only: no commentary, no markdown, no code blocks. If the image contains no readable text, output nothing.`

// Gemini implements Engine using a Google Gemini vision model as the
// recognition backend.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a Gemini engine. The API key is required; an empty
// model name falls back to gemini-2.5-pro.
func NewGemini(apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

func (g *Gemini) Name() string { return "gemini" }

// Recognize sends the image to the model and returns its transcription.
func (g *Gemini) Recognize(ctx context.Context, image []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pngData, err := ToPNG(image, contentType)
	if err != nil {
		return "", err
	}

	// genai.ImageData wants the bare format suffix, not a MIME type; after
	// ToPNG everything is PNG.
	resp, err := g.model.GenerateContent(ctx,
		genai.ImageData("png", pngData),
		genai.Text(transcribePrompt),
	)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	return stripCodeFence(b.String()), nil
}

// Close closes the underlying client.
func (g *Gemini) Close() error { return g.client.Close() }
