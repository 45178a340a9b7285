package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// geminiPrompt asks for a raw transcription rather than structured output;
// field extraction happens locally over the fused text.
const geminiPrompt = `Transcribe every piece of text visible in this receipt or invoice image.
Preserve the line structure of the document. Output only the transcribed text,
with no commentary and no markdown.`

// Gemini is the remote cloud recognizer. It sends the upload bytes to a
// Gemini multimodal model and treats the response text as the single best
// full-text annotation.
type Gemini struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewGemini creates the cloud adapter. The API key is required here: callers
// that have no key configured should skip constructing the adapter entirely
// (self-disable at startup) instead of failing requests later.
func NewGemini(ctx context.Context, apiKey, modelName string, timeout time.Duration) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client:  client,
		model:   client.GenerativeModel(modelName),
		timeout: timeout,
	}, nil
}

// Name implements Engine.
func (g *Gemini) Name() string { return EngineGemini }

// Extract implements Engine. The call is bounded by the configured timeout;
// on timeout or any transport error the caller records "no contribution".
func (g *Gemini) Extract(ctx context.Context, in Input) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	data, format, err := g.payload(in)
	if err != nil {
		return Result{}, err
	}

	resp, err := g.model.GenerateContent(ctx,
		genai.ImageData(format, data),
		genai.Text(geminiPrompt),
	)
	if err != nil {
		return Result{}, fmt.Errorf("gemini request: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Result{}, fmt.Errorf("empty gemini response")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	return Result{Text: strings.TrimSpace(text.String())}, nil
}

// payload picks what to upload. The raw bytes go out untouched when they are
// a format the image API accepts; PDF and HEIC uploads are re-encoded from
// the decoded original since Gemini's image parts do not take them.
func (g *Gemini) payload(in Input) ([]byte, string, error) {
	switch format := imageFormat(in.Raw, in.ContentType); format {
	case "jpeg", "png", "gif", "webp":
		return in.Raw, format, nil
	default:
		if in.Original == nil {
			return nil, "", fmt.Errorf("unsupported cloud payload format %q", format)
		}
		buf, err := encodePNG(in.Original)
		if err != nil {
			return nil, "", err
		}
		return buf, "png", nil
	}
}

// imageFormat sniffs the payload format, falling back to the advisory
// content type. Returns a bare format suffix ("jpeg", "png", ...).
func imageFormat(data []byte, contentType string) string {
	switch {
	case len(data) >= 8 && string(data[:8]) == "\x89PNG\r\n\x1a\n":
		return "png"
	case len(data) >= 3 && string(data[:3]) == "\xff\xd8\xff":
		return "jpeg"
	case len(data) >= 6 && (string(data[:6]) == "GIF87a" || string(data[:6]) == "GIF89a"):
		return "gif"
	case len(data) >= 4 && string(data[:4]) == "%PDF":
		return "pdf"
	}

	mime := strings.ToLower(strings.TrimSpace(contentType))
	if suffix, ok := strings.CutPrefix(mime, "image/"); ok && suffix != "" {
		return suffix
	}
	return "jpeg"
}

// Close releases the underlying client connection.
func (g *Gemini) Close() error {
	return g.client.Close()
}
