package ocr

import (
	"context"
	"image"
)

// Canonical engine names, also used as keys in the methods_used response map.
const (
	EngineTesseract = "tesseract"
	EngineWords     = "words"
	EngineGemini    = "gemini"
)

// Input carries the image variants a single request offers to the engines.
// Each engine picks the variant its backend performs best on.
type Input struct {
	// Raw is the undecoded upload exactly as received.
	Raw []byte

	// ContentType is the (advisory) MIME type of Raw.
	ContentType string

	// Original is the decoded image before any preprocessing. Neural
	// recognizers tend to do worse on pre-binarized input.
	Original image.Image

	// Normalized is the denoised, contrast-enhanced, binarized variant
	// suited for classical OCR.
	Normalized *image.Gray
}

// Span is one recognized text fragment with the engine's own confidence.
type Span struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0.0 to 1.0
}

// Result is one engine's contribution to a request.
//
// Engines that cannot report per-span confidence leave Spans nil; Text may be
// empty when the engine recognized nothing. An empty Result is a valid "no
// contribution" outcome, not an error.
type Result struct {
	Text  string `json:"text"`
	Spans []Span `json:"spans,omitempty"`
}

// Engine is one text-recognition backend behind a uniform contract.
//
// Extract must honor ctx for anything that can block. Implementations should
// return an error for backend failures; callers convert every error into a
// "no contribution" result so that one engine's outage never aborts the
// overall request.
type Engine interface {
	Name() string
	Extract(ctx context.Context, in Input) (Result, error)
}
