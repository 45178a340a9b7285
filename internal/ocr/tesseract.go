package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract runs the classical Tesseract engine over the normalized
// (binarized) image. It is tuned for the dense multi-column layout of
// receipts: single-block page segmentation and a configurable language set
// that defaults to Traditional Chinese plus English.
type Tesseract struct {
	languages []string
}

// NewTesseract creates the adapter. languages are Tesseract language codes
// (e.g. "chi_tra", "eng"); an empty list falls back to chi_tra+eng.
func NewTesseract(languages ...string) *Tesseract {
	if len(languages) == 0 {
		languages = []string{"chi_tra", "eng"}
	}
	return &Tesseract{languages: languages}
}

// Name implements Engine.
func (t *Tesseract) Name() string { return EngineTesseract }

// Extract implements Engine. It consumes the normalized image variant and
// returns plain text with no per-span confidence (that signal comes from the
// word-level pass, see Words).
func (t *Tesseract) Extract(ctx context.Context, in Input) (Result, error) {
	if in.Normalized == nil {
		return Result{}, fmt.Errorf("no normalized image")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return Result{}, fmt.Errorf("setting language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return Result{}, fmt.Errorf("setting page segmentation mode: %w", err)
	}

	buf, err := encodePNG(in.Normalized)
	if err != nil {
		return Result{}, err
	}
	if err := client.SetImageFromBytes(buf); err != nil {
		return Result{}, fmt.Errorf("setting image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("tesseract OCR: %w", err)
	}

	return Result{Text: strings.TrimSpace(text)}, nil
}

// encodePNG renders an in-memory image to PNG bytes for gosseract, which
// cannot consume image.Image directly.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}
