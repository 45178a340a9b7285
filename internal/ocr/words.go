package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Words is the word-level recognition pass. It runs Tesseract's LSTM
// recognizer in sparse-text mode over the *original* photo rather than the
// binarized variant, and reports per-word confidence spans. It is the only
// engine that yields a confidence signal measured by the backend itself.
type Words struct {
	languages []string
}

// NewWords creates the word-level adapter with the given Tesseract language
// codes (defaults to chi_tra+eng).
func NewWords(languages ...string) *Words {
	if len(languages) == 0 {
		languages = []string{"chi_tra", "eng"}
	}
	return &Words{languages: languages}
}

// Name implements Engine.
func (w *Words) Name() string { return EngineWords }

// Extract implements Engine. Result.Text is the recognized words joined by
// single spaces; Result.Spans carries one entry per word with its confidence
// scaled to [0,1].
func (w *Words) Extract(ctx context.Context, in Input) (Result, error) {
	if in.Original == nil {
		return Result{}, fmt.Errorf("no decoded image")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(w.languages...); err != nil {
		return Result{}, fmt.Errorf("setting language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return Result{}, fmt.Errorf("setting page segmentation mode: %w", err)
	}

	buf, err := encodePNG(in.Original)
	if err != nil {
		return Result{}, err
	}
	if err := client.SetImageFromBytes(buf); err != nil {
		return Result{}, fmt.Errorf("setting image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Result{}, fmt.Errorf("word boxes: %w", err)
	}

	spans := make([]Span, 0, len(boxes))
	words := make([]string, 0, len(boxes))
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		spans = append(spans, Span{
			Text:       word,
			Confidence: box.Confidence / 100.0,
		})
		words = append(words, word)
	}

	return Result{
		Text:  strings.Join(words, " "),
		Spans: spans,
	}, nil
}
