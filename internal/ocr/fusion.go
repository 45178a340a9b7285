package ocr

import (
	"strings"
	"unicode/utf8"
)

// Output pairs an engine name with its (possibly empty) result. The assembler
// builds one Output per configured engine, in the fixed aggregation order.
type Output struct {
	Engine string
	Result Result
}

// Fused is the combined text stream plus an overall trustworthiness score.
type Fused struct {
	// Text is the non-empty engine texts joined by newlines, in fixed
	// priority order. Silent engines contribute neither text nor separator.
	Text string

	// Confidence is in [0,1]. It is the sum of the present engines'
	// weighted signals; an all-silent result scores 0.0.
	Confidence float64

	// Contributions records, per engine, whether it produced any non-empty
	// text. Observability only; not used in scoring.
	Contributions map[string]bool
}

// How an engine's confidence signal is derived. Engines that report per-span
// confidence use their own numbers; the rest are scored by how much text they
// produced, saturating at 100 characters.
type signalKind int

const (
	signalTextLength signalKind = iota
	signalSpanAverage
)

// fusionWeights is the fixed priority table: weights reflect each engine's
// typical reliability on receipt text and are configuration, not learned.
var fusionWeights = map[string]struct {
	weight float64
	signal signalKind
}{
	EngineTesseract: {0.3, signalTextLength},
	EngineWords:     {0.4, signalSpanAverage},
	EngineGemini:    {0.3, signalTextLength},
}

// Fuse reduces the engine outputs into one text blob and one confidence
// score. It is a pure function: outputs are consumed in the order given
// (which the assembler fixes as tesseract, words, gemini), and an engine with
// no contribution is skipped rather than zero-padded into either the text or
// the confidence sum.
func Fuse(outputs []Output) Fused {
	parts := make([]string, 0, len(outputs))
	contributions := make(map[string]bool, len(outputs))
	confidence := 0.0

	for _, out := range outputs {
		text := out.Result.Text
		contributions[out.Engine] = text != ""
		if text != "" {
			parts = append(parts, text)
		}

		term, ok := fusionWeights[out.Engine]
		if !ok {
			continue
		}
		switch term.signal {
		case signalTextLength:
			if text != "" {
				confidence += lengthSignal(text) * term.weight
			}
		case signalSpanAverage:
			if len(out.Result.Spans) > 0 {
				confidence += spanAverage(out.Result.Spans) * term.weight
			}
		}
	}

	if confidence > 1 {
		confidence = 1
	}

	return Fused{
		Text:          strings.Join(parts, "\n"),
		Confidence:    confidence,
		Contributions: contributions,
	}
}

// lengthSignal scores a text contribution by character count, saturating at
// 100 runes. Runes, not bytes: receipt text is mostly CJK.
func lengthSignal(text string) float64 {
	n := float64(utf8.RuneCountInString(text)) / 100.0
	if n > 1 {
		return 1
	}
	return n
}

func spanAverage(spans []Span) float64 {
	sum := 0.0
	for _, s := range spans {
		sum += s.Confidence
	}
	return sum / float64(len(spans))
}
