// Package ocr wraps several independent text-recognition backends behind one
// Engine contract and fuses their outputs.
//
// Three adapters are provided: Tesseract (classical pass over the binarized
// image), Words (word-level pass with per-span confidence over the original
// photo), and Gemini (remote full-text transcription of the raw upload).
// Every adapter converts backend failures into an error that the caller
// records as "no contribution" - one engine's outage never aborts a request.
//
// Fuse concatenates the surviving texts in a fixed priority order and
// computes one overall confidence score from simple length- and
// engine-reported signals. The score is a trustworthiness estimate, not a
// calibrated probability.
package ocr
