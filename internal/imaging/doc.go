// Package imaging decodes uploaded receipt files and prepares them for OCR.
//
// Decode accepts the raw upload bytes (JPEG, PNG, GIF, HEIC, or single-page
// PDF) and produces an in-memory raster. Normalize then derives the binarized
// grayscale variant that classical OCR engines want: handheld photos of
// thermal-paper receipts suffer from speckle noise and uneven lighting, so
// the pipeline denoises, equalizes local contrast, and applies an automatic
// global threshold.
//
// All operations are stateless; images are owned by a single request and can
// be processed concurrently.
package imaging
