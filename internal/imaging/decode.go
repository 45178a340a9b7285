package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// Decode turns uploaded receipt bytes into an in-memory raster image.
//
// Supported inputs are the stdlib raster formats (JPEG, PNG, GIF), HEIC/HEIF
// photos as produced by iPhones, and single-page PDF invoices (only the first
// page is rendered; receipts are effectively always one page).
//
// The content type is advisory: HEIC and PDF payloads are also recognized by
// their magic bytes, so a mislabeled upload still decodes. A decode failure
// here is the only hard failure in the whole pipeline.
func Decode(data []byte, contentType string) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}

	mime := strings.ToLower(strings.TrimSpace(contentType))

	if mime == "application/pdf" || isPDF(data) {
		return renderPDFPage(data)
	}

	if isHEIC(data) || strings.Contains(mime, "heic") || strings.Contains(mime, "heif") {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

// renderPDFPage rasterizes the first page of a PDF document.
func renderPDFPage(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

// isPDF reports whether the payload starts with the PDF magic header.
func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// isHEIC reports whether the payload carries an ISO-BMFF ftyp box with a
// HEIC/HEIF brand. Go's standard image package cannot decode these.
func isHEIC(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}
