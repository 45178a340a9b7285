package invoice

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BENJOJO1964/carbon-footprint-tracker/internal/ocr"
)

// stubEngine returns canned output, or an error, without touching any OCR
// backend. It lets the pipeline tests run anywhere.
type stubEngine struct {
	name   string
	result ocr.Result
	err    error
}

func (e *stubEngine) Name() string { return e.name }

func (e *stubEngine) Extract(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	return e.result, e.err
}

// pngBytes encodes a small synthetic receipt photo.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{240, 240, 240, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestProcessInvoice(t *testing.T) {
	engines := []ocr.Engine{
		&stubEngine{name: ocr.EngineTesseract, result: ocr.Result{
			Text: "7-ELEVEN\n2024-03-15\nCoffee 55.00\n總計: 100.00",
		}},
		&stubEngine{name: ocr.EngineWords, result: ocr.Result{
			Text:  "7-ELEVEN Coffee",
			Spans: []ocr.Span{{Text: "7-ELEVEN", Confidence: 0.9}, {Text: "Coffee", Confidence: 0.7}},
		}},
	}
	service := NewService(engines, nil)

	result, err := service.ProcessInvoice(context.Background(), pngBytes(t), "image/png")
	if err != nil {
		t.Fatalf("ProcessInvoice failed: %v", err)
	}

	if result.Record.StoreName != "7-ELEVEN" {
		t.Errorf("StoreName: got %q", result.Record.StoreName)
	}
	if result.Record.TotalAmount != 100.00 {
		t.Errorf("TotalAmount: got %v", result.Record.TotalAmount)
	}
	if result.Record.Date != "2024-03-15" {
		t.Errorf("Date: got %q", result.Record.Date)
	}
	if result.Record.Confidence <= 0 || result.Record.Confidence > 1 {
		t.Errorf("Confidence out of range: %v", result.Record.Confidence)
	}
	if !strings.Contains(result.Record.RawText, "7-ELEVEN\n2024-03-15") {
		t.Errorf("RawText missing engine text: %q", result.Record.RawText)
	}
	if !result.MethodsUsed[ocr.EngineTesseract] || !result.MethodsUsed[ocr.EngineWords] {
		t.Errorf("MethodsUsed: got %v", result.MethodsUsed)
	}
	if result.ProcessingTime < 0 {
		t.Errorf("ProcessingTime negative: %v", result.ProcessingTime)
	}
}

func TestProcessInvoice_UnreadableImage(t *testing.T) {
	service := NewService([]ocr.Engine{&stubEngine{name: ocr.EngineTesseract}}, nil)

	_, err := service.ProcessInvoice(context.Background(), []byte("not an image"), "image/png")
	if !errors.Is(err, ErrUnreadableImage) {
		t.Errorf("expected ErrUnreadableImage, got %v", err)
	}
}

func TestProcessInvoice_AllEnginesSilent(t *testing.T) {
	// An upload nothing can read still succeeds, with a zeroed record.
	engines := []ocr.Engine{
		&stubEngine{name: ocr.EngineTesseract},
		&stubEngine{name: ocr.EngineWords},
	}
	service := NewService(engines, nil)

	result, err := service.ProcessInvoice(context.Background(), pngBytes(t), "image/png")
	if err != nil {
		t.Fatalf("ProcessInvoice failed: %v", err)
	}

	if result.Record.Confidence != 0.0 {
		t.Errorf("Confidence: got %v, want 0.0", result.Record.Confidence)
	}
	if result.Record.RawText != "" {
		t.Errorf("RawText: got %q, want empty", result.Record.RawText)
	}
	if result.Record.StoreName != "" || result.Record.TotalAmount != 0 {
		t.Errorf("fields not at defaults: %+v", result.Record)
	}
	if len(result.Record.Items) != 0 {
		t.Errorf("Items: got %v, want empty", result.Record.Items)
	}
}

func TestProcessInvoice_EngineFailureIsolated(t *testing.T) {
	// One engine blowing up must not take down the others' contributions.
	engines := []ocr.Engine{
		&stubEngine{name: ocr.EngineTesseract, err: errors.New("backend unavailable")},
		&stubEngine{name: ocr.EngineWords, result: ocr.Result{
			Text:  "全聯福利中心超市",
			Spans: []ocr.Span{{Text: "全聯福利中心超市", Confidence: 0.8}},
		}},
	}
	service := NewService(engines, nil)

	result, err := service.ProcessInvoice(context.Background(), pngBytes(t), "image/png")
	if err != nil {
		t.Fatalf("ProcessInvoice failed: %v", err)
	}

	if result.Record.StoreName != "全聯福利中心超市" {
		t.Errorf("StoreName: got %q", result.Record.StoreName)
	}
	if result.MethodsUsed[ocr.EngineTesseract] {
		t.Error("failed engine marked as contributing")
	}
	if !result.MethodsUsed[ocr.EngineWords] {
		t.Error("healthy engine not marked as contributing")
	}
}

func TestProcessInvoice_PersistsHistory(t *testing.T) {
	store, err := OpenStore(filepath.Join(t.TempDir(), "invoices.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	engines := []ocr.Engine{
		&stubEngine{name: ocr.EngineTesseract, result: ocr.Result{Text: "總計: 85"}},
	}
	service := NewService(engines, store)

	if _, err := service.ProcessInvoice(context.Background(), pngBytes(t), "image/png"); err != nil {
		t.Fatalf("ProcessInvoice failed: %v", err)
	}

	entries, err := service.History()
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("history length: got %d, want 1", len(entries))
	}
	if entries[0].Record.TotalAmount != 85 {
		t.Errorf("stored TotalAmount: got %v", entries[0].Record.TotalAmount)
	}

	got, err := service.HistoryEntryByID(entries[0].ID)
	if err != nil {
		t.Fatalf("HistoryEntryByID failed: %v", err)
	}
	if got.ID != entries[0].ID {
		t.Errorf("ID mismatch: %q vs %q", got.ID, entries[0].ID)
	}
}

func TestHistory_DisabledStore(t *testing.T) {
	service := NewService(nil, nil)

	entries, err := service.History()
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries without a store", len(entries))
	}

	if _, err := service.HistoryEntryByID("anything"); err == nil {
		t.Error("expected an error without a store")
	}
}
