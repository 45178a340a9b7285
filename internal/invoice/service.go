package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BENJOJO1964/carbon-footprint-tracker/internal/imaging"
	"github.com/BENJOJO1964/carbon-footprint-tracker/internal/ocr"
)

// ErrUnreadableImage is the only hard failure of the pipeline: the uploaded
// bytes could not be decoded into an image, so there is nothing to process.
var ErrUnreadableImage = errors.New("unreadable image")

// ScanResult is what one processed upload yields: the structured record, the
// per-engine contribution flags, and the wall-clock processing time.
type ScanResult struct {
	Record         Record          `json:"data"`
	MethodsUsed    map[string]bool `json:"methods_used"`
	ProcessingTime float64         `json:"processing_time"` // seconds
}

// Service orchestrates decode -> normalize -> engines -> fuse -> extract for
// one request at a time. The engine list is read-only configuration shared
// across requests; everything else is owned by a single invocation.
type Service struct {
	engines []ocr.Engine
	store   *Store
}

// NewService builds the assembler. engines is the fixed aggregation order
// (tesseract, words, gemini; disabled engines simply absent). store may be
// nil to disable history persistence.
func NewService(engines []ocr.Engine, store *Store) *Service {
	return &Service{engines: engines, store: store}
}

// ProcessInvoice runs the full pipeline over one uploaded image.
//
// Engine failures degrade to empty contributions and unmatched fields stay at
// their defaults, so apart from an undecodable image the call always
// succeeds - possibly with a low-confidence, mostly-empty record.
func (s *Service) ProcessInvoice(ctx context.Context, data []byte, contentType string) (*ScanResult, error) {
	start := time.Now()

	img, err := imaging.Decode(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	in := ocr.Input{
		Raw:         data,
		ContentType: contentType,
		Original:    img,
		Normalized:  imaging.Normalize(img),
	}

	// Engines are independent and side-effect-free on shared memory, so they
	// run concurrently; the output slice preserves the aggregation order.
	outputs := make([]ocr.Output, len(s.engines))
	var wg sync.WaitGroup
	for i, engine := range s.engines {
		wg.Add(1)
		go func(i int, engine ocr.Engine) {
			defer wg.Done()
			result, err := engine.Extract(ctx, in)
			if err != nil {
				slog.Warn("engine contributed nothing", "engine", engine.Name(), "error", err)
				result = ocr.Result{}
			}
			outputs[i] = ocr.Output{Engine: engine.Name(), Result: result}
		}(i, engine)
	}
	wg.Wait()

	fused := ocr.Fuse(outputs)
	fields := ParseFields(fused.Text)

	result := &ScanResult{
		Record: Record{
			StoreName:   fields.StoreName,
			TotalAmount: fields.TotalAmount,
			Date:        fields.Date,
			Items:       fields.Items,
			Confidence:  fused.Confidence,
			RawText:     fused.Text,
		},
		MethodsUsed:    fused.Contributions,
		ProcessingTime: time.Since(start).Seconds(),
	}

	slog.Info("invoice processed",
		"confidence", fused.Confidence,
		"items", len(result.Record.Items),
		"store", result.Record.StoreName)

	if s.store != nil {
		entry := &HistoryEntry{Record: result.Record, MethodsUsed: result.MethodsUsed}
		if err := s.store.Save(entry); err != nil {
			// History is observability, not part of the request contract.
			slog.Warn("saving invoice history", "error", err)
		}
	}

	return result, nil
}

// History lists previously processed invoices, newest data last. Returns an
// empty slice when persistence is disabled.
func (s *Service) History() ([]*HistoryEntry, error) {
	if s.store == nil {
		return []*HistoryEntry{}, nil
	}
	return s.store.List()
}

// HistoryEntryByID fetches one stored record.
func (s *Service) HistoryEntryByID(id string) (*HistoryEntry, error) {
	if s.store == nil {
		return nil, fmt.Errorf("history disabled")
	}
	return s.store.Get(id)
}
