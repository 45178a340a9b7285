package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/BENJOJO1964/carbon-footprint-tracker/internal/carbon"
	"github.com/BENJOJO1964/carbon-footprint-tracker/internal/invoice"
)

// maxUploadSize caps receipt uploads; high-resolution phone photos run large.
const maxUploadSize = 50 << 20 // 50MB

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "carbon-ai-service",
		"version": Version,
	})
}

// handleProcessInvoice accepts a multipart upload under the "image" field and
// runs the OCR pipeline. Engine outages and unmatched fields never fail the
// request; only an undecodable image produces the structured failure shape
// (error message plus a zero-valued record).
func (s *Server) handleProcessInvoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no image uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("reading upload", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "error reading upload")
		return
	}

	result, err := s.service.ProcessInvoice(r.Context(), data, header.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, invoice.ErrUnreadableImage) {
			// The failure shape is part of the response contract: clients
			// always receive a record, zero-valued here.
			writeJSON(w, http.StatusOK, map[string]any{
				"success": false,
				"error":   err.Error(),
				"data":    zeroRecord(),
			})
			return
		}
		slog.Error("processing invoice", "error", err)
		writeError(w, http.StatusInternalServerError, "invoice processing failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"data":            result.Record,
		"methods_used":    result.MethodsUsed,
		"processing_time": result.ProcessingTime,
	})
}

// zeroRecord is the all-defaults record shape returned on decode failure.
func zeroRecord() invoice.Record {
	return invoice.Record{Items: []invoice.LineItem{}}
}

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.History()
	if err != nil {
		slog.Error("listing invoices", "error", err)
		writeError(w, http.StatusInternalServerError, "error listing invoices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    entries,
	})
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	entry, err := s.service.HistoryEntryByID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "invoice not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    entry,
	})
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var activity carbon.Activity
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		writeError(w, http.StatusBadRequest, "invalid activity payload")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    carbon.Footprint(activity),
	})
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	var activities []carbon.Activity
	if err := json.NewDecoder(r.Body).Decode(&activities); err != nil {
		writeError(w, http.StatusBadRequest, "invalid activities payload")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    carbon.Daily(activities),
	})
}
