// Package server exposes the invoice pipeline and the carbon calculators
// over HTTP. The surface is a thin JSON layer: all semantics live in the
// invoice and carbon packages.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/BENJOJO1964/carbon-footprint-tracker/internal/invoice"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Server routes HTTP requests to the invoice service.
type Server struct {
	service *invoice.Service
	mux     *http.ServeMux
}

// New creates a Server with a fresh mux.
func New(service *invoice.Service) *Server {
	return NewWithMux(service, http.NewServeMux())
}

// NewWithMux creates a Server on a caller-supplied mux, mainly for tests.
func NewWithMux(service *invoice.Service, mux *http.ServeMux) *Server {
	s := &Server{service: service, mux: mux}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/ocr/process", s.handleProcessInvoice)
	s.mux.HandleFunc("GET /api/invoices/{id}", s.handleGetInvoice)
	s.mux.HandleFunc("GET /api/invoices", s.handleListInvoices)
	s.mux.HandleFunc("POST /api/carbon/calculate", s.handleCalculate)
	s.mux.HandleFunc("POST /api/carbon/daily", s.handleDaily)
}

// Start blocks serving on addr.
func (s *Server) Start(addr string) error {
	slog.Info("starting server", "address", addr)
	return http.ListenAndServe(addr, s)
}

// ServeHTTP implements http.Handler; CORS headers go on every response so the
// web frontend can call the API cross-origin.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

// writeJSON serializes a response body with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// writeError emits the standard {"success":false,"error":...} shape.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}
