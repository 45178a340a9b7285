package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/BENJOJO1964/carbon-footprint-tracker/internal/invoice"
	"github.com/BENJOJO1964/carbon-footprint-tracker/internal/ocr"
	"github.com/BENJOJO1964/carbon-footprint-tracker/internal/server"
)

func main() {
	fs := ff.NewFlagSet("carbon-ai")
	var (
		port         = fs.IntLong("port", 5001, "HTTP server port")
		dbPath       = fs.StringLong("db", "carbon-ai.db", "Invoice history database path (empty to disable)")
		tessLang     = fs.StringLong("tess-lang", "chi_tra+eng", "Tesseract languages, joined with '+'")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set CARBON_AI_GEMINI_KEY)")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.0-flash", "Google Gemini model name")
		cloudTimeout = fs.DurationLong("cloud-timeout", 30*time.Second, "Timeout for the cloud OCR engine")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("CARBON_AI"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	languages := strings.Split(*tessLang, "+")

	// The engine list is the fixed aggregation order: tesseract, words,
	// gemini. It is read-only configuration shared by all requests.
	engines := []ocr.Engine{
		ocr.NewTesseract(languages...),
		ocr.NewWords(languages...),
	}

	if *geminiKey == "" {
		// Self-disable, logged once; requests still run on local engines.
		slog.Warn("cloud engine disabled: no Gemini API key configured")
	} else {
		gemini, err := ocr.NewGemini(context.Background(), *geminiKey, *geminiModel, *cloudTimeout)
		if err != nil {
			slog.Warn("cloud engine disabled", "error", err)
		} else {
			defer gemini.Close()
			engines = append(engines, gemini)
		}
	}

	var store *invoice.Store
	if *dbPath != "" {
		var err error
		store, err = invoice.OpenStore(*dbPath)
		if err != nil {
			slog.Error("opening invoice store", "error", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	service := invoice.NewService(engines, store)
	srv := server.New(service)

	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := srv.Start(addr); err != nil {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()
	slog.Info("AI service started", "address", addr, "engines", len(engines))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down")
}
