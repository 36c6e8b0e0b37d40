/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package server exposes a pipeline over HTTP.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"

	"chainguard.dev/clinicalmcp/agents/result"
	"chainguard.dev/clinicalmcp/clinical"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

//go:embed static/index.html
var indexHTML []byte

// maxBodyBytes caps the size of an analyze request.
const maxBodyBytes = 1 << 20

// HealthMessage is reported by the health endpoint.
const HealthMessage = "ClinicalMCP Agent Ready"

// Analyzer runs one report through the pipeline.
type Analyzer interface {
	Run(ctx context.Context, reportText string) (*clinical.PipelineResult, error)
}

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	ReportText string `json:"report_text" validate:"required"`
}

// New returns the handler for all routes, with permissive CORS and
// OpenTelemetry instrumentation.
func New(a Analyzer) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", analyze(a))
	mux.HandleFunc("GET /health", health)
	mux.HandleFunc("GET /{$}", index)
	mux.HandleFunc("GET /index.html", index)

	return otelhttp.NewHandler(cors(mux), "clinicalmcp",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func analyze(a Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req AnalyzeRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(ctx, w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			clog.FromContext(ctx).With("error", err).Debug("Undecodable analyze request")
			writeError(ctx, w, http.StatusBadRequest, "report_text required")
			return
		}
		if err := result.Validate(req); err != nil {
			writeError(ctx, w, http.StatusBadRequest, "report_text required")
			return
		}

		res, err := a.Run(ctx, req.ReportText)
		if err != nil {
			writeError(ctx, w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(ctx, w, http.StatusOK, res)
	}
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": HealthMessage,
	})
}

func index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	writeJSON(ctx, w, status, map[string]string{"error": msg})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		clog.FromContext(ctx).With("error", err).Warn("Failed to write response")
	}
}
