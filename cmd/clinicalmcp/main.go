/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main serves the clinical alert pipeline over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainguard.dev/clinicalmcp/agents/evals"
	"chainguard.dev/clinicalmcp/agents/executor/openaiexecutor"
	"chainguard.dev/clinicalmcp/pipeline"
	"chainguard.dev/clinicalmcp/sandbox/e2b"
	"chainguard.dev/clinicalmcp/server"
	"github.com/chainguard-dev/clog"
	_ "github.com/chainguard-dev/clog/gcp/init"
	"github.com/chainguard-dev/terraform-infra-common/pkg/httpmetrics"
	"github.com/chainguard-dev/terraform-infra-common/pkg/profiler"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/sync/errgroup"
)

type config struct {
	Port        int  `env:"PORT,default=3000"`
	MetricsPort int  `env:"METRICS_PORT,default=2112"`
	EnablePprof bool `env:"ENABLE_PPROF,default=false"`

	// Completion service (Groq, OpenAI-compatible)
	GroqAPIKey  string `env:"GROQ_API_KEY,required"`
	GroqBaseURL string `env:"GROQ_BASE_URL"`
	GroqModel   string `env:"GROQ_MODEL"`

	// Code execution sandbox
	E2BAPIKey   string `env:"E2B_API_KEY,required"`
	E2BAPIURL   string `env:"E2B_API_URL"`
	E2BDomain   string `env:"E2B_DOMAIN"`
	E2BTemplate string `env:"E2B_TEMPLATE"`

	ExaAPIKey string `env:"EXA_API_KEY,default=demo"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go httpmetrics.ScrapeDiskUsage(ctx)
	profiler.SetupProfiler()
	defer httpmetrics.SetupTracer(ctx)()

	// A missing .env is fine; the environment may already be populated.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		clog.WarnContextf(ctx, "loading .env: %v", err)
	}

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		clog.FatalContextf(ctx, "processing config: %v", err)
	}

	agents, err := pipeline.NewAgents(openaiexecutor.NewClient(cfg.GroqAPIKey, cfg.GroqBaseURL), cfg.GroqModel)
	if err != nil {
		clog.FatalContextf(ctx, "creating agents: %v", err)
	}
	provider, err := e2b.New(e2b.Config{
		APIKey:   cfg.E2BAPIKey,
		APIURL:   cfg.E2BAPIURL,
		Domain:   cfg.E2BDomain,
		Template: cfg.E2BTemplate,
	})
	if err != nil {
		clog.FatalContextf(ctx, "creating sandbox provider: %v", err)
	}
	p, err := pipeline.New(agents, provider,
		pipeline.WithLiteratureAPIKey(cfg.ExaAPIKey),
		pipeline.WithEvaluation(evals.NewNamespacedObserver(evals.NewMetricsObserver)),
	)
	if err != nil {
		clog.FatalContextf(ctx, "creating pipeline: %v", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           server.New(p),
		ReadHeaderTimeout: 10 * time.Second,
	}
	metrics := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler:           metricsMux(cfg.EnablePprof),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var g errgroup.Group
	for _, s := range []*http.Server{srv, metrics} {
		g.Go(func() error {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving %s: %w", s.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		// In-flight runs get a grace period to finish and release their sandboxes.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), metrics.Shutdown(shutdownCtx))
	})

	clog.InfoContextf(ctx, "ClinicalMCP server running on port %d", cfg.Port)
	if err := g.Wait(); err != nil {
		clog.FatalContextf(ctx, "server failed: %v", err)
	}
}

func metricsMux(enablePprof bool) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if enablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}
