/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main runs a single report through the clinical alert pipeline and
// prints the result as JSON.
//
//	analyze [report text]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"chainguard.dev/clinicalmcp/agents/executor/openaiexecutor"
	"chainguard.dev/clinicalmcp/pipeline"
	"chainguard.dev/clinicalmcp/sandbox/e2b"
	"github.com/chainguard-dev/clog"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const demoReport = "Patient reports severe headache, confusion, and loss of balance after trial medication."

type config struct {
	GroqAPIKey  string `env:"GROQ_API_KEY,required"`
	GroqBaseURL string `env:"GROQ_BASE_URL"`
	GroqModel   string `env:"GROQ_MODEL"`

	E2BAPIKey   string `env:"E2B_API_KEY,required"`
	E2BAPIURL   string `env:"E2B_API_URL"`
	E2BDomain   string `env:"E2B_DOMAIN"`
	E2BTemplate string `env:"E2B_TEMPLATE"`

	ExaAPIKey string `env:"EXA_API_KEY,default=demo"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		clog.WarnContextf(ctx, "loading .env: %v", err)
	}

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		clog.FatalContextf(ctx, "processing config: %v", err)
	}

	report := demoReport
	if len(os.Args) > 1 {
		report = strings.Join(os.Args[1:], " ")
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
	p, err := pipeline.New(agents, provider, pipeline.WithLiteratureAPIKey(cfg.ExaAPIKey))
	if err != nil {
		clog.FatalContextf(ctx, "creating pipeline: %v", err)
	}

	res, err := p.Run(ctx, report)
	if err != nil {
		clog.FatalContextf(ctx, "analyzing report: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		clog.FatalContextf(ctx, "writing result: %v", err)
	}
}
