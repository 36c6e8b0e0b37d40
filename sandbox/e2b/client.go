/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package e2b implements sandbox.Provider on top of E2B code interpreter
// sandboxes.
//
// Sessions are created and killed through the E2B control plane API. Code runs
// through the Jupyter-backed execution endpoint exposed by each sandbox, which
// streams newline-delimited JSON events.
package e2b

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"chainguard.dev/clinicalmcp/sandbox"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultAPIURL is the E2B control plane.
	DefaultAPIURL = "https://api.e2b.dev"
	// DefaultDomain is the domain sandbox hosts are served under.
	DefaultDomain = "e2b.app"
	// DefaultTemplate is the Python code interpreter image.
	DefaultTemplate = "code-interpreter-v1"

	// codePort is where the code interpreter listens inside a sandbox.
	codePort = 49999
)

// Config configures a Provider. Only APIKey is required.
type Config struct {
	APIKey   string
	APIURL   string
	Domain   string
	Template string

	// HTTPClient defaults to an otelhttp-instrumented client without a
	// timeout; calls are bounded by their context.
	HTTPClient *http.Client

	// ExecutionURL maps a sandbox ID to the base URL of its code interpreter.
	// It defaults to https://49999-<id>.<Domain>.
	ExecutionURL func(sandboxID string) string
}

// Provider creates E2B sandboxes.
type Provider struct {
	cfg Config
}

var _ sandbox.Provider = (*Provider)(nil)

// New validates cfg and fills defaults.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("e2b: API key is required")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Domain == "" {
		cfg.Domain = DefaultDomain
	}
	if cfg.Template == "" {
		cfg.Template = DefaultTemplate
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if cfg.ExecutionURL == nil {
		domain := cfg.Domain
		cfg.ExecutionURL = func(id string) string {
			return fmt.Sprintf("https://%d-%s.%s", codePort, id, domain)
		}
	}
	return &Provider{cfg: cfg}, nil
}

type createRequest struct {
	TemplateID string `json:"templateID"`
	Timeout    int    `json:"timeout"`
}

type createResponse struct {
	SandboxID       string `json:"sandboxID"`
	ClientID        string `json:"clientID"`
	EnvdAccessToken string `json:"envdAccessToken"`
}

// Acquire implements sandbox.Provider. The timeout is rounded up to whole
// seconds, the resolution of the E2B API.
func (p *Provider) Acquire(ctx context.Context, timeout time.Duration) (sandbox.Session, error) {
	secs := int((timeout + time.Second - 1) / time.Second)
	body, err := json.Marshal(createRequest{TemplateID: p.cfg.Template, Timeout: secs})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIURL+"/sandboxes", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", p.cfg.APIKey)

	resp, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("creating sandbox: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("creating sandbox: %w", err)
	}

	var created createResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decoding sandbox: %w", err)
	}
	if created.SandboxID == "" {
		return nil, errors.New("creating sandbox: response has no sandboxID")
	}

	clog.FromContext(ctx).With("sandbox_id", created.SandboxID).
		With("template", p.cfg.Template).
		With("timeout_seconds", secs).
		Debug("Created E2B sandbox")

	return &session{
		provider:    p,
		id:          created.SandboxID,
		accessToken: created.EnvdAccessToken,
		execURL:     p.cfg.ExecutionURL(created.SandboxID),
	}, nil
}

// APIError is a non-2xx response from E2B.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("e2b: HTTP %d: %s", e.StatusCode, e.Body)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
}
