/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package openaiexecutor

import (
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1/"
	// DefaultModel is the Groq-hosted model used by every stage.
	DefaultModel = "llama-3.3-70b-versatile"
	// DefaultTemperature keeps sampling deterministic-leaning.
	DefaultTemperature = 0.3
)

// NewClient returns a client for an OpenAI-compatible API with SDK retries
// disabled and an instrumented transport. An empty baseURL selects
// DefaultBaseURL. Extra options are applied last.
func NewClient(apiKey, baseURL string, opts ...option.RequestOption) openai.Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}),
	}
	return openai.NewClient(append(base, opts...)...)
}
