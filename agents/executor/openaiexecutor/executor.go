/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package openaiexecutor

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/clinicalmcp/agents/agenttrace"
	"chainguard.dev/clinicalmcp/agents/metrics"
	"chainguard.dev/clinicalmcp/agents/promptbuilder"
	"chainguard.dev/clinicalmcp/agents/result"
	"chainguard.dev/clinicalmcp/agents/schema"
	"github.com/chainguard-dev/clog"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
)

// Interface is a single-turn completion returning a validated Response.
type Interface[Request promptbuilder.Bindable, Response any] interface {
	Execute(ctx context.Context, request Request) (Response, error)
}

type executor[Request promptbuilder.Bindable, Response any] struct {
	client             openai.Client
	modelName          string
	prompt             *promptbuilder.Prompt
	systemInstructions *promptbuilder.Prompt
	system             string
	maxTokens          int64
	temperature        float64
	genaiMetrics       *metrics.GenAI
}

// New creates an executor. The system instructions are rendered once here,
// with {{schema}} bound to the JSON schema of Response when present.
func New[Request promptbuilder.Bindable, Response any](
	client openai.Client,
	prompt *promptbuilder.Prompt,
	opts ...Option[Request, Response],
) (Interface[Request, Response], error) {
	if prompt == nil {
		return nil, errors.New("prompt cannot be nil")
	}

	genaiMetrics := metrics.NewGenAI("chainguard.ai.agents")
	genaiMetrics.SetAttributeEnricher(agenttrace.EnrichFromContext)

	e := &executor[Request, Response]{
		client:       client,
		modelName:    DefaultModel,
		prompt:       prompt,
		maxTokens:    1024,
		temperature:  DefaultTemperature,
		genaiMetrics: genaiMetrics,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if e.systemInstructions != nil {
		system := e.systemInstructions
		if _, ok := system.Bindings()["schema"]; ok {
			var err error
			if system, err = system.BindJSON("schema", schema.ReflectType[Response]()); err != nil {
				return nil, fmt.Errorf("binding response schema: %w", err)
			}
		}
		s, err := system.Build()
		if err != nil {
			return nil, fmt.Errorf("building system prompt: %w", err)
		}
		e.system = s
	}
	return e, nil
}

// Execute implements Interface.
func (e *executor[Request, Response]) Execute(ctx context.Context, request Request) (response Response, err error) {
	log := clog.FromContext(ctx).With("model", e.modelName)

	bound, err := request.Bind(e.prompt)
	if err != nil {
		return response, fmt.Errorf("failed to bind request to prompt: %w", err)
	}
	prompt, err := bound.Build()
	if err != nil {
		return response, fmt.Errorf("failed to build prompt: %w", err)
	}

	trace := agenttrace.StartTrace[Response](ctx, prompt)
	defer func() {
		trace.Complete(response, err)
	}()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if e.system != "" {
		messages = append(messages, openai.SystemMessage(e.system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(e.modelName),
		Messages:            messages,
		Temperature:         openai.Float(e.temperature),
		MaxCompletionTokens: openai.Int(e.maxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	log.With("prompt_length", len(prompt)).Debug("Requesting completion")
	completion, err := e.client.Chat.Completions.New(trace.Context(), params)
	if err != nil {
		e.genaiMetrics.RecordCompletion(ctx, e.modelName, metrics.OutcomeError)
		return response, fmt.Errorf("creating chat completion: %w", err)
	}

	if completion.Usage.PromptTokens > 0 || completion.Usage.CompletionTokens > 0 {
		e.genaiMetrics.RecordTokens(ctx, e.modelName, completion.Usage.PromptTokens, completion.Usage.CompletionTokens)
		trace.RecordTokenUsage(e.modelName, completion.Usage.PromptTokens, completion.Usage.CompletionTokens)
	}

	if len(completion.Choices) == 0 {
		e.genaiMetrics.RecordCompletion(ctx, e.modelName, metrics.OutcomeMalformed)
		return response, fmt.Errorf("%w: no choices in completion", result.ErrMalformedResponse)
	}

	text := completion.Choices[0].Message.Content
	resp, err := result.Parse[Response](text)
	if err != nil {
		e.genaiMetrics.RecordCompletion(ctx, e.modelName, metrics.OutcomeMalformed)
		log.With("response", text).With("error", err).Error("Failed to parse completion")
		return response, err
	}

	e.genaiMetrics.RecordCompletion(ctx, e.modelName, metrics.OutcomeOK)
	return resp, nil
}
