/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package openaiexecutor runs single-turn JSON completions against an
OpenAI-compatible chat API (Groq by default).

An executor pairs a user prompt template with a response type. Each call binds
the request into the template, sends one chat completion asking for a JSON
object, and parses the reply into the response type through result.Parse.
The system instructions may contain a {{schema}} placeholder; it is filled
with the JSON schema of the response type when the executor is created.

	client := openaiexecutor.NewClient(apiKey, openaiexecutor.DefaultBaseURL)

	exec, err := openaiexecutor.New[*Request, Reply](client, userPrompt,
		openaiexecutor.WithSystemInstructions[*Request, Reply](systemPrompt),
	)

	reply, err := exec.Execute(ctx, &Request{...})

Calls are never retried. A reply that is not JSON or fails validation returns
an error wrapping result.ErrMalformedResponse.
*/
package openaiexecutor
