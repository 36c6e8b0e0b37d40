/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package promptbuilder builds model prompts from templates with typed bindings.

Templates are compile-time string constants containing {{name}} placeholders.
Trusted text is bound with BindStringLiteral, which only accepts constants.
Anything derived from a caller (report text, symptom lists, lookup output) is
bound through a structured encoder so that it reaches the model as data:

	p := promptbuilder.MustNewPrompt(`Extract symptoms from the report below.

	{{report}}`)

	p, err := p.BindXML("report", struct {
		XMLName xml.Name `xml:"report"`
		Text    string   `xml:",chardata"`
	}{Text: reportText})

	prompt, err := p.Build()

Binding returns a new Prompt and never mutates the receiver, so a template can
be shared by concurrent pipeline runs. Build fails if any placeholder is left
unbound.
*/
package promptbuilder
