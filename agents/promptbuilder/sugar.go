/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

// Must panics if err is non-nil. It is meant for package-level templates.
func Must(p *Prompt, err error) *Prompt {
	if err != nil {
		panic(err)
	}
	return p
}

// MustNewPrompt is NewPrompt for templates known to be valid.
func MustNewPrompt(template stringLiteral) *Prompt {
	return Must(NewPrompt(template))
}

func (p *Prompt) MustBindStringLiteral(name string, value stringLiteral) *Prompt {
	return Must(p.BindStringLiteral(name, value))
}

func (p *Prompt) MustBindJSON(name string, data any) *Prompt {
	return Must(p.BindJSON(name, data))
}
