/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"fmt"
	"maps"
)

// stringLiteral is unexported so that only untyped constants convert to it.
// Callers cannot pass runtime strings to NewPrompt or BindStringLiteral.
type stringLiteral string

// Prompt is an immutable template plus the values bound to its placeholders.
type Prompt struct {
	template string
	bindings map[string]binding
}

// NewPrompt parses the template and registers every {{name}} placeholder as unbound.
func NewPrompt(template stringLiteral) (*Prompt, error) {
	bindings := make(map[string]binding)
	normalized, err := walkTemplate(string(template), func(name string) (string, error) {
		if _, ok := bindings[name]; !ok {
			bindings[name] = unbound(name)
		}
		return "{{" + name + "}}", nil
	})
	if err != nil {
		return nil, err
	}
	return &Prompt{template: normalized, bindings: bindings}, nil
}

// Bindings returns the set of placeholder names in the template.
func (p *Prompt) Bindings() map[string]struct{} {
	names := make(map[string]struct{}, len(p.bindings))
	for name := range p.bindings {
		names[name] = struct{}{}
	}
	return names
}

// BindStringLiteral binds a compile-time constant verbatim.
func (p *Prompt) BindStringLiteral(name string, value stringLiteral) (*Prompt, error) {
	return p.bind(name, literal(value))
}

// BindXML binds data encoded as indented XML.
func (p *Prompt) BindXML(name string, data any) (*Prompt, error) {
	return p.bind(name, xmlValue{data: data})
}

// BindJSON binds data encoded as indented JSON.
func (p *Prompt) BindJSON(name string, data any) (*Prompt, error) {
	return p.bind(name, jsonValue{data: data})
}

// BindYAML binds data encoded as YAML.
func (p *Prompt) BindYAML(name string, data any) (*Prompt, error) {
	return p.bind(name, yamlValue{data: data})
}

func (p *Prompt) bind(name string, b binding) (*Prompt, error) {
	current, ok := p.bindings[name]
	if !ok {
		return nil, fmt.Errorf("binding %q not found in template", name)
	}
	if _, isUnbound := current.(unbound); !isUnbound {
		return nil, fmt.Errorf("binding %q already bound", name)
	}
	bindings := maps.Clone(p.bindings)
	bindings[name] = b
	return &Prompt{template: p.template, bindings: bindings}, nil
}

// Build renders the template. It fails if any placeholder is unbound or a
// value cannot be encoded.
func (p *Prompt) Build() (string, error) {
	values := make(map[string]string, len(p.bindings))
	for name, b := range p.bindings {
		v, err := b.render()
		if err != nil {
			return "", err
		}
		values[name] = v
	}
	return walkTemplate(p.template, func(name string) (string, error) {
		v, ok := values[name]
		if !ok {
			return "", fmt.Errorf("internal error: no value for binding %q", name)
		}
		return v, nil
	})
}
