/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package schema derives JSON schemas from Go response types. The schemas are
// embedded in system prompts as the shape the model must answer with.
package schema

import "github.com/invopop/jsonschema"

// reflector inlines every definition so the schema reads as a single object
// in a prompt. Fields without omitempty are required.
var reflector = jsonschema.Reflector{
	Anonymous:                 true,
	ExpandedStruct:            true,
	DoNotReference:            true,
	AllowAdditionalProperties: false,
}

// Reflect returns the JSON schema for v.
func Reflect(v any) *jsonschema.Schema {
	s := reflector.Reflect(v)
	s.Version = ""
	return s
}

// ReflectType reflects the zero value of T.
func ReflectType[T any]() *jsonschema.Schema {
	var zero T
	return Reflect(&zero)
}
