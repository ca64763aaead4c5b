// Copyright 2024-2026 Madhukar Beema. All rights reserved.
// Use of this source code is governed by the Business Source License
// included in the LICENSE file of this repository.

// Package redact masks credentials and personal data in decoded headers
// before they leave the agent.
package redact

import (
	"regexp"
	"strings"

	"github.com/mbeema/h2scope/pkg/hpack"
)

// Masked replaces the value of a sensitive header.
const Masked = "[REDACTED]"

// Rule defines a single redaction pattern applied to header values.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// defaultHeaders are always masked in full when redaction is enabled.
var defaultHeaders = []string{
	"authorization",
	"proxy-authorization",
	"cookie",
	"set-cookie",
	"x-api-key",
	"x-auth-token",
	"grpc-previous-rpc-attempts-token",
}

// Redactor applies redaction rules to header fields. A disabled Redactor
// returns its input unchanged.
type Redactor struct {
	enabled bool
	headers map[string]struct{}
	rules   []Rule
}

// New creates a Redactor with the built-in header list and value rules.
// extraHeaders are matched case-insensitively.
func New(enabled bool, extraHeaders []string, extraRules []Rule) *Redactor {
	r := &Redactor{enabled: enabled}
	if !enabled {
		return r
	}
	r.headers = make(map[string]struct{}, len(defaultHeaders)+len(extraHeaders))
	for _, h := range defaultHeaders {
		r.headers[h] = struct{}{}
	}
	for _, h := range extraHeaders {
		r.headers[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	r.rules = append(builtinRules(), extraRules...)
	return r
}

// Redact applies all value rules to the input string.
func (r *Redactor) Redact(input string) string {
	if !r.enabled || len(r.rules) == 0 {
		return input
	}
	result := input
	for _, rule := range r.rules {
		result = rule.Pattern.ReplaceAllString(result, rule.Replacement)
	}
	return result
}

// Sensitive reports whether a header's value is always masked.
func (r *Redactor) Sensitive(name string) bool {
	if !r.enabled {
		return false
	}
	_, ok := r.headers[strings.ToLower(name)]
	return ok
}

// RedactFields masks sensitive headers and applies value rules to the rest.
// The input slice is not modified; if nothing changes it is returned as is.
func (r *Redactor) RedactFields(fields []hpack.HeaderField) []hpack.HeaderField {
	if !r.enabled {
		return fields
	}

	var out []hpack.HeaderField
	for i, f := range fields {
		value := string(f.Value)
		redacted := Masked
		if !r.Sensitive(string(f.Name)) {
			redacted = r.Redact(value)
		}
		if redacted == value {
			if out != nil {
				out = append(out, f)
			}
			continue
		}
		if out == nil {
			out = make([]hpack.HeaderField, i, len(fields))
			copy(out, fields[:i])
		}
		out = append(out, hpack.HeaderField{Name: f.Name, Value: []byte(redacted)})
	}
	if out == nil {
		return fields
	}
	return out
}

func builtinRules() []Rule {
	return []Rule{
		{
			Name:        "credit_card",
			Pattern:     regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`),
			Replacement: "[REDACTED_CC]",
		},
		{
			Name:        "ssn",
			Pattern:     regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
			Replacement: "[REDACTED_SSN]",
		},
		{
			Name:        "bearer_token",
			Pattern:     regexp.MustCompile(`(?i)\b(bearer|basic)\s+[A-Za-z0-9._~+/=-]+`),
			Replacement: "${1} [REDACTED]",
		},
		{
			Name:        "secret_param",
			Pattern:     regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|token|access_token|api_key|apikey)=[^&\s;]+`),
			Replacement: "${1}=[REDACTED]",
		},
	}
}
