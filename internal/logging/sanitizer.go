package logging

import (
	"regexp"
)

// Sanitizer redacts credentials and personal data from log output.
type Sanitizer struct {
	rules    []rule
	redacted string
}

type rule struct {
	name string
	re   *regexp.Regexp
}

// NewSanitizer creates a sanitizer with the default rules.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		rules:    defaultRules(),
		redacted: "[REDACTED]",
	}
}

func defaultRules() []rule {
	patterns := []struct{ name, expr string }{
		// Brazilian taxpayer id, with or without punctuation.
		{"cpf", `\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`},
		// RG identity numbers in the common 00.000.000-0 layout.
		{"rg", `\b\d{1,2}\.\d{3}\.\d{3}-?[\dxX]\b`},
		{"email", `[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`},
		{"bearer", `(?i)bearer\s+[a-zA-Z0-9._-]{20,}`},
		{"aws_access_key", `AKIA[0-9A-Z]{16}`},
		{"api_key", `(?i)api[_-]?key["'\s:=]+[a-zA-Z0-9_-]{20,}`},
		{"secret", `(?i)secret["'\s:=]+[a-zA-Z0-9_-]{20,}`},
		{"password", `(?i)password["'\s:=]+[^\s"']{8,}`},
		{"token", `(?i)token["'\s:=]+[a-zA-Z0-9_-]{20,}`},
		// Database URLs carrying credentials.
		{"dsn", `(?i)[a-z][a-z0-9+.-]*://[^:/\s]+:[^@/\s]+@`},
	}

	rules := make([]rule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, rule{name: p.name, re: regexp.MustCompile(p.expr)})
	}
	return rules
}

// Sanitize redacts sensitive information from a string.
func (s *Sanitizer) Sanitize(input string) string {
	result := input
	for _, r := range s.rules {
		result = r.re.ReplaceAllString(result, s.redacted)
	}
	return result
}

// SanitizeMap redacts string values in a map, recursing into nested maps.
func (s *Sanitizer) SanitizeMap(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case string:
			result[k] = s.Sanitize(val)
		case map[string]any:
			result[k] = s.SanitizeMap(val)
		default:
			result[k] = v
		}
	}
	return result
}

// AddPattern adds a custom rule.
func (s *Sanitizer) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.rules = append(s.rules, rule{name: "custom", re: re})
	return nil
}

// Rules returns the names of the active rules in evaluation order.
func (s *Sanitizer) Rules() []string {
	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.name
	}
	return names
}

// SetRedactedPlaceholder sets the placeholder text for redacted content.
func (s *Sanitizer) SetRedactedPlaceholder(placeholder string) {
	s.redacted = placeholder
}
