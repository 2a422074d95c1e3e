// Package llm defines the completion-service contract used by the pipeline
// stages and helpers for coercing model output into structured form.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Options tunes a single completion request.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Provider is the completion service used by every pipeline stage.
type Provider interface {
	// Generate returns the model's free-form text for the prompt.
	Generate(ctx context.Context, system, prompt string, opts Options) (string, error)
}

// GenerateJSON runs a completion and unmarshals the response into out.
// Models routinely wrap JSON in markdown fences; those are stripped before
// decoding. A response that still fails to decode is returned as an error
// for the caller's stage to treat as fatal or recoverable.
func GenerateJSON(ctx context.Context, p Provider, system, prompt string, opts Options, out any) error {
	text, err := p.Generate(ctx, system, prompt, opts)
	if err != nil {
		return err
	}
	cleaned := StripCodeFences(text)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("decode model response: %w (response: %s)", err, truncate(cleaned, 200))
	}
	return nil
}

// StripCodeFences removes a surrounding markdown code fence, with or without
// a language tag, and trims whitespace.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		// Drop the language tag line (```json etc).
		first := strings.TrimSpace(s[:i])
		if first == "" || !strings.ContainsAny(first, "{}[]") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
