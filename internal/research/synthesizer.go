package research

import (
	"context"
	"fmt"
	"log"

	"github.com/quorralabs/deepresearch/config"
	"github.com/quorralabs/deepresearch/internal/llm"
	"github.com/quorralabs/deepresearch/internal/telemetry"
)

// Synthesizer combines the finding set into consensus, controversy and gaps.
type Synthesizer struct {
	provider llm.Provider
	cfg      config.Config
	tel      *telemetry.Telemetry
	logger   *log.Logger
}

// NewSynthesizer creates a synthesizer over the given provider.
func NewSynthesizer(provider llm.Provider, cfg config.Config, tel *telemetry.Telemetry) *Synthesizer {
	return &Synthesizer{
		provider: provider,
		cfg:      cfg,
		tel:      tel,
		logger:   log.New(log.Writer(), "[SYNTH] ", log.LstdFlags),
	}
}

// Run synthesizes the findings. With zero findings it returns a fixed
// low-confidence synthesis without calling the model, since there is no
// evidence to conclude from. With findings present, a response that does not
// parse is fatal: recovering here would silently fabricate empty conclusions.
func (s *Synthesizer) Run(ctx context.Context, query string, findings []Finding) (*Synthesis, error) {
	if len(findings) == 0 {
		s.logger.Printf("no findings for %q, returning low-confidence fallback", query)
		return &Synthesis{
			Gaps:       []string{"no sources could be successfully analyzed for this query"},
			Confidence: "low",
			Summary:    "No usable evidence was gathered; the research question remains open.",
		}, nil
	}

	var syn Synthesis
	err := llm.GenerateJSON(ctx, s.provider, synthesistSystem, synthesisPrompt(query, findings), llm.Options{
		Model:       s.cfg.LLM.Routing.Synthesis,
		Temperature: 0.3,
	}, &syn)
	s.tel.RecordLLM("synthesis", err)
	if err != nil {
		return nil, fmt.Errorf("synthesis: %w", err)
	}
	if syn.Confidence == "" {
		syn.Confidence = "medium"
	}
	return &syn, nil
}
