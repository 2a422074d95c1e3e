package research

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/quorralabs/deepresearch/config"
	"github.com/quorralabs/deepresearch/internal/llm"
	"github.com/quorralabs/deepresearch/internal/telemetry"
)

// Reporter writes the final narrative and its supporting lists.
type Reporter struct {
	provider llm.Provider
	cfg      config.Config
	tel      *telemetry.Telemetry
	logger   *log.Logger
}

// NewReporter creates a reporter over the given provider.
func NewReporter(provider llm.Provider, cfg config.Config, tel *telemetry.Telemetry) *Reporter {
	return &Reporter{
		provider: provider,
		cfg:      cfg,
		tel:      tel,
		logger:   log.New(log.Writer(), "[REPORTER] ", log.LstdFlags),
	}
}

// Run generates the report. The narrative call is fatal on failure; the
// follow-up and gap calls are recovered locally, falling back to an empty
// list and to the synthesis's own gaps respectively.
func (r *Reporter) Run(ctx context.Context, query string, syn *Synthesis, findings []Finding) (*Report, error) {
	narrative, err := r.provider.Generate(ctx, reporterSystem, narrativePrompt(query, syn, findings), llm.Options{
		Model:       r.cfg.LLM.Routing.Reporting,
		Temperature: 0.5,
	})
	r.tel.RecordLLM("reporting", err)
	if err != nil {
		return nil, fmt.Errorf("report narrative: %w", err)
	}
	if narrative == "" {
		return nil, fmt.Errorf("report narrative: model returned empty text")
	}

	report := &Report{
		Narrative:   narrative,
		Confidence:  syn.Confidence,
		GeneratedAt: time.Now().UTC(),
	}

	var followUps []string
	err = llm.GenerateJSON(ctx, r.provider, reporterSystem, followUpsPrompt(query, syn), llm.Options{
		Model:       r.cfg.LLM.Routing.Reporting,
		Temperature: 0.5,
	}, &followUps)
	r.tel.RecordLLM("follow_ups", err)
	if err != nil {
		r.logger.Printf("follow-up generation failed, continuing without: %v", err)
		followUps = nil
	}
	report.FollowUps = followUps

	var gaps []string
	err = llm.GenerateJSON(ctx, r.provider, reporterSystem, gapsPrompt(query, syn), llm.Options{
		Model:       r.cfg.LLM.Routing.Reporting,
		Temperature: 0.3,
	}, &gaps)
	r.tel.RecordLLM("gaps", err)
	if err != nil {
		r.logger.Printf("gap generation failed, falling back to synthesis gaps: %v", err)
		gaps = syn.Gaps
	}
	report.Gaps = gaps

	return report, nil
}
