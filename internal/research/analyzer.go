package research

import (
	"context"
	"fmt"
	"log"

	"github.com/quorralabs/deepresearch/config"
	"github.com/quorralabs/deepresearch/internal/extract"
	"github.com/quorralabs/deepresearch/internal/llm"
	"github.com/quorralabs/deepresearch/internal/telemetry"
)

// ContentExtractor resolves a URL to a bounded plain-text body. Satisfied by
// extract.Extractor.
type ContentExtractor interface {
	Extract(ctx context.Context, rawURL string) *extract.Content
}

// Analyzer reads the top-ranked sources in full and asks the model for a
// structured analysis of each.
type Analyzer struct {
	provider  llm.Provider
	extractor ContentExtractor
	cfg       config.Config
	tel       *telemetry.Telemetry
	logger    *log.Logger
}

// NewAnalyzer creates an analyzer over the given provider and extractor.
func NewAnalyzer(provider llm.Provider, extractor ContentExtractor, cfg config.Config, tel *telemetry.Telemetry) *Analyzer {
	return &Analyzer{
		provider:  provider,
		extractor: extractor,
		cfg:       cfg,
		tel:       tel,
		logger:    log.New(log.Writer(), "[ANALYZER] ", log.LstdFlags),
	}
}

// Run analyzes the top-K ranked sources one at a time, bounding concurrent
// load on the completion service. Sources whose content cannot be fetched or
// whose analysis does not parse contribute no finding and no error. It
// returns the findings and the number of sources whose content qualified for
// analysis.
func (a *Analyzer) Run(ctx context.Context, query string, plan *Plan, ranked []SourceResult, depth Depth, emit func(Event)) ([]Finding, int) {
	topK := a.cfg.Research.AnalysisTopK[string(depth)]
	if topK <= 0 || topK > len(ranked) {
		topK = len(ranked)
	}

	var findings []Finding
	analyzed := 0
	for i, src := range ranked[:topK] {
		if ctx.Err() != nil {
			a.logger.Printf("cancelled after %d/%d sources", i, topK)
			break
		}

		content := a.extractor.Extract(ctx, src.URL)
		if content.Err != "" {
			a.logger.Printf("skipping %s: %s", src.URL, content.Err)
			continue
		}
		if len(content.Body) < a.cfg.Extract.MinBodyChars {
			a.logger.Printf("skipping %s: body too short (%d chars)", src.URL, len(content.Body))
			continue
		}
		analyzed++

		var analysis Analysis
		err := llm.GenerateJSON(ctx, a.provider, analystSystem,
			analysisPrompt(query, plan.KeyAspects, src.Title, content.Body), llm.Options{
				Model:       a.cfg.LLM.Routing.Analysis,
				Temperature: 0.2,
			}, &analysis)
		a.tel.RecordLLM("analysis", err)
		if err != nil {
			// A malformed analysis costs one finding, not the stage.
			a.logger.Printf("analysis failed for %s: %v", src.URL, err)
			continue
		}

		findings = append(findings, Finding{Source: src, Analysis: analysis})
		a.tel.FindingsTotal.Inc()
		emit(FindingEvent{Title: src.Title, Analysis: analysis})
		emit(ThoughtEvent{
			Agent: "analyzer",
			Text:  fmt.Sprintf("analyzed %d of %d sources, %d findings so far", i+1, topK, len(findings)),
		})
	}
	return findings, analyzed
}
