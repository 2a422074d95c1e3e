package research

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quorralabs/deepresearch/config"
	"github.com/quorralabs/deepresearch/internal/extract"
	"github.com/quorralabs/deepresearch/internal/llm"
	"github.com/quorralabs/deepresearch/internal/sources"
	"github.com/quorralabs/deepresearch/internal/telemetry"
	"github.com/quorralabs/deepresearch/internal/trust"
)

func testConfig() config.Config {
	return config.Config{
		LLM: config.LLMConfig{
			Routing: config.LLMRoutingConfig{
				Planning:  "plan-model",
				Analysis:  "analysis-model",
				Synthesis: "synth-model",
				Reporting: "report-model",
			},
		},
		Research: config.ResearchConfig{
			SubQueries:        map[string]int{"quick": 4, "standard": 6, "deep": 10},
			AnalysisTopK:      map[string]int{"quick": 8, "standard": 10, "deep": 12},
			MaxResultsPerCall: 5,
			EventBuffer:       128,
			MinQueryLength:    3,
		},
		Extract: config.ExtractConfig{MinBodyChars: 20},
		Trust: config.TrustConfig{
			HighDomains:   []string{"nature.com"},
			MediumDomains: []string{"github.com"},
			HighSuffixes:  []string{".gov", ".edu"},
			TierWeights:   map[string]float64{"high": 3, "medium": 2, "baseline": 1},
			TypeWeights: map[string]float64{
				"academic": 2.0, "encyclopedia": 1.5, "web": 1.0, "code": 0.9, "discussion": 0.8,
			},
		},
	}
}

func testTelemetry() *telemetry.Telemetry {
	return telemetry.NewTelemetry(prometheus.NewRegistry())
}

func testClassifier() *trust.Classifier {
	return trust.NewClassifier(testConfig().Trust)
}

// stubLLM routes canned responses by the stage that asked. Operations whose
// response is unset fail, which lets tests exercise each recovery path.
type stubLLM struct {
	mu        sync.Mutex
	calls     map[string]int
	responses map[string]string
}

func newStubLLM() *stubLLM {
	return &stubLLM{calls: make(map[string]int), responses: make(map[string]string)}
}

func (s *stubLLM) set(operation, response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[operation] = response
}

func (s *stubLLM) callCount(operation string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[operation]
}

func (s *stubLLM) Generate(ctx context.Context, system, prompt string, opts llm.Options) (string, error) {
	op := s.operation(system, prompt)
	s.mu.Lock()
	s.calls[op]++
	resp, ok := s.responses[op]
	s.mu.Unlock()
	if !ok {
		return "", errors.New("stub llm: no response for " + op)
	}
	return resp, nil
}

func (s *stubLLM) operation(system, prompt string) string {
	switch system {
	case plannerSystem:
		return "planning"
	case analystSystem:
		return "analysis"
	case synthesistSystem:
		return "synthesis"
	case reporterSystem:
		switch {
		case strings.Contains(prompt, "follow-up research questions"):
			return "follow_ups"
		case strings.Contains(prompt, "knowledge gaps"):
			return "gaps"
		default:
			return "narrative"
		}
	default:
		return "unknown"
	}
}

// stubExtractor serves canned content by URL; unknown URLs resolve to a
// fetch failure, mirroring the extractor's never-throws contract.
type stubExtractor struct {
	content map[string]*extract.Content
}

func (s *stubExtractor) Extract(ctx context.Context, rawURL string) *extract.Content {
	if c, ok := s.content[rawURL]; ok {
		return c
	}
	return &extract.Content{URL: rawURL, Err: "stub: no content"}
}

// stubAdapter returns fixed results, optionally failing every call.
type stubAdapter struct {
	name    string
	typ     sources.Type
	curated bool
	results []sources.Result
	err     error
}

func (a *stubAdapter) Name() string             { return a.name }
func (a *stubAdapter) SourceType() sources.Type { return a.typ }
func (a *stubAdapter) Curated() bool            { return a.curated }

func (a *stubAdapter) Search(ctx context.Context, query string, max int) ([]sources.Result, error) {
	if a.err != nil {
		return nil, a.err
	}
	if len(a.results) > max {
		return a.results[:max], nil
	}
	return a.results, nil
}

const validPlanJSON = `{
  "main_topic": "transformer architecture",
  "goal": "explain the architecture and its tradeoffs",
  "sub_queries": ["transformer architecture overview", "self attention mechanism", "transformer training cost", "transformer variants"],
  "key_aspects": ["attention", "scaling"]
}`

const validAnalysisJSON = `{
  "key_points": ["attention replaces recurrence"],
  "facts": ["introduced in 2017"],
  "credibility": "peer reviewed",
  "relevance": "high"
}`

const validSynthesisJSON = `{
  "consensus": ["attention is the core mechanism"],
  "controversies": [],
  "gaps": ["long-context behavior"],
  "confidence": "high",
  "summary": "Sources agree on the architecture's core design."
}`

func drain(ch <-chan Event) []Event {
	var out []Event
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}
