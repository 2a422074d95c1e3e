package research

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/quorralabs/deepresearch/config"
	"github.com/quorralabs/deepresearch/internal/llm"
	"github.com/quorralabs/deepresearch/internal/telemetry"
)

// Planner decomposes a research question into sub-queries.
type Planner struct {
	provider llm.Provider
	cfg      config.Config
	tel      *telemetry.Telemetry
	logger   *log.Logger
}

// NewPlanner creates a planner over the given completion provider.
func NewPlanner(provider llm.Provider, cfg config.Config, tel *telemetry.Telemetry) *Planner {
	return &Planner{
		provider: provider,
		cfg:      cfg,
		tel:      tel,
		logger:   log.New(log.Writer(), "[PLANNER] ", log.LstdFlags),
	}
}

// Plan produces the structured plan for a query at the given depth. A
// response that does not parse into the plan shape is a fatal error for the
// whole run; there is no retry.
func (p *Planner) Plan(ctx context.Context, query string, depth Depth) (*Plan, error) {
	count := p.cfg.Research.SubQueries[string(depth)]
	if count <= 0 {
		return nil, fmt.Errorf("no sub-query count configured for depth %q", depth)
	}

	var plan Plan
	err := llm.GenerateJSON(ctx, p.provider, plannerSystem, planningPrompt(query, count), llm.Options{
		Model:       p.cfg.LLM.Routing.Planning,
		Temperature: 0.3,
	}, &plan)
	p.tel.RecordLLM("planning", err)
	if err != nil {
		return nil, fmt.Errorf("planning: %w", err)
	}

	plan.SubQueries = cleanQueries(plan.SubQueries)
	if len(plan.SubQueries) == 0 {
		return nil, fmt.Errorf("planning: model returned no sub-queries")
	}
	// The model occasionally over-delivers; the depth tier is a hard cap.
	if len(plan.SubQueries) > count {
		plan.SubQueries = plan.SubQueries[:count]
	}
	if plan.MainTopic == "" {
		plan.MainTopic = query
	}

	p.logger.Printf("planned %d sub-queries for %q", len(plan.SubQueries), query)
	return &plan, nil
}

func cleanQueries(qs []string) []string {
	out := qs[:0]
	for _, q := range qs {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}
