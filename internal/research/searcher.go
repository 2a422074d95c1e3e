package research

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/quorralabs/deepresearch/config"
	"github.com/quorralabs/deepresearch/internal/sources"
	"github.com/quorralabs/deepresearch/internal/telemetry"
	"github.com/quorralabs/deepresearch/internal/trust"
)

// Searcher fans each sub-query out across all configured adapters.
type Searcher struct {
	adapters   []sources.Adapter
	classifier *trust.Classifier
	cfg        config.ResearchConfig
	tel        *telemetry.Telemetry
	logger     *log.Logger
}

// NewSearcher creates a searcher over the given adapters.
func NewSearcher(adapters []sources.Adapter, classifier *trust.Classifier, cfg config.ResearchConfig, tel *telemetry.Telemetry) *Searcher {
	return &Searcher{
		adapters:   adapters,
		classifier: classifier,
		cfg:        cfg,
		tel:        tel,
		logger:     log.New(log.Writer(), "[SEARCH] ", log.LstdFlags),
	}
}

// Run executes every sub-query against every adapter with settle-all
// semantics: each adapter call is awaited, and one adapter's failure only
// costs its own results. New results are emitted as they are discovered;
// their order is not deterministic across runs. Cancellation is observed
// between sub-queries, so a partial list is returned rather than an error.
func (s *Searcher) Run(ctx context.Context, plan *Plan, emit func(Event)) []SourceResult {
	agg := NewAggregator(s.classifier)

	for i, query := range plan.SubQueries {
		if ctx.Err() != nil {
			s.logger.Printf("cancelled after %d/%d sub-queries", i, len(plan.SubQueries))
			break
		}
		s.fanOut(ctx, agg, query, emit)

		// Courtesy pacing between sub-queries, not a rate limiter.
		if i < len(plan.SubQueries)-1 && s.cfg.PolitenessDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.cfg.PolitenessDelay):
			}
		}
	}
	return agg.Results()
}

func (s *Searcher) fanOut(ctx context.Context, agg *Aggregator, query string, emit func(Event)) {
	var wg sync.WaitGroup
	for _, adapter := range s.adapters {
		wg.Add(1)
		go func(a sources.Adapter) {
			defer wg.Done()
			hits, err := a.Search(ctx, query, s.cfg.MaxResultsPerCall)
			s.tel.RecordSearch(a.Name(), err)
			if err != nil {
				// One adapter's failure never aborts its siblings.
				s.logger.Printf("adapter %s failed for %q: %v", a.Name(), query, err)
				return
			}
			for _, hit := range hits {
				if hit.URL == "" {
					continue
				}
				if res, fresh := agg.Add(a.Name(), a.SourceType(), a.Curated(), hit); fresh {
					s.tel.SourcesDiscoveredTotal.Inc()
					emit(SourceEvent{Source: res})
				}
			}
		}(adapter)
	}
	wg.Wait()
}
