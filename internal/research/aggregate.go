package research

import (
	"sort"
	"sync"

	"github.com/quorralabs/deepresearch/internal/helpers"
	"github.com/quorralabs/deepresearch/internal/sources"
	"github.com/quorralabs/deepresearch/internal/trust"
)

// Aggregator merges results from concurrent adapter calls, deduplicating on
// the (normalized domain, title prefix) key. The key is deliberately coarser
// than URL equality because providers index the same story under slightly
// different URLs. First seen wins.
type Aggregator struct {
	classifier *trust.Classifier

	mu      sync.Mutex
	seen    map[string]bool
	results []SourceResult
}

// NewAggregator creates an empty aggregator using the given classifier.
func NewAggregator(classifier *trust.Classifier) *Aggregator {
	return &Aggregator{
		classifier: classifier,
		seen:       make(map[string]bool),
	}
}

// Add classifies and scores a raw hit and records it unless its dedup key
// was already seen. It returns the enriched result and whether it was new.
// Safe for concurrent use.
func (a *Aggregator) Add(adapter string, typ sources.Type, curated bool, r sources.Result) (SourceResult, bool) {
	tier := a.classifier.Classify(r.URL, curated)
	storedURL := r.URL
	if canonical, err := helpers.CanonicalURL(r.URL); err == nil {
		storedURL = canonical
	}
	res := SourceResult{
		Title:   r.Title,
		URL:     storedURL,
		Snippet: r.Snippet,
		Adapter: adapter,
		Type:    typ,
		Tier:    tier,
		Score:   a.classifier.Score(tier, typ),
	}

	key, err := helpers.DedupKey(r.URL, r.Title)
	if err != nil {
		// An unparseable URL cannot collide with a normalized one; dedup
		// on the raw string instead of dropping the hit.
		key = r.URL + "|" + helpers.TitlePrefix(r.Title)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seen[key] {
		return SourceResult{}, false
	}
	a.seen[key] = true
	a.results = append(a.results, res)
	return res, true
}

// Results returns the accumulated results in discovery order.
func (a *Aggregator) Results() []SourceResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]SourceResult, len(a.results))
	copy(out, a.results)
	return out
}

// Rank orders results descending by composite score. The sort is stable so
// ties keep their discovery order, which makes output deterministic given
// deterministic adapter responses.
func Rank(results []SourceResult) []SourceResult {
	out := make([]SourceResult, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
