package research

import (
	"testing"

	"github.com/quorralabs/deepresearch/internal/sources"
	"github.com/quorralabs/deepresearch/internal/trust"
)

func TestAggregatorDedupFirstSeenWins(t *testing.T) {
	agg := NewAggregator(testClassifier())

	first := sources.Result{
		Title: "Attention Is All You Need: the transformer paper explained in depth",
		URL:   "https://example.com/post?utm_source=feed",
	}
	// Same domain, same 50-char title prefix, different URL.
	second := sources.Result{
		Title: "Attention Is All You Need: the transformer paper explained in depth (2024 update)",
		URL:   "https://www.example.com/post-2024",
	}

	if _, fresh := agg.Add("brave", sources.TypeWeb, false, first); !fresh {
		t.Fatal("first result should be fresh")
	}
	if _, fresh := agg.Add("serper", sources.TypeWeb, false, second); fresh {
		t.Fatal("duplicate (domain, title-prefix) should be suppressed")
	}

	results := agg.Results()
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Adapter != "brave" {
		t.Fatalf("first-seen should win, got adapter %s", results[0].Adapter)
	}
}

func TestAggregatorDistinctDomainsBothKept(t *testing.T) {
	agg := NewAggregator(testClassifier())

	agg.Add("brave", sources.TypeWeb, false, sources.Result{Title: "Same Title", URL: "https://a.example/x"})
	agg.Add("brave", sources.TypeWeb, false, sources.Result{Title: "Same Title", URL: "https://b.example/x"})

	if got := len(agg.Results()); got != 2 {
		t.Fatalf("got %d results, want 2", got)
	}
}

func TestAggregatorClassifiesAndScores(t *testing.T) {
	agg := NewAggregator(testClassifier())

	res, _ := agg.Add("arxiv", sources.TypeAcademic, true, sources.Result{
		Title: "Some Paper", URL: "https://arxiv.org/abs/1706.03762",
	})
	if res.Tier != trust.TierHigh {
		t.Fatalf("curated adapter result tier = %s, want high", res.Tier)
	}
	if res.Score != 5.0 {
		t.Fatalf("score = %v, want 5.0 (high 3 + academic 2)", res.Score)
	}
}

func TestRankStableUnderTies(t *testing.T) {
	in := []SourceResult{
		{Title: "low", Score: 1.0},
		{Title: "tie-a", Score: 2.5},
		{Title: "tie-b", Score: 2.5},
		{Title: "top", Score: 4.0},
	}
	ranked := Rank(in)

	want := []string{"top", "tie-a", "tie-b", "low"}
	for i, title := range want {
		if ranked[i].Title != title {
			t.Fatalf("position %d = %s, want %s", i, ranked[i].Title, title)
		}
	}
	// Rank must not mutate its input.
	if in[0].Title != "low" {
		t.Fatal("Rank mutated input slice")
	}
}
