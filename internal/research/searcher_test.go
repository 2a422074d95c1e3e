package research

import (
	"context"
	"errors"
	"testing"

	"github.com/quorralabs/deepresearch/internal/sources"
)

func TestSearcherFaultIsolation(t *testing.T) {
	healthy := &stubAdapter{
		name: "wikipedia", typ: sources.TypeEncyclopedia, curated: true,
		results: []sources.Result{
			{Title: "Transformer (deep learning)", URL: "https://en.wikipedia.org/wiki/Transformer"},
		},
	}
	broken := &stubAdapter{name: "brave", typ: sources.TypeWeb, err: errors.New("upstream 429")}

	s := NewSearcher([]sources.Adapter{healthy, broken}, testClassifier(), testConfig().Research, testTelemetry())
	results := s.Run(context.Background(), &Plan{SubQueries: []string{"q1", "q2"}}, func(Event) {})

	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 from the healthy adapter", len(results))
	}
	if results[0].Adapter != "wikipedia" {
		t.Fatalf("result adapter = %s", results[0].Adapter)
	}
}

func TestSearcherEmitsEachFreshResultOnce(t *testing.T) {
	adapter := &stubAdapter{
		name: "hackernews", typ: sources.TypeDiscussion,
		results: []sources.Result{
			{Title: "Story A", URL: "https://a.example/1"},
			{Title: "Story B", URL: "https://b.example/2"},
		},
	}

	var events []Event
	s := NewSearcher([]sources.Adapter{adapter}, testClassifier(), testConfig().Research, testTelemetry())
	// Two sub-queries return identical hits; only the first pass is fresh.
	results := s.Run(context.Background(), &Plan{SubQueries: []string{"q1", "q2"}}, func(ev Event) {
		events = append(events, ev)
	})

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	sourceEvents := 0
	for _, ev := range events {
		if _, ok := ev.(SourceEvent); ok {
			sourceEvents++
		}
	}
	if sourceEvents != 2 {
		t.Fatalf("got %d source events, want 2", sourceEvents)
	}
}

func TestSearcherStopsBetweenSubQueriesOnCancel(t *testing.T) {
	calls := 0
	counting := adapterFunc(func(ctx context.Context, query string, max int) ([]sources.Result, error) {
		calls++
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSearcher([]sources.Adapter{counting}, testClassifier(), testConfig().Research, testTelemetry())
	results := s.Run(ctx, &Plan{SubQueries: []string{"q1", "q2", "q3"}}, func(Event) {})

	if calls != 0 {
		t.Fatalf("adapter called %d times after cancellation, want 0", calls)
	}
	if len(results) != 0 {
		t.Fatalf("got %d results, want 0", len(results))
	}
}

// adapterFunc adapts a function to the sources.Adapter contract.
type adapterFunc func(ctx context.Context, query string, max int) ([]sources.Result, error)

func (f adapterFunc) Name() string             { return "func" }
func (f adapterFunc) SourceType() sources.Type { return sources.TypeWeb }
func (f adapterFunc) Curated() bool            { return false }
func (f adapterFunc) Search(ctx context.Context, query string, max int) ([]sources.Result, error) {
	return f(ctx, query, max)
}
