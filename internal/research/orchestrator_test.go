package research

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/quorralabs/deepresearch/internal/extract"
	"github.com/quorralabs/deepresearch/internal/sources"
)

func TestResearchEndToEnd(t *testing.T) {
	provider := newStubLLM()
	provider.set("planning", validPlanJSON)
	provider.set("analysis", validAnalysisJSON)
	provider.set("synthesis", validSynthesisJSON)
	provider.set("narrative", "# Transformers\n\nAttention is the core mechanism.")
	provider.set("follow_ups", `["how do transformers scale?"]`)
	provider.set("gaps", `["long-context evaluation"]`)

	// Two adapters index the same story under slightly different URLs and
	// titles; the aggregator must merge them into one entry.
	overlapTitle := "Attention Is All You Need, the paper that introduced the transformer model"
	adapters := []sources.Adapter{
		&stubAdapter{
			name: "brave", typ: sources.TypeWeb,
			results: []sources.Result{{Title: overlapTitle, URL: "https://blog.example.com/attention"}},
		},
		&stubAdapter{
			name: "serper", typ: sources.TypeWeb,
			results: []sources.Result{{Title: overlapTitle + " (annotated)", URL: "https://www.blog.example.com/attention-annotated"}},
		},
	}
	extractor := &stubExtractor{content: map[string]*extract.Content{
		"https://blog.example.com/attention": extract.NewContent(
			"https://blog.example.com/attention", "Attention Is All You Need",
			strings.Repeat("the transformer relies on self attention ", 5)),
		"https://www.blog.example.com/attention-annotated": extract.NewContent(
			"https://www.blog.example.com/attention-annotated", "Annotated",
			strings.Repeat("annotated walkthrough of the transformer ", 5)),
	}}

	o := NewOrchestrator(testConfig(), provider, adapters, extractor, testClassifier(), testTelemetry())
	session, err := o.Start(context.Background(), "transformer architecture", DepthQuick)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	result, err := session.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if result.Phase != PhaseComplete {
		t.Fatalf("phase = %s, want complete", result.Phase)
	}
	if result.Stats.SubQueries != 4 {
		t.Fatalf("sub-queries = %d, want 4 for quick depth", result.Stats.SubQueries)
	}
	if len(result.Sources) != 1 {
		t.Fatalf("sources = %d, want 1 merged entry", len(result.Sources))
	}
	if result.Stats.SourcesAnalyzed != 1 {
		t.Fatalf("sources analyzed = %d, want 1", result.Stats.SourcesAnalyzed)
	}
	if len(result.Findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(result.Findings))
	}
	if result.Synthesis == nil || result.Synthesis.Confidence == "low" {
		t.Fatalf("expected non-fallback synthesis, got %+v", result.Synthesis)
	}
	if result.Report == nil || result.Report.Narrative == "" {
		t.Fatal("expected non-empty narrative")
	}

	events := drain(session.Events())
	completes := 0
	sawPlanBeforeSource := false
	planSeen := false
	for _, ev := range events {
		switch ev.(type) {
		case PlanEvent:
			planSeen = true
		case SourceEvent:
			if planSeen {
				sawPlanBeforeSource = true
			}
		case CompleteEvent:
			completes++
		}
	}
	if completes != 1 {
		t.Fatalf("complete events = %d, want exactly 1", completes)
	}
	if !sawPlanBeforeSource {
		t.Fatal("plan event should precede source events")
	}
}

func TestResearchPlanningFailureIsFatal(t *testing.T) {
	provider := newStubLLM()
	provider.set("planning", "definitely not json")

	o := NewOrchestrator(testConfig(), provider, nil, &stubExtractor{}, testClassifier(), testTelemetry())
	session, err := o.Start(context.Background(), "some query", DepthQuick)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	result, err := session.Wait()
	if err == nil {
		t.Fatal("expected fatal error from malformed plan")
	}
	if result != nil {
		t.Fatalf("fatal runs should not return a result, got %+v", result)
	}

	errorEvents := 0
	for _, ev := range drain(session.Events()) {
		if _, ok := ev.(ErrorEvent); ok {
			errorEvents++
		}
	}
	if errorEvents != 1 {
		t.Fatalf("error events = %d, want exactly 1", errorEvents)
	}
}

func TestResearchCancelMidSearchAborts(t *testing.T) {
	provider := newStubLLM()
	provider.set("planning", validPlanJSON)

	started := make(chan struct{})
	var once bool
	blocking := adapterFunc(func(ctx context.Context, query string, max int) ([]sources.Result, error) {
		if !once {
			once = true
			close(started)
		}
		<-ctx.Done()
		return nil, ctx.Err()
	})

	o := NewOrchestrator(testConfig(), provider, []sources.Adapter{blocking}, &stubExtractor{}, testClassifier(), testTelemetry())
	session, err := o.Start(context.Background(), "transformer architecture", DepthQuick)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("search never started")
	}
	session.Cancel()
	session.Cancel() // idempotent

	result, err := session.Wait()
	if err != nil {
		t.Fatalf("cancelled run should not error: %v", err)
	}
	if result.Phase != PhaseAborted {
		t.Fatalf("phase = %s, want aborted", result.Phase)
	}
	if len(result.Findings) != 0 || result.Report != nil {
		t.Fatalf("aborted mid-search should carry no findings or report, got %+v", result)
	}
	// Later stages never ran.
	if provider.callCount("synthesis") != 0 || provider.callCount("narrative") != 0 {
		t.Fatal("stages after cancellation should not run")
	}
}

func TestStartRejectsShortQuery(t *testing.T) {
	o := NewOrchestrator(testConfig(), newStubLLM(), nil, &stubExtractor{}, testClassifier(), testTelemetry())
	if _, err := o.Start(context.Background(), "ab", DepthQuick); err == nil {
		t.Fatal("expected validation error for short query")
	}
	if _, err := o.Start(context.Background(), "valid query", Depth("extreme")); err == nil {
		t.Fatal("expected validation error for unknown depth")
	}
}
