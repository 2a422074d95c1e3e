package research

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func planJSONWith(n int) string {
	queries := make([]string, n)
	for i := range queries {
		queries[i] = fmt.Sprintf(`"sub-query %d"`, i+1)
	}
	return fmt.Sprintf(`{"main_topic":"t","goal":"g","sub_queries":[%s],"key_aspects":["a"]}`,
		strings.Join(queries, ","))
}

func TestPlanSubQueryCountPerDepth(t *testing.T) {
	for depth, want := range map[Depth]int{DepthQuick: 4, DepthStandard: 6, DepthDeep: 10} {
		provider := newStubLLM()
		provider.set("planning", planJSONWith(want))

		plan, err := NewPlanner(provider, testConfig(), testTelemetry()).Plan(context.Background(), "some topic", depth)
		if err != nil {
			t.Fatalf("depth %s: %v", depth, err)
		}
		if len(plan.SubQueries) != want {
			t.Fatalf("depth %s: %d sub-queries, want %d", depth, len(plan.SubQueries), want)
		}
	}
}

func TestPlanCapsOverdeliveredSubQueries(t *testing.T) {
	provider := newStubLLM()
	provider.set("planning", planJSONWith(9))

	plan, err := NewPlanner(provider, testConfig(), testTelemetry()).Plan(context.Background(), "some topic", DepthQuick)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.SubQueries) != 4 {
		t.Fatalf("got %d sub-queries, want cap of 4", len(plan.SubQueries))
	}
}

func TestPlanMalformedResponseIsFatal(t *testing.T) {
	provider := newStubLLM()
	provider.set("planning", "this is not json")

	if _, err := NewPlanner(provider, testConfig(), testTelemetry()).Plan(context.Background(), "some topic", DepthQuick); err == nil {
		t.Fatal("expected error for malformed plan")
	}
}

func TestPlanEmptySubQueriesIsFatal(t *testing.T) {
	provider := newStubLLM()
	provider.set("planning", `{"main_topic":"t","goal":"g","sub_queries":[" ",""],"key_aspects":[]}`)

	if _, err := NewPlanner(provider, testConfig(), testTelemetry()).Plan(context.Background(), "some topic", DepthQuick); err == nil {
		t.Fatal("expected error for blank sub-queries")
	}
}
