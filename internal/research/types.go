// Package research implements the orchestration pipeline: planning, search
// fan-out, analysis, synthesis and reporting, driven by an explicit phase
// state machine.
package research

import (
	"fmt"
	"time"

	"github.com/quorralabs/deepresearch/internal/sources"
	"github.com/quorralabs/deepresearch/internal/trust"
)

// Depth controls how many sub-queries planning produces and how many ranked
// sources analysis reads in full.
type Depth string

const (
	DepthQuick    Depth = "quick"
	DepthStandard Depth = "standard"
	DepthDeep     Depth = "deep"
)

// ParseDepth validates a depth string, defaulting empty input to standard.
func ParseDepth(s string) (Depth, error) {
	switch Depth(s) {
	case DepthQuick, DepthStandard, DepthDeep:
		return Depth(s), nil
	case "":
		return DepthStandard, nil
	default:
		return "", fmt.Errorf("unknown depth %q (want quick, standard or deep)", s)
	}
}

// Phase is a state of the orchestrator's state machine.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhasePlanning     Phase = "planning"
	PhaseSearching    Phase = "searching"
	PhaseAnalyzing    Phase = "analyzing"
	PhaseSynthesizing Phase = "synthesizing"
	PhaseReporting    Phase = "reporting"
	PhaseComplete     Phase = "complete"
	PhaseError        Phase = "error"
	PhaseAborted      Phase = "aborted"
)

// Terminal reports whether the phase is an end state.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseError || p == PhaseAborted
}

// Plan is the structured output of the planning stage.
type Plan struct {
	MainTopic  string   `json:"main_topic"`
	Goal       string   `json:"goal"`
	SubQueries []string `json:"sub_queries"`
	KeyAspects []string `json:"key_aspects"`
}

// SourceResult is one deduplicated search hit, classified and scored.
type SourceResult struct {
	Title   string       `json:"title"`
	URL     string       `json:"url"`
	Snippet string       `json:"snippet,omitempty"`
	Adapter string       `json:"adapter"`
	Type    sources.Type `json:"type"`
	Tier    trust.Tier   `json:"tier"`
	Score   float64      `json:"score"`
}

// Analysis is the structured model output for one source's content.
type Analysis struct {
	KeyPoints   []string `json:"key_points"`
	Facts       []string `json:"facts"`
	Credibility string   `json:"credibility"`
	Relevance   string   `json:"relevance"`
}

// Finding pairs a source with its successful analysis.
type Finding struct {
	Source   SourceResult `json:"source"`
	Analysis Analysis     `json:"analysis"`
}

// Synthesis is derived from the full finding set and never mutated after.
type Synthesis struct {
	Consensus     []string `json:"consensus"`
	Controversies []string `json:"controversies"`
	Gaps          []string `json:"gaps"`
	Confidence    string   `json:"confidence"`
	Summary       string   `json:"summary"`
}

// Report is the final narrative artifact.
type Report struct {
	Narrative   string    `json:"narrative"`
	FollowUps   []string  `json:"follow_ups"`
	Gaps        []string  `json:"gaps"`
	Confidence  string    `json:"confidence"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Stats aggregates run counters for the terminal result.
type Stats struct {
	SubQueries      int                `json:"sub_queries"`
	SourcesFound    int                `json:"sources_found"`
	SourcesAnalyzed int                `json:"sources_analyzed"`
	Findings        int                `json:"findings"`
	ByTier          map[trust.Tier]int `json:"by_tier"`
	Elapsed         time.Duration      `json:"elapsed"`
}

// Result is the terminal artifact of a research run. A run that was
// cancelled carries phase aborted and whatever partial data had accumulated.
type Result struct {
	ID         string         `json:"id"`
	Query      string         `json:"query"`
	Depth      Depth          `json:"depth"`
	Phase      Phase          `json:"phase"`
	Plan       *Plan          `json:"plan,omitempty"`
	Sources    []SourceResult `json:"sources"`
	Findings   []Finding      `json:"findings"`
	Synthesis  *Synthesis     `json:"synthesis,omitempty"`
	Report     *Report        `json:"report,omitempty"`
	Stats      Stats          `json:"stats"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Error      string         `json:"error,omitempty"`
}
