package research

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/quorralabs/deepresearch/config"
	"github.com/quorralabs/deepresearch/internal/llm"
	"github.com/quorralabs/deepresearch/internal/sources"
	"github.com/quorralabs/deepresearch/internal/telemetry"
	"github.com/quorralabs/deepresearch/internal/trust"
)

// Orchestrator drives the five pipeline stages as an explicit phase state
// machine and assembles the terminal result.
type Orchestrator struct {
	cfg    config.Config
	tel    *telemetry.Telemetry
	tracer trace.Tracer
	logger *log.Logger

	planner     *Planner
	searcher    *Searcher
	analyzer    *Analyzer
	synthesizer *Synthesizer
	reporter    *Reporter
}

// NewOrchestrator wires the stages over the given provider, adapters and
// extractor.
func NewOrchestrator(cfg config.Config, provider llm.Provider, adapters []sources.Adapter, extractor ContentExtractor, classifier *trust.Classifier, tel *telemetry.Telemetry) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		tel:         tel,
		tracer:      telemetry.Tracer(),
		logger:      log.New(log.Writer(), "[ORCHESTRATOR] ", log.LstdFlags),
		planner:     NewPlanner(provider, cfg, tel),
		searcher:    NewSearcher(adapters, classifier, cfg.Research, tel),
		analyzer:    NewAnalyzer(provider, extractor, cfg, tel),
		synthesizer: NewSynthesizer(provider, cfg, tel),
		reporter:    NewReporter(provider, cfg, tel),
	}
}

// Session is one in-flight research run. It is created by Start and owns the
// run's event stream and cancellation.
type Session struct {
	ID    string
	Query string
	Depth Depth

	cancel context.CancelFunc
	pub    *Publisher
	done   chan struct{}

	mu     sync.Mutex
	phase  Phase
	result *Result
	err    error
}

// Events returns the session's progress stream. The channel is closed when
// the run reaches a terminal phase.
func (s *Session) Events() <-chan Event { return s.pub.Events() }

// Cancel requests cooperative cancellation. It is idempotent and returns
// immediately; in-flight network and model calls observe it through their
// context, and the run settles into the aborted state with whatever partial
// data had accumulated.
func (s *Session) Cancel() { s.cancel() }

// Phase returns the session's current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Wait blocks until the run reaches a terminal phase. Completed and aborted
// runs return their result; a fatal error returns the error instead.
func (s *Session) Wait() (*Result, error) {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}

// Start validates the query and launches a run asynchronously.
func (o *Orchestrator) Start(ctx context.Context, query string, depth Depth) (*Session, error) {
	query = strings.TrimSpace(query)
	if len(query) < o.cfg.Research.MinQueryLength {
		return nil, fmt.Errorf("query too short (minimum %d characters)", o.cfg.Research.MinQueryLength)
	}
	if _, err := ParseDepth(string(depth)); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	session := &Session{
		ID:     uuid.New().String(),
		Query:  query,
		Depth:  depth,
		cancel: cancel,
		pub:    NewPublisher(o.cfg.Research.EventBuffer),
		done:   make(chan struct{}),
		phase:  PhaseIdle,
	}
	go o.run(runCtx, session)
	return session, nil
}

// run executes the stage sequence. Cancellation is checked before every
// phase transition; a set flag stops advancing and finalizes the partial
// result as aborted rather than an error.
func (o *Orchestrator) run(ctx context.Context, s *Session) {
	defer s.cancel()

	start := time.Now()
	result := &Result{
		ID:        s.ID,
		Query:     s.Query,
		Depth:     s.Depth,
		StartedAt: start.UTC(),
	}

	runCtx, span := o.tracer.Start(ctx, "research.run")
	defer span.End()

	var (
		plan     *Plan
		analyzed int
	)
	stages := []struct {
		phase   Phase
		message string
		execute func(context.Context) error
	}{
		{PhasePlanning, "decomposing the research question", func(ctx context.Context) error {
			p, err := o.planner.Plan(ctx, s.Query, s.Depth)
			if err != nil {
				return err
			}
			plan = p
			result.Plan = p
			o.emit(s, PlanEvent{Plan: *p})
			o.emit(s, ThoughtEvent{
				Agent: "planner",
				Text:  fmt.Sprintf("split %q into %d sub-queries covering: %s", s.Query, len(p.SubQueries), strings.Join(p.KeyAspects, ", ")),
			})
			return nil
		}},
		{PhaseSearching, "querying sources", func(ctx context.Context) error {
			result.Sources = o.searcher.Run(ctx, plan, func(ev Event) { o.emit(s, ev) })
			o.emit(s, ThoughtEvent{
				Agent: "searcher",
				Text:  fmt.Sprintf("discovered %d unique sources", len(result.Sources)),
			})
			return nil
		}},
		{PhaseAnalyzing, "reading top sources", func(ctx context.Context) error {
			ranked := Rank(result.Sources)
			result.Findings, analyzed = o.analyzer.Run(ctx, s.Query, plan, ranked, s.Depth, func(ev Event) { o.emit(s, ev) })
			return nil
		}},
		{PhaseSynthesizing, "combining findings", func(ctx context.Context) error {
			syn, err := o.synthesizer.Run(ctx, s.Query, result.Findings)
			if err != nil {
				return err
			}
			result.Synthesis = syn
			o.emit(s, ThoughtEvent{Agent: "synthesizer", Text: syn.Summary})
			return nil
		}},
		{PhaseReporting, "writing the report", func(ctx context.Context) error {
			report, err := o.reporter.Run(ctx, s.Query, result.Synthesis, result.Findings)
			if err != nil {
				return err
			}
			result.Report = report
			return nil
		}},
	}

	for _, stage := range stages {
		if ctx.Err() != nil {
			o.finishAborted(s, result, start, analyzed)
			return
		}
		o.setPhase(s, stage.phase, stage.message)

		stageCtx, stageSpan := o.tracer.Start(runCtx, "research."+string(stage.phase))
		stageStart := time.Now()
		err := stage.execute(stageCtx)
		stageSpan.End()
		o.tel.ObservePhase(string(stage.phase), time.Since(stageStart))

		if err != nil {
			if ctx.Err() != nil {
				// The stage failed because the run was cancelled
				// out from under it, not on its own.
				o.finishAborted(s, result, start, analyzed)
				return
			}
			o.finishError(s, result, start, analyzed, err)
			return
		}
	}

	if ctx.Err() != nil {
		o.finishAborted(s, result, start, analyzed)
		return
	}

	result.Phase = PhaseComplete
	o.finalize(result, start, analyzed)
	o.setPhase(s, PhaseComplete, "research complete")
	o.emit(s, CompleteEvent{Result: result})
	o.tel.ObserveRun(string(s.Depth), string(PhaseComplete), result.Stats.Elapsed)
	o.logger.Printf("session %s complete: %d sources, %d findings, %v",
		s.ID, result.Stats.SourcesFound, result.Stats.Findings, result.Stats.Elapsed.Round(time.Millisecond))
	o.close(s, result, nil)
}

func (o *Orchestrator) finishAborted(s *Session, result *Result, start time.Time, analyzed int) {
	result.Phase = PhaseAborted
	o.finalize(result, start, analyzed)
	o.setPhase(s, PhaseAborted, "research cancelled")
	o.tel.ObserveRun(string(s.Depth), string(PhaseAborted), result.Stats.Elapsed)
	o.logger.Printf("session %s aborted with %d sources, %d findings",
		s.ID, result.Stats.SourcesFound, result.Stats.Findings)
	o.close(s, result, nil)
}

func (o *Orchestrator) finishError(s *Session, result *Result, start time.Time, analyzed int, err error) {
	result.Phase = PhaseError
	result.Error = err.Error()
	o.finalize(result, start, analyzed)
	o.emit(s, ErrorEvent{Message: err.Error()})
	o.setPhase(s, PhaseError, "research failed")
	o.tel.ObserveRun(string(s.Depth), string(PhaseError), result.Stats.Elapsed)
	o.logger.Printf("session %s failed: %v", s.ID, err)
	o.close(s, nil, err)
}

func (o *Orchestrator) finalize(result *Result, start time.Time, analyzed int) {
	byTier := make(map[trust.Tier]int)
	for _, src := range result.Sources {
		byTier[src.Tier]++
	}
	subQueries := 0
	if result.Plan != nil {
		subQueries = len(result.Plan.SubQueries)
	}
	result.FinishedAt = time.Now().UTC()
	result.Stats = Stats{
		SubQueries:      subQueries,
		SourcesFound:    len(result.Sources),
		SourcesAnalyzed: analyzed,
		Findings:        len(result.Findings),
		ByTier:          byTier,
		Elapsed:         time.Since(start),
	}
}

func (o *Orchestrator) setPhase(s *Session, phase Phase, message string) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()
	o.emit(s, StatusEvent{Phase: phase, Message: message})
}

func (o *Orchestrator) emit(s *Session, ev Event) { s.pub.Emit(ev) }

func (o *Orchestrator) close(s *Session, result *Result, err error) {
	s.mu.Lock()
	s.result = result
	s.err = err
	s.mu.Unlock()
	s.pub.Close()
	close(s.done)
}
