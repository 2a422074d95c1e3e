package research

import "sync"

// Event is the progress stream's sum type. Consumers switch on the concrete
// type; Kind exists for wire framing.
type Event interface {
	Kind() string
}

const (
	KindStatus   = "status"
	KindPlan     = "plan"
	KindThought  = "thought"
	KindSource   = "source"
	KindFinding  = "finding"
	KindComplete = "complete"
	KindError    = "error"
)

// StatusEvent marks a phase transition.
type StatusEvent struct {
	Phase   Phase  `json:"phase"`
	Message string `json:"message"`
}

// PlanEvent carries the accepted plan.
type PlanEvent struct {
	Plan Plan `json:"plan"`
}

// ThoughtEvent carries free-text reasoning from one stage.
type ThoughtEvent struct {
	Agent string `json:"agent"`
	Text  string `json:"text"`
}

// SourceEvent announces a new, non-duplicate result.
type SourceEvent struct {
	Source SourceResult `json:"source"`
}

// FindingEvent announces a successful per-source analysis.
type FindingEvent struct {
	Title    string   `json:"title"`
	Analysis Analysis `json:"analysis"`
}

// CompleteEvent carries the terminal result, emitted exactly once.
type CompleteEvent struct {
	Result *Result `json:"result"`
}

// ErrorEvent carries the fatal failure message.
type ErrorEvent struct {
	Message string `json:"message"`
}

func (StatusEvent) Kind() string   { return KindStatus }
func (PlanEvent) Kind() string     { return KindPlan }
func (ThoughtEvent) Kind() string  { return KindThought }
func (SourceEvent) Kind() string   { return KindSource }
func (FindingEvent) Kind() string  { return KindFinding }
func (CompleteEvent) Kind() string { return KindComplete }
func (ErrorEvent) Kind() string    { return KindError }

// Envelope frames an event for the wire with its type discriminant.
type Envelope struct {
	Type string `json:"type"`
	Data Event  `json:"data"`
}

// NewEnvelope wraps an event for serialization.
func NewEnvelope(ev Event) Envelope {
	return Envelope{Type: ev.Kind(), Data: ev}
}

// Publisher delivers events through a bounded channel. Emit never blocks the
// pipeline: when a consumer falls behind and the buffer fills, events are
// dropped rather than stalling a run.
type Publisher struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// NewPublisher creates a publisher with the given buffer size.
func NewPublisher(buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 64
	}
	return &Publisher{ch: make(chan Event, buffer)}
}

// Emit delivers ev if there is room, dropping it otherwise.
func (p *Publisher) Emit(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.ch <- ev:
	default:
	}
}

// Events returns the consumer side of the stream. The channel is closed when
// the run reaches a terminal phase.
func (p *Publisher) Events() <-chan Event { return p.ch }

// Close ends the stream. Safe to call more than once.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.ch)
}
