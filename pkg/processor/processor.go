// Package processor implements the per-stage runtime every pipeline stage
// runs on: dual-priority FIFO queues, a cooperative single-threaded
// scheduler, lifecycle hooks, pause/resume, and built-in handling of the
// small closed set of system frames the runtime itself understands.
//
// A Processor never shares mutable state with its neighbors; the only
// inter-processor communication is frame passing via Push and Queue.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/glyphoxa/pkg/frame"
)

// Direction is the side of a processor a frame arrives from or is pushed
// toward: downstream (toward the sink) or upstream (toward the source).
type Direction int

const (
	// Downstream is the direction from source toward sink.
	Downstream Direction = iota
	// Upstream is the direction from sink toward source, used for
	// interruptions and back-channel signals.
	Upstream
)

func (d Direction) String() string {
	if d == Upstream {
		return "upstream"
	}
	return "downstream"
}

// State is one of a Processor's three lifecycle states.
type State int

const (
	// Constructed is the initial state before Start is called.
	Constructed State = iota
	// Running is the state after Start and before Stop.
	Running
	// Stopped is the terminal state after Stop completes.
	Stopped
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ErrNotRunning is returned by operations that require a running processor.
var ErrNotRunning = errors.New("processor: not running")

// Handler is the user-defined per-frame callback. It is invoked for every
// frame except the closed set of built-in system frames and EndFrame, which
// the runtime intercepts itself. dir reports which neighbor the frame
// arrived from.
type Handler func(ctx context.Context, p *Processor, f frame.Frame, dir Direction) error

// LifecycleFunc is a setup/cleanup hook.
type LifecycleFunc func(ctx context.Context) error

// Metrics is a point-in-time, concurrency-safe snapshot of a processor's
// handling counters.
type Metrics struct {
	TotalHandled   uint64
	HandledSystem  uint64
	HandledData    uint64
	HandledControl uint64
	Errors         uint64
	PriorityDepth  int
	OrdinaryDepth  int
}

// Processor is a single-stage compute unit: an identity, at most one
// downstream and one upstream neighbor, two FIFO queues, a scheduler task,
// and a user-defined frame handler.
//
// Processors reference their neighbors by plain pointer. The pipeline that
// constructs them owns their lifetime; a Processor holds only lookup
// references to enqueue on its neighbors, never ownership.
type Processor struct {
	id   string
	name string

	downstream *Processor
	upstream   *Processor

	priority queue
	ordinary queue

	handler Handler
	setup   LifecycleFunc
	cleanup LifecycleFunc

	state   atomic.Int32
	paused  atomic.Bool
	stopReq atomic.Bool

	allowInterruptions atomic.Bool

	stopCh   chan struct{}
	stopOnce sync.Once
	loopDone chan struct{}

	totalHandled   atomic.Uint64
	handledSystem  atomic.Uint64
	handledData    atomic.Uint64
	handledControl atomic.Uint64
	errorCount     atomic.Uint64

	logger *slog.Logger
}

// Option configures a Processor at construction time.
type Option func(*Processor)

// WithSetup registers a lifecycle hook run once by the pipeline before the
// scheduler starts.
func WithSetup(fn LifecycleFunc) Option { return func(p *Processor) { p.setup = fn } }

// WithCleanup registers a lifecycle hook run once after the scheduler loop
// exits, from within Stop.
func WithCleanup(fn LifecycleFunc) Option { return func(p *Processor) { p.cleanup = fn } }

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) Option { return func(p *Processor) { p.logger = l } }

// New constructs a Processor with the given name and frame handler. An id
// is generated if not overridden by a future option; callers needing a
// stable id for pause/resume targeting should rely on Name instead, which is
// caller-supplied and deterministic.
func New(name string, handler Handler, opts ...Option) *Processor {
	p := &Processor{
		id:       uuid.NewString(),
		name:     name,
		handler:  handler,
		stopCh:   make(chan struct{}),
		loopDone: make(chan struct{}),
		logger:   slog.Default(),
	}
	p.state.Store(int32(Constructed))
	for _, o := range opts {
		o(p)
	}
	return p
}

// ID returns the processor's unique identifier.
func (p *Processor) ID() string { return p.id }

// Name returns the processor's human-readable name.
func (p *Processor) Name() string { return p.name }

// State returns the current lifecycle state.
func (p *Processor) State() State { return State(p.state.Load()) }

// Paused reports whether the processor's ordinary queue is currently
// frozen.
func (p *Processor) Paused() bool { return p.paused.Load() }

// Downstream returns the linked downstream neighbor, or nil.
func (p *Processor) Downstream() *Processor { return p.downstream }

// Upstream returns the linked upstream neighbor, or nil.
func (p *Processor) Upstream() *Processor { return p.upstream }

// Link establishes bidirectional neighbor references: p's downstream
// becomes next, and next's upstream becomes p.
func (p *Processor) Link(next *Processor) {
	p.downstream = next
	next.upstream = p
}

// Metrics returns a point-in-time snapshot of the processor's counters and
// queue depths.
func (p *Processor) Metrics() Metrics {
	return Metrics{
		TotalHandled:   p.totalHandled.Load(),
		HandledSystem:  p.handledSystem.Load(),
		HandledData:    p.handledData.Load(),
		HandledControl: p.handledControl.Load(),
		Errors:         p.errorCount.Load(),
		PriorityDepth:  p.priority.len(),
		OrdinaryDepth:  p.ordinary.len(),
	}
}

// Queue appends f to this processor's own queues: System-category frames go
// to the priority queue, Data and Control to the ordinary queue. Queue never
// blocks and always succeeds.
func (p *Processor) Queue(f frame.Frame) {
	if f.Category() == frame.System {
		p.priority.push(f)
		return
	}
	p.ordinary.push(f)
}

// Push synchronously enqueues f on the neighbor in the given direction. If
// there is no neighbor in that direction, the frame is silently dropped
// (with a log line) and never re-enters p's own queues.
func (p *Processor) Push(f frame.Frame, dir Direction) {
	var target *Processor
	if dir == Downstream {
		target = p.downstream
	} else {
		target = p.upstream
	}
	if target == nil {
		p.logger.Debug("dropped frame with no neighbor",
			"processor", p.name, "frame", f.Name(), "direction", dir.String())
		return
	}
	target.enqueue(f, dir)
}

// enqueue is Queue plus direction bookkeeping used by the dispatch loop to
// tell the handler which neighbor a frame arrived from.
func (p *Processor) enqueue(f frame.Frame, arrivedFrom Direction) {
	item := directedFrame{f: f, dir: arrivedFrom}
	if f.Category() == frame.System {
		p.priority.push(item)
		return
	}
	p.ordinary.push(item)
}

// Deliver enqueues f directly onto this processor's own queues, tagged as
// having arrived from dir. This is distinct from Push, which enqueues onto a
// *neighbor*; Deliver is what a pipeline boundary (Source/Sink) uses to
// inject an externally-supplied frame into itself with an explicit
// direction, so its handler can route it correctly.
func (p *Processor) Deliver(f frame.Frame, dir Direction) {
	p.enqueue(f, dir)
}

// directedFrame wraps a frame with the direction it arrived from so the
// scheduler loop can pass that along to the handler. The queues hold untyped
// values: popDirected unwraps a directedFrame and treats a bare frame.Frame
// (which carries no direction) as downstream.
type directedFrame struct {
	f   frame.Frame
	dir Direction
}

func (d directedFrame) unwrap() (frame.Frame, Direction) { return d.f, d.dir }

// popDirected pops from q, normalizing bare frame.Frame values (pushed via
// Queue, which has no direction context) to Downstream.
func popDirected(q *queue) (frame.Frame, Direction, bool) {
	raw, ok := q.pop()
	if !ok {
		return nil, Downstream, false
	}
	if df, isDirected := raw.(directedFrame); isDirected {
		f, dir := df.unwrap()
		return f, dir, true
	}
	return raw.(frame.Frame), Downstream, true
}

// Setup runs the registered setup hook, if any.
func (p *Processor) Setup(ctx context.Context) error {
	if p.setup == nil {
		return nil
	}
	return p.setup(ctx)
}

// Start spawns the scheduler loop. Idempotent once running.
func (p *Processor) Start(ctx context.Context) {
	if p.State() == Running {
		return
	}
	p.state.Store(int32(Running))
	go p.loop(ctx)
}

// Stop signals the scheduler to exit after draining the current frame,
// awaits it, then invokes Cleanup. Idempotent: once stopped, further calls
// return nil without running Cleanup again. A processor that was never
// started has no scheduler to await, so Stop goes straight to Cleanup.
func (p *Processor) Stop(ctx context.Context) error {
	if p.State() == Stopped {
		return nil
	}
	p.stopOnce.Do(func() {
		p.stopReq.Store(true)
		close(p.stopCh)
	})
	if p.State() == Running {
		select {
		case <-p.loopDone:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.state.Store(int32(Stopped))
	if p.cleanup != nil {
		return p.cleanup(ctx)
	}
	return nil
}

const idleYield = time.Millisecond

func (p *Processor) loop(ctx context.Context) {
	defer close(p.loopDone)
	for {
		if f, dir, ok := popDirected(&p.priority); ok {
			p.dispatch(ctx, f, dir)
			if p.stopReq.Load() {
				return
			}
			continue
		}
		if !p.Paused() {
			if f, dir, ok := popDirected(&p.ordinary); ok {
				p.dispatch(ctx, f, dir)
				if p.stopReq.Load() {
					return
				}
				continue
			}
		}
		if p.stopReq.Load() {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-time.After(idleYield):
		}
	}
}

// dispatch applies built-in system-frame handling, then invokes the user
// handler for everything else except EndFrame.
func (p *Processor) dispatch(ctx context.Context, f frame.Frame, dir Direction) {
	switch v := f.(type) {
	case *frame.StartFrame:
		p.allowInterruptions.Store(v.AllowInterruptions)
		p.countHandled(f)
		p.Push(f, dir)
		return
	case *frame.CancelFrame:
		p.maybeDiscardOnInterruption()
		p.countHandled(f)
		p.Push(f, dir)
		return
	case *frame.InterruptionFrame:
		p.maybeDiscardOnInterruption()
		p.countHandled(f)
		p.Push(f, dir)
		return
	case *frame.StopFrame:
		p.countHandled(f)
		p.Push(f, dir)
		p.stopReq.Store(true)
		return
	case *frame.PauseProcessorFrame:
		if p.matchesTarget(v.Target) {
			p.paused.Store(true)
		}
		p.countHandled(f)
		p.Push(f, dir)
		return
	case *frame.ResumeProcessorFrame:
		if p.matchesTarget(v.Target) {
			p.paused.Store(false)
		}
		p.countHandled(f)
		p.Push(f, dir)
		return
	case *frame.EndFrame:
		p.countHandled(f)
		p.Push(f, dir)
		return
	}

	p.countHandled(f)
	p.invokeHandler(ctx, f, dir)
}

func (p *Processor) matchesTarget(target string) bool {
	return target == p.id || target == p.name
}

func (p *Processor) maybeDiscardOnInterruption() {
	if !p.allowInterruptions.Load() {
		return
	}
	if n := p.ordinary.clear(); n > 0 {
		p.logger.Debug("discarded ordinary queue on interruption",
			"processor", p.name, "discarded", n)
	}
}

func (p *Processor) countHandled(f frame.Frame) {
	p.totalHandled.Add(1)
	switch f.Category() {
	case frame.System:
		p.handledSystem.Add(1)
	case frame.Control:
		p.handledControl.Add(1)
	default:
		p.handledData.Add(1)
	}
}

// invokeHandler calls the user handler, recovering from a panic exactly like
// a returned error: counted, logged, surfaced as a non-fatal ErrorFrame
// pushed downstream. The loop always continues.
func (p *Processor) invokeHandler(ctx context.Context, f frame.Frame, dir Direction) {
	if p.handler == nil {
		return
	}
	err := p.safeInvoke(ctx, f, dir)
	if err != nil {
		p.errorCount.Add(1)
		p.logger.Warn("processor handler error",
			"processor", p.name, "frame", f.Name(), "error", err)
		p.Push(frame.NewErrorFrame(err.Error(), false), Downstream)
	}
}

func (p *Processor) safeInvoke(ctx context.Context, f frame.Frame, dir Direction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler: %v", r)
		}
	}()
	return p.handler(ctx, p, f, dir)
}

// PushError is a convenience for concrete adapters: it synthesizes an error
// frame carrying the given fatal flag and pushes it downstream.
func (p *Processor) PushError(message string, fatal bool) {
	p.Push(frame.NewErrorFrame(message, fatal), Downstream)
}
