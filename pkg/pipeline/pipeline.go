// Package pipeline wraps an ordered list of processors with a Source and a
// Sink and manages their collective lifecycle: linking neighbors in both
// directions, starting and stopping them together, and bridging frames
// between external callers and the chain.
package pipeline

import (
	"context"
	"fmt"

	"github.com/MrWong99/glyphoxa/pkg/frame"
	"github.com/MrWong99/glyphoxa/pkg/processor"
)

// UpstreamCallback receives frames that arrive at the Source from within the
// pipeline (back-channel signals such as user-started-speaking surfaced to
// an external consumer).
type UpstreamCallback func(f frame.Frame)

// DownstreamCallback receives frames that reach the Sink travelling
// downstream (the pipeline's normal output).
type DownstreamCallback func(f frame.Frame)

// Pipeline is Source → p1 → p2 → … → pN → Sink, with collective lifecycle
// management. Source and Sink are themselves processors that exist purely
// as boundary adapters; they participate in the same linking and scheduling
// machinery as every other stage.
type Pipeline struct {
	source  *processor.Processor
	sink    *processor.Processor
	stages  []*processor.Processor
	all     []*processor.Processor // source, stages..., sink in chain order
}

// New constructs a pipeline chaining Source → stages... → Sink and links
// every adjacent pair. upstreamCB and downstreamCB may be nil, in which case
// frames reaching the corresponding boundary are silently dropped.
func New(stages []*processor.Processor, upstreamCB UpstreamCallback, downstreamCB DownstreamCallback) *Pipeline {
	source := newSource(upstreamCB)
	sink := newSink(downstreamCB)

	all := make([]*processor.Processor, 0, len(stages)+2)
	all = append(all, source)
	all = append(all, stages...)
	all = append(all, sink)

	for i := 0; i < len(all)-1; i++ {
		all[i].Link(all[i+1])
	}

	return &Pipeline{source: source, sink: sink, stages: stages, all: all}
}

// Source returns the pipeline's boundary source processor.
func (pl *Pipeline) Source() *processor.Processor { return pl.source }

// Sink returns the pipeline's boundary sink processor.
func (pl *Pipeline) Sink() *processor.Processor { return pl.sink }

// Stages returns the ordered list of processors between Source and Sink.
func (pl *Pipeline) Stages() []*processor.Processor { return pl.stages }

// Start calls Setup on every processor in chain order, aborting without
// leaving any processor started if any Setup call fails, then calls Start
// on each.
func (pl *Pipeline) Start(ctx context.Context) error {
	started := make([]*processor.Processor, 0, len(pl.all))
	for _, p := range pl.all {
		if err := p.Setup(ctx); err != nil {
			for i := len(started) - 1; i >= 0; i-- {
				_ = started[i].Stop(ctx)
			}
			return fmt.Errorf("pipeline: setup failed for %q: %w", p.Name(), err)
		}
		started = append(started, p)
	}
	for _, p := range pl.all {
		p.Start(ctx)
	}
	return nil
}

// Stop calls Stop on every processor in reverse chain order and awaits each
// before moving to the previous one. Processor.Stop already performs
// cleanup internally, so no separate cleanup pass is required.
func (pl *Pipeline) Stop(ctx context.Context) error {
	var firstErr error
	for i := len(pl.all) - 1; i >= 0; i-- {
		p := pl.all[i]
		if err := p.Stop(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("pipeline: stop failed for %q: %w", p.Name(), err)
		}
	}
	return firstErr
}

// Queue deposits f at the Source, tagged downstream. This is the standard
// external entry point for injecting frames into the pipeline.
func (pl *Pipeline) Queue(f frame.Frame) {
	pl.source.Deliver(f, processor.Downstream)
}

// Push deposits f at the Sink, tagged with dir. The conventional use is
// processor.Upstream, for downstream-injecting scenarios where a caller
// wants to simulate a frame arriving from beyond the sink so it flows back
// upstream through the chain.
func (pl *Pipeline) Push(f frame.Frame, dir processor.Direction) {
	pl.sink.Deliver(f, dir)
}
