package pipeline

import (
	"context"

	"github.com/MrWong99/glyphoxa/pkg/frame"
	"github.com/MrWong99/glyphoxa/pkg/processor"
)

// newSource builds the pipeline's boundary source processor. Frames
// delivered to it tagged downstream (external Pipeline.Queue calls) are
// pushed to its downstream neighbor (the first stage). Frames that arrive
// tagged upstream (surfaced from within the chain, e.g. an interruption
// back-channel) are handed to cb instead of being forwarded further
// upstream, since the Source has no upstream neighbor of its own.
func newSource(cb UpstreamCallback) *processor.Processor {
	handler := func(ctx context.Context, p *processor.Processor, f frame.Frame, dir processor.Direction) error {
		if dir == processor.Upstream {
			if cb != nil {
				cb(f)
			}
			return nil
		}
		p.Push(f, processor.Downstream)
		return nil
	}
	return processor.New("Source", handler)
}

// newSink builds the pipeline's boundary sink processor. Frames that arrive
// tagged downstream (the pipeline's normal output) are handed to cb. Frames
// delivered tagged upstream (via Pipeline.Push) are forwarded further
// upstream to the last stage.
func newSink(cb DownstreamCallback) *processor.Processor {
	handler := func(ctx context.Context, p *processor.Processor, f frame.Frame, dir processor.Direction) error {
		if dir == processor.Downstream {
			if cb != nil {
				cb(f)
			}
			return nil
		}
		p.Push(f, processor.Upstream)
		return nil
	}
	return processor.New("Sink", handler)
}
