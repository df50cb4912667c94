package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrWong99/glyphoxa/pkg/transport"
)

// fakeSource is a minimal transport.AudioSource test double that also tracks
// Close calls.
type fakeSource struct {
	id       int
	closed   atomic.Int32
	closeErr error
}

func (f *fakeSource) ReceiveAudioFrame(_ context.Context) ([]byte, error) {
	return nil, nil
}

func (f *fakeSource) Close() error {
	f.closed.Add(1)
	return f.closeErr
}

// funcDialer adapts a plain function to the Dialer interface.
type funcDialer struct {
	dial func(ctx context.Context) (transport.AudioSource, error)
}

func (d *funcDialer) Dial(ctx context.Context) (transport.AudioSource, error) {
	return d.dial(ctx)
}

func TestReconnector_Connect(t *testing.T) {
	t.Run("successful initial connection", func(t *testing.T) {
		src := &fakeSource{id: 1}
		var calls int
		dialer := &funcDialer{dial: func(_ context.Context) (transport.AudioSource, error) {
			calls++
			return src, nil
		}}

		r := NewReconnector(ReconnectorConfig{
			Dialer:    dialer,
			SessionID: "session-1",
		})

		got, err := r.Connect(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != src {
			t.Error("expected returned source to match dialer result")
		}
		if r.Source() != src {
			t.Error("expected stored source to match dialer result")
		}
		if calls != 1 {
			t.Errorf("expected 1 dial call, got %d", calls)
		}
	})

	t.Run("connection failure", func(t *testing.T) {
		dialer := &funcDialer{dial: func(_ context.Context) (transport.AudioSource, error) {
			return nil, errors.New("auth failed")
		}}

		r := NewReconnector(ReconnectorConfig{
			Dialer:    dialer,
			SessionID: "session-1",
		})

		_, err := r.Connect(context.Background())
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if r.Source() != nil {
			t.Error("expected nil source after failure")
		}
	})
}

func TestReconnector_Defaults(t *testing.T) {
	r := NewReconnector(ReconnectorConfig{
		Dialer: &funcDialer{dial: func(_ context.Context) (transport.AudioSource, error) {
			return &fakeSource{}, nil
		}},
	})

	if r.maxRetries != 10 {
		t.Errorf("expected default maxRetries=10, got %d", r.maxRetries)
	}
	if r.backoff != 1*time.Second {
		t.Errorf("expected default backoff=1s, got %v", r.backoff)
	}
	if r.maxBackoff != 30*time.Second {
		t.Errorf("expected default maxBackoff=30s, got %v", r.maxBackoff)
	}
}

func TestReconnector_ReconnectOnDisconnect(t *testing.T) {
	src1 := &fakeSource{id: 1}
	src2 := &fakeSource{id: 2}

	var reconnected atomic.Pointer[transport.AudioSource]

	dialer := &sequenceDialer{sources: []transport.AudioSource{src1, src2}}

	r := NewReconnector(ReconnectorConfig{
		Dialer:     dialer,
		SessionID:  "session-1",
		MaxRetries: 3,
		Backoff:    1 * time.Millisecond,
		MaxBackoff: 10 * time.Millisecond,
		OnReconnect: func(s transport.AudioSource) {
			reconnected.Store(&s)
		},
	})

	// Initial connect.
	_, err := r.Connect(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := t.Context()

	r.Monitor(ctx)

	// Simulate disconnect.
	r.NotifyDisconnect()

	// Wait for reconnection.
	time.Sleep(50 * time.Millisecond)

	gotPtr := reconnected.Load()
	if gotPtr == nil {
		t.Fatal("expected OnReconnect to be called")
	}
	if *gotPtr != src2 {
		t.Error("expected OnReconnect to be called with src2")
	}

	_ = r.Stop()
}

func TestReconnector_ExponentialBackoff(t *testing.T) {
	var failCount atomic.Int32

	dialer := &failNTimesDialer{
		failTimes: 3,
		source:    &fakeSource{},
		count:     &failCount,
	}

	var reconnected atomic.Bool

	r := NewReconnector(ReconnectorConfig{
		Dialer:     dialer,
		SessionID:  "session-1",
		MaxRetries: 5,
		Backoff:    1 * time.Millisecond,
		MaxBackoff: 10 * time.Millisecond,
		OnReconnect: func(s transport.AudioSource) {
			reconnected.Store(true)
		},
	})

	// Set initial source directly.
	r.mu.Lock()
	r.source = &fakeSource{}
	r.mu.Unlock()

	ctx := t.Context()

	r.Monitor(ctx)
	r.NotifyDisconnect()

	// Wait for retries to complete.
	time.Sleep(200 * time.Millisecond)

	if !reconnected.Load() {
		t.Error("expected successful reconnection after failures")
	}

	attempts := failCount.Load()
	// Should have had 3 failures + 1 success = 4 total attempts.
	if attempts < 4 {
		t.Errorf("expected at least 4 dial attempts, got %d", attempts)
	}

	_ = r.Stop()
}

func TestReconnector_MaxRetriesExhausted(t *testing.T) {
	var dialAttempts atomic.Int32
	dialer := &countingFailDialer{
		err:   errors.New("permanently down"),
		count: &dialAttempts,
	}

	var reconnected atomic.Bool
	r := NewReconnector(ReconnectorConfig{
		Dialer:     dialer,
		SessionID:  "session-1",
		MaxRetries: 2,
		Backoff:    1 * time.Millisecond,
		MaxBackoff: 5 * time.Millisecond,
		OnReconnect: func(s transport.AudioSource) {
			reconnected.Store(true)
		},
	})

	r.mu.Lock()
	r.source = &fakeSource{}
	r.mu.Unlock()

	ctx := t.Context()

	r.Monitor(ctx)
	r.NotifyDisconnect()

	// Wait for retries to exhaust.
	time.Sleep(100 * time.Millisecond)

	if reconnected.Load() {
		t.Error("expected OnReconnect NOT to be called when all retries fail")
	}

	// Dialer should have been called maxRetries times.
	if got := dialAttempts.Load(); got != 2 {
		t.Errorf("expected 2 dial attempts, got %d", got)
	}

	_ = r.Stop()
}

func TestReconnector_Stop(t *testing.T) {
	src := &fakeSource{}
	dialer := &funcDialer{dial: func(_ context.Context) (transport.AudioSource, error) {
		return src, nil
	}}

	r := NewReconnector(ReconnectorConfig{
		Dialer:    dialer,
		SessionID: "session-1",
	})

	_, _ = r.Connect(context.Background())

	err := r.Stop()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.Source() != nil {
		t.Error("expected nil source after Stop")
	}

	if src.closed.Load() != 1 {
		t.Errorf("expected 1 Close call, got %d", src.closed.Load())
	}

	// Double stop should not panic.
	err = r.Stop()
	if err != nil {
		t.Fatalf("unexpected error on double Stop: %v", err)
	}
}

func TestReconnector_NotifyDisconnectNonBlocking(t *testing.T) {
	r := NewReconnector(ReconnectorConfig{
		Dialer: &funcDialer{dial: func(_ context.Context) (transport.AudioSource, error) {
			return &fakeSource{}, nil
		}},
	})

	// Multiple calls should not block.
	r.NotifyDisconnect()
	r.NotifyDisconnect()
	r.NotifyDisconnect()
}

// sequenceDialer returns sources from a list, cycling to the last on overflow.
type sequenceDialer struct {
	mu        sync.Mutex
	sources   []transport.AudioSource
	callCount int
}

func (d *sequenceDialer) Dial(_ context.Context) (transport.AudioSource, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.callCount
	d.callCount++
	if idx < len(d.sources) {
		return d.sources[idx], nil
	}
	return d.sources[len(d.sources)-1], nil
}

// failNTimesDialer fails the first N Dial calls, then succeeds.
type failNTimesDialer struct {
	failTimes int
	source    transport.AudioSource
	count     *atomic.Int32
}

func (d *failNTimesDialer) Dial(_ context.Context) (transport.AudioSource, error) {
	n := d.count.Add(1)
	if int(n) <= d.failTimes {
		return nil, errors.New("dial failed")
	}
	return d.source, nil
}

// countingFailDialer always fails but counts attempts atomically.
type countingFailDialer struct {
	err   error
	count *atomic.Int32
}

func (d *countingFailDialer) Dial(_ context.Context) (transport.AudioSource, error) {
	d.count.Add(1)
	return nil, d.err
}
