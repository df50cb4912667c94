package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/MrWong99/glyphoxa/pkg/transport"
)

// Default reconnection parameters.
const (
	defaultMaxRetries = 10
	defaultBackoff    = 1 * time.Second
	defaultMaxBackoff = 30 * time.Second
)

// Dialer establishes a fresh audio transport connection for an input stage.
// Concrete implementations wrap a specific peer protocol (pkg/transport/ws,
// pkg/transport/webrtc).
type Dialer interface {
	Dial(ctx context.Context) (transport.AudioSource, error)
}

// Reconnector monitors a pipeline's input transport connection and
// automatically re-dials on disconnection, preserving in-memory LLM context.
//
// Callers obtain the initial connection via [Reconnector.Connect], then call
// [Reconnector.Monitor] to start a background goroutine that watches for
// disconnections. When a drop is detected (via [Reconnector.NotifyDisconnect]),
// the monitor attempts reconnection with exponential backoff and invokes the
// configured OnReconnect callback on success so the caller can swap the new
// [transport.AudioSource] into its input stage.
//
// All methods are safe for concurrent use.
type Reconnector struct {
	dialer      Dialer
	sessionID   string
	maxRetries  int
	backoff     time.Duration
	maxBackoff  time.Duration
	onReconnect func(transport.AudioSource)

	mu           sync.Mutex
	source       transport.AudioSource
	done         chan struct{}
	stopOnce     sync.Once
	disconnected chan struct{} // signalled when a disconnect is detected
}

// ReconnectorConfig configures a [Reconnector].
type ReconnectorConfig struct {
	// Dialer establishes connections for the monitored session.
	Dialer Dialer

	// SessionID identifies the pipeline session being monitored, for logging.
	SessionID string

	// MaxRetries is the maximum number of reconnection attempts before giving up.
	// Defaults to 10 if zero.
	MaxRetries int

	// Backoff is the initial backoff duration between retries. Doubles each
	// attempt up to MaxBackoff. Defaults to 1s if zero.
	Backoff time.Duration

	// MaxBackoff is the upper limit on backoff duration. Defaults to 30s if zero.
	MaxBackoff time.Duration

	// OnReconnect is called after a successful reconnection with the new
	// source. May be nil.
	OnReconnect func(transport.AudioSource)
}

// NewReconnector creates a new [Reconnector] with the given configuration.
func NewReconnector(cfg ReconnectorConfig) *Reconnector {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	maxBackoff := cfg.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = defaultMaxBackoff
	}
	return &Reconnector{
		dialer:       cfg.Dialer,
		sessionID:    cfg.SessionID,
		maxRetries:   maxRetries,
		backoff:      backoff,
		maxBackoff:   maxBackoff,
		onReconnect:  cfg.OnReconnect,
		done:         make(chan struct{}),
		disconnected: make(chan struct{}, 1),
	}
}

// Connect performs the initial dial for the session.
func (r *Reconnector) Connect(ctx context.Context) (transport.AudioSource, error) {
	src, err := r.dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconnector initial dial: %w", err)
	}

	r.mu.Lock()
	r.source = src
	r.mu.Unlock()

	return src, nil
}

// Monitor starts monitoring the connection in a background goroutine.
// If a disconnection is signalled via [Reconnector.NotifyDisconnect], it
// attempts reconnection with exponential backoff.
func (r *Reconnector) Monitor(ctx context.Context) {
	go r.monitorLoop(ctx)
}

// NotifyDisconnect signals the monitor that the connection has been lost
// and reconnection should be attempted. Safe to call multiple times; only
// the first call per reconnection cycle has effect.
func (r *Reconnector) NotifyDisconnect() {
	select {
	case r.disconnected <- struct{}{}:
	default:
		// Already signalled; avoid blocking.
	}
}

// Stop halts monitoring and closes the current connection, if closeable.
// Safe to call multiple times.
func (r *Reconnector) Stop() error {
	r.stopOnce.Do(func() {
		close(r.done)
	})

	r.mu.Lock()
	src := r.source
	r.source = nil
	r.mu.Unlock()

	if closer, ok := src.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Source returns the current active [transport.AudioSource]. May return nil
// during reconnection.
func (r *Reconnector) Source() transport.AudioSource {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source
}

// monitorLoop waits for disconnect notifications and attempts reconnection.
func (r *Reconnector) monitorLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-r.disconnected:
			r.attemptReconnect(ctx)
		}
	}
}

// attemptReconnect tries to reconnect with exponential backoff.
func (r *Reconnector) attemptReconnect(ctx context.Context) {
	currentBackoff := r.backoff

	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		default:
		}

		slog.Info("attempting reconnection",
			"session_id", r.sessionID,
			"attempt", attempt,
			"max_retries", r.maxRetries,
			"backoff", currentBackoff,
		)

		src, err := r.dialer.Dial(ctx)
		if err == nil {
			r.mu.Lock()
			oldSrc := r.source
			r.source = src
			r.mu.Unlock()

			// Close the old (failed) connection to release its resources.
			if closer, ok := oldSrc.(io.Closer); ok {
				_ = closer.Close()
			}

			slog.Info("reconnection successful",
				"session_id", r.sessionID,
				"attempt", attempt,
			)

			if r.onReconnect != nil {
				r.onReconnect(src)
			}
			return
		}

		slog.Warn("reconnection attempt failed",
			"session_id", r.sessionID,
			"attempt", attempt,
			"error", err,
		)

		// Wait before retrying.
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-time.After(currentBackoff):
		}

		// Exponential backoff.
		currentBackoff *= 2
		if currentBackoff > r.maxBackoff {
			currentBackoff = r.maxBackoff
		}
	}

	slog.Error("reconnection failed after max retries",
		"session_id", r.sessionID,
		"max_retries", r.maxRetries,
	)
}
