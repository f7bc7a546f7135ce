package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "syncauth/pkg/platform/audit"
)

// Sink persists or forwards a single audit event.
type Sink interface {
	Write(ctx context.Context, event audit.Event) error
}

// Publisher fans audit events out to sinks. In async mode events are queued
// and written from a background goroutine; a full queue drops the event
// rather than blocking the caller.
type Publisher struct {
	sinks   []Sink
	events  chan audit.Event
	wg      sync.WaitGroup
	logger  *slog.Logger
	async   bool
	mu      sync.RWMutex
	closed  bool
	dropped func()
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan audit.Event, size)
			p.async = true
		}
	}
}

// WithPublisherLogger sets a logger for sink error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithDropHook is called whenever an event is dropped because the queue is full.
func WithDropHook(fn func()) PublisherOption {
	return func(p *Publisher) {
		p.dropped = fn
	}
}

func NewPublisher(sinks []Sink, opts ...PublisherOption) *Publisher {
	p := &Publisher{sinks: sinks, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

// Emit stamps and publishes an event. It never returns sink errors; those
// are logged so audit trouble cannot fail an authorization.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if !p.async {
		p.write(ctx, event)
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil
	}
	select {
	case p.events <- event:
	default:
		if p.dropped != nil {
			p.dropped()
		}
		p.logger.Warn("audit queue full, dropping event", "action", event.Action)
	}
	return nil
}

// Close shuts down the async publisher and waits for pending events to drain.
func (p *Publisher) Close() {
	if !p.async {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.events)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		p.write(context.Background(), event)
	}
}

func (p *Publisher) write(ctx context.Context, event audit.Event) {
	for _, sink := range p.sinks {
		if err := sink.Write(ctx, event); err != nil {
			p.logger.Error("failed to write audit event",
				"error", err,
				"action", event.Action,
				"address", event.Address,
			)
		}
	}
}
