// Package audit records what happened to identities and applications.
//
// Domain services call Publisher.Emit, which enriches the event from the
// request context and enqueues it without blocking the request. A single
// background loop (Run) drains the queue in batches into a Sink: the
// in-memory store for tests and single-node runs, or Kafka in deployment.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"kycflow/pkg/requestcontext"
)

// Sink persists a batch of events. Implementations must be safe for use by a
// single writer goroutine.
type Sink interface {
	Append(ctx context.Context, events ...Event) error
}

// Emitter is the narrow interface domain services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// Publisher buffers events and flushes them to a Sink.
type Publisher struct {
	sink    Sink
	logger  *slog.Logger
	metrics *Metrics

	queue         chan Event
	batchSize     int
	flushInterval time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithBuffer sets the queue capacity.
func WithBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.queue = make(chan Event, n)
		}
	}
}

// WithBatch sets the flush batch size and the maximum time an event waits.
func WithBatch(size int, interval time.Duration) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.batchSize = size
		}
		if interval > 0 {
			p.flushInterval = interval
		}
	}
}

// NewPublisher creates a publisher; call Run to start flushing.
func NewPublisher(sink Sink, opts ...Option) *Publisher {
	p := &Publisher{
		sink:          sink,
		logger:        slog.Default(),
		queue:         make(chan Event, 1024),
		batchSize:     100,
		flushInterval: time.Second,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit enriches and enqueues the event. When the queue is full the event is
// dropped and counted; auditing never fails the business operation.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = CategoryOf(event.Action)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}

	select {
	case <-p.done:
		p.drop(ctx, event, "publisher closed")
		return
	default:
	}

	select {
	case p.queue <- event:
		if p.metrics != nil {
			p.metrics.EventsEmitted.WithLabelValues(string(event.Category)).Inc()
		}
	default:
		p.drop(ctx, event, "queue full")
	}
}

func (p *Publisher) drop(ctx context.Context, event Event, why string) {
	if p.metrics != nil {
		p.metrics.EventsDropped.Inc()
	}
	p.logger.WarnContext(ctx, "audit event dropped",
		"reason", why,
		"action", event.Action,
		"event_id", event.ID,
	)
}

// Run flushes batches until ctx is cancelled or Close is called, then drains
// whatever is still queued.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, p.batchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		p.write(ctx, batch)
		batch = batch[:0]
	}

	for {
		select {
		case event := <-p.queue:
			batch = append(batch, event)
			if len(batch) >= p.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			p.drain(&batch)
			flush(context.WithoutCancel(ctx))
			return nil
		case <-p.done:
			p.drain(&batch)
			flush(context.WithoutCancel(ctx))
			return nil
		}
	}
}

func (p *Publisher) drain(batch *[]Event) {
	for {
		select {
		case event := <-p.queue:
			*batch = append(*batch, event)
		default:
			return
		}
	}
}

func (p *Publisher) write(ctx context.Context, batch []Event) {
	start := time.Now()
	err := p.sink.Append(ctx, batch...)
	if p.metrics != nil {
		p.metrics.PersistDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if p.metrics != nil {
			p.metrics.PersistFailures.Add(float64(len(batch)))
		}
		p.logger.ErrorContext(ctx, "audit batch persistence failed",
			"events", len(batch),
			"error", err,
		)
	}
}

// Close stops Run after it drains the queue. Safe to call more than once.
func (p *Publisher) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}
