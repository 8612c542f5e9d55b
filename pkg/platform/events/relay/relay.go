// Package relay drains the event outbox into a message broker.
//
// Delivery is at-least-once: rows are marked published in the same transaction
// that claimed them, after the sink acknowledged the batch. A crash between the
// acknowledgement and the commit redelivers the batch, so consumers dedupe on
// the event id carried in every payload.
package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"provenance/pkg/platform/events/outbox"
	"provenance/pkg/platform/tx"
)

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Source yields undelivered outbox rows.
type Source interface {
	ClaimPending(ctx context.Context, limit int) ([]outbox.Record, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Message is one broker record.
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Sink publishes a batch synchronously; a nil error means every message was acknowledged.
type Sink interface {
	Publish(ctx context.Context, messages []Message) error
}

// Relay polls the outbox on an interval.
type Relay struct {
	source    Source
	sink      Sink
	runner    tx.Runner
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Relay) {
		r.now = now
	}
}

func New(source Source, sink Sink, runner tx.Runner, opts ...Option) *Relay {
	r := &Relay{
		source:    source,
		sink:      sink,
		runner:    runner,
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drains the outbox until ctx is cancelled. Sink failures are logged and
// retried on the next tick; they never stop the loop.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for {
				n, err := r.Drain(ctx)
				if err != nil {
					r.logger.WarnContext(ctx, "outbox relay batch failed", "error", err)
					break
				}
				if n < r.batchSize {
					break
				}
			}
		}
	}
}

// Drain publishes one batch and returns how many rows it delivered.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	delivered := 0
	err := r.runner.RunInTx(ctx, func(txCtx context.Context) error {
		records, err := r.source.ClaimPending(txCtx, r.batchSize)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		messages := make([]Message, len(records))
		ids := make([]uuid.UUID, len(records))
		for i, rec := range records {
			messages[i] = Message{
				Key:   []byte(rec.Source),
				Value: rec.Payload,
				Headers: map[string]string{
					"event_name": rec.EventName,
					"event_id":   rec.ID.String(),
				},
			}
			ids[i] = rec.ID
		}

		if err := r.sink.Publish(txCtx, messages); err != nil {
			return err
		}
		if err := r.source.MarkPublished(txCtx, ids, r.now()); err != nil {
			return err
		}
		delivered = len(records)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if delivered > 0 {
		r.logger.DebugContext(ctx, "outbox batch relayed", "count", delivered)
	}
	return delivered, nil
}
