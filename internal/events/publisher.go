// Package events carries note lifecycle events over a Redis stream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/notegen/notegen/internal/metrics"
	"github.com/notegen/notegen/internal/model"
)

const (
	// StreamKey is the Redis stream for note lifecycle events.
	StreamKey = "stream:note_events"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:note_events:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 250 * time.Millisecond
)

// Payload is the wire format of a note event on the stream.
type Payload struct {
	Type   string `json:"t"`
	NoteID string `json:"nid"`
	UserID string `json:"uid"`
	Cause  string `json:"c,omitempty"`
	At     int64  `json:"at"` // Unix milliseconds
}

// PayloadFromEvent converts a domain event to its wire format.
func PayloadFromEvent(e model.NoteEvent) Payload {
	return Payload{
		Type:   string(e.Type),
		NoteID: e.NoteID,
		UserID: e.UserID,
		Cause:  e.Cause,
		At:     e.At.UnixMilli(),
	}
}

// Event converts the wire format back to a domain event.
func (p Payload) Event(streamID string) model.NoteEvent {
	return model.NoteEvent{
		EventID: streamID,
		Type:    model.NoteEventType(p.Type),
		NoteID:  p.NoteID,
		UserID:  p.UserID,
		Cause:   p.Cause,
		At:      time.UnixMilli(p.At).UTC(),
	}
}

// Publisher appends note events to the Redis stream.
// Asynchronous publishes are tracked so Shutdown can drain them before the
// Redis client is closed.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
	timeout time.Duration

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewPublisher creates a new note event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "events.publisher"),
		metrics: recorder,
		timeout: PublishTimeout,
	}
}

// Publish adds an event to the stream synchronously and returns its stream ID.
func (p *Publisher) Publish(ctx context.Context, event model.NoteEvent) (string, error) {
	data, err := json.Marshal(PayloadFromEvent(event))
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	id, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return id, nil
}

// PublishAsync publishes events without blocking the caller.
// Failures are logged and counted, never returned. After Shutdown the
// events are dropped.
func (p *Publisher) PublishAsync(events ...model.NoteEvent) {
	if len(events) == 0 {
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Warn("publisher closed, dropping note events", "count", len(events))
		for range events {
			p.metrics.IncNoteEventPublished(metrics.StatusDropped)
		}
		return
	}
	p.inflight.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout*time.Duration(len(events)))
		defer cancel()

		for _, event := range events {
			streamID, err := p.Publish(ctx, event)
			if err != nil {
				p.logger.Warn("failed to publish note event",
					"type", event.Type,
					"note_id", event.NoteID,
					"error", err,
				)
				p.metrics.IncNoteEventPublished(metrics.StatusDropped)
				continue
			}

			p.logger.Debug("note event published",
				"type", event.Type,
				"note_id", event.NoteID,
				"stream_id", streamID,
			)
			p.metrics.IncNoteEventPublished(metrics.StatusSuccess)
		}
	}()
}

// Shutdown stops accepting asynchronous publishes and waits for the ones
// in flight.
func (p *Publisher) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("note event publisher drained")
		return nil
	case <-ctx.Done():
		p.logger.Warn("note event publisher shutdown timed out")
		return ctx.Err()
	}
}
