// Package store keeps dashboards, queries and widget layouts in the
// JetStream event log and rebuilds them by replaying it.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/tilegrid/internal/estimate"
	"github.com/mark3labs/tilegrid/internal/grid"
	"github.com/mark3labs/tilegrid/internal/logger"
	"github.com/mark3labs/tilegrid/internal/nats"
	"github.com/mark3labs/tilegrid/internal/widget"
	"github.com/nats-io/nats.go/jetstream"
)

// Lookup errors returned to CLI and MCP callers.
var (
	ErrDashboardNotFound = errors.New("dashboard not found")
	ErrQueryNotFound     = errors.New("query not found")
	ErrWidgetNotFound    = errors.New("widget not found")
)

// Event is one entry of the append-only event log.
type Event struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Dashboard string          `json:"dashboard"` // dashboard ID, or nats.QueriesScope
	Type      string          `json:"type"`      // dashboard, query, widget, param
	Action    string          `json:"action"`    // create, revise, add, resize, content, move, remove, set
	Meta      json.RawMessage `json:"meta,omitempty"`
	Data      string          `json:"data,omitempty"`
}

// Options control how replayed layouts are sized.
type Options struct {
	Columns  int
	Geometry grid.Geometry
	Estimate estimate.Options
}

// DefaultOptions returns the built-in dashboard scale.
func DefaultOptions() Options {
	return Options{
		Columns: widget.DefaultColumns,
		Geometry: grid.Geometry{
			ChromeUnits: grid.DefaultChromePx,
			RowUnits:    grid.DefaultRowPx,
			MinRows:     grid.DefaultMinRows,
		},
		Estimate: estimate.DefaultOptions(),
	}
}

// Store publishes events and loads state from the tilegrid stream.
type Store struct {
	js       jetstream.JetStream
	stream   jetstream.Stream
	opts     Options
	registry *estimate.Registry
}

// NewStore creates a Store on an existing stream.
func NewStore(js jetstream.JetStream, stream jetstream.Stream, opts Options) *Store {
	return &Store{
		js:       js,
		stream:   stream,
		opts:     opts,
		registry: estimate.NewRegistry(opts.Estimate),
	}
}

// Options returns the options the store was created with.
func (s *Store) Options() Options {
	return s.opts
}

// Registry returns the estimator registry used during replay.
func (s *Store) Registry() *estimate.Registry {
	return s.registry
}

// PublishEvent appends event to the log on tilegrid.{dashboard}.{type}.
func (s *Store) PublishEvent(ctx context.Context, event Event) (*jetstream.PubAck, error) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := nats.SubjectForEvent(event.Dashboard, event.Type)
	logger.Debug("Publishing event: dashboard=%s type=%s action=%s", event.Dashboard, event.Type, event.Action)

	ack, err := s.js.Publish(ctx, subject, data)
	if err != nil {
		logger.Error("Failed to publish event to subject %s: %v", subject, err)
		return nil, fmt.Errorf("failed to publish event: %w", err)
	}

	logger.Debug("Event published: seq=%d", ack.Sequence)
	return ack, nil
}

// publish marshals meta and publishes a new event.
func (s *Store) publish(ctx context.Context, dashboard, typ, action string, meta any, data string) error {
	raw, err := marshalMeta(meta)
	if err != nil {
		return err
	}
	_, err = s.PublishEvent(ctx, Event{
		Dashboard: dashboard,
		Type:      typ,
		Action:    action,
		Meta:      raw,
		Data:      data,
	})
	return err
}

// replay feeds every event on subject, oldest first, to apply.
func (s *Store) replay(ctx context.Context, subject string, apply func(Event)) error {
	consumer, err := s.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: subject,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	const batchSize = 1000
	total, malformed := 0, 0
	for {
		msgs, err := consumer.FetchNoWait(batchSize)
		if err != nil {
			break
		}

		count := 0
		for msg := range msgs.Messages() {
			count++
			total++
			var event Event
			if err := json.Unmarshal(msg.Data(), &event); err != nil {
				malformed++
				if meta, mErr := msg.Metadata(); mErr == nil {
					logger.Warn("Skipping malformed event (seq=%d): %v", meta.Sequence.Stream, err)
				}
				_ = msg.Ack()
				continue
			}
			if event.ID == "" {
				if meta, mErr := msg.Metadata(); mErr == nil {
					event.ID = fmt.Sprintf("%d", meta.Sequence.Stream)
				}
			}
			apply(event)
			_ = msg.Ack()
		}

		if count < batchSize {
			break
		}
	}

	if malformed > 0 {
		logger.Warn("Skipped %d malformed events on %s", malformed, subject)
	}
	logger.Debug("Replayed %d events from %s", total, subject)
	return nil
}

func marshalMeta(meta any) (json.RawMessage, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event meta: %w", err)
	}
	return raw, nil
}
