package platform

import (
	"context"
	"encoding/json"
	"fmt"

	"wall/internal/observability"

	"github.com/redis/go-redis/v9"
)

// ChangeType classifies a row change on a watched table.
type ChangeType string

// Change types delivered on the stream.
const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// ChangeEvent is delivered whenever a watched table's rows change.
type ChangeEvent struct {
	Table string     `json:"table"`
	Type  ChangeType `json:"type"`
	RowID uint       `json:"row_id,omitempty"`
}

// Changes is the client for the platform's change-notification stream,
// carried over Redis pub/sub channels keyed by table name.
type Changes struct {
	rdb *redis.Client
}

// NewChanges creates a change-stream client. A nil Redis client degrades every
// operation to a no-op.
func NewChanges(rdb *redis.Client) *Changes {
	return &Changes{rdb: rdb}
}

func channelFor(table string) string {
	return "changes:" + table
}

// Publish reports a row change to every subscriber of the event's table.
func (c *Changes) Publish(ctx context.Context, ev ChangeEvent) error {
	if c.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	return c.rdb.Publish(ctx, channelFor(ev.Table), payload).Err()
}

// Subscription is one live change-notification subscription. Close it when the
// consuming view is torn down; a leaked subscription is a leaked connection.
type Subscription struct {
	sub    *redis.PubSub
	events chan ChangeEvent
	cancel context.CancelFunc
}

// Events returns the stream of change events. The channel is closed by Close.
func (s *Subscription) Events() <-chan ChangeEvent {
	return s.events
}

// Close tears down the subscription and its delivery goroutine.
func (s *Subscription) Close() error {
	s.cancel()
	return s.sub.Close()
}

// Subscribe opens a subscription for all change events on the given table.
func (c *Changes) Subscribe(ctx context.Context, table string) (*Subscription, error) {
	if c.rdb == nil {
		return nil, fmt.Errorf("change stream unavailable")
	}

	sub := c.rdb.Subscribe(ctx, channelFor(table))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe to %s changes: %w", table, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		sub:    sub,
		events: make(chan ChangeEvent, 64),
		cancel: cancel,
	}

	ch := sub.Channel()
	go func() {
		defer close(s.events)
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					observability.Logger.Warn("dropping malformed change event",
						"channel", msg.Channel, "error", err)
					continue
				}
				select {
				case s.events <- ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return s, nil
}
