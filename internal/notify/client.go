// Package notify broadcasts committed tracker snapshots over Redis Pub/Sub.
//
// Delivery follows Redis Pub/Sub semantics: subscribers connected at publish
// time receive the full snapshot; nothing is buffered for absent subscribers,
// and two racing commits may arrive in either order. Each snapshot carries its
// version so consumers can drop older ones.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/agenthands/tally/internal/core/model"
)

// Client publishes and subscribes to one tracker event channel.
// It is safe for concurrent use.
type Client struct {
	rdb     *redis.Client
	channel string
}

// NewClient returns a client for channel. channel must not be empty.
func NewClient(redisOpts *redis.Options, channel string) (*Client, error) {
	if channel == "" {
		return nil, fmt.Errorf("channel name cannot be empty")
	}

	return &Client{
		rdb:     redis.NewClient(redisOpts),
		channel: channel,
	}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Publish sends the full snapshot as JSON.
func (c *Client) Publish(ctx context.Context, snap *model.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for event: %w", err)
	}

	if err := c.rdb.Publish(ctx, c.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish snapshot event: %w", err)
	}
	return nil
}

// Subscription delivers snapshots until Close is called or its context ends.
type Subscription struct {
	events <-chan *model.Snapshot
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events is closed when the subscription ends.
func (s *Subscription) Events() <-chan *model.Snapshot {
	return s.events
}

// Errors carries undecodable messages; the subscription keeps running after them.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close is safe to call more than once.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe returns once Redis has confirmed the subscription.
func (c *Client) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, c.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", c.channel, err)
	}

	eventsChan := make(chan *model.Snapshot, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var snap model.Snapshot
				if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal snapshot event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &snap:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}
