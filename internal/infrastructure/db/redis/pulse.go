package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/civicbeacon/reputation-system/internal/core/ports"
)

// pulseChannel returns the pub/sub channel for one entity's vote pulse.
func pulseChannel(entityID string) string {
	return fmt.Sprintf("civic:pulse:%s", entityID)
}

// PulseBus fans vote/score updates out through per-entity Redis pub/sub
// channels. Strictly one-way: the backend publishes, observers only listen.
type PulseBus struct {
	client *redis.Client
}

func NewPulseBus(client *redis.Client) *PulseBus {
	return &PulseBus{client: client}
}

// Publish sends one pulse event to the entity's channel. No delivery
// guarantee; absent subscribers simply miss the event.
func (b *PulseBus) Publish(ctx context.Context, ev ports.PulseEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("pulse marshal: %w", err)
	}
	return b.client.Publish(ctx, pulseChannel(ev.EntityID), payload).Err()
}

// Subscribe delivers raw pulse payloads for one entity until cancel is called.
func (b *PulseBus) Subscribe(ctx context.Context, entityID string) (<-chan []byte, func(), error) {
	sub := b.client.Subscribe(ctx, pulseChannel(entityID))
	// Force the subscription to be established before returning.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("pulse subscribe: %w", err)
	}

	out := make(chan []byte, 16)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			select {
			case out <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { _ = sub.Close() }
	return out, cancel, nil
}
