package webhooks

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type eventStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	WebhookEventKey(gateway, eventID string) string
}

// IdempotencyGuard claims gateway event ids in redis so retried webhook
// deliveries short-circuit before touching the database. The claim is released
// when processing fails, letting the gateway retry land.
type IdempotencyGuard struct {
	store   eventStore
	ttl     time.Duration
	gateway string
}

func NewIdempotencyGuard(store eventStore, ttl time.Duration, gateway string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("event store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if gateway == "" {
		return nil, errors.New("gateway is required")
	}
	return &IdempotencyGuard{
		store:   store,
		ttl:     ttl,
		gateway: gateway,
	}, nil
}

// CheckAndMark returns true when the event was already claimed.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	key := g.store.WebhookEventKey(g.gateway, eventID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set webhook event key: %w", err)
	}
	return !set, nil
}

// Delete releases a claim after a failed handler run.
func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	key := g.store.WebhookEventKey(g.gateway, eventID)
	return g.store.Del(ctx, key)
}
