// Package events carries change notifications between storefront components.
//
// Two transports implement the same interface:
//
//   - Hub delivers events to subscribers inside one process. Delivery is
//     asynchronous: each subscriber drains its own queue on its own goroutine.
//   - RedisTransport delivers events to every process subscribed to a Redis
//     Pub/Sub channel, including the publisher itself.
//
// Consumers that need both (the cart store) publish to each transport and
// filter remote echoes of their own events by Origin.
package events

import (
	"context"
	"time"
)

// Kind identifies what changed.
type Kind string

const (
	// KindCartUpdated is raised after every cart mutation or reload.
	KindCartUpdated Kind = "cart.updated"
)

// Event is a change notification.
type Event struct {
	Kind   Kind      `json:"kind"`
	Key    string    `json:"key"`
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
}

// Handler consumes events. Handlers run on a transport-owned goroutine.
type Handler func(Event)

// Subscription is returned by Subscribe. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

// Transport publishes events and registers handlers.
type Transport interface {
	Publish(ctx context.Context, evt Event) error
	Subscribe(handler Handler) (Subscription, error)
}
