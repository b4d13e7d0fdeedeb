package events

import (
	"context"
	"errors"
	"sync"

	"github.com/Sternrassler/beauty-storefront/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DefaultQueueSize is the per-subscriber buffer of the Hub.
const DefaultQueueSize = 64

// ErrHubClosed is returned when publishing to or subscribing on a closed Hub.
var ErrHubClosed = errors.New("event hub closed")

var (
	eventsDeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_events_delivered_total",
		Help: "Total events delivered to subscribers by transport",
	}, []string{"transport"})

	eventsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_events_dropped_total",
		Help: "Total events dropped because a subscriber queue was full",
	}, []string{"transport"})
)

// Hub fans events out to in-process subscribers.
type Hub struct {
	mu        sync.RWMutex
	subs      map[uint64]*hubSubscriber
	nextID    uint64
	queueSize int
	closed    bool
	logger    zerolog.Logger
}

type hubSubscriber struct {
	hub     *Hub
	id      uint64
	queue   chan Event
	handler Handler
	once    sync.Once
	done    chan struct{}
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		subs:      make(map[uint64]*hubSubscriber),
		queueSize: DefaultQueueSize,
		logger:    logger.With().Str("component", logging.ComponentEventHub).Logger(),
	}
}

// Publish enqueues evt for every subscriber and returns without waiting for
// handlers. A subscriber whose queue is full misses the event.
func (h *Hub) Publish(_ context.Context, evt Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrHubClosed
	}

	for _, sub := range h.subs {
		select {
		case sub.queue <- evt:
		default:
			eventsDroppedTotal.WithLabelValues("local").Inc()
			h.logger.Warn().
				Uint64("subscriber", sub.id).
				Str("kind", string(evt.Kind)).
				Msg("Subscriber queue full, dropping event")
		}
	}
	return nil
}

// Subscribe registers handler and starts its delivery goroutine.
func (h *Hub) Subscribe(handler Handler) (Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	h.nextID++
	sub := &hubSubscriber{
		hub:     h,
		id:      h.nextID,
		queue:   make(chan Event, h.queueSize),
		handler: handler,
		done:    make(chan struct{}),
	}
	h.subs[sub.id] = sub

	go sub.run()

	h.logger.Debug().Uint64("subscriber", sub.id).Int("total", len(h.subs)).Msg("Subscriber registered")
	return sub, nil
}

// Len returns the number of active subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close unsubscribes everyone. Further Publish and Subscribe calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := make([]*hubSubscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

func (s *hubSubscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case evt := <-s.queue:
			// Unsubscribe may race with a queued event.
			select {
			case <-s.done:
				return
			default:
			}
			s.handler(evt)
			eventsDeliveredTotal.WithLabelValues("local").Inc()
		}
	}
}

// Unsubscribe stops delivery. Events still queued are discarded.
func (s *hubSubscriber) Unsubscribe() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
		close(s.done)
	})
}

var _ Transport = (*Hub)(nil)
