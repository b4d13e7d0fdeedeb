package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/beauty-storefront/pkg/catalog"
	"github.com/Sternrassler/beauty-storefront/pkg/events"
	"github.com/Sternrassler/beauty-storefront/pkg/logging"
	"github.com/Sternrassler/beauty-storefront/pkg/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrStoreClosed is returned by mutations after Close.
var ErrStoreClosed = errors.New("cart store closed")

// Store owns the cart of one storefront process.
type Store struct {
	mu     sync.Mutex
	gw     *storage.Gateway
	items  []LineItem
	rev    uint64
	closed bool

	hub      *events.Hub
	ownedHub bool

	remote    events.Transport
	remoteSub events.Subscription

	origin string
	logger zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by the store.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithHub shares an existing hub for local notifications. The caller keeps
// ownership and closes it.
func WithHub(hub *events.Hub) Option {
	return func(s *Store) {
		s.hub = hub
	}
}

// WithRemote connects the store to other processes sharing the same storage.
func WithRemote(transport events.Transport) Option {
	return func(s *Store) {
		s.remote = transport
	}
}

// NewStore loads the persisted cart and starts listening for remote changes.
// A missing or unreadable cart starts empty.
func NewStore(ctx context.Context, gw *storage.Gateway, opts ...Option) (*Store, error) {
	if gw == nil {
		panic("storage gateway cannot be nil")
	}

	s := &Store{
		gw:     gw,
		origin: uuid.NewString(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	base := s.logger
	s.logger = base.With().Str("component", logging.ComponentCart).Str("origin", s.origin).Logger()

	if s.hub == nil {
		s.hub = events.NewHub(base)
		s.ownedHub = true
	}

	s.items = s.load(ctx)
	CartItems.Set(float64(ItemCount(s.items)))

	if s.remote != nil {
		sub, err := s.remote.Subscribe(s.onRemote)
		if err != nil {
			s.closeHub()
			return nil, fmt.Errorf("subscribe to cart changes: %w", err)
		}
		s.remoteSub = sub
	}

	s.logger.Debug().Int("items", len(s.items)).Msg("Cart loaded")
	return s, nil
}

// Origin identifies this store on remote events.
func (s *Store) Origin() string {
	return s.origin
}

// AddToCart adds one unit of p. An existing line keeps its stored price and
// display fields and has its quantity incremented.
func (s *Store) AddToCart(ctx context.Context, p catalog.Product) error {
	if p.ProductID == "" {
		return fmt.Errorf("add to cart: product id is required")
	}

	return s.mutate(ctx, "add", func(items []LineItem) ([]LineItem, bool) {
		for i := range items {
			if items[i].ProductID == p.ProductID {
				items[i].Quantity++
				return items, true
			}
		}
		return append(items, NewLineItem(p)), true
	})
}

// RemoveFromCart deletes the line of productID. Removing an absent product is
// not an error; the cart is still persisted and observers notified.
func (s *Store) RemoveFromCart(ctx context.Context, productID string) error {
	return s.mutate(ctx, "remove", func(items []LineItem) ([]LineItem, bool) {
		out := items[:0]
		for _, it := range items {
			if it.ProductID != productID {
				out = append(out, it)
			}
		}
		return out, true
	})
}

// UpdateQuantity sets the quantity of productID. Negative values are clamped
// to zero and a zero quantity removes the line. Unknown products are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	quantity = max(quantity, 0)

	return s.mutate(ctx, "update", func(items []LineItem) ([]LineItem, bool) {
		for i := range items {
			if items[i].ProductID != productID {
				continue
			}
			if quantity == 0 {
				return append(items[:i], items[i+1:]...), true
			}
			items[i].Quantity = quantity
			return items, true
		}
		return items, false
	})
}

// AdjustQuantity changes the quantity of productID by delta in one step.
// Results below one remove the line. Unknown products are ignored.
func (s *Store) AdjustQuantity(ctx context.Context, productID string, delta int) error {
	return s.mutate(ctx, "adjust", func(items []LineItem) ([]LineItem, bool) {
		for i := range items {
			if items[i].ProductID != productID {
				continue
			}
			quantity := max(items[i].Quantity+delta, 0)
			if quantity == 0 {
				return append(items[:i], items[i+1:]...), true
			}
			items[i].Quantity = quantity
			return items, true
		}
		return items, false
	})
}

// ClearCart empties the cart and removes the persisted key.
func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, "clear", func([]LineItem) ([]LineItem, bool) {
		return nil, true
	})
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LineItem(nil), s.items...)
}

// ItemCount returns the sum of quantities.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ItemCount(s.items)
}

// Subtotal returns the sum of line totals.
func (s *Store) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Subtotal(s.items)
}

// snapshot returns a copy of the items with the revision they belong to.
// Revisions grow with every mutation and reload.
func (s *Store) snapshot() ([]LineItem, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LineItem(nil), s.items...), s.rev
}

// Quantity returns the quantity of productID, or 0.
func (s *Store) Quantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

// Reload replaces the in-memory cart with the persisted one and notifies
// local observers.
func (s *Store) Reload(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.items = s.load(ctx)
	s.rev++
	count := ItemCount(s.items)
	s.mu.Unlock()

	CartReloads.Inc()
	CartItems.Set(float64(count))
	s.notifyLocal(ctx)
}

// Subscribe registers handler for cart change notifications.
func (s *Store) Subscribe(handler events.Handler) (events.Subscription, error) {
	return s.hub.Subscribe(handler)
}

// Close stops remote listening and releases an owned hub.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	sub := s.remoteSub
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	s.closeHub()
}

func (s *Store) closeHub() {
	if s.ownedHub {
		s.hub.Close()
	}
}

// mutate applies fn to a copy of the items under the lock, persists the
// result and notifies. fn reports whether anything changed.
func (s *Store) mutate(ctx context.Context, op string, fn func([]LineItem) ([]LineItem, bool)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}

	items, changed := fn(append([]LineItem(nil), s.items...))
	if !changed {
		s.mu.Unlock()
		return nil
	}
	s.items = items
	s.rev++

	var persistErr error
	if op == "clear" {
		persistErr = s.gw.Remove(ctx, storage.CartKey)
	} else {
		persistErr = s.gw.Set(ctx, storage.CartKey, nonNil(items))
	}
	count := ItemCount(items)
	s.mu.Unlock()

	CartMutations.WithLabelValues(op).Inc()
	CartItems.Set(float64(count))

	if persistErr != nil {
		s.logger.Error().Err(persistErr).Str("operation", op).Msg("Failed to persist cart")
	} else {
		s.logger.Debug().Str("operation", op).Int("item_count", count).Msg("Cart updated")
	}

	s.notifyLocal(ctx)
	s.notifyRemote(ctx)

	if persistErr != nil {
		return fmt.Errorf("persist cart (%s): %w", op, persistErr)
	}
	return nil
}

func (s *Store) load(ctx context.Context) []LineItem {
	items, ok := storage.Get[[]LineItem](ctx, s.gw, storage.CartKey)
	if !ok {
		return nil
	}
	return sanitize(items)
}

func (s *Store) event() events.Event {
	return events.Event{
		Kind:   events.KindCartUpdated,
		Key:    storage.CartKey,
		Origin: s.origin,
		At:     time.Now().UTC(),
	}
}

func (s *Store) notifyLocal(ctx context.Context) {
	if err := s.hub.Publish(ctx, s.event()); err != nil && !errors.Is(err, events.ErrHubClosed) {
		s.logger.Warn().Err(err).Msg("Local cart notification failed")
	}
}

func (s *Store) notifyRemote(ctx context.Context) {
	if s.remote == nil {
		return
	}
	if err := s.remote.Publish(ctx, s.event()); err != nil {
		s.logger.Warn().Err(err).Msg("Remote cart notification failed")
	}
}

// onRemote handles change events from other processes. Events from this store
// and for other keys are ignored.
func (s *Store) onRemote(evt events.Event) {
	if evt.Origin == s.origin || evt.Key != storage.CartKey {
		return
	}
	s.logger.Debug().Str("from", evt.Origin).Msg("Cart changed elsewhere, reloading")
	s.Reload(context.Background())
}

// nonNil keeps an empty cart serialized as [] rather than null.
func nonNil(items []LineItem) []LineItem {
	if items == nil {
		return []LineItem{}
	}
	return items
}
