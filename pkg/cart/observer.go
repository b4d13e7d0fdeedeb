package cart

import (
	"context"
	"sync"

	"github.com/Sternrassler/beauty-storefront/pkg/catalog"
	"github.com/Sternrassler/beauty-storefront/pkg/events"
)

// observer is the mount/notify/unmount plumbing shared by Badge and Page.
type observer struct {
	store   *Store
	refresh func()

	mu       sync.Mutex
	sub      events.Subscription
	onChange func()
}

// mount computes the view and registers for change notifications.
// Mounting twice is a no-op.
func (o *observer) mount() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.sub != nil {
		return nil
	}

	o.refresh()

	sub, err := o.store.Subscribe(func(events.Event) {
		o.refresh()

		o.mu.Lock()
		fn := o.onChange
		o.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
	if err != nil {
		return err
	}
	o.sub = sub
	return nil
}

func (o *observer) setOnChange(fn func()) {
	o.mu.Lock()
	o.onChange = fn
	o.mu.Unlock()
}

func (o *observer) close() {
	o.mu.Lock()
	sub := o.sub
	o.sub = nil
	o.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

// Badge shows the number of items in the cart.
type Badge struct {
	observer

	countMu sync.RWMutex
	count   int
	rev     uint64
}

// NewBadge creates an unmounted badge for store.
func NewBadge(store *Store) *Badge {
	b := &Badge{}
	b.store = store
	b.refresh = func() {
		items, rev := store.snapshot()
		b.countMu.Lock()
		defer b.countMu.Unlock()
		if rev < b.rev {
			return
		}
		b.count, b.rev = ItemCount(items), rev
	}
	return b
}

// Mount reads the current cart and starts following changes.
func (b *Badge) Mount() error { return b.mount() }

// OnChange registers a callback run after every refresh.
func (b *Badge) OnChange(fn func()) { b.setOnChange(fn) }

// Close stops following changes.
func (b *Badge) Close() { b.close() }

// Count returns the rendered item count.
func (b *Badge) Count() int {
	b.countMu.RLock()
	defer b.countMu.RUnlock()
	return b.count
}

// PageView is what the cart page renders.
type PageView struct {
	Items     []LineItem `json:"items"`
	ItemCount int        `json:"item_count"`
	Subtotal  float64    `json:"subtotal"`
}

// Page is the full cart view with its quantity controls.
type Page struct {
	observer

	viewMu sync.RWMutex
	view   PageView
	rev    uint64
}

// NewPage creates an unmounted cart page for store.
func NewPage(store *Store) *Page {
	p := &Page{}
	p.store = store
	p.refresh = func() {
		items, rev := store.snapshot()
		if items == nil {
			items = []LineItem{}
		}
		v := PageView{
			Items:     items,
			ItemCount: ItemCount(items),
			Subtotal:  Subtotal(items),
		}
		p.viewMu.Lock()
		defer p.viewMu.Unlock()
		if rev < p.rev {
			return
		}
		p.view, p.rev = v, rev
	}
	return p
}

// Mount reads the current cart and starts following changes.
func (p *Page) Mount() error { return p.mount() }

// OnChange registers a callback run after every refresh.
func (p *Page) OnChange(fn func()) { p.setOnChange(fn) }

// Close stops following changes.
func (p *Page) Close() { p.close() }

// View returns the rendered page.
func (p *Page) View() PageView {
	p.viewMu.RLock()
	defer p.viewMu.RUnlock()
	v := p.view
	v.Items = append([]LineItem{}, v.Items...)
	return v
}

// The actions below re-render the page before returning, so View reflects
// the action without waiting for the change notification. A view computed
// from an older cart revision never replaces a newer one.

// Add puts one unit of product into the cart.
func (p *Page) Add(ctx context.Context, product catalog.Product) error {
	return p.act(p.store.AddToCart(ctx, product))
}

// SetQuantity sets the quantity of productID; zero or less removes the line.
func (p *Page) SetQuantity(ctx context.Context, productID string, quantity int) error {
	return p.act(p.store.UpdateQuantity(ctx, productID, quantity))
}

// Increment adds one unit of productID.
func (p *Page) Increment(ctx context.Context, productID string) error {
	return p.act(p.store.AdjustQuantity(ctx, productID, 1))
}

// Decrement removes one unit of productID; the line disappears at zero.
func (p *Page) Decrement(ctx context.Context, productID string) error {
	return p.act(p.store.AdjustQuantity(ctx, productID, -1))
}

// Remove deletes the line of productID.
func (p *Page) Remove(ctx context.Context, productID string) error {
	return p.act(p.store.RemoveFromCart(ctx, productID))
}

// Clear empties the cart.
func (p *Page) Clear(ctx context.Context) error {
	return p.act(p.store.ClearCart(ctx))
}

// act re-renders after an action. Persistence failures still changed the
// in-memory cart, so the page is refreshed either way.
func (p *Page) act(err error) error {
	p.refresh()
	return err
}
