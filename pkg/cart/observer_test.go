package cart

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/beauty-storefront/internal/testutil"
	"github.com/Sternrassler/beauty-storefront/pkg/storage"
	"github.com/rs/zerolog"
)

func TestBadge_FollowsCart(t *testing.T) {
	store, _, _ := setupStore(t)
	ctx := context.Background()
	store.AddToCart(ctx, product("P1", 10))

	badge := NewBadge(store)
	if err := badge.Mount(); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	defer badge.Close()

	if badge.Count() != 1 {
		t.Errorf("Count() on mount = %d, want 1", badge.Count())
	}

	var renders atomic.Int32
	badge.OnChange(func() { renders.Add(1) })

	store.AddToCart(ctx, product("P1", 10))
	store.AddToCart(ctx, product("P2", 5))

	waitFor(t, func() bool { return badge.Count() == 3 })
	waitFor(t, func() bool { return renders.Load() >= 1 })
}

func TestBadge_CloseStopsUpdates(t *testing.T) {
	store, _, _ := setupStore(t)
	badge := NewBadge(store)
	if err := badge.Mount(); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if err := badge.Mount(); err != nil {
		t.Fatalf("second Mount failed: %v", err)
	}
	badge.Close()
	badge.Close()

	store.AddToCart(context.Background(), product("P1", 10))
	time.Sleep(20 * time.Millisecond)
	if badge.Count() != 0 {
		t.Errorf("Count() after Close = %d, want 0", badge.Count())
	}
}

func TestPage_ViewAndActions(t *testing.T) {
	store, _, _ := setupStore(t)
	ctx := context.Background()

	page := NewPage(store)
	if err := page.Mount(); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	defer page.Close()

	if v := page.View(); v.ItemCount != 0 || v.Subtotal != 0 || v.Items == nil {
		t.Errorf("empty View() = %+v", v)
	}

	store.AddToCart(ctx, product("P1", 10))
	store.AddToCart(ctx, product("P2", 5))
	waitFor(t, func() bool { return page.View().Subtotal == 15 })

	if err := page.Increment(ctx, "P1"); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if err := page.Increment(ctx, "P1"); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if v := page.View(); v.Subtotal != 35 {
		t.Errorf("Subtotal after Increment = %v, want 35", v.Subtotal)
	}

	if err := page.Remove(ctx, "P2"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if v := page.View(); v.Subtotal != 30 || v.ItemCount != 3 || len(v.Items) != 1 {
		t.Errorf("View() after Remove = %+v, want 1 line, 3 items, subtotal 30", v)
	}

	for i := 0; i < 3; i++ {
		if err := page.Decrement(ctx, "P1"); err != nil {
			t.Fatalf("Decrement failed: %v", err)
		}
	}
	if v := page.View(); len(v.Items) != 0 || v.Items == nil {
		t.Errorf("View() after Decrement = %+v, want empty items", v)
	}

	if err := page.Add(ctx, product("P3", 7.5)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := page.SetQuantity(ctx, "P3", 4); err != nil {
		t.Fatalf("SetQuantity failed: %v", err)
	}
	if v := page.View(); v.ItemCount != 4 || v.Subtotal != 30 {
		t.Errorf("View() after SetQuantity = %+v, want 4 items, subtotal 30", v)
	}

	// Late notifications from earlier mutations must not roll the view back.
	time.Sleep(20 * time.Millisecond)
	if v := page.View(); v.ItemCount != 4 {
		t.Errorf("ItemCount after notifications = %d, want 4", v.ItemCount)
	}
}

func TestPage_ConcurrentIncrements(t *testing.T) {
	store, _, _ := setupStore(t)
	ctx := context.Background()
	store.AddToCart(ctx, product("P1", 2))

	page := NewPage(store)
	if err := page.Mount(); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	defer page.Close()

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := page.Increment(ctx, "P1"); err != nil {
				t.Errorf("Increment failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := store.Quantity("P1"); got != workers+1 {
		t.Errorf("Quantity() = %d, want %d", got, workers+1)
	}
	if v := page.View(); v.ItemCount != workers+1 || v.Subtotal != 42 {
		t.Errorf("View() = %+v, want %d items, subtotal 42", v, workers+1)
	}
}

func TestPage_Clear(t *testing.T) {
	store, mini, _ := setupStore(t)
	ctx := context.Background()
	store.AddToCart(ctx, product("P1", 10))

	page := NewPage(store)
	page.Mount()
	defer page.Close()

	if err := page.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if v := page.View(); v.ItemCount != 0 {
		t.Errorf("ItemCount after Clear = %d, want 0", v.ItemCount)
	}
	if mini.Exists(storage.CartKey) {
		t.Error("cart key should be removed by Clear")
	}
}

func TestPage_CorruptStorageRendersEmpty(t *testing.T) {
	client, mini := testutil.NewRedis(t)
	mini.Set(storage.CartKey, "][")

	store, err := NewStore(context.Background(), storage.NewGateway(client, zerolog.Nop()))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	page := NewPage(store)
	if err := page.Mount(); err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	defer page.Close()

	if v := page.View(); v.ItemCount != 0 || len(v.Items) != 0 {
		t.Errorf("View() = %+v, want empty", v)
	}
}
