package events

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/beauty-storefront/internal/testutil"
	"github.com/rs/zerolog"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	defer hub.Close()

	var a, b atomic.Int32
	if _, err := hub.Subscribe(func(Event) { a.Add(1) }); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if _, err := hub.Subscribe(func(Event) { b.Add(1) }); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := hub.Publish(context.Background(), Event{Kind: KindCartUpdated}); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	waitFor(t, func() bool { return a.Load() == 3 && b.Load() == 3 })
}

func TestHub_DeliveryIsAsynchronous(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	defer hub.Close()

	release := make(chan struct{})
	var got atomic.Int32
	_, err := hub.Subscribe(func(Event) {
		<-release
		got.Add(1)
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		hub.Publish(context.Background(), Event{Kind: KindCartUpdated})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow handler")
	}

	close(release)
	waitFor(t, func() bool { return got.Load() == 1 })
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	defer hub.Close()

	var count atomic.Int32
	sub, err := hub.Subscribe(func(Event) { count.Add(1) })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if hub.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", hub.Len())
	}

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	if hub.Len() != 0 {
		t.Errorf("Len() after Unsubscribe = %d, want 0", hub.Len())
	}

	hub.Publish(context.Background(), Event{Kind: KindCartUpdated})
	time.Sleep(20 * time.Millisecond)
	if count.Load() != 0 {
		t.Errorf("handler called %d times after Unsubscribe", count.Load())
	}
}

func TestHub_Closed(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	if _, err := hub.Subscribe(func(Event) {}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	hub.Close()
	hub.Close()

	if err := hub.Publish(context.Background(), Event{}); err != ErrHubClosed {
		t.Errorf("Publish on closed hub = %v, want ErrHubClosed", err)
	}
	if _, err := hub.Subscribe(func(Event) {}); err != ErrHubClosed {
		t.Errorf("Subscribe on closed hub = %v, want ErrHubClosed", err)
	}
	if hub.Len() != 0 {
		t.Errorf("Len() after Close = %d, want 0", hub.Len())
	}
}

func TestRedisTransport_PublishSubscribe(t *testing.T) {
	client, _ := testutil.NewRedis(t)
	transport := NewRedisTransport(client, "", zerolog.Nop())

	var mu sync.Mutex
	var received []Event
	sub, err := transport.Subscribe(func(evt Event) {
		mu.Lock()
		received = append(received, evt)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Unsubscribe()

	sent := Event{Kind: KindCartUpdated, Key: "cart", Origin: "tab-1", At: time.Now().UTC()}
	if err := transport.Publish(context.Background(), sent); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	})

	mu.Lock()
	got := received[0]
	mu.Unlock()
	if got.Kind != sent.Kind || got.Key != sent.Key || got.Origin != sent.Origin {
		t.Errorf("received %+v, want %+v", got, sent)
	}
	if !got.At.Equal(sent.At) {
		t.Errorf("At = %v, want %v", got.At, sent.At)
	}
}

func TestRedisTransport_Unsubscribe(t *testing.T) {
	client, _ := testutil.NewRedis(t)
	transport := NewRedisTransport(client, "test:channel", zerolog.Nop())

	var count atomic.Int32
	sub, err := transport.Subscribe(func(Event) { count.Add(1) })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	sub.Unsubscribe()
	sub.Unsubscribe()

	if err := transport.Publish(context.Background(), Event{Kind: KindCartUpdated}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if count.Load() != 0 {
		t.Errorf("handler called %d times after Unsubscribe", count.Load())
	}
}

func TestNewRedisTransport_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedisTransport should panic with nil redis client")
		}
	}()
	NewRedisTransport(nil, "", zerolog.Nop())
}
