package track

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kilianp07/fleetcoord/core/model"
	"github.com/kilianp07/fleetcoord/internal/eventbus"
)

func newTestHub(counts DeliveredCounter) *Hub {
	return NewHub(NewTable(), counts, eventbus.New[any](), nil, nil)
}

func recv(t *testing.T, ch <-chan model.Location) model.Location {
	t.Helper()
	select {
	case loc, ok := <-ch:
		if !ok {
			t.Fatal("stream closed unexpectedly")
		}
		return loc
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for location")
	}
	return model.Location{}
}

func TestHub_CatchUpDelivery(t *testing.T) {
	h := newTestHub(nil)
	h.Record("v1", 51.1079, 17.0385)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := h.Watch(ctx, "v1")

	loc := recv(t, ch)
	if loc.Latitude != 51.1079 || loc.Longitude != 17.0385 {
		t.Fatalf("unexpected catch-up location: %#v", loc)
	}
}

func TestHub_WatcherSeesNewUpdates(t *testing.T) {
	h := newTestHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := h.Watch(ctx, "v1")

	h.Record("v1", 50.0, 19.0)
	loc := recv(t, ch)
	if loc.Latitude != 50.0 {
		t.Fatalf("unexpected location: %#v", loc)
	}

	h.Record("v1", 50.5, 19.5)
	loc = recv(t, ch)
	if loc.Latitude != 50.5 {
		t.Fatalf("unexpected location: %#v", loc)
	}
}

func TestHub_CoalescingUnderBackpressure(t *testing.T) {
	h := newTestHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := h.Watch(ctx, "v1")

	// Burst while the consumer is not reading. The watcher can hold at most
	// one in-flight value, so it observes at most two elements and the final
	// one must be the last of the burst.
	const burst = 10
	for i := 1; i <= burst; i++ {
		h.Record("v1", float64(i), 0)
	}
	time.Sleep(50 * time.Millisecond)

	var got []model.Location
	for {
		loc := recv(t, ch)
		got = append(got, loc)
		if loc.Latitude == burst {
			break
		}
		if len(got) > 2 {
			t.Fatalf("burst not coalesced, received %d elements", len(got))
		}
	}
	if len(got) > 2 {
		t.Fatalf("expected at most 2 elements for the burst, got %d", len(got))
	}
}

func TestHub_CancellationUnblocksPromptly(t *testing.T) {
	h := newTestHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	ch := h.Watch(ctx, "v1")

	done := make(chan struct{})
	go func() {
		// The watcher is blocked: no location exists yet.
		for range ch {
			t.Error("received element after cancellation path started")
		}
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cancellation did not terminate the stream")
	}
	waitForWatchers(t, h, 0)
}

func TestHub_IndependentWatchers(t *testing.T) {
	h := newTestHub(nil)
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()

	ch1 := h.Watch(ctx1, "v1")
	ch2 := h.Watch(ctx2, "v1")

	h.Record("v1", 1, 1)
	if loc := recv(t, ch1); loc.Latitude != 1 {
		t.Fatalf("watcher 1: %#v", loc)
	}
	if loc := recv(t, ch2); loc.Latitude != 1 {
		t.Fatalf("watcher 2: %#v", loc)
	}

	// Cancelling one watcher must not affect the other, nor the writes.
	cancel1()
	waitForWatchers(t, h, 1)

	h.Record("v1", 2, 2)
	if loc := recv(t, ch2); loc.Latitude != 2 {
		t.Fatalf("watcher 2 after cancel: %#v", loc)
	}
}

func TestHub_StateReclaimedAfterLastWatcher(t *testing.T) {
	h := newTestHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	ch := h.Watch(ctx, "v1")
	h.Record("v1", 1, 1)
	recv(t, ch)
	cancel()
	waitForWatchers(t, h, 0)

	h.mu.Lock()
	_, ok := h.states["v1"]
	h.mu.Unlock()
	if ok {
		t.Fatal("watch state not reclaimed")
	}

	// The last-known location survives reclamation for future catch-ups.
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	if loc := recv(t, h.Watch(ctx2, "v1")); loc.Latitude != 1 {
		t.Fatalf("missing catch-up after reclamation: %#v", loc)
	}
}

type fakeCounter struct {
	n   int
	err error
}

func (f fakeCounter) DeliveredCountFor(context.Context, string) (int, error) {
	return f.n, f.err
}

func TestHub_DeliveredCountDelegates(t *testing.T) {
	h := newTestHub(fakeCounter{n: 3})
	n, err := h.DeliveredCountFor(context.Background(), "v1")
	if err != nil || n != 3 {
		t.Fatalf("expected 3 got %d %v", n, err)
	}
}

func TestHub_DeliveredCountUnavailable(t *testing.T) {
	h := newTestHub(fakeCounter{err: errors.New("connection refused")})
	if _, err := h.DeliveredCountFor(context.Background(), "v1"); !errors.Is(err, ErrCountsUnavailable) {
		t.Fatalf("expected ErrCountsUnavailable got %v", err)
	}

	h = newTestHub(nil)
	if _, err := h.DeliveredCountFor(context.Background(), "v1"); !errors.Is(err, ErrCountsUnavailable) {
		t.Fatalf("expected ErrCountsUnavailable without counter, got %v", err)
	}
}

func waitForWatchers(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if h.WatcherCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("watcher count never reached %d (now %d)", want, h.WatcherCount())
}
