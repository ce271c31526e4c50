package eventbus

import "testing"

func TestBusPublishSubscribe(t *testing.T) {
	bus := New[string]()
	ch, cancel := bus.Subscribe()
	defer cancel()
	bus.Publish("hello")
	if v := <-ch; v != "hello" {
		t.Fatalf("expected hello got %v", v)
	}
}

func TestBusCancelStopsDelivery(t *testing.T) {
	bus := New[int]()
	ch, cancel := bus.Subscribe()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("expected channel closed after cancel")
	}
	// Publishing after cancel must not panic.
	bus.Publish(1)
}

func TestBusClose(t *testing.T) {
	bus := New[int]()
	ch1, cancel1 := bus.Subscribe()
	ch2, _ := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatal("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatal("expected ch2 closed")
	}
	// Cancel after close must not panic or double-close.
	cancel1()
}

func TestBusSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := New[int]()
	_, cancel := bus.Subscribe()
	defer cancel()
	for i := 0; i < 100; i++ {
		bus.Publish(i)
	}
}
