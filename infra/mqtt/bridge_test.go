package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kilianp07/fleetcoord/core/dispatch"
	"github.com/kilianp07/fleetcoord/core/model"
	"github.com/kilianp07/fleetcoord/core/store"
	"github.com/kilianp07/fleetcoord/core/track"
)

type published struct {
	topic   string
	payload []byte
}

// fakeClient implements Client in-process for bridge tests.
type fakeClient struct {
	mu       sync.Mutex
	handlers map[string]MessageHandler
	pubCh    chan published
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: make(map[string]MessageHandler), pubCh: make(chan published, 16)}
}

func (f *fakeClient) Publish(topic string, _ byte, _ bool, payload []byte) error {
	f.pubCh <- published{topic: topic, payload: payload}
	return nil
}

func (f *fakeClient) Subscribe(filter string, _ byte, handler MessageHandler) error {
	f.mu.Lock()
	f.handlers[filter] = handler
	f.mu.Unlock()
	return nil
}

func (f *fakeClient) Disconnect(uint) {}

// deliver routes a message to the matching wildcard subscription.
func (f *fakeClient) deliver(topic string, payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for filter, h := range f.handlers {
		if topicMatches(filter, topic) {
			h(topic, payload)
		}
	}
}

func topicMatches(filter, topic string) bool {
	fp := strings.Split(filter, "/")
	tp := strings.Split(topic, "/")
	if len(fp) != len(tp) {
		return false
	}
	for i := range fp {
		if fp[i] != "+" && fp[i] != tp[i] {
			return false
		}
	}
	return true
}

func TestDispatchBridge_NoticeToAssignment(t *testing.T) {
	cli := newFakeClient()
	matcher := dispatch.NewMatcher(store.NewPackageStore(), nil, nil, nil)
	bridge := NewDispatchBridge(cli, matcher, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := bridge.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	id := matcher.CreatePackage("Sender Street 1", "Recipient Ave 9")

	notice, _ := json.Marshal(model.CompletionNotice{VehicleID: "v1"})
	cli.deliver(NoticeTopic("v1"), notice)

	select {
	case msg := <-cli.pubCh:
		if msg.topic != AssignTopic("v1") {
			t.Fatalf("assignment on wrong topic %s", msg.topic)
		}
		var asg model.Assignment
		if err := json.Unmarshal(msg.payload, &asg); err != nil {
			t.Fatalf("decode assignment: %v", err)
		}
		if asg.PackageID != id || asg.VehicleID != "v1" {
			t.Fatalf("unexpected assignment: %#v", asg)
		}
	case <-time.After(time.Second):
		t.Fatal("no assignment published")
	}

	st, err := matcher.PackageStatus(id)
	if err != nil || st != model.StatusInTransit {
		t.Fatalf("expected in_transit got %v %v", st, err)
	}
}

func TestDispatchBridge_DeliveryNotice(t *testing.T) {
	cli := newFakeClient()
	matcher := dispatch.NewMatcher(store.NewPackageStore(), nil, nil, nil)
	bridge := NewDispatchBridge(cli, matcher, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := bridge.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	id := matcher.CreatePackage("a", "b")
	notice, _ := json.Marshal(model.CompletionNotice{VehicleID: "v1"})
	cli.deliver(NoticeTopic("v1"), notice)
	<-cli.pubCh // assignment for id

	done, _ := json.Marshal(model.CompletionNotice{VehicleID: "v1", PackageID: id, Delivered: true})
	cli.deliver(NoticeTopic("v1"), done)

	waitCond(t, func() bool {
		st, err := matcher.PackageStatus(id)
		return err == nil && st == model.StatusDelivered
	})
	if c := matcher.DeliveredCountFor("v1"); c != 1 {
		t.Fatalf("expected delivered count 1 got %d", c)
	}
}

func TestDispatchBridge_OfflineReleasesSession(t *testing.T) {
	cli := newFakeClient()
	matcher := dispatch.NewMatcher(store.NewPackageStore(), nil, nil, nil)
	bridge := NewDispatchBridge(cli, matcher, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := bridge.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	// No package exists: the session blocks after the notice.
	notice, _ := json.Marshal(model.CompletionNotice{VehicleID: "v1"})
	cli.deliver(NoticeTopic("v1"), notice)
	waitCond(t, func() bool { return matcher.SessionCount() == 1 })

	cli.deliver(StatusTopic("v1"), []byte("offline"))
	waitCond(t, func() bool { return matcher.SessionCount() == 0 })

	// The released wait did not consume anything.
	matcher.CreatePackage("a", "b")
	cli.deliver(NoticeTopic("v1"), notice)
	select {
	case msg := <-cli.pubCh:
		if msg.topic != AssignTopic("v1") {
			t.Fatalf("unexpected topic %s", msg.topic)
		}
	case <-time.After(time.Second):
		t.Fatal("no assignment after reconnect")
	}
}

func TestLocationIngest_RecordsAndWakesWatchers(t *testing.T) {
	cli := newFakeClient()
	hub := track.NewHub(track.NewTable(), nil, nil, nil, nil)
	ingest := NewLocationIngest(cli, hub, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := ingest.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	payload, _ := json.Marshal(model.Location{Latitude: 51.1, Longitude: 17.03})
	cli.deliver(LocationTopic("v9"), payload)

	waitCond(t, func() bool {
		loc, ok := hub.Latest("v9")
		return ok && loc.Latitude == 51.1 && loc.VehicleID == "v9"
	})
}

func TestVehicleFromTopic(t *testing.T) {
	if v := VehicleFromTopic("fleet/notice/v1"); v != "v1" {
		t.Fatalf("got %q", v)
	}
	if v := VehicleFromTopic("fleet/notice"); v != "" {
		t.Fatalf("expected empty got %q", v)
	}
}

func waitCond(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
