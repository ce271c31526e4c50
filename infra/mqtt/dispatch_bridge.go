package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/kilianp07/fleetcoord/core/dispatch"
	"github.com/kilianp07/fleetcoord/core/model"
	"github.com/kilianp07/fleetcoord/infra/logger"
)

// DispatchBridge exposes the matcher over MQTT. Each vehicle publishes
// completion notices on its notice topic and receives assignments on its
// assign topic; the bridge runs one worker goroutine per vehicle so the
// notice/assignment alternation of the session protocol is preserved.
//
// A vehicle's LWT "offline" payload on its status topic closes the worker,
// which releases any wait blocked inside the matcher without claiming a
// package.
type DispatchBridge struct {
	cli     Client
	matcher *dispatch.Matcher
	cfg     Config
	log     logger.Logger

	mu      sync.Mutex
	workers map[string]*sessionWorker
}

type sessionWorker struct {
	notices chan model.CompletionNotice
	cancel  context.CancelFunc
}

// NewDispatchBridge creates a bridge for the given matcher.
func NewDispatchBridge(cli Client, matcher *dispatch.Matcher, cfg Config) *DispatchBridge {
	return &DispatchBridge{
		cli:     cli,
		matcher: matcher,
		cfg:     cfg,
		log:     logger.New("dispatch_bridge"),
		workers: make(map[string]*sessionWorker),
	}
}

// Start subscribes to the notice and status topics. Workers are stopped when
// ctx is cancelled.
func (b *DispatchBridge) Start(ctx context.Context) error {
	if err := b.cli.Subscribe(NoticeTopicFilter, b.cfg.QoSFor("notice"), b.onNotice(ctx)); err != nil {
		return err
	}
	if err := b.cli.Subscribe(StatusTopicFilter, b.cfg.QoSFor("status"), b.onStatus); err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		b.closeAll()
	}()
	return nil
}

func (b *DispatchBridge) onNotice(ctx context.Context) MessageHandler {
	return func(topic string, payload []byte) {
		var notice model.CompletionNotice
		if err := json.Unmarshal(payload, &notice); err != nil {
			b.log.Errorf("failed to decode notice on %s: %v", topic, err)
			return
		}
		vehicleID := notice.VehicleID
		if vehicleID == "" {
			vehicleID = VehicleFromTopic(topic)
		}
		if vehicleID == "" {
			b.log.Warnf("notice without vehicle id on %s", topic)
			return
		}
		w := b.worker(ctx, vehicleID)
		select {
		case w.notices <- notice:
		default:
			b.log.Warnf("notice queue full for vehicle %s, dropping", vehicleID)
		}
	}
}

func (b *DispatchBridge) onStatus(topic string, payload []byte) {
	if string(payload) != "offline" {
		return
	}
	vehicleID := VehicleFromTopic(topic)
	if vehicleID == "" {
		return
	}
	b.log.Infof("vehicle %s went offline", vehicleID)
	b.stopWorker(vehicleID)
}

// worker returns the session worker for the vehicle, starting one if needed.
func (b *DispatchBridge) worker(ctx context.Context, vehicleID string) *sessionWorker {
	b.mu.Lock()
	defer b.mu.Unlock()
	if w, ok := b.workers[vehicleID]; ok {
		return w
	}
	wctx, cancel := context.WithCancel(ctx)
	w := &sessionWorker{notices: make(chan model.CompletionNotice, 4), cancel: cancel}
	b.workers[vehicleID] = w
	go b.run(wctx, vehicleID, w)
	return w
}

func (b *DispatchBridge) run(ctx context.Context, vehicleID string, w *sessionWorker) {
	sess := b.matcher.OpenSession(vehicleID)
	defer sess.Close()
	defer b.removeWorker(vehicleID, w)

	for {
		var notice model.CompletionNotice
		select {
		case notice = <-w.notices:
		case <-ctx.Done():
			return
		}

		asg, err := sess.Next(ctx, notice)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, dispatch.ErrSessionClosed) {
				return
			}
			b.log.Errorf("session for %s: %v", vehicleID, err)
			return
		}
		payload, err := json.Marshal(asg)
		if err != nil {
			b.log.Errorf("failed to encode assignment for %s: %v", vehicleID, err)
			continue
		}
		if err := b.cli.Publish(AssignTopic(vehicleID), b.cfg.QoSFor("assign"), false, payload); err != nil {
			b.log.Errorf("failed to publish assignment %d to %s: %v", asg.PackageID, vehicleID, err)
		}
	}
}

func (b *DispatchBridge) stopWorker(vehicleID string) {
	b.mu.Lock()
	w, ok := b.workers[vehicleID]
	if ok {
		delete(b.workers, vehicleID)
	}
	b.mu.Unlock()
	if ok {
		w.cancel()
	}
}

func (b *DispatchBridge) removeWorker(vehicleID string, w *sessionWorker) {
	b.mu.Lock()
	if cur, ok := b.workers[vehicleID]; ok && cur == w {
		delete(b.workers, vehicleID)
	}
	b.mu.Unlock()
	w.cancel()
}

func (b *DispatchBridge) closeAll() {
	b.mu.Lock()
	workers := make([]*sessionWorker, 0, len(b.workers))
	for id, w := range b.workers {
		workers = append(workers, w)
		delete(b.workers, id)
	}
	b.mu.Unlock()
	for _, w := range workers {
		w.cancel()
	}
}
