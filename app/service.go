// Package app wires the dispatch and tracking authorities into one runnable
// service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/fleetcoord/api/packages"
	"github.com/kilianp07/fleetcoord/api/tracking"
	"github.com/kilianp07/fleetcoord/config"
	"github.com/kilianp07/fleetcoord/core/dispatch"
	coremetrics "github.com/kilianp07/fleetcoord/core/metrics"
	"github.com/kilianp07/fleetcoord/core/store"
	"github.com/kilianp07/fleetcoord/core/track"
	"github.com/kilianp07/fleetcoord/infra/logger"
	"github.com/kilianp07/fleetcoord/infra/metrics"
	"github.com/kilianp07/fleetcoord/infra/mqtt"
	"github.com/kilianp07/fleetcoord/internal/eventbus"
)

// Service orchestrates the matcher, the tracking hub and their transports.
type Service struct {
	Matcher *dispatch.Matcher
	Hub     *track.Hub

	cfg *config.Config
	bus *eventbus.Bus[any]
	cli *mqtt.PahoClient
	log logger.Logger
}

// localCounter backs the hub's delivered-count capability with the
// in-process store.
type localCounter struct {
	store *store.PackageStore
}

func (l localCounter) DeliveredCountFor(_ context.Context, vehicleID string) (int, error) {
	return l.store.DeliveredCountFor(vehicleID), nil
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.MetricsSink
	switch len(sinks) {
	case 0:
		sink = coremetrics.NopSink{}
	case 1:
		sink = sinks[0]
	default:
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New[any]()
	packageStore := store.NewPackageStore()
	matcher := dispatch.NewMatcher(packageStore, bus, sink, logger.New("matcher"))

	var counter track.DeliveredCounter
	if cfg.API.DispatchURL != "" {
		counter = packages.NewClient(cfg.API.DispatchURL)
	} else {
		counter = localCounter{store: packageStore}
	}
	hub := track.NewHub(track.NewTable(), counter, bus, sink, logger.New("hub"))

	cli, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt client: %w", err)
	}

	return &Service{
		Matcher: matcher,
		Hub:     hub,
		cfg:     cfg,
		bus:     bus,
		cli:     cli,
		log:     logg,
	}, nil
}

// Run starts the bridges and HTTP servers and blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	bridge := mqtt.NewDispatchBridge(s.cli, s.Matcher, s.cfg.MQTT)
	if err := bridge.Start(ctx); err != nil {
		return fmt.Errorf("dispatch bridge: %w", err)
	}
	ingest := mqtt.NewLocationIngest(s.cli, s.Hub, s.cfg.MQTT)
	if err := ingest.Start(ctx); err != nil {
		return fmt.Errorf("location ingest: %w", err)
	}

	go s.serve(ctx, "dispatch_api", s.cfg.API.DispatchAddr, packages.NewHandler(s.Matcher))
	go s.serve(ctx, "tracking_api", s.cfg.API.TrackingAddr, tracking.NewHandler(s.Hub))
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	<-ctx.Done()
	return nil
}

func (s *Service) serve(ctx context.Context, name, addr string, handler http.Handler) {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("%s shutdown: %v", name, err)
		}
	}()
	s.log.Infof("%s listening on %s", name, addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Errorf("%s: %v", name, err)
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Matcher.Close()
	s.bus.Close()
	s.cli.Disconnect(250)
	return nil
}
