package mqtt

import (
	"context"
	"encoding/json"

	"github.com/kilianp07/fleetcoord/core/model"
	"github.com/kilianp07/fleetcoord/core/track"
	"github.com/kilianp07/fleetcoord/infra/logger"
)

// LocationIngest feeds position reports from the location topics into the
// tracking hub. Within one vehicle's stream paho delivers messages in
// arrival order, matching the ordering the hub expects; streams of distinct
// vehicles are independent.
type LocationIngest struct {
	cli Client
	hub *track.Hub
	cfg Config
	log logger.Logger
}

// NewLocationIngest creates an ingest bridge for the given hub.
func NewLocationIngest(cli Client, hub *track.Hub, cfg Config) *LocationIngest {
	return &LocationIngest{cli: cli, hub: hub, cfg: cfg, log: logger.New("location_ingest")}
}

// Start subscribes to the location topic filter.
func (i *LocationIngest) Start(_ context.Context) error {
	return i.cli.Subscribe(LocationTopicFilter, i.cfg.QoSFor("location"), i.onLocation)
}

func (i *LocationIngest) onLocation(topic string, payload []byte) {
	var loc model.Location
	if err := json.Unmarshal(payload, &loc); err != nil {
		i.log.Errorf("failed to decode location on %s: %v", topic, err)
		return
	}
	if loc.VehicleID == "" {
		loc.VehicleID = VehicleFromTopic(topic)
	}
	if loc.VehicleID == "" {
		i.log.Warnf("location without vehicle id on %s", topic)
		return
	}
	i.hub.Record(loc.VehicleID, loc.Latitude, loc.Longitude)
}
