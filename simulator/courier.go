// Package simulator runs a synthetic fleet against a live deployment:
// couriers drive and deliver over MQTT, customers send packages over HTTP
// and operators follow vehicles on the tracking stream.
package simulator

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/fleetcoord/core/model"
	"github.com/kilianp07/fleetcoord/infra/logger"
	"github.com/kilianp07/fleetcoord/infra/mqtt"
)

// Courier is a simulated delivery vehicle. It reports positions while
// driving and alternates completion notices with assignments on its session
// topics.
type Courier struct {
	ID  string
	cfg Config
	log logger.Logger

	cli      mqtt.Client
	mqttCfg  mqtt.Config
	assignCh chan model.Assignment
	delay    distuv.Exponential

	lat, lon float64
}

// NewCourier creates a courier anchored at the configured origin.
func NewCourier(id string, cfg Config) *Courier {
	return &Courier{
		ID:       id,
		cfg:      cfg,
		log:      logger.New("sim_courier"),
		assignCh: make(chan model.Assignment, 1),
		delay:    distuv.Exponential{Rate: 1 / cfg.MeanDeliverySeconds},
		lat:      cfg.OriginLat,
		lon:      cfg.OriginLon,
	}
}

// Run connects to the broker and works deliveries until ctx is done.
func (c *Courier) Run(ctx context.Context, mqttCfg mqtt.Config) error {
	mqttCfg.ClientID = "sim-courier-" + c.ID + "-" + uuid.NewString()[:8]
	mqttCfg.LWTTopic = mqtt.StatusTopic(c.ID)
	mqttCfg.LWTPayload = "offline"
	cli, err := mqtt.Connect(mqttCfg)
	if err != nil {
		return err
	}
	c.cli = cli
	c.mqttCfg = mqttCfg
	defer cli.Disconnect(250)

	if err := cli.Subscribe(mqtt.AssignTopic(c.ID), mqttCfg.QoSFor("assign"), c.onAssignment); err != nil {
		return err
	}
	if err := cli.Publish(mqtt.StatusTopic(c.ID), mqttCfg.QoSFor("status"), false, []byte("online")); err != nil {
		return err
	}

	// First notice carries no completion and just asks for work.
	if err := c.sendNotice(model.CompletionNotice{VehicleID: c.ID}); err != nil {
		return err
	}

	for {
		select {
		case asg := <-c.assignCh:
			c.log.Infof("courier %s picked up package %d", c.ID, asg.PackageID)
			if err := c.drive(ctx); err != nil {
				return err
			}
			done := model.CompletionNotice{VehicleID: c.ID, PackageID: asg.PackageID, Delivered: true}
			if err := c.sendNotice(done); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Courier) onAssignment(topic string, payload []byte) {
	var asg model.Assignment
	if err := json.Unmarshal(payload, &asg); err != nil {
		c.log.Errorf("courier %s: decode assignment on %s: %v", c.ID, topic, err)
		return
	}
	select {
	case c.assignCh <- asg:
	default:
		c.log.Warnf("courier %s: assignment %d dropped, still driving", c.ID, asg.PackageID)
	}
}

// drive random-walks toward the destination for an exponentially distributed
// travel time, reporting GPS positions at the configured interval.
func (c *Courier) drive(ctx context.Context) error {
	travel := time.Duration(c.delay.Rand() * float64(time.Second))
	deadline := time.Now().Add(travel)

	tick := time.NewTicker(time.Duration(c.cfg.GPSIntervalMS) * time.Millisecond)
	defer tick.Stop()
	for time.Now().Before(deadline) {
		select {
		case <-tick.C:
			c.lat += (rand.Float64() - 0.5) * 0.001
			c.lon += (rand.Float64() - 0.5) * 0.001
			if err := c.report(); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (c *Courier) report() error {
	loc := model.Location{VehicleID: c.ID, Latitude: c.lat, Longitude: c.lon, Time: time.Now()}
	payload, err := json.Marshal(loc)
	if err != nil {
		return err
	}
	return c.cli.Publish(mqtt.LocationTopic(c.ID), c.mqttCfg.QoSFor("location"), false, payload)
}

func (c *Courier) sendNotice(n model.CompletionNotice) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return c.cli.Publish(mqtt.NoticeTopic(c.ID), c.mqttCfg.QoSFor("notice"), false, payload)
}
