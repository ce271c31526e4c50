package simulator

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kilianp07/fleetcoord/core/model"
	"github.com/kilianp07/fleetcoord/infra/logger"
)

// Operator follows one vehicle on the tracking stream and periodically asks
// for its delivered-package count.
type Operator struct {
	VehicleID string
	cfg       Config
	log       logger.Logger
	http      *http.Client
}

// NewOperator creates an operator watching the given vehicle.
func NewOperator(vehicleID string, cfg Config) *Operator {
	return &Operator{
		VehicleID: vehicleID,
		cfg:       cfg,
		log:       logger.New("sim_operator"),
		http:      &http.Client{},
	}
}

// Run consumes the watch stream until ctx is done, logging positions and a
// delivered count every few updates.
func (o *Operator) Run(ctx context.Context) error {
	u := fmt.Sprintf("%s/api/vehicles/watch?vehicle_id=%s", o.cfg.TrackingURL, url.QueryEscape(o.VehicleID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := o.http.Do(req)
	if err != nil {
		return fmt.Errorf("open watch stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("watch stream status %d", resp.StatusCode)
	}

	sc := bufio.NewScanner(resp.Body)
	seen := 0
	for sc.Scan() {
		var loc model.Location
		if err := json.Unmarshal(sc.Bytes(), &loc); err != nil {
			o.log.Warnf("operator: decode location: %v", err)
			continue
		}
		o.log.Debugf("vehicle %s at %.5f,%.5f", loc.VehicleID, loc.Latitude, loc.Longitude)
		seen++
		if seen%10 == 0 {
			o.reportDelivered(ctx)
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := sc.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (o *Operator) reportDelivered(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	u := fmt.Sprintf("%s/api/vehicles/delivered?vehicle_id=%s", o.cfg.TrackingURL, url.QueryEscape(o.VehicleID))
	req, err := http.NewRequestWithContext(cctx, http.MethodGet, u, nil)
	if err != nil {
		return
	}
	resp, err := o.http.Do(req)
	if err != nil {
		o.log.Warnf("operator: delivered count: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		o.log.Warnf("operator: delivered count status %d", resp.StatusCode)
		return
	}
	var out struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return
	}
	o.log.Infof("vehicle %s has delivered %d packages", o.VehicleID, out.Count)
}
