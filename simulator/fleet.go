package simulator

import (
	"context"
	"fmt"
	"sync"

	"github.com/kilianp07/fleetcoord/infra/logger"
	"github.com/kilianp07/fleetcoord/infra/mqtt"
)

// Fleet runs couriers, customers and operators together.
type Fleet struct {
	cfg Config
	log logger.Logger
}

// NewFleet creates a fleet runner.
func NewFleet(cfg Config) *Fleet {
	cfg.SetDefaults()
	return &Fleet{cfg: cfg, log: logger.New("sim_fleet")}
}

// Run starts every actor and blocks until ctx is done and all actors have
// stopped. Courier and operator errors are logged, not fatal, so one broken
// actor does not end the whole simulation.
func (f *Fleet) Run(ctx context.Context, mqttCfg mqtt.Config) error {
	var wg sync.WaitGroup

	for i := 0; i < f.cfg.Couriers; i++ {
		id := fmt.Sprintf("veh%04d", i+1)
		courier := NewCourier(id, f.cfg)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := courier.Run(ctx, mqttCfg); err != nil {
				f.log.Errorf("courier %s stopped: %v", id, err)
			}
		}()

		operator := NewOperator(id, f.cfg)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := operator.Run(ctx); err != nil {
				f.log.Errorf("operator for %s stopped: %v", id, err)
			}
		}()
	}

	for i := 0; i < f.cfg.Customers; i++ {
		id := fmt.Sprintf("cust%03d", i+1)
		customer := NewCustomer(id, f.cfg)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := customer.Run(ctx); err != nil && ctx.Err() == nil {
				f.log.Errorf("customer %s stopped: %v", id, err)
			}
		}()
	}

	wg.Wait()
	return nil
}
