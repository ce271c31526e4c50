package simulator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/kilianp07/fleetcoord/api/packages"
	"github.com/kilianp07/fleetcoord/infra/logger"
)

// Customer sends packages through the dispatch API and polls their status
// until delivery.
type Customer struct {
	ID  string
	cfg Config
	cli *packages.Client
	log logger.Logger
}

// NewCustomer creates a customer talking to the configured dispatch URL.
func NewCustomer(id string, cfg Config) *Customer {
	return &Customer{
		ID:  id,
		cfg: cfg,
		cli: packages.NewClient(cfg.DispatchURL),
		log: logger.New("sim_customer"),
	}
}

// Run sends the configured number of packages, waiting for each to be
// delivered before sending the next.
func (c *Customer) Run(ctx context.Context) error {
	for i := 0; i < c.cfg.PackagesPerCustomer; i++ {
		origin := fmt.Sprintf("%s warehouse %d", c.ID, i)
		dest := fmt.Sprintf("drop point %d", rand.IntN(100))
		id, err := c.cli.CreatePackage(ctx, origin, dest)
		if err != nil {
			return fmt.Errorf("create package: %w", err)
		}
		c.log.Infof("customer %s sent package %d", c.ID, id)

		if err := c.awaitDelivery(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (c *Customer) awaitDelivery(ctx context.Context, packageID int64) error {
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			status, err := c.cli.Status(ctx, packageID)
			if err != nil {
				c.log.Warnf("customer %s: status of %d: %v", c.ID, packageID, err)
				continue
			}
			if status == "delivered" {
				c.log.Infof("customer %s: package %d delivered", c.ID, packageID)
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
