package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetcoord/config"
	"github.com/kilianp07/fleetcoord/simulator"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a simulated fleet against a live service",
	RunE:  runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fleet := simulator.NewFleet(cfg.Simulator)
	return fleet.Run(ctx, cfg.MQTT)
}
