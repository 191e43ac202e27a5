// Responsible for storing the readings broadcast by emu_api.
// Depends on the EMU API being online.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NotCoffee418/emu_power/pkg/aggregator"
	"github.com/NotCoffee418/emu_power/pkg/config"
	"github.com/NotCoffee418/emu_power/pkg/interpreter"
	"github.com/NotCoffee418/emu_power/pkg/logging"
	"github.com/NotCoffee418/emu_power/pkg/pathing"
	"github.com/NotCoffee418/emu_power/pkg/readingdb"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := logging.InitLogger("emu_collector", false)

	if err := pathing.EnsureDirs(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create directories")
	}
	cfg, err := config.LoadCollectorConfig(config.CollectorConfigPath())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load collector config")
	}
	if err := readingdb.InitializeDatabase(pathing.GetReadingDbPath()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer readingdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		interpreter.StartListener(ctx, interpreter.ListenerURL(cfg.ApiHost, cfg.TLSEnabled), handleEntityUpdate)
		// Listener gave up or was interrupted, take the aggregator down with it
		stop()
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				// Errors are logged by the aggregator and retried next hour
				_ = aggregator.AggregateAndCleanup(now)
			}
		}
	})

	_ = g.Wait()
	logger.Info().Msg("Collector stopped")
}
