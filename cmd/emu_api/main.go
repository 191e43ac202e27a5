// EMU API is responsible for talking to the EMU device and broadcasting what it reports.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NotCoffee418/emu_power/pkg/config"
	"github.com/NotCoffee418/emu_power/pkg/emu"
	"github.com/NotCoffee418/emu_power/pkg/logging"
	"github.com/NotCoffee418/emu_power/pkg/pathing"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "config file (default in the config dir)")
	flag.Parse()

	logger := logging.InitLogger("emu_api", false)

	if err := pathing.EnsureDirs(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create directories")
	}
	if *configPath == "" {
		*configPath = config.EmuConfigPath()
	}
	cfg, err := config.LoadEmuConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load EMU API config")
	}
	if cfg.Debug {
		logger = logging.InitLogger("emu_api", true)
	}

	emu.RegisterMetrics()
	session := emu.NewSession(cfg.ToOptions(&logger))
	if err := session.Start(cfg.SerialDevice); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start EMU session")
	}
	defer session.Stop()

	srv := newServer(session)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", httpServer.Addr).Msg("Starting EMU API")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return srv.broadcast(ctx)
	})
	if cfg.DemandIntervalSeconds > 0 {
		g.Go(func() error {
			return srv.pollDemand(ctx, time.Duration(cfg.DemandIntervalSeconds)*time.Second)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("EMU API stopped with error")
		return
	}
	logger.Info().Msg("EMU API stopped")
}
