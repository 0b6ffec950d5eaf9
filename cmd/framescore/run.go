package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/framescore/internal/logger"
	"codeberg.org/mutker/framescore/internal/pid"
	"codeberg.org/mutker/framescore/internal/server"
	"github.com/spf13/cobra"
)

func newRunCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the render loop and score it",
		Long: `Run renders the configured scene at the target frame rate, shows the
HUD once per second and records tick history when enabled.

SIGUSR1 saves a baseline, SIGUSR2 prints a comparison against it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoop(cmd.Context(), app, cmd)
		},
	}
}

func runLoop(ctx context.Context, app *cli, cmd *cobra.Command) error {
	cfg := app.cfg
	log := logger.Default()

	if err := pid.Write(cfg.PIDDir); err != nil {
		return err
	}
	defer func() {
		if err := pid.Remove(cfg.PIDDir); err != nil {
			log.Warn().Err(err).Msg("Failed to remove PID file")
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h, err := newHost(ctx, cfg, cmd.OutOrStdout(), log)
	if err != nil {
		return err
	}
	defer func() {
		if err := h.close(); err != nil {
			log.Error().Err(err).Msg("Failed to shut down cleanly")
		}
	}()

	signals := make(chan os.Signal, 4)
	signal.Notify(signals, syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	serverDone := make(chan struct{})
	if cfg.Server.Enabled {
		srv := server.New(server.Config{Addr: cfg.Server.Addr}, h.registry, h.hud, log)
		go func() {
			defer close(serverDone)
			if err := srv.Run(ctx); err != nil {
				log.Error().Err(err).Msg("HTTP server stopped")
			}
		}()
	} else {
		close(serverDone)
	}

	ticker := time.NewTicker(cfg.FrameInterval())
	defer ticker.Stop()

	err = h.run(ctx, ticker.C, signals)
	cancel()
	<-serverDone
	log.Info().Msg("Exiting...")

	return err
}
