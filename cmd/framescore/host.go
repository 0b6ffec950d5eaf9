package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"codeberg.org/mutker/framescore/internal/config"
	"codeberg.org/mutker/framescore/internal/errors"
	"codeberg.org/mutker/framescore/internal/gpu"
	"codeberg.org/mutker/framescore/internal/logger"
	"codeberg.org/mutker/framescore/internal/metrics"
	"codeberg.org/mutker/framescore/internal/overlay"
	"codeberg.org/mutker/framescore/internal/scene"
	"codeberg.org/mutker/framescore/internal/stats"
	"github.com/prometheus/client_golang/prometheus"
)

// host owns one render loop and everything driven from it.
type host struct {
	cfg       *config.Config
	log       logger.Logger
	out       io.Writer
	renderer  *scene.Renderer
	collector *stats.Collector
	sinks     metrics.MetricsCollector
	sampler   gpu.Sampler
	hud       *overlay.Broadcast
	registry  *prometheus.Registry
}

func newHost(ctx context.Context, cfg *config.Config, out io.Writer, log logger.Logger) (*host, error) {
	errFactory := errors.New()

	s, err := loadScene(ctx, cfg.Scene, log)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrLoadScene, err)
	}

	h := &host{
		cfg:      cfg,
		log:      log,
		out:      out,
		renderer: scene.NewRenderer(s),
	}

	for _, name := range cfg.Scene.Hide {
		if err := h.renderer.SetHidden(name, true); err != nil {
			return nil, errFactory.Wrap(errors.ErrLoadScene, err)
		}
	}

	var surfaces overlay.Multi
	if cfg.Overlay.Enabled {
		term := overlay.NewTerminal(out, overlay.TerminalOptions{Color: cfg.Overlay.Color, Redraw: true})
		surfaces = append(surfaces, term)
		h.out = term
	}
	if cfg.Server.Enabled {
		h.hud = overlay.NewBroadcast(log)
		h.registry = prometheus.NewRegistry()
		surfaces = append(surfaces, h.hud)
	}

	opts := []stats.Option{stats.WithLogger(log)}
	if len(surfaces) > 0 {
		opts = append(opts, stats.WithSurface(surfaces))
	}

	h.collector, err = stats.New(cfg.Stats(), h.renderer, opts...)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	history, err := metrics.NewService(metrics.Config{
		DBPath:       cfg.Metrics.DBPath,
		BatchSize:    cfg.Metrics.BatchSize,
		BatchTimeout: cfg.Metrics.BatchTimeout,
		Enabled:      cfg.Metrics.Enabled,
	}, log)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInitMetrics, err)
	}
	sinks := metrics.Multi{history}
	if h.registry != nil {
		sinks = append(sinks, metrics.NewPrometheus(h.registry))
	}
	h.sinks = sinks

	if cfg.GPU.Enabled {
		g, err := gpu.New(log)
		if err != nil {
			log.Warn().Err(err).Msg("GPU sampling unavailable, continuing without it")
		} else {
			h.sampler = g
		}
	}

	log.Info().
		Str("scene", s.Name).
		Strs("meshes", h.renderer.Visible()).
		Dur("frame_interval", cfg.FrameInterval()).
		Msg("Render loop ready")

	return h, nil
}

func loadScene(ctx context.Context, cfg config.SceneConfig, log logger.Logger) (*scene.Scene, error) {
	if cfg.File == "" {
		return scene.Preset(cfg.Preset)
	}

	return scene.Load(ctx, cfg.File, func(fraction float64) {
		log.Debug().Str("file", cfg.File).Float64("progress", fraction).Msg("Loading scene")
	})
}

// run drives frames until ctx is done, frames is closed, or a termination
// signal arrives.
func (h *host) run(ctx context.Context, frames <-chan time.Time, signals <-chan os.Signal) error {
	if err := overlay.WriteUsage(h.out, h.cfg.Score); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig := <-signals:
			if h.handleSignal(sig) {
				return nil
			}
		case now, ok := <-frames:
			if !ok {
				return nil
			}
			h.frame(ctx, now)
		}
	}
}

// frame renders one frame and, once per tick, refreshes the HUD and
// records the tick.
func (h *host) frame(ctx context.Context, now time.Time) {
	h.renderer.Render()
	h.collector.RecordFrame(now)

	snap, ok := h.collector.Tick(now)
	if !ok {
		return
	}

	h.collector.Render()

	report := h.collector.Report()
	h.log.Debug().
		Int("avg_fps", report.AvgFPS).
		Float64("avg_frame_time_ms", report.AvgFrameTime).
		Int("geometries", report.Memory.Geometries).
		Int("textures", report.Memory.Textures).
		Int("programs", report.Memory.Programs).
		Msg("Tick")

	record := metrics.NewSnapshot(*snap, h.collector.ComputeScore())
	if h.sampler != nil {
		load, err := h.sampler.Sample()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to sample GPU load")
		} else {
			record.GPU = &metrics.GPUMetrics{
				Utilization:       load.Utilization,
				MemoryUtilization: load.MemoryUtilization,
				Temperature:       load.Temperature,
				AvgTemperature:    load.AvgTemperature,
				MemoryUsedMiB:     load.MemoryUsedMiB(),
			}
		}
	}

	if err := h.sinks.Record(ctx, record); err != nil {
		h.log.Warn().Err(err).Msg("Failed to record tick")
	}
}

// handleSignal reacts to a trigger and reports whether the loop should stop.
func (h *host) handleSignal(sig os.Signal) bool {
	switch sig {
	case syscall.SIGUSR1:
		h.saveBaseline()
	case syscall.SIGUSR2:
		h.compare()
	case syscall.SIGINT, syscall.SIGTERM:
		h.log.Info().Str("signal", sig.String()).Msg("Received termination signal")
		return true
	default:
		h.log.Debug().Str("signal", sig.String()).Msg("Ignoring signal")
	}

	return false
}

func (h *host) saveBaseline() {
	b := h.collector.SaveBaseline()
	fmt.Fprintf(h.out, "Baseline saved: score %d/100, %d FPS, %.2fms\n",
		b.Score.Total, b.Report.AvgFPS, b.Report.AvgFrameTime)
}

func (h *host) compare() {
	cmp, err := h.collector.CompareToBaseline()
	if errors.HasCode(err, stats.ErrNoBaseline) {
		h.log.Warn().Msg("No baseline saved yet; run `framescore baseline` first")
		if err := overlay.WriteReport(h.out, h.collector.Report(), h.collector.ComputeScore()); err != nil {
			h.log.Warn().Err(err).Msg("Failed to write report")
		}
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compare with baseline")
		return
	}

	if err := overlay.WriteComparison(h.out, cmp); err != nil {
		h.log.Warn().Err(err).Msg("Failed to write comparison")
	}
}

func (h *host) close() error {
	var errs []error

	h.log.Info().Int("frames", h.renderer.Frames()).Msg("Render loop stopped")

	if err := h.sinks.Close(); err != nil {
		errs = append(errs, err)
	}
	if h.sampler != nil {
		if err := h.sampler.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
