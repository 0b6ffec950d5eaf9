package stats

import (
	"math"
	"time"

	"codeberg.org/mutker/framescore/internal/errors"
	"codeberg.org/mutker/framescore/internal/logger"
)

// Collector turns a stream of per-frame timestamps into rolling frame
// statistics and a composite score. It is driven from a single render loop
// and is not safe for concurrent use.
type Collector struct {
	cfg      Config
	counters CounterSource
	surface  Surface
	logger   logger.Logger

	window     *Window
	lastFrame  time.Time
	lastTick   time.Time
	frameCount int
	frameTime  float64
	latest     Snapshot
	baseline   *Baseline
}

type Option func(*Collector)

// WithSurface sets the display surface the HUD is rendered onto.
func WithSurface(surface Surface) Option {
	return func(c *Collector) {
		c.surface = surface
	}
}

func WithLogger(log logger.Logger) Option {
	return func(c *Collector) {
		c.logger = log
	}
}

func New(cfg Config, counters CounterSource, opts ...Option) (*Collector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}
	if counters == nil {
		return nil, errFactory.New(ErrNoCounterSource)
	}

	c := &Collector{
		cfg:      cfg,
		counters: counters,
		logger:   logger.Default(),
		window:   NewWindow(cfg.WindowSize),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// RecordFrame registers a rendered frame. Deltas outside (0, MaxFrameDelta)
// are not sampled; the first call only starts the clock.
func (c *Collector) RecordFrame(now time.Time) {
	if c.lastFrame.IsZero() {
		c.lastFrame = now
		if c.lastTick.IsZero() {
			c.lastTick = now
		}
		c.frameCount++

		return
	}

	delta := now.Sub(c.lastFrame)
	c.frameTime = milliseconds(delta)

	if delta > 0 && delta < c.cfg.MaxFrameDelta {
		c.window.Push(c.frameTime)
	} else {
		c.logger.Debug().
			Float64("delta_ms", c.frameTime).
			Msg("Frame delta outside sampling range, skipped")
	}

	c.lastFrame = now
	c.frameCount++
}

// Tick returns a fresh snapshot once at least TickInterval has passed since
// the previous one. Between ticks it returns false and the caller keeps
// showing the previous snapshot.
func (c *Collector) Tick(now time.Time) (*Snapshot, bool) {
	if c.lastTick.IsZero() {
		c.lastTick = now
		return nil, false
	}

	elapsed := now.Sub(c.lastTick)
	if elapsed < c.cfg.TickInterval {
		return nil, false
	}

	fps := math.Round(float64(c.frameCount) * 1000 / milliseconds(elapsed))
	if !finite(fps) {
		fps = 0
	}

	frameTime := c.frameTime
	if !finite(frameTime) {
		frameTime = 0
	}

	c.latest = Snapshot{
		Timestamp: now,
		FPS:       int(fps),
		FrameTime: frameTime,
		Counters:  c.counters.Counters(),
	}
	c.frameCount = 0
	c.lastTick = now

	snapshot := c.latest

	return &snapshot, true
}

// ComputeScore scores the rolling average frame time against the counters
// of the latest snapshot.
func (c *Collector) ComputeScore() ScoreBreakdown {
	avg, ok := c.window.Mean()
	if !ok {
		return Score(c.cfg.Score, 0, c.latest.Counters)
	}

	return Score(c.cfg.Score, avg, c.latest.Counters)
}

// Report summarises the latest snapshot and the rolling averages.
func (c *Collector) Report() Report {
	report := Report{
		FPS:       c.latest.FPS,
		FrameTime: c.latest.FrameTime,
		DrawCalls: c.latest.DrawCalls,
		Triangles: c.latest.Triangles,
		Memory: MemoryReport{
			Geometries: c.latest.Geometries,
			Textures:   c.latest.Textures,
			Programs:   c.latest.Programs,
		},
	}

	if avg, ok := c.window.Mean(); ok {
		report.AvgFrameTime = avg
		if fps := math.Round(1000 / avg); finite(fps) {
			report.AvgFPS = int(fps)
		}
	}

	return report
}

// Latest returns the snapshot produced by the most recent tick.
func (c *Collector) Latest() Snapshot {
	return c.latest
}

// Samples returns the sampled frame times, oldest first.
func (c *Collector) Samples() []float64 {
	return c.window.Values()
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
