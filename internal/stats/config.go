package stats

import (
	"time"

	"codeberg.org/mutker/framescore/internal/errors"
)

const (
	defaultWindowSize    = 60
	defaultMaxFrameDelta = time.Second
	defaultTickInterval  = time.Second
)

// ScoreConfig holds the tuning constants of the composite score.
type ScoreConfig struct {
	FPSWeight       float64 `mapstructure:"fps_weight"`
	FrameTimeWeight float64 `mapstructure:"frame_time_weight"`
	DrawCallWeight  float64 `mapstructure:"draw_call_weight"`
	MemoryWeight    float64 `mapstructure:"memory_weight"`

	// TargetFPS earns the full FPS weight.
	TargetFPS float64 `mapstructure:"target_fps"`
	// TargetFrameTime in milliseconds earns the full frame time weight.
	TargetFrameTime float64 `mapstructure:"target_frame_time"`
	// FreeDrawCalls are not penalised.
	FreeDrawCalls int `mapstructure:"free_draw_calls"`
	// DrawCallBudget is the number of extra draw calls that zero the term.
	DrawCallBudget float64 `mapstructure:"draw_call_budget"`
	// ResourceBudget is the resource count that zeroes the memory term.
	ResourceBudget float64 `mapstructure:"resource_budget"`
}

// LevelConfig holds the HUD colouring thresholds.
type LevelConfig struct {
	FPSPoor   int `mapstructure:"fps_poor"`
	FPSFair   int `mapstructure:"fps_fair"`
	ScorePoor int `mapstructure:"score_poor"`
	ScoreFair int `mapstructure:"score_fair"`
}

type Config struct {
	WindowSize    int
	MaxFrameDelta time.Duration
	TickInterval  time.Duration
	Score         ScoreConfig
	Levels        LevelConfig
}

func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		FPSWeight:       40,
		FrameTimeWeight: 30,
		DrawCallWeight:  15,
		MemoryWeight:    15,
		TargetFPS:       60,
		TargetFrameTime: 16.67,
		FreeDrawCalls:   1,
		DrawCallBudget:  20,
		ResourceBudget:  100,
	}
}

func DefaultLevelConfig() LevelConfig {
	return LevelConfig{
		FPSPoor:   30,
		FPSFair:   60,
		ScorePoor: 60,
		ScoreFair: 80,
	}
}

func DefaultConfig() Config {
	return Config{
		WindowSize:    defaultWindowSize,
		MaxFrameDelta: defaultMaxFrameDelta,
		TickInterval:  defaultTickInterval,
		Score:         DefaultScoreConfig(),
		Levels:        DefaultLevelConfig(),
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.WindowSize <= 0 {
		return errFactory.WithData(ErrInvalidWindowSize, c.WindowSize)
	}
	if c.MaxFrameDelta <= 0 || c.TickInterval <= 0 {
		return errFactory.WithData(ErrInvalidConfig, "frame delta and tick interval must be positive")
	}

	return c.Score.Validate()
}

func (c ScoreConfig) Validate() error {
	errFactory := errors.New()

	for name, weight := range map[string]float64{
		"fps_weight":        c.FPSWeight,
		"frame_time_weight": c.FrameTimeWeight,
		"draw_call_weight":  c.DrawCallWeight,
		"memory_weight":     c.MemoryWeight,
	} {
		if weight < 0 {
			return errFactory.WithData(ErrInvalidConfig, name+" must not be negative")
		}
	}

	if c.TargetFPS <= 0 || c.TargetFrameTime <= 0 {
		return errFactory.WithData(ErrInvalidConfig, "score targets must be positive")
	}
	if c.DrawCallBudget <= 0 || c.ResourceBudget <= 0 {
		return errFactory.WithData(ErrInvalidConfig, "score budgets must be positive")
	}

	return nil
}
