package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/framescore/internal/errors"
	"codeberg.org/mutker/framescore/internal/scene"
	"codeberg.org/mutker/framescore/internal/stats"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel   = string(LogLevelWarning)
	DefaultEnvPrefix  = "FRAMESCORE"
	configEnvVar      = "FRAMESCORE_CONFIG"
	configName        = "framescore"
	defaultPIDDir     = ""
	defaultScene      = "primitives"
	defaultTargetFPS  = 60
	maxTargetFPS      = 1000
	defaultDBPath     = "/var/lib/framescore/history.db"
	defaultListenAddr = "127.0.0.1:9464"
)

type Config struct {
	LogLevel string `mapstructure:"log_level"`
	Debug    bool   `mapstructure:"debug"`
	Verbose  bool   `mapstructure:"verbose"`
	PIDDir   string `mapstructure:"pid_dir"`

	Frame   FrameConfig       `mapstructure:"frame"`
	Score   stats.ScoreConfig `mapstructure:"score"`
	Overlay OverlayConfig     `mapstructure:"overlay"`
	Scene   SceneConfig       `mapstructure:"scene"`
	Metrics MetricsConfig     `mapstructure:"metrics"`
	Server  ServerConfig      `mapstructure:"server"`
	GPU     GPUConfig         `mapstructure:"gpu"`
}

type FrameConfig struct {
	Window       int           `mapstructure:"window"`
	MaxDelta     time.Duration `mapstructure:"max_delta"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	TargetFPS    int           `mapstructure:"target_fps"`
}

type OverlayConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	Color   bool              `mapstructure:"color"`
	Levels  stats.LevelConfig `mapstructure:"levels"`
}

type SceneConfig struct {
	Preset string   `mapstructure:"preset"`
	File   string   `mapstructure:"file"`
	Hide   []string `mapstructure:"hide"`
}

type MetricsConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DBPath       string `mapstructure:"db_path"`
	BatchSize    int    `mapstructure:"batch_size"`
	BatchTimeout int    `mapstructure:"batch_timeout"`
}

type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type GPUConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"log-level":  "log_level",
	"debug":      "debug",
	"verbose":    "verbose",
	"pid-dir":    "pid_dir",
	"window":     "frame.window",
	"target-fps": "frame.target_fps",
	"overlay":    "overlay.enabled",
	"color":      "overlay.color",
	"scene":      "scene.preset",
	"scene-file": "scene.file",
	"hide":       "scene.hide",
	"metrics":    "metrics.enabled",
	"db":         "metrics.db_path",
	"serve":      "server.enabled",
	"listen":     "server.addr",
	"gpu":        "gpu.enabled",
}

// RegisterFlags defines the command line flags understood by Load.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Configuration file (default: search /etc, $HOME/.config/framescore)")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")
	fs.String("pid-dir", defaultPIDDir, "Directory for the PID file (default: system temp dir)")
	fs.Int("window", stats.DefaultConfig().WindowSize, "Number of frame samples in the rolling average")
	fs.Int("target-fps", defaultTargetFPS, "Frame rate of the render loop")
	fs.Bool("overlay", true, "Draw the HUD on the terminal")
	fs.Bool("color", true, "Colour the terminal HUD")
	fs.String("scene", defaultScene, fmt.Sprintf("Scene preset (%s)", strings.Join(scene.Presets(), ", ")))
	fs.String("scene-file", "", "YAML scene description, overrides --scene")
	fs.StringSlice("hide", nil, "Meshes to leave out of the render")
	fs.Bool("metrics", false, "Record tick history to SQLite")
	fs.String("db", defaultDBPath, "SQLite history database path")
	fs.Bool("serve", false, "Serve /metrics and the /overlay stream")
	fs.String("listen", defaultListenAddr, "Listen address for --serve")
	fs.Bool("gpu", false, "Sample host GPU load through NVML")
}

func setDefaults(v *viper.Viper) {
	statsDefaults := stats.DefaultConfig()
	score := statsDefaults.Score
	levels := statsDefaults.Levels

	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)
	v.SetDefault("pid_dir", defaultPIDDir)

	v.SetDefault("frame.window", statsDefaults.WindowSize)
	v.SetDefault("frame.max_delta", statsDefaults.MaxFrameDelta)
	v.SetDefault("frame.tick_interval", statsDefaults.TickInterval)
	v.SetDefault("frame.target_fps", defaultTargetFPS)

	v.SetDefault("score.fps_weight", score.FPSWeight)
	v.SetDefault("score.frame_time_weight", score.FrameTimeWeight)
	v.SetDefault("score.draw_call_weight", score.DrawCallWeight)
	v.SetDefault("score.memory_weight", score.MemoryWeight)
	v.SetDefault("score.target_fps", score.TargetFPS)
	v.SetDefault("score.target_frame_time", score.TargetFrameTime)
	v.SetDefault("score.free_draw_calls", score.FreeDrawCalls)
	v.SetDefault("score.draw_call_budget", score.DrawCallBudget)
	v.SetDefault("score.resource_budget", score.ResourceBudget)

	v.SetDefault("overlay.enabled", true)
	v.SetDefault("overlay.color", true)
	v.SetDefault("overlay.levels.fps_poor", levels.FPSPoor)
	v.SetDefault("overlay.levels.fps_fair", levels.FPSFair)
	v.SetDefault("overlay.levels.score_poor", levels.ScorePoor)
	v.SetDefault("overlay.levels.score_fair", levels.ScoreFair)

	v.SetDefault("scene.preset", defaultScene)
	v.SetDefault("scene.file", "")
	v.SetDefault("scene.hide", []string{})

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.db_path", defaultDBPath)
	v.SetDefault("metrics.batch_size", 10)
	v.SetDefault("metrics.batch_timeout", 5)

	v.SetDefault("server.enabled", false)
	v.SetDefault("server.addr", defaultListenAddr)

	v.SetDefault("gpu.enabled", false)
}

// Load reads the configuration from defaults, the TOML config file,
// FRAMESCORE_* environment variables and flags, in increasing precedence.
// flags may be nil.
func Load(flags *pflag.FlagSet, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if o.configPath == "" && flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Changed {
			o.configPath = f.Value.String()
		}
	}
	if o.configPath == "" {
		o.configPath = os.Getenv(configEnvVar)
	}

	if o.configPath != "" {
		v.SetConfigFile(o.configPath)
		v.SetConfigType("toml")
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		v.AddConfigPath("$HOME/.config/framescore")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errFactory.Wrap(errors.ErrBindFlags, err)
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	if config.Debug {
		config.LogLevel = string(LogLevelDebug)
	} else if config.Verbose && config.LogLevel == DefaultLogLevel {
		config.LogLevel = string(LogLevelInfo)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.Frame.TargetFPS <= 0 || c.Frame.TargetFPS > maxTargetFPS {
		return errFactory.WithData(errors.ErrInvalidInterval,
			fmt.Sprintf("target_fps must be between 1 and %d", maxTargetFPS))
	}
	if c.Scene.File == "" && !lo.Contains(scene.Presets(), c.Scene.Preset) {
		return errFactory.WithData(errors.ErrInvalidConfig,
			fmt.Sprintf("unknown scene preset %q (want one of %s)", c.Scene.Preset, strings.Join(scene.Presets(), ", ")))
	}
	if c.Metrics.Enabled && c.Metrics.DBPath == "" {
		return errFactory.WithData(errors.ErrInvalidConfig, "metrics.db_path is required when metrics are enabled")
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		return errFactory.WithData(errors.ErrInvalidConfig, "server.addr is required when serving")
	}

	if err := c.Stats().Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	return nil
}

// Stats returns the collector configuration.
func (c *Config) Stats() stats.Config {
	return stats.Config{
		WindowSize:    c.Frame.Window,
		MaxFrameDelta: c.Frame.MaxDelta,
		TickInterval:  c.Frame.TickInterval,
		Score:         c.Score,
		Levels:        c.Overlay.Levels,
	}
}

// FrameInterval is the render loop period for the target frame rate.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.Frame.TargetFPS)
}
