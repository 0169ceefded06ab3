package engine

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glint3d/glint/internal/core/assets"
	"github.com/glint3d/glint/internal/core/audio"
	"github.com/glint3d/glint/internal/core/observability/log"
)

// Config is read once at construction and immutable afterwards. Durations
// are plain milliseconds so the YAML stays obvious.
type Config struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	PixelRatio float64 `yaml:"pixel_ratio"`
	Shadows    bool    `yaml:"shadows"`
	Antialias  bool    `yaml:"antialias"`
	Debug      bool    `yaml:"debug"`

	TargetFPS  int `yaml:"target_fps"`
	MaxDeltaMS int `yaml:"max_delta_ms"`

	AssetConcurrency int    `yaml:"asset_concurrency"`
	AssetTimeoutMS   int    `yaml:"asset_timeout_ms"`
	AssetRoot        string `yaml:"asset_root"`
	AssetBaseURL     string `yaml:"asset_base_url"`

	AudioSampleRate int `yaml:"audio_sample_rate"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func DefaultConfig() Config {
	return Config{
		Width:            1280,
		Height:           720,
		PixelRatio:       1,
		Shadows:          true,
		Antialias:        true,
		TargetFPS:        60,
		MaxDeltaMS:       250,
		AssetConcurrency: assets.DefaultConcurrency,
		AssetTimeoutMS:   int(assets.DefaultFetchTimeout / time.Millisecond),
		AssetRoot:        ".",
		AudioSampleRate:  int(audio.DefaultSampleRate),
		LogLevel:         "info",
		LogFormat:        "console",
	}
}

// LoadConfig reads a YAML file over the defaults, so a partial file only
// overrides what it names.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate normalizes out-of-range numerics to their defaults and rejects
// values that cannot be guessed at.
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.Width <= 0 {
		c.Width = def.Width
	}
	if c.Height <= 0 {
		c.Height = def.Height
	}
	if c.PixelRatio <= 0 {
		c.PixelRatio = def.PixelRatio
	}
	if c.TargetFPS <= 0 {
		c.TargetFPS = def.TargetFPS
	}
	if c.MaxDeltaMS <= 0 {
		c.MaxDeltaMS = def.MaxDeltaMS
	}
	if c.AssetConcurrency <= 0 {
		c.AssetConcurrency = def.AssetConcurrency
	}
	if c.AssetTimeoutMS <= 0 {
		c.AssetTimeoutMS = def.AssetTimeoutMS
	}
	if c.AssetRoot == "" {
		c.AssetRoot = def.AssetRoot
	}
	if c.AudioSampleRate <= 0 {
		c.AudioSampleRate = def.AudioSampleRate
	}

	switch c.LogFormat {
	case "":
		c.LogFormat = def.LogFormat
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c Config) MaxDelta() time.Duration {
	return time.Duration(c.MaxDeltaMS) * time.Millisecond
}

func (c Config) AssetTimeout() time.Duration {
	return time.Duration(c.AssetTimeoutMS) * time.Millisecond
}
