// Package config loads service settings from configs/config.yml and
// COUNTDOWN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "COUNTDOWN"

type Config struct {
	Port  string      `mapstructure:"port"`
	DB    DBConfig    `mapstructure:"db"`
	Log   LogConfig   `mapstructure:"log"`
	Timer TimerConfig `mapstructure:"timer"`
	Alarm AlarmConfig `mapstructure:"alarm"`
	Auth  AuthConfig  `mapstructure:"auth"`
	Share ShareConfig `mapstructure:"share"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type TimerConfig struct {
	DefaultSeconds int           `mapstructure:"default_seconds"`
	TickInterval   time.Duration `mapstructure:"tick_interval"`
	PresetsFile    string        `mapstructure:"presets_file"`
}

type AlarmConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	FrequencyHz float64       `mapstructure:"frequency_hz"`
	Beep        time.Duration `mapstructure:"beep"`
	Gap         time.Duration `mapstructure:"gap"`
	Beeps       int           `mapstructure:"beeps"`
	Volume      float64       `mapstructure:"volume"`
	Workers     int           `mapstructure:"workers"`
}

type AuthConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type ShareConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("log.level", "info")

	v.SetDefault("timer.default_seconds", 300)
	v.SetDefault("timer.tick_interval", "250ms")
	v.SetDefault("timer.presets_file", "configs/presets.yml")

	v.SetDefault("alarm.enabled", true)
	v.SetDefault("alarm.frequency_hz", 880.0)
	v.SetDefault("alarm.beep", "200ms")
	v.SetDefault("alarm.gap", "120ms")
	v.SetDefault("alarm.beeps", 3)
	v.SetDefault("alarm.volume", 0.4)
	v.SetDefault("alarm.workers", 2)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", "1h")

	v.SetDefault("share.base_url", "http://localhost:8080/")
}

// Load reads config.yml from the given directories, in order. A missing
// file is not an error: defaults and the environment still apply.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.Timer.DefaultSeconds <= 0 {
		return fmt.Errorf("timer.default_seconds must be positive, got %d", c.Timer.DefaultSeconds)
	}
	if c.Timer.TickInterval <= 0 || c.Timer.TickInterval > time.Second {
		return fmt.Errorf("timer.tick_interval must be within (0, 1s], got %s", c.Timer.TickInterval)
	}
	if c.Auth.Enabled && strings.TrimSpace(c.Auth.SigningKey) == "" {
		return errors.New("auth.signing_key is required when auth.enabled is true")
	}
	return nil
}
