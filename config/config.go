// Package config loads runtime configuration from environment variables
// and an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the dashboard server needs to run.
type Config struct {
	Port           int           `mapstructure:"port"`
	GinMode        string        `mapstructure:"gin_mode"`
	LogLevel       string        `mapstructure:"log_level"`
	EngineURL      string        `mapstructure:"engine_url"`
	AuthURL        string        `mapstructure:"auth_url"`
	LocaleBaseURL  string        `mapstructure:"locale_base_url"`
	AnalyzeTimeout time.Duration `mapstructure:"analyze_timeout"`
	DataDir        string        `mapstructure:"data_dir"`
	DownloadsDir   string        `mapstructure:"downloads_dir"`
	DefaultLocale  string        `mapstructure:"default_locale"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateBurst      int           `mapstructure:"rate_burst"`
	AllowedOrigin  string        `mapstructure:"allowed_origin"`
}

// Load reads configuration, in increasing precedence: built-in defaults,
// an optional config file, then DASHBOARD_* environment variables.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("port", 8080)
	v.SetDefault("gin_mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("engine_url", "http://localhost:5000")
	v.SetDefault("auth_url", "http://localhost:5000")
	v.SetDefault("locale_base_url", "http://localhost:5000")
	v.SetDefault("analyze_timeout", 120*time.Second)
	v.SetDefault("data_dir", "data")
	v.SetDefault("downloads_dir", "downloads")
	v.SetDefault("default_locale", "en")
	v.SetDefault("rate_limit", 5.0)
	v.SetDefault("rate_burst", 10)
	v.SetDefault("allowed_origin", "*")

	v.SetEnvPrefix("DASHBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return &cfg, nil
}
