package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr    string `mapstructure:"http_addr"`
	DatabaseURL string `mapstructure:"database_url"`
	RedisAddr   string `mapstructure:"redis_addr"`
	JWTSecret   string `mapstructure:"jwt_secret"`

	// AttemptTracker selects the lockout counter backend: "memory" or "redis".
	AttemptTracker string `mapstructure:"attempt_tracker"`

	PerPage int `mapstructure:"per_page"`

	AlertFrom        string `mapstructure:"alert_from"`
	AlertTo          string `mapstructure:"alert_to"`
	SMTPServer       string `mapstructure:"smtp_server"`
	SMTPPort         string `mapstructure:"smtp_port"`
	SMTPUser         string `mapstructure:"smtp_user"`
	SMTPPassword     string `mapstructure:"smtp_pass"`
	SMTPAuthDisabled bool   `mapstructure:"smtp_auth_disabled"`
}

// Load reads configuration from the environment, optionally overlaid by a
// config.yaml in the working directory.
func Load() (Config, error) {
	v := viper.New()
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("attempt_tracker", "memory")
	v.SetDefault("per_page", 10)
	v.SetDefault("smtp_port", "587")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{
		"http_addr", "database_url", "redis_addr", "jwt_secret",
		"attempt_tracker", "per_page",
		"alert_from", "alert_to", "smtp_server", "smtp_port",
		"smtp_user", "smtp_pass", "smtp_auth_disabled",
	} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}
