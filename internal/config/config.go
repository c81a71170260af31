package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	Host            string   `mapstructure:"host"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CatalogConfig holds catalog API and search pipeline configuration
type CatalogConfig struct {
	BaseURL              string `mapstructure:"base_url"`
	ListLimit            int    `mapstructure:"list_limit"`
	Timeout              int    `mapstructure:"timeout"`
	MaxWorkers           int    `mapstructure:"max_workers"`
	MaxRequestsPerSecond int    `mapstructure:"max_requests_per_second"`
	CandidateCap         int    `mapstructure:"candidate_cap"`
	PageSize             int    `mapstructure:"page_size"`
}

// AuthConfig holds identity provider configuration
type AuthConfig struct {
	URL     string `mapstructure:"url"`
	AnonKey string `mapstructure:"anon_key"`
	Timeout int    `mapstructure:"timeout"`
}

// SessionConfig holds browser session cookie settings
type SessionConfig struct {
	CookieName string `mapstructure:"cookie_name"`
	Secure     bool   `mapstructure:"secure"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from an optional YAML file with environment
// variable overrides. An explicit path must exist; the default config.yaml in
// the working directory may be absent.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url must not be empty")
	}
	if c.Catalog.PageSize <= 0 {
		return fmt.Errorf("catalog.page_size must be positive, got %d", c.Catalog.PageSize)
	}
	if c.Catalog.CandidateCap <= 0 {
		return fmt.Errorf("catalog.candidate_cap must be positive, got %d", c.Catalog.CandidateCap)
	}
	if c.Catalog.MaxWorkers <= 0 {
		return fmt.Errorf("catalog.max_workers must be positive, got %d", c.Catalog.MaxWorkers)
	}
	if c.Catalog.MaxRequestsPerSecond < 0 {
		return fmt.Errorf("catalog.max_requests_per_second must not be negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.shutdown_timeout", 10)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	v.SetDefault("catalog.base_url", "https://pokeapi.co/api/v2")
	v.SetDefault("catalog.list_limit", 10000)
	v.SetDefault("catalog.timeout", 0)
	v.SetDefault("catalog.max_workers", 300)
	v.SetDefault("catalog.max_requests_per_second", 0)
	v.SetDefault("catalog.candidate_cap", 300)
	v.SetDefault("catalog.page_size", 20)

	v.SetDefault("auth.url", "https://placeholder.supabase.co")
	v.SetDefault("auth.anon_key", "placeholder-key")
	v.SetDefault("auth.timeout", 30)

	v.SetDefault("session.cookie_name", "pokelearn_session")
	v.SetDefault("session.secure", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
