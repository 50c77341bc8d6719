// Package config provides configuration management for the OpenLink services.
// It supports loading configuration from environment variables, config files, and defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration sections for the OpenLink services.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Presence PresenceConfig `mapstructure:"presence"`
	Networks []string       `mapstructure:"networks"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration for the auth service.
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"readTimeout"`  // in seconds
	WriteTimeout int    `mapstructure:"writeTimeout"` // in seconds
}

// NATSConfig holds NATS messaging configuration.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	ClientID      string `mapstructure:"clientId"`
	MaxReconnects int    `mapstructure:"maxReconnects"`
}

// AuthConfig holds auth-service configuration: the server-mode pre-shared
// secret, the auth service base URL used by clients, and the per-network
// OIDC token endpoints.
type AuthConfig struct {
	URL           string            `mapstructure:"url"`
	ServerSecret  string            `mapstructure:"serverSecret"`
	OIDCTokenURLs map[string]string `mapstructure:"oidcTokenUrls"`
}

// PresenceConfig tunes station lease expiry and the offline sweep.
type PresenceConfig struct {
	LeaseTTLSeconds              int  `mapstructure:"leaseTtlSeconds"`
	SweepIntervalSeconds         int  `mapstructure:"sweepIntervalSeconds"`
	AutoEndServiceStationOffline bool `mapstructure:"autoEndServiceOnStationOffline"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"outputPath"`
}

// ReadTimeoutDuration returns the read timeout as a time.Duration.
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns the write timeout as a time.Duration.
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// LeaseTTL returns the presence lease as a time.Duration.
func (p *PresenceConfig) LeaseTTL() time.Duration {
	return time.Duration(p.LeaseTTLSeconds) * time.Second
}

// SweepInterval returns the sweep period as a time.Duration.
func (p *PresenceConfig) SweepInterval() time.Duration {
	return time.Duration(p.SweepIntervalSeconds) * time.Second
}

// TokenURLFor returns the OIDC token endpoint configured for a network.
// The second return is false when the network is unknown.
func (a *AuthConfig) TokenURLFor(network string) (string, bool) {
	url, ok := a.OIDCTokenURLs[strings.ToLower(network)]
	return url, ok
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Auth HTTP server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// NATS defaults
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.clientId", "openlink")
	v.SetDefault("nats.maxReconnects", 10)

	// Auth defaults
	v.SetDefault("auth.url", "http://localhost:3001")
	v.SetDefault("auth.serverSecret", "openlink-dev-secret")
	v.SetDefault("auth.oidcTokenUrls", map[string]string{
		"vatsim": "http://localhost:4000/token",
	})

	// Presence defaults
	v.SetDefault("presence.leaseTtlSeconds", 90)
	v.SetDefault("presence.sweepIntervalSeconds", 20)
	v.SetDefault("presence.autoEndServiceOnStationOffline", true)

	// Networks served by the relay
	v.SetDefault("networks", []string{"afrv", "demonetwork"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.outputPath", "stdout")
}

// Load reads configuration from environment variables, config file, and defaults.
// Environment variables use the prefix OPENLINK_ with snake_case naming.
// Config file should be named config.yaml and placed in the current directory
// or /etc/openlink/.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from the specified path or default locations.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults first
	setDefaults(v)

	// Configure environment variables
	v.SetEnvPrefix("OPENLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit bindings for the short env names established by earlier
	// deployments, in addition to the OPENLINK_-prefixed forms.
	_ = v.BindEnv("server.port", "AUTH_PORT", "OPENLINK_SERVER_PORT")
	_ = v.BindEnv("nats.url", "NATS_URL", "OPENLINK_NATS_URL")
	_ = v.BindEnv("auth.url", "AUTH_URL", "OPENLINK_AUTH_URL")
	_ = v.BindEnv("auth.serverSecret", "SERVER_SECRET", "OPENLINK_AUTH_SERVER_SECRET")
	_ = v.BindEnv("presence.leaseTtlSeconds", "PRESENCE_LEASE_TTL_SECONDS")
	_ = v.BindEnv("presence.sweepIntervalSeconds", "PRESENCE_SWEEP_INTERVAL_SECONDS")
	_ = v.BindEnv("presence.autoEndServiceOnStationOffline", "AUTO_END_SERVICE_ON_STATION_OFFLINE")

	// Configure config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/openlink/")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	applyTokenURLEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// applyTokenURLEnvOverrides folds OIDC_{NETWORK}_TOKEN_URL env vars into the
// per-network token URL map. Additional networks can be added this way
// without touching the config file.
func applyTokenURLEnvOverrides(cfg *Config) {
	if cfg.Auth.OIDCTokenURLs == nil {
		cfg.Auth.OIDCTokenURLs = map[string]string{}
	}
	for _, network := range knownNetworks(cfg) {
		envKey := fmt.Sprintf("OIDC_%s_TOKEN_URL", strings.ToUpper(network))
		if url := os.Getenv(envKey); url != "" {
			cfg.Auth.OIDCTokenURLs[strings.ToLower(network)] = url
		}
	}
}

func knownNetworks(cfg *Config) []string {
	seen := map[string]bool{}
	var out []string
	for _, n := range cfg.Networks {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for n := range cfg.Auth.OIDCTokenURLs {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// validate checks that all required configuration fields are set.
func validate(cfg *Config) error {
	var errs []string

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}

	if cfg.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}

	if len(cfg.Networks) == 0 {
		errs = append(errs, "at least one network must be configured")
	}

	if cfg.Presence.LeaseTTLSeconds <= 0 {
		errs = append(errs, "presence.leaseTtlSeconds must be positive")
	}
	if cfg.Presence.SweepIntervalSeconds <= 0 {
		errs = append(errs, "presence.sweepIntervalSeconds must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, "logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, "logging.format must be one of: json, text")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}

	return nil
}
