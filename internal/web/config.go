package web

import (
	"github.com/vacancy-codes/internal/config"
)

// Config represents the web server configuration
type Config struct {
	Server   ServerConfig  `json:"server"`
	Auth     AuthConfig    `json:"auth"`
	Features FeatureConfig `json:"features"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	Enabled bool   `json:"enabled"`
	APIKey  string `json:"-"`
}

// FeatureConfig contains feature toggles
type FeatureConfig struct {
	ExportEnabled bool `json:"export_enabled"`
}

// LoadConfig reads the WEB_* environment variables over the defaults
func LoadConfig() *Config {
	cfg := DefaultConfig()
	cfg.Server.Host = config.GetEnv("WEB_HOST", cfg.Server.Host)
	cfg.Server.Port = config.GetEnvInt("WEB_PORT", cfg.Server.Port)
	cfg.Auth.APIKey = config.GetEnv("WEB_API_KEY", "")
	cfg.Auth.Enabled = cfg.Auth.APIKey != ""
	cfg.Features.ExportEnabled = config.GetEnvBool("WEB_EXPORT_ENABLED", cfg.Features.ExportEnabled)
	return cfg
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Features: FeatureConfig{
			ExportEnabled: true,
		},
	}
}
