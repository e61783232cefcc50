package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the tripmate-backend service.
type Config struct {
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Anthropic AnthropicConfig
	Weather   WeatherConfig
	Upload    UploadConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host      string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port      string `envconfig:"SERVER_PORT" default:"8080"`
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	DSN string `envconfig:"DATABASE_DSN" required:"true"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	URI string `envconfig:"REDIS_URI" required:"true"`
}

// AnthropicConfig holds the model provider configuration. The API key is
// deliberately not required at startup: a missing key surfaces as a 500 on
// the chat endpoint rather than preventing the rest of the API from serving.
type AnthropicConfig struct {
	APIKey string `envconfig:"ANTHROPIC_API_KEY"`
	Model  string `envconfig:"ANTHROPIC_MODEL" default:"claude-sonnet-4-20250514"`
}

// WeatherConfig holds the weather collaborator configuration.
type WeatherConfig struct {
	URL string `envconfig:"WEATHER_URL" required:"true"`
}

// UploadConfig holds the file-hosting collaborator configuration.
type UploadConfig struct {
	URL    string `envconfig:"UPLOAD_URL" required:"true"`
	Preset string `envconfig:"UPLOAD_PRESET" default:"tripmate"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration for logical errors beyond required fields.
func (c *Config) Validate() error {
	// Ensure port defaults are set (defensive, envconfig should handle this)
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	return nil
}
