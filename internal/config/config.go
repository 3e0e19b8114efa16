package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ogulcanaydogan/budget-alert-relay/pkg/alerts"
	"github.com/spf13/viper"
)

// Config holds all relay configuration.
type Config struct {
	WebhookURL    string        `mapstructure:"webhook_url"`
	MessagePrefix string        `mapstructure:"message_prefix"`
	HTTP          HTTPConfig    `mapstructure:"http"`
	Server        ServerConfig  `mapstructure:"server"`
	Logging       LoggingConfig `mapstructure:"logging"`
}

// HTTPConfig defines outbound webhook client settings.
type HTTPConfig struct {
	Timeout string `mapstructure:"timeout"`
}

// ServerConfig defines the HTTP front end settings.
type ServerConfig struct {
	Listen       string `mapstructure:"listen"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
	MaxBodySize  int64  `mapstructure:"max_body_size"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// WEBHOOK_URL and MESSAGE_PREFIX are read without prefix; every other key
// can be overridden with a RELAY_ variable (e.g. RELAY_SERVER_LISTEN).
// A missing webhook URL is not an error here; the dispatcher rejects it.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".relay"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	v.SetDefault("webhook_url", "")
	v.SetDefault("message_prefix", "")
	v.SetDefault("http.timeout", "10s")
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.max_body_size", 1024*1024) // 1 MB
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables
	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("webhook_url", "WEBHOOK_URL"); err != nil {
		return nil, fmt.Errorf("bind WEBHOOK_URL: %w", err)
	}
	if err := v.BindEnv("message_prefix", "MESSAGE_PREFIX"); err != nil {
		return nil, fmt.Errorf("bind MESSAGE_PREFIX: %w", err)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Settings returns the dispatcher snapshot for one invocation.
func (c *Config) Settings() alerts.Settings {
	return alerts.Settings{
		WebhookURL:    c.WebhookURL,
		MessagePrefix: c.MessagePrefix,
	}
}

// HTTPTimeout parses http.timeout. Invalid or empty values yield zero,
// which keeps the http.Client default.
func (c *Config) HTTPTimeout() time.Duration {
	return parseDuration(c.HTTP.Timeout, 0)
}

// ReadTimeout parses server.read_timeout, defaulting to 30s.
func (c *Config) ReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 30*time.Second)
}

// WriteTimeout parses server.write_timeout, defaulting to 60s.
func (c *Config) WriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 60*time.Second)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
