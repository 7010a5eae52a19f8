package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all settings for the bridge. Tags use mapstructure for Viper
// unmarshalling; every key is also bindable from the environment.
type Config struct {
	// Remote platform.
	PlatformMode   string `mapstructure:"PLATFORM_MODE"` // "http" or "memory"
	BaseURL        string `mapstructure:"ORIGO_BASE_URL"`
	OrganizationID string `mapstructure:"ORIGO_ORGANIZATION_ID"`
	ClientID       string `mapstructure:"ORIGO_CLIENT_ID"`
	ClientSecret   string `mapstructure:"ORIGO_CLIENT_SECRET"`

	// Stamped on every authenticated call.
	ApplicationID      string `mapstructure:"APPLICATION_ID"`
	ApplicationVersion string `mapstructure:"APPLICATION_VERSION"`

	// Webhook receiver.
	HTTPPort       string `mapstructure:"HTTP_PORT"`
	CallbackURL    string `mapstructure:"CALLBACK_URL"` // public HTTPS URL registered with the platform
	CallbackHeader string `mapstructure:"CALLBACK_HEADER"`
	CallbackSecret string `mapstructure:"CALLBACK_SECRET"`

	// Dedup ledger. RedisAddr empty selects the in-memory backend.
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	LedgerRetentionMin int    `mapstructure:"LEDGER_RETENTION_MIN"`

	// Pass-state mirror. MongoURI empty selects the in-memory backend.
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`
}

// Load reads configuration from file, environment variables and defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/origo-bridge/")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PLATFORM_MODE", "http")
	v.SetDefault("ORIGO_BASE_URL", "https://api.origo.hidglobal.com")
	v.SetDefault("APPLICATION_ID", "origo-bridge")
	v.SetDefault("APPLICATION_VERSION", "1.0.0")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("LEDGER_RETENTION_MIN", 24*60)
	v.SetDefault("MONGO_DB_NAME", "origo_bridge")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No file is fine; defaults and env vars carry the load.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.PlatformMode {
	case "http":
		if c.OrganizationID == "" || c.ClientID == "" || c.ClientSecret == "" {
			return fmt.Errorf("http platform mode requires ORIGO_ORGANIZATION_ID, ORIGO_CLIENT_ID and ORIGO_CLIENT_SECRET")
		}
	case "memory":
		// Self-contained, nothing to check.
	default:
		return fmt.Errorf("unknown PLATFORM_MODE %q (want http or memory)", c.PlatformMode)
	}
	if (c.CallbackHeader == "") != (c.CallbackSecret == "") {
		return fmt.Errorf("CALLBACK_HEADER and CALLBACK_SECRET must be set together")
	}
	return nil
}
