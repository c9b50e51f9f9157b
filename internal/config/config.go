// internal/config/config.go
package config

import (
	"errors"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	PostgresURL     string `mapstructure:"postgres_url"`
	FeeCollector    string `mapstructure:"fee_collector"`
	EventBufferSize int    `mapstructure:"event_buffer_size"`
	LogFile         string `mapstructure:"log_file"`
	DebugLogging    bool   `mapstructure:"debug_logging"`
}

const (
	DefaultListenAddr      = ":8080"
	DefaultEventBufferSize = 256
	DefaultLogFile         = "curved.log"
)

// LoadConfig reads the config file, applies defaults and environment
// overrides (CURVED_ prefix) and validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"listen_addr":       DefaultListenAddr,
		"event_buffer_size": DefaultEventBufferSize,
		"log_file":          DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("CURVED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.ListenAddr == "" {
		return errors.New("missing listen_addr in configuration")
	}
	if cfg.EventBufferSize <= 0 {
		return errors.New("invalid event_buffer_size")
	}
	if cfg.FeeCollector == "" {
		return errors.New("missing fee_collector in configuration")
	}
	if err := validatePublicKey(cfg.FeeCollector); err != nil {
		return errors.New("invalid fee_collector key")
	}
	return nil
}

// validatePublicKey checks that the value is a base58-encoded 32-byte key.
func validatePublicKey(value string) error {
	raw, err := base58.Decode(value)
	if err != nil {
		return err
	}
	if len(raw) != 32 {
		return errors.New("expected 32-byte key")
	}
	return nil
}
