// Package config loads mataki settings from an optional mataki.yaml and MATAKI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// FileName is the config file name searched for without its extension
	FileName  = "mataki"
	EnvPrefix = "MATAKI"
)

// Config holds everything the command line tools can configure.
// the mapstructure tags name the yaml keys.
type Config struct {
	Capture CaptureConfig `mapstructure:"capture"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

type CaptureConfig struct {
	// ScratchRoot holds the uploads and images directories, the system temp dir when empty
	ScratchRoot string `mapstructure:"scratch_root"`

	// LogFile receives the transcript instead of stdout when set
	LogFile string `mapstructure:"log_file"`

	// HARFile receives a HAR archive of every exchange when set
	HARFile string `mapstructure:"har_file"`

	Timeout time.Duration `mapstructure:"timeout"`
}

type MetricsConfig struct {
	// Addr serves /metrics when set, for example ":9090"
	Addr      string `mapstructure:"addr"`
	Namespace string `mapstructure:"namespace"`
}

type RedisConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Address    string        `mapstructure:"address"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	KeyPrefix  string        `mapstructure:"key_prefix"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int64         `mapstructure:"max_entries"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("capture.scratch_root", "")
	v.SetDefault("capture.log_file", "")
	v.SetDefault("capture.har_file", "")
	v.SetDefault("capture.timeout", 30*time.Second)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.namespace", "mataki")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "mataki")
	v.SetDefault("redis.ttl", 24*time.Hour)
	v.SetDefault("redis.max_entries", 0)
}

// Load reads path when given, otherwise looks for mataki.yaml in the working
// directory and in $HOME/.config/mataki. a missing file is not an error unless
// path names it explicitly. environment variables such as MATAKI_REDIS_ADDRESS
// override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/mataki")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that can never work
func (c *Config) Validate() error {
	if c.Capture.Timeout < 0 {
		return fmt.Errorf("capture.timeout must not be negative, got %s", c.Capture.Timeout)
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return errors.New("redis.address is required when redis is enabled")
	}
	if c.Redis.MaxEntries < 0 {
		return fmt.Errorf("redis.max_entries must not be negative, got %d", c.Redis.MaxEntries)
	}
	return nil
}
