// Package config loads settings from an optional YAML file, then STOREFRONT_*
// environment variables, on top of defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	ServiceName    = "storefront"
	ServiceVersion = "0.1.0"
)

const (
	LogsPath      = "/otlp/v1/logs"
	TracesPath    = "/otlp/v1/traces"
	ExportTimeout = 30 * time.Second
	MaxQueueSize  = 2048
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

const envPrefix = "STOREFRONT_"

type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Storage StorageConfig `yaml:"storage"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Otel    OtelConfig    `yaml:"otel"`
	Log     LogConfig     `yaml:"log"`
}

type HTTPConfig struct {
	Addr           string        `yaml:"addr"`
	FulfillTimeout time.Duration `yaml:"fulfill_timeout"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// KafkaConfig enables the Kafka broker when Brokers is non-empty.
type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	ConsumerGroup string   `yaml:"consumer_group"`
}

// OtelConfig enables OTLP export when Endpoint is set.
type OtelConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AuthHeader string `yaml:"auth_header"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		HTTP:    HTTPConfig{Addr: ":8080", FulfillTimeout: 5 * time.Second},
		Storage: StorageConfig{Driver: DriverMemory},
		Kafka:   KafkaConfig{ConsumerGroup: ServiceName + "-group"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads path (skipped when empty), applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}
	str("HTTP_ADDR", &c.HTTP.Addr)
	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("STORAGE_DSN", &c.Storage.DSN)
	str("KAFKA_CONSUMER_GROUP", &c.Kafka.ConsumerGroup)
	str("OTEL_ENDPOINT", &c.Otel.Endpoint)
	str("OTEL_AUTH_HEADER", &c.Otel.AuthHeader)
	str("LOG_LEVEL", &c.Log.Level)

	if v, ok := os.LookupEnv(envPrefix + "KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitList(v)
	}
	if v, ok := os.LookupEnv(envPrefix + "HTTP_FULFILL_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sHTTP_FULFILL_TIMEOUT: %w", envPrefix, err)
		}
		c.HTTP.FulfillTimeout = d
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if c.HTTP.FulfillTimeout <= 0 {
		errs = append(errs, errors.New("http.fulfill_timeout must be positive"))
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres, DriverMySQL:
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.dsn is required for driver %s", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of memory, postgres, mysql", c.Storage.Driver))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.ConsumerGroup == "" {
		errs = append(errs, errors.New("kafka.consumer_group is required with kafka.brokers"))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level. Call after Validate.
func (c *Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
