// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Store capacities
	MetricSeriesCapacity int `mapstructure:"metricseriescapacity"`
	EventStoreCapacity   int `mapstructure:"eventstorecapacity"`
	ClickStoreCapacity   int `mapstructure:"clickstorecapacity"`

	// Monitoring settings
	MonitorIntervalSeconds int `mapstructure:"monitorintervalseconds"`
	MetricRetentionHours   int `mapstructure:"metricretentionhours"`
	AlertRetentionDays     int `mapstructure:"alertretentiondays"`

	// Alert dispatch settings
	AlertWebhookURL        string `mapstructure:"alertwebhookurl"`
	ChatWebhookURL         string `mapstructure:"chatwebhookurl"`
	DispatchTimeoutSeconds int    `mapstructure:"dispatchtimeoutseconds"`
	ServiceTag             string `mapstructure:"servicetag"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		// Set defaults
		v.SetDefault("appname", "velura")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("metricseriescapacity", 1000)
		v.SetDefault("eventstorecapacity", 10000)
		v.SetDefault("clickstorecapacity", 10000)
		v.SetDefault("monitorintervalseconds", 30)
		v.SetDefault("metricretentionhours", 24)
		v.SetDefault("alertretentiondays", 7)
		v.SetDefault("dispatchtimeoutseconds", 10)
		v.SetDefault("servicetag", "velura-storefront")

		// Bind environment variables
		v.BindEnv("appname", "VELURA_APP_NAME")
		v.BindEnv("appport", "VELURA_APP_PORT")
		v.BindEnv("environment", "VELURA_ENV")
		v.BindEnv("loglevel", "VELURA_LOG_LEVEL")
		v.BindEnv("logsdir", "VELURA_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "VELURA_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "VELURA_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "VELURA_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("metricseriescapacity", "VELURA_METRIC_SERIES_CAPACITY")
		v.BindEnv("eventstorecapacity", "VELURA_EVENT_STORE_CAPACITY")
		v.BindEnv("clickstorecapacity", "VELURA_CLICK_STORE_CAPACITY")
		v.BindEnv("monitorintervalseconds", "VELURA_MONITOR_INTERVAL_SECONDS")
		v.BindEnv("metricretentionhours", "VELURA_METRIC_RETENTION_HOURS")
		v.BindEnv("alertretentiondays", "VELURA_ALERT_RETENTION_DAYS")
		v.BindEnv("alertwebhookurl", "VELURA_ALERT_WEBHOOK_URL")
		v.BindEnv("chatwebhookurl", "VELURA_CHAT_WEBHOOK_URL")
		v.BindEnv("dispatchtimeoutseconds", "VELURA_DISPATCH_TIMEOUT_SECONDS")
		v.BindEnv("servicetag", "VELURA_SERVICE_TAG")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		// Validate
		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	if c.MetricSeriesCapacity <= 0 {
		return fmt.Errorf("metric series capacity must be positive, got %d", c.MetricSeriesCapacity)
	}
	if c.EventStoreCapacity <= 0 {
		return fmt.Errorf("event store capacity must be positive, got %d", c.EventStoreCapacity)
	}
	if c.MonitorIntervalSeconds <= 0 {
		return fmt.Errorf("monitor interval must be positive, got %d", c.MonitorIntervalSeconds)
	}

	return nil
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetPort returns the HTTP server port
func (c *Config) GetPort() string {
	return c.AppPort
}

// GetLogLevel returns the log level as a string
func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

// MonitorInterval returns the alert evaluation interval as a duration.
func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.MonitorIntervalSeconds) * time.Second
}

// MetricRetention returns how long metric points are kept before cleanup.
func (c *Config) MetricRetention() time.Duration {
	return time.Duration(c.MetricRetentionHours) * time.Hour
}

// AlertRetention returns how long resolved and stale alerts are kept.
func (c *Config) AlertRetention() time.Duration {
	return time.Duration(c.AlertRetentionDays) * 24 * time.Hour
}

// DispatchTimeout returns the per-dispatch HTTP timeout for alert sinks.
func (c *Config) DispatchTimeout() time.Duration {
	return time.Duration(c.DispatchTimeoutSeconds) * time.Second
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
