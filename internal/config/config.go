package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	MetaAPI  MetaAPI  `mapstructure:"metaapi"`
	CTrader  CTrader  `mapstructure:"ctrader"`
	Refresh  Refresh  `mapstructure:"refresh"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
}

// MetaAPI holds the configuration for the MetaTrader cloud API.
type MetaAPI struct {
	BaseURL        string  `mapstructure:"base_url"`
	Token          string  `mapstructure:"token"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	HistoryDays    int     `mapstructure:"history_days"`
}

// CTrader holds the configuration for the cTrader API.
type CTrader struct {
	BaseURL        string  `mapstructure:"base_url"`
	Token          string  `mapstructure:"token"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Refresh holds the configuration for the broker cache refresher.
type Refresh struct {
	WaitTimeout int `mapstructure:"wait_timeout"` // seconds a caller waits for a refresh
	TTLMinutes  int `mapstructure:"ttl_minutes"`  // how long refreshed data stays fresh
	Interval    int `mapstructure:"interval"`     // background refresh loop period, seconds
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// WaitTimeoutDuration returns the caller-side refresh wait as a duration.
func (r Refresh) WaitTimeoutDuration() time.Duration {
	return time.Duration(r.WaitTimeout) * time.Second
}

// TTL returns the cache freshness window as a duration.
func (r Refresh) TTL() time.Duration {
	return time.Duration(r.TTLMinutes) * time.Minute
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("metaapi.rate_limit", 10)      // requests per second
	viper.SetDefault("metaapi.rate_limit_burst", 5) // burst size
	viper.SetDefault("metaapi.history_days", 365)
	viper.SetDefault("ctrader.rate_limit", 10)
	viper.SetDefault("ctrader.rate_limit_burst", 5)
	viper.SetDefault("refresh.wait_timeout", 15)
	viper.SetDefault("refresh.ttl_minutes", 30)
	viper.SetDefault("refresh.interval", 300)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
