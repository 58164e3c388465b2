package config

import "time"

// Broker backend names accepted in configuration.
const (
	BrokerMemory = "memory"
	BrokerRedis  = "redis"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	JWTSecret         string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer         string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience       string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	Broker            string        `mapstructure:"broker" yaml:"broker"`
	RedisAddr         string        `mapstructure:"redis_addr" yaml:"redis_addr"`

	// NotifyOnEnterLeave controls whether enter/leave notifications are
	// broadcast to room members at all.
	NotifyOnEnterLeave bool `mapstructure:"notify_on_enter_leave" yaml:"notify_on_enter_leave"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		DatabasePath:       "chatter.db",
		JWTSecret:          "change-me",
		JWTIssuer:          "chatter",
		JWTAudience:        "chatter-clients",
		Broker:             BrokerMemory,
		RedisAddr:          "localhost:6379",
		NotifyOnEnterLeave: true,
	}
}
