package config

import "time"

// Settings holds the values shared by every request. Limit and Offset are the
// fallbacks used when a request does not carry its own pagination.
type Settings struct {
	Limit           int           `mapstructure:"limit" validate:"gt=0"`
	Offset          int           `mapstructure:"offset" validate:"gte=0"`
	Addr            string        `mapstructure:"addr" validate:"required,hostname_port"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=trace debug info warn error"`
	LogFormat       string        `mapstructure:"log_format" validate:"required,oneof=json console"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

const (
	DefaultLimit           = 20
	DefaultOffset          = 0
	DefaultAddr            = "0.0.0.0:8080"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultShutdownTimeout = 10 * time.Second
)

// Default returns the settings used when nothing is configured.
func Default() *Settings {
	return &Settings{
		Limit:           DefaultLimit,
		Offset:          DefaultOffset,
		Addr:            DefaultAddr,
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}
