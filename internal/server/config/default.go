// Package config defines the server configuration structure.
package config

import "time"

// Default configuration values.
const (
	DefaultBind         = "127.0.0.1"
	DefaultPort         = 6379
	// DefaultWriteTimeout of zero leaves reply writes without a deadline.
	DefaultWriteTimeout time.Duration = 0

	DefaultConnectTimeout = 5 * time.Second
	DefaultReadTimeout    = 5 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Redis: RedisConfig{
				Bind:         DefaultBind,
				Port:         DefaultPort,
				WriteTimeout: DefaultWriteTimeout,
			},
		},
		Replication: ReplicationSection{
			ConnectTimeout: DefaultConnectTimeout,
			ReadTimeout:    DefaultReadTimeout,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
