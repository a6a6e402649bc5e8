// Package config defines the server configuration structure.
package config

import (
	"net"
	"strconv"
	"time"
)

// ServerConfig is the root configuration for respkv-server.
type ServerConfig struct {
	Server      ServerSection      `koanf:"server"`
	Replication ReplicationSection `koanf:"replication"`
	Metrics     MetricsSection     `koanf:"metrics"`
	Log         LogSection         `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis RedisConfig `koanf:"redis"`
}

// RedisConfig configures the Redis protocol server.
type RedisConfig struct {
	Bind string `koanf:"bind"`
	Port int    `koanf:"port"`

	// RateLimit is the per-connection command budget per second.
	// Zero disables rate limiting.
	RateLimit int `koanf:"rate_limit"`

	// IdleTimeout closes silent connections. Zero disables it.
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// Addr returns the listen address.
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// ReplicationSection configures replica mode.
type ReplicationSection struct {
	// ReplicaOf is the primary address as "host port" or "host:port".
	// Empty means this server is a primary.
	ReplicaOf      string        `koanf:"replicaof"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
}

// IsReplica reports whether a primary is configured.
func (r ReplicationSection) IsReplica() bool {
	return r.ReplicaOf != ""
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	// Addr is the HTTP listen address for /metrics. Empty disables it.
	Addr string `koanf:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Keys lists every configuration key in dotted form.
func Keys() []string {
	return []string{
		"server.redis.bind",
		"server.redis.port",
		"server.redis.rate_limit",
		"server.redis.idle_timeout",
		"server.redis.write_timeout",
		"replication.replicaof",
		"replication.connect_timeout",
		"replication.read_timeout",
		"metrics.addr",
		"log.level",
		"log.format",
	}
}
