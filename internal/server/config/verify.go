// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/yndnr/respkv/internal/replication"
	"github.com/yndnr/respkv/internal/telemetry/logger"
)

// Verify validates the configuration.
//
// A valid replication.replicaof is rewritten to its "host:port" form.
func Verify(cfg *ServerConfig) error {
	if err := verifyRedis(&cfg.Server.Redis); err != nil {
		return err
	}
	if err := verifyReplication(&cfg.Replication); err != nil {
		return err
	}
	if err := verifyMetrics(&cfg.Metrics); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyRedis(cfg *RedisConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("server.redis.port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.Bind == "" {
		return errors.New("server.redis.bind is required")
	}
	if cfg.RateLimit < 0 {
		return errors.New("server.redis.rate_limit must not be negative")
	}
	if cfg.IdleTimeout < 0 || cfg.WriteTimeout < 0 {
		return errors.New("server.redis timeouts must not be negative")
	}
	return nil
}

func verifyReplication(cfg *ReplicationSection) error {
	if !cfg.IsReplica() {
		return nil
	}

	addr, err := replication.NormalizeAddr(cfg.ReplicaOf)
	if err != nil {
		return fmt.Errorf("replication.replicaof: %w", err)
	}
	cfg.ReplicaOf = addr

	if cfg.ConnectTimeout <= 0 {
		return errors.New("replication.connect_timeout must be positive")
	}
	if cfg.ReadTimeout <= 0 {
		return errors.New("replication.read_timeout must be positive")
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if cfg.Addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("metrics.addr: %w", err)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "text", "console", "json":
		return nil
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
}
