package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Redis.Port != DefaultPort {
		t.Errorf("Redis.Port = %d, want %d", cfg.Server.Redis.Port, DefaultPort)
	}
	if cfg.Server.Redis.Bind != DefaultBind {
		t.Errorf("Redis.Bind = %q, want %q", cfg.Server.Redis.Bind, DefaultBind)
	}
	if cfg.Server.Redis.Addr() != "127.0.0.1:6379" {
		t.Errorf("Redis.Addr() = %q, want 127.0.0.1:6379", cfg.Server.Redis.Addr())
	}
	if cfg.Server.Redis.RateLimit != 0 {
		t.Errorf("Redis.RateLimit = %d, want 0", cfg.Server.Redis.RateLimit)
	}
	if cfg.Replication.IsReplica() {
		t.Error("default config should be a primary")
	}
	if cfg.Replication.ConnectTimeout != DefaultConnectTimeout {
		t.Errorf("ConnectTimeout = %v, want %v", cfg.Replication.ConnectTimeout, DefaultConnectTimeout)
	}
	if cfg.Metrics.Addr != "" {
		t.Errorf("Metrics.Addr = %q, want empty", cfg.Metrics.Addr)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) error = %v", err)
	}
}

func TestRedisConfig_AddrIPv6(t *testing.T) {
	c := RedisConfig{Bind: "::1", Port: 6380}
	if got := c.Addr(); got != "[::1]:6380" {
		t.Errorf("Addr() = %q, want [::1]:6380", got)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{"defaults", func(*ServerConfig) {}, ""},
		{"port zero", func(c *ServerConfig) { c.Server.Redis.Port = 0 }, "server.redis.port"},
		{"port too large", func(c *ServerConfig) { c.Server.Redis.Port = 70000 }, "server.redis.port"},
		{"empty bind", func(c *ServerConfig) { c.Server.Redis.Bind = "" }, "server.redis.bind"},
		{"negative rate limit", func(c *ServerConfig) { c.Server.Redis.RateLimit = -1 }, "rate_limit"},
		{"negative idle timeout", func(c *ServerConfig) { c.Server.Redis.IdleTimeout = -time.Second }, "timeouts"},
		{"replica host port", func(c *ServerConfig) { c.Replication.ReplicaOf = "localhost 6379" }, ""},
		{"replica bad addr", func(c *ServerConfig) { c.Replication.ReplicaOf = "localhost" }, "replication.replicaof"},
		{
			"replica zero timeout",
			func(c *ServerConfig) {
				c.Replication.ReplicaOf = "localhost:6379"
				c.Replication.ReadTimeout = 0
			},
			"read_timeout",
		},
		{"primary ignores timeouts", func(c *ServerConfig) { c.Replication.ReadTimeout = 0 }, ""},
		{"metrics addr", func(c *ServerConfig) { c.Metrics.Addr = ":9121" }, ""},
		{"metrics bad addr", func(c *ServerConfig) { c.Metrics.Addr = "9121" }, "metrics.addr"},
		{"bad log level", func(c *ServerConfig) { c.Log.Level = "chatty" }, "log.level"},
		{"bad log format", func(c *ServerConfig) { c.Log.Format = "xml" }, "log.format"},
		{"json log format", func(c *ServerConfig) { c.Log.Format = "json" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Verify(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Verify() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Verify() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_NormalizesReplicaOf(t *testing.T) {
	cfg := Default()
	cfg.Replication.ReplicaOf = "10.0.0.5 6380"

	if err := Verify(cfg); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if cfg.Replication.ReplicaOf != "10.0.0.5:6380" {
		t.Errorf("ReplicaOf = %q, want 10.0.0.5:6380", cfg.Replication.ReplicaOf)
	}
	if !cfg.Replication.IsReplica() {
		t.Error("IsReplica() = false, want true")
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			t.Errorf("duplicate key %q", k)
		}
		seen[k] = true
	}
	for _, want := range []string{"server.redis.port", "server.redis.rate_limit", "replication.replicaof", "log.level"} {
		if !seen[want] {
			t.Errorf("Keys() missing %q", want)
		}
	}
}
