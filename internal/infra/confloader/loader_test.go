package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Server struct {
		Redis struct {
			Bind      string `koanf:"bind"`
			Port      int    `koanf:"port"`
			RateLimit int    `koanf:"rate_limit"`
		} `koanf:"redis"`
	} `koanf:"server"`
	Replication struct {
		ReplicaOf   string        `koanf:"replicaof"`
		ReadTimeout time.Duration `koanf:"read_timeout"`
	} `koanf:"replication"`
}

var testKeys = []string{
	"server.redis.bind",
	"server.redis.port",
	"server.redis.rate_limit",
	"replication.replicaof",
	"replication.read_timeout",
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l == nil {
		t.Fatal("NewLoader() returned nil")
	}
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}
}

func TestNewLoader_WithOptions(t *testing.T) {
	l := NewLoader(
		WithEnvPrefix("TEST_"),
		WithConfigFile("/path/to/config.yaml"),
		WithEnvFile("/path/to/.env"),
		WithKnownKeys("server.redis.rate_limit"),
	)

	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.filePath != "/path/to/config.yaml" {
		t.Errorf("filePath = %q", l.filePath)
	}
	if l.envFile != "/path/to/.env" {
		t.Errorf("envFile = %q", l.envFile)
	}
	if l.knownKeys["server_redis_rate_limit"] != "server.redis.rate_limit" {
		t.Errorf("knownKeys = %v", l.knownKeys)
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  redis:
    bind: "0.0.0.0"
    port: 6380
replication:
  read_timeout: 2s
`)

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if got := l.k.String("server.redis.bind"); got != "0.0.0.0" {
		t.Errorf("server.redis.bind = %q", got)
	}
	if got := l.k.Int("server.redis.port"); got != 6380 {
		t.Errorf("server.redis.port = %d", got)
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
}

func TestLoader_LoadFile_Empty(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") error = %v", err)
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("RESPKV_SERVER_REDIS_PORT", "7000")
	t.Setenv("RESPKV_SERVER_REDIS_RATE_LIMIT", "50")

	l := NewLoader(WithKnownKeys(testKeys...))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	if got := l.k.String("server.redis.port"); got != "7000" {
		t.Errorf("server.redis.port = %q, want 7000", got)
	}
	if got := l.k.String("server.redis.rate_limit"); got != "50" {
		t.Errorf("server.redis.rate_limit = %q, want 50", got)
	}
}

func TestLoader_LoadEnv_UnknownKeyFallsBack(t *testing.T) {
	t.Setenv("RESPKV_LOG_LEVEL", "debug")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := l.k.String("log.level"); got != "debug" {
		t.Errorf("log.level = %q, want debug", got)
	}
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("CUSTOM_SERVER_REDIS_BIND", "10.0.0.1")

	l := NewLoader(WithEnvPrefix("CUSTOM_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := l.k.String("server.redis.bind"); got != "10.0.0.1" {
		t.Errorf("server.redis.bind = %q, want 10.0.0.1", got)
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{
		"server.redis.port":     6390,
		"replication.replicaof": "localhost 6379",
	}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	if got := l.k.Int("server.redis.port"); got != 6390 {
		t.Errorf("server.redis.port = %d, want 6390", got)
	}
	if got := l.k.String("replication.replicaof"); got != "localhost 6379" {
		t.Errorf("replication.replicaof = %q", got)
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  redis:
    bind: "file-host"
    port: 1111
    rate_limit: 10
`)
	t.Setenv("RESPKV_SERVER_REDIS_PORT", "2222")
	t.Setenv("RESPKV_SERVER_REDIS_RATE_LIMIT", "20")

	l := NewLoader(WithConfigFile(path), WithKnownKeys(testKeys...))

	var cfg testConfig
	flags := map[string]any{"server.redis.port": 3333}
	if err := l.Load(&cfg, flags); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Redis.Bind != "file-host" {
		t.Errorf("Bind = %q, want file-host", cfg.Server.Redis.Bind)
	}
	if cfg.Server.Redis.RateLimit != 20 {
		t.Errorf("RateLimit = %d, want 20 (env over file)", cfg.Server.Redis.RateLimit)
	}
	if cfg.Server.Redis.Port != 3333 {
		t.Errorf("Port = %d, want 3333 (flag over env)", cfg.Server.Redis.Port)
	}
}

func TestLoader_Load_KeepsDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  redis:
    port: 6385
`)

	var cfg testConfig
	cfg.Server.Redis.Bind = "127.0.0.1"
	cfg.Replication.ReadTimeout = 5 * time.Second

	l := NewLoader(WithConfigFile(path))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Redis.Bind != "127.0.0.1" {
		t.Errorf("Bind = %q, want default kept", cfg.Server.Redis.Bind)
	}
	if cfg.Replication.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want default kept", cfg.Replication.ReadTimeout)
	}
	if cfg.Server.Redis.Port != 6385 {
		t.Errorf("Port = %d, want 6385", cfg.Server.Redis.Port)
	}
}

func TestLoader_Load_Duration(t *testing.T) {
	path := writeFile(t, "config.yaml", `
replication:
  read_timeout: 250ms
`)

	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Replication.ReadTimeout != 250*time.Millisecond {
		t.Errorf("ReadTimeout = %v, want 250ms", cfg.Replication.ReadTimeout)
	}
}

func TestLoader_Load_EnvFile(t *testing.T) {
	envPath := writeFile(t, ".env", "RESPKV_REPLICATION_REPLICAOF=primary 6379\n")
	t.Cleanup(func() { os.Unsetenv("RESPKV_REPLICATION_REPLICAOF") })

	var cfg testConfig
	l := NewLoader(WithEnvFile(envPath), WithKnownKeys(testKeys...))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Replication.ReplicaOf != "primary 6379" {
		t.Errorf("ReplicaOf = %q, want %q", cfg.Replication.ReplicaOf, "primary 6379")
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("LoadEnvFile(missing) error = %v", err)
	}
}
