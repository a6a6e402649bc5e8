package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/core/domain"
	"github.com/yndnr/respkv/internal/infra/buildinfo"
	"github.com/yndnr/respkv/internal/infra/confloader"
	"github.com/yndnr/respkv/internal/infra/shutdown"
	"github.com/yndnr/respkv/internal/replication"
	"github.com/yndnr/respkv/internal/server/config"
	"github.com/yndnr/respkv/internal/server/redisserver"
	"github.com/yndnr/respkv/internal/storage/memory"
	"github.com/yndnr/respkv/internal/telemetry/logger"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// serve is the CLI action: load config, bootstrap, listen, wait.
func serve(c *cli.Context) error {
	configFile := c.String("config")
	flags := flagOverrides(c)

	cfg, err := loadConfig(configFile, c.String("env-file"), flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	info := buildinfo.Get()
	log.Info("starting respkv-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	role, err := initRole(ctx, cfg, log.Slog())
	if err != nil {
		return err
	}

	store := memory.New()

	var reg *metric.Registry
	if cfg.Metrics.Addr != "" {
		reg = metric.NewRegistry()
		reg.RegisterKeyspace(store.Len)
	}

	srv := redisserver.New(&redisserver.Config{
		Address:      cfg.Server.Redis.Addr(),
		RateLimit:    cfg.Server.Redis.RateLimit,
		IdleTimeout:  cfg.Server.Redis.IdleTimeout,
		WriteTimeout: cfg.Server.Redis.WriteTimeout,
	}, store, role, log.Slog(), redisserver.WithMetrics(reg))

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start redis server: %w", err)
	}

	// Hooks run in reverse order of registration.
	shutdownHandler := shutdown.NewHandler(shutdownTimeout)
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down redis server")
		return srv.Shutdown(ctx)
	})

	if reg != nil {
		metricsSrv, err := startMetrics(reg, cfg.Metrics.Addr, log)
		if err != nil {
			_ = shutdownHandler.Shutdown()
			return err
		}
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down metrics server")
			return metricsSrv.Shutdown(ctx)
		})
	}

	if configFile != "" {
		watcher, err := watchLogLevel(configFile, c.String("env-file"), flags, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	log.Info("server started, press Ctrl+C to stop",
		"role", role.Role().String(),
		"addr", srv.Addr().String())

	if err := shutdownHandler.WaitContext(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig layers defaults, file, env and flags, then verifies.
func loadConfig(configFile, envFile string, flags map[string]any) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{
		confloader.WithKnownKeys(config.Keys()...),
	}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if envFile != "" {
		opts = append(opts, confloader.WithEnvFile(envFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg, flags); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initLogger initializes the structured logger and makes it the default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// initRole returns the primary role, or runs the replica handshake and
// returns the replica role. A failed handshake is returned as is so the
// caller exits before the listener opens.
func initRole(ctx context.Context, cfg *config.ServerConfig, log *slog.Logger) (*domain.ServerRole, error) {
	if !cfg.Replication.IsReplica() {
		return domain.NewPrimary()
	}

	err := replication.Bootstrap(ctx, &replication.Config{
		PrimaryAddr:    cfg.Replication.ReplicaOf,
		ListeningPort:  cfg.Server.Redis.Port,
		ConnectTimeout: cfg.Replication.ConnectTimeout,
		ReadTimeout:    cfg.Replication.ReadTimeout,
		Logger:         log,
	})
	if err != nil {
		var herr *domain.HandshakeError
		if errors.As(err, &herr) {
			log.Error("replica handshake failed",
				"primary", herr.Primary,
				"step", string(herr.Step),
				"expected", herr.Expected,
				"got", herr.Got)
		}
		return nil, err
	}

	return domain.NewReplica(cfg.Replication.ReplicaOf), nil
}

// startMetrics binds addr and serves /metrics in the background.
func startMetrics(reg *metric.Registry, addr string, log logger.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen metrics: %w", err)
	}

	srv := reg.NewServer(addr)
	go func() {
		log.Info("metrics server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", "error", err)
		}
	}()
	return srv, nil
}

// watchLogLevel reloads the config on file changes and applies log.level.
// Other settings need a restart.
func watchLogLevel(configFile, envFile string, flags map[string]any, log logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog()))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(configFile); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		cfg, err := loadConfig(configFile, envFile, flags)
		if err != nil {
			log.Warn("ignoring invalid configuration change", "error", err)
			return
		}
		if cfg.Log.Level == logger.GetLevel() {
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("ignoring log level change", "error", err)
			return
		}
		log.Info("log level changed", "level", cfg.Log.Level)
	})

	w.StartAsync()
	return w, nil
}
