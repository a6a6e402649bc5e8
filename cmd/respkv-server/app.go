package main

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "respkv-server",
		Usage:   "In-memory key-value server speaking the Redis protocol",
		Version: buildinfo.String(),
		Flags:   serverFlags(),
		Action:  serve,
	}
}

func serverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML configuration file",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Path to a dotenv file with RESPKV_ variables",
			Value: ".env",
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to listen on",
		},
		&cli.StringFlag{
			Name:  "bind",
			Usage: "Address to bind",
		},
		&cli.StringFlag{
			Name:  "replicaof",
			Usage: `Run as a replica of the given primary ("host port" or host:port)`,
		},
		&cli.IntFlag{
			Name:  "rate-limit",
			Usage: "Per-connection commands per second (0 disables)",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Address for the Prometheus /metrics endpoint",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
		},
	}
}

// flagOverrides returns the explicitly set flags as configuration keys.
// Unset flags are omitted so they do not mask file or env values.
func flagOverrides(c *cli.Context) map[string]any {
	m := make(map[string]any)

	ints := map[string]string{
		"port":       "server.redis.port",
		"rate-limit": "server.redis.rate_limit",
	}
	for flag, key := range ints {
		if c.IsSet(flag) {
			m[key] = c.Int(flag)
		}
	}

	strs := map[string]string{
		"bind":         "server.redis.bind",
		"replicaof":    "replication.replicaof",
		"metrics-addr": "metrics.addr",
		"log-level":    "log.level",
		"log-format":   "log.format",
	}
	for flag, key := range strs {
		if c.IsSet(flag) {
			m[key] = c.String(flag)
		}
	}

	return m
}
