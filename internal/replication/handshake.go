package replication

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/respkv/internal/core/domain"
	"github.com/yndnr/respkv/internal/server/redisserver"
)

// Config holds the replica bootstrap configuration.
type Config struct {
	// PrimaryAddr is the primary's "host:port".
	PrimaryAddr string
	// ListeningPort is the port this replica will serve on, announced to
	// the primary.
	ListeningPort int
	// ConnectTimeout bounds the TCP dial.
	ConnectTimeout time.Duration
	// ReadTimeout bounds each request/reply exchange.
	ReadTimeout time.Duration
	// Logger receives progress messages. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ListeningPort:  6379,
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    5 * time.Second,
	}
}

// step is one request and the literal reply it must produce.
type step struct {
	name   domain.HandshakeStep
	args   []string
	expect string
}

func steps(port int) []step {
	return []step{
		{name: domain.StepPing, args: []string{"PING"}, expect: "+PONG"},
		{name: domain.StepListeningPort, args: []string{"REPLCONF", "listening-port", strconv.Itoa(port)}, expect: "+OK"},
		{name: domain.StepCapa, args: []string{"REPLCONF", "capa", "psync2"}, expect: "+OK"},
	}
}

// Bootstrap connects to the primary and runs the handshake. The connection
// is closed once the last step succeeds.
//
// Every failure is returned as a *domain.HandshakeError.
func Bootstrap(ctx context.Context, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("primary", cfg.PrimaryAddr)

	logger.Info("connecting to primary")

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.PrimaryAddr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		return &domain.HandshakeError{
			Step:    domain.StepConnect,
			Primary: cfg.PrimaryAddr,
			Cause:   err,
		}
	}
	defer conn.Close()

	// Unblock pending reads if ctx is cancelled mid-handshake.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)

	for _, st := range steps(cfg.ListeningPort) {
		got, err := exchange(conn, r, w, cfg.ReadTimeout, st.args)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = errors.Join(ctxErr, err)
			}
			return &domain.HandshakeError{
				Step:     st.name,
				Primary:  cfg.PrimaryAddr,
				Expected: st.expect,
				Got:      got,
				Cause:    err,
			}
		}
		if got != st.expect {
			return &domain.HandshakeError{
				Step:     st.name,
				Primary:  cfg.PrimaryAddr,
				Expected: st.expect,
				Got:      got,
			}
		}
		logger.Debug("handshake step complete", "step", string(st.name))
	}

	logger.Info("handshake with primary complete")
	return nil
}

// exchange sends one command and reads a single reply line.
func exchange(conn net.Conn, r *bufio.Reader, w *bufio.Writer, timeout time.Duration, args []string) (string, error) {
	if timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			return "", err
		}
	}
	if err := redisserver.WriteCommand(w, args...); err != nil {
		return "", fmt.Errorf("write %s: %w", args[0], err)
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("write %s: %w", args[0], err)
	}

	line, err := redisserver.ReadLine(r)
	if err != nil {
		return "", fmt.Errorf("read reply: %w", err)
	}
	return line, nil
}

// NormalizeAddr accepts a primary address as "host port" or "host:port"
// and returns "host:port".
func NormalizeAddr(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", errors.New("primary address is empty")
	}

	if fields := strings.Fields(addr); len(fields) == 2 {
		addr = net.JoinHostPort(fields[0], fields[1])
	} else if len(fields) > 2 {
		return "", fmt.Errorf("invalid primary address %q", addr)
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("invalid primary address %q: %w", addr, err)
	}
	if host == "" {
		return "", fmt.Errorf("invalid primary address %q: missing host", addr)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return "", fmt.Errorf("invalid primary address %q: bad port", addr)
	}
	return addr, nil
}
