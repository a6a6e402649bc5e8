package redisserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/respkv/internal/core/domain"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

// Config holds the Redis server configuration.
type Config struct {
	// Address is the TCP listen address.
	Address string
	// RateLimit is the maximum number of commands per second per connection.
	// Set to 0 to disable rate limiting.
	RateLimit int
	// IdleTimeout closes connections that send nothing for this long.
	// Zero keeps idle connections open indefinitely.
	IdleTimeout time.Duration
	// WriteTimeout bounds writing the replies of one read batch.
	// Zero disables the deadline.
	WriteTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:      "127.0.0.1:6379",
		RateLimit:    0,
		IdleTimeout:  0,
		WriteTimeout: 0,
	}
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records connection and command metrics into m.
func WithMetrics(m *metric.Registry) Option {
	return func(s *Server) { s.metrics = m }
}

// Server represents the Redis protocol server.
type Server struct {
	cfg        *Config
	dispatcher *Dispatcher
	logger     *slog.Logger
	metrics    *metric.Registry

	ln      net.Listener
	running atomic.Bool
	closed  atomic.Bool
	wg      sync.WaitGroup

	connMu sync.Mutex
	conns  map[net.Conn]struct{}
}

// New creates a new Redis protocol server. All connections share store.
func New(cfg *Config, store Keyspace, role *domain.ServerRole, logger *slog.Logger, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:        cfg,
		dispatcher: NewDispatcher(store, role),
		logger:     logger,
		conns:      make(map[net.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listen binds the listen address without accepting connections yet.
func (s *Server) Listen() error {
	if s.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Start binds the listener and accepts connections in the background.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	if !s.markRunning() {
		return errors.New("redis server is shut down")
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.serve(ctx); err != nil {
			s.logger.Error("redis server error", "error", err)
		}
	}()
	return nil
}

// Serve accepts connections until the listener is closed. Each connection
// is served on its own goroutine. It returns nil at once if Shutdown has
// already run.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	if !s.markRunning() {
		return nil
	}
	return s.serve(ctx)
}

func (s *Server) serve(ctx context.Context) error {
	s.logger.Info("redis server listening", "address", s.ln.Addr().String())
	return s.acceptLoop(ctx, s.ln)
}

// markRunning flips the server to running unless Shutdown got there first.
func (s *Server) markRunning() bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.closed.Load() {
		return false
	}
	s.running.Store(true)
	return true
}

// Shutdown stops accepting connections, closes open ones and waits for
// their goroutines to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.connMu.Lock()
	s.closed.Store(true)
	s.running.Store(false)
	s.connMu.Unlock()

	var firstErr error
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}

	s.connMu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.connMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		if !s.track(c) {
			_ = c.Close()
			continue
		}
		s.metrics.ConnectionOpened()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.metrics.ConnectionClosed()
			defer s.untrack(c)
			s.newSession(c).serve(ctx)
		}()
	}
}

// track registers c for Shutdown. It refuses once shutdown has begun.
func (s *Server) track(c net.Conn) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if !s.running.Load() || s.closed.Load() {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.connMu.Lock()
	delete(s.conns, c)
	s.connMu.Unlock()
}
