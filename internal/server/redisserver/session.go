package redisserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/respkv/internal/core/domain"
	"github.com/yndnr/respkv/internal/telemetry/metric"
)

// readChunk is the size of a single socket read.
const readChunk = 4096

// session serves one client connection.
//
// Bytes are appended to buf as they arrive and every complete frame is
// decoded and answered in order. Partial frames stay buffered until the
// rest arrives, so a request may span any number of reads.
type session struct {
	id      string
	conn    net.Conn
	buf     []byte
	bw      *bufio.Writer
	limiter *rate.Limiter

	srv    *Server
	logger *slog.Logger
}

func (s *Server) newSession(c net.Conn) *session {
	id := ulid.Make().String()
	ss := &session{
		id:     id,
		conn:   c,
		bw:     bufio.NewWriter(c),
		srv:    s,
		logger: s.logger.With("conn_id", id, "remote", c.RemoteAddr().String()),
	}
	if s.cfg.RateLimit > 0 {
		ss.limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), s.cfg.RateLimit)
	}
	return ss
}

func (ss *session) serve(ctx context.Context) {
	defer ss.conn.Close()

	ss.logger.Debug("connection opened")
	defer ss.logger.Debug("connection closed")

	chunk := make([]byte, readChunk)
	for {
		if ctx.Err() != nil {
			return
		}
		if idle := ss.srv.cfg.IdleTimeout; idle > 0 {
			if err := ss.conn.SetReadDeadline(time.Now().Add(idle)); err != nil {
				return
			}
		}

		n, err := ss.conn.Read(chunk)
		if n > 0 {
			ss.buf = append(ss.buf, chunk[:n]...)
			// Large replies hit the socket before Flush; the deadline
			// covers every write of the batch.
			if werr := ss.armWriteDeadline(); werr != nil {
				ss.logger.Debug("set write deadline failed", "error", werr)
				return
			}
			keep, werr := ss.process()
			if werr == nil {
				werr = ss.bw.Flush()
			}
			if werr != nil {
				ss.logger.Debug("write failed", "error", werr)
				return
			}
			if !keep {
				return
			}
		}
		if err != nil {
			ss.logReadError(err)
			return
		}
	}
}

// process answers every complete frame in buf. It returns false when the
// stream is corrupt and the connection must be closed, and stops at the
// first failed write.
func (ss *session) process() (bool, error) {
	off := 0
	defer func() {
		ss.buf = ss.buf[:copy(ss.buf, ss.buf[off:])]
	}()

	for off < len(ss.buf) {
		cmd, n, err := Decode(ss.buf[off:])
		if err == nil {
			off += n
			if werr := ss.execute(cmd); werr != nil {
				return false, werr
			}
			continue
		}
		if errors.Is(err, ErrIncomplete) {
			return true, nil
		}

		var perr *domain.ProtocolError
		if errors.As(err, &perr) {
			off += perr.Consumed
			ss.srv.metrics.ProtocolError(metric.KindFrame)
			ss.logger.Debug("rejected frame", "error", perr.Message)
			if werr := WriteError(ss.bw, "ERR "+perr.Message); werr != nil {
				return false, werr
			}
			continue
		}

		ss.srv.metrics.ProtocolError(metric.KindCorrupt)
		ss.logger.Warn("corrupt stream, closing connection",
			"code", domain.GetErrorCode(err),
			"error", err)
		off = len(ss.buf)
		return false, WriteError(ss.bw, "ERR Protocol error: "+corruptDetail(err))
	}
	return true, nil
}

func (ss *session) execute(cmd domain.Command) error {
	name := cmd.Name()

	if ss.limiter != nil && !ss.limiter.Allow() {
		ss.srv.metrics.ObserveCommand(name, metric.ResultRateLimited, 0)
		return WriteError(ss.bw, "ERR rate limit exceeded")
	}

	start := time.Now()
	reply := ss.srv.dispatcher.Dispatch(cmd)
	elapsed := time.Since(start)

	result := metric.ResultOK
	if reply.Kind == ReplyError {
		result = metric.ResultError
	}
	ss.srv.metrics.ObserveCommand(name, result, elapsed)

	if ss.logger.Enabled(context.Background(), slog.LevelDebug) {
		ss.logCommand(cmd, elapsed)
	}

	return reply.Write(ss.bw)
}

func (ss *session) logCommand(cmd domain.Command, elapsed time.Duration) {
	switch c := cmd.(type) {
	case domain.Set:
		ss.logger.Debug("command", "name", c.Name(), "key", c.Key, "value", string(c.Value), "ttl", c.TTL, "elapsed", elapsed)
	case domain.Get:
		ss.logger.Debug("command", "name", c.Name(), "key", c.Key, "elapsed", elapsed)
	default:
		ss.logger.Debug("command", "name", c.Name(), "elapsed", elapsed)
	}
}

// armWriteDeadline applies WriteTimeout to the batch about to be written.
func (ss *session) armWriteDeadline() error {
	wt := ss.srv.cfg.WriteTimeout
	if wt <= 0 {
		return nil
	}
	return ss.conn.SetWriteDeadline(time.Now().Add(wt))
}

func (ss *session) logReadError(err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		ss.logger.Debug("connection timed out")
		return
	}
	ss.logger.Debug("connection read error", "error", err)
}

func corruptDetail(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) && de.Details != "" {
		return de.Details
	}
	return err.Error()
}
