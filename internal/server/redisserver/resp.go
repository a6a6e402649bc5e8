package redisserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/respkv/internal/core/domain"
)

// Protocol limits to prevent unbounded buffering.
const (
	// MaxArrayLen limits the number of elements in a request array.
	MaxArrayLen = 1024

	// MaxBulkLen limits the size of a single bulk string (512KB).
	MaxBulkLen = 512 * 1024

	// maxEchoedVerbLen bounds the verb quoted back in an unknown command error.
	maxEchoedVerbLen = 128

	// maxHeaderLen bounds "*<n>\r\n" and "$<n>\r\n" lines.
	maxHeaderLen = 32
)

// ErrIncomplete reports that the buffer does not yet hold a whole frame.
// Nothing was consumed and the caller should read more bytes.
var ErrIncomplete = errors.New("resp: incomplete frame")

// Decode decodes the first frame in buf.
//
// The outcomes are:
//   - a Command and the number of bytes it used
//   - ErrIncomplete with n == 0: keep buffering
//   - a *domain.ProtocolError with n == its Consumed: drop n bytes, reply
//     with an error and continue with the next frame
//   - an error matching domain.ErrCorruptStream with n == 0: the stream
//     cannot be re-synchronised and the connection should be closed
//
// Bulk payloads are copied, so the returned Command does not alias buf.
func Decode(buf []byte) (domain.Command, int, error) {
	args, n, err := splitFrame(buf)
	if err != nil {
		return nil, 0, err
	}

	cmd, perr := parseCommand(args, n)
	if perr != nil {
		return nil, n, perr
	}
	return cmd, n, nil
}

// splitFrame extracts the bulk strings of one "*<n>" array frame.
func splitFrame(buf []byte) ([][]byte, int, error) {
	if len(buf) == 0 {
		return nil, 0, ErrIncomplete
	}
	if buf[0] != '*' {
		return nil, 0, corrupt("expected '*', got %q", buf[0])
	}

	count, pos, err := readLength(buf, 1, MaxArrayLen)
	if err != nil {
		return nil, 0, err
	}

	args := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		if pos >= len(buf) {
			return nil, 0, ErrIncomplete
		}
		if buf[pos] != '$' {
			return nil, 0, corrupt("expected '$', got %q", buf[pos])
		}

		size, start, err := readLength(buf, pos+1, MaxBulkLen)
		if err != nil {
			return nil, 0, err
		}

		end := start + size
		if len(buf) < end+2 {
			return nil, 0, ErrIncomplete
		}
		if buf[end] != '\r' || buf[end+1] != '\n' {
			return nil, 0, corrupt("invalid bulk terminator")
		}

		args = append(args, bytes.Clone(buf[start:end]))
		pos = end + 2
	}

	return args, pos, nil
}

// readLength parses "<digits>\r\n" at buf[off:] and returns the value and
// the offset just past the CRLF.
func readLength(buf []byte, off, limit int) (int, int, error) {
	idx := bytes.IndexByte(buf[off:], '\n')
	if idx < 0 {
		// Reject garbage early instead of waiting for a newline that may
		// never come.
		partial := buf[off:]
		if len(partial) > maxHeaderLen {
			return 0, 0, corrupt("length line exceeds %d bytes", maxHeaderLen)
		}
		for i, c := range partial {
			if c == '\r' && i == len(partial)-1 {
				break
			}
			if c < '0' || c > '9' {
				return 0, 0, corrupt("invalid length %q", partial)
			}
		}
		return 0, 0, ErrIncomplete
	}

	line := buf[off : off+idx]
	if len(line) == 0 || line[len(line)-1] != '\r' {
		return 0, 0, corrupt("missing CRLF")
	}
	line = line[:len(line)-1]
	if len(line) > maxHeaderLen {
		return 0, 0, corrupt("length line exceeds %d bytes", maxHeaderLen)
	}
	if len(line) == 0 || !isDigits(line) {
		return 0, 0, corrupt("invalid length %q", line)
	}

	n, err := strconv.Atoi(string(line))
	if err != nil {
		return 0, 0, corrupt("invalid length %q", line)
	}
	if n > limit {
		return 0, 0, corrupt("length %d exceeds limit %d", n, limit)
	}
	return n, off + idx + 1, nil
}

func isDigits(b []byte) bool {
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func corrupt(format string, args ...any) error {
	return domain.ErrCorruptStream.WithDetails(fmt.Sprintf(format, args...))
}

// parseCommand maps the arguments of a framed request of n bytes to a
// Command.
func parseCommand(args [][]byte, n int) (domain.Command, *domain.ProtocolError) {
	if len(args) == 0 {
		return nil, domain.NewProtocolError(n, "no command")
	}

	verb := normalizeCommandName(args[0])
	rest := args[1:]

	wrongArity := func() *domain.ProtocolError {
		return domain.NewProtocolError(n, "wrong number of arguments for '%s' command", strings.ToLower(verb))
	}

	switch verb {
	case "PING":
		if len(rest) != 0 {
			return nil, wrongArity()
		}
		return domain.Ping{}, nil

	case "ECHO":
		if len(rest) != 1 {
			return nil, wrongArity()
		}
		return domain.Echo{Message: rest[0]}, nil

	case "INFO":
		switch len(rest) {
		case 0:
			return domain.Info{Section: domain.SectionAll()}, nil
		case 1:
			return domain.Info{Section: domain.NamedSection(string(rest[0]))}, nil
		default:
			return nil, wrongArity()
		}

	case "GET":
		if len(rest) != 1 {
			return nil, wrongArity()
		}
		return domain.Get{Key: string(rest[0])}, nil

	case "SET":
		return parseSet(rest, n, wrongArity)

	default:
		return nil, domain.NewProtocolError(n, "unknown command '%s'", printableVerb(args[0]))
	}
}

// parseSet handles SET <key> <value> [PX <millis>].
func parseSet(rest [][]byte, n int, wrongArity func() *domain.ProtocolError) (domain.Command, *domain.ProtocolError) {
	switch len(rest) {
	case 0, 1:
		return nil, wrongArity()
	case 2:
		return domain.Set{Key: string(rest[0]), Value: rest[1]}, nil
	case 4:
		if !strings.EqualFold(string(rest[2]), "PX") {
			return nil, domain.NewProtocolError(n, "syntax error")
		}
		ms, err := strconv.ParseInt(string(rest[3]), 10, 64)
		if err != nil {
			return nil, domain.NewProtocolError(n, "value is not an integer or out of range")
		}
		if ms < 0 || ms > math.MaxInt64/int64(time.Millisecond) {
			return nil, domain.NewProtocolError(n, "invalid expire time in 'set' command")
		}
		return domain.Set{
			Key:    string(rest[0]),
			Value:  rest[1],
			TTL:    time.Duration(ms) * time.Millisecond,
			HasTTL: true,
		}, nil
	default:
		return nil, domain.NewProtocolError(n, "syntax error")
	}
}

// printableVerb makes a client supplied verb safe to embed in a one-line
// error reply: control bytes become spaces and the length is capped.
func printableVerb(b []byte) string {
	if len(b) > maxEchoedVerbLen {
		b = b[:maxEchoedVerbLen]
	}
	out := make([]byte, len(b))
	for i, c := range b {
		if c < 0x20 || c == 0x7f {
			c = ' '
		}
		out[i] = c
	}
	return string(out)
}

func normalizeCommandName(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	// Uppercase ASCII without allocating for already uppercased tokens.
	if bytes.ContainsAny(b, "abcdefghijklmnopqrstuvwxyz") {
		return strings.ToUpper(string(b))
	}
	return string(b)
}

// ============================================================
// Reply encoding
// ============================================================

func WriteSimpleString(w *bufio.Writer, s string) error {
	_, err := w.WriteString("+" + s + "\r\n")
	return err
}

func WriteError(w *bufio.Writer, s string) error {
	_, err := w.WriteString("-" + s + "\r\n")
	return err
}

func WriteNullBulk(w *bufio.Writer) error {
	_, err := w.WriteString("$-1\r\n")
	return err
}

func WriteBulk(w *bufio.Writer, b []byte) error {
	if b == nil {
		return WriteNullBulk(w)
	}
	if _, err := w.WriteString("$" + strconv.Itoa(len(b)) + "\r\n"); err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}

func WriteArrayHeader(w *bufio.Writer, n int) error {
	_, err := w.WriteString("*" + strconv.Itoa(n) + "\r\n")
	return err
}

// WriteCommand encodes args as a request frame (array of bulk strings).
func WriteCommand(w *bufio.Writer, args ...string) error {
	if err := WriteArrayHeader(w, len(args)); err != nil {
		return err
	}
	for _, a := range args {
		if err := WriteBulk(w, []byte(a)); err != nil {
			return err
		}
	}
	return nil
}

// ReadLine reads one CRLF-terminated reply line, such as "+PONG" or
// "-ERR ...", and returns it without the terminator.
func ReadLine(r *bufio.Reader) (string, error) {
	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		if err == nil {
			buf = append(buf, frag...)
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			if len(buf) > MaxBulkLen {
				return "", corrupt("line length exceeds limit %d", MaxBulkLen)
			}
			continue
		}
		return "", err
	}

	if len(buf) < 2 || !bytes.HasSuffix(buf, []byte("\r\n")) {
		return "", corrupt("missing CRLF")
	}
	return string(buf[:len(buf)-2]), nil
}
