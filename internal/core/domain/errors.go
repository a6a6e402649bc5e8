// Package domain defines the core domain models for respkv.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError represents a domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "RKV-PROTO-4000")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Protocol Errors (PROTO)
// ============================================================================

var (
	// ErrProtocol indicates a well-delimited frame that does not form a valid
	// command. The connection stays usable.
	ErrProtocol = NewDomainError("RKV-PROTO-4000", "protocol error")

	// ErrCorruptStream indicates the byte stream itself cannot be framed any
	// further (bad length field, missing terminator, limit exceeded).
	ErrCorruptStream = NewDomainError("RKV-PROTO-4001", "corrupt stream")
)

// ProtocolError describes one rejected frame.
//
// Consumed is the exact length of the offending frame so the caller can
// drop it and keep decoding whatever follows.
type ProtocolError struct {
	Message  string
	Consumed int
}

// NewProtocolError creates a ProtocolError for a frame of n bytes.
func NewProtocolError(n int, format string, args ...any) *ProtocolError {
	return &ProtocolError{
		Message:  fmt.Sprintf(format, args...),
		Consumed: n,
	}
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return "protocol error: " + e.Message
}

// Unwrap ties every ProtocolError to ErrProtocol.
func (e *ProtocolError) Unwrap() error {
	return ErrProtocol
}

// ============================================================================
// Replication Errors (REPL)
// ============================================================================

// ErrHandshake indicates the replica bootstrap handshake did not complete.
var ErrHandshake = NewDomainError("RKV-REPL-5020", "replica handshake failed")

// HandshakeStep names one step of the replica bootstrap.
type HandshakeStep string

const (
	StepConnect       HandshakeStep = "connect"
	StepPing          HandshakeStep = "ping"
	StepListeningPort HandshakeStep = "replconf listening-port"
	StepCapa          HandshakeStep = "replconf capa"
)

// HandshakeError reports which bootstrap step failed and why.
type HandshakeError struct {
	Step     HandshakeStep
	Primary  string
	Expected string // Expected literal reply, empty for transport failures
	Got      string // Reply actually received, if any
	Cause    error
}

// Error implements the error interface.
func (e *HandshakeError) Error() string {
	var b strings.Builder
	b.WriteString("handshake with ")
	b.WriteString(e.Primary)
	b.WriteString(" failed at ")
	b.WriteString(string(e.Step))
	if e.Expected != "" {
		fmt.Fprintf(&b, ": expected %q, got %q", e.Expected, e.Got)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes both ErrHandshake and the transport cause.
func (e *HandshakeError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrHandshake}
	}
	return []error{ErrHandshake, e.Cause}
}
