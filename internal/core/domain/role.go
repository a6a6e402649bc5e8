// Package domain defines the core domain models for respkv.
package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
)

// replIDBytes is the number of random bytes behind a replication id.
const replIDBytes = 20

// Role is the replication role of this process.
type Role int

const (
	RolePrimary Role = iota
	RoleReplica
)

// String returns the role name reported by INFO.
func (r Role) String() string {
	if r == RoleReplica {
		return "slave"
	}
	return "master"
}

// ServerRole is the process-wide replication metadata.
//
// It is built once at startup and never mutated afterwards, so it is safe
// to share between connections without locking.
type ServerRole struct {
	role        Role
	replID      string
	offset      int64
	primaryAddr string
}

// NewPrimary creates primary metadata with a fresh replication id and
// offset 0.
func NewPrimary() (*ServerRole, error) {
	id, err := GenerateReplID()
	if err != nil {
		return nil, err
	}
	return &ServerRole{role: RolePrimary, replID: id}, nil
}

// NewReplica creates replica metadata pointing at primaryAddr.
func NewReplica(primaryAddr string) *ServerRole {
	return &ServerRole{role: RoleReplica, primaryAddr: primaryAddr}
}

// GenerateReplID returns 20 random bytes encoded as 40 lower-case hex chars.
func GenerateReplID() (string, error) {
	b := make([]byte, replIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate replication id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Role returns the replication role.
func (s *ServerRole) Role() Role { return s.role }

// IsReplica reports whether this process was started as a replica.
func (s *ServerRole) IsReplica() bool { return s.role == RoleReplica }

// ReplID returns the replication id (primary only).
func (s *ServerRole) ReplID() string { return s.replID }

// Offset returns the replication offset (primary only).
func (s *ServerRole) Offset() int64 { return s.offset }

// PrimaryAddr returns the configured primary address (replica only).
func (s *ServerRole) PrimaryAddr() string { return s.primaryAddr }

// ReplicationInfo returns the "replication" INFO lines.
func (s *ServerRole) ReplicationInfo() []string {
	lines := []string{"role:" + s.role.String()}
	if s.role == RolePrimary {
		lines = append(lines,
			"master_replid:"+s.replID,
			"master_repl_offset:"+strconv.FormatInt(s.offset, 10),
		)
	}
	return lines
}
