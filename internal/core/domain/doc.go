// Package domain defines the core domain models for respkv.
//
// Domain models are pure values without any IO dependencies:
//
//   - Command: the decoded request variants (PING, ECHO, INFO, SET, GET)
//   - ServerRole: process-wide replication metadata (primary or replica)
//   - Errors: structured protocol and handshake errors
package domain
