// Command respkv-server runs the respkv in-memory key-value server.
//
// Usage:
//
//	respkv-server [--port 6379] [--replicaof "host port"] [--config respkv.yaml]
//
// With --replicaof the server performs the replica handshake against the
// primary before it opens its own port, and exits non-zero if the
// handshake fails.
package main
