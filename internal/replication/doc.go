// Package replication implements the replica side of the primary/replica
// bootstrap handshake.
//
// A server started with a primary address runs Bootstrap before it opens
// its own listener:
//
//	PING                           -> +PONG
//	REPLCONF listening-port <port> -> +OK
//	REPLCONF capa psync2           -> +OK
//
// Any other reply, or a transport failure at any step, yields a
// *domain.HandshakeError naming the step. The entry point treats that as
// fatal. Command stream propagation after the handshake is not
// implemented.
package replication
