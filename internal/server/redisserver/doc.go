// Package redisserver provides a Redis protocol compatible server for respkv.
//
// It speaks the RESP2 request format (arrays of bulk strings) and answers
// a small command set:
//   - PING, ECHO
//   - SET (with optional PX), GET
//   - INFO (replication section)
//
// Decoding is incremental. A session buffers bytes until a whole frame is
// present, so requests may be split across reads or pipelined several to
// a read. Malformed frames that are still well delimited get an error
// reply and the connection stays open; a stream that cannot be framed is
// closed.
//
// All connections share one keyspace.
package redisserver
