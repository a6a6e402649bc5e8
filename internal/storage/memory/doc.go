// Package memory provides in-memory storage for respkv.
//
// Store is a single keyspace shared by all client connections. It sits on
// top of pkg/cmap, so writes to different keys contend only when they hash
// to the same shard.
//
// Expiry is lazy: a key set with a TTL keeps its entry after the deadline
// and is only hidden from readers. There is no background sweeper.
package memory
