// Package cmap provides a concurrent map implementation for respkv.
//
// The map is split into a power-of-two number of shards, each guarded by
// its own RWMutex. Every operation touches exactly one shard, so a write
// to one key never blocks readers of keys living in other shards.
//
// Usage:
//
//	m := cmap.New[Entry]()
//	m.Set("key", entry)
//	val, ok := m.Get("key")
package cmap
