package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/yndnr/respkv/internal/core/domain"
	"github.com/yndnr/respkv/internal/server/redisserver"
	"github.com/yndnr/respkv/internal/storage/memory"
)

// KeyCounts defines the keyspace sizes for benchmarking.
var KeyCounts = []int{5000, 10000, 50000, 100000, 500000}

// SmallKeyCounts for quick benchmarks.
var SmallKeyCounts = []int{1000, 10000, 100000}

// ValueSizes defines payload sizes in bytes.
var ValueSizes = []int{16, 256, 4096}

func newKey() string {
	return "key:" + ulid.Make().String()
}

func newValue(size int) []byte {
	v := make([]byte, size)
	for i := range v {
		v[i] = byte('a' + i%26)
	}
	return v
}

// prefillStore writes count keys with 64-byte values and returns the keys.
func prefillStore(store *memory.Store, count int) []string {
	keys := make([]string, count)
	value := newValue(64)
	for i := range keys {
		keys[i] = newKey()
		store.Put(keys[i], value)
	}
	return keys
}

// startServer runs a server on a random port and returns a go-redis client
// connected to it.
func startServer(b *testing.B, store *memory.Store) *redis.Client {
	b.Helper()

	role, err := domain.NewPrimary()
	if err != nil {
		b.Fatalf("NewPrimary failed: %v", err)
	}

	cfg := redisserver.DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := redisserver.New(cfg, store, role, logger)
	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		cancel()
		b.Fatalf("Start failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     srv.Addr().String(),
		Protocol: 2,
		PoolSize: runtime.GOMAXPROCS(0) * 2,
	})

	b.Cleanup(func() {
		_ = client.Close()
		_ = srv.Shutdown(context.Background())
		cancel()
	})
	return client
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithKeyCounts runs a benchmark function with various keyspace sizes.
func runWithKeyCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("keys_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
