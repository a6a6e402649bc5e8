package benchmark

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/yndnr/respkv/internal/storage/memory"
)

// BenchmarkServerSetGet benchmarks SET then GET round trips over TCP.
func BenchmarkServerSetGet(b *testing.B) {
	client := startServer(b, memory.New())
	ctx := context.Background()
	value := newValue(64)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		key := strconv.Itoa(i % 10000)
		if err := client.Set(ctx, key, value, 0).Err(); err != nil {
			b.Fatalf("SET failed: %v", err)
		}
		if err := client.Get(ctx, key).Err(); err != nil {
			b.Fatalf("GET failed: %v", err)
		}
	}
}

// BenchmarkServerParallel benchmarks concurrent clients.
func BenchmarkServerParallel(b *testing.B) {
	store := memory.New()
	keys := prefillStore(store, 10000)
	client := startServer(b, store)
	value := newValue(64)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		i := 0
		for pb.Next() {
			key := keys[i%len(keys)]
			var err error
			if i%4 == 0 {
				err = client.Set(ctx, key, value, 0).Err()
			} else {
				err = client.Get(ctx, key).Err()
			}
			if err != nil {
				b.Errorf("command failed: %v", err)
				return
			}
			i++
		}
	})
}

// BenchmarkServerPipeline benchmarks pipelined SET batches.
func BenchmarkServerPipeline(b *testing.B) {
	for _, depth := range []int{10, 100} {
		b.Run(fmt.Sprintf("depth_%d", depth), func(b *testing.B) {
			client := startServer(b, memory.New())
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				pipe := client.Pipeline()
				for j := 0; j < depth; j++ {
					pipe.Set(ctx, strconv.Itoa(j), "v", 0)
				}
				if _, err := pipe.Exec(ctx); err != nil {
					b.Fatalf("pipeline failed: %v", err)
				}
			}
		})
	}
}
