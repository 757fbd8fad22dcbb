package doccache

import (
	"fmt"
	"testing"
	"time"
)

func BenchmarkCache_Get_Hit(b *testing.B) {
	c := New(Config{TTL: time.Hour, MaxSize: 1024})
	c.Set("users", "u1", map[string]any{"name": "bench"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get("users", "u1")
	}
}

func BenchmarkCache_Get_Miss(b *testing.B) {
	c := New(Config{TTL: time.Hour, MaxSize: 1024})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get("users", "missing")
	}
}

func BenchmarkCache_Set_WithEviction(b *testing.B) {
	c := New(Config{TTL: time.Hour, MaxSize: 128})
	docs := make([]string, 256)
	for i := range docs {
		docs[i] = fmt.Sprintf("d%d", i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set("col", docs[i%len(docs)], map[string]any{"i": i})
	}
}
