package doccache_test

import (
	"fmt"
	"time"

	"github.com/jonwraymond/firemcp/doccache"
)

func ExampleNew() {
	c := doccache.New(doccache.Config{TTL: time.Minute, MaxSize: 100})

	c.Set("users", "u1", map[string]any{"name": "Ada"})

	if d, ok := c.Get("users", "u1"); ok {
		fmt.Println("name:", d["name"])
	}

	// A write to the document must invalidate its entry.
	c.Invalidate("users", "u1")
	_, ok := c.Get("users", "u1")
	fmt.Println("cached after invalidate:", ok)
	// Output:
	// name: Ada
	// cached after invalidate: false
}

func ExampleCache_Stats() {
	c := doccache.New(doccache.Config{TTL: time.Minute, MaxSize: 2})

	c.Set("users", "u1", map[string]any{})
	c.Get("users", "u1")
	c.Get("users", "u2")

	s := c.Stats()
	fmt.Printf("size=%d hits=%d misses=%d ratio=%.1f\n", s.Size, s.Hits, s.Misses, s.HitRatio)
	// Output:
	// size=1 hits=1 misses=1 ratio=0.5
}
