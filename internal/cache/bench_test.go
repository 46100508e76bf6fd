package cache

import (
	"strconv"
	"testing"
)

func BenchmarkCacheHit(b *testing.B) {
	c := New[string, int]()
	for i := 0; i < 100; i++ {
		k := strconv.Itoa(i)
		_, _, _ = c.GetOrCreate(k, func() (int, error) { return i, nil })
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = c.GetOrCreate("50", func() (int, error) { return 50, nil })
	}
}

func BenchmarkCacheGetOrCreate(b *testing.B) {
	c := New[string, int]()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = c.GetOrCreate(strconv.Itoa(i%100), func() (int, error) {
			return i, nil
		})
	}
}

func BenchmarkCacheParallel(b *testing.B) {
	c := New[int, int]()
	for i := 0; i < 1000; i++ {
		_, _, _ = c.GetOrCreate(i, func() (int, error) { return i, nil })
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _, _ = c.GetOrCreate(i%1000, func() (int, error) { return i, nil })
			i++
		}
	})
}
