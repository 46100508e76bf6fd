package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNew(t *testing.T) {
	c := New[string, int]()
	if c == nil {
		t.Fatal("New returned nil")
	}
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d entries", c.Len())
	}
}

func TestGetOrCreateBuildsOnce(t *testing.T) {
	c := New[string, int]()
	calls := 0
	build := func() (int, error) {
		calls++
		return 42, nil
	}

	v, created, err := c.GetOrCreate("k", build)
	if err != nil || !created || v != 42 {
		t.Fatalf("first GetOrCreate = %d, %v, %v", v, created, err)
	}
	v, created, err = c.GetOrCreate("k", build)
	if err != nil || created || v != 42 {
		t.Fatalf("second GetOrCreate = %d, %v, %v", v, created, err)
	}
	if calls != 1 {
		t.Errorf("build called %d times, want 1", calls)
	}

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.HitRate != 0.5 {
		t.Errorf("stats = %+v", s)
	}
}

func TestGetOrCreateFailureNotStored(t *testing.T) {
	c := New[string, int]()
	errBoom := errors.New("boom")

	_, _, err := c.GetOrCreate("k", func() (int, error) { return 0, errBoom })
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if c.Len() != 0 {
		t.Error("failed build was stored")
	}

	v, created, err := c.GetOrCreate("k", func() (int, error) { return 7, nil })
	if err != nil || !created || v != 7 {
		t.Errorf("retry = %d, %v, %v", v, created, err)
	}
}

func TestGetOrCreateConcurrent(t *testing.T) {
	c := New[int, *int]()
	var builds atomic.Int32

	var wg sync.WaitGroup
	results := make([]*int, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, _ := c.GetOrCreate(1, func() (*int, error) {
				builds.Add(1)
				n := 5
				return &n, nil
			})
			results[i] = v
		}(i)
	}
	wg.Wait()

	if builds.Load() != 1 {
		t.Errorf("built %d times, want 1", builds.Load())
	}
	for i, r := range results {
		if r != results[0] {
			t.Errorf("result %d differs from result 0", i)
		}
	}
}

func TestDrain(t *testing.T) {
	c := New[int, int]()
	for i := 0; i < 5; i++ {
		_, _, _ = c.GetOrCreate(i, func() (int, error) { return i * 10, nil })
	}

	vals := c.Drain()
	if len(vals) != 5 {
		t.Errorf("Drain returned %d values", len(vals))
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	if sum != 100 {
		t.Errorf("Drain values sum to %d, want 100", sum)
	}
	if c.Len() != 0 {
		t.Errorf("Len after Drain = %d", c.Len())
	}
}
