// Package cache provides a generic build-once keyed store.
//
// Cache[K, V] memoizes values that are expensive to construct and must be
// constructed at most once per key, such as compiled GPU pipelines:
//
//	c := cache.New[Key, *Entry]()
//	e, created, err := c.GetOrCreate(key, build)
//
// The build function runs while the cache lock is held, so concurrent
// callers asking for the same key wait for the first build instead of
// compiling twice. Entries are never evicted; Drain hands every value back
// to the owner at teardown.
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation
// (it contains a mutex).
package cache
