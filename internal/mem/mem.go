// Package mem allocates the memory objects transfer jobs need (tile
// allocation memory, tile state, indirect tile lists) against a byte budget.
//
// Exceeding the budget is how the transfer engine observes host/device
// out-of-memory: the allocation fails with ErrBudgetExceeded and the caller
// unwinds whatever it had built.
package mem

import (
	"errors"
	"fmt"
	"sync"
)

// Memory management errors.
var (
	// ErrBudgetExceeded is returned when an allocation would exceed the budget.
	ErrBudgetExceeded = errors.New("mem: memory budget exceeded")

	// ErrPoolClosed is returned when operating on a closed pool.
	ErrPoolClosed = errors.New("mem: pool closed")

	// ErrUnknownObject is returned when freeing a handle the pool does not own.
	ErrUnknownObject = errors.New("mem: unknown memory object")
)

// Default memory limits.
const (
	// DefaultBudgetMB is the default budget (256 MB).
	DefaultBudgetMB = 256

	// objectAlign is the allocation granularity in bytes.
	objectAlign = 4096
)

// Object is an allocated memory object.
type Object struct {
	Handle uint32
	Size   uint32
	Label  string
}

// Stats contains memory usage statistics.
type Stats struct {
	// TotalBytes is the budget in bytes.
	TotalBytes uint64

	// UsedBytes is the currently allocated memory in bytes.
	UsedBytes uint64

	// Objects is the number of live memory objects.
	Objects int

	// Failures is the number of allocations refused for lack of budget.
	Failures uint64
}

// String returns a human-readable string of memory stats.
func (s Stats) String() string {
	return fmt.Sprintf("Memory[%d/%d KB, %d objects, %d failures]",
		s.UsedBytes/1024, s.TotalBytes/1024, s.Objects, s.Failures)
}

// Allocator hands out memory objects.
type Allocator interface {
	Alloc(size uint32, label string) (Object, error)
	Free(o Object) error
}

// Config holds configuration for creating a Pool.
type Config struct {
	// BudgetBytes is the memory budget. Defaults to DefaultBudgetMB if 0.
	BudgetBytes uint64

	// Backed gives every object host storage reachable through Bytes.
	// Used by the reference executor.
	Backed bool
}

// Pool tracks memory objects and enforces the budget.
//
// Pool is safe for concurrent use.
type Pool struct {
	mu sync.Mutex

	budgetBytes uint64
	usedBytes   uint64
	failures    uint64

	next    uint32
	objects map[uint32]*entry
	backed  bool

	closed bool
}

type entry struct {
	obj   Object
	bytes []byte
}

// NewPool creates a pool.
func NewPool(config Config) *Pool {
	budget := config.BudgetBytes
	if budget == 0 {
		budget = DefaultBudgetMB * 1024 * 1024
	}
	return &Pool{
		budgetBytes: budget,
		next:        1,
		objects:     make(map[uint32]*entry),
		backed:      config.Backed,
	}
}

func alignUp(v, a uint64) uint64 { return (v + a - 1) / a * a }

// Alloc allocates an object of at least size bytes.
func (p *Pool) Alloc(size uint32, label string) (Object, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return Object{}, ErrPoolClosed
	}

	required := alignUp(uint64(size), objectAlign)
	if p.usedBytes+required > p.budgetBytes {
		p.failures++
		return Object{}, fmt.Errorf("%w: %s needs %d bytes, have %d bytes available",
			ErrBudgetExceeded, label, required, p.budgetBytes-p.usedBytes)
	}

	o := Object{Handle: p.next, Size: size, Label: label}
	p.next++
	e := &entry{obj: o}
	if p.backed {
		e.bytes = make([]byte, size)
	}
	p.objects[o.Handle] = e
	p.usedBytes += required
	return o, nil
}

// Free releases an object.
func (p *Pool) Free(o Object) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}
	e, ok := p.objects[o.Handle]
	if !ok {
		return fmt.Errorf("%w: handle %d", ErrUnknownObject, o.Handle)
	}
	delete(p.objects, o.Handle)
	p.usedBytes -= alignUp(uint64(e.obj.Size), objectAlign)
	return nil
}

// Bytes returns the host storage of a backed object, or nil.
func (p *Pool) Bytes(handle uint32) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.objects[handle]; ok {
		return e.bytes
	}
	return nil
}

// SetBudget updates the budget. Live objects are kept even when they exceed
// the new budget; further allocations fail until enough is freed.
func (p *Pool) SetBudget(bytes uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.budgetBytes = bytes
}

// Stats returns current memory usage statistics.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		TotalBytes: p.budgetBytes,
		UsedBytes:  p.usedBytes,
		Objects:    len(p.objects),
		Failures:   p.failures,
	}
}

// Close releases every object. The pool must not be used afterwards.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.objects = nil
	p.usedBytes = 0
	p.closed = true
}
