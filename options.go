package tilexfer

import (
	"github.com/gogpu/tilexfer/internal/mem"
	"github.com/gogpu/tilexfer/pipeline"
)

// DeviceOption configures a Device during creation.
//
// Example:
//
//	// Host-only device for planning and simulation
//	dev, err := tilexfer.NewDevice()
//
//	// Pipelines built on a HAL device
//	dev, err := tilexfer.NewDevice(tilexfer.WithBuilder(pipeline.NewHALBuilder(halDevice)))
type DeviceOption func(*deviceOptions)

// deviceOptions holds optional configuration for Device creation.
type deviceOptions struct {
	builder     pipeline.Builder
	tfuVersion  int
	maxDim      uint32
	memory      mem.Config
	skipTLBLoad bool
	allocator   mem.Allocator
}

// DefaultMaxImageDimension is the largest frame edge a TLB job renders.
const DefaultMaxImageDimension = 4096

// defaultOptions returns the default device options.
func defaultOptions() deviceOptions {
	return deviceOptions{
		tfuVersion: 42,
		maxDim:     DefaultMaxImageDimension,
		memory:     mem.Config{BudgetBytes: mem.DefaultBudgetMB << 20},
	}
}

// WithBuilder sets the pipeline builder. The default builds host-side
// entries without a GPU, which is enough to record and simulate transfers.
//
// Example:
//
//	dev, err := tilexfer.NewDevice(tilexfer.WithBuilder(pipeline.NewHALBuilder(halDevice)))
func WithBuilder(b pipeline.Builder) DeviceOption {
	return func(o *deviceOptions) {
		o.builder = b
	}
}

// WithTFUVersion selects the register layout of the raw-copy unit
// (42 or 71).
func WithTFUVersion(v int) DeviceOption {
	return func(o *deviceOptions) {
		o.tfuVersion = v
	}
}

// WithMaxImageDimension bounds the frame size of TLB jobs. Buffer copies
// and fills are split into frames no larger than dim on either edge.
func WithMaxImageDimension(dim uint32) DeviceOption {
	return func(o *deviceOptions) {
		if dim > 0 {
			o.maxDim = dim
		}
	}
}

// WithMemoryBudget limits the device memory pool in bytes. Recording a
// transfer that would exceed the budget reports Exhausted.
func WithMemoryBudget(bytes uint64) DeviceOption {
	return func(o *deviceOptions) {
		o.memory.BudgetBytes = bytes
	}
}

// WithBackedMemory gives every memory object host bytes so recorded
// commands can be executed by a simulator.
func WithBackedMemory(enabled bool) DeviceOption {
	return func(o *deviceOptions) {
		o.memory.Backed = enabled
	}
}

// WithTLBLoadSkip lets shader paths start their render pass without
// loading the destination when the draw covers whole tiles with a full
// write mask. Off by default.
func WithTLBLoadSkip(enabled bool) DeviceOption {
	return func(o *deviceOptions) {
		o.skipTLBLoad = enabled
	}
}

// withAllocator replaces the allocator used for job memory. Tests use it to
// inject allocation failures.
func withAllocator(a mem.Allocator) DeviceOption {
	return func(o *deviceOptions) {
		o.allocator = a
	}
}
