package tilexfer

import (
	"fmt"

	"github.com/gogpu/tilexfer/internal/mem"
	"github.com/gogpu/tilexfer/pipeline"
	"github.com/gogpu/tilexfer/tfu"
)

// Device owns the state every command buffer shares: the pipeline caches,
// device memory and the raw-copy unit encoder.
//
// Device is safe for concurrent use; command buffers are not.
type Device struct {
	caches      *pipeline.Caches
	pool        *mem.Pool
	alloc       mem.Allocator
	tfu         tfu.Encoder
	maxDim      uint32
	skipTLBLoad bool
}

// NewDevice creates a device.
func NewDevice(opts ...DeviceOption) (*Device, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	enc, err := tfu.NewEncoder(o.tfuVersion)
	if err != nil {
		return nil, fmt.Errorf("tilexfer: %w", err)
	}
	if o.builder == nil {
		o.builder = pipeline.NewHostBuilder()
	}
	d := &Device{
		caches:      pipeline.NewCaches(o.builder),
		pool:        mem.NewPool(o.memory),
		tfu:         enc,
		maxDim:      o.maxDim,
		skipTLBLoad: o.skipTLBLoad,
	}
	d.alloc = d.pool
	if o.allocator != nil {
		d.alloc = o.allocator
	}
	Logger().Debug("tilexfer: device created",
		"tfu", enc.Version(), "maxDim", o.maxDim, "budget", o.memory.BudgetBytes)
	return d, nil
}

// Caches returns the device pipeline caches.
func (d *Device) Caches() *pipeline.Caches { return d.caches }

// Memory returns the device memory pool.
func (d *Device) Memory() *mem.Pool { return d.pool }

// TFU returns the raw-copy unit encoder.
func (d *Device) TFU() tfu.Encoder { return d.tfu }

// MaxImageDimension returns the largest TLB frame edge.
func (d *Device) MaxImageDimension() uint32 { return d.maxDim }

// CreateImage lays out an image and binds it to a new memory object.
func (d *Device) CreateImage(desc ImageDesc) (*Image, error) {
	im, err := NewImage(desc)
	if err != nil {
		return nil, err
	}
	obj, err := d.pool.Alloc(im.Bytes(), desc.Label)
	if err != nil {
		return nil, fmt.Errorf("tilexfer: image %q: %w", desc.Label, err)
	}
	im.Handle = obj.Handle
	return im, nil
}

// DestroyImage frees the memory of an image created by CreateImage.
func (d *Device) DestroyImage(im *Image) error {
	return d.pool.Free(mem.Object{Handle: im.Handle, Size: im.Bytes(), Label: im.Label})
}

// CreateBuffer allocates a buffer.
func (d *Device) CreateBuffer(size uint32, label string) (*Buffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("%w: empty buffer %q", ErrInvalidRequest, label)
	}
	obj, err := d.pool.Alloc(size, label)
	if err != nil {
		return nil, fmt.Errorf("tilexfer: buffer %q: %w", label, err)
	}
	return &Buffer{Label: label, Handle: obj.Handle, Size: size}, nil
}

// DestroyBuffer frees a buffer created by CreateBuffer.
func (d *Device) DestroyBuffer(b *Buffer) error {
	return d.pool.Free(mem.Object{Handle: b.Handle, Size: b.Size, Label: b.Label})
}

// Destroy destroys every cached pipeline and releases device memory.
// Command buffers must be reset first.
func (d *Device) Destroy() {
	d.caches.Destroy()
	d.pool.Close()
}
