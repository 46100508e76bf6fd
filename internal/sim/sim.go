// Package sim is a reference executor for recorded transfer commands.
//
// It interprets TLB jobs, raw-copy unit registers and shader draws against
// the host storage of a backed memory pool, so tests can check what a
// command buffer does to memory rather than how it was encoded.
//
// Tiled memory is modeled as row-major 64-byte micro-tiles and
// multisampled memory stores sample i of pixel (x, y) at (2x+i%2, 2y+i/2).
// Draws copy channel bits without numeric conversion.
package sim

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/gogpu/tilexfer"
	"github.com/gogpu/tilexfer/format"
	"github.com/gogpu/tilexfer/internal/mem"
	"github.com/gogpu/tilexfer/tfu"
)

// Errors returned by the executor.
var (
	// ErrOutOfBounds is returned when a command touches memory outside
	// its object.
	ErrOutOfBounds = errors.New("sim: access outside memory object")

	// ErrUnknownObject is returned for handles without host storage.
	ErrUnknownObject = errors.New("sim: unknown memory object")

	// ErrUnsupported is returned for commands the executor does not model.
	ErrUnsupported = errors.New("sim: command not modeled")
)

// Executor runs commands against a memory pool.
//
// Tiles of one layer are rendered concurrently; commands run in order.
type Executor struct {
	pool    *mem.Pool
	enc     tfu.Encoder
	workers int
}

// New creates an executor over pool, which must be backed. enc decodes
// raw-copy unit registers.
func New(pool *mem.Pool, enc tfu.Encoder) *Executor {
	return &Executor{pool: pool, enc: enc, workers: runtime.GOMAXPROCS(0)}
}

// ForDevice creates an executor over the memory of dev.
func ForDevice(dev *tilexfer.Device) *Executor {
	return New(dev.Memory(), dev.TFU())
}

// Run executes cmds in order and stops at the first failure.
func (e *Executor) Run(cmds []tilexfer.Command) error {
	for i, c := range cmds {
		if err := e.Execute(c); err != nil {
			return fmt.Errorf("sim: command %d (%v): %w", i, c, err)
		}
	}
	return nil
}

// Execute runs one command.
func (e *Executor) Execute(c tilexfer.Command) error {
	tilexfer.Logger().Debug("sim: execute", "cmd", c.String(), "path", c.Path())
	switch c := c.(type) {
	case tilexfer.CLJob:
		return e.runJob(c.Job)
	case tilexfer.TFUJob:
		if c.Version != e.enc.Version() {
			return fmt.Errorf("%w: registers for v%d on v%d", ErrUnsupported, c.Version, e.enc.Version())
		}
		return e.runTFU(c.Regs)
	case *tilexfer.Draw:
		return e.runDraw(c)
	}
	return fmt.Errorf("%w: %T", ErrUnsupported, c)
}

func (e *Executor) bytes(handle uint32) ([]byte, error) {
	b := e.pool.Bytes(handle)
	if b == nil {
		return nil, fmt.Errorf("%w: handle %d", ErrUnknownObject, handle)
	}
	return b, nil
}

func (e *Executor) runTFU(r tfu.Regs) error {
	j, err := e.enc.Decode(r)
	if err != nil {
		return err
	}
	sm, err := e.bytes(j.SrcHandle)
	if err != nil {
		return err
	}
	dm, err := e.bytes(j.DstHandle)
	if err != nil {
		return err
	}
	src := surface{handle: j.SrcHandle, offset: j.SrcOffset, stride: j.SrcStride, tiling: j.SrcTiling, cpp: j.CPP}
	dst := surface{handle: j.DstHandle, offset: j.DstOffset, stride: j.DstStride, tiling: j.DstTiling, cpp: j.CPP}
	for y := uint32(0); y < j.Height; y++ {
		for x := uint32(0); x < j.Width; x++ {
			s, err := src.texel(sm, x, y)
			if err != nil {
				return err
			}
			d, err := dst.texel(dm, x, y)
			if err != nil {
				return err
			}
			copy(d, s)
		}
	}
	return nil
}

func imageSurface(im *tilexfer.Image, aspect format.Aspect, level, layer uint32) (surface, error) {
	s, ok := im.Slice(aspect, level)
	if !ok {
		return surface{}, fmt.Errorf("%w: %q has no %v level %d", ErrOutOfBounds, im.Label, aspect, level)
	}
	return surface{
		handle: im.Handle,
		offset: im.SliceOffset(aspect, level, layer),
		stride: s.Stride,
		tiling: s.Tiling,
		cpp:    im.AspectFormat(aspect).BlockBytes(),
	}, nil
}

// Texel returns the memory of texel block (x, y) of one slice of an image.
// Multisampled images are addressed by their sample grid. Writes to the
// result go to device memory.
func (e *Executor) Texel(im *tilexfer.Image, aspect format.Aspect, level, layer, x, y uint32) ([]byte, error) {
	s, err := imageSurface(im, aspect, level, layer)
	if err != nil {
		return nil, err
	}
	m, err := e.bytes(im.Handle)
	if err != nil {
		return nil, err
	}
	return s.texel(m, x, y)
}

// Sample returns the memory of sample i of pixel (x, y) of a multisampled
// image.
func (e *Executor) Sample(im *tilexfer.Image, aspect format.Aspect, layer, x, y, i uint32) ([]byte, error) {
	gx, gy := sampleCoord(x, y, i)
	return e.Texel(im, aspect, 0, layer, gx, gy)
}

// Buffer returns the memory of a buffer.
func (e *Executor) Buffer(b *tilexfer.Buffer) ([]byte, error) {
	m, err := e.bytes(b.Handle)
	if err != nil {
		return nil, err
	}
	if uint64(b.Offset)+uint64(b.Size) > uint64(len(m)) {
		return nil, fmt.Errorf("%w: buffer %q %d+%d", ErrOutOfBounds, b.Label, b.Offset, b.Size)
	}
	return m[b.Offset : b.Offset+b.Size], nil
}
