package tilexfer

import (
	"fmt"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilexfer/internal/mem"
	"github.com/gogpu/tilexfer/rcl"
)

func extent(w, h, d uint32) gputypes.Extent3D {
	return gputypes.Extent3D{Width: w, Height: h, DepthOrArrayLayers: d}
}

func origin(x, y, z uint32) gputypes.Origin3D {
	return gputypes.Origin3D{X: x, Y: y, Z: z}
}

func newTestDevice(t testing.TB, opts ...DeviceOption) *Device {
	t.Helper()
	dev, err := NewDevice(opts...)
	if err != nil {
		t.Fatalf("NewDevice() = %v", err)
	}
	t.Cleanup(dev.Destroy)
	return dev
}

func newTestImage(t testing.TB, dev *Device, desc ImageDesc) *Image {
	t.Helper()
	im, err := dev.CreateImage(desc)
	if err != nil {
		t.Fatalf("CreateImage(%q) = %v", desc.Label, err)
	}
	return im
}

func newTestBuffer(t testing.TB, dev *Device, size uint32) *Buffer {
	t.Helper()
	b, err := dev.CreateBuffer(size, fmt.Sprintf("buf%d", size))
	if err != nil {
		t.Fatalf("CreateBuffer(%d) = %v", size, err)
	}
	return b
}

// failAllocator fails every allocation after the first n.
type failAllocator struct {
	n     int
	pool  *mem.Pool
	calls int
}

func (a *failAllocator) Alloc(size uint32, label string) (mem.Object, error) {
	a.calls++
	if a.calls > a.n {
		return mem.Object{}, fmt.Errorf("%w: %s", mem.ErrBudgetExceeded, label)
	}
	return a.pool.Alloc(size, label)
}

func (a *failAllocator) Free(o mem.Object) error { return a.pool.Free(o) }

// tileOps decodes the generic tile list of every layer of a job.
func tileOps(t *testing.T, c Command) []rcl.Record {
	t.Helper()
	job, ok := c.(CLJob)
	if !ok {
		t.Fatalf("command %v is %T, want CLJob", c, c)
	}
	recs, err := rcl.Decode(job.Job.Indirect.Words)
	if err != nil {
		t.Fatalf("Decode(indirect) = %v", err)
	}
	var out []rcl.Record
	for _, r := range recs {
		if r.Op == rcl.OpLoadTileBufferGeneral || r.Op == rcl.OpStoreTileBufferGeneral {
			out = append(out, r)
		}
	}
	return out
}

// surfaceOp is a load or store reduced to what path tests compare.
type surfaceOp struct {
	op     rcl.Opcode
	buffer rcl.Buffer
}

func surfaceOps(recs []rcl.Record) []surfaceOp {
	out := make([]surfaceOp, 0, len(recs))
	for _, r := range recs {
		out = append(out, surfaceOp{op: r.Op, buffer: r.Surface().Buffer})
	}
	return out
}
