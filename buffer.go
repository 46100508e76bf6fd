package tilexfer

import (
	"encoding/binary"

	"github.com/gogpu/tilexfer/format"
	"github.com/gogpu/tilexfer/rcl"
)

// bufferChunk is one job of a buffer copy or fill: a w x h raster of items
// starting at offset bytes into the range.
type bufferChunk struct {
	offset uint32
	w, h   uint32
}

// chunks splits items into rectangles no side of which exceeds maxDim. Each
// chunk covers the items directly after the previous one.
func chunks(items, item, maxDim uint32) []bufferChunk {
	var out []bufferChunk
	var offset uint32
	for items > 0 {
		c := bufferChunk{offset: offset, w: items, h: 1}
		if items > maxDim {
			c.w = maxDim
			c.h = min(items/maxDim, maxDim)
		}
		out = append(out, c)
		items -= c.w * c.h
		offset += c.w * c.h * item
	}
	return out
}

// itemFormat returns the widest raw format whose size divides every
// operand.
func itemFormat(vals ...uint32) (format.Format, uint32) {
	var acc uint32
	for _, v := range vals {
		acc |= v
	}
	switch {
	case acc%4 == 0:
		return format.R32Uint, 4
	case acc%2 == 0:
		return format.R16Uint, 2
	}
	return format.R8Uint, 1
}

func inBuffer(b *Buffer, offset, size uint32) bool {
	return b != nil && uint64(offset)+uint64(size) <= uint64(b.Size)
}

// CopyBuffer records r and panics if it cannot be recorded.
func (cb *CommandBuffer) CopyBuffer(r BufferCopy) Outcome {
	return must("copy buffer", cb.TryCopyBuffer(r))
}

// TryCopyBuffer records a buffer-to-buffer copy as a sequence of TLB jobs
// that load rows of raw items and store them again.
func (cb *CommandBuffer) TryCopyBuffer(r BufferCopy) Outcome {
	switch {
	case !inBuffer(r.Src, r.SrcOffset, r.Size) || !inBuffer(r.Dst, r.DstOffset, r.Size):
		return invalid("buffer copy of %d bytes out of range", r.Size)
	case r.Size == 0:
		return done(PathTLB, 0)
	}
	return cb.run("copy buffer", func() Outcome { return cb.copyBufferTLB(r) })
}

func (cb *CommandBuffer) copyBufferTLB(r BufferCopy) Outcome {
	f, item := itemFormat(r.SrcOffset, r.DstOffset, r.Size)
	jobs := 0
	for _, c := range chunks(r.Size/item, item, cb.dev.maxDim) {
		src := bufferImage(r.Src, r.SrcOffset+c.offset, f, c.w, c.h, c.w, c.h, 1)
		dst := bufferImage(r.Dst, r.DstOffset+c.offset, f, c.w, c.h, c.w, c.h, 1)
		o := cb.recordTLB(tlbTransfer{
			label:  "copy buffer",
			width:  c.w,
			height: c.h,
			layers: 1,
			target: f,
			ops: func(uint32) rcl.LayerOps {
				return rcl.LayerOps{
					Loads:  []rcl.Surface{surface(rcl.BufferRT0, src, format.AspectColor, 0, 0, f)},
					Stores: []rcl.Surface{surface(rcl.BufferRT0, dst, format.AspectColor, 0, 0, f)},
				}
			},
		})
		if o.Status != Done {
			o.Commands = jobs
			return o
		}
		jobs++
	}
	return done(PathTLB, jobs)
}

// FillBuffer records r and panics if it cannot be recorded.
func (cb *CommandBuffer) FillBuffer(r BufferFill) Outcome {
	return must("fill buffer", cb.TryFillBuffer(r))
}

// TryFillBuffer records a fill of whole 32-bit words. Size is rounded down
// to a multiple of four; each job clears render target 0 to Data and stores
// it over its part of the range.
func (cb *CommandBuffer) TryFillBuffer(r BufferFill) Outcome {
	size := r.Size &^ 3
	switch {
	case r.Offset%4 != 0:
		return invalid("buffer fill at unaligned offset %d", r.Offset)
	case !inBuffer(r.Dst, r.Offset, size):
		return invalid("buffer fill of %d bytes out of range", size)
	case size == 0:
		return done(PathTLB, 0)
	}
	return cb.run("fill buffer", func() Outcome { return cb.fillBufferTLB(r, size) })
}

func (cb *CommandBuffer) fillBufferTLB(r BufferFill, size uint32) Outcome {
	word := binary.LittleEndian.AppendUint32(nil, r.Data)
	jobs := 0
	for _, c := range chunks(size/4, 4, cb.dev.maxDim) {
		dst := bufferImage(r.Dst, r.Offset+c.offset, format.R32Uint, c.w, c.h, c.w, c.h, 1)
		o := cb.recordTLB(tlbTransfer{
			label:   "fill buffer",
			width:   c.w,
			height:  c.h,
			layers:  1,
			target:  format.R32Uint,
			clear:   word,
			doClear: true,
			ops: func(uint32) rcl.LayerOps {
				return rcl.LayerOps{
					Stores: []rcl.Surface{surface(rcl.BufferRT0, dst, format.AspectColor, 0, 0, format.R32Uint)},
				}
			},
		})
		if o.Status != Done {
			o.Commands = jobs
			return o
		}
		jobs++
	}
	return done(PathTLB, jobs)
}
