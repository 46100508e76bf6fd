package tilexfer

import (
	"github.com/gogpu/tilexfer/format"
	"github.com/gogpu/tilexfer/rcl"
)

// bufferLayout is the buffer side of a buffer/image copy in blocks of the
// buffer format.
type bufferLayout struct {
	rowBlocks    uint32
	heightBlocks uint32
	bpp          uint32
}

func (l bufferLayout) stride() uint32 { return l.rowBlocks * l.bpp }

func (l bufferLayout) layerPitch() uint32 { return l.stride() * l.heightBlocks }

// layout returns the buffer layout for texels of bpp bytes in blocks of
// bw x bh.
func (r BufferImageCopy) layout(bw, bh, bpp uint32) bufferLayout {
	return bufferLayout{
		rowBlocks:    format.Blocks(r.rowLength(), bw),
		heightBlocks: format.Blocks(r.imageHeight(), bh),
		bpp:          bpp,
	}
}

// wrap returns a raster image over the buffer region holding texels of f.
func (r BufferImageCopy) wrap(l bufferLayout, f format.Format, w, h, layers uint32) *Image {
	return bufferImage(r.Buffer, r.BufferOffset, f, l.rowBlocks, l.heightBlocks, w, h, layers)
}

func (r BufferImageCopy) check() (Slice, Outcome, bool) {
	s, err := checkSub(r.Image, r.Sub)
	switch {
	case err != nil:
		return s, Outcome{Err: err}, false
	case r.Buffer == nil:
		return s, invalid("nil buffer"), false
	case r.Image.Samples > 1:
		return s, invalid("buffer copy with multisampled %q", r.Image.Label), false
	case r.Sub.Aspect == format.AspectDepthStencil:
		return s, invalid("buffer copy of both depth and stencil"), false
	case !inLevel(s, r.Offset, r.Extent, r.Image.Is3D()):
		return s, invalid("copy region outside %q level %d", r.Image.Label, r.Sub.Level), false
	}
	return s, Outcome{}, true
}

// slices returns the first image slice and the slice count.
func (r BufferImageCopy) slices() (first, count uint32) {
	return r.Image.sliceRange(r.Sub, r.Offset.Z, max(r.Extent.DepthOrArrayLayers, 1))
}

// CopyBufferToImage records r and panics if no path can.
func (cb *CommandBuffer) CopyBufferToImage(r BufferImageCopy) Outcome {
	return must("copy buffer to image", cb.TryCopyBufferToImage(r))
}

// TryCopyBufferToImage records an upload, trying the raw-copy unit, the
// tile buffer, the texel-buffer shader and a blit from the buffer wrapped
// as a linear image in turn.
func (cb *CommandBuffer) TryCopyBufferToImage(r BufferImageCopy) Outcome {
	if _, o, ok := r.check(); !ok {
		return o
	}
	return cb.run("copy buffer to image",
		func() Outcome { return cb.uploadTFU(r) },
		func() Outcome { return cb.uploadTLB(r) },
		func() Outcome { return cb.uploadShader(r, DrawTexelCopy) },
		func() Outcome { return cb.uploadShader(r, DrawBlit) },
	)
}

// CopyImageToBuffer records r and panics if no path can.
func (cb *CommandBuffer) CopyImageToBuffer(r BufferImageCopy) Outcome {
	return must("copy image to buffer", cb.TryCopyImageToBuffer(r))
}

// TryCopyImageToBuffer records a readback, trying the raw-copy unit, the
// tile buffer, a blit into the buffer wrapped as a linear image and the
// texel-buffer shader in turn.
func (cb *CommandBuffer) TryCopyImageToBuffer(r BufferImageCopy) Outcome {
	if _, o, ok := r.check(); !ok {
		return o
	}
	return cb.run("copy image to buffer",
		func() Outcome { return cb.readbackTFU(r) },
		func() Outcome { return cb.readbackTLB(r) },
		func() Outcome { return cb.readbackShader(r, DrawBlit) },
		func() Outcome { return cb.readbackShader(r, DrawTexelCopy) },
	)
}

// uploadTFU copies whole levels of formats whose buffer and image bytes
// agree. D24 formats keep depth in a different byte position in buffers.
func (cb *CommandBuffer) uploadTFU(r BufferImageCopy) Outcome {
	f := r.Image.AspectFormat(r.Sub.Aspect)
	s, _ := r.Image.Slice(r.Sub.Aspect, r.Sub.Level)
	if f == format.D24UnormS8Uint || f == format.X8D24Unorm {
		return unsupported()
	}
	if !coversLevel(s, r.Offset.X, r.Offset.Y, r.Extent.Width, r.Extent.Height) {
		return unsupported()
	}
	info := f.Info()
	first, count := r.slices()
	l := r.layout(info.BlockW, info.BlockH, info.BlockBytes)
	return cb.recordTFU(tfuCopy{
		label:     "upload",
		src:       r.wrap(l, f, r.Extent.Width, r.Extent.Height, count),
		dst:       r.Image,
		srcAspect: format.AspectColor,
		dstAspect: r.Sub.Aspect,
		dstLevel:  r.Sub.Level,
		dstFirst:  first,
		count:     count,
	})
}

func (cb *CommandBuffer) uploadTLB(r BufferImageCopy) Outcome {
	f := r.Image.AspectFormat(r.Sub.Aspect)
	s, _ := r.Image.Slice(r.Sub.Aspect, r.Sub.Level)
	if !coversLevel(s, r.Offset.X, r.Offset.Y, r.Extent.Width, r.Extent.Height) {
		return unsupported()
	}
	cf, ok := format.ResolveTLB(f)
	if !ok {
		return unsupported()
	}
	first, count := r.slices()
	t := tlbTransfer{
		label:  "upload",
		width:  format.Blocks(s.Width, cf.BlockW),
		height: format.Blocks(s.Height, cf.BlockH),
		layers: count,
	}
	if f.IsDepthStencil() {
		bf := format.BufferAspectFormat(f, r.Sub.Aspect)
		l := r.layout(1, 1, bf.BlockBytes())
		buf := r.wrap(l, bf, r.Extent.Width, r.Extent.Height, count)
		t.depth = f
		t.ops = func(i uint32) rcl.LayerOps {
			load := surface(zsBuffer(r.Sub.Aspect), buf, format.AspectColor, 0, i, bf)
			if bf == format.X8D24Unorm {
				load.Flags |= rcl.FlagChannelReverse | rcl.FlagRBSwap
			}
			return zsOps(r.Image, r.Sub.Aspect, r.Sub.Level, first+i, load)
		}
		return cb.recordTLB(t)
	}

	l := r.layout(cf.BlockW, cf.BlockH, f.BlockBytes())
	buf := r.wrap(l, cf.Format, t.width, t.height, count)
	t.target = cf.Format
	t.ops = func(i uint32) rcl.LayerOps {
		return rcl.LayerOps{
			Loads:  []rcl.Surface{surface(rcl.BufferRT0, buf, format.AspectColor, 0, i, cf.Format)},
			Stores: []rcl.Surface{surface(rcl.BufferRT0, r.Image, r.Sub.Aspect, r.Sub.Level, first+i, cf.Format)},
		}
	}
	return cb.recordTLB(t)
}

// uploadShader draws the buffer into the image through the integer view of
// the written aspect. The texel-copy path reads the buffer directly; the
// blit path samples it as a linear image.
func (cb *CommandBuffer) uploadShader(r BufferImageCopy, op DrawOp) Outcome {
	f := r.Image.AspectFormat(r.Sub.Aspect)
	v, ok := format.ColorView(f, r.Sub.Aspect, format.BufferToImage)
	if !ok {
		return unsupported()
	}
	info := f.Info()
	first, count := r.slices()
	l := r.layout(info.BlockW, info.BlockH, v.BufferBPP)
	w, h := format.Blocks(r.Extent.Width, info.BlockW), format.Blocks(r.Extent.Height, info.BlockH)
	return cb.recordShaderCopy(shaderCopy{
		op:        op,
		src:       r.wrap(l, v.Src, w, h, count),
		dst:       r.Image,
		srcAspect: format.AspectColor,
		dstAspect: r.Sub.Aspect,
		dstLevel:  r.Sub.Level,
		dstFirst:  first,
		count:     count,
		rect: rcl.Rect{
			X:      r.Offset.X / info.BlockW,
			Y:      r.Offset.Y / info.BlockH,
			Width:  w,
			Height: h,
		},
		view: v,
	})
}

// readbackTFU offers the readback to the raw-copy unit, which only writes
// tiled memory and so never accepts a buffer destination.
func (cb *CommandBuffer) readbackTFU(r BufferImageCopy) Outcome {
	f := r.Image.AspectFormat(r.Sub.Aspect)
	info := f.Info()
	first, count := r.slices()
	l := r.layout(info.BlockW, info.BlockH, info.BlockBytes)
	return cb.recordTFU(tfuCopy{
		label:     "readback",
		src:       r.Image,
		dst:       r.wrap(l, f, r.Extent.Width, r.Extent.Height, count),
		srcAspect: r.Sub.Aspect,
		dstAspect: format.AspectColor,
		level:     r.Sub.Level,
		srcFirst:  first,
		count:     count,
	})
}

// readbackTLB loads the image into render target 0 through its buffer view
// and stores it into the buffer. Depth/stencil images are loaded as color,
// which moves every byte of the hardware word.
func (cb *CommandBuffer) readbackTLB(r BufferImageCopy) Outcome {
	f := r.Image.AspectFormat(r.Sub.Aspect)
	s, _ := r.Image.Slice(r.Sub.Aspect, r.Sub.Level)
	if !coversLevel(s, r.Offset.X, r.Offset.Y, r.Extent.Width, r.Extent.Height) {
		return unsupported()
	}
	a, ok := format.BufferView(f, r.Sub.Aspect)
	if !ok {
		return unsupported()
	}
	cf, ok := format.ResolveTLB(f)
	if !ok && !f.IsDepthStencil() {
		return unsupported()
	}
	if !ok {
		cf = format.CompatibleFormat{Format: a.Load, BlockW: 1, BlockH: 1}
	}
	first, count := r.slices()
	w, h := format.Blocks(s.Width, cf.BlockW), format.Blocks(s.Height, cf.BlockH)
	l := r.layout(cf.BlockW, cf.BlockH, a.BufferBPP)
	buf := r.wrap(l, a.Store, w, h, count)
	return cb.recordTLB(tlbTransfer{
		label:  "readback",
		width:  w,
		height: h,
		layers: count,
		target: a.Load,
		ops: func(i uint32) rcl.LayerOps {
			store := surface(rcl.BufferRT0, buf, format.AspectColor, 0, i, a.Store)
			if a.ChannelReverse {
				store.Flags |= rcl.FlagChannelReverse
			}
			if a.RBSwap {
				store.Flags |= rcl.FlagRBSwap
			}
			return rcl.LayerOps{
				Loads:  []rcl.Surface{surface(rcl.BufferRT0, r.Image, r.Sub.Aspect, r.Sub.Level, first+i, a.Load)},
				Stores: []rcl.Surface{store},
			}
		},
	})
}

// readbackShader draws the image into the buffer through the integer view
// of the read aspect.
func (cb *CommandBuffer) readbackShader(r BufferImageCopy, op DrawOp) Outcome {
	f := r.Image.AspectFormat(r.Sub.Aspect)
	v, ok := format.ColorView(f, r.Sub.Aspect, format.ImageToBuffer)
	if !ok {
		return unsupported()
	}
	info := f.Info()
	first, count := r.slices()
	l := r.layout(info.BlockW, info.BlockH, v.BufferBPP)
	w, h := format.Blocks(r.Extent.Width, info.BlockW), format.Blocks(r.Extent.Height, info.BlockH)
	return cb.recordShaderCopy(shaderCopy{
		op:        op,
		src:       r.Image,
		dst:       r.wrap(l, v.Dst, w, h, count),
		srcAspect: r.Sub.Aspect,
		dstAspect: format.AspectColor,
		srcLevel:  r.Sub.Level,
		srcFirst:  first,
		count:     count,
		srcX:      r.Offset.X / info.BlockW,
		srcY:      r.Offset.Y / info.BlockH,
		rect:      rcl.Rect{Width: w, Height: h},
		view:      v,
	})
}
