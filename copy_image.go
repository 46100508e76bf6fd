package tilexfer

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilexfer/format"
	"github.com/gogpu/tilexfer/rcl"
)

func invalid(msg string, args ...any) Outcome {
	return Outcome{Err: fmt.Errorf("%w: "+msg, append([]any{ErrInvalidRequest}, args...)...)}
}

// checkSub validates a subresource of im and returns its slice.
func checkSub(im *Image, sub Subresource) (Slice, error) {
	if im == nil {
		return Slice{}, fmt.Errorf("%w: nil image", ErrInvalidRequest)
	}
	s, ok := im.Slice(sub.Aspect, sub.Level)
	if !ok {
		return Slice{}, fmt.Errorf("%w: %q has no %v level %d", ErrInvalidRequest, im.Label, sub.Aspect, sub.Level)
	}
	if sub.Aspect == 0 || im.Format.Info().Aspects&sub.Aspect != sub.Aspect {
		return Slice{}, fmt.Errorf("%w: %q has no aspect %v", ErrInvalidRequest, im.Label, sub.Aspect)
	}
	if !im.Is3D() && sub.BaseLayer+sub.layerCount() > im.Layers() {
		return Slice{}, fmt.Errorf("%w: %q layers %d+%d of %d", ErrInvalidRequest,
			im.Label, sub.BaseLayer, sub.layerCount(), im.Layers())
	}
	return s, nil
}

// inLevel reports whether a region lies inside level s.
func inLevel(s Slice, o gputypes.Origin3D, e gputypes.Extent3D, is3D bool) bool {
	if e.Width == 0 || e.Height == 0 || o.X+e.Width > s.Width || o.Y+e.Height > s.Height {
		return false
	}
	return !is3D || o.Z+max(e.DepthOrArrayLayers, 1) <= s.Depth
}

// dstInLevel reports whether the destination of r lies inside its level.
// The extent is given in source texels, so it is converted to destination
// texels through the block sizes of both formats.
func dstInLevel(r ImageCopy) bool {
	ds, _ := r.Dst.Slice(r.DstSub.Aspect, r.DstSub.Level)
	si := r.Src.AspectFormat(r.SrcSub.Aspect).Info()
	di := r.Dst.AspectFormat(r.DstSub.Aspect).Info()
	bw := format.Blocks(r.Extent.Width, si.BlockW)
	bh := format.Blocks(r.Extent.Height, si.BlockH)
	if r.DstOffset.X/di.BlockW+bw > format.Blocks(ds.Width, di.BlockW) ||
		r.DstOffset.Y/di.BlockH+bh > format.Blocks(ds.Height, di.BlockH) {
		return false
	}
	_, count := r.Src.sliceRange(r.SrcSub, r.SrcOffset.Z, max(r.Extent.DepthOrArrayLayers, 1))
	if r.Dst.Is3D() {
		return r.DstOffset.Z+count <= ds.Depth
	}
	return r.DstSub.BaseLayer+count <= r.Dst.Layers()
}

// CopyImage records r and panics if no path can.
func (cb *CommandBuffer) CopyImage(r ImageCopy) Outcome {
	return must("copy image", cb.TryCopyImage(r))
}

// TryCopyImage records a copy between images, trying the raw-copy unit,
// the tile buffer, the blit shader and the texel-buffer shader in turn.
func (cb *CommandBuffer) TryCopyImage(r ImageCopy) Outcome {
	ss, err := checkSub(r.Src, r.SrcSub)
	if err != nil {
		return Outcome{Err: err}
	}
	if _, err := checkSub(r.Dst, r.DstSub); err != nil {
		return Outcome{Err: err}
	}
	if !inLevel(ss, r.SrcOffset, r.Extent, r.Src.Is3D()) {
		return invalid("copy region outside %q level %d", r.Src.Label, r.SrcSub.Level)
	}
	if !dstInLevel(r) {
		return invalid("copy region outside %q level %d", r.Dst.Label, r.DstSub.Level)
	}
	return cb.run("copy image",
		func() Outcome { return cb.copyImageTFU(r) },
		func() Outcome { return cb.copyImageTLB(r) },
		func() Outcome { return cb.copyImageShader(r, DrawBlit) },
		func() Outcome { return cb.copyImageShader(r, DrawTexelCopy) },
	)
}

// copySlices returns the first source and destination slices of r and how
// many are copied.
func copySlices(r ImageCopy) (srcFirst, dstFirst, count uint32) {
	srcFirst, count = r.Src.sliceRange(r.SrcSub, r.SrcOffset.Z, max(r.Extent.DepthOrArrayLayers, 1))
	dstFirst, _ = r.Dst.sliceRange(r.DstSub, r.DstOffset.Z, max(r.Extent.DepthOrArrayLayers, 1))
	return srcFirst, dstFirst, count
}

func (cb *CommandBuffer) copyImageTFU(r ImageCopy) Outcome {
	df := r.Dst.AspectFormat(r.DstSub.Aspect)
	ds, _ := r.Dst.Slice(r.DstSub.Aspect, r.DstSub.Level)
	switch {
	case df == format.D24UnormS8Uint && r.DstSub.Aspect != format.AspectDepthStencil:
		return unsupported()
	case r.SrcOffset.X != 0 || r.SrcOffset.Y != 0:
		return unsupported()
	case !coversLevel(ds, r.DstOffset.X, r.DstOffset.Y, r.Extent.Width, r.Extent.Height):
		return unsupported()
	case df.Info().BlockW != r.Src.AspectFormat(r.SrcSub.Aspect).Info().BlockW:
		return unsupported()
	}
	srcFirst, dstFirst, count := copySlices(r)
	return cb.recordTFU(tfuCopy{
		label:     "copy image",
		src:       r.Src,
		dst:       r.Dst,
		srcAspect: r.SrcSub.Aspect,
		dstAspect: r.DstSub.Aspect,
		level:     r.SrcSub.Level,
		dstLevel:  r.DstSub.Level,
		srcFirst:  srcFirst,
		dstFirst:  dstFirst,
		count:     count,
	})
}

// copyImageTLB copies a region anchored at the origin of both levels. The
// frame is sized to the region, which must end on tile boundaries or at the
// edge of the destination level.
func (cb *CommandBuffer) copyImageTLB(r ImageCopy) Outcome {
	sf, df := r.Src.AspectFormat(r.SrcSub.Aspect), r.Dst.AspectFormat(r.DstSub.Aspect)
	ds, _ := r.Dst.Slice(r.DstSub.Aspect, r.DstSub.Level)
	switch {
	case r.SrcOffset.X != 0 || r.SrcOffset.Y != 0 || r.DstOffset.X != 0 || r.DstOffset.Y != 0:
		return unsupported()
	case r.Extent.Width > ds.Width || r.Extent.Height > ds.Height:
		return unsupported()
	case r.Src.Samples != r.Dst.Samples:
		return unsupported()
	case sf.IsDepthStencil() != df.IsDepthStencil():
		return unsupported()
	case sf.IsDepthStencil() && (sf != df || r.SrcSub.Aspect != r.DstSub.Aspect):
		return unsupported()
	}
	scf, ok := format.ResolveTLB(sf)
	if !ok {
		return unsupported()
	}
	dcf, ok := format.ResolveTLB(df)
	if !ok || scf.BitsPerPixel != dcf.BitsPerPixel || scf.BlockW != dcf.BlockW || scf.BlockH != dcf.BlockH {
		return unsupported()
	}

	srcFirst, dstFirst, count := copySlices(r)
	t := tlbTransfer{
		label:  "copy image",
		width:  format.Blocks(r.Extent.Width, dcf.BlockW),
		height: format.Blocks(r.Extent.Height, dcf.BlockH),
		layers: count,
		msaa:   r.Dst.Samples > 1,
	}
	if df.IsDepthStencil() {
		t.depth = df
	} else {
		t.target = dcf.Format
	}
	if !t.storesWholeTiles(format.Blocks(ds.Width, dcf.BlockW), format.Blocks(ds.Height, dcf.BlockH)) {
		return unsupported()
	}
	if df.IsDepthStencil() {
		aspect := r.DstSub.Aspect
		t.ops = func(i uint32) rcl.LayerOps {
			load := surface(zsBuffer(aspect), r.Src, aspect, r.SrcSub.Level, srcFirst+i, sf)
			return zsOps(r.Dst, aspect, r.DstSub.Level, dstFirst+i, load)
		}
	} else {
		t.ops = func(i uint32) rcl.LayerOps {
			return rcl.LayerOps{
				Loads:  []rcl.Surface{surface(rcl.BufferRT0, r.Src, r.SrcSub.Aspect, r.SrcSub.Level, srcFirst+i, dcf.Format)},
				Stores: []rcl.Surface{surface(rcl.BufferRT0, r.Dst, r.DstSub.Aspect, r.DstSub.Level, dstFirst+i, dcf.Format)},
			}
		}
	}
	return cb.recordTLB(t)
}

// copyImageShader records r through the blit or texel-copy shader. Both
// sides are viewed as integer formats of their block size, so compressed
// images copy block by block. The extent is converted to destination texels
// by the block scale; a fractional result is only accepted where the region
// ends at the edge of the source level.
func (cb *CommandBuffer) copyImageShader(r ImageCopy, op DrawOp) Outcome {
	sf, df := r.Src.AspectFormat(r.SrcSub.Aspect), r.Dst.AspectFormat(r.DstSub.Aspect)
	if sf.BlockBytes() != df.BlockBytes() || r.Src.Samples != r.Dst.Samples {
		return unsupported()
	}
	if sf.IsDepthStencil() && (sf != df || r.SrcSub.Aspect != r.DstSub.Aspect) {
		return unsupported()
	}
	sv, ok := format.ColorView(sf, r.SrcSub.Aspect, format.ImageToImage)
	if !ok {
		return unsupported()
	}
	dv, ok := format.ColorView(df, r.DstSub.Aspect, format.ImageToImage)
	if !ok {
		return unsupported()
	}
	ss, _ := r.Src.Slice(r.SrcSub.Aspect, r.SrcSub.Level)
	ds, _ := r.Dst.Slice(r.DstSub.Aspect, r.DstSub.Level)

	si, di := sf.Info(), df.Info()
	sx, sy := format.BlockScale(sf, df)
	dw, okW := format.ScaleDim(r.Extent.Width, 1/sx, r.SrcOffset.X+r.Extent.Width == ss.Width)
	dh, okH := format.ScaleDim(r.Extent.Height, 1/sy, r.SrcOffset.Y+r.Extent.Height == ss.Height)
	if !okW || !okH {
		return unsupported()
	}
	rect := rcl.Rect{
		X:      r.DstOffset.X / di.BlockW,
		Y:      r.DstOffset.Y / di.BlockH,
		Width:  format.Blocks(dw, di.BlockW),
		Height: format.Blocks(dh, di.BlockH),
	}
	if rect.X+rect.Width > ds.BlocksW || rect.Y+rect.Height > ds.BlocksH {
		return unsupported()
	}
	srcX, srcY := r.SrcOffset.X/si.BlockW, r.SrcOffset.Y/si.BlockH
	grid := r.Src.Samples > 1
	if grid {
		srcX, srcY = srcX*msaaScale, srcY*msaaScale
		rect = rcl.Rect{X: rect.X * msaaScale, Y: rect.Y * msaaScale, Width: rect.Width * msaaScale, Height: rect.Height * msaaScale}
	}

	srcFirst, dstFirst, count := copySlices(r)
	return cb.recordShaderCopy(shaderCopy{
		op:        op,
		src:       r.Src,
		dst:       r.Dst,
		srcAspect: r.SrcSub.Aspect,
		dstAspect: r.DstSub.Aspect,
		srcLevel:  r.SrcSub.Level,
		dstLevel:  r.DstSub.Level,
		srcFirst:  srcFirst,
		dstFirst:  dstFirst,
		count:     count,
		srcX:      srcX,
		srcY:      srcY,
		rect:      rect,
		view:      format.View{Src: sv.Src, Dst: dv.Dst, Mask: dv.Mask, Swizzle: dv.Swizzle},
		grid:      grid,
	})
}
