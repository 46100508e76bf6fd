package tilexfer

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilexfer/format"
	"github.com/gogpu/tilexfer/pipeline"
	"github.com/gogpu/tilexfer/rcl"
)

// inBox reports whether b lies inside level s.
func inBox(s Slice, b Box) bool {
	lo := func(a, c int32) int32 { return min(a, c) }
	hi := func(a, c int32) int32 { return max(a, c) }
	return lo(b.X0, b.X1) >= 0 && lo(b.Y0, b.Y1) >= 0 && lo(b.Z0, b.Z1) >= 0 &&
		uint32(hi(b.X0, b.X1)) <= s.Width && uint32(hi(b.Y0, b.Y1)) <= s.Height &&
		b.width() > 0 && b.height() > 0
}

// Blit records r and panics if no path can.
func (cb *CommandBuffer) Blit(r Blit) Outcome {
	return must("blit", cb.TryBlit(r))
}

// TryBlit records a scaled copy, trying the raw-copy unit for unscaled
// whole-level blits and the blit shader otherwise.
func (cb *CommandBuffer) TryBlit(r Blit) Outcome {
	ss, err := checkSub(r.Src, r.SrcSub)
	if err != nil {
		return Outcome{Err: err}
	}
	ds, err := checkSub(r.Dst, r.DstSub)
	if err != nil {
		return Outcome{Err: err}
	}
	if !inBox(ss, r.SrcBox) || !inBox(ds, r.DstBox) {
		return invalid("blit box outside level")
	}
	if r.Src.Samples > 1 || r.Dst.Samples > 1 {
		return invalid("blit of multisampled image")
	}
	return cb.run("blit",
		func() Outcome { return cb.blitTFU(r) },
		func() Outcome { return cb.blitShader(r) },
	)
}

// blitTFU handles blits that are plain copies of a whole level.
func (cb *CommandBuffer) blitTFU(r Blit) Outcome {
	sf, df := r.Src.AspectFormat(r.SrcSub.Aspect), r.Dst.AspectFormat(r.DstSub.Aspect)
	ds, _ := r.Dst.Slice(r.DstSub.Aspect, r.DstSub.Level)
	switch {
	case sf != df || df.IsDepthStencil():
		return unsupported()
	case r.SrcBox.mirrored() || r.DstBox.mirrored():
		return unsupported()
	case r.SrcBox.width() != r.DstBox.width() || r.SrcBox.height() != r.DstBox.height() ||
		r.SrcBox.depth() != r.DstBox.depth():
		return unsupported()
	case r.SrcBox.X0 != 0 || r.SrcBox.Y0 != 0 || r.DstBox.X0 != 0 || r.DstBox.Y0 != 0:
		return unsupported()
	case !coversLevel(ds, 0, 0, uint32(r.DstBox.width()), uint32(r.DstBox.height())):
		return unsupported()
	}
	srcFirst, count := r.Src.sliceRange(r.SrcSub, uint32(r.SrcBox.Z0), uint32(r.SrcBox.depth()))
	dstFirst, _ := r.Dst.sliceRange(r.DstSub, uint32(r.DstBox.Z0), uint32(r.DstBox.depth()))
	return cb.recordTFU(tfuCopy{
		label:     "blit",
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

// blitViews returns the formats a blit samples and renders. Color blits
// convert between their formats; depth/stencil blits copy the written
// aspect through its integer view.
func blitViews(sf, df format.Format, r Blit) (format.View, bool) {
	if !df.IsDepthStencil() && !sf.IsDepthStencil() {
		if sf.IsInteger() != df.IsInteger() || df.IsCompressed() {
			return format.View{}, false
		}
		return format.View{Src: sf, Dst: df, Mask: format.WriteRGBA, Swizzle: format.Identity}, true
	}
	if sf != df || r.SrcSub.Aspect != r.DstSub.Aspect {
		return format.View{}, false
	}
	return format.ColorView(df, r.DstSub.Aspect, format.ImageToImage)
}

// blitSlices maps each destination slice of a blit to the source slice
// its center samples. 3D boxes scale and mirror along Z like X and Y;
// array layers map one to one.
func blitSlices(r Blit) (dst, src []uint32) {
	if !r.Dst.Is3D() && !r.Src.Is3D() {
		for i := uint32(0); i < r.DstSub.layerCount(); i++ {
			dst = append(dst, r.DstSub.BaseLayer+i)
			src = append(src, r.SrcSub.BaseLayer+i)
		}
		return dst, src
	}
	dz0, dd := min(r.DstBox.Z0, r.DstBox.Z1), r.DstBox.depth()
	sd := float64(r.SrcBox.Z1 - r.SrcBox.Z0)
	if r.SrcBox.Z1 == r.SrcBox.Z0 {
		sd = 1
	}
	for i := int32(0); i < dd; i++ {
		t := (float64(i) + 0.5) / float64(dd)
		if r.DstBox.Z1 < r.DstBox.Z0 {
			t = 1 - t
		}
		z := float64(r.SrcBox.Z0) + t*sd
		dst = append(dst, uint32(dz0+i))
		src = append(src, uint32(max(z, 0)))
	}
	if !r.Src.Is3D() {
		for i := range src {
			src[i] = r.SrcSub.BaseLayer + uint32(i)
		}
	}
	if !r.Dst.Is3D() {
		for i := range dst {
			dst[i] = r.DstSub.BaseLayer + uint32(i)
		}
	}
	return dst, src
}

// blitShader draws one quad per destination slice. Inside an application
// render pass the pipeline is built for that pass and owned by the command
// buffer.
func (cb *CommandBuffer) blitShader(r Blit) Outcome {
	sf, df := r.Src.AspectFormat(r.SrcSub.Aspect), r.Dst.AspectFormat(r.DstSub.Aspect)
	ss, _ := r.Src.Slice(r.SrcSub.Aspect, r.SrcSub.Level)
	if !ss.Tiling.IsTiled() && r.Src.Dim != gputypes.TextureDimension1D {
		return unsupported()
	}
	v, ok := blitViews(sf, df, r)
	if !ok {
		return unsupported()
	}
	key := pipeline.BlitKey{
		DstFormat:  v.Dst,
		Mask:       v.Mask,
		DstSamples: 1,
		SrcSamples: 1,
	}
	if df.IsInteger() && sf != df {
		key.SrcFormat = sf
	}

	var e *pipeline.Entry
	var err error
	if r.RenderPass != nil {
		e, err = cb.dev.caches.OneShotBlit(r.Src.Dim, key, *r.RenderPass)
	} else {
		e, err = cb.dev.caches.Blit(r.Src.Dim, key)
	}
	if err != nil {
		return pipelineFailure(PathBlit, err)
	}
	if e.OneShot {
		cb.oneShots = append(cb.oneShots, e)
	}

	x, y := r.DstBox.origin()
	rect := rcl.Rect{X: x, Y: y, Width: uint32(r.DstBox.width()), Height: uint32(r.DstBox.height())}
	// Mirroring along the destination is folded into the source box.
	box := r.SrcBox
	if r.DstBox.X1 < r.DstBox.X0 {
		box.X0, box.X1 = box.X1, box.X0
	}
	if r.DstBox.Y1 < r.DstBox.Y0 {
		box.Y0, box.Y1 = box.Y1, box.Y0
	}

	dstSlices, srcSlices := blitSlices(r)
	for i := range dstSlices {
		dst := imageView(r.Dst, r.DstSub.Aspect, r.DstSub.Level, dstSlices[i], v.Dst, false)
		pass := cb.pass(e, dst, rect, v.Mask)
		if r.RenderPass != nil {
			pass = *r.RenderPass
		}
		cb.record(&Draw{
			Op:      DrawBlit,
			Entry:   e,
			Pass:    pass,
			Dst:     dst,
			Rect:    rect,
			Mask:    v.Mask,
			Src:     imageView(r.Src, r.SrcSub.Aspect, r.SrcSub.Level, srcSlices[i], v.Src, false),
			SrcBox:  box,
			Filter:  r.Filter,
			Swizzle: v.Swizzle,
		})
	}
	return done(PathBlit, len(dstSlices))
}
