package tilexfer

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilexfer/format"
	"github.com/gogpu/tilexfer/pipeline"
	"github.com/gogpu/tilexfer/rcl"
)

// Resolve records r and panics if no path can.
func (cb *CommandBuffer) Resolve(r Resolve) Outcome {
	return must("resolve", cb.TryResolve(r))
}

// TryResolve records a multisample resolve, trying a decimating TLB store
// and then the blit shader.
func (cb *CommandBuffer) TryResolve(r Resolve) Outcome {
	ss, err := checkSub(r.Src, r.SrcSub)
	if err != nil {
		return Outcome{Err: err}
	}
	ds, err := checkSub(r.Dst, r.DstSub)
	if err != nil {
		return Outcome{Err: err}
	}
	switch {
	case r.Src.Samples <= 1 || r.Dst.Samples != 1:
		return invalid("resolve from %d to %d samples", r.Src.Samples, r.Dst.Samples)
	case r.Src.AspectFormat(r.SrcSub.Aspect) != r.Dst.AspectFormat(r.DstSub.Aspect):
		return invalid("resolve between %v and %v", r.Src.Format, r.Dst.Format)
	case !inLevel(ss, r.SrcOffset, r.Extent, false) || !inLevel(ds, r.DstOffset, r.Extent, false):
		return invalid("resolve region outside level")
	}
	return cb.run("resolve",
		func() Outcome { return cb.resolveTLB(r) },
		func() Outcome { return cb.resolveShader(r) },
	)
}

func (cb *CommandBuffer) resolveTLB(r Resolve) Outcome {
	f := r.Dst.AspectFormat(r.DstSub.Aspect)
	ds, _ := r.Dst.Slice(r.DstSub.Aspect, r.DstSub.Level)
	switch {
	case r.SrcOffset.X != 0 || r.SrcOffset.Y != 0:
		return unsupported()
	case !coversLevel(ds, r.DstOffset.X, r.DstOffset.Y, r.Extent.Width, r.Extent.Height):
		return unsupported()
	case !format.SupportsTLBResolve(f):
		return unsupported()
	}
	cf, ok := format.ResolveTLB(f)
	if !ok {
		return unsupported()
	}
	srcFirst, count := r.Src.sliceRange(r.SrcSub, 0, 1)
	dstFirst, _ := r.Dst.sliceRange(r.DstSub, 0, 1)
	return cb.recordTLB(tlbTransfer{
		label:  "resolve",
		width:  ds.Width,
		height: ds.Height,
		layers: count,
		msaa:   true,
		target: cf.Format,
		ops: func(i uint32) rcl.LayerOps {
			store := surface(rcl.BufferRT0, r.Dst, r.DstSub.Aspect, r.DstSub.Level, dstFirst+i, cf.Format)
			store.Flags |= rcl.FlagDecimate
			return rcl.LayerOps{
				Loads:  []rcl.Surface{surface(rcl.BufferRT0, r.Src, r.SrcSub.Aspect, r.SrcSub.Level, srcFirst+i, cf.Format)},
				Stores: []rcl.Surface{store},
			}
		},
	})
}

// resolveShader samples the multisampled source per pixel: averaged for
// normalized and float formats, sample 0 for integer ones.
func (cb *CommandBuffer) resolveShader(r Resolve) Outcome {
	f := r.Dst.AspectFormat(r.DstSub.Aspect)
	ss, _ := r.Src.Slice(r.SrcSub.Aspect, r.SrcSub.Level)
	if !ss.Tiling.IsTiled() || f.IsDepthStencil() || f.IsCompressed() {
		return unsupported()
	}
	e, err := cb.dev.caches.Blit(r.Src.Dim, pipeline.BlitKey{
		DstFormat:  f,
		Mask:       format.WriteRGBA,
		DstSamples: 1,
		SrcSamples: r.Src.Samples,
	})
	if err != nil {
		return pipelineFailure(PathBlit, err)
	}
	rect := rcl.Rect{X: r.DstOffset.X, Y: r.DstOffset.Y, Width: r.Extent.Width, Height: r.Extent.Height}
	box := Box{
		X0: int32(r.SrcOffset.X), Y0: int32(r.SrcOffset.Y),
		X1: int32(r.SrcOffset.X + r.Extent.Width), Y1: int32(r.SrcOffset.Y + r.Extent.Height),
	}
	srcFirst, count := r.Src.sliceRange(r.SrcSub, 0, 1)
	dstFirst, _ := r.Dst.sliceRange(r.DstSub, 0, 1)
	for i := uint32(0); i < count; i++ {
		dst := imageView(r.Dst, r.DstSub.Aspect, r.DstSub.Level, dstFirst+i, f, false)
		cb.record(&Draw{
			Op:      DrawBlit,
			Entry:   e,
			Pass:    cb.pass(e, dst, rect, format.WriteRGBA),
			Dst:     dst,
			Rect:    rect,
			Mask:    format.WriteRGBA,
			Src:     imageView(r.Src, r.SrcSub.Aspect, r.SrcSub.Level, srcFirst+i, f, false),
			SrcBox:  box,
			Filter:  gputypes.FilterModeNearest,
			Swizzle: format.Identity,
			Resolve: !f.IsInteger(),
		})
	}
	return done(PathBlit, int(count))
}
