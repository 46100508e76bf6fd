package tilexfer

import (
	"github.com/gogpu/tilexfer/format"
	"github.com/gogpu/tilexfer/pipeline"
	"github.com/gogpu/tilexfer/rcl"
)

// clearPart is one level of a clear range.
type clearPart struct {
	level        uint32
	first, count uint32
	rect         *rcl.Rect
	inRenderPass bool
}

// tlbEligible reports whether the part can be cleared by the tile buffer's
// frame-setup clear: whole slices of level 0, outside render passes.
func (p clearPart) tlbEligible() bool {
	return p.level == 0 && p.rect == nil && !p.inRenderPass
}

// parts splits ranges into per-level parts. A rect must be non-empty and
// lie inside every level it clears.
func parts(im *Image, aspect format.Aspect, ranges []Range, rect *rcl.Rect, inRenderPass bool) ([]clearPart, Outcome, bool) {
	if len(ranges) == 0 {
		ranges = []Range{{}}
	}
	var out []clearPart
	for _, rg := range ranges {
		base, levels := rg.levels(im)
		if levels == 0 || base+levels > im.Levels {
			return nil, invalid("levels %d+%d of %q", base, levels, im.Label), false
		}
		for level := base; level < base+levels; level++ {
			first, count := rg.layers(im, level)
			if count == 0 || (!im.Is3D() && first+count > im.Layers()) {
				return nil, invalid("layers %d+%d of %q", first, count, im.Label), false
			}
			if rect != nil {
				sl, _ := im.Slice(aspect, level)
				if rect.Width == 0 || rect.Height == 0 || rect.X+rect.Width > sl.Width || rect.Y+rect.Height > sl.Height {
					return nil, invalid("rect %+v outside %q level %d (%dx%d)", *rect, im.Label, level, sl.Width, sl.Height), false
				}
			}
			out = append(out, clearPart{level: level, first: first, count: count, rect: rect, inRenderPass: inRenderPass})
		}
	}
	return out, Outcome{}, true
}

// clearRect returns the rectangle a part clears.
func (p clearPart) clearRect(s Slice) rcl.Rect {
	if p.rect != nil {
		return *p.rect
	}
	return rcl.Rect{Width: s.Width, Height: s.Height}
}

// runParts records every part through the given paths and merges the
// outcomes. The merged outcome reports the path of the first part.
func (cb *CommandBuffer) runParts(op string, ps []clearPart, paths ...func(clearPart) Outcome) Outcome {
	var total Outcome
	for i, p := range ps {
		attempts := make([]attempt, len(paths))
		for j, path := range paths {
			attempts[j] = func() Outcome { return path(p) }
		}
		o := cb.run(op, attempts...)
		if o.Status != Done {
			return o
		}
		if i == 0 {
			total = o
			continue
		}
		total.Commands += o.Commands
	}
	return total
}

// ClearColor records r and panics if no path can.
func (cb *CommandBuffer) ClearColor(r ColorClear) Outcome {
	return must("clear color", cb.TryClearColor(r))
}

// TryClearColor records a color clear. Level 0 of a clear outside a render
// pass without a rectangle uses the tile buffer; everything else draws a
// quad per layer.
func (cb *CommandBuffer) TryClearColor(r ColorClear) Outcome {
	im := r.Image
	if im == nil || im.Format.IsDepthStencil() {
		return invalid("color clear of a non-color image")
	}
	packed, ok := format.PackClearColor(im.Format, r.Color)
	if !ok {
		return unsupported()
	}
	ps, o, ok := parts(im, format.AspectColor, r.Ranges, r.Rect, r.InRenderPass)
	if !ok {
		return o
	}
	return cb.runParts("clear color", ps,
		func(p clearPart) Outcome { return cb.clearColorTLB(im, p, packed) },
		func(p clearPart) Outcome { return cb.clearColorShader(im, p, packed) },
	)
}

func (cb *CommandBuffer) clearColorTLB(im *Image, p clearPart, packed []byte) Outcome {
	if !p.tlbEligible() {
		return unsupported()
	}
	cf, ok := format.ResolveTLB(im.Format)
	if !ok || im.Format.IsCompressed() {
		return unsupported()
	}
	s, _ := im.Slice(format.AspectColor, p.level)
	return cb.recordTLB(tlbTransfer{
		label:   "clear color",
		width:   s.Width,
		height:  s.Height,
		layers:  p.count,
		msaa:    im.Samples > 1,
		target:  cf.Format,
		clear:   packed,
		doClear: true,
		ops: func(i uint32) rcl.LayerOps {
			return rcl.LayerOps{
				Stores: []rcl.Surface{surface(rcl.BufferRT0, im, format.AspectColor, p.level, p.first+i, cf.Format)},
			}
		},
	})
}

func (cb *CommandBuffer) clearColorShader(im *Image, p clearPart, packed []byte) Outcome {
	e, err := cb.dev.caches.ClearColor(pipeline.ClearColorKey{
		Format:  im.Format,
		Samples: im.Samples,
		Mask:    format.WriteRGBA,
		Layered: p.count > 1,
	})
	if err != nil {
		return pipelineFailure(PathShaderClear, err)
	}
	s, _ := im.Slice(format.AspectColor, p.level)
	rect := p.clearRect(s)
	for i := uint32(0); i < p.count; i++ {
		dst := imageView(im, format.AspectColor, p.level, p.first+i, im.Format, false)
		cb.record(&Draw{
			Op:    DrawClear,
			Entry: e,
			Pass:  cb.pass(e, dst, rect, format.WriteRGBA),
			Dst:   dst,
			Rect:  rect,
			Mask:  format.WriteRGBA,
			Color: packed,
		})
	}
	return done(PathShaderClear, int(p.count))
}

// ClearDepthStencil records r and panics if no path can.
func (cb *CommandBuffer) ClearDepthStencil(r DepthStencilClear) Outcome {
	return must("clear depth/stencil", cb.TryClearDepthStencil(r))
}

// TryClearDepthStencil records a depth and/or stencil clear, choosing paths
// as TryClearColor does.
func (cb *CommandBuffer) TryClearDepthStencil(r DepthStencilClear) Outcome {
	im := r.Image
	if im == nil || !im.Format.IsDepthStencil() {
		return invalid("depth/stencil clear of a color image")
	}
	if r.Aspects == 0 || im.Format.Info().Aspects&r.Aspects != r.Aspects {
		return invalid("%q has no aspect %v", im.Label, r.Aspects)
	}
	ps, o, ok := parts(im, r.Aspects, r.Ranges, r.Rect, r.InRenderPass)
	if !ok {
		return o
	}
	depth := format.DepthBits(im.Format, r.Depth)
	return cb.runParts("clear depth/stencil", ps,
		func(p clearPart) Outcome { return cb.clearDepthTLB(im, p, r.Aspects, depth, r.Stencil) },
		func(p clearPart) Outcome { return cb.clearDepthShader(im, p, r.Aspects, depth, r.Stencil) },
	)
}

func (cb *CommandBuffer) clearDepthTLB(im *Image, p clearPart, aspects format.Aspect, depth uint32, stencil uint8) Outcome {
	if !p.tlbEligible() || !im.Format.Info().TLB {
		return unsupported()
	}
	s, _ := im.Slice(aspects, p.level)
	return cb.recordTLB(tlbTransfer{
		label:   "clear depth/stencil",
		width:   s.Width,
		height:  s.Height,
		layers:  p.count,
		msaa:    im.Samples > 1,
		depth:   im.Format,
		zClear:  depth,
		sClear:  stencil,
		doClear: true,
		ops: func(i uint32) rcl.LayerOps {
			return zsOps(im, aspects, p.level, p.first+i)
		},
	})
}

func (cb *CommandBuffer) clearDepthShader(im *Image, p clearPart, aspects format.Aspect, depth uint32, stencil uint8) Outcome {
	e, err := cb.dev.caches.ClearDepth(pipeline.ClearDepthKey{
		Format:  im.Format,
		Aspects: aspects,
		Samples: im.Samples,
		Layered: p.count > 1,
	})
	if err != nil {
		return pipelineFailure(PathShaderClear, err)
	}
	s, _ := im.Slice(aspects, p.level)
	rect := p.clearRect(s)
	full := aspects == im.Format.Info().Aspects
	for i := uint32(0); i < p.count; i++ {
		dst := imageView(im, aspects, p.level, p.first+i, im.Format, false)
		pass := e.LoadPass
		if full && cb.dev.skipTLBLoad && canSkipTLBLoad(dst, rect, 0) {
			pass = e.NoLoadPass
		}
		cb.record(&Draw{
			Op:      DrawClear,
			Entry:   e,
			Pass:    pass,
			Dst:     dst,
			Rect:    rect,
			Aspects: aspects,
			Depth:   depth,
			Stencil: stencil,
		})
	}
	return done(PathShaderClear, int(p.count))
}
