package tilexfer

import (
	"errors"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilexfer/format"
	"github.com/gogpu/tilexfer/pipeline"
	"github.com/gogpu/tilexfer/rcl"
)

// pipelineFailure maps a pipeline lookup error to an outcome. Targets the
// builder cannot render to leave the request to later paths.
func pipelineFailure(p Path, err error) Outcome {
	if errors.Is(err, pipeline.ErrUnsupportedFormat) {
		return unsupported()
	}
	return exhausted(p, err)
}

// pass picks the render pass a draw into v over r begins. Skipping the
// load is only possible when every touched tile is fully overwritten.
func (cb *CommandBuffer) pass(e *pipeline.Entry, v TexelView, r rcl.Rect, mask gputypes.ColorWriteMask) pipeline.RenderPass {
	if cb.dev.skipTLBLoad && canSkipTLBLoad(v, r, mask) {
		return e.NoLoadPass
	}
	return e.LoadPass
}

// canSkipTLBLoad reports whether a draw over r with mask overwrites every
// tile it touches: all channels are written and each edge of r lies on a
// tile boundary or on the edge of v.
func canSkipTLBLoad(v TexelView, r rcl.Rect, mask gputypes.ColorWriteMask) bool {
	if mask != format.WriteRGBA && !v.Format.IsDepthStencil() {
		return false
	}
	_, bpp := format.InternalTypeBPP(v.Format, format.AspectColor)
	tw, th := rcl.TileSize(1, bpp, v.Samples > 1, false)
	aligned := func(lo, size, tile, edge uint32) bool {
		hi := lo + size
		return lo%tile == 0 && (hi%tile == 0 || hi == edge)
	}
	return aligned(r.X, r.Width, tw, v.Width) && aligned(r.Y, r.Height, th, v.Height)
}

// shaderCopy is an unscaled copy drawn as one quad per slice, by the blit
// path from a sampled image or by the texel-copy path from raster memory.
type shaderCopy struct {
	op                   DrawOp
	src, dst             *Image
	srcAspect, dstAspect format.Aspect
	srcLevel, dstLevel   uint32
	srcFirst, dstFirst   uint32
	count                uint32
	// srcX and srcY locate the region in source view texels; rect is the
	// destination in destination view texels.
	srcX, srcY uint32
	rect       rcl.Rect
	view       format.View
	// grid copies multisampled images sample by sample.
	grid bool
}

func (c shaderCopy) path() Path {
	if c.op == DrawTexelCopy {
		return PathTexelCopy
	}
	return PathBlit
}

// sourceOK reports whether the source slice can be read by the path:
// sampled images must be tiled (1D images are exempt), texel buffers raster.
func (c shaderCopy) sourceOK() bool {
	s, ok := c.src.Slice(c.srcAspect, c.srcLevel)
	if !ok {
		return false
	}
	if c.op == DrawTexelCopy {
		return !s.Tiling.IsTiled()
	}
	return s.Tiling.IsTiled() || c.src.Dim == gputypes.TextureDimension1D
}

func (cb *CommandBuffer) entryFor(c shaderCopy) (*pipeline.Entry, error) {
	if c.op == DrawTexelCopy {
		return cb.dev.caches.TexelCopy(c.dst.Dim, pipeline.TexelCopyKey{
			Format:  c.view.Dst,
			Mask:    c.view.Mask,
			Swizzle: c.view.Swizzle,
			Layered: c.count > 1,
		})
	}
	return cb.dev.caches.Blit(c.src.Dim, pipeline.BlitKey{
		DstFormat:  c.view.Dst,
		Mask:       c.view.Mask,
		DstSamples: 1,
		SrcSamples: 1,
	})
}

// recordShaderCopy records c. Nothing is recorded unless every slice can be.
func (cb *CommandBuffer) recordShaderCopy(c shaderCopy) Outcome {
	if !c.sourceOK() {
		return unsupported()
	}
	e, err := cb.entryFor(c)
	if err != nil {
		return pipelineFailure(c.path(), err)
	}
	box := Box{
		X0: int32(c.srcX), Y0: int32(c.srcY),
		X1: int32(c.srcX + c.rect.Width), Y1: int32(c.srcY + c.rect.Height),
	}
	for i := uint32(0); i < c.count; i++ {
		dst := imageView(c.dst, c.dstAspect, c.dstLevel, c.dstFirst+i, c.view.Dst, c.grid)
		cb.record(&Draw{
			Op:      c.op,
			Entry:   e,
			Pass:    cb.pass(e, dst, c.rect, c.view.Mask),
			Dst:     dst,
			Rect:    c.rect,
			Mask:    c.view.Mask,
			Src:     imageView(c.src, c.srcAspect, c.srcLevel, c.srcFirst+i, c.view.Src, c.grid),
			SrcBox:  box,
			Filter:  gputypes.FilterModeNearest,
			Swizzle: c.view.Swizzle,
		})
	}
	return done(c.path(), int(c.count))
}
