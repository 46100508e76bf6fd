package tilexfer

import (
	"errors"

	"github.com/gogpu/tilexfer/format"
	"github.com/gogpu/tilexfer/rcl"
)

// surface returns the load/store descriptor of one slice of an image seen
// through f.
func surface(buf rcl.Buffer, im *Image, aspect format.Aspect, level, layer uint32, f format.Format) rcl.Surface {
	s, _ := im.Slice(aspect, level)
	sf := rcl.Surface{
		Buffer:       buf,
		Handle:       im.Handle,
		Offset:       im.SliceOffset(aspect, level, layer),
		Stride:       s.Stride,
		PaddedHeight: s.PaddedHeight,
		Format:       f,
		Tiling:       s.Tiling,
	}
	if im.Samples > 1 {
		sf.Flags |= rcl.FlagMultisample
	}
	return sf
}

// zsBuffer returns the tile buffer holding the given depth/stencil aspects.
func zsBuffer(aspect format.Aspect) rcl.Buffer {
	switch aspect {
	case format.AspectDepthStencil:
		return rcl.BufferZS
	case format.AspectStencil:
		return rcl.BufferStencil
	}
	return rcl.BufferZ
}

// otherAspect returns the aspect of a combined depth/stencil format that a
// single-aspect write must carry through the tile buffer unchanged. Stores
// of a combined format always write the whole word.
func otherAspect(f format.Format, aspect format.Aspect) (format.Aspect, bool) {
	if f != format.D24UnormS8Uint {
		return 0, false
	}
	switch aspect {
	case format.AspectDepth:
		return format.AspectStencil, true
	case format.AspectStencil:
		return format.AspectDepth, true
	}
	return 0, false
}

// tlbTransfer is one TLB job over a stack of layers with identical ops.
type tlbTransfer struct {
	label         string
	width, height uint32
	layers        uint32
	msaa          bool
	// target is the render-target format for color transfers.
	target format.Format
	// depth is the Z/S format for depth/stencil transfers.
	depth   format.Format
	clear   []byte
	zClear  uint32
	sClear  uint8
	doClear bool
	ops     func(layer uint32) rcl.LayerOps
}

func (t tlbTransfer) params() rcl.FrameParams {
	p := rcl.FrameParams{
		Width:         t.width,
		Height:        t.height,
		Layers:        t.layers,
		RenderTargets: 1,
		MaxBPP:        format.BPP32,
		MSAA:          t.msaa,
	}
	if t.target != format.Undefined {
		_, p.MaxBPP = format.InternalTypeBPP(t.target, format.AspectColor)
	}
	return p
}

// storesWholeTiles reports whether every tile of the frame lies inside the
// region, or is cut only by the edge of a level of levelW x levelH. Stores
// write whole tiles, so anything else would overwrite texels past the
// region.
func (t tlbTransfer) storesWholeTiles(levelW, levelH uint32) bool {
	p := t.params()
	tw, th := rcl.TileSize(p.RenderTargets, p.MaxBPP, p.MSAA, p.DoubleBuffer)
	return (t.width%tw == 0 || t.width == levelW) && (t.height%th == 0 || t.height == levelH)
}

func (t tlbTransfer) frame() rcl.Frame {
	f := rcl.Frame{
		DepthFormat: t.depth,
		Clear:       t.doClear,
		Depth:       t.zClear,
		Stencil:     t.sClear,
	}
	if t.target != format.Undefined {
		it, bpp := format.InternalTypeBPP(t.target, format.AspectColor)
		f.Targets = []rcl.RenderTarget{{Internal: it, BPP: bpp, Clear: t.clear}}
	}
	for layer := uint32(0); layer < t.layers; layer++ {
		f.Layers = append(f.Layers, t.ops(layer))
	}
	return f
}

// recordTLB records t as one job. Frames the tile buffer cannot render are
// left to the next path.
func (cb *CommandBuffer) recordTLB(t tlbTransfer) Outcome {
	err := cb.submitJob(t.label, t.params(), t.frame())
	switch {
	case errors.Is(err, rcl.ErrInvalidFrame):
		Logger().Debug("tilexfer: frame rejected", "op", t.label, "err", err)
		return unsupported()
	case err != nil:
		return exhausted(PathTLB, err)
	}
	return done(PathTLB, 1)
}

// zsOps returns the tile operations writing aspect of one slice of dst
// after loads. A single-aspect write to a combined format reloads the other
// aspect from dst so the whole-word store keeps it.
func zsOps(dst *Image, aspect format.Aspect, level, layer uint32, loads ...rcl.Surface) rcl.LayerOps {
	f := dst.AspectFormat(aspect)
	ops := rcl.LayerOps{Loads: loads}
	store := surface(zsBuffer(aspect), dst, aspect, level, layer, f)
	ops.Stores = append(ops.Stores, store)
	if other, ok := otherAspect(f, aspect); ok {
		ops.Loads = append(ops.Loads, surface(zsBuffer(other), dst, other, level, layer, f))
		ops.Stores = append(ops.Stores, surface(zsBuffer(other), dst, other, level, layer, f))
	}
	return ops
}

// coversLevel reports whether a region starting at the origin covers the
// whole level s.
func coversLevel(s Slice, x, y, w, h uint32) bool {
	return x == 0 && y == 0 && w == s.Width && h == s.Height
}
