package pipeline

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilexfer/format"
)

// Kind is the operation an entry draws.
type Kind uint8

// Entry kinds.
const (
	KindClearColor Kind = iota
	KindClearDepth
	KindBlit
	KindTexelCopy
)

func (k Kind) String() string {
	switch k {
	case KindClearColor:
		return "clear-color"
	case KindClearDepth:
		return "clear-depth"
	case KindBlit:
		return "blit"
	case KindTexelCopy:
		return "texel-copy"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ClearColorKey identifies a color clear pipeline.
type ClearColorKey struct {
	RenderTarget uint32
	Format       format.Format
	Samples      uint32
	Mask         gputypes.ColorWriteMask
	Layered      bool
}

// ClearDepthKey identifies a depth/stencil clear pipeline. Aspects selects
// which of depth and stencil the draw writes.
type ClearDepthKey struct {
	Format  format.Format
	Aspects format.Aspect
	Samples uint32
	Layered bool
}

// BlitKey identifies a blit pipeline. SrcFormat is only set when the
// destination needs the source value clamped to its own range, so most
// blits share a pipeline per destination format.
type BlitKey struct {
	DstFormat  format.Format
	SrcFormat  format.Format
	Mask       gputypes.ColorWriteMask
	DstSamples uint32
	SrcSamples uint32
}

// TexelCopyKey identifies a texel-buffer copy pipeline.
type TexelCopyKey struct {
	Format  format.Format
	Mask    gputypes.ColorWriteMask
	Swizzle format.Swizzle
	Layered bool
}

// dimIndex maps a dimensionality to its per-dimension cache slot.
func dimIndex(dim gputypes.TextureDimension) int {
	switch dim {
	case gputypes.TextureDimension1D:
		return 0
	case gputypes.TextureDimension3D:
		return 2
	}
	return 1
}

func dimName(dim gputypes.TextureDimension) string {
	return [...]string{"1d", "2d", "3d"}[dimIndex(dim)]
}
