package tilexfer

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilexfer/format"
	"github.com/gogpu/tilexfer/pipeline"
	"github.com/gogpu/tilexfer/rcl"
)

// Subresource selects one mip level and a range of array layers of one or
// more aspects.
type Subresource struct {
	Aspect    format.Aspect
	Level     uint32
	BaseLayer uint32
	// Layers defaults to one.
	Layers uint32
}

func (s Subresource) layerCount() uint32 { return max(s.Layers, 1) }

// Range selects levels and layers for clears.
type Range struct {
	BaseLevel uint32
	// Levels defaults to every level from BaseLevel.
	Levels    uint32
	BaseLayer uint32
	// Layers defaults to every layer from BaseLayer.
	Layers uint32
}

func (r Range) levels(im *Image) (first, count uint32) {
	if r.Levels == 0 {
		return r.BaseLevel, im.Levels - min(r.BaseLevel, im.Levels)
	}
	return r.BaseLevel, r.Levels
}

func (r Range) layers(im *Image, level uint32) (first, count uint32) {
	total := im.Layers()
	if im.Is3D() {
		return 0, format.Minify(im.Size.DepthOrArrayLayers, level)
	}
	if r.Layers == 0 {
		return r.BaseLayer, total - min(r.BaseLayer, total)
	}
	return r.BaseLayer, r.Layers
}

// ImageCopy copies a region between two images without conversion. Offsets
// and Extent are in texels of each image; for 3D images Z and
// DepthOrArrayLayers select depth slices.
type ImageCopy struct {
	Src, Dst       *Image
	SrcSub, DstSub Subresource
	SrcOffset      gputypes.Origin3D
	DstOffset      gputypes.Origin3D
	Extent         gputypes.Extent3D
}

// BufferImageCopy moves a region between a buffer and an image. RowLength
// and ImageHeight give the buffer layout in texels; zero means tightly
// packed.
type BufferImageCopy struct {
	Buffer       *Buffer
	BufferOffset uint32
	RowLength    uint32
	ImageHeight  uint32

	Image  *Image
	Sub    Subresource
	Offset gputypes.Origin3D
	Extent gputypes.Extent3D
}

func (r BufferImageCopy) rowLength() uint32 {
	if r.RowLength == 0 {
		return r.Extent.Width
	}
	return r.RowLength
}

func (r BufferImageCopy) imageHeight() uint32 {
	if r.ImageHeight == 0 {
		return r.Extent.Height
	}
	return r.ImageHeight
}

// ColorClear fills color image ranges with one value.
type ColorClear struct {
	Image  *Image
	Color  format.ClearColor
	Ranges []Range
	// Rect limits the clear to part of each level, or nil.
	Rect *rcl.Rect
	// InRenderPass is set when the clear is recorded inside an
	// application render pass.
	InRenderPass bool
}

// DepthStencilClear fills depth and/or stencil aspects.
type DepthStencilClear struct {
	Image        *Image
	Aspects      format.Aspect
	Depth        float32
	Stencil      uint8
	Ranges       []Range
	Rect         *rcl.Rect
	InRenderPass bool
}

// Box is a region given by two corners. A corner pair in reverse order
// mirrors the region along that axis.
type Box struct {
	X0, Y0, Z0 int32
	X1, Y1, Z1 int32
}

func (b Box) width() int32  { return abs(b.X1 - b.X0) }
func (b Box) height() int32 { return abs(b.Y1 - b.Y0) }
func (b Box) depth() int32  { return max(abs(b.Z1-b.Z0), 1) }

func (b Box) mirrored() bool { return b.X1 < b.X0 || b.Y1 < b.Y0 || b.Z1 < b.Z0 }

func (b Box) origin() (x, y uint32) { return uint32(min(b.X0, b.X1)), uint32(min(b.Y0, b.Y1)) }

func abs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// Blit copies a region with scaling, mirroring and format conversion.
type Blit struct {
	Src, Dst       *Image
	SrcSub, DstSub Subresource
	SrcBox, DstBox Box
	Filter         gputypes.FilterMode
	// RenderPass is the application render pass the blit is recorded in,
	// or nil. Its pipeline is built uncached and destroyed on Reset.
	RenderPass *pipeline.RenderPass
}

// Resolve averages the samples of a multisampled image into a
// single-sampled one.
type Resolve struct {
	Src, Dst       *Image
	SrcSub, DstSub Subresource
	SrcOffset      gputypes.Origin3D
	DstOffset      gputypes.Origin3D
	Extent         gputypes.Extent3D
}

// BufferCopy copies Size bytes between buffers.
type BufferCopy struct {
	Src, Dst             *Buffer
	SrcOffset, DstOffset uint32
	Size                 uint32
}

// BufferFill repeats a 32-bit word over Size bytes.
type BufferFill struct {
	Dst    *Buffer
	Offset uint32
	Size   uint32
	Data   uint32
}
