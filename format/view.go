package format

import "github.com/gogpu/gputypes"

// Component selects a source channel (or a constant) for one output channel.
type Component uint8

// Swizzle components.
const (
	CompR Component = iota
	CompG
	CompB
	CompA
	CompZero
	CompOne
)

// Swizzle maps output channels r, g, b, a to source components.
type Swizzle [4]Component

// Identity is the pass-through swizzle.
var Identity = Swizzle{CompR, CompG, CompB, CompA}

// IsIdentity reports whether s passes every channel through.
func (s Swizzle) IsIdentity() bool { return s == Identity }

// Color write mask bits.
const (
	WriteR = gputypes.ColorWriteMask(1)
	WriteG = gputypes.ColorWriteMask(2)
	WriteB = gputypes.ColorWriteMask(4)
	WriteA = gputypes.ColorWriteMask(8)

	WriteRGBA = WriteR | WriteG | WriteB | WriteA
)

// Direction says which side of a shader-driven transfer is a linear buffer.
type Direction uint8

// Transfer directions.
const (
	ImageToImage Direction = iota
	ImageToBuffer
	BufferToImage
)

// View is an integer color reinterpretation of one aspect of an image for
// the shader-driven paths. Bits are copied, never converted.
type View struct {
	Src       Format
	Dst       Format
	Mask      gputypes.ColorWriteMask
	Swizzle   Swizzle
	BufferBPP uint32
}

type viewKey struct {
	cpp    uint32
	aspect Aspect
	dir    Direction
	d24    bool
}

func rawView(f Format, bpp uint32) View {
	return View{Src: f, Dst: f, Mask: WriteRGBA, Swizzle: Identity, BufferBPP: bpp}
}

// views holds the depth/stencil and raw color rewrites. The hardware keeps
// D24 depth in the upper 24 bits of each word and stencil in the low byte,
// while buffers carry depth in the low 24 bits and stencil packed per byte.
var views = map[viewKey]View{
	{16, AspectColor, ImageToBuffer, false}: rawView(RGBA32Uint, 16),
	{8, AspectColor, ImageToBuffer, false}:  rawView(RGBA16Uint, 8),
	{4, AspectColor, ImageToBuffer, false}:  rawView(RGBA8Uint, 4),
	{2, AspectColor, ImageToBuffer, false}:  rawView(R16Uint, 2),
	{1, AspectColor, ImageToBuffer, false}:  rawView(R8Uint, 1),
	{4, AspectDepth, ImageToBuffer, false}:  rawView(R32Uint, 4),
	{2, AspectDepth, ImageToBuffer, false}:  rawView(R16Uint, 2),
	{4, AspectDepth, ImageToBuffer, true}: {
		Src: RGBA8Uint, Dst: RGBA8Uint,
		Mask:      WriteR | WriteG | WriteB,
		Swizzle:   Swizzle{CompG, CompB, CompA, CompZero},
		BufferBPP: 4,
	},
	{4, AspectStencil, ImageToBuffer, true}: {
		Src: RGBA8Uint, Dst: R8Uint, Mask: WriteRGBA, Swizzle: Identity, BufferBPP: 1,
	},

	{16, AspectColor, BufferToImage, false}: rawView(RGBA32Uint, 16),
	{8, AspectColor, BufferToImage, false}:  rawView(RGBA16Uint, 8),
	{4, AspectColor, BufferToImage, false}:  rawView(RGBA8Uint, 4),
	{2, AspectColor, BufferToImage, false}:  rawView(R16Uint, 2),
	{1, AspectColor, BufferToImage, false}:  rawView(R8Uint, 1),
	{4, AspectDepth, BufferToImage, false}:  rawView(RGBA8Uint, 4),
	{2, AspectDepth, BufferToImage, false}:  rawView(R16Uint, 2),
	{4, AspectDepth, BufferToImage, true}: {
		Src: RGBA8Uint, Dst: RGBA8Uint,
		Mask:      WriteG | WriteB | WriteA,
		Swizzle:   Swizzle{CompR, CompR, CompG, CompB},
		BufferBPP: 4,
	},
	{4, AspectStencil, BufferToImage, true}: {
		Src: R8Uint, Dst: RGBA8Uint, Mask: WriteR, Swizzle: Identity, BufferBPP: 1,
	},

	{16, AspectColor, ImageToImage, false}: rawView(RGBA32Uint, 16),
	{8, AspectColor, ImageToImage, false}:  rawView(RGBA16Uint, 8),
	{4, AspectColor, ImageToImage, false}:  rawView(RGBA8Uint, 4),
	{2, AspectColor, ImageToImage, false}:  rawView(R16Uint, 2),
	{1, AspectColor, ImageToImage, false}:  rawView(R8Uint, 1),
	{4, AspectDepth, ImageToImage, false}:  rawView(R32Uint, 4),
	{2, AspectDepth, ImageToImage, false}:  rawView(R16Uint, 2),
	{4, AspectDepth, ImageToImage, true}: {
		Src: RGBA8Uint, Dst: RGBA8Uint, Mask: WriteG | WriteB | WriteA, Swizzle: Identity, BufferBPP: 4,
	},
	{4, AspectStencil, ImageToImage, true}: {
		Src: RGBA8Uint, Dst: RGBA8Uint, Mask: WriteR, Swizzle: Identity, BufferBPP: 4,
	},
	{4, AspectDepthStencil, ImageToImage, true}: rawView(RGBA8Uint, 4),
}

// ColorView returns the integer color view a shader path uses to copy the
// given aspect of f. Compressed formats are viewed block by block. It
// reports false for combinations no shader path can express. Stencil-only
// images are viewed as R8Uint.
func ColorView(f Format, aspect Aspect, dir Direction) (View, bool) {
	if f.IsCompressed() {
		alias, ok := CompressedAlias(f.BlockBytes())
		return rawView(alias, f.BlockBytes()), ok
	}
	if aspect&(AspectPlane0|AspectPlane1|AspectPlane2) != 0 {
		p, ok := f.PlaneFormat(aspect.Plane())
		if !ok {
			return View{}, false
		}
		f, aspect = p.Format, AspectColor
	}
	key := viewKey{
		cpp:    f.BlockBytes(),
		aspect: aspect,
		dir:    dir,
		d24:    f == D24UnormS8Uint || f == X8D24Unorm,
	}
	switch {
	case f == S8Uint && aspect == AspectStencil:
		return rawView(R8Uint, 1), true
	case aspect == AspectStencil && f != D24UnormS8Uint:
		return View{}, false
	}
	v, ok := views[key]
	return v, ok
}
