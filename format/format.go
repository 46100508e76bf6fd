package format

import "fmt"

// Format identifies a pixel format.
type Format uint16

// Supported formats.
const (
	Undefined Format = iota

	R8Unorm
	R8Snorm
	R8Uint
	R8Sint
	RG8Unorm
	RG8Snorm
	RG8Uint
	RGBA8Unorm
	RGBA8Srgb
	RGBA8Snorm
	RGBA8Uint
	RGBA8Sint
	BGRA8Unorm
	RGB565Unorm
	RGBA4Unorm
	A2B10G10R10Unorm
	A2B10G10R10Uint
	B10G11R11Ufloat
	E5B9G9R9Ufloat
	R16Unorm
	R16Snorm
	R16Uint
	R16Sint
	R16Sfloat
	RG16Unorm
	RG16Snorm
	RG16Uint
	RG16Sfloat
	RGBA16Unorm
	RGBA16Snorm
	RGBA16Uint
	RGBA16Sint
	RGBA16Sfloat
	R32Uint
	R32Sint
	R32Sfloat
	RG32Uint
	RG32Sfloat
	RGBA32Uint
	RGBA32Sint
	RGBA32Sfloat

	D16Unorm
	X8D24Unorm
	D32Sfloat
	D24UnormS8Uint
	S8Uint

	ETC2RGB8Unorm
	ETC2RGBA8Unorm
	EACR11Unorm
	EACRG11Unorm
	BC1RGBAUnorm
	BC3RGBAUnorm
	ASTC4x4Unorm
	ASTC8x8Unorm

	G8B8R82Plane420Unorm

	formatCount
)

// Aspect selects the parts of an image a transfer touches.
type Aspect uint8

// Aspect bits.
const (
	AspectColor Aspect = 1 << iota
	AspectDepth
	AspectStencil
	AspectPlane0
	AspectPlane1
	AspectPlane2

	AspectDepthStencil = AspectDepth | AspectStencil
)

// Has reports whether all bits of o are set in a.
func (a Aspect) Has(o Aspect) bool { return a&o == o }

// Plane returns the plane index selected by a plane aspect, or 0.
func (a Aspect) Plane() int {
	switch {
	case a&AspectPlane1 != 0:
		return 1
	case a&AspectPlane2 != 0:
		return 2
	}
	return 0
}

func (a Aspect) String() string {
	switch a {
	case AspectColor:
		return "color"
	case AspectDepth:
		return "depth"
	case AspectStencil:
		return "stencil"
	case AspectDepthStencil:
		return "depth|stencil"
	case AspectPlane0:
		return "plane0"
	case AspectPlane1:
		return "plane1"
	case AspectPlane2:
		return "plane2"
	}
	return fmt.Sprintf("Aspect(%#x)", uint8(a))
}

// Kind is the numeric interpretation of a format's channels.
type Kind uint8

// Format kinds.
const (
	KindUnorm Kind = iota
	KindSnorm
	KindUint
	KindSint
	KindFloat
	KindSrgb
	KindDepthStencil
	KindCompressed
	KindPlanar
)

// InternalType is the per-channel storage type of a tile-buffer render target.
type InternalType uint8

// Tile-buffer internal types.
const (
	Internal8 InternalType = iota
	Internal8I
	Internal8UI
	Internal16I
	Internal16UI
	Internal16F
	Internal32I
	Internal32UI
	Internal32F
)

// IsInteger reports whether the internal type holds integer channels.
func (t InternalType) IsInteger() bool {
	switch t {
	case Internal8I, Internal8UI, Internal16I, Internal16UI, Internal32I, Internal32UI:
		return true
	}
	return false
}

// InternalBPP is the size class of one tile-buffer render-target pixel.
type InternalBPP uint8

// Tile-buffer pixel sizes. The values double as tile-size table indices.
const (
	BPP32 InternalBPP = iota
	BPP64
	BPP128
)

// Bits returns the pixel size in bits.
func (b InternalBPP) Bits() uint32 { return 32 << b }

// Plane describes one plane of a multi-planar format.
type Plane struct {
	Format Format
	DivX   uint32
	DivY   uint32
}

// Info describes a format.
type Info struct {
	Name       string
	Kind       Kind
	BlockBytes uint32 // bytes per texel block
	BlockW     uint32
	BlockH     uint32
	Channels   uint32
	Aspects    Aspect

	// TLB reports that the tile buffer can load and store the format
	// directly: as a color render target, or as a Z/S buffer for
	// depth/stencil formats.
	TLB      bool
	Internal InternalType
	BPP      InternalBPP

	Texture bool // sampleable by the texture unit
	Resolve bool // decimated by a TLB store

	Planes []Plane
}

func color(name string, kind Kind, cpp, channels uint32, rt bool, it InternalType, bpp InternalBPP) Info {
	return Info{
		Name:       name,
		Kind:       kind,
		BlockBytes: cpp,
		BlockW:     1,
		BlockH:     1,
		Channels:   channels,
		Aspects:    AspectColor,
		TLB:        rt,
		Internal:   it,
		BPP:        bpp,
		Texture:    true,
		Resolve:    rt && !it.IsInteger(),
	}
}

func depth(name string, cpp uint32, aspects Aspect) Info {
	return Info{
		Name:       name,
		Kind:       KindDepthStencil,
		BlockBytes: cpp,
		BlockW:     1,
		BlockH:     1,
		Channels:   1,
		Aspects:    aspects,
		TLB:        true,
		Internal:   Internal32UI,
		BPP:        BPP32,
		Texture:    true,
	}
}

func compressed(name string, blockBytes, bw, bh uint32) Info {
	return Info{
		Name:       name,
		Kind:       KindCompressed,
		BlockBytes: blockBytes,
		BlockW:     bw,
		BlockH:     bh,
		Channels:   4,
		Aspects:    AspectColor,
		Texture:    true,
	}
}

var infos = [formatCount]Info{
	Undefined: {Name: "undefined", BlockW: 1, BlockH: 1},

	R8Unorm:          color("r8_unorm", KindUnorm, 1, 1, true, Internal8, BPP32),
	R8Snorm:          color("r8_snorm", KindSnorm, 1, 1, false, Internal8, BPP32),
	R8Uint:           color("r8_uint", KindUint, 1, 1, true, Internal8UI, BPP32),
	R8Sint:           color("r8_sint", KindSint, 1, 1, true, Internal8I, BPP32),
	RG8Unorm:         color("rg8_unorm", KindUnorm, 2, 2, true, Internal8, BPP32),
	RG8Snorm:         color("rg8_snorm", KindSnorm, 2, 2, false, Internal8, BPP32),
	RG8Uint:          color("rg8_uint", KindUint, 2, 2, true, Internal8UI, BPP32),
	RGBA8Unorm:       color("rgba8_unorm", KindUnorm, 4, 4, true, Internal8, BPP32),
	RGBA8Srgb:        color("rgba8_srgb", KindSrgb, 4, 4, true, Internal8, BPP32),
	RGBA8Snorm:       color("rgba8_snorm", KindSnorm, 4, 4, false, Internal8, BPP32),
	RGBA8Uint:        color("rgba8_uint", KindUint, 4, 4, true, Internal8UI, BPP32),
	RGBA8Sint:        color("rgba8_sint", KindSint, 4, 4, true, Internal8I, BPP32),
	BGRA8Unorm:       color("bgra8_unorm", KindUnorm, 4, 4, true, Internal8, BPP32),
	RGB565Unorm:      color("rgb565_unorm", KindUnorm, 2, 3, true, Internal8, BPP32),
	RGBA4Unorm:       color("rgba4_unorm", KindUnorm, 2, 4, true, Internal8, BPP32),
	A2B10G10R10Unorm: color("a2b10g10r10_unorm", KindUnorm, 4, 4, true, Internal16F, BPP64),
	A2B10G10R10Uint:  color("a2b10g10r10_uint", KindUint, 4, 4, true, Internal16UI, BPP64),
	B10G11R11Ufloat:  color("b10g11r11_ufloat", KindFloat, 4, 3, true, Internal16F, BPP64),
	E5B9G9R9Ufloat:   color("e5b9g9r9_ufloat", KindFloat, 4, 3, false, Internal16F, BPP64),
	R16Unorm:         color("r16_unorm", KindUnorm, 2, 1, false, Internal16UI, BPP32),
	R16Snorm:         color("r16_snorm", KindSnorm, 2, 1, false, Internal16I, BPP32),
	R16Uint:          color("r16_uint", KindUint, 2, 1, true, Internal16UI, BPP32),
	R16Sint:          color("r16_sint", KindSint, 2, 1, true, Internal16I, BPP32),
	R16Sfloat:        color("r16_sfloat", KindFloat, 2, 1, true, Internal16F, BPP32),
	RG16Unorm:        color("rg16_unorm", KindUnorm, 4, 2, false, Internal16UI, BPP32),
	RG16Snorm:        color("rg16_snorm", KindSnorm, 4, 2, false, Internal16I, BPP32),
	RG16Uint:         color("rg16_uint", KindUint, 4, 2, true, Internal16UI, BPP32),
	RG16Sfloat:       color("rg16_sfloat", KindFloat, 4, 2, true, Internal16F, BPP32),
	RGBA16Unorm:      color("rgba16_unorm", KindUnorm, 8, 4, false, Internal16UI, BPP64),
	RGBA16Snorm:      color("rgba16_snorm", KindSnorm, 8, 4, false, Internal16I, BPP64),
	RGBA16Uint:       color("rgba16_uint", KindUint, 8, 4, true, Internal16UI, BPP64),
	RGBA16Sint:       color("rgba16_sint", KindSint, 8, 4, true, Internal16I, BPP64),
	RGBA16Sfloat:     color("rgba16_sfloat", KindFloat, 8, 4, true, Internal16F, BPP64),
	R32Uint:          color("r32_uint", KindUint, 4, 1, true, Internal32UI, BPP32),
	R32Sint:          color("r32_sint", KindSint, 4, 1, true, Internal32I, BPP32),
	R32Sfloat:        color("r32_sfloat", KindFloat, 4, 1, true, Internal32F, BPP32),
	RG32Uint:         color("rg32_uint", KindUint, 8, 2, true, Internal32UI, BPP64),
	RG32Sfloat:       color("rg32_sfloat", KindFloat, 8, 2, true, Internal32F, BPP64),
	RGBA32Uint:       color("rgba32_uint", KindUint, 16, 4, true, Internal32UI, BPP128),
	RGBA32Sint:       color("rgba32_sint", KindSint, 16, 4, true, Internal32I, BPP128),
	RGBA32Sfloat:     color("rgba32_sfloat", KindFloat, 16, 4, true, Internal32F, BPP128),

	D16Unorm:       depth("d16_unorm", 2, AspectDepth),
	X8D24Unorm:     depth("x8_d24_unorm", 4, AspectDepth),
	D32Sfloat:      depth("d32_sfloat", 4, AspectDepth),
	D24UnormS8Uint: depth("d24_unorm_s8_uint", 4, AspectDepthStencil),
	S8Uint: {
		Name: "s8_uint", Kind: KindDepthStencil, BlockBytes: 1, BlockW: 1, BlockH: 1,
		Channels: 1, Aspects: AspectStencil,
	},

	ETC2RGB8Unorm:  compressed("etc2_rgb8_unorm", 8, 4, 4),
	ETC2RGBA8Unorm: compressed("etc2_rgba8_unorm", 16, 4, 4),
	EACR11Unorm:    compressed("eac_r11_unorm", 8, 4, 4),
	EACRG11Unorm:   compressed("eac_rg11_unorm", 16, 4, 4),
	BC1RGBAUnorm:   compressed("bc1_rgba_unorm", 8, 4, 4),
	BC3RGBAUnorm:   compressed("bc3_rgba_unorm", 16, 4, 4),
	ASTC4x4Unorm:   compressed("astc_4x4_unorm", 16, 4, 4),
	ASTC8x8Unorm:   compressed("astc_8x8_unorm", 16, 8, 8),

	G8B8R82Plane420Unorm: {
		Name: "g8_b8r8_2plane_420_unorm", Kind: KindPlanar, BlockW: 1, BlockH: 1,
		Channels: 3, Aspects: AspectColor | AspectPlane0 | AspectPlane1, Texture: true,
		Planes: []Plane{
			{Format: R8Unorm, DivX: 1, DivY: 1},
			{Format: RG8Unorm, DivX: 2, DivY: 2},
		},
	},
}

// Info returns the description of f. Unknown formats describe as Undefined.
func (f Format) Info() *Info {
	if f >= formatCount {
		return &infos[Undefined]
	}
	return &infos[f]
}

func (f Format) String() string {
	if f >= formatCount {
		return fmt.Sprintf("Format(%d)", uint16(f))
	}
	return infos[f].Name
}

// Parse returns the format with the given name.
func Parse(name string) (Format, bool) {
	for f := Format(1); f < formatCount; f++ {
		if infos[f].Name == name {
			return f, true
		}
	}
	return Undefined, false
}

// BlockBytes returns the bytes per texel block (bytes per pixel for
// uncompressed formats).
func (f Format) BlockBytes() uint32 { return f.Info().BlockBytes }

// IsCompressed reports whether f is block compressed.
func (f Format) IsCompressed() bool { return f.Info().Kind == KindCompressed }

// IsDepthStencil reports whether f has a depth or stencil aspect.
func (f Format) IsDepthStencil() bool { return f.Info().Aspects&AspectDepthStencil != 0 }

// HasDepth reports whether f has a depth aspect.
func (f Format) HasDepth() bool { return f.Info().Aspects&AspectDepth != 0 }

// HasStencil reports whether f has a stencil aspect.
func (f Format) HasStencil() bool { return f.Info().Aspects&AspectStencil != 0 }

// IsInteger reports whether f has unnormalized integer channels.
func (f Format) IsInteger() bool {
	k := f.Info().Kind
	return k == KindUint || k == KindSint
}

// IsPlanar reports whether f stores its channels in separate planes.
func (f Format) IsPlanar() bool { return len(f.Info().Planes) > 0 }

// PlaneFormat returns the format and subsampling of plane p. Single-plane
// formats report themselves for plane 0.
func (f Format) PlaneFormat(p int) (Plane, bool) {
	info := f.Info()
	if len(info.Planes) == 0 {
		if p != 0 {
			return Plane{}, false
		}
		return Plane{Format: f, DivX: 1, DivY: 1}, true
	}
	if p < 0 || p >= len(info.Planes) {
		return Plane{}, false
	}
	return info.Planes[p], true
}

// PlaneCount returns the number of memory planes of f.
func (f Format) PlaneCount() int {
	if n := len(f.Info().Planes); n > 0 {
		return n
	}
	return 1
}

// InternalTypeBPP returns the tile-buffer render-target type and size used
// when the given aspect of f goes through the tile buffer. Depth and stencil
// aspects never occupy a color render target and report a 32 bpp unsigned
// layout.
func InternalTypeBPP(f Format, aspect Aspect) (InternalType, InternalBPP) {
	if aspect&AspectDepthStencil != 0 {
		return Internal32UI, BPP32
	}
	info := f.Info()
	return info.Internal, info.BPP
}
