package format

// CompatibleFormat is a format the tile buffer or raw-copy unit can move
// bit-exactly in place of a requested one.
//
// BitsPerPixel of Format always equals the requested format's bits per texel
// block, so BlockW and BlockH say how the requested extent shrinks when
// viewed through Format.
type CompatibleFormat struct {
	Format       Format
	BlockW       uint32
	BlockH       uint32
	BitsPerPixel uint32
}

// tlbSubstitutes maps formats the tile buffer cannot store onto integer
// formats of the same width. Only raw copies and clears may use them.
var tlbSubstitutes = map[Format]Format{
	R8Snorm:        R8Uint,
	RG8Snorm:       RG8Uint,
	RGBA8Snorm:     RGBA8Uint,
	R16Unorm:       R16Uint,
	R16Snorm:       R16Uint,
	RG16Unorm:      RG16Uint,
	RG16Snorm:      RG16Uint,
	RGBA16Unorm:    RGBA16Uint,
	RGBA16Snorm:    RGBA16Uint,
	E5B9G9R9Ufloat: R32Sfloat,
}

// CompressedAlias returns the uncompressed integer format whose pixel size
// equals the block size of a compressed format.
func CompressedAlias(blockBytes uint32) (Format, bool) {
	switch blockBytes {
	case 8:
		return RGBA16Uint, true
	case 16:
		return RGBA32Uint, true
	}
	return Undefined, false
}

// ResolveTLB returns the format a tile-buffer load/store of f should use.
// It reports false when no TLB path can move f; callers then fall back to
// the shader paths.
func ResolveTLB(f Format) (CompatibleFormat, bool) {
	info := f.Info()
	if info.TLB {
		return CompatibleFormat{
			Format:       f,
			BlockW:       info.BlockW,
			BlockH:       info.BlockH,
			BitsPerPixel: info.BlockBytes * 8,
		}, true
	}
	if sub, ok := tlbSubstitutes[f]; ok {
		return CompatibleFormat{Format: sub, BlockW: 1, BlockH: 1, BitsPerPixel: info.BlockBytes * 8}, true
	}
	if info.Kind == KindCompressed {
		alias, ok := CompressedAlias(info.BlockBytes)
		if !ok {
			return CompatibleFormat{}, false
		}
		return CompatibleFormat{
			Format:       alias,
			BlockW:       info.BlockW,
			BlockH:       info.BlockH,
			BitsPerPixel: info.BlockBytes * 8,
		}, true
	}
	return CompatibleFormat{}, false
}

// ResolveTFU returns the canonical raw-copy format for a texel size. The
// raw-copy unit never converts, so any format of the right size works.
func ResolveTFU(cpp uint32) (Format, bool) {
	switch cpp {
	case 16:
		return RGBA32Sfloat, true
	case 8:
		return RGBA16Sfloat, true
	case 4:
		return R32Sfloat, true
	case 2:
		return R16Sfloat, true
	case 1:
		return R8Unorm, true
	}
	return Undefined, false
}

// SupportsTLBResolve reports whether a TLB store can decimate multisampled
// pixels of f.
func SupportsTLBResolve(f Format) bool {
	return f.Info().Resolve
}

// BufferAccess is the color-aliased tile-buffer access used to move one
// aspect of a depth/stencil image to or from a linear buffer.
type BufferAccess struct {
	// Load is the format the image is loaded into render target 0 with.
	Load Format
	// Store is the format written to the buffer.
	Store Format
	// BufferBPP is the size of one texel in the buffer.
	BufferBPP uint32
	// ChannelReverse and RBSwap together turn the hardware's S8D24 byte
	// order into the API's D24X8 order.
	ChannelReverse bool
	RBSwap         bool
}

// BufferView returns how the tile buffer reads the given aspect of f for a
// store into a linear buffer. Color aspects use the TLB-compatible format.
func BufferView(f Format, aspect Aspect) (BufferAccess, bool) {
	switch f {
	case D16Unorm:
		return BufferAccess{Load: R16Uint, Store: R16Uint, BufferBPP: 2}, aspect == AspectDepth
	case D32Sfloat:
		return BufferAccess{Load: R32Sfloat, Store: R32Sfloat, BufferBPP: 4}, aspect == AspectDepth
	case X8D24Unorm:
		return BufferAccess{
			Load: RGBA8Uint, Store: RGBA8Uint, BufferBPP: 4,
			ChannelReverse: true, RBSwap: true,
		}, aspect == AspectDepth
	case D24UnormS8Uint:
		switch aspect {
		case AspectDepth:
			return BufferAccess{
				Load: RGBA8Uint, Store: RGBA8Uint, BufferBPP: 4,
				ChannelReverse: true, RBSwap: true,
			}, true
		case AspectStencil:
			// Stencil lives in the low byte: store only the red channel so the
			// buffer receives packed 8-bit values.
			return BufferAccess{Load: RGBA8Uint, Store: R8Uint, BufferBPP: 1}, true
		}
		return BufferAccess{}, false
	case S8Uint:
		return BufferAccess{Load: R8Uint, Store: R8Uint, BufferBPP: 1}, aspect == AspectStencil
	}
	cf, ok := ResolveTLB(f)
	if !ok || aspect&AspectDepthStencil != 0 {
		return BufferAccess{}, false
	}
	return BufferAccess{Load: cf.Format, Store: cf.Format, BufferBPP: f.BlockBytes()}, true
}

// BufferAspectFormat returns the format a linear buffer uses for one aspect
// of a depth/stencil image: packed stencil bytes, D24 in the low 24 bits of
// a 32-bit word, or the depth format itself.
func BufferAspectFormat(f Format, aspect Aspect) Format {
	switch {
	case aspect == AspectStencil:
		return S8Uint
	case aspect == AspectDepth && (f == D24UnormS8Uint || f == X8D24Unorm):
		return X8D24Unorm
	}
	return f
}
