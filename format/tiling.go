package format

// Tiling is the memory layout of one image slice.
type Tiling uint8

// Memory layouts, from linear to fully tiled.
const (
	TilingRaster Tiling = iota
	TilingLinearTile
	TilingUBLinear1
	TilingUBLinear2
	TilingUIFNoXOR
	TilingUIFXOR
)

// IsTiled reports whether t is any of the hardware tiled layouts.
func (t Tiling) IsTiled() bool { return t != TilingRaster }

// IsUIF reports whether t is a UIF layout, whose slices are addressed by
// padded height rather than by stride.
func (t Tiling) IsUIF() bool { return t == TilingUIFNoXOR || t == TilingUIFXOR }

func (t Tiling) String() string {
	switch t {
	case TilingRaster:
		return "raster"
	case TilingLinearTile:
		return "lt"
	case TilingUBLinear1:
		return "ublinear1"
	case TilingUBLinear2:
		return "ublinear2"
	case TilingUIFNoXOR:
		return "uif"
	case TilingUIFXOR:
		return "uif-xor"
	}
	return "unknown"
}

// ChooseTiling picks the tiling of a slice from its size in texel blocks.
// Small slices use the micro-tile layouts; large ones use UIF.
func ChooseTiling(linear bool, blocksW, blocksH, cpp uint32) Tiling {
	switch {
	case linear:
		return TilingRaster
	case blocksW*cpp <= 32 && blocksH <= 8:
		return TilingLinearTile
	case blocksW*cpp <= 64:
		return TilingUBLinear1
	case blocksW*cpp <= 128:
		return TilingUBLinear2
	}
	return TilingUIFNoXOR
}
