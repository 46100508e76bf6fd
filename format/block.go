package format

import "math"

// scaleTolerance bounds how far a block-scaled dimension may sit from an
// integer before the scale is rejected.
const scaleTolerance = 1e-4

// BlockScale returns the factors that convert a texel count of src into a
// texel count of dst when both describe the same bytes.
func BlockScale(src, dst Format) (sx, sy float64) {
	si, di := src.Info(), dst.Info()
	return float64(si.BlockW) / float64(di.BlockW), float64(si.BlockH) / float64(di.BlockH)
}

// ScaleDim multiplies a dimension by a block scale factor. A fractional
// result is rounded up when edge is set (the region ends at the level edge,
// where partial blocks are legal) and rejected otherwise.
func ScaleDim(v uint32, scale float64, edge bool) (uint32, bool) {
	f := float64(v) * scale
	r := math.Round(f)
	if math.Abs(f-r) <= scaleTolerance {
		return uint32(r), true
	}
	if edge {
		return uint32(math.Ceil(f)), true
	}
	return 0, false
}

// Blocks returns the number of texel blocks covering v texels of block size b.
func Blocks(v, b uint32) uint32 {
	if b <= 1 {
		return v
	}
	return (v + b - 1) / b
}

// Minify returns the size of a dimension at a mip level.
func Minify(v, level uint32) uint32 {
	v >>= level
	if v == 0 {
		return 1
	}
	return v
}
