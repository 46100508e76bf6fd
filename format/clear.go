package format

import (
	"encoding/binary"
	"math"
)

// ClearColor is a clear value as the API delivers it: four 32-bit channels
// holding float bits for normalized and float formats, and integers for
// integer formats.
type ClearColor [4]uint32

// FloatClear builds a ClearColor from float channels.
func FloatClear(r, g, b, a float32) ClearColor {
	return ClearColor{math.Float32bits(r), math.Float32bits(g), math.Float32bits(b), math.Float32bits(a)}
}

// UintClear builds a ClearColor from integer channels.
func UintClear(r, g, b, a uint32) ClearColor {
	return ClearColor{r, g, b, a}
}

func unorm(bits uint32, max float64) uint32 {
	v := float64(math.Float32frombits(bits))
	v = math.Max(0, math.Min(1, v))
	return uint32(math.Round(v * max))
}

func snorm(bits uint32, max float64) uint32 {
	v := float64(math.Float32frombits(bits))
	v = math.Max(-1, math.Min(1, v))
	return uint32(int32(math.Round(v * max)))
}

// half converts float32 bits to IEEE half precision, truncating the mantissa.
func half(bits uint32) uint16 {
	sign := uint16(bits>>16) & 0x8000
	exp := int32(bits>>23&0xff) - 127 + 15
	mant := bits & 0x7fffff
	switch {
	case bits&0x7fffffff == 0:
		return sign
	case exp >= 0x1f:
		return sign | 0x7c00
	case exp <= 0:
		return sign
	}
	return sign | uint16(exp)<<10 | uint16(mant>>13)
}

// ufloat converts float32 bits to an unsigned small float with a 5-bit
// exponent and mant mantissa bits, as used by B10G11R11. Negative values
// clamp to zero and the mantissa is truncated.
func ufloat(bits uint32, mant uint32) uint32 {
	const inf = 0x1f
	switch {
	case bits&0x7fffffff > 0x7f800000:
		return inf<<mant | 1
	case bits&0x80000000 != 0 || bits == 0:
		return 0
	}
	exp := int32(bits>>23&0xff) - 127 + 15
	m := bits & 0x7fffff
	switch {
	case exp >= inf:
		return inf << mant
	case exp <= 0:
		shift := 23 - int32(mant) + 1 - exp
		if shift > 31 {
			return 0
		}
		return (m | 0x800000) >> uint32(shift)
	}
	return uint32(exp)<<mant | m>>(23-mant)
}

// sharedExp packs three channels into E5B9G9R9: 9-bit mantissas over one
// 5-bit exponent, rounding to nearest.
func sharedExp(c ClearColor) uint32 {
	const (
		bias  = 15
		nbits = 9
		maxV  = float64(511) / 512 * (1 << (31 - bias))
	)
	var v [3]float64
	for i := range v {
		f := float64(math.Float32frombits(c[i]))
		if math.IsNaN(f) {
			f = 0
		}
		v[i] = math.Max(0, math.Min(maxV, f))
	}
	maxc := math.Max(v[0], math.Max(v[1], v[2]))
	exp := int(math.Max(-bias-1, math.Floor(math.Log2(maxc)))) + 1 + bias
	if math.Floor(maxc/math.Exp2(float64(exp-bias-nbits))+0.5) == 1<<nbits {
		exp++
	}
	scale := math.Exp2(float64(exp - bias - nbits))
	out := uint32(exp) << 27
	for i := range v {
		out |= uint32(math.Floor(v[i]/scale+0.5)) << (9 * i)
	}
	return out
}

// srgb applies the sRGB transfer to linear float bits and returns the
// encoded value as float bits.
func srgb(bits uint32) uint32 {
	v := float64(math.Float32frombits(bits))
	v = math.Max(0, math.Min(1, v))
	if v <= 0.0031308 {
		v *= 12.92
	} else {
		v = 1.055*math.Pow(v, 1/2.4) - 0.055
	}
	return math.Float32bits(float32(v))
}

// PackClearColor encodes c as the in-memory bytes of one texel of f. sRGB
// formats encode the color channels and keep alpha linear. It reports false
// for compressed, planar and depth/stencil formats.
func PackClearColor(f Format, c ClearColor) ([]byte, bool) {
	info := f.Info()
	out := make([]byte, info.BlockBytes)
	switch f {
	case B10G11R11Ufloat:
		v := ufloat(c[0], 6) | ufloat(c[1], 6)<<11 | ufloat(c[2], 5)<<22
		binary.LittleEndian.PutUint32(out, v)
		return out, true
	case E5B9G9R9Ufloat:
		binary.LittleEndian.PutUint32(out, sharedExp(c))
		return out, true
	case RGB565Unorm:
		v := unorm(c[0], 31)<<11 | unorm(c[1], 63)<<5 | unorm(c[2], 31)
		binary.LittleEndian.PutUint16(out, uint16(v))
		return out, true
	case RGBA4Unorm:
		v := unorm(c[0], 15)<<12 | unorm(c[1], 15)<<8 | unorm(c[2], 15)<<4 | unorm(c[3], 15)
		binary.LittleEndian.PutUint16(out, uint16(v))
		return out, true
	case A2B10G10R10Unorm:
		v := unorm(c[0], 1023) | unorm(c[1], 1023)<<10 | unorm(c[2], 1023)<<20 | unorm(c[3], 3)<<30
		binary.LittleEndian.PutUint32(out, v)
		return out, true
	case A2B10G10R10Uint:
		v := c[0]&0x3ff | (c[1]&0x3ff)<<10 | (c[2]&0x3ff)<<20 | (c[3]&3)<<30
		binary.LittleEndian.PutUint32(out, v)
		return out, true
	case BGRA8Unorm:
		out[0], out[1], out[2], out[3] = byte(unorm(c[2], 255)), byte(unorm(c[1], 255)), byte(unorm(c[0], 255)), byte(unorm(c[3], 255))
		return out, true
	}
	if info.Kind == KindCompressed || info.Kind == KindDepthStencil || info.Kind == KindPlanar ||
		info.Channels == 0 || info.BlockBytes%info.Channels != 0 {
		return nil, false
	}
	size := info.BlockBytes / info.Channels
	for ch := uint32(0); ch < info.Channels; ch++ {
		var v uint32
		switch {
		case info.Kind == KindSrgb && ch < 3:
			v = unorm(srgb(c[ch]), float64(uint64(1)<<(size*8)-1))
		case info.Kind == KindUnorm || info.Kind == KindSrgb:
			v = unorm(c[ch], float64(uint64(1)<<(size*8)-1))
		case info.Kind == KindSnorm:
			v = snorm(c[ch], float64(uint64(1)<<(size*8-1)-1))
		case info.Kind == KindFloat && size == 2:
			v = uint32(half(c[ch]))
		case info.Kind == KindFloat && size == 4:
			v = c[ch]
		case info.Kind == KindUint || info.Kind == KindSint:
			v = c[ch]
		default:
			return nil, false
		}
		b := out[ch*size : (ch+1)*size]
		switch size {
		case 1:
			b[0] = byte(v)
		case 2:
			binary.LittleEndian.PutUint16(b, uint16(v))
		case 4:
			binary.LittleEndian.PutUint32(b, v)
		}
	}
	return out, true
}

// DepthBits encodes a depth clear value in the bit layout of the depth
// aspect of f: unorm for 16- and 24-bit depth, float bits for 32-bit.
func DepthBits(f Format, depth float32) uint32 {
	switch f {
	case D16Unorm:
		return unorm(math.Float32bits(depth), 0xffff)
	case X8D24Unorm, D24UnormS8Uint:
		return unorm(math.Float32bits(depth), 0xffffff)
	}
	return math.Float32bits(depth)
}
