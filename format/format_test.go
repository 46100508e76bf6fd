package format

import (
	"encoding/binary"
	"testing"
)

func allFormats() []Format {
	fs := make([]Format, 0, formatCount)
	for f := Format(1); f < formatCount; f++ {
		fs = append(fs, f)
	}
	return fs
}

func TestFormatTableComplete(t *testing.T) {
	for _, f := range allFormats() {
		info := f.Info()
		if info.Name == "" {
			t.Errorf("format %d has no name", f)
		}
		if info.BlockW == 0 || info.BlockH == 0 {
			t.Errorf("%v: zero block dimensions", f)
		}
		if got, ok := Parse(info.Name); !ok || got != f {
			t.Errorf("Parse(%q) = %v, %v; want %v", info.Name, got, ok, f)
		}
	}
}

func TestResolveTLBNative(t *testing.T) {
	for _, f := range []Format{RGBA8Unorm, R32Uint, RGBA16Sfloat, D24UnormS8Uint, D16Unorm} {
		cf, ok := ResolveTLB(f)
		if !ok {
			t.Fatalf("ResolveTLB(%v) failed", f)
		}
		if cf.Format != f {
			t.Errorf("ResolveTLB(%v) = %v, want unchanged", f, cf.Format)
		}
	}
}

func TestResolveTLBSubstitutes(t *testing.T) {
	tests := []struct {
		in, want Format
	}{
		{R8Snorm, R8Uint},
		{RGBA8Snorm, RGBA8Uint},
		{R16Unorm, R16Uint},
		{RG16Snorm, RG16Uint},
		{RGBA16Unorm, RGBA16Uint},
		{E5B9G9R9Ufloat, R32Sfloat},
	}
	for _, tt := range tests {
		cf, ok := ResolveTLB(tt.in)
		if !ok || cf.Format != tt.want {
			t.Errorf("ResolveTLB(%v) = %v, %v; want %v", tt.in, cf.Format, ok, tt.want)
		}
	}
}

func TestResolveTLBCompressed(t *testing.T) {
	tests := []struct {
		in     Format
		want   Format
		bw, bh uint32
	}{
		{ETC2RGB8Unorm, RGBA16Uint, 4, 4},
		{ETC2RGBA8Unorm, RGBA32Uint, 4, 4},
		{BC1RGBAUnorm, RGBA16Uint, 4, 4},
		{ASTC8x8Unorm, RGBA32Uint, 8, 8},
	}
	for _, tt := range tests {
		cf, ok := ResolveTLB(tt.in)
		if !ok {
			t.Fatalf("ResolveTLB(%v) failed", tt.in)
		}
		if cf.Format != tt.want || cf.BlockW != tt.bw || cf.BlockH != tt.bh {
			t.Errorf("ResolveTLB(%v) = %+v, want %v %dx%d", tt.in, cf, tt.want, tt.bw, tt.bh)
		}
	}
}

func TestResolveTLBUnsupported(t *testing.T) {
	for _, f := range []Format{S8Uint, G8B8R82Plane420Unorm, Undefined} {
		if cf, ok := ResolveTLB(f); ok {
			t.Errorf("ResolveTLB(%v) = %v, want failure", f, cf.Format)
		}
	}
}

// TestResolveTLBInvariants checks the byte-size invariant and idempotence
// over the whole table.
func TestResolveTLBInvariants(t *testing.T) {
	for _, f := range allFormats() {
		cf, ok := ResolveTLB(f)
		if !ok {
			continue
		}
		if got := cf.Format.BlockBytes() * 8; got != cf.BitsPerPixel {
			t.Errorf("%v -> %v: pixel bits %d, want %d", f, cf.Format, got, cf.BitsPerPixel)
		}
		if cf.BitsPerPixel != f.BlockBytes()*8 {
			t.Errorf("%v: compatible bits %d, want block bits %d", f, cf.BitsPerPixel, f.BlockBytes()*8)
		}
		again, ok := ResolveTLB(cf.Format)
		if !ok || again.Format != cf.Format || again.BitsPerPixel != cf.BitsPerPixel {
			t.Errorf("ResolveTLB not idempotent for %v: %v then %v", f, cf.Format, again.Format)
		}
	}
}

func TestResolveTFU(t *testing.T) {
	for _, cpp := range []uint32{1, 2, 4, 8, 16} {
		f, ok := ResolveTFU(cpp)
		if !ok {
			t.Fatalf("ResolveTFU(%d) failed", cpp)
		}
		if f.BlockBytes() != cpp {
			t.Errorf("ResolveTFU(%d) = %v with %d bytes", cpp, f, f.BlockBytes())
		}
	}
	if _, ok := ResolveTFU(3); ok {
		t.Error("ResolveTFU(3) succeeded")
	}
}

func TestScaleDim(t *testing.T) {
	sx, sy := BlockScale(ETC2RGB8Unorm, RGBA16Uint)
	if sx != 4 || sy != 4 {
		t.Fatalf("BlockScale = %v, %v; want 4, 4", sx, sy)
	}
	if v, ok := ScaleDim(16, 1/sx, false); !ok || v != 4 {
		t.Errorf("ScaleDim(16, 1/4) = %d, %v", v, ok)
	}
	if _, ok := ScaleDim(6, 1/sx, false); ok {
		t.Error("ScaleDim(6, 1/4) accepted a fractional dimension")
	}
	if v, ok := ScaleDim(6, 1/sx, true); !ok || v != 2 {
		t.Errorf("ScaleDim(6, 1/4, edge) = %d, %v; want 2", v, ok)
	}
}

func TestMinify(t *testing.T) {
	if Minify(256, 3) != 32 || Minify(3, 4) != 1 {
		t.Error("Minify mismatch")
	}
}

func TestColorViewD24(t *testing.T) {
	v, ok := ColorView(D24UnormS8Uint, AspectDepth, ImageToBuffer)
	if !ok {
		t.Fatal("no depth view")
	}
	if v.Mask != WriteR|WriteG|WriteB {
		t.Errorf("depth->buffer mask = %v", v.Mask)
	}
	if v.Swizzle != (Swizzle{CompG, CompB, CompA, CompZero}) {
		t.Errorf("depth->buffer swizzle = %v", v.Swizzle)
	}

	v, ok = ColorView(D24UnormS8Uint, AspectStencil, ImageToBuffer)
	if !ok || v.Dst != R8Uint || v.BufferBPP != 1 {
		t.Errorf("stencil->buffer view = %+v, %v", v, ok)
	}

	v, ok = ColorView(D24UnormS8Uint, AspectStencil, BufferToImage)
	if !ok || v.Src != R8Uint || v.Mask != WriteR {
		t.Errorf("buffer->stencil view = %+v, %v", v, ok)
	}

	v, ok = ColorView(D24UnormS8Uint, AspectDepth, ImageToImage)
	if !ok || v.Mask != WriteG|WriteB|WriteA {
		t.Errorf("depth blit view = %+v, %v", v, ok)
	}
}

func TestColorViewRejects(t *testing.T) {
	if _, ok := ColorView(D32Sfloat, AspectStencil, ImageToBuffer); ok {
		t.Error("stencil view of D32 accepted")
	}
	if _, ok := ColorView(S8Uint, AspectDepth, ImageToBuffer); ok {
		t.Error("depth view of S8 accepted")
	}
}

func TestColorViewStencilOnly(t *testing.T) {
	for _, dir := range []Direction{ImageToImage, ImageToBuffer, BufferToImage} {
		v, ok := ColorView(S8Uint, AspectStencil, dir)
		if !ok || v.Src != R8Uint || v.Dst != R8Uint || v.Mask != WriteRGBA || v.BufferBPP != 1 {
			t.Errorf("S8 view (dir %d) = %+v, %v; want raw R8Uint", dir, v, ok)
		}
	}
}

// TestEveryFormatHasAPath checks that each non-planar format has either a
// tile-buffer format or a shader view, so some transfer path can move it.
func TestEveryFormatHasAPath(t *testing.T) {
	for _, f := range allFormats() {
		info := f.Info()
		if f.IsPlanar() {
			continue
		}
		if _, ok := ResolveTLB(f); ok {
			continue
		}
		found := false
		for _, a := range []Aspect{AspectColor, AspectDepth, AspectStencil} {
			if info.Aspects&a == 0 {
				continue
			}
			if _, ok := ColorView(f, a, ImageToBuffer); ok {
				found = true
			}
		}
		if !found {
			t.Errorf("%v: no tile-buffer format and no shader view", f)
		}
	}
}

func TestColorViewPlane(t *testing.T) {
	v, ok := ColorView(G8B8R82Plane420Unorm, AspectPlane1, ImageToBuffer)
	if !ok || v.Src != R16Uint {
		t.Errorf("plane1 view = %+v, %v; want R16Uint", v, ok)
	}
}

func TestBufferView(t *testing.T) {
	a, ok := BufferView(D24UnormS8Uint, AspectDepth)
	if !ok || !a.ChannelReverse || !a.RBSwap {
		t.Errorf("D24 depth buffer view = %+v", a)
	}
	a, ok = BufferView(D24UnormS8Uint, AspectStencil)
	if !ok || a.Store != R8Uint || a.BufferBPP != 1 {
		t.Errorf("D24 stencil buffer view = %+v", a)
	}
	if _, ok := BufferView(D32Sfloat, AspectStencil); ok {
		t.Error("D32 stencil buffer view accepted")
	}
}

func TestPackClearColor(t *testing.T) {
	b, ok := PackClearColor(RGBA8Unorm, FloatClear(1, 0, 0.5, 1))
	if !ok {
		t.Fatal("RGBA8 pack failed")
	}
	if b[0] != 255 || b[1] != 0 || b[2] != 128 || b[3] != 255 {
		t.Errorf("RGBA8 pack = %v", b)
	}

	b, ok = PackClearColor(R32Uint, UintClear(0xdeadbeef, 0, 0, 0))
	if !ok || binary.LittleEndian.Uint32(b) != 0xdeadbeef {
		t.Errorf("R32Uint pack = %x, %v", b, ok)
	}

	b, ok = PackClearColor(RGBA16Sfloat, FloatClear(1, 0, 0, 0))
	if !ok || binary.LittleEndian.Uint16(b) != 0x3c00 {
		t.Errorf("RGBA16F pack = %x, %v", b, ok)
	}

	if _, ok := PackClearColor(ETC2RGB8Unorm, FloatClear(0, 0, 0, 0)); ok {
		t.Error("compressed clear packed")
	}
}

func TestPackClearColorPackedFloat(t *testing.T) {
	tests := []struct {
		name string
		f    Format
		c    ClearColor
		want uint32
	}{
		{"b10g11r11 ones", B10G11R11Ufloat, FloatClear(1, 1, 1, 1), 0x3c0 | 0x3c0<<11 | 0x1e0<<22},
		{"b10g11r11 half red", B10G11R11Ufloat, FloatClear(0.5, 0, 0, 0), 0x380},
		{"b10g11r11 negative clamps", B10G11R11Ufloat, FloatClear(-2, 0, 0, 0), 0},
		{"b10g11r11 overflow", B10G11R11Ufloat, FloatClear(1e6, 0, 0, 0), 0x7c0},
		{"e5b9g9r9 ones", E5B9G9R9Ufloat, FloatClear(1, 1, 1, 1), 256 | 256<<9 | 256<<18 | 16<<27},
		{"e5b9g9r9 zero", E5B9G9R9Ufloat, FloatClear(0, 0, 0, 0), 0},
		{"e5b9g9r9 mixed", E5B9G9R9Ufloat, FloatClear(2, 0.5, 0, 1), 256 | 64<<9 | 17<<27},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := PackClearColor(tt.f, tt.c)
			if !ok {
				t.Fatal("not packed")
			}
			if got := binary.LittleEndian.Uint32(b); got != tt.want {
				t.Errorf("packed = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestPackClearColorSrgb(t *testing.T) {
	b, ok := PackClearColor(RGBA8Srgb, FloatClear(0.5, 1, 0, 0.5))
	if !ok {
		t.Fatal("sRGB pack failed")
	}
	if b[0] != 188 || b[1] != 255 || b[2] != 0 || b[3] != 128 {
		t.Errorf("sRGB pack = %v, want [188 255 0 128]", b)
	}
}

func TestDepthBits(t *testing.T) {
	if got := DepthBits(D24UnormS8Uint, 1); got != 0xffffff {
		t.Errorf("DepthBits(D24, 1) = %#x", got)
	}
	if got := DepthBits(D16Unorm, 0); got != 0 {
		t.Errorf("DepthBits(D16, 0) = %#x", got)
	}
}
