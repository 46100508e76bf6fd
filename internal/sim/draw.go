package sim

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/tilexfer"
	"github.com/gogpu/tilexfer/format"
	"github.com/gogpu/tilexfer/rcl"
)

// layout describes how the channels of a format sit in one texel.
type layout struct {
	cpp      uint32
	channels uint32
	size     uint32 // bytes per channel, 0 for packed formats
	integer  bool
	// order maps logical channels (r, g, b, a) to memory positions.
	order [4]uint32
}

func layoutOf(f format.Format) layout {
	info := f.Info()
	l := layout{cpp: info.BlockBytes, channels: info.Channels, integer: f.IsInteger(), order: [4]uint32{0, 1, 2, 3}}
	if l.channels > 0 && l.cpp%l.channels == 0 {
		switch s := l.cpp / l.channels; s {
		case 1, 2, 4:
			l.size = s
		}
	}
	if f == format.BGRA8Unorm {
		l.order = [4]uint32{2, 1, 0, 3}
	}
	return l
}

func (l layout) get(texel []byte, ch uint32) uint32 {
	if ch >= l.channels {
		if ch == 3 {
			return l.one()
		}
		return 0
	}
	b := texel[l.order[ch]*l.size:]
	switch l.size {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(b))
	}
	return binary.LittleEndian.Uint32(b)
}

func (l layout) set(texel []byte, ch, v uint32) {
	if ch >= l.channels {
		return
	}
	b := texel[l.order[ch]*l.size:]
	switch l.size {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	default:
		binary.LittleEndian.PutUint32(b, v)
	}
}

// one is the channel value of a constant one.
func (l layout) one() uint32 {
	if l.integer {
		return 1
	}
	return uint32(uint64(1)<<(8*l.size) - 1)
}

// writeMasked writes the channels of src that mask selects into dst.
func writeMasked(dst, src []byte, l layout, mask gputypes.ColorWriteMask) {
	if mask&format.WriteRGBA == format.WriteRGBA || l.size == 0 {
		copy(dst, src)
		return
	}
	for ch := uint32(0); ch < l.channels; ch++ {
		if mask&(1<<ch) != 0 {
			l.set(dst, ch, l.get(src, ch))
		}
	}
}

// view is a TexelView resolved against memory.
type view struct {
	tilexfer.TexelView
	surface
	mem []byte
}

func (e *Executor) open(v tilexfer.TexelView) (view, error) {
	m, err := e.bytes(v.Handle)
	if err != nil {
		return view{}, err
	}
	return view{
		TexelView: v,
		surface:   surface{handle: v.Handle, offset: v.Offset, stride: v.Stride, tiling: v.Tiling, cpp: v.Format.BlockBytes()},
		mem:       m,
	}, nil
}

// samples returns the memory of every sample of pixel (x, y).
func (v view) samples(x, y uint32) ([][]byte, error) {
	if v.Samples <= 1 {
		t, err := v.texel(v.mem, x, y)
		return [][]byte{t}, err
	}
	out := make([][]byte, 0, v.Samples)
	for i := uint32(0); i < v.Samples; i++ {
		sx, sy := sampleCoord(x, y, i)
		t, err := v.texel(v.mem, sx, sy)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (e *Executor) runDraw(d *tilexfer.Draw) error {
	dst, err := e.open(d.Dst)
	if err != nil {
		return err
	}
	if d.Rect.X+d.Rect.Width > d.Dst.Width || d.Rect.Y+d.Rect.Height > d.Dst.Height {
		return fmt.Errorf("%w: draw rect %+v in %dx%d", ErrOutOfBounds, d.Rect, d.Dst.Width, d.Dst.Height)
	}
	switch d.Op {
	case tilexfer.DrawClear:
		return e.clear(d, dst)
	case tilexfer.DrawBlit, tilexfer.DrawTexelCopy:
		src, err := e.open(d.Src)
		if err != nil {
			return err
		}
		if fastBlit(d) {
			return e.scale(d, dst, src)
		}
		return e.copyTexels(d, dst, src)
	}
	return fmt.Errorf("%w: draw %v", ErrUnsupported, d.Op)
}

// each calls fn with the memory of every sample of every pixel of the
// draw rectangle.
func (v *view) each(r rcl.Rect, fn func(x, y uint32, texel []byte) error) error {
	for y := r.Y; y < r.Y+r.Height; y++ {
		for x := r.X; x < r.X+r.Width; x++ {
			ts, err := v.samples(x, y)
			if err != nil {
				return err
			}
			for _, t := range ts {
				if err := fn(x, y, t); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (e *Executor) clear(d *tilexfer.Draw, dst view) error {
	if d.Aspects == 0 {
		l := layoutOf(d.Dst.Format)
		if uint32(len(d.Color)) != l.cpp {
			return fmt.Errorf("%w: %d-byte clear of %v", ErrUnsupported, len(d.Color), d.Dst.Format)
		}
		return dst.each(d.Rect, func(_, _ uint32, t []byte) error {
			writeMasked(t, d.Color, l, d.Mask)
			return nil
		})
	}
	return dst.each(d.Rect, func(_, _ uint32, t []byte) error {
		return clearZS(t, d.Dst.Format, d.Aspects, d.Depth, d.Stencil)
	})
}

// clearZS writes the cleared aspects of one depth/stencil texel, keeping
// the other aspect of combined formats.
func clearZS(t []byte, f format.Format, aspects format.Aspect, depth uint32, stencil uint8) error {
	z, s := aspects&format.AspectDepth != 0, aspects&format.AspectStencil != 0
	switch f {
	case format.D16Unorm:
		if z {
			binary.LittleEndian.PutUint16(t, uint16(depth))
		}
	case format.X8D24Unorm, format.D24UnormS8Uint:
		w := binary.LittleEndian.Uint32(t)
		if z {
			w = depth<<8 | w&0xff
		}
		if s {
			w = w&^0xff | uint32(stencil)
		}
		binary.LittleEndian.PutUint32(t, w)
	case format.D32Sfloat:
		if z {
			binary.LittleEndian.PutUint32(t, depth)
		}
	case format.S8Uint:
		if s {
			t[0] = stencil
		}
	default:
		return fmt.Errorf("%w: depth/stencil clear of %v", ErrUnsupported, f)
	}
	return nil
}

// sourceCoord maps destination coordinate p of a rectangle starting at lo
// with size n onto a source box edge pair, sampling texel centers.
func sourceCoord(p, lo, n uint32, s0, s1 int32, limit uint32) uint32 {
	t := (float64(p-lo) + 0.5) / float64(n)
	c := math.Floor(float64(s0) + t*float64(s1-s0))
	return uint32(min(max(c, 0), float64(limit-1)))
}

// copyTexels draws by nearest sampling: each destination pixel copies the
// swizzled channel bits of the source texel its center maps to.
func (e *Executor) copyTexels(d *tilexfer.Draw, dst, src view) error {
	sl, dl := layoutOf(d.Src.Format), layoutOf(d.Dst.Format)
	raw := sl.size == 0 || dl.size == 0
	if raw && (sl.cpp != dl.cpp || !d.Swizzle.IsIdentity()) {
		return fmt.Errorf("%w: packed copy %v -> %v", ErrUnsupported, d.Src.Format, d.Dst.Format)
	}
	if !raw && sl.size != dl.size {
		return fmt.Errorf("%w: converting copy %v -> %v", ErrUnsupported, d.Src.Format, d.Dst.Format)
	}
	out := make([]byte, dl.cpp)
	return dst.each(d.Rect, func(x, y uint32, t []byte) error {
		u := sourceCoord(x, d.Rect.X, d.Rect.Width, d.SrcBox.X0, d.SrcBox.X1, d.Src.Width)
		v := sourceCoord(y, d.Rect.Y, d.Rect.Height, d.SrcBox.Y0, d.SrcBox.Y1, d.Src.Height)
		ss, err := src.samples(u, v)
		if err != nil {
			return err
		}
		if raw {
			writeMasked(t, ss[0], dl, d.Mask)
			return nil
		}
		copy(out, t)
		for ch := uint32(0); ch < 4; ch++ {
			var val uint32
			switch c := d.Swizzle[ch]; c {
			case format.CompZero:
			case format.CompOne:
				val = dl.one()
			default:
				val = sampleValue(ss, sl, uint32(c), d.Resolve && !sl.integer && sl.size == 1)
			}
			dl.set(out, ch, val)
		}
		writeMasked(t, out, dl, d.Mask)
		return nil
	})
}

// sampleValue returns one channel of a pixel: the rounded mean of 8-bit
// normalized samples when average is set, sample 0 otherwise.
func sampleValue(ss [][]byte, l layout, ch uint32, average bool) uint32 {
	if !average || len(ss) == 1 {
		return l.get(ss[0], ch)
	}
	var sum uint32
	for _, s := range ss {
		sum += l.get(s, ch)
	}
	n := uint32(len(ss))
	return (sum + n/2) / n
}

// fastBlit reports whether d is a plain single-sampled blit between 8-bit
// RGBA views, which the image scalers handle.
func fastBlit(d *tilexfer.Draw) bool {
	rgba8 := func(f format.Format) bool {
		l := layoutOf(f)
		return l.cpp == 4 && l.channels == 4 && l.size == 1 && f != format.BGRA8Unorm
	}
	b := d.SrcBox
	return d.Op == tilexfer.DrawBlit && rgba8(d.Src.Format) && rgba8(d.Dst.Format) &&
		d.Src.Samples <= 1 && d.Dst.Samples <= 1 && d.Swizzle.IsIdentity() &&
		b.X0 >= 0 && b.Y0 >= 0 && b.X1 > b.X0 && b.Y1 > b.Y0 &&
		uint32(b.X1) <= d.Src.Width && uint32(b.Y1) <= d.Src.Height
}

// scale draws through golang.org/x/image/draw: nearest-neighbor for
// nearest filtering, bilinear for linear filtering.
func (e *Executor) scale(d *tilexfer.Draw, dst, src view) error {
	b := d.SrcBox
	in := image.NewRGBA(image.Rect(0, 0, int(b.X1-b.X0), int(b.Y1-b.Y0)))
	for y := b.Y0; y < b.Y1; y++ {
		for x := b.X0; x < b.X1; x++ {
			t, err := src.texel(src.mem, uint32(x), uint32(y))
			if err != nil {
				return err
			}
			copy(in.Pix[in.PixOffset(int(x-b.X0), int(y-b.Y0)):], t)
		}
	}
	out := image.NewRGBA(image.Rect(0, 0, int(d.Rect.Width), int(d.Rect.Height)))
	var s xdraw.Scaler = xdraw.NearestNeighbor
	if d.Filter == gputypes.FilterModeLinear {
		s = xdraw.ApproxBiLinear
	}
	s.Scale(out, out.Bounds(), in, in.Bounds(), xdraw.Src, nil)

	l := layoutOf(d.Dst.Format)
	return dst.each(d.Rect, func(x, y uint32, t []byte) error {
		o := out.PixOffset(int(x-d.Rect.X), int(y-d.Rect.Y))
		writeMasked(t, out.Pix[o:o+4], l, d.Mask)
		return nil
	})
}
