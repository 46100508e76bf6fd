package sim

import (
	"encoding/binary"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/tilexfer/format"
	"github.com/gogpu/tilexfer/rcl"
)

const (
	maxSamples = 4
	// garbage fills tile buffers that are neither cleared nor loaded.
	garbage = 0xcd
)

// frame is the rendering mode of a job.
type frame struct {
	tiling   rcl.FrameTiling
	samples  uint32
	internal [rcl.MaxRenderTargets]format.InternalType
	clear    [rcl.MaxRenderTargets][16]byte
	depth    uint32
	stencil  uint8
}

// pixel is the tile-buffer content of one pixel.
type pixel struct {
	rt [rcl.MaxRenderTargets][maxSamples][16]byte
	z  [maxSamples]uint32
	s  [maxSamples]uint8
}

// tile is the tile buffer while one tile renders.
type tile struct {
	x0, y0 uint32
	w, h   uint32
	px     []pixel
}

func (t *tile) reset(f *frame, tx, ty uint32, cleared bool) {
	ft := f.tiling
	t.x0, t.y0 = tx*ft.TileWidth, ty*ft.TileHeight
	t.w = min(ft.TileWidth, ft.Width-t.x0)
	t.h = min(ft.TileHeight, ft.Height-t.y0)
	for i := range t.px {
		p := &t.px[i]
		for s := 0; s < maxSamples; s++ {
			for rt := range p.rt {
				if cleared {
					p.rt[rt][s] = f.clear[rt]
				} else {
					for b := range p.rt[rt][s] {
						p.rt[rt][s][b] = garbage
					}
				}
			}
			if cleared {
				p.z[s], p.s[s] = f.depth, f.stencil
			} else {
				p.z[s], p.s[s] = garbage<<24|garbage<<16|garbage<<8|garbage, garbage
			}
		}
	}
}

func (t *tile) at(x, y uint32) *pixel { return &t.px[y*t.w+x] }

func (e *Executor) runJob(j *rcl.Job) error {
	recs, err := rcl.Decode(j.RCL.Words)
	if err != nil {
		return err
	}
	var (
		f          frame
		configured bool
		cleared    bool
		body       []rcl.Record
		supertiles [][2]uint32
	)
	flush := func() error {
		if body == nil {
			return nil
		}
		err := e.renderLayer(&f, body, cleared, supertiles)
		body, supertiles = nil, nil
		return err
	}

	for _, r := range recs {
		switch r.Op {
		case rcl.OpTileRenderingModeCfgCommon:
			flags := r.Args[3]
			f.tiling, err = rcl.NewFrameTiling(rcl.FrameParams{
				Width:         r.Args[0],
				Height:        r.Args[1],
				Layers:        r.Args[2],
				RenderTargets: flags & 0xf,
				MaxBPP:        format.InternalBPP(flags >> 4 & 0xf),
				MSAA:          flags>>8&1 != 0,
				DoubleBuffer:  flags>>9&1 != 0,
			})
			if err != nil {
				return err
			}
			f.samples = 1
			if f.tiling.MSAA {
				f.samples = maxSamples
			}
			configured = true
		case rcl.OpTileRenderingModeCfgColor:
			f.internal[r.Args[0]%rcl.MaxRenderTargets] = format.InternalType(r.Args[1])
		case rcl.OpTileRenderingModeCfgClearColors:
			rt := r.Args[0] % rcl.MaxRenderTargets
			for i, w := range r.Args[1:] {
				binary.LittleEndian.PutUint32(f.clear[rt][i*4:], w)
			}
		case rcl.OpTileRenderingModeCfgZSClear:
			f.depth, f.stencil = r.Args[0], uint8(r.Args[1])
		case rcl.OpTileListSetBase:
			if err := flush(); err != nil {
				return err
			}
			cleared = false
		case rcl.OpClearTileBuffers:
			cleared = true
		case rcl.OpStartAddressOfGenericTileList:
			if !configured {
				return fmt.Errorf("%w: tile list before rendering mode", rcl.ErrMalformed)
			}
			if r.Args[0] != j.IndirectList.Handle || r.Args[1] > r.Args[2] || r.Args[2] > j.Indirect.Bytes() {
				return fmt.Errorf("%w: generic tile list %v", ErrOutOfBounds, r.Args)
			}
			if body, err = rcl.Decode(j.SubList(r.Args[1], r.Args[2])); err != nil {
				return err
			}
		case rcl.OpSupertileCoordinates:
			supertiles = append(supertiles, [2]uint32{r.Args[0], r.Args[1]})
		case rcl.OpEndOfRendering:
			return flush()
		}
	}
	return fmt.Errorf("%w: missing END_OF_RENDERING", rcl.ErrMalformed)
}

// renderLayer renders the tiles of the given supertiles, one goroutine per
// supertile.
func (e *Executor) renderLayer(f *frame, body []rcl.Record, cleared bool, supertiles [][2]uint32) error {
	ft := f.tiling
	var g errgroup.Group
	g.SetLimit(e.workers)
	for _, st := range supertiles {
		g.Go(func() error {
			t := &tile{px: make([]pixel, ft.TileWidth*ft.TileHeight)}
			for ty := st[1] * ft.SupertileHeight; ty < min((st[1]+1)*ft.SupertileHeight, ft.DrawTilesY); ty++ {
				for tx := st[0] * ft.SupertileWidth; tx < min((st[0]+1)*ft.SupertileWidth, ft.DrawTilesX); tx++ {
					t.reset(f, tx, ty, cleared)
					if err := e.renderTile(f, t, body); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func (e *Executor) renderTile(f *frame, t *tile, body []rcl.Record) error {
	for _, r := range body {
		var err error
		switch r.Op {
		case rcl.OpLoadTileBufferGeneral:
			err = e.load(f, t, r.Surface())
		case rcl.OpStoreTileBufferGeneral:
			err = e.store(f, t, r.Surface())
		case rcl.OpReturnFromSubList:
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// storeOrder applies the byte reordering of a store; loadOrder undoes it.
func storeOrder(b []byte, flags rcl.SurfaceFlags) {
	if flags&rcl.FlagChannelReverse != 0 {
		slices.Reverse(b)
	}
	if flags&rcl.FlagRBSwap != 0 && len(b) >= 3 {
		b[0], b[2] = b[2], b[0]
	}
}

func loadOrder(b []byte, flags rcl.SurfaceFlags) {
	if flags&rcl.FlagRBSwap != 0 && len(b) >= 3 {
		b[0], b[2] = b[2], b[0]
	}
	if flags&rcl.FlagChannelReverse != 0 {
		slices.Reverse(b)
	}
}

// visit calls fn for every memory texel sample i of each pixel of t maps
// to. Surfaces without every sample are read and written at the pixel.
func (e *Executor) visit(f *frame, t *tile, s rcl.Surface, fn func(p *pixel, i uint32, texel []byte) error) error {
	m, err := e.bytes(s.Handle)
	if err != nil {
		return err
	}
	sf := surface{handle: s.Handle, offset: s.Offset, stride: s.Stride, tiling: s.Tiling, cpp: s.Format.BlockBytes()}
	if sf.cpp == 0 {
		return fmt.Errorf("%w: surface format %v", ErrUnsupported, s.Format)
	}
	samples := uint32(1)
	if s.Flags&rcl.FlagMultisample != 0 {
		samples = f.samples
	}
	for y := uint32(0); y < t.h; y++ {
		for x := uint32(0); x < t.w; x++ {
			p := t.at(x, y)
			for i := uint32(0); i < samples; i++ {
				mx, my := t.x0+x, t.y0+y
				if s.Flags&rcl.FlagMultisample != 0 {
					mx, my = sampleCoord(mx, my, i)
				}
				b, err := sf.texel(m, mx, my)
				if err != nil {
					return err
				}
				if err := fn(p, i, b); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (e *Executor) load(f *frame, t *tile, s rcl.Surface) error {
	multi := s.Flags&rcl.FlagMultisample != 0
	return e.visit(f, t, s, func(p *pixel, i uint32, texel []byte) error {
		var raw [16]byte
		n := copy(raw[:], texel)
		loadOrder(raw[:n], s.Flags)
		// A single-sampled load fills every sample of the pixel.
		first, last := i, i+1
		if !multi {
			first, last = 0, f.samples
		}
		for k := first; k < last; k++ {
			if s.Buffer.IsColor() {
				p.rt[s.Buffer][k] = raw
				continue
			}
			if err := loadZS(p, k, s.Buffer, s.Format, raw[:n]); err != nil {
				return err
			}
		}
		return nil
	})
}

// loadZS sets the depth and/or stencil of sample i from one texel of f.
// Packed D24 words hold depth in the upper 24 bits.
func loadZS(p *pixel, i uint32, buf rcl.Buffer, f format.Format, b []byte) error {
	var (
		depth      uint32
		stencil    uint8
		hasZ, hasS bool
	)
	switch f {
	case format.D16Unorm:
		depth, hasZ = uint32(binary.LittleEndian.Uint16(b)), true
	case format.X8D24Unorm:
		depth, hasZ = binary.LittleEndian.Uint32(b)>>8, true
	case format.D24UnormS8Uint:
		w := binary.LittleEndian.Uint32(b)
		depth, stencil, hasZ, hasS = w>>8, uint8(w), true, true
	case format.D32Sfloat:
		depth, hasZ = binary.LittleEndian.Uint32(b), true
	case format.S8Uint:
		stencil, hasS = b[0], true
	default:
		return fmt.Errorf("%w: %v load as %v", ErrUnsupported, buf, f)
	}
	if hasZ && buf != rcl.BufferStencil {
		p.z[i] = depth
	}
	if hasS && buf != rcl.BufferZ {
		p.s[i] = stencil
	}
	return nil
}

// storeZS packs depth and stencil of sample i as one texel of f. Combined
// formats always receive the whole word.
func storeZS(p *pixel, i uint32, f format.Format, b []byte) error {
	switch f {
	case format.D16Unorm:
		binary.LittleEndian.PutUint16(b, uint16(p.z[i]))
	case format.X8D24Unorm, format.D24UnormS8Uint:
		binary.LittleEndian.PutUint32(b, p.z[i]<<8|uint32(p.s[i]))
	case format.D32Sfloat:
		binary.LittleEndian.PutUint32(b, p.z[i])
	case format.S8Uint:
		b[0] = p.s[i]
	default:
		return fmt.Errorf("%w: z/s store as %v", ErrUnsupported, f)
	}
	return nil
}

func (e *Executor) store(f *frame, t *tile, s rcl.Surface) error {
	if s.Buffer == rcl.BufferNone {
		return nil
	}
	decimate := s.Flags&rcl.FlagDecimate != 0 && s.Buffer.IsColor()
	err := e.visit(f, t, s, func(p *pixel, i uint32, texel []byte) error {
		var raw [16]byte
		switch {
		case decimate:
			raw = resolvePixel(p.rt[s.Buffer][:f.samples], len(texel), f.internal[s.Buffer])
		case s.Buffer.IsColor():
			raw = p.rt[s.Buffer][i]
		default:
			if err := storeZS(p, i, s.Format, raw[:len(texel)]); err != nil {
				return err
			}
		}
		out := raw[:len(texel)]
		storeOrder(out, s.Flags)
		copy(texel, out)
		return nil
	})
	if err != nil || s.Flags&rcl.FlagClear == 0 {
		return err
	}
	for i := range t.px {
		p := &t.px[i]
		for k := uint32(0); k < maxSamples; k++ {
			switch {
			case s.Buffer.IsColor():
				p.rt[s.Buffer][k] = f.clear[s.Buffer]
			default:
				p.z[k], p.s[k] = f.depth, f.stencil
			}
		}
	}
	return nil
}

// resolvePixel averages the samples of a pixel. Only 8-bit normalized
// render targets are averaged; other internal types keep sample 0.
func resolvePixel(samples [][16]byte, n int, it format.InternalType) [16]byte {
	if it != format.Internal8 || len(samples) == 1 {
		return samples[0]
	}
	var out [16]byte
	for b := 0; b < n; b++ {
		sum := 0
		for _, s := range samples {
			sum += int(s[b])
		}
		out[b] = byte((sum + len(samples)/2) / len(samples))
	}
	return out
}
