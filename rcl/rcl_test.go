package rcl

import (
	"errors"
	"testing"

	"github.com/gogpu/tilexfer/format"
	"github.com/gogpu/tilexfer/internal/mem"
)

func TestTileSize(t *testing.T) {
	tests := []struct {
		name  string
		rts   uint32
		bpp   format.InternalBPP
		msaa  bool
		db    bool
		wantW uint32
		wantH uint32
	}{
		{"single", 1, format.BPP32, false, false, 64, 64},
		{"double buffer", 1, format.BPP32, false, true, 64, 32},
		{"msaa", 1, format.BPP32, true, false, 32, 32},
		{"two targets", 2, format.BPP64, false, false, 32, 32},
		{"clamped", 4, format.BPP128, true, false, 8, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := TileSize(tt.rts, tt.bpp, tt.msaa, tt.db)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("TileSize = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestNewFrameTiling(t *testing.T) {
	ft, err := NewFrameTiling(FrameParams{Width: 4096, Height: 4096, Layers: 1})
	if err != nil {
		t.Fatal(err)
	}
	if ft.DrawTilesX != 64 || ft.DrawTilesY != 64 {
		t.Errorf("draw tiles = %dx%d, want 64x64", ft.DrawTilesX, ft.DrawTilesY)
	}
	if ft.FrameWidthInSupertiles*ft.FrameHeightInSupertiles >= maxSupertiles {
		t.Errorf("%d supertiles, want < %d", ft.FrameWidthInSupertiles*ft.FrameHeightInSupertiles, maxSupertiles)
	}
	if ft.SupertileWidth != 4 || ft.SupertileHeight != 5 {
		t.Errorf("supertile = %dx%d, want 4x5", ft.SupertileWidth, ft.SupertileHeight)
	}

	small, err := NewFrameTiling(FrameParams{Width: 100, Height: 30, Layers: 1})
	if err != nil {
		t.Fatal(err)
	}
	if small.DrawTilesX != 2 || small.DrawTilesY != 1 || small.SupertileWidth != 1 {
		t.Errorf("small frame tiling = %+v", small)
	}
}

func TestNewFrameTilingMSAADisablesDoubleBuffer(t *testing.T) {
	ft, err := NewFrameTiling(FrameParams{Width: 64, Height: 64, Layers: 1, MSAA: true, DoubleBuffer: true})
	if err != nil {
		t.Fatal(err)
	}
	if ft.DoubleBuffer {
		t.Error("double buffering kept on an MSAA frame")
	}
}

func TestNewFrameTilingInvalid(t *testing.T) {
	for _, p := range []FrameParams{
		{Width: 0, Height: 10, Layers: 1},
		{Width: 10, Height: 10, Layers: 0},
		{Width: 10, Height: 10, Layers: 1, RenderTargets: 5},
	} {
		if _, err := NewFrameTiling(p); !errors.Is(err, ErrInvalidFrame) {
			t.Errorf("NewFrameTiling(%+v) error = %v, want ErrInvalidFrame", p, err)
		}
	}
}

func newTestJob(t *testing.T, p FrameParams) *Job {
	t.Helper()
	pool := mem.NewPool(mem.Config{})
	j, err := NewJob(pool, p)
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	t.Cleanup(func() {
		if err := j.Release(); err != nil {
			t.Errorf("Release: %v", err)
		}
	})
	return j
}

func copyOps(layers int) []LayerOps {
	ops := make([]LayerOps, layers)
	for i := range ops {
		ops[i] = LayerOps{
			Loads: []Surface{{Buffer: BufferRT0, Handle: 7, Offset: uint32(i) * 4096, Stride: 1024, Format: format.RGBA8Unorm}},
			Stores: []Surface{{Buffer: BufferRT0, Handle: 8, Offset: uint32(i) * 4096, Stride: 1024,
				Format: format.RGBA8Unorm, Tiling: format.TilingUIFNoXOR}},
		}
	}
	return ops
}

func decode(t *testing.T, words []uint32) []Record {
	t.Helper()
	recs, err := Decode(words)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return recs
}

// checkLoadsBeforeStores verifies that within every tile program the
// END_OF_LOADS record comes before the first store.
func checkLoadsBeforeStores(t *testing.T, recs []Record) {
	t.Helper()
	endOfLoads := -1
	for i, r := range recs {
		switch r.Op {
		case OpTileCoordinates, OpTileCoordinatesImplicit:
			endOfLoads = -1
		case OpEndOfLoads:
			endOfLoads = i
		case OpStoreTileBufferGeneral:
			if endOfLoads < 0 || endOfLoads >= i {
				t.Fatalf("store at record %d precedes END_OF_LOADS", i)
			}
		}
	}
}

func TestEmitShape(t *testing.T) {
	j := newTestJob(t, FrameParams{Width: 256, Height: 256, Layers: 2})
	err := j.Emit(Frame{
		Targets: []RenderTarget{{Internal: format.Internal8, BPP: format.BPP32}},
		Layers:  copyOps(2),
	})
	if err != nil {
		t.Fatal(err)
	}

	rcl := decode(t, j.RCL.Words)
	if rcl[0].Op != OpTileRenderingModeCfgCommon {
		t.Errorf("first record = %v", rcl[0].Op)
	}
	if last := rcl[len(rcl)-1]; last.Op != OpEndOfRendering {
		t.Errorf("last record = %v", last.Op)
	}
	if n := Count(rcl, OpEndOfRendering); n != 1 {
		t.Errorf("%d END_OF_RENDERING records", n)
	}
	if n := Count(rcl, OpStartAddressOfGenericTileList); n != 2 {
		t.Errorf("%d generic tile lists, want 2", n)
	}
	// 4x4 tiles with 1x1 supertiles, walked once per layer.
	if n := Count(rcl, OpSupertileCoordinates); n != 32 {
		t.Errorf("%d supertile records, want 32", n)
	}
	checkLoadsBeforeStores(t, rcl)

	want := []Opcode{
		OpTileCoordinatesImplicit, OpLoadTileBufferGeneral, OpEndOfLoads, OpBranchToImplicitTileList,
		OpStoreTileBufferGeneral, OpEndOfTileMarker, OpReturnFromSubList,
	}
	layer := 0
	for _, r := range rcl {
		if r.Op != OpStartAddressOfGenericTileList {
			continue
		}
		if r.Args[0] != j.IndirectList.Handle {
			t.Errorf("tile list handle = %d, want %d", r.Args[0], j.IndirectList.Handle)
		}
		body := decode(t, j.SubList(r.Args[1], r.Args[2]))
		if len(body) != len(want) {
			t.Fatalf("layer %d body has %d records, want %d", layer, len(body), len(want))
		}
		for i, op := range want {
			if body[i].Op != op {
				t.Errorf("layer %d record %d = %v, want %v", layer, i, body[i].Op, op)
			}
		}
		checkLoadsBeforeStores(t, body)
		if got := body[1].Surface().Offset; got != uint32(layer)*4096 {
			t.Errorf("layer %d load offset = %d", layer, got)
		}
		layer++
	}
}

func TestEmitLayerTileListBase(t *testing.T) {
	j := newTestJob(t, FrameParams{Width: 128, Height: 128, Layers: 3})
	if err := j.Emit(Frame{Layers: copyOps(3)}); err != nil {
		t.Fatal(err)
	}
	var bases []uint32
	for _, r := range decode(t, j.RCL.Words) {
		if r.Op == OpTileListSetBase {
			if r.Args[0] != j.TileAlloc.Handle {
				t.Errorf("tile list base handle = %d", r.Args[0])
			}
			bases = append(bases, r.Args[1])
		}
	}
	tiles := j.Tiling.Tiles()
	if len(bases) != 3 || bases[0] != 0 || bases[1] != 64*tiles || bases[2] != 128*tiles {
		t.Errorf("tile list bases = %v, want steps of %d", bases, 64*tiles)
	}
}

func TestEmitLayerCountMismatch(t *testing.T) {
	j := newTestJob(t, FrameParams{Width: 64, Height: 64, Layers: 2})
	if err := j.Emit(Frame{Layers: copyOps(1)}); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("Emit error = %v, want ErrInvalidFrame", err)
	}
}

func TestFrameSetupClears(t *testing.T) {
	tests := []struct {
		name   string
		params FrameParams
		clear  bool
		want   int
	}{
		{"no clear", FrameParams{Width: 256, Height: 256, Layers: 1}, false, 0},
		{"single buffer", FrameParams{Width: 256, Height: 256, Layers: 1}, true, 1},
		{"double buffer many tiles", FrameParams{Width: 256, Height: 256, Layers: 1, DoubleBuffer: true}, true, 2},
		{"double buffer one tile", FrameParams{Width: 32, Height: 32, Layers: 1, DoubleBuffer: true}, true, 1},
		{"double buffer layers", FrameParams{Width: 32, Height: 32, Layers: 2, DoubleBuffer: true}, true, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := newTestJob(t, tt.params)
			ops := make([]LayerOps, tt.params.Layers)
			if err := j.Emit(Frame{Clear: tt.clear, Layers: ops}); err != nil {
				t.Fatal(err)
			}
			recs := decode(t, j.RCL.Words)
			if n := Count(recs, OpClearTileBuffers); n != tt.want {
				t.Errorf("%d CLEAR_TILE_BUFFERS, want %d", n, tt.want)
			}
			if n := Count(recs, OpTileCoordinates); n != 2*int(tt.params.Layers) {
				t.Errorf("%d dummy tiles, want %d", n, 2*tt.params.Layers)
			}
		})
	}
}

func TestSupertileWalk(t *testing.T) {
	j := newTestJob(t, FrameParams{Width: 256, Height: 256, Layers: 1})
	j.EmitSupertiles(Rect{X: 64, Y: 64, Width: 100, Height: 100})
	recs := decode(t, j.RCL.Words)
	want := [][2]uint32{{1, 1}, {2, 1}, {1, 2}, {2, 2}}
	if len(recs) != len(want) {
		t.Fatalf("%d supertile records, want %d", len(recs), len(want))
	}
	for i, w := range want {
		if recs[i].Args[0] != w[0] || recs[i].Args[1] != w[1] {
			t.Errorf("record %d = %v, want %v", i, recs[i].Args, w)
		}
	}
}

func TestBodyStoreBeforeEndOfLoadsPanics(t *testing.T) {
	j := newTestJob(t, FrameParams{Width: 64, Height: 64, Layers: 1})
	b := j.BeginBody()
	defer func() {
		if recover() == nil {
			t.Error("store before END_OF_LOADS did not panic")
		}
	}()
	b.Store(Surface{Buffer: BufferRT0})
}

func TestBodyLoadAfterEndOfLoadsPanics(t *testing.T) {
	j := newTestJob(t, FrameParams{Width: 64, Height: 64, Layers: 1})
	b := j.BeginBody()
	b.EndLoads()
	defer func() {
		if recover() == nil {
			t.Error("load after END_OF_LOADS did not panic")
		}
	}()
	b.Load(Surface{Buffer: BufferRT0})
}

func TestSurfaceRoundTrip(t *testing.T) {
	s := Surface{
		Buffer: BufferZS, Handle: 3, Offset: 512, Stride: 256, PaddedHeight: 64,
		Format: format.D24UnormS8Uint, Tiling: format.TilingUIFXOR,
		Flags: FlagChannelReverse | FlagRBSwap,
	}
	l := NewList()
	l.WriteStore(s)
	recs := decode(t, l.Words)
	if got := recs[0].Surface(); got != s {
		t.Errorf("decoded %+v, want %+v", got, s)
	}
}

func TestNewJobOutOfMemory(t *testing.T) {
	pool := mem.NewPool(mem.Config{BudgetBytes: 8192})
	_, err := NewJob(pool, FrameParams{Width: 256, Height: 256, Layers: 1})
	if !errors.Is(err, mem.ErrBudgetExceeded) {
		t.Fatalf("NewJob error = %v, want ErrBudgetExceeded", err)
	}
	if n := pool.Stats().Objects; n != 0 {
		t.Errorf("%d objects left after failed NewJob", n)
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode([]uint32{999}); !errors.Is(err, ErrMalformed) {
		t.Errorf("unknown tag error = %v", err)
	}
	if _, err := Decode([]uint32{uint32(OpTileCoordinates), 1}); !errors.Is(err, ErrMalformed) {
		t.Errorf("truncated record error = %v", err)
	}
}

func TestBufferNames(t *testing.T) {
	tests := []struct {
		b     Buffer
		color bool
		name  string
	}{
		{BufferRT0, true, "rt0"},
		{BufferRT3, true, "rt3"},
		{BufferZ, false, "z"},
		{BufferStencil, false, "stencil"},
		{BufferZS, false, "zs"},
		{BufferNone, false, "none"},
	}
	for _, tt := range tests {
		if got := tt.b.IsColor(); got != tt.color {
			t.Errorf("%v.IsColor() = %v, want %v", tt.b, got, tt.color)
		}
		if got := tt.b.String(); got != tt.name {
			t.Errorf("Buffer(%d).String() = %q, want %q", uint8(tt.b), got, tt.name)
		}
	}
}
