package rcl

import (
	"fmt"

	"github.com/gogpu/tilexfer/format"
)

// RenderTarget configures one color render target of a frame.
type RenderTarget struct {
	Internal format.InternalType
	BPP      format.InternalBPP
	// Clear holds the packed clear texel, or nil.
	Clear []byte
}

// LayerOps are the loads and stores of the generic tile list of one layer.
type LayerOps struct {
	Loads  []Surface
	Stores []Surface
}

// Frame describes everything a job renders.
type Frame struct {
	Targets []RenderTarget
	// DepthFormat is the format of the Z/S tile buffer, or format.Undefined.
	DepthFormat format.Format
	// Clear clears all tile buffers during frame setup.
	Clear   bool
	Depth   uint32
	Stencil uint8
	// Region limits the supertile walk. The zero Rect covers the frame.
	Region Rect
	Layers []LayerOps
}

// depthType returns the Z buffer type field of the rendering mode.
func depthType(f format.Format) uint32 {
	switch f {
	case format.D16Unorm:
		return 1
	case format.X8D24Unorm, format.D24UnormS8Uint:
		return 2
	case format.D32Sfloat:
		return 3
	}
	return 0
}

// Emit writes the complete render command list of f: prologue, then for
// each layer the frame setup, generic tile list and supertile walk, then
// END_OF_RENDERING.
func (j *Job) Emit(f Frame) error {
	t := j.Tiling
	if uint32(len(f.Layers)) != t.Layers {
		return fmt.Errorf("%w: %d layer bodies for %d layers", ErrInvalidFrame, len(f.Layers), t.Layers)
	}
	if len(f.Targets) > MaxRenderTargets {
		return fmt.Errorf("%w: %d render targets", ErrInvalidFrame, len(f.Targets))
	}
	region := f.Region
	if region.Width == 0 || region.Height == 0 {
		region = Rect{Width: t.Width, Height: t.Height}
	}

	j.EmitPrologue(f)
	for layer, ops := range f.Layers {
		j.EmitFrameSetup(uint32(layer), f.Clear)
		b := j.BeginBody()
		for _, s := range ops.Loads {
			b.Load(s)
		}
		b.EndLoads()
		for _, s := range ops.Stores {
			b.Store(s)
		}
		b.End()
		j.EmitSupertiles(region)
	}
	j.EmitEpilogue()
	return nil
}

// EmitPrologue writes the rendering mode and clear values.
func (j *Job) EmitPrologue(f Frame) {
	l := j.RCL
	l.WriteRenderingModeCommon(j.Tiling, depthType(f.DepthFormat))
	targets := f.Targets
	if len(targets) == 0 {
		// The hardware always configures at least one color target.
		targets = []RenderTarget{{Internal: format.Internal8, BPP: format.BPP32}}
	}
	for i, rt := range targets {
		l.WriteRenderingModeColor(uint32(i), uint32(rt.Internal), uint32(rt.BPP))
		if rt.Clear != nil {
			l.WriteClearColors(uint32(i), rt.Clear)
		}
	}
	l.WriteZSClear(f.Depth, f.Stencil)
	l.WriteInitialBlockSize(tileAllocBlockSize)
}

// EmitFrameSetup writes the tile-list base and supertile configuration of a
// layer, followed by the two dummy tiles the hardware needs before the
// first real tile of a frame. The first one clears the tile buffers when
// clear is set; the second one as well when double buffering leaves the
// other buffer dirty.
func (j *Job) EmitFrameSetup(layer uint32, clear bool) {
	t := j.Tiling
	l := j.RCL
	l.WriteTileListBase(j.TileAlloc.Handle, tileAllocBlockSize*layer*t.Tiles())
	l.WriteSupertileCfg(t)
	for i := 0; i < 2; i++ {
		l.WriteTileCoordinates(0, 0)
		l.WriteEndOfLoads()
		l.WriteStore(Surface{Buffer: BufferNone})
		if clear && (i == 0 || t.DoubleInitialClear()) {
			l.WriteClearTileBuffers(ClearZStencil | ClearAllRenderTargets)
		}
		l.WriteEndOfTileMarker()
	}
	l.WriteFlushVCDCache()
}

// EmitSupertiles writes one SUPERTILE_COORDINATES record for every
// supertile r touches, row by row.
func (j *Job) EmitSupertiles(r Rect) {
	minX, minY, maxX, maxY := j.Tiling.SupertileRange(r)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			j.RCL.WriteSupertileCoordinates(x, y)
		}
	}
}

// EmitEpilogue closes the job.
func (j *Job) EmitEpilogue() {
	j.RCL.WriteEndOfRendering()
}

// Body builds one generic tile list in the job's indirect list. Loads must
// all precede END_OF_LOADS, and stores must all follow it.
type Body struct {
	j           *Job
	start       uint32
	loadsClosed bool
	ended       bool
}

// BeginBody starts a generic tile list. Only one body may be open at a time.
func (j *Job) BeginBody() *Body {
	if j.body != nil {
		panic("rcl: tile list body already open")
	}
	b := &Body{j: j, start: j.Indirect.Bytes()}
	j.Indirect.WriteTileCoordinatesImplicit()
	j.body = b
	return b
}

// Load appends a tile-buffer load.
func (b *Body) Load(s Surface) {
	if b.loadsClosed {
		panic("rcl: load after END_OF_LOADS")
	}
	b.j.Indirect.WriteLoad(s)
}

// EndLoads closes the loads and branches to the implicit tile list, where
// the binned draws of the job run.
func (b *Body) EndLoads() {
	if b.loadsClosed {
		return
	}
	b.j.Indirect.WriteEndOfLoads()
	b.j.Indirect.WriteBranchToImplicitTileList()
	b.loadsClosed = true
}

// Store appends a tile-buffer store.
func (b *Body) Store(s Surface) {
	if !b.loadsClosed {
		panic("rcl: store before END_OF_LOADS")
	}
	if b.ended {
		panic("rcl: store after end of tile")
	}
	b.j.Indirect.WriteStore(s)
}

// End terminates the body and references it from the render command list.
func (b *Body) End() {
	if b.ended {
		return
	}
	b.EndLoads()
	l := b.j.Indirect
	l.WriteEndOfTileMarker()
	l.WriteReturnFromSubList()
	b.ended = true
	b.j.body = nil
	b.j.RCL.WriteGenericTileList(b.j.IndirectList.Handle, b.start, l.Bytes())
}
