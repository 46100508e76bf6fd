package rcl

import (
	"errors"
	"fmt"

	"github.com/gogpu/tilexfer/format"
)

// Frame limits.
const (
	MaxRenderTargets = 4
	// maxSupertiles bounds the number of supertiles in a frame.
	maxSupertiles = 256
)

// ErrInvalidFrame is returned for frame parameters the hardware cannot
// render.
var ErrInvalidFrame = errors.New("rcl: invalid frame parameters")

// tileSizes lists tile width/height pairs from the largest tile down. The
// index grows with render-target count, sample count, double buffering and
// internal bpp, since all of them share the fixed tile-buffer memory.
var tileSizes = [...][2]uint32{
	{64, 64},
	{64, 32},
	{32, 32},
	{32, 16},
	{16, 16},
	{16, 8},
	{8, 8},
}

// FrameParams describes the frame a job renders.
type FrameParams struct {
	Width, Height uint32
	Layers        uint32
	RenderTargets uint32
	MaxBPP        format.InternalBPP
	MSAA          bool
	// DoubleBuffer is ignored for multisampled frames.
	DoubleBuffer bool
}

// FrameTiling is the tile and supertile grid of one frame. It is not
// modified after NewFrameTiling returns.
type FrameTiling struct {
	FrameParams

	TileWidth, TileHeight uint32
	DrawTilesX            uint32
	DrawTilesY            uint32

	SupertileWidth          uint32 // in tiles
	SupertileHeight         uint32 // in tiles
	FrameWidthInSupertiles  uint32
	FrameHeightInSupertiles uint32
}

// TileSize returns the tile dimensions for the given render-target count,
// internal bpp, MSAA and double-buffer configuration.
func TileSize(renderTargets uint32, bpp format.InternalBPP, msaa, doubleBuffer bool) (w, h uint32) {
	idx := 0
	switch {
	case renderTargets > 2:
		idx += 2
	case renderTargets > 1:
		idx++
	}
	switch {
	case msaa:
		idx += 2
	case doubleBuffer:
		idx++
	}
	idx += int(bpp)
	if idx >= len(tileSizes) {
		idx = len(tileSizes) - 1
	}
	return tileSizes[idx][0], tileSizes[idx][1]
}

// NewFrameTiling computes the grid of a frame.
func NewFrameTiling(p FrameParams) (FrameTiling, error) {
	if p.Width == 0 || p.Height == 0 || p.Layers == 0 {
		return FrameTiling{}, fmt.Errorf("%w: %dx%d, %d layers", ErrInvalidFrame, p.Width, p.Height, p.Layers)
	}
	if p.RenderTargets > MaxRenderTargets {
		return FrameTiling{}, fmt.Errorf("%w: %d render targets", ErrInvalidFrame, p.RenderTargets)
	}
	if p.RenderTargets == 0 {
		p.RenderTargets = 1
	}
	if p.MSAA {
		p.DoubleBuffer = false
	}

	t := FrameTiling{FrameParams: p}
	t.TileWidth, t.TileHeight = TileSize(p.RenderTargets, p.MaxBPP, p.MSAA, p.DoubleBuffer)
	t.DrawTilesX = divRoundUp(p.Width, t.TileWidth)
	t.DrawTilesY = divRoundUp(p.Height, t.TileHeight)

	// Grow supertiles, alternating axes, until the frame fits in the
	// supertile budget.
	t.SupertileWidth, t.SupertileHeight = 1, 1
	for {
		t.FrameWidthInSupertiles = divRoundUp(t.DrawTilesX, t.SupertileWidth)
		t.FrameHeightInSupertiles = divRoundUp(t.DrawTilesY, t.SupertileHeight)
		if t.FrameWidthInSupertiles*t.FrameHeightInSupertiles < maxSupertiles {
			break
		}
		if t.SupertileWidth < t.SupertileHeight {
			t.SupertileWidth++
		} else {
			t.SupertileHeight++
		}
	}
	return t, nil
}

// Tiles returns the number of tiles in one layer.
func (t FrameTiling) Tiles() uint32 { return t.DrawTilesX * t.DrawTilesY }

// DoubleInitialClear reports whether the second pass of the frame-setup
// workaround must clear as well. With double buffering the second pass
// lands in the other tile buffer, which needs the clear whenever more than
// one tile is rendered.
func (t FrameTiling) DoubleInitialClear() bool {
	return t.DoubleBuffer && (t.DrawTilesX > 1 || t.DrawTilesY > 1 || t.Layers > 1)
}

// Rect is a pixel rectangle within a frame.
type Rect struct {
	X, Y          uint32
	Width, Height uint32
}

// SupertileRange returns the inclusive supertile bounds covering r.
func (t FrameTiling) SupertileRange(r Rect) (minX, minY, maxX, maxY uint32) {
	w := t.TileWidth * t.SupertileWidth
	h := t.TileHeight * t.SupertileHeight
	minX, minY = r.X/w, r.Y/h
	maxX = (r.X + r.Width - 1) / w
	maxY = (r.Y + r.Height - 1) / h
	return minX, minY, maxX, maxY
}

func divRoundUp(a, b uint32) uint32 {
	return (a + b - 1) / b
}
